package web

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"painel-preditivo/connectors/config"
	snapshots "painel-preditivo/connectors/csv"
	"painel-preditivo/connectors/sources"
	dc "painel-preditivo/domain/config"
	"painel-preditivo/domain/dashboard"
	"painel-preditivo/domain/table"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// AppName is reported by /health.
const AppName = "painel-preditivo"

// TableLoader produces the unified incident table.
type TableLoader interface {
	Load(ctx context.Context) (table.Table, error)
	Key() string
}

// Server renders the dashboard. When preloaded, the table is read once at start and shared
// read-only by every request.
type Server struct {
	loader    TableLoader
	loaderErr error
	cached    *table.Table
	topN      int
	dataDir   string
	now       func() time.Time
}

// Run starts the Echo web server.
//
// Usage:
//
//	painel web [-addr :8080] [-preload]
//
// Endpoints:
//
//	GET  /                      -> HTML dashboard
//	GET  /api/dashboard         -> the same aggregates as JSON
//	GET  /api/snapshots/<view>  -> <data>/<view>.csv written by calculate (404 if missing)
//	GET  /health                -> {"status":"ok","app":"painel-preditivo"}
//	POST /upload_json           -> echoes a multipart .json file back with a receipt id
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML config file (default $CONFIG_PATH or ./config.yml)")
	addr := fs.String("addr", "", "http listen address (host:port), overrides config")
	preload := fs.Bool("preload", false, "load the spreadsheets once at start and reuse them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}
	if *preload {
		cfg.Web.Preload = true
	}

	s := NewServer(context.Background(), cfg)
	slog.Info("web.start", "addr", cfg.Web.Addr, "source", cfg.Source, "preload", cfg.Web.Preload)
	return s.Routes().Start(cfg.Web.Addr)
}

// NewServer wires the configured source. A source that cannot be built is not fatal: every
// render then shows the placeholder with the configuration error.
func NewServer(ctx context.Context, cfg *dc.Config) *Server {
	s := &Server{topN: cfg.TopN, dataDir: cfg.DataDir, now: time.Now}
	l, err := sources.New(ctx, cfg)
	if err != nil {
		slog.Error("web.source.error", "source", cfg.Source, "error", err)
		s.loaderErr = err
		return s
	}
	s.loader = l
	if cfg.Web.Preload {
		s.Preload(ctx)
	}
	return s
}

// NewServerWithLoader is used by tests and by callers that build their own loader.
func NewServerWithLoader(l TableLoader, topN int, dataDir string) *Server {
	return &Server{loader: l, topN: topN, dataDir: dataDir, now: time.Now}
}

// Preload caches the unified table. On failure requests keep loading on demand.
func (s *Server) Preload(ctx context.Context) {
	if s.loader == nil {
		return
	}
	t, err := s.loader.Load(ctx)
	if err != nil {
		slog.Warn("web.preload.error", "error", err)
		return
	}
	s.cached = &t
	slog.Info("web.preload.done", "rows", t.Len())
}

// Routes builds the Echo instance.
func (s *Server) Routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = newRenderer()

	e.GET("/", s.index)
	e.GET("/api/dashboard", s.api)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "app": AppName})
	})
	e.POST("/upload_json", uploadJSON)
	for view, filename := range snapshots.Snapshots {
		e.GET("/api/snapshots/"+view, s.serveCSV(filename))
	}
	return e
}

func (s *Server) serveCSV(filename string) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := filepath.Join(s.dataDir, filename)
		rows, err := snapshots.ReadCSV(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.JSON(http.StatusNotFound, map[string]any{
					"erro":     "arquivo não encontrado",
					"caminho":  path,
					"mensagem": "execute o comando calculate para gerar os CSVs",
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"erro":     err.Error(),
				"caminho":  path,
				"mensagem": "falha ao ler o CSV",
			})
		}
		return c.JSON(http.StatusOK, rows)
	}
}

func (s *Server) index(c echo.Context) error {
	d := s.Dashboard(c.Request().Context())
	return c.Render(http.StatusOK, "index.html", d)
}

func (s *Server) api(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Dashboard(c.Request().Context()))
}

// Dashboard runs load, normalize and aggregate. It never fails: any error, panics included,
// turns into the placeholder dashboard carrying the error message.
func (s *Server) Dashboard(ctx context.Context) (d *dashboard.Dashboard) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dashboard.panic", "panic", r)
			d = dashboard.Placeholder(fmt.Errorf("erro inesperado: %v", r), s.now())
		}
	}()

	d, err := s.build(ctx)
	if err != nil {
		slog.Error("dashboard.load.error", "error", err)
		return dashboard.Placeholder(err, s.now())
	}
	return d
}

func (s *Server) build(ctx context.Context) (*dashboard.Dashboard, error) {
	if s.loader == nil {
		if s.loaderErr != nil {
			return nil, s.loaderErr
		}
		return nil, errors.New("nenhuma fonte de dados configurada")
	}
	var t table.Table
	if s.cached != nil {
		t = *s.cached
	} else {
		var err error
		if t, err = s.loader.Load(ctx); err != nil {
			return nil, err
		}
	}
	return dashboard.Build(t, s.loader.Key(), dashboard.Options{TopN: s.topN, Now: s.now()})
}

type renderer struct {
	t *template.Template
}

func newRenderer() *renderer {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"ranking": func(title string, rows []dashboard.Ranked) map[string]any {
			return map[string]any{"Title": title, "Rows": rows}
		},
		"num": func(f float64) string {
			return strings.Replace(fmt.Sprintf("%.2f", f), ".", ",", 1)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "--"
			}
			return t.Format("02/01/2006")
		},
		"bar": func(v float64, hourly []dashboard.HourProjection) float64 {
			peak := 0.0
			for _, h := range hourly {
				if h.Value > peak {
					peak = h.Value
				}
			}
			if peak == 0 {
				return 0
			}
			return 100 * v / peak
		},
	}
	return &renderer{t: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))}
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.t.ExecuteTemplate(w, name, data)
}

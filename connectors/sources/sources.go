package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"painel-preditivo/connectors/config"
	"painel-preditivo/connectors/demo"
	"painel-preditivo/connectors/drive"
	"painel-preditivo/connectors/xlsx"
	dc "painel-preditivo/domain/config"
	"painel-preditivo/domain/table"
)

// Fetcher returns the content of one spreadsheet and the file name used to pick its format.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (name string, data []byte, err error)
}

// Dir reads spreadsheets from a local directory; ids are file names. A missing .xlsx is looked up
// as .csv (and the reverse), the other name import may have written.
type Dir struct {
	Path string
}

func (d Dir) Fetch(_ context.Context, id string) (string, []byte, error) {
	if id == "" {
		return "", nil, fmt.Errorf("%w: empty file name", config.ErrInvalid)
	}
	b, err := os.ReadFile(filepath.Join(d.Path, id))
	if errors.Is(err, os.ErrNotExist) {
		if alt := sibling(id); alt != "" {
			if ab, aerr := os.ReadFile(filepath.Join(d.Path, alt)); aerr == nil {
				slog.Debug("sources.dir.sibling", "configured", id, "read", alt)
				return alt, ab, nil
			}
		}
	}
	if err != nil {
		return "", nil, err
	}
	return id, b, nil
}

func sibling(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	switch strings.ToLower(ext) {
	case ".xlsx":
		return stem + ".csv"
	case ".csv":
		return stem + ".xlsx"
	}
	return ""
}

// Drive adapts the Drive client to Fetcher.
type Drive struct {
	Client *drive.Client
}

func (d Drive) Fetch(ctx context.Context, id string) (string, []byte, error) {
	f, err := d.Client.Fetch(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return f.Name, f.Data, nil
}

// DemoSize is the number of simulated incidents produced by the demo source.
const DemoSize = 400

// Loader fetches the three fact spreadsheets and merges them into the unified table.
type Loader struct {
	fetcher Fetcher
	files   dc.Files
	key     string
	now     func() time.Time
}

// New builds a Loader for the configured source. Drive requires the credential and the three ids.
func New(ctx context.Context, c *dc.Config) (*Loader, error) {
	l := &Loader{key: c.KeyColumn, now: time.Now}
	switch c.Source {
	case "drive":
		if err := config.RequireDrive(c); err != nil {
			return nil, err
		}
		client, err := drive.NewClient(ctx, c.Drive.ServiceAccountJSON)
		if err != nil {
			return nil, err
		}
		l.fetcher, l.files = Drive{Client: client}, c.Drive.Files
	case "dir":
		l.fetcher, l.files = Dir{Path: c.DataDir}, c.LocalFiles
	case "demo":
	default:
		return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalid, c.Source)
	}
	return l, nil
}

// NewWithFetcher is used when the caller already has a Fetcher.
func NewWithFetcher(f Fetcher, files dc.Files, key string) *Loader {
	return &Loader{fetcher: f, files: files, key: key, now: time.Now}
}

// Key is the identifier column name used for the merge.
func (l *Loader) Key() string { return l.key }

// Tables fetches and parses the fact-date, fact-hour and fact-location spreadsheets, in that order.
func (l *Loader) Tables(ctx context.Context) ([]table.Table, error) {
	if l.fetcher == nil {
		ref := l.now().UTC().Truncate(24 * time.Hour)
		d, h, p := demo.Tables(ref, DemoSize, ref.Unix())
		return []table.Table{d, h, p}, nil
	}
	ids := []string{l.files.Date, l.files.Hour, l.files.Location}
	out := make([]table.Table, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w: missing spreadsheet id", config.ErrInvalid)
		}
		start := time.Now()
		name, data, err := l.fetcher.Fetch(ctx, id)
		if err != nil {
			slog.Error("sources.fetch.error", "id", id, "error", err)
			return nil, fmt.Errorf("fetch %s: %w", id, err)
		}
		t, err := xlsx.Parse(name, data)
		if err != nil {
			return nil, err
		}
		slog.Info("sources.fetch.done", "id", id, "name", name, "rows", t.Len(), "took", time.Since(start))
		out = append(out, t)
	}
	return out, nil
}

// Load returns the unified table: the three spreadsheets left-joined on the identifier,
// anchored at the fact-date table.
func (l *Loader) Load(ctx context.Context) (table.Table, error) {
	ts, err := l.Tables(ctx)
	if err != nil {
		return table.Table{}, err
	}
	merged, err := table.LeftJoin(l.key, ts[0], ts[1:]...)
	if err != nil {
		return table.Table{}, fmt.Errorf("merge: %w", err)
	}
	slog.Info("sources.merge.done", "rows", merged.Len(), "columns", len(merged.Headers))
	return merged, nil
}

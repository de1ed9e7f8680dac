package calculate

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"painel-preditivo/connectors/config"
	ccsv "painel-preditivo/connectors/csv"
	"painel-preditivo/connectors/sources"
	"painel-preditivo/connectors/xlsx"
	"painel-preditivo/domain/dashboard"
	"painel-preditivo/domain/table"
)

// WorkbookName is the spreadsheet holding one sheet per dashboard view.
const WorkbookName = "painel.xlsx"

// Loader produces the unified incident table.
type Loader interface {
	Load(ctx context.Context) (table.Table, error)
	Key() string
}

// Options control one calculate run.
type Options struct {
	OutDir   string
	TopN     int
	Workbook bool
	Now      time.Time
}

// Run executes the calculate command: load the configured source, aggregate it and write the
// unified table plus every dashboard view as CSV into the data directory.
//
// Usage:
//
//	painel calculate [-out ./data] [-xlsx=false]
func Run(args []string) error {
	fs := flag.NewFlagSet("calculate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "YAML config file (default $CONFIG_PATH or ./config.yml)")
	out := fs.String("out", "", "output directory (default: data_dir from config)")
	workbook := fs.Bool("xlsx", true, "also write "+WorkbookName+" with one sheet per view")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("calculate: unexpected arguments %v", fs.Args())
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = cfg.DataDir
	}

	ctx := context.Background()
	l, err := sources.New(ctx, cfg)
	if err != nil {
		return err
	}
	d, err := Calculate(ctx, l, Options{OutDir: *out, TopN: cfg.TopN, Workbook: *workbook})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "calculate.done rows=%d reference=%s out=%s\n", d.Rows, d.ReferenceDate.Format(time.DateOnly), *out)
	return nil
}

// Calculate runs the pipeline once and persists its outputs. Unlike the web handler it does not
// fall back to the placeholder: a failing source is an error here.
func Calculate(ctx context.Context, l Loader, opts Options) (*dashboard.Dashboard, error) {
	merged, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	d, err := dashboard.Build(merged, l.Key(), dashboard.Options{TopN: opts.TopN, Now: opts.Now})
	if err != nil {
		return nil, err
	}
	if err := ccsv.WriteAllCSVs(opts.OutDir, merged, d); err != nil {
		return nil, err
	}
	if opts.Workbook {
		b, err := xlsx.Encode(ccsv.ViewTables(d)...)
		if err != nil {
			return nil, fmt.Errorf("encode workbook: %w", err)
		}
		path := filepath.Join(opts.OutDir, WorkbookName)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return nil, err
		}
		slog.Info("calculate.workbook.written", "path", path)
	}
	return d, nil
}

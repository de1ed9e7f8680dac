package cmdimport

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"painel-preditivo/connectors/config"
	"painel-preditivo/connectors/drive"
	"painel-preditivo/connectors/sources"
	dc "painel-preditivo/domain/config"
)

// Run executes the import subcommand: download the three fact spreadsheets from Drive into the
// data directory so that the dir source (and calculate) can work offline.
//
// Usage:
//
//	painel import [-out ./data]
func Run(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "YAML config file (default $CONFIG_PATH or ./config.yml)")
	out := fs.String("out", "", "output directory (default: data_dir from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if err := config.RequireDrive(cfg); err != nil {
		return err
	}
	if *out == "" {
		*out = cfg.DataDir
	}

	ctx := context.Background()
	client, err := drive.NewClient(ctx, cfg.Drive.ServiceAccountJSON)
	if err != nil {
		return err
	}
	paths, err := Import(ctx, sources.Drive{Client: client}, cfg.Drive.Files, cfg.LocalFiles, *out)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "import.done files=%s\n", strings.Join(paths, ","))
	return nil
}

// Import fetches each id in ids and stores it in dir under the matching name from names.
// When the downloaded format differs from the configured name, the extension follows the download.
func Import(ctx context.Context, f sources.Fetcher, ids, names dc.Files, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	pairs := [][2]string{{ids.Date, names.Date}, {ids.Hour, names.Hour}, {ids.Location, names.Location}}
	paths := make([]string, 0, len(pairs))
	for _, p := range pairs {
		id, name := p[0], p[1]
		if id == "" {
			return nil, fmt.Errorf("%w: missing spreadsheet id", config.ErrInvalid)
		}
		remote, data, err := f.Fetch(ctx, id)
		if err != nil {
			slog.Error("import.fetch.error", "id", id, "error", err)
			return nil, fmt.Errorf("fetch %s: %w", id, err)
		}
		target := localName(name, remote)
		if target != name && name != "" {
			slog.Warn("import.name.changed", "id", id, "configured", name, "written", target)
		}
		path := filepath.Join(dir, target)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
		slog.Info("import.file.written", "id", id, "remote", remote, "path", path, "bytes", len(data))
		paths = append(paths, path)
	}
	return paths, nil
}

func localName(configured, remote string) string {
	if configured == "" {
		return filepath.Base(remote)
	}
	ext := strings.ToLower(filepath.Ext(remote))
	if ext == "" || strings.EqualFold(filepath.Ext(configured), ext) {
		return configured
	}
	return strings.TrimSuffix(configured, filepath.Ext(configured)) + ext
}

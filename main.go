package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdcalculate "painel-preditivo/command/calculate"
	cmdimport "painel-preditivo/command/import"
	cmdweb "painel-preditivo/command/web"
	"painel-preditivo/connectors/config"
)

// Painel preditivo: crime-incident dashboard built from three fact spreadsheets
// (fato_data, fato_hora, fato_local) joined on the incident number.
// Usage:
//   painel web [-addr :8080] [-preload]
//   painel calculate [-out ./data] [-xlsx=false]
//   painel import [-out ./data]
// Configuration comes from config.yml (CONFIG_PATH), .env and the environment; see config.example.yml.

const usage = `usage: painel web [-addr :8080] [-preload] | calculate [-out ./data] [-xlsx=false] | import [-out ./data]
ENV: CONFIG_PATH (YAML config, default ./config.yml), PAINEL_SOURCE (drive|dir|demo), GOOGLE_SERVICE_ACCOUNT_JSON,
     FATO_DATA_FILE_ID, FATO_HORA_FILE_ID, FATO_LOCAL_FILE_ID, PAINEL_DATA_DIR, PORT, LOG_LEVEL`

func main() {
	args := os.Args
	config.Level.Set(config.ParseLevel(os.Getenv("LOG_LEVEL")))
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		var run func([]string) error
		switch sub {
		case "import":
			run = cmdimport.Run
		case "calculate":
			run = cmdcalculate.Run
		case "web":
			run = cmdweb.Run
		}
		if run != nil {
			if err := run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	dc "painel-preditivo/domain/config"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set. A missing default file is not an error.
const DefaultPath = "./config.yml"

// ErrInvalid marks configuration errors: missing credential or file id, bad values.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Level is the process log level; Load sets it from log_level / LOG_LEVEL.
var Level = new(slog.LevelVar)

// Defaults returns the configuration used when neither file nor environment set a value.
func Defaults() *dc.Config {
	c := &dc.Config{
		Source:   "drive",
		LogLevel: "info",
		DataDir:  "./data",
		TopN:     5,
	}
	c.LocalFiles = dc.Files{Date: "fato_data.xlsx", Hour: "fato_hora.xlsx", Location: "fato_local.xlsx"}
	c.Web.Addr = ":8080"
	return c
}

// Load reads .env (when present), the YAML file at path and environment overrides, then validates.
// An empty path means CONFIG_PATH or DefaultPath.
func Load(path string) (*dc.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	c := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
		slog.Info(fmt.Sprintf("Loaded config: %s", path))
	case errors.Is(err, os.ErrNotExist) && !explicit:
		slog.Debug("config.file.missing", "path", path)
	default:
		return nil, err
	}

	applyEnv(c)
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	Level.Set(ParseLevel(c.LogLevel))
	return c, nil
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnv(c *dc.Config) {
	setString(&c.Source, "PAINEL_SOURCE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Drive.ServiceAccountJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")
	setString(&c.Drive.Files.Date, "FATO_DATA_FILE_ID")
	setString(&c.Drive.Files.Hour, "FATO_HORA_FILE_ID")
	setString(&c.Drive.Files.Location, "FATO_LOCAL_FILE_ID")
	setString(&c.DataDir, "PAINEL_DATA_DIR")
	setString(&c.KeyColumn, "PAINEL_KEY_COLUMN")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Web.Addr = ":" + port
	}
	if v, ok := os.LookupEnv("PAINEL_TOP_N"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.TopN = n
		}
	}
	if v, ok := os.LookupEnv("PAINEL_PRELOAD"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Web.Preload = b
		}
	}
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

type driveSettings struct {
	Credential   string `validate:"required"`
	DateFile     string `validate:"required"`
	HourFile     string `validate:"required"`
	LocationFile string `validate:"required"`
}

// RequireDrive checks that the Drive credential and the three file ids are present.
func RequireDrive(c *dc.Config) error {
	s := driveSettings{
		Credential:   c.Drive.ServiceAccountJSON,
		DateFile:     c.Drive.Files.Date,
		HourFile:     c.Drive.Files.Hour,
		LocationFile: c.Drive.Files.Location,
	}
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, envName[fe.Field()])
			}
			return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

var envName = map[string]string{
	"Credential":   "GOOGLE_SERVICE_ACCOUNT_JSON",
	"DateFile":     "FATO_DATA_FILE_ID",
	"HourFile":     "FATO_HORA_FILE_ID",
	"LocationFile": "FATO_LOCAL_FILE_ID",
}

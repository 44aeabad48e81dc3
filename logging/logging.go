package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "MIDISPLIFF_LOG_LEVEL"
	EnvLogNoColor = "MIDISPLIFF_LOG_NOCOLOR"
)

type Config struct {
	App     string
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

func DefaultConfig(app string) Config {
	return Config{
		App:   app,
		Level: zerolog.InfoLevel,
		Out:   os.Stderr,
	}
}

// New builds a console logger. Environment variables override cfg.
func New(cfg Config) zerolog.Logger {
	applyEnvOverrides(&cfg)
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        cfg.Out,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	return zerolog.New(output).Level(cfg.Level).With().Timestamp().Str("app", cfg.App).Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel maps a level name to a zerolog level. The second result is false
// for empty or unrecognized input.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

package log

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Pretty      bool   `mapstructure:"pretty"`
	ServiceName string `mapstructure:"service_name"`

	// Output defaults to os.Stdout.
	Output io.Writer `mapstructure:"-"`
}

var (
	global zerolog.Logger
	once   sync.Once
)

func init() {
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// New builds a logger writing JSON lines, or console output when Pretty is
// set. Every line carries the service name and the host it ran on.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	lc := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		lc = lc.Str(FieldService, cfg.ServiceName)
	}
	if host, err := os.Hostname(); err == nil {
		lc = lc.Str(FieldHost, host)
	}
	return lc.Logger()
}

// Init sets the global logger on first call; later calls are no-ops. The
// stdlib logger is redirected so third-party log.Printf output stays JSON.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		global = New(cfg)

		stdlog.SetFlags(0)
		stdlog.SetOutput(global.With().Str("source", "stdlog").Logger())
	})
}

// L returns the global logger.
func L() zerolog.Logger {
	return global
}

// ParseLevel accepts zerolog level names plus "warning" and "off"; anything
// unrecognised means info.
func ParseLevel(s string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "warning":
		name = "warn"
	case "off":
		name = "disabled"
	}

	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

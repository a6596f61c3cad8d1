package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the application logger. Production always gets structured
// JSON regardless of LOG_FORMAT; development defaults to readable text.
// Every line carries the app attribute so aggregated logs stay filterable.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("app", "gvstock"))
}

// Package logger builds the process-wide zap logger.
package logger

import (
	"os"

	_ "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
)

// New returns a production zap logger writing logfmt to stdout at the given
// level, tagged with the host name and the service name.
func New(level, service string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = service
	cfg.OutputPaths = []string{"stdout"}
	return cfg.Build()
}

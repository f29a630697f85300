package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestNewLoggerFormats(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggerConfig
	}{
		{name: "json", cfg: config.LoggerConfig{Level: "debug", Format: "json", Output: "stderr", Service: "helpdesk"}},
		{name: "console", cfg: config.LoggerConfig{Level: "warn", Format: "console", Output: "stderr"}},
		{name: "unknown level falls back to info", cfg: config.LoggerConfig{Level: "chatty", Output: "stderr"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewLogger(tc.cfg)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if logger.Core().Enabled(zapcore.DebugLevel) != (tc.cfg.Level == "debug") {
				t.Errorf("debug enabled = %v for level %q", logger.Core().Enabled(zapcore.DebugLevel), tc.cfg.Level)
			}
		})
	}
}

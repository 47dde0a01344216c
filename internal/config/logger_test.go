package config

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{"debug lowercase", "debug", zapcore.DebugLevel},
		{"debug uppercase", "DEBUG", zapcore.DebugLevel},
		{"info", "info", zapcore.InfoLevel},
		{"warn", "warn", zapcore.WarnLevel},
		{"warning", "warning", zapcore.WarnLevel},
		{"error with spaces", " error ", zapcore.ErrorLevel},
		{"invalid string", "invalid", zapcore.InfoLevel},
		{"empty string", "", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLogLevel(tt.level)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestUseConsole(t *testing.T) {
	tests := []struct {
		name   string
		format string
		level  zapcore.Level
		want   bool
	}{
		{"debug picks console", "", zapcore.DebugLevel, true},
		{"info picks json", "", zapcore.InfoLevel, false},
		{"forced console", "console", zapcore.InfoLevel, true},
		{"forced json on debug", "JSON", zapcore.DebugLevel, false},
		{"unknown format falls back to level", "xml", zapcore.WarnLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := useConsole(tt.format, tt.level); got != tt.want {
				t.Errorf("useConsole(%q, %v) = %v, want %v", tt.format, tt.level, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  LogConfig
	}{
		{"debug level", LogConfig{Level: "debug"}},
		{"info level", LogConfig{Level: "info"}},
		{"error level console", LogConfig{Level: "error", Format: "console"}},
		{"default level (empty)", LogConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if logger == nil {
				t.Fatal("NewLogger() returned nil logger")
			}
			if !logger.Core().Enabled(parseLogLevel(tt.cfg.Level)) {
				t.Errorf("logger does not accept level %q", tt.cfg.Level)
			}
			logger.Sync()
		})
	}
}

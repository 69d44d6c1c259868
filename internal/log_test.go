package internal

import "testing"

func TestNewDefaultLogger_LevelFromEnv(t *testing.T) {
	tests := []struct {
		env   string
		level LogLevel
	}{
		{"", LogLevelInfo},
		{"ERROR", LogLevelError},
		{"WARN", LogLevelWarn},
		{"INFO", LogLevelInfo},
		{"DEBUG", LogLevelDebug},
		{"garbage", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			if got := NewDefaultLogger().level; got != tt.level {
				t.Errorf("Expected level %d, got %d", tt.level, got)
			}
		})
	}
}

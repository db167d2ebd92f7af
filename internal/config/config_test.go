package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TriggerRange != 5 {
		t.Errorf("TriggerRange = %v, want 5", cfg.TriggerRange)
	}
	if cfg.DisplayDelay != time.Second {
		t.Errorf("DisplayDelay = %v, want 1s", cfg.DisplayDelay)
	}
	if cfg.TickInterval() != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.TickInterval())
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICK_HZ", "20")
	t.Setenv("TRIGGER_RANGE_METERS", "1")
	t.Setenv("DISPLAY_DELAY", "250ms")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOCALE", "pt-BR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TickInterval() != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.TickInterval())
	}
	if cfg.TriggerRange != 1 || cfg.DisplayDelay != 250*time.Millisecond {
		t.Errorf("got range %v delay %v", cfg.TriggerRange, cfg.DisplayDelay)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.Locale != "pt-BR" {
		t.Errorf("got level %v locale %q", cfg.LogLevel, cfg.Locale)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero tick rate", "TICK_HZ", "0"},
		{"negative range", "TRIGGER_RANGE_METERS", "-3"},
		{"bad duration", "DISPLAY_DELAY", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

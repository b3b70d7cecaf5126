package logger

import (
	"context"
	"errors"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	log := Get()
	if log == nil {
		t.Fatal("logger is nil after initialization")
	}
}

// Basic logging smoke test (slog-backed).
func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get().Named("test")
	log.Info(ctx, "test message", String("k", "v"), Int("n", 1))
	log.Warn(ctx, "warn message", Float64("f", 0.5))
	log.Error(ctx, "error message", Error(errors.New("boom")), Any("extra", []int{1, 2}))
	log.Debug(ctx, "debug message")
}

func TestSetLevelString(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error"} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("unexpected error for level %q: %v", level, err)
		}
	}
	if err := SetLevelString("shout"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	_ = SetLevelString("info")
}

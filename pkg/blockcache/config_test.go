package blockcache

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BlockSize != defaultBlockSize {
		t.Fatalf("BlockSize = %d, want default %d", cfg.BlockSize, defaultBlockSize)
	}
	if cfg.ConcurrencyLevel != defaultConcurrencyLevel {
		t.Fatalf("ConcurrencyLevel = %d, want default %d", cfg.ConcurrencyLevel, defaultConcurrencyLevel)
	}
}

func TestBuildConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"non power of two block size", []Option{WithBlockSize(1000)}, ErrInvalidBlockSize},
		{"zero block size", []Option{WithBlockSize(0)}, ErrInvalidBlockSize},
		{"block limit below block size", []Option{WithBlockSize(4096), WithBlockLimit(100)}, ErrInvalidBlockLimit},
		{"zero concurrency", []Option{WithConcurrencyLevel(0)}, ErrInvalidConcurrency},
		{"stream ratio too high", []Option{WithStreamRatio(1.5)}, ErrInvalidStreamRatio},
		{"stream ratio zero", []Option{WithStreamRatio(0)}, ErrInvalidStreamRatio},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildConfig(tc.opts)
			if err == nil {
				t.Fatalf("expected an error, got nil")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("errors.Is(%v, %v) = false, want true", err, tc.wantErr)
			}
		})
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	_, err := buildConfig([]Option{WithBlockSize(3)})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Field != "BlockSize" {
		t.Fatalf("Field = %q, want BlockSize", cfgErr.Field)
	}
}

// TestRejectConfigLogsTheRejection covers the logging half of config
// rejection: buildConfig must still return the ConfigError, but it must
// also have told the configured logger why.
func TestRejectConfigLogsTheRejection(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := buildConfig([]Option{WithLogger(zap.New(core)), WithBlockSize(1000)})
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
	entries := logs.FilterMessage("blockcache: rejecting configuration").All()
	if len(entries) != 1 {
		t.Fatalf("got %d matching log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["field"]; got != "BlockSize" {
		t.Fatalf(`logged field = %v, want "BlockSize"`, got)
	}
}

func TestWithCacheHotMax(t *testing.T) {
	cfg, err := buildConfig([]Option{WithCacheHotMax("idx", 8)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.hotMaxFor("idx"); got != 8 {
		t.Fatalf("hotMaxFor(idx) = %d, want 8", got)
	}
	if got := cfg.hotMaxFor("unseen"); got != int32(defaultCacheHotMax) {
		t.Fatalf("hotMaxFor(unseen) = %d, want default %d", got, defaultCacheHotMax)
	}
}

package internal

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/relink/internal/apperr"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Corpus.Root = t.TempDir()
	return cfg
}

func TestConfig_DefaultsValidWithRoot(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("defaults should pass: %v", err)
	}
}

func TestConfig_RootRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "--folder") {
		t.Errorf("err = %v", err)
	}
}

func TestConfig_InvalidCollision(t *testing.T) {
	cfg := validConfig(t)
	cfg.Relink.Collision = "rename"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown collision policy should fail validation")
	}
}

func TestConfig_WorkersBounds(t *testing.T) {
	for _, n := range []int{-1, 65} {
		cfg := validConfig(t)
		cfg.Relink.Workers = n
		if err := cfg.Validate(); err == nil {
			t.Errorf("workers=%d should fail", n)
		}
	}
}

func TestConfig_ExtensionRejectsDot(t *testing.T) {
	cfg := validConfig(t)
	cfg.Corpus.Extension = ".md"
	if err := cfg.Validate(); err == nil {
		t.Fatal("extension with a dot should fail")
	}
}

func TestConfig_BadExcludeGlob(t *testing.T) {
	cfg := validConfig(t)
	cfg.Corpus.Exclude = []string{"drafts/[unclosed"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid glob should fail")
	}
}

func TestConfig_LedgerInsideRoot(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ledger.Path = filepath.Join(cfg.Corpus.Root, "sub", "runs.db")
	if err := cfg.Validate(); !errors.Is(err, apperr.ErrLedgerInsideRoot) {
		t.Errorf("err = %v, want ErrLedgerInsideRoot", err)
	}
}

func TestConfig_LedgerOutsideRoot(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "runs.db")
	if err := cfg.Validate(); err != nil {
		t.Errorf("ledger outside root should pass: %v", err)
	}
	if !cfg.Ledger.Enabled() {
		t.Error("ledger should be enabled")
	}
}

func TestConfig_DebounceMinimum(t *testing.T) {
	cfg := validConfig(t)
	cfg.Watch.Debounce = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Fatal("tiny debounce should fail")
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := validConfig(t)
	cfg.Relink.DryRun = true
	cfg.Relink.Workers = 4
	opts := cfg.Options()
	if opts.Extension != "md" || !opts.DryRun || opts.Workers != 4 || opts.Collision != "warn" {
		t.Errorf("opts = %+v", opts)
	}
}

package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/relink/internal/apperr"
	"github.com/starford/relink/internal/relink"
)

var extensionRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Corpus CorpusConfig      `yaml:"corpus"`
	Relink RelinkConfig      `yaml:"relink"`
	Ledger LedgerConfig      `yaml:"ledger"`
	Watch  WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Corpus.Validate(); err != nil {
		return err
	}
	if err := c.Relink.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(c.Corpus.Root); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// CorpusConfig selects the documents to process.
type CorpusConfig struct {
	Root      string   `yaml:"root"`
	Extension string   `yaml:"extension"`
	Exclude   []string `yaml:"exclude"`
}

// Validate validates the corpus configuration.
func (c *CorpusConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required.Error("corpus root is required (--folder)")),
		validation.Field(&c.Extension, validation.Required, validation.Match(extensionRe)),
		validation.Field(&c.Exclude, validation.Each(validation.By(validGlob))),
	)
}

func validGlob(value interface{}) error {
	pattern, _ := value.(string)
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob %q", pattern)
	}
	return nil
}

// RelinkConfig controls how the pipeline treats collisions and concurrency.
//
// Collision selects what happens when a rename destination or an index key
// is already taken:
//   - "warn" (default): keep the original name / later key and log a warning.
//   - "fail": abort the run.
//   - "overwrite": replace silently.
type RelinkConfig struct {
	Collision string `yaml:"collision"`
	Workers   int    `yaml:"workers"`
	DryRun    bool   `yaml:"dry_run"`
}

// Validate validates the relink configuration.
func (c *RelinkConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Collision, validation.Required,
			validation.In(relink.CollisionWarn, relink.CollisionFail, relink.CollisionOverwrite)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// LedgerConfig enables the SQLite run journal when Path is set.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Enabled returns true when a ledger path is configured.
func (c *LedgerConfig) Enabled() bool {
	return c.Path != ""
}

// Validate rejects a ledger placed inside the corpus it journals.
func (c *LedgerConfig) Validate(root string) error {
	if !c.Enabled() || root == "" {
		return nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("ledger: resolve root: %w", err)
	}
	absPath, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("ledger: resolve path: %w", err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return nil
	}
	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("ledger: %s: %w", c.Path, apperr.ErrLedgerInsideRoot)
	}
	return nil
}

// WatchConfig holds watch mode configuration.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// Options translates the configuration into pipeline options.
func (c *Config) Options() relink.Options {
	return relink.Options{
		Extension: c.Corpus.Extension,
		Exclude:   c.Corpus.Exclude,
		Collision: c.Relink.Collision,
		Workers:   c.Relink.Workers,
		DryRun:    c.Relink.DryRun,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Corpus: CorpusConfig{
			Extension: "md",
		},
		Relink: RelinkConfig{
			Collision: relink.CollisionWarn,
			Workers:   1,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

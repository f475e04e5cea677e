package relink

import (
	"log/slog"

	"github.com/starford/relink/internal/models"
)

// Collision policies for rename destinations and index keys that are already taken.
const (
	CollisionOverwrite = "overwrite"
	CollisionWarn      = "warn"
	CollisionFail      = "fail"
)

// Phase identifies which pass a progress notification belongs to.
type Phase string

const (
	PhaseIndex   Phase = "Creating index..."
	PhaseRewrite Phase = "Replacing links..."
)

// Progress receives one notification per document visited in each pass.
// Implementations must be safe for concurrent use when Workers > 1.
type Progress interface {
	Step(phase Phase, path string)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(phase Phase, path string)

// Step implements Progress.
func (f ProgressFunc) Step(phase Phase, path string) { f(phase, path) }

// Recorder receives what a run did. Calls may arrive from several
// goroutines when Workers > 1.
type Recorder interface {
	RecordRename(r models.Rename) error
	RecordEntry(d models.Document) error
	RecordLink(l models.Link) error
}

// Options configures a pipeline run.
type Options struct {
	// Extension selects documents, without the leading dot.
	Extension string
	// Exclude holds doublestar globs matched against relative paths.
	Exclude []string
	// Collision is one of CollisionOverwrite, CollisionWarn, CollisionFail.
	Collision string
	// Workers > 1 rewrites documents concurrently.
	Workers int
	// DryRun plans renames and rewrites without touching the tree.
	DryRun bool

	Logger   *slog.Logger
	Progress Progress
	Recorder Recorder
}

func (o Options) withDefaults() Options {
	if o.Extension == "" {
		o.Extension = "md"
	}
	if o.Collision == "" {
		o.Collision = CollisionWarn
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Progress == nil {
		o.Progress = ProgressFunc(func(Phase, string) {})
	}
	return o
}

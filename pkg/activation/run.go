package activation

import "github.com/google/uuid"

// Run is the explicit per-run context threaded through a resolution run.
// It remembers which extensions have already been resolved so that a second
// pass within the same run doesn't re-process them. A Run is not safe for
// concurrent use.
type Run struct {
	ID       string
	resolved map[string]bool
}

func NewRun() *Run {
	return &Run{ID: uuid.NewString(), resolved: make(map[string]bool)}
}

// Resolved reports whether ext was already resolved in this run.
func (r *Run) Resolved(ext string) bool { return r.resolved[ext] }

// MarkResolved records ext as handled for the rest of the run.
func (r *Run) MarkResolved(ext string) { r.resolved[ext] = true }

// Package cascade runs multi-collection deletes as an ordered list of steps.
//
// Each step commits on its own and must be idempotent, so a failed cascade can
// be re-run from the start. There is no rollback: on failure the completed
// steps are logged and ErrInconsistentCascade is returned for manual
// reconciliation.
package cascade

import (
	"context"
	"fmt"
	"log/slog"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// Step is one idempotent unit of a cascade.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
}

// Saga is a named, ordered list of steps.
type Saga struct {
	Name  string
	Steps []Step
	log   *slog.Logger
}

// New creates a saga. attrs are attached to every log line (e.g. "match_id", id).
func New(log *slog.Logger, name string, attrs ...any) *Saga {
	return &Saga{Name: name, log: log.With(append([]any{"cascade", name}, attrs...)...)}
}

// Then appends a step and returns the saga for chaining.
func (s *Saga) Then(name string, do func(ctx context.Context) error) *Saga {
	s.Steps = append(s.Steps, Step{Name: name, Do: do})
	return s
}

// Run executes the steps in order and stops at the first failure.
//
// The first step failing leaves nothing applied, so its error is returned
// as-is. Later failures are wrapped with ErrInconsistentCascade and keep the
// original error in the chain.
func (s *Saga) Run(ctx context.Context) error {
	done := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		if err := step.Do(ctx); err != nil {
			if len(done) == 0 {
				return fmt.Errorf("%s: %s: %w", s.Name, step.Name, err)
			}
			s.log.Error("cascade partially applied",
				"failed_step", step.Name, "completed", done, "err", err)
			return fmt.Errorf("%w: %s stopped at %s after %v: %w",
				svcErr.ErrInconsistentCascade, s.Name, step.Name, done, err)
		}
		done = append(done, step.Name)
		s.log.Debug("cascade step completed", "step", step.Name)
	}
	return nil
}

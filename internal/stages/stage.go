// Package stages plans the rule sets of the run and cleanup stages.
package stages

import (
	"taskplane/internal/events"
	"taskplane/internal/rules"
	"taskplane/internal/steps"
)

// Kind is the phase a stage belongs to.
type Kind int

const (
	Run Kind = iota
	Cleanup
)

func (k Kind) String() string {
	if k == Cleanup {
		return "cleanup"
	}
	return "run"
}

// Stage holds the rules of one stage that have not fired yet.
// It is not safe for concurrent use; the state machine serialises access.
type Stage struct {
	kind    Kind
	planned []rules.StepRule
	pending []rules.StepRule
}

// New returns a stage with every rule pending.
func New(kind Kind, planned []rules.StepRule) *Stage {
	return &Stage{
		kind:    kind,
		planned: planned,
		pending: append([]rules.StepRule(nil), planned...),
	}
}

// Kind returns the stage's phase.
func (s *Stage) Kind() Kind {
	return s.kind
}

// PopReady evaluates every pending rule against past and retires those that are ready,
// returning their steps in planning order.
func (s *Stage) PopReady(past events.Set) []steps.TaskStep {
	var ready []steps.TaskStep
	remaining := s.pending[:0]
	for _, rule := range s.pending {
		if step, ok := rules.Evaluate(rule, past); ok {
			ready = append(ready, step)
			continue
		}
		remaining = append(remaining, rule)
	}
	clear(s.pending[len(remaining):])
	s.pending = remaining
	return ready
}

// Pending returns the rules that have not fired yet.
func (s *Stage) Pending() []rules.StepRule {
	return append([]rules.StepRule(nil), s.pending...)
}

// HasPending reports whether any rule has not fired yet.
func (s *Stage) HasPending() bool {
	return len(s.pending) > 0
}

// Planned returns every rule the stage started with, fired or not.
func (s *Stage) Planned() []rules.StepRule {
	return append([]rules.StepRule(nil), s.planned...)
}

// Discard drops every pending rule.
func (s *Stage) Discard() {
	s.pending = nil
}

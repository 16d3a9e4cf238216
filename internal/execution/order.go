// Package execution runs tasks: it orders a task after its prerequisites, wires up the
// per-task engine and runs the resulting sequence as one session.
package execution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"taskplane/internal/model"
)

// PrerequisiteError is returned when a task's execution order cannot be resolved.
type PrerequisiteError struct {
	Reason string
}

func (e *PrerequisiteError) Error() string {
	return e.Reason
}

// ResolveExecutionOrder returns the tasks to run for taskName: its prerequisites, each
// after its own prerequisites, then the task itself. Every task appears once.
func ResolveExecutionOrder(cfg model.Configuration, taskName string, skipPrerequisites bool) ([]model.Task, error) {
	task, ok := cfg.Tasks[taskName]
	if !ok {
		return nil, &PrerequisiteError{Reason: fmt.Sprintf("The task '%s' does not exist.", taskName)}
	}
	if skipPrerequisites {
		return []model.Task{task}, nil
	}

	r := orderResolver{cfg: cfg, seen: make(map[string]bool)}
	if err := r.visit(task, []string{task.Name}); err != nil {
		return nil, err
	}
	return r.order, nil
}

type orderResolver struct {
	cfg   model.Configuration
	order []model.Task
	seen  map[string]bool
}

// visit appends task after its prerequisites. path holds the chain of tasks that led to it.
func (r *orderResolver) visit(task model.Task, path []string) error {
	for _, name := range r.expand(task.Prerequisites) {
		prerequisite, ok := r.cfg.Tasks[name]
		if !ok {
			return &PrerequisiteError{Reason: fmt.Sprintf("The task '%s' given as a prerequisite of '%s' does not exist.", name, task.Name)}
		}
		if contains(path, name) {
			return &PrerequisiteError{Reason: fmt.Sprintf("There is a dependency cycle between tasks: %s.", cycleDescription(append(path, name)))}
		}
		if r.seen[name] {
			continue
		}
		if err := r.visit(prerequisite, append(append([]string(nil), path...), name)); err != nil {
			return err
		}
	}

	if !r.seen[task.Name] {
		r.seen[task.Name] = true
		r.order = append(r.order, task)
	}
	return nil
}

// expand replaces each wildcard pattern with the sorted names of the tasks it matches.
func (r *orderResolver) expand(specs []string) []string {
	var names []string
	for _, spec := range specs {
		if !strings.Contains(spec, "*") {
			names = append(names, spec)
			continue
		}

		pattern := wildcardPattern(spec)
		var matches []string
		for name := range r.cfg.Tasks {
			if pattern.Match(name) {
				matches = append(matches, name)
			}
		}
		sort.Strings(matches)
		names = append(names, matches...)
	}
	return names
}

// wildcardPattern compiles spec with only '*' special. It matches across ':' so that
// "build*" also matches "build:web".
func wildcardPattern(spec string) glob.Glob {
	parts := strings.Split(spec, "*")
	for i, p := range parts {
		parts[i] = glob.QuoteMeta(p)
	}
	return glob.MustCompile(strings.Join(parts, "*"))
}

func cycleDescription(path []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "task '%s' has '%s' as a prerequisite", path[0], path[1])
	for _, name := range path[2:] {
		fmt.Fprintf(&b, ", which has '%s' as a prerequisite", name)
	}
	return b.String()
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

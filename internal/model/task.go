package model

import "sort"

// Task is a unit of work: run one main container, plus whatever it depends on.
type Task struct {
	Name        string
	Description string
	Run         TaskRun

	// DependsOn lists extra containers started before the main container, on top of the
	// main container's own dependencies.
	DependsOn []string

	// Prerequisites lists tasks that must complete successfully first.
	// Entries may contain '*' wildcards.
	Prerequisites []string
}

// TaskRun names the main container and the overrides applied to it for this task.
type TaskRun struct {
	Container   string
	Command     []string // replaces the container's command when set
	Environment map[string]string
}

// TaskMap indexes tasks by name.
type TaskMap map[string]Task

// Names returns the task names in sorted order.
func (m TaskMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configuration is a loaded project.
type Configuration struct {
	ProjectName string
	Tasks       TaskMap
	Containers  ContainerMap
}

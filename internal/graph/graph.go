// Package graph builds the container dependency graph for a single task.
//
// A graph only contains the task's main container and the containers it reaches through
// dependency edges. It is immutable once built and safe to share between goroutines.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"taskplane/internal/model"
)

// DependencyError reports a dependency that cannot be resolved.
type DependencyError struct {
	Reason string
}

func (e *DependencyError) Error() string {
	return e.Reason
}

// CycleError reports the first dependency cycle found while building a graph.
// Cycle starts and ends with the same container name.
type CycleError struct {
	Task  string
	Cycle []string
}

func (e *CycleError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "There is a dependency cycle in task '%s'. Container '%s' depends on '%s'", e.Task, e.Cycle[0], e.Cycle[1])
	for _, name := range e.Cycle[2:] {
		fmt.Fprintf(&sb, ", which depends on '%s'", name)
	}
	sb.WriteString(".")
	return sb.String()
}

// Node is one container in the graph.
type Node struct {
	Container       model.Container
	IsTaskContainer bool

	dependsOn    []*Node
	dependedOnBy []*Node
}

// Graph is the dependency graph of one task.
type Graph struct {
	task     model.Task
	taskNode *Node
	nodes    map[string]*Node
}

// Build resolves the task's main container and every container it transitively depends
// on. It fails on unknown containers, self-dependencies and cycles.
func Build(task model.Task, containers model.ContainerMap) (*Graph, error) {
	main, ok := containers[task.Run.Container]
	if !ok {
		return nil, &DependencyError{Reason: fmt.Sprintf("The container '%s' referenced by task '%s' does not exist.", task.Run.Container, task.Name)}
	}

	for _, name := range task.DependsOn {
		if name == main.Name {
			return nil, &DependencyError{Reason: fmt.Sprintf("The task '%s' cannot have the container '%s' as both the main task container and also a dependency.", task.Name, name)}
		}
		if _, ok := containers[name]; !ok {
			return nil, &DependencyError{Reason: fmt.Sprintf("The container '%s' referenced by task '%s' does not exist.", name, task.Name)}
		}
	}

	g := &Graph{task: task, nodes: make(map[string]*Node)}
	g.taskNode = &Node{Container: withTaskOverrides(main, task), IsTaskContainer: true}
	g.nodes[main.Name] = g.taskNode

	// Resolve names breadth first; edges are linked once every node exists.
	declared := map[string][]string{main.Name: dedupe(append(append([]string{}, main.DependsOn...), task.DependsOn...))}
	queue := []string{main.Name}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		for _, dep := range declared[name] {
			if dep == name {
				return nil, &DependencyError{Reason: fmt.Sprintf("The container '%s' cannot depend on itself.", name)}
			}
			c, ok := containers[dep]
			if !ok {
				return nil, &DependencyError{Reason: fmt.Sprintf("The container '%s' referenced by container '%s' does not exist.", dep, name)}
			}
			if _, seen := g.nodes[dep]; seen {
				continue
			}
			g.nodes[dep] = &Node{Container: c}
			declared[dep] = dedupe(c.DependsOn)
			queue = append(queue, dep)
		}
	}

	for name, deps := range declared {
		node := g.nodes[name]
		for _, dep := range deps {
			target := g.nodes[dep]
			node.dependsOn = append(node.dependsOn, target)
			target.dependedOnBy = append(target.dependedOnBy, node)
		}
	}
	for _, node := range g.nodes {
		sortNodes(node.dependsOn)
		sortNodes(node.dependedOnBy)
	}

	if cycle := g.findCycle(declared); cycle != nil {
		return nil, &CycleError{Task: task.Name, Cycle: cycle}
	}

	return g, nil
}

// findCycle walks dependency edges depth first in declaration order and returns the
// first cycle it meets.
func (g *Graph) findCycle(declared map[string][]string) []string {
	permanent := make(map[string]bool)
	onPath := make(map[string]int)
	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		if permanent[name] {
			return nil
		}
		if idx, ok := onPath[name]; ok {
			return append(append([]string{}, path[idx:]...), name)
		}

		onPath[name] = len(path)
		path = append(path, name)
		for _, dep := range declared[name] {
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		delete(onPath, name)
		permanent[name] = true
		return nil
	}

	if cycle := visit(g.taskNode.Container.Name); cycle != nil {
		return cycle
	}
	for _, name := range g.names() {
		if cycle := visit(name); cycle != nil {
			return cycle
		}
	}
	return nil
}

// Task returns the task the graph was built for.
func (g *Graph) Task() model.Task {
	return g.task
}

// TaskContainer returns the main container, with the task's overrides applied.
func (g *Graph) TaskContainer() model.Container {
	return g.taskNode.Container
}

// Node returns the node for the named container.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Containers returns every container in the graph, sorted by name.
func (g *Graph) Containers() []model.Container {
	out := make([]model.Container, 0, len(g.nodes))
	for _, name := range g.names() {
		out = append(out, g.nodes[name].Container)
	}
	return out
}

// Contains reports whether the named container is part of the task.
func (g *Graph) Contains(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// DependenciesOf returns the direct dependencies of the named container.
func (g *Graph) DependenciesOf(name string) []model.Container {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return containersOf(n.dependsOn)
}

// ContainersThatDependOn returns the containers that directly depend on the named one.
func (g *Graph) ContainersThatDependOn(name string) []model.Container {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return containersOf(n.dependedOnBy)
}

func (g *Graph) names() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withTaskOverrides(c model.Container, task model.Task) model.Container {
	if len(task.Run.Command) > 0 {
		c.Command = task.Run.Command
	}
	if len(task.Run.Environment) > 0 {
		env := make(map[string]string, len(c.Environment)+len(task.Run.Environment))
		for k, v := range c.Environment {
			env[k] = v
		}
		for k, v := range task.Run.Environment {
			env[k] = v
		}
		c.Environment = env
	}
	return c
}

func containersOf(nodes []*Node) []model.Container {
	out := make([]model.Container, len(nodes))
	for i, n := range nodes {
		out[i] = n.Container
	}
	return out
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Container.Name < nodes[j].Container.Name
	})
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

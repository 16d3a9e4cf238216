package stages

import (
	"fmt"

	"taskplane/internal/graph"
	"taskplane/internal/model"
	"taskplane/internal/rules"
)

// RunStagePlanner plans the rules that bring a task's containers up and run it.
type RunStagePlanner struct {
	graph       *graph.Graph
	projectName string
}

// NewRunStagePlanner returns a planner for the given graph. Built images are tagged
// "<projectName>-<container>".
func NewRunStagePlanner(g *graph.Graph, projectName string) *RunStagePlanner {
	return &RunStagePlanner{graph: g, projectName: projectName}
}

// Plan returns the run stage.
func (p *RunStagePlanner) Plan() *Stage {
	planned := []rules.StepRule{rules.CreateTaskNetwork{}}
	pulls := make(map[string]bool)
	taskContainer := p.graph.TaskContainer().Name

	for _, c := range p.graph.Containers() {
		planned = append(planned, p.imageRule(c, pulls)...)
		planned = append(planned, rules.CreateContainer{Container: c})

		deps := containerNames(p.graph.DependenciesOf(c.Name))
		if c.Name == taskContainer {
			planned = append(planned, rules.RunContainer{Container: c, Dependencies: deps})
			continue
		}

		planned = append(planned, rules.StartContainer{Container: c, Dependencies: deps})
		if c.HealthCheck != nil {
			planned = append(planned, rules.WaitForContainerToBecomeHealthy{Container: c.Name})
		}
	}

	return New(Run, planned)
}

// imageRule returns the rule producing c's image. Containers pulling the same reference
// share one pull.
func (p *RunStagePlanner) imageRule(c model.Container, pulls map[string]bool) []rules.StepRule {
	if c.Image.IsBuild() {
		return []rules.StepRule{rules.BuildImage{
			Container: c.Name,
			Source:    *c.Image.Build,
			Tag:       fmt.Sprintf("%s-%s", p.projectName, c.Name),
		}}
	}
	if pulls[c.Image.Pull] {
		return nil
	}
	pulls[c.Image.Pull] = true
	return []rules.StepRule{rules.PullImage{Reference: c.Image.Pull}}
}

func containerNames(cs []model.Container) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

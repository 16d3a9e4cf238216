package stages

import (
	"sort"

	"taskplane/internal/events"
	"taskplane/internal/graph"
	"taskplane/internal/rules"
)

// CleanupStagePlanner plans the teardown of whatever the run stage actually created.
// It reads the run stage's events, never the configuration, so nothing that was not
// created is ever stopped, removed or deleted.
type CleanupStagePlanner struct {
	graph *graph.Graph
}

// NewCleanupStagePlanner returns a planner for the given graph.
func NewCleanupStagePlanner(g *graph.Graph) *CleanupStagePlanner {
	return &CleanupStagePlanner{graph: g}
}

// Plan returns the full cleanup stage for the resources recorded in past.
func (p *CleanupStagePlanner) Plan(past events.Set, aborting bool) *Stage {
	return New(Cleanup, p.plan(past, aborting, false))
}

// PlanStopOnly returns a cleanup stage that only stops started containers, leaving them
// and every other resource in place.
func (p *CleanupStagePlanner) PlanStopOnly(past events.Set, aborting bool) *Stage {
	return New(Cleanup, p.plan(past, aborting, true))
}

func (p *CleanupStagePlanner) plan(past events.Set, aborting, stopOnly bool) []rules.StepRule {
	created := make(map[string]string)
	var createdNames []string
	for _, e := range events.All[events.ContainerCreated](past) {
		if _, seen := created[e.Container]; seen {
			continue
		}
		created[e.Container] = e.ContainerID
		createdNames = append(createdNames, e.Container)
	}
	sort.Strings(createdNames)

	var planned []rules.StepRule
	for _, name := range createdNames {
		started := past.Has(events.KindContainerStarted, name)
		if started {
			planned = append(planned, rules.StopContainer{
				Container:    name,
				ContainerID:  created[name],
				StopAfter:    p.startedDependents(name, past),
				TaskAborting: aborting,
			})
		}
		if !stopOnly {
			planned = append(planned, rules.RemoveContainer{
				Container:   name,
				ContainerID: created[name],
				WasStarted:  started,
			})
		}
	}
	if stopOnly {
		return planned
	}

	if network, ok := events.Find[events.NetworkCreated](past, ""); ok {
		planned = append(planned, rules.DeleteTaskNetwork{Network: network.Network, Containers: createdNames})
	}

	for _, e := range events.All[events.TemporaryFileCreated](past) {
		planned = append(planned, rules.DeleteTemporaryFile{Path: e.Path, Owner: ownerIfCreated(e.Container, created)})
	}
	for _, e := range events.All[events.TemporaryDirectoryCreated](past) {
		planned = append(planned, rules.DeleteTemporaryDirectory{Path: e.Path, Owner: ownerIfCreated(e.Container, created)})
	}

	return planned
}

func (p *CleanupStagePlanner) startedDependents(name string, past events.Set) []string {
	var out []string
	for _, c := range p.graph.ContainersThatDependOn(name) {
		if past.Has(events.KindContainerStarted, c.Name) {
			out = append(out, c.Name)
		}
	}
	return out
}

// ownerIfCreated returns container if it exists, otherwise no owner: the resource can be
// deleted straight away.
func ownerIfCreated(container string, created map[string]string) string {
	if _, ok := created[container]; ok {
		return container
	}
	return ""
}

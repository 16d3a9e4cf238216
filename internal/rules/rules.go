// Package rules holds the step rules of both stages.
//
// A rule is plain data naming one planned action. Evaluate decides, from the events
// posted so far and nothing else, whether the action can run yet, and if so returns the
// concrete step. A rule that has produced its step is retired by its stage and never
// evaluated again.
package rules

import (
	"taskplane/internal/events"
	"taskplane/internal/model"
	"taskplane/internal/steps"
)

// StepRule is implemented by every rule variant in this package.
type StepRule interface {
	isStepRule()
}

// Run stage rules.

type BuildImage struct {
	Container string
	Source    model.BuildSource
	Tag       string
}

type PullImage struct {
	Reference string
}

type CreateTaskNetwork struct{}

type CreateContainer struct {
	Container model.Container
}

// StartContainer starts a dependency container once its own dependencies are healthy.
type StartContainer struct {
	Container    model.Container
	Dependencies []string
}

// RunContainer runs the task's main container once its dependencies are healthy.
type RunContainer struct {
	Container    model.Container
	Dependencies []string
}

type WaitForContainerToBecomeHealthy struct {
	Container string
}

// Cleanup stage rules.

// StopContainer stops a started container after every started container depending on
// it has stopped. When the task is aborting the order is not enforced.
type StopContainer struct {
	Container    string
	ContainerID  string
	StopAfter    []string
	TaskAborting bool
}

// RemoveContainer removes a created container, after it has stopped if it was started.
type RemoveContainer struct {
	Container   string
	ContainerID string
	WasStarted  bool
}

// DeleteTaskNetwork deletes the task network once every container on it is removed.
type DeleteTaskNetwork struct {
	Network    string
	Containers []string
}

// DeleteTemporaryFile deletes a temporary file once its owner container, if any, is removed.
type DeleteTemporaryFile struct {
	Path  string
	Owner string
}

// DeleteTemporaryDirectory deletes a temporary directory once its owner container, if
// any, is removed.
type DeleteTemporaryDirectory struct {
	Path  string
	Owner string
}

func (BuildImage) isStepRule()                      {}
func (PullImage) isStepRule()                       {}
func (CreateTaskNetwork) isStepRule()               {}
func (CreateContainer) isStepRule()                 {}
func (StartContainer) isStepRule()                  {}
func (RunContainer) isStepRule()                    {}
func (WaitForContainerToBecomeHealthy) isStepRule() {}
func (StopContainer) isStepRule()                   {}
func (RemoveContainer) isStepRule()                 {}
func (DeleteTaskNetwork) isStepRule()               {}
func (DeleteTemporaryFile) isStepRule()             {}
func (DeleteTemporaryDirectory) isStepRule()        {}

// Evaluate returns the rule's step if it is ready to run given the events in past.
func Evaluate(rule StepRule, past events.Set) (steps.TaskStep, bool) {
	switch r := rule.(type) {
	case BuildImage:
		return steps.BuildImage{Container: r.Container, Source: r.Source, Tag: r.Tag}, true

	case PullImage:
		return steps.PullImage{Reference: r.Reference}, true

	case CreateTaskNetwork:
		return steps.CreateTaskNetwork{}, true

	case CreateContainer:
		image, ok := imageFor(r.Container, past)
		if !ok {
			return nil, false
		}
		network, ok := events.Find[events.NetworkCreated](past, "")
		if !ok {
			return nil, false
		}
		return steps.CreateContainer{Container: r.Container, Image: image, Network: network.Network}, true

	case StartContainer:
		id, ok := readyToStart(r.Container.Name, r.Dependencies, past)
		if !ok {
			return nil, false
		}
		return steps.StartContainer{Container: r.Container, ContainerID: id}, true

	case RunContainer:
		id, ok := readyToStart(r.Container.Name, r.Dependencies, past)
		if !ok {
			return nil, false
		}
		return steps.RunContainer{Container: r.Container, ContainerID: id}, true

	case WaitForContainerToBecomeHealthy:
		created, ok := events.Find[events.ContainerCreated](past, r.Container)
		if !ok || !past.Has(events.KindContainerStarted, r.Container) {
			return nil, false
		}
		return steps.WaitForContainerToBecomeHealthy{Container: r.Container, ContainerID: created.ContainerID}, true

	case StopContainer:
		if !r.TaskAborting && !allHave(past, events.KindContainerStopped, r.StopAfter) {
			return nil, false
		}
		return steps.StopContainer{Container: r.Container, ContainerID: r.ContainerID}, true

	case RemoveContainer:
		if r.WasStarted && !past.Has(events.KindContainerStopped, r.Container) {
			return nil, false
		}
		return steps.RemoveContainer{Container: r.Container, ContainerID: r.ContainerID}, true

	case DeleteTaskNetwork:
		if !allHave(past, events.KindContainerRemoved, r.Containers) {
			return nil, false
		}
		return steps.DeleteTaskNetwork{Network: r.Network}, true

	case DeleteTemporaryFile:
		if r.Owner != "" && !past.Has(events.KindContainerRemoved, r.Owner) {
			return nil, false
		}
		return steps.DeleteTemporaryFile{Path: r.Path}, true

	case DeleteTemporaryDirectory:
		if r.Owner != "" && !past.Has(events.KindContainerRemoved, r.Owner) {
			return nil, false
		}
		return steps.DeleteTemporaryDirectory{Path: r.Path}, true
	}

	return nil, false
}

// KindOf returns the rule's kind for logging.
func KindOf(rule StepRule) string {
	switch rule.(type) {
	case BuildImage:
		return "BuildImage"
	case PullImage:
		return "PullImage"
	case CreateTaskNetwork:
		return "CreateTaskNetwork"
	case CreateContainer:
		return "CreateContainer"
	case StartContainer:
		return "StartContainer"
	case RunContainer:
		return "RunContainer"
	case WaitForContainerToBecomeHealthy:
		return "WaitForContainerToBecomeHealthy"
	case StopContainer:
		return "StopContainer"
	case RemoveContainer:
		return "RemoveContainer"
	case DeleteTaskNetwork:
		return "DeleteTaskNetwork"
	case DeleteTemporaryFile:
		return "DeleteTemporaryFile"
	case DeleteTemporaryDirectory:
		return "DeleteTemporaryDirectory"
	default:
		return "Unknown"
	}
}

func imageFor(c model.Container, past events.Set) (string, bool) {
	if c.Image.IsBuild() {
		built, ok := events.Find[events.ImageBuilt](past, c.Name)
		return built.Image, ok
	}
	pulled, ok := events.Find[events.ImagePulled](past, c.Image.Pull)
	return pulled.Image, ok
}

func readyToStart(container string, dependencies []string, past events.Set) (string, bool) {
	created, ok := events.Find[events.ContainerCreated](past, container)
	if !ok {
		return "", false
	}
	if !allHave(past, events.KindContainerBecameHealthy, dependencies) {
		return "", false
	}
	return created.ContainerID, true
}

func allHave(past events.Set, kind events.Kind, subjects []string) bool {
	for _, s := range subjects {
		if !past.Has(kind, s) {
			return false
		}
	}
	return true
}

// Package steps defines the concrete actions the engine asks the step runner to perform.
// Steps are data only; executing them is the runner's job.
package steps

import "taskplane/internal/model"

// TaskStep is implemented by every step variant in this package.
type TaskStep interface {
	isTaskStep()
}

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
	Image     string
	Network   string
}

// StartContainer starts a dependency container.
type StartContainer struct {
	Container   model.Container
	ContainerID string
}

// RunContainer starts the task's main container and waits for it to exit.
type RunContainer struct {
	Container   model.Container
	ContainerID string
}

type WaitForContainerToBecomeHealthy struct {
	Container   string
	ContainerID string
}

type StopContainer struct {
	Container   string
	ContainerID string
}

type RemoveContainer struct {
	Container   string
	ContainerID string
}

type DeleteTaskNetwork struct {
	Network string
}

type DeleteTemporaryFile struct {
	Path string
}

type DeleteTemporaryDirectory struct {
	Path string
}

func (BuildImage) isTaskStep()                      {}
func (PullImage) isTaskStep()                       {}
func (CreateTaskNetwork) isTaskStep()               {}
func (CreateContainer) isTaskStep()                 {}
func (StartContainer) isTaskStep()                  {}
func (RunContainer) isTaskStep()                    {}
func (WaitForContainerToBecomeHealthy) isTaskStep() {}
func (StopContainer) isTaskStep()                   {}
func (RemoveContainer) isTaskStep()                 {}
func (DeleteTaskNetwork) isTaskStep()               {}
func (DeleteTemporaryFile) isTaskStep()             {}
func (DeleteTemporaryDirectory) isTaskStep()        {}

// KindOf returns the step's kind, e.g. "CreateContainer".
func KindOf(s TaskStep) string {
	switch s.(type) {
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

// ResourceOf returns the identity of the daemon or filesystem resource a step acts on.
// Two steps with the same resource must not run at the same time.
func ResourceOf(s TaskStep) string {
	switch st := s.(type) {
	case BuildImage:
		return "image:" + st.Tag
	case PullImage:
		return "image:" + st.Reference
	case CreateTaskNetwork:
		return "network"
	case DeleteTaskNetwork:
		return "network"
	case CreateContainer:
		return "container:" + st.Container.Name
	case StartContainer:
		return "container:" + st.Container.Name
	case RunContainer:
		return "container:" + st.Container.Name
	case WaitForContainerToBecomeHealthy:
		return "container:" + st.Container
	case StopContainer:
		return "container:" + st.Container
	case RemoveContainer:
		return "container:" + st.Container
	case DeleteTemporaryFile:
		return "path:" + st.Path
	case DeleteTemporaryDirectory:
		return "path:" + st.Path
	default:
		return ""
	}
}

// Describe returns a short human readable description of the step.
func Describe(s TaskStep) string {
	switch st := s.(type) {
	case BuildImage:
		return "build image for " + st.Container
	case PullImage:
		return "pull " + st.Reference
	case CreateTaskNetwork:
		return "create task network"
	case CreateContainer:
		return "create " + st.Container.Name
	case StartContainer:
		return "start " + st.Container.Name
	case RunContainer:
		return "run " + st.Container.Name
	case WaitForContainerToBecomeHealthy:
		return "wait for " + st.Container + " to become healthy"
	case StopContainer:
		return "stop " + st.Container
	case RemoveContainer:
		return "remove " + st.Container
	case DeleteTaskNetwork:
		return "delete task network"
	case DeleteTemporaryFile:
		return "delete " + st.Path
	case DeleteTemporaryDirectory:
		return "delete " + st.Path
	default:
		return KindOf(s)
	}
}

// IsCleanup reports whether s tears a resource down. Cleanup steps are never cancelled
// once started.
func IsCleanup(s TaskStep) bool {
	switch s.(type) {
	case StopContainer, RemoveContainer, DeleteTaskNetwork, DeleteTemporaryFile, DeleteTemporaryDirectory:
		return true
	default:
		return false
	}
}

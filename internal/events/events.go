// Package events defines the facts posted while a task executes and the log they are
// kept in. Events are plain comparable values and are never mutated once posted.
package events

import "fmt"

// Kind identifies an event variant.
type Kind string

const (
	KindImageBuilt                       Kind = "ImageBuilt"
	KindImageBuildFailed                 Kind = "ImageBuildFailed"
	KindImagePulled                      Kind = "ImagePulled"
	KindImagePullFailed                  Kind = "ImagePullFailed"
	KindNetworkCreated                   Kind = "NetworkCreated"
	KindNetworkCreationFailed            Kind = "NetworkCreationFailed"
	KindContainerCreated                 Kind = "ContainerCreated"
	KindContainerCreationFailed          Kind = "ContainerCreationFailed"
	KindContainerStarted                 Kind = "ContainerStarted"
	KindContainerStartFailed             Kind = "ContainerStartFailed"
	KindContainerBecameHealthy           Kind = "ContainerBecameHealthy"
	KindContainerDidNotBecomeHealthy     Kind = "ContainerDidNotBecomeHealthy"
	KindRunningContainerExited           Kind = "RunningContainerExited"
	KindContainerRunFailed               Kind = "ContainerRunFailed"
	KindContainerStopped                 Kind = "ContainerStopped"
	KindContainerStopFailed              Kind = "ContainerStopFailed"
	KindContainerRemoved                 Kind = "ContainerRemoved"
	KindContainerRemovalFailed           Kind = "ContainerRemovalFailed"
	KindNetworkDeleted                   Kind = "NetworkDeleted"
	KindNetworkDeletionFailed            Kind = "NetworkDeletionFailed"
	KindTemporaryFileCreated             Kind = "TemporaryFileCreated"
	KindTemporaryFileDeleted             Kind = "TemporaryFileDeleted"
	KindTemporaryFileDeletionFailed      Kind = "TemporaryFileDeletionFailed"
	KindTemporaryDirectoryCreated        Kind = "TemporaryDirectoryCreated"
	KindTemporaryDirectoryDeleted        Kind = "TemporaryDirectoryDeleted"
	KindTemporaryDirectoryDeletionFailed Kind = "TemporaryDirectoryDeletionFailed"
	KindExecutionFailed                  Kind = "ExecutionFailed"
	KindUserInterruptedExecution         Kind = "UserInterruptedExecution"
)

// TaskEvent is implemented by every event variant in this package.
type TaskEvent interface {
	Kind() Kind

	// Subject is the name the event is indexed under: a container name, an image
	// reference or a path. Task-wide events have an empty subject.
	Subject() string

	isTaskEvent()
}

// FailureEvent is an event that fails the task.
type FailureEvent interface {
	TaskEvent

	// Message is the text shown to the user. It is empty for a user interrupt.
	Message() string
}

type ImageBuilt struct {
	Container string
	Image     string
}

type ImageBuildFailed struct {
	Container string
	Reason    string
}

type ImagePulled struct {
	Reference string
	Image     string
}

type ImagePullFailed struct {
	Reference string
	Reason    string
}

type NetworkCreated struct {
	Network string
}

type NetworkCreationFailed struct {
	Reason string
}

type ContainerCreated struct {
	Container   string
	ContainerID string
}

type ContainerCreationFailed struct {
	Container string
	Reason    string
}

type ContainerStarted struct {
	Container string
}

type ContainerStartFailed struct {
	Container string
	Reason    string
}

type ContainerBecameHealthy struct {
	Container string
}

type ContainerDidNotBecomeHealthy struct {
	Container string
	Reason    string
}

type RunningContainerExited struct {
	Container string
	ExitCode  int64
}

type ContainerRunFailed struct {
	Container string
	Reason    string
}

type ContainerStopped struct {
	Container string
}

type ContainerStopFailed struct {
	Container string
	Reason    string
}

type ContainerRemoved struct {
	Container string
}

type ContainerRemovalFailed struct {
	Container string
	Reason    string
}

type NetworkDeleted struct {
	Network string
}

type NetworkDeletionFailed struct {
	Network string
	Reason  string
}

// TemporaryFileCreated records a host file created for a container, for example a
// generated /etc/passwd.
type TemporaryFileCreated struct {
	Container string
	Path      string
}

type TemporaryFileDeleted struct {
	Path string
}

type TemporaryFileDeletionFailed struct {
	Path   string
	Reason string
}

// TemporaryDirectoryCreated records a host directory created for a container.
type TemporaryDirectoryCreated struct {
	Container string
	Path      string
}

type TemporaryDirectoryDeleted struct {
	Path string
}

type TemporaryDirectoryDeletionFailed struct {
	Path   string
	Reason string
}

// ExecutionFailed reports a failure inside the engine itself rather than in a step's
// daemon or filesystem call.
type ExecutionFailed struct {
	Reason string
}

// UserInterruptedExecution is posted when the user cancels the run, e.g. with Ctrl-C.
type UserInterruptedExecution struct{}

func (ImageBuilt) Kind() Kind                       { return KindImageBuilt }
func (ImageBuildFailed) Kind() Kind                 { return KindImageBuildFailed }
func (ImagePulled) Kind() Kind                      { return KindImagePulled }
func (ImagePullFailed) Kind() Kind                  { return KindImagePullFailed }
func (NetworkCreated) Kind() Kind                   { return KindNetworkCreated }
func (NetworkCreationFailed) Kind() Kind            { return KindNetworkCreationFailed }
func (ContainerCreated) Kind() Kind                 { return KindContainerCreated }
func (ContainerCreationFailed) Kind() Kind          { return KindContainerCreationFailed }
func (ContainerStarted) Kind() Kind                 { return KindContainerStarted }
func (ContainerStartFailed) Kind() Kind             { return KindContainerStartFailed }
func (ContainerBecameHealthy) Kind() Kind           { return KindContainerBecameHealthy }
func (ContainerDidNotBecomeHealthy) Kind() Kind     { return KindContainerDidNotBecomeHealthy }
func (RunningContainerExited) Kind() Kind           { return KindRunningContainerExited }
func (ContainerRunFailed) Kind() Kind               { return KindContainerRunFailed }
func (ContainerStopped) Kind() Kind                 { return KindContainerStopped }
func (ContainerStopFailed) Kind() Kind              { return KindContainerStopFailed }
func (ContainerRemoved) Kind() Kind                 { return KindContainerRemoved }
func (ContainerRemovalFailed) Kind() Kind           { return KindContainerRemovalFailed }
func (NetworkDeleted) Kind() Kind                   { return KindNetworkDeleted }
func (NetworkDeletionFailed) Kind() Kind            { return KindNetworkDeletionFailed }
func (TemporaryFileCreated) Kind() Kind             { return KindTemporaryFileCreated }
func (TemporaryFileDeleted) Kind() Kind             { return KindTemporaryFileDeleted }
func (TemporaryFileDeletionFailed) Kind() Kind      { return KindTemporaryFileDeletionFailed }
func (TemporaryDirectoryCreated) Kind() Kind        { return KindTemporaryDirectoryCreated }
func (TemporaryDirectoryDeleted) Kind() Kind        { return KindTemporaryDirectoryDeleted }
func (TemporaryDirectoryDeletionFailed) Kind() Kind { return KindTemporaryDirectoryDeletionFailed }
func (ExecutionFailed) Kind() Kind                  { return KindExecutionFailed }
func (UserInterruptedExecution) Kind() Kind         { return KindUserInterruptedExecution }

func (e ImageBuilt) Subject() string                       { return e.Container }
func (e ImageBuildFailed) Subject() string                 { return e.Container }
func (e ImagePulled) Subject() string                      { return e.Reference }
func (e ImagePullFailed) Subject() string                  { return e.Reference }
func (NetworkCreated) Subject() string                     { return "" }
func (NetworkCreationFailed) Subject() string              { return "" }
func (e ContainerCreated) Subject() string                 { return e.Container }
func (e ContainerCreationFailed) Subject() string          { return e.Container }
func (e ContainerStarted) Subject() string                 { return e.Container }
func (e ContainerStartFailed) Subject() string             { return e.Container }
func (e ContainerBecameHealthy) Subject() string           { return e.Container }
func (e ContainerDidNotBecomeHealthy) Subject() string     { return e.Container }
func (e RunningContainerExited) Subject() string           { return e.Container }
func (e ContainerRunFailed) Subject() string               { return e.Container }
func (e ContainerStopped) Subject() string                 { return e.Container }
func (e ContainerStopFailed) Subject() string              { return e.Container }
func (e ContainerRemoved) Subject() string                 { return e.Container }
func (e ContainerRemovalFailed) Subject() string           { return e.Container }
func (NetworkDeleted) Subject() string                     { return "" }
func (NetworkDeletionFailed) Subject() string              { return "" }
func (e TemporaryFileCreated) Subject() string             { return e.Path }
func (e TemporaryFileDeleted) Subject() string             { return e.Path }
func (e TemporaryFileDeletionFailed) Subject() string      { return e.Path }
func (e TemporaryDirectoryCreated) Subject() string        { return e.Path }
func (e TemporaryDirectoryDeleted) Subject() string        { return e.Path }
func (e TemporaryDirectoryDeletionFailed) Subject() string { return e.Path }
func (ExecutionFailed) Subject() string                    { return "" }
func (UserInterruptedExecution) Subject() string           { return "" }

func (ImageBuilt) isTaskEvent()                       {}
func (ImageBuildFailed) isTaskEvent()                 {}
func (ImagePulled) isTaskEvent()                      {}
func (ImagePullFailed) isTaskEvent()                  {}
func (NetworkCreated) isTaskEvent()                   {}
func (NetworkCreationFailed) isTaskEvent()            {}
func (ContainerCreated) isTaskEvent()                 {}
func (ContainerCreationFailed) isTaskEvent()          {}
func (ContainerStarted) isTaskEvent()                 {}
func (ContainerStartFailed) isTaskEvent()             {}
func (ContainerBecameHealthy) isTaskEvent()           {}
func (ContainerDidNotBecomeHealthy) isTaskEvent()     {}
func (RunningContainerExited) isTaskEvent()           {}
func (ContainerRunFailed) isTaskEvent()               {}
func (ContainerStopped) isTaskEvent()                 {}
func (ContainerStopFailed) isTaskEvent()              {}
func (ContainerRemoved) isTaskEvent()                 {}
func (ContainerRemovalFailed) isTaskEvent()           {}
func (NetworkDeleted) isTaskEvent()                   {}
func (NetworkDeletionFailed) isTaskEvent()            {}
func (TemporaryFileCreated) isTaskEvent()             {}
func (TemporaryFileDeleted) isTaskEvent()             {}
func (TemporaryFileDeletionFailed) isTaskEvent()      {}
func (TemporaryDirectoryCreated) isTaskEvent()        {}
func (TemporaryDirectoryDeleted) isTaskEvent()        {}
func (TemporaryDirectoryDeletionFailed) isTaskEvent() {}
func (ExecutionFailed) isTaskEvent()                  {}
func (UserInterruptedExecution) isTaskEvent()         {}

func (e ImageBuildFailed) Message() string {
	return fmt.Sprintf("Could not build image for container '%s': %s", e.Container, e.Reason)
}

func (e ImagePullFailed) Message() string {
	return fmt.Sprintf("Could not pull image '%s': %s", e.Reference, e.Reason)
}

func (e NetworkCreationFailed) Message() string {
	return fmt.Sprintf("Could not create network for task: %s", e.Reason)
}

func (e ContainerCreationFailed) Message() string {
	return fmt.Sprintf("Could not create container '%s': %s", e.Container, e.Reason)
}

func (e ContainerStartFailed) Message() string {
	return fmt.Sprintf("Could not start container '%s': %s", e.Container, e.Reason)
}

func (e ContainerDidNotBecomeHealthy) Message() string {
	return fmt.Sprintf("Container '%s' did not become healthy: %s", e.Container, e.Reason)
}

func (e ContainerRunFailed) Message() string {
	return fmt.Sprintf("Could not run container '%s': %s", e.Container, e.Reason)
}

func (e ContainerStopFailed) Message() string {
	return fmt.Sprintf("Could not stop container '%s': %s", e.Container, e.Reason)
}

func (e ContainerRemovalFailed) Message() string {
	return fmt.Sprintf("Could not remove container '%s': %s", e.Container, e.Reason)
}

func (e NetworkDeletionFailed) Message() string {
	return fmt.Sprintf("Could not delete the task network '%s': %s", e.Network, e.Reason)
}

func (e TemporaryFileDeletionFailed) Message() string {
	return fmt.Sprintf("Could not delete temporary file '%s': %s", e.Path, e.Reason)
}

func (e TemporaryDirectoryDeletionFailed) Message() string {
	return fmt.Sprintf("Could not delete temporary directory '%s': %s", e.Path, e.Reason)
}

func (e ExecutionFailed) Message() string {
	return e.Reason
}

func (UserInterruptedExecution) Message() string {
	return ""
}

// IsFailure reports whether e fails the task.
func IsFailure(e TaskEvent) bool {
	_, ok := e.(FailureEvent)
	return ok
}

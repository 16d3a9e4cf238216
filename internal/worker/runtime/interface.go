// Package runtime provides the daemon and filesystem collaborators the step runner
// delegates to.
package runtime

//go:generate mockgen -destination=mocks/mock_runtime.go -package=mocks taskplane/internal/worker/runtime DaemonClient,Filesystem

import (
	"context"
	"io"
	"time"
)

// DaemonClient is the set of container daemon operations a task needs.
// Every call may block; cancelling ctx unblocks it.
type DaemonClient interface {
	BuildImage(ctx context.Context, req BuildRequest) (Image, error)
	PullImage(ctx context.Context, reference string) (Image, error)

	CreateNetwork(ctx context.Context, name, driver string) (Network, error)
	DeleteNetwork(ctx context.Context, network Network) error

	CreateContainer(ctx context.Context, spec ContainerSpec) (ContainerHandle, error)
	StartContainer(ctx context.Context, handle ContainerHandle) error
	StopContainer(ctx context.Context, handle ContainerHandle, timeout time.Duration) error
	RemoveContainer(ctx context.Context, handle ContainerHandle) error

	// WaitForExit blocks until the container exits and returns its exit code.
	WaitForExit(ctx context.Context, handle ContainerHandle) (int64, error)

	// WaitForHealthy blocks until the container's health check settles, or reports
	// that it has none.
	WaitForHealthy(ctx context.Context, handle ContainerHandle) (HealthResult, error)

	// AttachOutput copies the container's stdout and stderr until it exits or the
	// returned stream is closed.
	AttachOutput(ctx context.Context, handle ContainerHandle, stdout, stderr io.Writer) (*OutputStream, error)
}

// Filesystem creates and deletes the temporary host files a task mounts.
type Filesystem interface {
	CreateTempFile(prefix string, content []byte) (string, error)
	CreateTempDirectory(prefix string) (string, error)
	Delete(path string) error
}

// BuildRequest describes an image build.
type BuildRequest struct {
	Directory  string
	Dockerfile string
	Args       map[string]string
	Tags       []string
}

// Image is a built or pulled image.
type Image struct {
	ID string
}

// Network is a task network.
type Network struct {
	ID string
}

// ContainerHandle refers to a created container.
type ContainerHandle struct {
	ID   string
	Name string
}

// ContainerSpec describes a container to create.
type ContainerSpec struct {
	Name             string
	Hostname         string
	Image            string
	Network          string
	NetworkAliases   []string
	Command          []string
	Environment      map[string]string
	WorkingDirectory string
	Ports            []string
	Binds            []string // "host:container[:options]"
	User             string
	HealthCheck      *HealthCheckSpec
}

// HealthCheckSpec overrides the image's health check.
type HealthCheckSpec struct {
	Command     []string
	Interval    time.Duration
	Timeout     time.Duration
	StartPeriod time.Duration
	Retries     int
}

// HealthStatus is the settled health of a container.
type HealthStatus int

const (
	Healthy HealthStatus = iota
	Unhealthy
	NoHealthCheck

	// Exited means the container stopped before its health check settled.
	Exited
)

// HealthResult is returned by WaitForHealthy.
type HealthResult struct {
	Status HealthStatus

	// LastOutput is the output of the last health check run, if any.
	LastOutput string
}

// OutputStream is an attached output connection.
type OutputStream struct {
	done  chan struct{}
	close func() error
}

// NewOutputStream wraps a connection whose copy loop closes done when it ends.
func NewOutputStream(done chan struct{}, close func() error) *OutputStream {
	return &OutputStream{done: done, close: close}
}

// Done is closed once all output has been copied.
func (s *OutputStream) Done() <-chan struct{} {
	return s.done
}

// Close closes the connection and waits for the copy loop to end.
func (s *OutputStream) Close() error {
	err := s.close()
	<-s.done
	return err
}

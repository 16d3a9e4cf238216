// Package model contains the container and task definitions loaded from a project file.
// Values are immutable once loaded.
package model

import (
	"sort"
	"time"
)

// Container describes one container a task may run.
type Container struct {
	Name             string
	Image            ImageSource
	Command          []string
	Environment      map[string]string
	WorkingDirectory string
	Ports            []string // "8080:80", "5432:5432/tcp"
	Volumes          []VolumeMount
	DependsOn        []string
	HealthCheck      *HealthCheck

	// RunAsCurrentUser mounts generated passwd/group files so the process runs with the
	// host user's uid and gid.
	RunAsCurrentUser bool

	// ScratchDirectory, when set, is the container path a temporary host directory is
	// mounted at for the lifetime of the task.
	ScratchDirectory string
}

// ImageSource says where a container's image comes from.
// Exactly one of Build and Pull is set.
type ImageSource struct {
	Build *BuildSource
	Pull  string // image reference
}

// IsBuild reports whether the image is built from a local directory.
func (s ImageSource) IsBuild() bool {
	return s.Build != nil
}

// BuildSource describes an image built from a local build directory.
type BuildSource struct {
	Directory  string
	Dockerfile string
	Args       map[string]string
}

// VolumeMount binds a host path into a container.
type VolumeMount struct {
	Local     string
	Container string
	Options   string // e.g. "ro", "cached"
}

// HealthCheck overrides the image's health check settings.
type HealthCheck struct {
	Command     []string
	Interval    time.Duration
	Timeout     time.Duration
	StartPeriod time.Duration
	Retries     int
}

// ContainerMap indexes containers by name.
type ContainerMap map[string]Container

// Names returns the container names in sorted order.
func (m ContainerMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"taskplane/internal/events"
	"taskplane/internal/model"
	"taskplane/internal/steps"
	"taskplane/internal/worker/runtime"

	"github.com/google/uuid"
)

// PostFunc receives the events a step produces, in the order they happen.
type PostFunc func(events.TaskEvent)

// HostUser is the host account a container runs as when it asks to run as the current user.
type HostUser struct {
	UID     string
	GID     string
	Name    string
	HomeDir string
	Group   string
}

// RunnerOptions configures a StepRunner.
type RunnerOptions struct {
	ProjectName   string
	NetworkDriver string
	StopTimeout   time.Duration

	// Stdout and Stderr receive the main container's output.
	Stdout io.Writer
	Stderr io.Writer

	// CurrentUser looks up the host user. Defaults to the process's user.
	CurrentUser func() (HostUser, error)
}

// StepRunner performs steps against the container daemon and the host filesystem and
// reports what happened as events.
type StepRunner struct {
	daemon runtime.DaemonClient
	fs     runtime.Filesystem
	opts   RunnerOptions
	logger *slog.Logger
}

// NewStepRunner creates a step runner.
func NewStepRunner(daemon runtime.DaemonClient, fs runtime.Filesystem, opts RunnerOptions, logger *slog.Logger) *StepRunner {
	if opts.NetworkDriver == "" {
		opts.NetworkDriver = "bridge"
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Second
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.CurrentUser == nil {
		opts.CurrentUser = lookupCurrentUser
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StepRunner{
		daemon: daemon,
		fs:     fs,
		opts:   opts,
		logger: logger.With("component", "runner"),
	}
}

// Run performs step and posts its outcome. Daemon and filesystem failures are reported
// as failure events; the returned error is for failures of the runner itself. A step
// whose context is cancelled while it blocks posts nothing.
func (r *StepRunner) Run(ctx context.Context, step steps.TaskStep, post PostFunc) error {
	switch s := step.(type) {
	case steps.BuildImage:
		r.buildImage(ctx, s, post)
	case steps.PullImage:
		r.pullImage(ctx, s, post)
	case steps.CreateTaskNetwork:
		r.createTaskNetwork(ctx, post)
	case steps.CreateContainer:
		r.createContainer(ctx, s, post)
	case steps.StartContainer:
		r.startContainer(ctx, s, post)
	case steps.RunContainer:
		r.runContainer(ctx, s, post)
	case steps.WaitForContainerToBecomeHealthy:
		r.waitForHealthy(ctx, s, post)
	case steps.StopContainer:
		r.stopContainer(ctx, s, post)
	case steps.RemoveContainer:
		r.removeContainer(ctx, s, post)
	case steps.DeleteTaskNetwork:
		r.deleteTaskNetwork(ctx, s, post)
	case steps.DeleteTemporaryFile:
		if err := r.fs.Delete(s.Path); err != nil {
			post(events.TemporaryFileDeletionFailed{Path: s.Path, Reason: err.Error()})
			return nil
		}
		post(events.TemporaryFileDeleted{Path: s.Path})
	case steps.DeleteTemporaryDirectory:
		if err := r.fs.Delete(s.Path); err != nil {
			post(events.TemporaryDirectoryDeletionFailed{Path: s.Path, Reason: err.Error()})
			return nil
		}
		post(events.TemporaryDirectoryDeleted{Path: s.Path})
	default:
		return fmt.Errorf("no runner for step %T", step)
	}
	return nil
}

func (r *StepRunner) buildImage(ctx context.Context, s steps.BuildImage, post PostFunc) {
	image, err := r.daemon.BuildImage(ctx, runtime.BuildRequest{
		Directory:  s.Source.Directory,
		Dockerfile: s.Source.Dockerfile,
		Args:       s.Source.Args,
		Tags:       []string{s.Tag},
	})
	if err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ImageBuildFailed{Container: s.Container, Reason: err.Error()})
		return
	}
	post(events.ImageBuilt{Container: s.Container, Image: image.ID})
}

func (r *StepRunner) pullImage(ctx context.Context, s steps.PullImage, post PostFunc) {
	image, err := r.daemon.PullImage(ctx, s.Reference)
	if err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ImagePullFailed{Reference: s.Reference, Reason: err.Error()})
		return
	}
	post(events.ImagePulled{Reference: s.Reference, Image: image.ID})
}

func (r *StepRunner) createTaskNetwork(ctx context.Context, post PostFunc) {
	name := fmt.Sprintf("%s-%s", r.namePrefix(), uuid.NewString())

	// A created network must always be reported so that it gets deleted.
	network, err := r.daemon.CreateNetwork(context.WithoutCancel(ctx), name, r.opts.NetworkDriver)
	if err != nil {
		post(events.NetworkCreationFailed{Reason: err.Error()})
		return
	}
	if network.ID == "" {
		network.ID = name
	}
	post(events.NetworkCreated{Network: network.ID})
}

func (r *StepRunner) createContainer(ctx context.Context, s steps.CreateContainer, post PostFunc) {
	c := s.Container
	spec := runtime.ContainerSpec{
		Name:             fmt.Sprintf("%s-%s-%s", r.namePrefix(), c.Name, uuid.NewString()[:8]),
		Hostname:         c.Name,
		Image:            s.Image,
		Network:          s.Network,
		NetworkAliases:   []string{c.Name},
		Command:          c.Command,
		Environment:      c.Environment,
		WorkingDirectory: c.WorkingDirectory,
		Ports:            c.Ports,
		Binds:            volumeBinds(c.Volumes),
		HealthCheck:      healthCheckSpec(c.HealthCheck),
	}

	if c.RunAsCurrentUser {
		binds, userSpec, err := r.prepareCurrentUser(c, post)
		if err != nil {
			post(events.ContainerCreationFailed{Container: c.Name, Reason: err.Error()})
			return
		}
		spec.Binds = append(spec.Binds, binds...)
		spec.User = userSpec
	}

	if c.ScratchDirectory != "" {
		dir, err := r.fs.CreateTempDirectory(fmt.Sprintf("%s-%s-scratch-", r.namePrefix(), c.Name))
		if err != nil {
			post(events.ContainerCreationFailed{Container: c.Name, Reason: err.Error()})
			return
		}
		post(events.TemporaryDirectoryCreated{Container: c.Name, Path: dir})
		spec.Binds = append(spec.Binds, fmt.Sprintf("%s:%s", dir, c.ScratchDirectory))
	}

	// A created container must always be reported so that it gets removed.
	handle, err := r.daemon.CreateContainer(context.WithoutCancel(ctx), spec)
	if err != nil {
		post(events.ContainerCreationFailed{Container: c.Name, Reason: err.Error()})
		return
	}
	r.logger.Debug("Container created", "container", c.Name, "id", handle.ID)
	post(events.ContainerCreated{Container: c.Name, ContainerID: handle.ID})
}

// prepareCurrentUser writes passwd and group files describing the host user and returns
// the binds mounting them and the container user spec.
func (r *StepRunner) prepareCurrentUser(c model.Container, post PostFunc) ([]string, string, error) {
	u, err := r.opts.CurrentUser()
	if err != nil {
		return nil, "", fmt.Errorf("could not look up the current user: %w", err)
	}

	passwd, err := r.fs.CreateTempFile(fmt.Sprintf("%s-%s-passwd-", r.namePrefix(), c.Name), passwdFile(u))
	if err != nil {
		return nil, "", err
	}
	post(events.TemporaryFileCreated{Container: c.Name, Path: passwd})

	group, err := r.fs.CreateTempFile(fmt.Sprintf("%s-%s-group-", r.namePrefix(), c.Name), groupFile(u))
	if err != nil {
		return nil, "", err
	}
	post(events.TemporaryFileCreated{Container: c.Name, Path: group})

	binds := []string{
		fmt.Sprintf("%s:/etc/passwd:ro", passwd),
		fmt.Sprintf("%s:/etc/group:ro", group),
	}
	return binds, fmt.Sprintf("%s:%s", u.UID, u.GID), nil
}

func (r *StepRunner) startContainer(ctx context.Context, s steps.StartContainer, post PostFunc) {
	handle := runtime.ContainerHandle{ID: s.ContainerID, Name: s.Container.Name}
	if err := r.daemon.StartContainer(ctx, handle); err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ContainerStartFailed{Container: s.Container.Name, Reason: err.Error()})
		return
	}
	post(events.ContainerStarted{Container: s.Container.Name})

	if s.Container.HealthCheck == nil {
		post(events.ContainerBecameHealthy{Container: s.Container.Name})
	}
}

func (r *StepRunner) runContainer(ctx context.Context, s steps.RunContainer, post PostFunc) {
	name := s.Container.Name
	handle := runtime.ContainerHandle{ID: s.ContainerID, Name: name}

	output, err := r.daemon.AttachOutput(ctx, handle, r.opts.Stdout, r.opts.Stderr)
	if err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ContainerRunFailed{Container: name, Reason: fmt.Sprintf("could not attach to output: %v", err)})
		return
	}
	defer output.Close()

	if err := r.daemon.StartContainer(ctx, handle); err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ContainerStartFailed{Container: name, Reason: err.Error()})
		return
	}
	post(events.ContainerStarted{Container: name})

	exitCode, err := r.daemon.WaitForExit(ctx, handle)
	if err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ContainerRunFailed{Container: name, Reason: err.Error()})
		return
	}

	// Let the copy loop drain whatever the container wrote before it exited.
	select {
	case <-output.Done():
	case <-ctx.Done():
	}

	r.logger.Debug("Container exited", "container", name, "exit_code", exitCode)
	post(events.RunningContainerExited{Container: name, ExitCode: exitCode})
}

func (r *StepRunner) waitForHealthy(ctx context.Context, s steps.WaitForContainerToBecomeHealthy, post PostFunc) {
	handle := runtime.ContainerHandle{ID: s.ContainerID, Name: s.Container}
	result, err := r.daemon.WaitForHealthy(ctx, handle)
	if err != nil {
		if r.cancelled(ctx, s) {
			return
		}
		post(events.ContainerDidNotBecomeHealthy{Container: s.Container, Reason: err.Error()})
		return
	}

	switch result.Status {
	case runtime.Healthy, runtime.NoHealthCheck:
		post(events.ContainerBecameHealthy{Container: s.Container})
	case runtime.Exited:
		post(events.ContainerDidNotBecomeHealthy{Container: s.Container, Reason: "The container exited before becoming healthy."})
	default:
		reason := "The configured health check did not indicate that the container was healthy within the timeout period."
		if out := strings.TrimSpace(result.LastOutput); out != "" {
			reason += " The last health check output was: " + out
		}
		post(events.ContainerDidNotBecomeHealthy{Container: s.Container, Reason: reason})
	}
}

func (r *StepRunner) stopContainer(ctx context.Context, s steps.StopContainer, post PostFunc) {
	handle := runtime.ContainerHandle{ID: s.ContainerID, Name: s.Container}
	if err := r.daemon.StopContainer(ctx, handle, r.opts.StopTimeout); err != nil {
		post(events.ContainerStopFailed{Container: s.Container, Reason: err.Error()})
		return
	}
	post(events.ContainerStopped{Container: s.Container})
}

func (r *StepRunner) removeContainer(ctx context.Context, s steps.RemoveContainer, post PostFunc) {
	handle := runtime.ContainerHandle{ID: s.ContainerID, Name: s.Container}
	if err := r.daemon.RemoveContainer(ctx, handle); err != nil {
		post(events.ContainerRemovalFailed{Container: s.Container, Reason: err.Error()})
		return
	}
	post(events.ContainerRemoved{Container: s.Container})
}

func (r *StepRunner) deleteTaskNetwork(ctx context.Context, s steps.DeleteTaskNetwork, post PostFunc) {
	if err := r.daemon.DeleteNetwork(ctx, runtime.Network{ID: s.Network}); err != nil {
		post(events.NetworkDeletionFailed{Network: s.Network, Reason: err.Error()})
		return
	}
	post(events.NetworkDeleted{Network: s.Network})
}

// cancelled reports whether ctx was cancelled, in which case the step's outcome is not
// reported: the task is already aborting.
func (r *StepRunner) cancelled(ctx context.Context, step steps.TaskStep) bool {
	if ctx.Err() == nil {
		return false
	}
	r.logger.Debug("Step cancelled", "step", steps.KindOf(step), "reason", context.Cause(ctx))
	return true
}

func (r *StepRunner) namePrefix() string {
	if r.opts.ProjectName == "" {
		return "taskplane"
	}
	return r.opts.ProjectName
}

func volumeBinds(volumes []model.VolumeMount) []string {
	binds := make([]string, 0, len(volumes))
	for _, v := range volumes {
		local := v.Local
		if abs, err := filepath.Abs(local); err == nil {
			local = abs
		}
		bind := fmt.Sprintf("%s:%s", local, v.Container)
		if v.Options != "" {
			bind += ":" + v.Options
		}
		binds = append(binds, bind)
	}
	return binds
}

func healthCheckSpec(hc *model.HealthCheck) *runtime.HealthCheckSpec {
	if hc == nil {
		return nil
	}
	return &runtime.HealthCheckSpec{
		Command:     hc.Command,
		Interval:    hc.Interval,
		Timeout:     hc.Timeout,
		StartPeriod: hc.StartPeriod,
		Retries:     hc.Retries,
	}
}

func passwdFile(u HostUser) []byte {
	home := u.HomeDir
	if home == "" {
		home = "/home/" + u.Name
	}
	return []byte(fmt.Sprintf("root:x:0:0:root:/root:/bin/sh\n%s:x:%s:%s:%s:%s:/bin/sh\n", u.Name, u.UID, u.GID, u.Name, home))
}

func groupFile(u HostUser) []byte {
	group := u.Group
	if group == "" {
		group = u.Name
	}
	return []byte(fmt.Sprintf("root:x:0:root\n%s:x:%s:%s\n", group, u.GID, u.Name))
}

func lookupCurrentUser() (HostUser, error) {
	u, err := user.Current()
	if err != nil {
		return HostUser{}, err
	}
	if u.Uid == "" || u.Gid == "" {
		return HostUser{}, errors.New("the current user has no numeric uid or gid")
	}

	hostUser := HostUser{UID: u.Uid, GID: u.Gid, Name: u.Username, HomeDir: u.HomeDir}
	if g, err := user.LookupGroupId(u.Gid); err == nil {
		hostUser.Group = g.Name
	}
	return hostUser, nil
}

package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"golang.org/x/time/rate"
)

// DockerOptions configures a DockerClient.
type DockerOptions struct {
	// Host overrides DOCKER_HOST when set.
	Host string

	// HealthPollInterval is the minimum time between two health status checks.
	HealthPollInterval time.Duration
}

// DockerClient implements DaemonClient using the Docker SDK.
type DockerClient struct {
	client             *client.Client
	healthPollInterval time.Duration
}

// NewDockerClient creates a client configured from the standard environment variables
// (DOCKER_HOST, DOCKER_TLS_VERIFY, ...).
func NewDockerClient(opts DockerOptions) (*DockerClient, error) {
	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	if opts.HealthPollInterval <= 0 {
		opts.HealthPollInterval = 500 * time.Millisecond
	}

	return &DockerClient{client: cli, healthPollInterval: opts.HealthPollInterval}, nil
}

// Close releases the client's connections.
func (d *DockerClient) Close() error {
	return d.client.Close()
}

func (d *DockerClient) BuildImage(ctx context.Context, req BuildRequest) (Image, error) {
	buildContext, err := archive.TarWithOptions(req.Directory, &archive.TarOptions{})
	if err != nil {
		return Image{}, fmt.Errorf("failed to archive build directory %s: %w", req.Directory, err)
	}
	defer buildContext.Close()

	resp, err := d.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:        req.Tags,
		Dockerfile:  req.Dockerfile,
		BuildArgs:   buildArgs(req.Args),
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	var built Image
	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var result struct{ ID string }
		if json.Unmarshal(*msg.Aux, &result) == nil && result.ID != "" {
			built.ID = result.ID
		}
	})
	if err != nil {
		return Image{}, err
	}
	if built.ID == "" {
		return Image{}, errors.New("the daemon did not report the built image's ID")
	}
	return built, nil
}

func (d *DockerClient) PullImage(ctx context.Context, reference string) (Image, error) {
	// Skip the pull if the image is already present.
	if inspect, err := d.client.ImageInspect(ctx, reference); err == nil {
		return Image{ID: inspect.ID}, nil
	}

	reader, err := d.client.ImagePull(ctx, reference, image.PullOptions{})
	if err != nil {
		return Image{}, err
	}
	defer reader.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil); err != nil {
		return Image{}, err
	}

	inspect, err := d.client.ImageInspect(ctx, reference)
	if err != nil {
		return Image{}, fmt.Errorf("pulled image %s could not be inspected: %w", reference, err)
	}
	return Image{ID: inspect.ID}, nil
}

func (d *DockerClient) CreateNetwork(ctx context.Context, name, driver string) (Network, error) {
	resp, err := d.client.NetworkCreate(ctx, name, network.CreateOptions{Driver: driver})
	if err != nil {
		return Network{}, err
	}
	return Network{ID: resp.ID}, nil
}

func (d *DockerClient) DeleteNetwork(ctx context.Context, n Network) error {
	return d.client.NetworkRemove(ctx, n.ID)
}

func (d *DockerClient) CreateContainer(ctx context.Context, spec ContainerSpec) (ContainerHandle, error) {
	exposed, bindings, err := nat.ParsePortSpecs(spec.Ports)
	if err != nil {
		return ContainerHandle{}, fmt.Errorf("invalid port mapping: %w", err)
	}

	containerConfig := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Command,
		Env:          mapToEnvList(spec.Environment),
		WorkingDir:   spec.WorkingDirectory,
		Hostname:     spec.Hostname,
		User:         spec.User,
		ExposedPorts: exposed,
		Healthcheck:  healthConfig(spec.HealthCheck),
	}
	hostConfig := &container.HostConfig{
		Binds:        spec.Binds,
		PortBindings: bindings,
	}
	networkingConfig := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			spec.Network: {Aliases: spec.NetworkAliases},
		},
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, networkingConfig, nil, spec.Name)
	if err != nil {
		return ContainerHandle{}, err
	}
	return ContainerHandle{ID: resp.ID, Name: spec.Name}, nil
}

func (d *DockerClient) StartContainer(ctx context.Context, h ContainerHandle) error {
	return d.client.ContainerStart(ctx, h.ID, container.StartOptions{})
}

func (d *DockerClient) StopContainer(ctx context.Context, h ContainerHandle, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	return d.client.ContainerStop(ctx, h.ID, container.StopOptions{Timeout: &seconds})
}

func (d *DockerClient) RemoveContainer(ctx context.Context, h ContainerHandle) error {
	return d.client.ContainerRemove(ctx, h.ID, container.RemoveOptions{Force: true, RemoveVolumes: true})
}

func (d *DockerClient) WaitForExit(ctx context.Context, h ContainerHandle) (int64, error) {
	statusCh, errCh := d.client.ContainerWait(ctx, h.ID, container.WaitConditionNotRunning)

	select {
	case err := <-errCh:
		return -1, err
	case status := <-statusCh:
		if status.Error != nil {
			return status.StatusCode, fmt.Errorf("%s", status.Error.Message)
		}
		return status.StatusCode, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (d *DockerClient) WaitForHealthy(ctx context.Context, h ContainerHandle) (HealthResult, error) {
	limiter := rate.NewLimiter(rate.Every(d.healthPollInterval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return HealthResult{}, err
		}

		info, err := d.client.ContainerInspect(ctx, h.ID)
		if err != nil {
			return HealthResult{}, err
		}
		if info.State == nil {
			return HealthResult{}, fmt.Errorf("container %s has no state", h.ID)
		}

		health := info.State.Health
		if health == nil {
			return HealthResult{Status: NoHealthCheck}, nil
		}

		switch health.Status {
		case "healthy":
			return HealthResult{Status: Healthy}, nil
		case "unhealthy":
			result := HealthResult{Status: Unhealthy}
			if n := len(health.Log); n > 0 && health.Log[n-1] != nil {
				result.LastOutput = health.Log[n-1].Output
			}
			return result, nil
		}

		if !info.State.Running {
			return HealthResult{Status: Exited}, nil
		}
	}
}

func (d *DockerClient) AttachOutput(ctx context.Context, h ContainerHandle, stdout, stderr io.Writer) (*OutputStream, error) {
	resp, err := d.client.ContainerAttach(ctx, h.ID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		stdcopy.StdCopy(stdout, stderr, resp.Reader)
	}()

	return NewOutputStream(done, func() error {
		resp.Close()
		return nil
	}), nil
}

func mapToEnvList(m map[string]string) []string {
	env := make([]string, 0, len(m))
	for k, v := range m {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}

func buildArgs(args map[string]string) map[string]*string {
	out := make(map[string]*string, len(args))
	for k, v := range args {
		value := v
		out[k] = &value
	}
	return out
}

func healthConfig(spec *HealthCheckSpec) *container.HealthConfig {
	if spec == nil {
		return nil
	}
	cfg := &container.HealthConfig{
		Interval:    spec.Interval,
		Timeout:     spec.Timeout,
		StartPeriod: spec.StartPeriod,
		Retries:     spec.Retries,
	}
	if len(spec.Command) > 0 {
		cfg.Test = append([]string{"CMD"}, spec.Command...)
	}
	return cfg
}

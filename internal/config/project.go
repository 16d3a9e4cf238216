package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"

	"taskplane/internal/model"
)

// ProjectError reports a problem with the contents of a project file.
type ProjectError struct {
	Path   string
	Reason string
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

type projectFile struct {
	ProjectName string                   `yaml:"project_name"`
	Containers  map[string]containerFile `yaml:"containers"`
	Tasks       map[string]taskFile      `yaml:"tasks"`
}

type containerFile struct {
	Image            string            `yaml:"image"`
	BuildDirectory   string            `yaml:"build_directory"`
	Dockerfile       string            `yaml:"dockerfile"`
	BuildArgs        map[string]string `yaml:"build_args"`
	Command          commandLine       `yaml:"command"`
	Environment      map[string]string `yaml:"environment"`
	WorkingDirectory string            `yaml:"working_directory"`
	Ports            []string          `yaml:"ports"`
	Volumes          []string          `yaml:"volumes"`
	Dependencies     []string          `yaml:"dependencies"`
	HealthCheck      *healthCheckFile  `yaml:"health_check"`
	RunAsCurrentUser bool              `yaml:"run_as_current_user"`
	ScratchDirectory string            `yaml:"scratch_directory"`
}

type healthCheckFile struct {
	Command     commandLine   `yaml:"command"`
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	StartPeriod time.Duration `yaml:"start_period"`
	Retries     int           `yaml:"retries"`
}

type taskFile struct {
	Description   string       `yaml:"description"`
	Run           *taskRunFile `yaml:"run"`
	Dependencies  []string     `yaml:"dependencies"`
	Prerequisites []string     `yaml:"prerequisites"`
}

type taskRunFile struct {
	Container   string            `yaml:"container"`
	Command     commandLine       `yaml:"command"`
	Environment map[string]string `yaml:"environment"`
}

// commandLine accepts either a list of arguments or a single string split like a shell would.
type commandLine []string

func (c *commandLine) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		args, err := SplitCommand(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = args
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := node.Decode(&args); err != nil {
			return err
		}
		*c = args
		return nil
	default:
		return fmt.Errorf("line %d: command must be a string or a list of strings", node.Line)
	}
}

// LoadProject reads the project file at path. Relative build directories and volume paths
// resolve against the file's directory. The project name defaults to that directory's name.
func LoadProject(path string) (model.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Configuration{}, fmt.Errorf("failed to read project file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return model.Configuration{}, fmt.Errorf("failed to resolve project file path: %w", err)
	}
	return ParseProject(data, abs)
}

// ParseProject parses project file contents. path is used to resolve relative paths and
// in error messages.
func ParseProject(data []byte, path string) (model.Configuration, error) {
	var file projectFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return model.Configuration{}, &ProjectError{Path: path, Reason: err.Error()}
	}

	baseDir := filepath.Dir(path)
	cfg := model.Configuration{
		ProjectName: file.ProjectName,
		Containers:  model.ContainerMap{},
		Tasks:       model.TaskMap{},
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = filepath.Base(baseDir)
	}

	for name, c := range file.Containers {
		container, err := c.toModel(name, baseDir)
		if err != nil {
			return model.Configuration{}, &ProjectError{Path: path, Reason: err.Error()}
		}
		cfg.Containers[name] = container
	}

	for name, t := range file.Tasks {
		task, err := t.toModel(name)
		if err != nil {
			return model.Configuration{}, &ProjectError{Path: path, Reason: err.Error()}
		}
		cfg.Tasks[name] = task
	}

	return cfg, nil
}

func (c containerFile) toModel(name, baseDir string) (model.Container, error) {
	if strings.TrimSpace(name) == "" {
		return model.Container{}, fmt.Errorf("container names must not be empty")
	}

	out := model.Container{
		Name:             name,
		Command:          c.Command,
		Environment:      c.Environment,
		WorkingDirectory: c.WorkingDirectory,
		Ports:            c.Ports,
		DependsOn:        c.Dependencies,
		RunAsCurrentUser: c.RunAsCurrentUser,
		ScratchDirectory: c.ScratchDirectory,
	}

	switch {
	case c.Image != "" && c.BuildDirectory != "":
		return model.Container{}, fmt.Errorf("container '%s' must have either an image or a build directory, but not both", name)
	case c.Image != "":
		if c.Dockerfile != "" || len(c.BuildArgs) > 0 {
			return model.Container{}, fmt.Errorf("container '%s' sets build options but pulls the image '%s'", name, c.Image)
		}
		out.Image = model.ImageSource{Pull: c.Image}
	case c.BuildDirectory != "":
		out.Image = model.ImageSource{Build: &model.BuildSource{
			Directory:  resolvePath(baseDir, c.BuildDirectory),
			Dockerfile: c.Dockerfile,
			Args:       c.BuildArgs,
		}}
	default:
		return model.Container{}, fmt.Errorf("container '%s' must have either an image or a build directory", name)
	}

	for _, v := range c.Volumes {
		mount, err := parseVolume(v, baseDir)
		if err != nil {
			return model.Container{}, fmt.Errorf("container '%s': %w", name, err)
		}
		out.Volumes = append(out.Volumes, mount)
	}

	if c.HealthCheck != nil {
		if c.HealthCheck.Retries < 0 {
			return model.Container{}, fmt.Errorf("container '%s': health check retries must not be negative", name)
		}
		out.HealthCheck = &model.HealthCheck{
			Command:     c.HealthCheck.Command,
			Interval:    c.HealthCheck.Interval,
			Timeout:     c.HealthCheck.Timeout,
			StartPeriod: c.HealthCheck.StartPeriod,
			Retries:     c.HealthCheck.Retries,
		}
	}

	if c.ScratchDirectory != "" && !strings.HasPrefix(c.ScratchDirectory, "/") {
		return model.Container{}, fmt.Errorf("container '%s': scratch directory '%s' must be an absolute path", name, c.ScratchDirectory)
	}

	return out, nil
}

func (t taskFile) toModel(name string) (model.Task, error) {
	if strings.TrimSpace(name) == "" {
		return model.Task{}, fmt.Errorf("task names must not be empty")
	}

	task := model.Task{
		Name:          name,
		Description:   t.Description,
		DependsOn:     t.Dependencies,
		Prerequisites: t.Prerequisites,
	}

	if t.Run == nil {
		if len(t.Prerequisites) == 0 {
			return model.Task{}, fmt.Errorf("task '%s' must have a container to run or at least one prerequisite", name)
		}
		if len(t.Dependencies) > 0 {
			return model.Task{}, fmt.Errorf("task '%s' has dependencies but no container to run", name)
		}
		return task, nil
	}

	if t.Run.Container == "" {
		return model.Task{}, fmt.Errorf("task '%s' must name the container to run", name)
	}
	task.Run = model.TaskRun{
		Container:   t.Run.Container,
		Command:     t.Run.Command,
		Environment: t.Run.Environment,
	}
	return task, nil
}

// parseVolume parses "local:container[:options]".
func parseVolume(spec, baseDir string) (model.VolumeMount, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return model.VolumeMount{}, fmt.Errorf("invalid volume mount '%s': expected local:container[:options]", spec)
	}

	mount := model.VolumeMount{
		Local:     resolvePath(baseDir, parts[0]),
		Container: parts[1],
	}
	if len(parts) == 3 {
		mount.Options = parts[2]
	}
	return mount, nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// SplitCommand splits a command line into arguments the way a POSIX shell would, without
// expanding variables. Shell operators such as '|' or '&&' are rejected; wrap the command
// in "sh -c" to use them.
func SplitCommand(line string) ([]string, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("command '%s' is not a valid command line: %w", line, err)
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("command '%s' contains a shell operator at position %d, use sh -c to run it through a shell", line, parser.Position)
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

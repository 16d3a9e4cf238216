package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"taskplane/internal/model"
)

const shopProject = `
project_name: shop
containers:
  db:
    image: postgres:16
    environment:
      POSTGRES_PASSWORD: secret
    ports: ["5432:5432"]
    health_check:
      command: pg_isready -U postgres
      interval: 2s
      timeout: 1s
      start_period: 5s
      retries: 10
  app:
    build_directory: app
    dockerfile: Dockerfile.dev
    build_args:
      GO_VERSION: "1.23"
    command: ["go", "run", "."]
    working_directory: /code
    volumes:
      - .:/code:cached
      - /var/run/docker.sock:/var/run/docker.sock
    dependencies: [db]
    run_as_current_user: true
    scratch_directory: /scratch
tasks:
  test:
    description: Run the tests
    run:
      container: app
      command: sh -c 'go test ./...'
      environment:
        CGO_ENABLED: "0"
    dependencies: [db]
    prerequisites: [lint]
  lint:
    run:
      container: app
  all:
    prerequisites: ["test", "lint:*"]
`

func TestParseProject(t *testing.T) {
	cfg, err := ParseProject([]byte(shopProject), "/work/shop/taskplane.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectName != "shop" {
		t.Errorf("expected project name shop, got %s", cfg.ProjectName)
	}
	if got := cfg.Containers.Names(); !reflect.DeepEqual(got, []string{"app", "db"}) {
		t.Errorf("unexpected containers: %v", got)
	}
	if got := cfg.Tasks.Names(); !reflect.DeepEqual(got, []string{"all", "lint", "test"}) {
		t.Errorf("unexpected tasks: %v", got)
	}

	db := cfg.Containers["db"]
	if db.Image.Pull != "postgres:16" || db.Image.IsBuild() {
		t.Errorf("expected db to pull postgres:16, got %+v", db.Image)
	}
	wantHealth := &model.HealthCheck{
		Command:     []string{"pg_isready", "-U", "postgres"},
		Interval:    2 * time.Second,
		Timeout:     time.Second,
		StartPeriod: 5 * time.Second,
		Retries:     10,
	}
	if !reflect.DeepEqual(db.HealthCheck, wantHealth) {
		t.Errorf("unexpected health check: %+v", db.HealthCheck)
	}

	app := cfg.Containers["app"]
	if !app.Image.IsBuild() {
		t.Fatalf("expected app to be built, got %+v", app.Image)
	}
	if app.Image.Build.Directory != "/work/shop/app" {
		t.Errorf("expected build directory relative to the project file, got %s", app.Image.Build.Directory)
	}
	if app.Image.Build.Dockerfile != "Dockerfile.dev" || app.Image.Build.Args["GO_VERSION"] != "1.23" {
		t.Errorf("unexpected build source: %+v", app.Image.Build)
	}
	wantVolumes := []model.VolumeMount{
		{Local: "/work/shop", Container: "/code", Options: "cached"},
		{Local: "/var/run/docker.sock", Container: "/var/run/docker.sock"},
	}
	if !reflect.DeepEqual(app.Volumes, wantVolumes) {
		t.Errorf("unexpected volumes: %+v", app.Volumes)
	}
	if !app.RunAsCurrentUser || app.ScratchDirectory != "/scratch" {
		t.Errorf("expected current user and scratch directory, got %v %q", app.RunAsCurrentUser, app.ScratchDirectory)
	}
	if !reflect.DeepEqual(app.Command, []string{"go", "run", "."}) {
		t.Errorf("unexpected command: %v", app.Command)
	}

	test := cfg.Tasks["test"]
	if test.Run.Container != "app" || !reflect.DeepEqual(test.Run.Command, []string{"sh", "-c", "go test ./..."}) {
		t.Errorf("unexpected run: %+v", test.Run)
	}
	if !reflect.DeepEqual(test.DependsOn, []string{"db"}) || !reflect.DeepEqual(test.Prerequisites, []string{"lint"}) {
		t.Errorf("unexpected relations: %+v", test)
	}

	all := cfg.Tasks["all"]
	if all.Run.Container != "" {
		t.Errorf("expected prerequisites-only task, got %+v", all.Run)
	}
}

func TestParseProject_DefaultProjectName(t *testing.T) {
	cfg, err := ParseProject([]byte("tasks:\n  hello:\n    run:\n      container: box\n"), "/src/my-service/taskplane.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProjectName != "my-service" {
		t.Errorf("expected project name from directory, got %s", cfg.ProjectName)
	}
}

func TestParseProject_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "image and build directory",
			content: "containers:\n  app:\n    image: alpine\n    build_directory: .\n",
			want:    "container 'app' must have either an image or a build directory, but not both",
		},
		{
			name:    "no image source",
			content: "containers:\n  app:\n    command: true\n",
			want:    "container 'app' must have either an image or a build directory",
		},
		{
			name:    "bad volume",
			content: "containers:\n  app:\n    image: alpine\n    volumes: [\"/only-one-side\"]\n",
			want:    "invalid volume mount '/only-one-side'",
		},
		{
			name:    "relative scratch directory",
			content: "containers:\n  app:\n    image: alpine\n    scratch_directory: tmp\n",
			want:    "scratch directory 'tmp' must be an absolute path",
		},
		{
			name:    "task without container or prerequisites",
			content: "tasks:\n  empty:\n    description: nothing\n",
			want:    "task 'empty' must have a container to run or at least one prerequisite",
		},
		{
			name:    "unknown field",
			content: "containers:\n  app:\n    image: alpine\n    imagee: alpine\n",
			want:    "field imagee not found",
		},
		{
			name:    "unbalanced quote",
			content: "containers:\n  app:\n    image: alpine\n    command: echo 'hi\n",
			want:    "is not a valid command line",
		},
		{
			name:    "shell operator",
			content: "containers:\n  app:\n    image: alpine\n    command: make build && make test\n",
			want:    "contains a shell operator at position 11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProject([]byte(tt.content), "/p/taskplane.yml")
			if err == nil {
				t.Fatal("expected error")
			}

			var projectErr *ProjectError
			if !errors.As(err, &projectErr) {
				t.Fatalf("expected ProjectError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadProject_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskplane.yml")
	if err := os.WriteFile(path, []byte(shopProject), 0o600); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}

	cfg, err := LoadProject(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Containers["app"].Image.Build.Directory; got != filepath.Join(dir, "app") {
		t.Errorf("expected build directory under %s, got %s", dir, got)
	}

	if _, err := LoadProject(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("expected error for a missing project file")
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: "", want: nil},
		{line: "go test ./...", want: []string{"go", "test", "./..."}},
		{line: "  spaced   out  ", want: []string{"spaced", "out"}},
		{line: `sh -c "echo hello world"`, want: []string{"sh", "-c", "echo hello world"}},
		{line: `echo 'a "b" c'`, want: []string{"echo", `a "b" c`}},
		{line: `echo a\ b`, want: []string{"echo", "a b"}},
		{line: `echo ''`, want: []string{"echo", ""}},
		{line: `sh -c 'make build && make test'`, want: []string{"sh", "-c", "make build && make test"}},
		{line: `echo $HOME`, want: []string{"echo", "$HOME"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitCommand(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	for _, line := range []string{`echo \`, `echo "hi`, `cat a | wc -l`} {
		if _, err := SplitCommand(line); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

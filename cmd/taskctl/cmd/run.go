package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskplane/internal/config"
	"taskplane/internal/execution"
	"taskplane/internal/graph"
	"taskplane/internal/logger"
	"taskplane/internal/observability"
	"taskplane/internal/rules"
	"taskplane/internal/ui"
	"taskplane/internal/worker/runtime"
	"taskplane/pkg/api"
)

// daemonClient is the daemon connection a session needs.
type daemonClient interface {
	runtime.DaemonClient
	Close() error
}

// newDaemonClient connects to the daemon. Tests replace it.
var newDaemonClient = func(opts runtime.DockerOptions) (daemonClient, error) {
	return runtime.NewDockerClient(opts)
}

// newFilesystem creates the host filesystem for temporary files. Tests replace it.
var newFilesystem = func() runtime.Filesystem {
	return runtime.OSFilesystem{}
}

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run a task and its prerequisites",
	Long: `Run a task defined in the project file, after running its prerequisites in order.

The session stops at the first task that fails or exits with a non-zero code, and
taskctl exits with that task's code. A task that failed, or left resources behind,
exits with -1. Press Ctrl-C to interrupt: running containers are stopped and everything
created so far is removed.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		output, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		skip, _ := cmd.Flags().GetBool("skip-prerequisites")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runSession(ctx, cmd, cfg, sessionOptions{
			task:              args[0],
			skipPrerequisites: skip,
			output:            output,
			verbose:           verbose,
		})
	},
}

type sessionOptions struct {
	task              string
	skipPrerequisites bool
	output            string
	verbose           bool
}

// runSession bootstraps logging and telemetry, connects to the daemon, and runs the
// session for the requested task.
func runSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts sessionOptions) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})
	if err != nil {
		return err
	}

	fail := func(err error) error {
		if opts.output == "json" {
			writeJSON(stdout, api.ErrorResponse{Error: err.Error(), Code: errorCode(err)})
		}
		return err
	}

	project, err := config.LoadProject(cfg.ProjectFile)
	if err != nil {
		return fail(err)
	}

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingOptions{
		ServiceName: "taskctl",
		Endpoint:    cfg.OTELEndpoint,
		Project:     project.ProjectName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	metrics, shutdownMetrics, err := startMetrics(cfg.MetricsAddr, log)
	if err != nil {
		return err
	}
	defer shutdownMetrics()

	daemon, err := newDaemonClient(runtime.DockerOptions{
		Host:               cfg.DockerHost,
		HealthPollInterval: cfg.HealthPollInterval,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to connect to the container daemon: %w", err))
	}
	defer daemon.Close()

	// With JSON output the report owns stdout, so container output moves to stderr.
	containerOut := stdout
	if opts.output == "json" {
		containerOut = stderr
	}

	printer := ui.NewEventPrinter(stderr)
	printer.Verbose = opts.verbose

	runner := execution.NewTaskRunner(daemon, newFilesystem(), execution.TaskRunnerConfig{
		MaxParallelism:      cfg.MaxParallelism,
		NetworkDriver:       cfg.NetworkDriver,
		StopTimeout:         cfg.StopTimeout,
		CleanupAfterFailure: cfg.CleanupAfterFailure,
		CleanupAfterSuccess: cfg.CleanupAfterSuccess,
		OS:                  rules.OperatingSystem(goruntime.GOOS),
		Stdout:              containerOut,
		Stderr:              stderr,
		OnEvent:             printer.Observe,
		Metrics:             metrics,
	}, log)

	result, err := execution.NewSession(runner, log).Run(ctx, project, opts.task, opts.skipPrerequisites)
	if err != nil {
		return fail(err)
	}

	if opts.output == "json" {
		writeJSON(stdout, buildReport(project.ProjectName, opts.task, result))
	} else {
		report := ui.NewReport(stderr)
		for _, t := range result.Tasks {
			report.Task(t)
		}
		report.Session(result)
	}

	if code := result.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// startMetrics installs the metrics provider and, when addr is set, serves /metrics on it.
func startMetrics(addr string, log *slog.Logger) (*observability.StepMetrics, func(), error) {
	handler, shutdownProvider, err := observability.InitMetrics()
	if err != nil {
		return nil, nil, err
	}

	metrics, err := observability.NewStepMetrics(nil)
	if err != nil {
		return nil, nil, err
	}

	var server *http.Server
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("Metrics listening", "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if server != nil {
			_ = server.Shutdown(ctx)
		}
		if err := shutdownProvider(ctx); err != nil {
			log.Warn("Failed to shutdown metrics", "error", err)
		}
	}
	return metrics, shutdown, nil
}

func buildReport(project, task string, result execution.SessionResult) api.RunReport {
	report := api.RunReport{
		Project:  project,
		Task:     task,
		ExitCode: result.ExitCode(),
		Tasks:    make([]api.TaskSummary, 0, len(result.Tasks)),
	}

	for _, t := range result.Tasks {
		summary := api.TaskSummary{
			Name:           t.Task,
			RunID:          t.RunID,
			Skipped:        t.Skipped,
			ExitCode:       t.ExitCode,
			Code:           t.Code(),
			DurationMS:     t.Duration.Milliseconds(),
			Failed:         t.Failed,
			FailureMessage: t.FailureMessage,
			Interrupted:    t.Interrupted,
			CleanupFailed:  t.CleanupFailed,
		}
		for _, instruction := range t.ManualCleanup {
			summary.ManualCleanup = append(summary.ManualCleanup, instruction.Text)
		}
		report.Tasks = append(report.Tasks, summary)
	}
	return report
}

func errorCode(err error) string {
	var prereqErr *execution.PrerequisiteError
	var projectErr *config.ProjectError
	var depErr *graph.DependencyError
	var cycleErr *graph.CycleError
	switch {
	case errors.As(err, &prereqErr):
		return "INVALID_PREREQUISITES"
	case errors.As(err, &projectErr):
		return "INVALID_PROJECT"
	case errors.As(err, &depErr), errors.As(err, &cycleErr):
		return "INVALID_DEPENDENCIES"
	default:
		return "ERROR"
	}
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func init() {
	runCmd.Flags().Bool("skip-prerequisites", false, "run only the task itself")
	runCmd.Flags().Bool("no-cleanup-after-failure", false, "leave containers and networks in place if the task fails")
	runCmd.Flags().Bool("no-cleanup-after-success", false, "leave containers and networks in place if the task succeeds")
	runCmd.Flags().BoolP("verbose", "v", false, "also print creation and cleanup progress")
	rootCmd.AddCommand(runCmd)
}

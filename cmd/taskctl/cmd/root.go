package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskplane/internal/config"
)

var cfgFile string

// ExitError carries the exit status of a session that ran but did not succeed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var rootCmd = &cobra.Command{
	Use:   "taskctl",
	Short: "taskctl runs project tasks in isolated containers",
	Long: `taskctl runs the tasks defined in a project file inside containers.

For each task it builds or pulls the images it needs, creates a dedicated network,
starts dependency containers and waits for them to become healthy, runs the task's
main container with your terminal attached, and then removes everything it created.

Common workflows:

  List the tasks of the project:
    taskctl tasks

  Run a task and its prerequisites:
    taskctl run test

  Run only the task itself, keeping resources for inspection if it fails:
    taskctl run test --skip-prerequisites --no-cleanup-after-failure

Configuration:
  Settings come from flags, TASKPLANE_* environment variables or a settings file:
    TASKPLANE_PROJECT_FILE       project file (default: taskplane.yml)
    TASKPLANE_MAX_PARALLELISM    steps running at once (default: number of CPUs)
    TASKPLANE_LOG_LEVEL          debug, info, warn or error (default: info)
    TASKPLANE_OTEL_ENDPOINT      OTLP gRPC collector for traces (default: disabled)
    TASKPLANE_METRICS_ADDR       Prometheus listen address (default: disabled)`,
	SilenceErrors: true,
}

// Execute runs the root command. Errors other than a task's exit status are printed.
func Execute() error {
	err := rootCmd.Execute()
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

// persistentKeys maps persistent flags to the settings they override.
var persistentKeys = map[string]string{
	"file":            config.KeyProjectFile,
	"max-parallelism": config.KeyMaxParallelism,
	"log-level":       config.KeyLogLevel,
	"log-format":      config.KeyLogFormat,
}

// loadConfig binds the command's flags and reads the settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	for flagName, key := range persistentKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
		}
	}

	cfg, err := config.FromViper(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}

	if noCleanup, _ := cmd.Flags().GetBool("no-cleanup-after-failure"); noCleanup {
		cfg.CleanupAfterFailure = false
	}
	if noCleanup, _ := cmd.Flags().GetBool("no-cleanup-after-success"); noCleanup {
		cfg.CleanupAfterSuccess = false
	}
	return cfg, nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "text", "json":
		return output, nil
	default:
		return "", fmt.Errorf("invalid --output %q: must be text or json", output)
	}
}

// addSettingsFlags registers the flags loadConfig reads.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("file", "f", "taskplane.yml", "project file")
	cmd.PersistentFlags().Int("max-parallelism", runtime.NumCPU(), "maximum number of steps running at once")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	cmd.PersistentFlags().StringP("output", "o", "text", "output format: text or json")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (YAML, JSON or TOML)")
	addSettingsFlags(rootCmd)
}

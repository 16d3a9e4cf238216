package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskplane/internal/config"
	"taskplane/internal/model"
	"taskplane/pkg/api"
)

var tasksCmd = &cobra.Command{
	Use:          "tasks",
	Short:        "List the tasks defined in the project file",
	Args:         cobra.NoArgs,
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

		project, err := config.LoadProject(cfg.ProjectFile)
		if err != nil {
			return err
		}

		infos := taskInfos(project)
		if output == "json" {
			writeJSON(cmd.OutOrStdout(), infos)
			return nil
		}

		printTasks(cmd, project.ProjectName, infos)
		return nil
	},
}

func taskInfos(project model.Configuration) []api.TaskInfo {
	infos := make([]api.TaskInfo, 0, len(project.Tasks))
	for _, name := range project.Tasks.Names() {
		task := project.Tasks[name]
		infos = append(infos, api.TaskInfo{
			Name:          task.Name,
			Description:   task.Description,
			Container:     task.Run.Container,
			Dependencies:  task.DependsOn,
			Prerequisites: task.Prerequisites,
		})
	}
	return infos
}

func printTasks(cmd *cobra.Command, project string, infos []api.TaskInfo) {
	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintf(out, "Project %s has no tasks.\n", project)
		return
	}

	fmt.Fprintf(out, "Tasks of %s:\n", project)
	for _, info := range infos {
		line := "  " + info.Name
		if info.Description != "" {
			line += ": " + info.Description
		}
		fmt.Fprintln(out, line)

		if len(info.Prerequisites) > 0 {
			fmt.Fprintf(out, "      runs first: %s\n", strings.Join(info.Prerequisites, ", "))
		}
	}
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

// Package main is the entry point for taskctl.
// taskctl runs the tasks of a project file in containers on a Docker-compatible daemon.
package main

import (
	"errors"
	"os"

	"taskplane/cmd/taskctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// Package api contains the JSON shapes written by taskctl --output json.
// Consumers such as CI pipelines can depend on this package without the engine.
package api

// RunReport is the document written after a session finishes.
type RunReport struct {
	Project  string        `json:"project"`
	Task     string        `json:"task"`
	ExitCode int           `json:"exit_code"`
	Tasks    []TaskSummary `json:"tasks"`
}

// TaskSummary describes the outcome of one task of the session.
type TaskSummary struct {
	Name       string `json:"name"`
	RunID      string `json:"run_id,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	ExitCode   int64  `json:"exit_code"`
	Code       int    `json:"code"`
	DurationMS int64  `json:"duration_ms"`

	Failed         bool   `json:"failed"`
	FailureMessage string `json:"failure_message,omitempty"`
	Interrupted    bool   `json:"interrupted,omitempty"`
	CleanupFailed  bool   `json:"cleanup_failed,omitempty"`

	// ManualCleanup lists, in order, the commands that remove resources left behind.
	ManualCleanup []string `json:"manual_cleanup,omitempty"`
}

// TaskInfo describes a task defined in the project file.
type TaskInfo struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Container     string   `json:"container,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// ErrorResponse is written instead of a report when the session could not start.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

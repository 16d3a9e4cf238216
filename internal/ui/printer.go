package ui

import (
	"fmt"
	"io"
	"sync"

	"taskplane/internal/events"
)

// EventPrinter writes one progress line per notable task event. It is safe for concurrent
// use, since events arrive from step goroutines.
type EventPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme

	// Verbose also prints container creation and cleanup progress.
	Verbose bool
}

// NewEventPrinter creates a printer writing to out.
func NewEventPrinter(out io.Writer) *EventPrinter {
	return &EventPrinter{out: out, theme: NewTheme(out)}
}

// Observe prints e, posted while running task.
func (p *EventPrinter) Observe(task string, e events.TaskEvent) {
	line, ok := p.describe(e)
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", p.theme.Dim.Render("["+task+"]"), line)
}

func (p *EventPrinter) describe(e events.TaskEvent) (string, bool) {
	switch e := e.(type) {
	case events.UserInterruptedExecution:
		return p.theme.Warning.Render("Interrupt received, cleaning up..."), true
	case events.FailureEvent:
		return p.theme.Failed.Render("✗ " + e.Message()), true
	case events.ImageBuilt:
		return fmt.Sprintf("Built image for %s.", p.theme.Task.Render(e.Container)), true
	case events.ImagePulled:
		return fmt.Sprintf("Pulled %s.", e.Reference), true
	case events.ContainerStarted:
		return fmt.Sprintf("Started %s.", p.theme.Task.Render(e.Container)), true
	case events.ContainerBecameHealthy:
		return fmt.Sprintf("%s is ready.", p.theme.Task.Render(e.Container)), true
	case events.RunningContainerExited:
		style := p.theme.OK
		if e.ExitCode != 0 {
			style = p.theme.Failed
		}
		return style.Render(fmt.Sprintf("%s exited with code %d.", e.Container, e.ExitCode)), true
	}

	if !p.Verbose {
		return "", false
	}

	switch e := e.(type) {
	case events.NetworkCreated:
		return fmt.Sprintf("Created task network %s.", e.Network), true
	case events.ContainerCreated:
		return fmt.Sprintf("Created %s.", e.Container), true
	case events.ContainerStopped:
		return fmt.Sprintf("Stopped %s.", e.Container), true
	case events.ContainerRemoved:
		return fmt.Sprintf("Removed %s.", e.Container), true
	case events.NetworkDeleted:
		return fmt.Sprintf("Deleted task network %s.", e.Network), true
	case events.TemporaryFileCreated, events.TemporaryDirectoryCreated,
		events.TemporaryFileDeleted, events.TemporaryDirectoryDeleted:
		return p.theme.Dim.Render(fmt.Sprintf("%s %s", e.Kind(), e.Subject())), true
	}
	return "", false
}

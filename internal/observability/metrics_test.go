package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitMetrics(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	if handler == nil {
		t.Fatal("expected handler to be non-nil")
	}
	if shutdown == nil {
		t.Fatal("expected shutdown function to be non-nil")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("handler returned empty body")
	}
}

func TestStepMetrics_AppearInOutput(t *testing.T) {
	ctx := context.Background()

	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	metrics, err := NewStepMetrics(nil)
	if err != nil {
		t.Fatalf("NewStepMetrics failed: %v", err)
	}

	metrics.RecordStep(ctx, "CreateContainer", OutcomeSucceeded, 250*time.Millisecond)
	metrics.RecordStep(ctx, "BuildImage", OutcomeFailed, 2*time.Second)
	metrics.RecordTask(ctx, "test", OutcomeSucceeded)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	for _, want := range []string{
		"taskplane_steps_total",
		"taskplane_step_duration_seconds",
		"taskplane_tasks_total",
		`kind="CreateContainer"`,
		`outcome="failed"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output, got:\n%s", want, body)
		}
	}
}

func TestStepMetrics_NilIsNoop(t *testing.T) {
	var metrics *StepMetrics

	// Must not panic.
	metrics.RecordStep(context.Background(), "StopContainer", OutcomeSucceeded, time.Second)
	metrics.RecordTask(context.Background(), "test", OutcomeFailed)
}

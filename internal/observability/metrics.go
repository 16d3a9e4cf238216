// Package observability provides OpenTelemetry tracing and metrics for task executions.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// Step outcomes recorded by StepMetrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// StepMetrics records executed steps and finished tasks. A nil *StepMetrics records nothing.
type StepMetrics struct {
	steps    otelmetric.Int64Counter
	duration otelmetric.Float64Histogram
	tasks    otelmetric.Int64Counter
}

// NewStepMetrics creates the instruments on meter. A nil meter uses the global provider.
func NewStepMetrics(meter otelmetric.Meter) (*StepMetrics, error) {
	if meter == nil {
		meter = otel.Meter(TracerName)
	}

	steps, err := meter.Int64Counter("taskplane_steps_total",
		otelmetric.WithDescription("Number of executed steps by kind and outcome."))
	if err != nil {
		return nil, fmt.Errorf("failed to create steps counter: %w", err)
	}

	duration, err := meter.Float64Histogram("taskplane_step_duration_seconds",
		otelmetric.WithDescription("Time spent executing a step."),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create step duration histogram: %w", err)
	}

	tasks, err := meter.Int64Counter("taskplane_tasks_total",
		otelmetric.WithDescription("Number of finished tasks by outcome."))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks counter: %w", err)
	}

	return &StepMetrics{steps: steps, duration: duration, tasks: tasks}, nil
}

// RecordStep records one executed step.
func (m *StepMetrics) RecordStep(ctx context.Context, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	)
	m.steps.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordTask records one finished task.
func (m *StepMetrics) RecordTask(ctx context.Context, task, outcome string) {
	if m == nil {
		return
	}
	m.tasks.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task", task),
		attribute.String("outcome", outcome),
	))
}

// Package metrics exposes fire-and-forget OpenTelemetry counters for the
// pipeline's collaborators. Recording never blocks and never fails the
// caller; before Init the recorders are silent no-ops.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
)

// Config configures the OTLP metric exporter.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	Endpoint string
	Insecure bool
	Interval time.Duration
}

var (
	mu          sync.Mutex
	instruments *instrumentSet
)

type instrumentSet struct {
	llmRequests    metric.Int64Counter
	llmTokens      metric.Int64Counter
	llmErrors      metric.Int64Counter
	webhookTotal   metric.Int64Counter
	webhookErrors  metric.Int64Counter
	searchTotal    metric.Int64Counter
	searchErrors   metric.Int64Counter
	stagesDuration metric.Float64Histogram
}

// Init sets up the meter provider and instruments. Returns the provider so
// the caller can shut it down on exit.
func Init(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := initInstruments(mp.Meter("research-orchestrator")); err != nil {
		return nil, err
	}

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
	))
	return mp, nil
}

func initInstruments(meter metric.Meter) error {
	set := &instrumentSet{}
	var err error

	if set.llmRequests, err = meter.Int64Counter("llm.requests.total",
		metric.WithDescription("Total LLM completion requests")); err != nil {
		return fmt.Errorf("creating llm.requests.total: %w", err)
	}
	if set.llmTokens, err = meter.Int64Counter("llm.tokens.total",
		metric.WithDescription("LLM tokens consumed")); err != nil {
		return fmt.Errorf("creating llm.tokens.total: %w", err)
	}
	if set.llmErrors, err = meter.Int64Counter("llm.errors.total",
		metric.WithDescription("LLM request errors")); err != nil {
		return fmt.Errorf("creating llm.errors.total: %w", err)
	}
	if set.webhookTotal, err = meter.Int64Counter("webhook.requests.total",
		metric.WithDescription("Outbound webhook requests")); err != nil {
		return fmt.Errorf("creating webhook.requests.total: %w", err)
	}
	if set.webhookErrors, err = meter.Int64Counter("webhook.errors.total",
		metric.WithDescription("Outbound webhook errors")); err != nil {
		return fmt.Errorf("creating webhook.errors.total: %w", err)
	}
	if set.searchTotal, err = meter.Int64Counter("search.requests.total",
		metric.WithDescription("Search provider calls")); err != nil {
		return fmt.Errorf("creating search.requests.total: %w", err)
	}
	if set.searchErrors, err = meter.Int64Counter("search.errors.total",
		metric.WithDescription("Search provider errors")); err != nil {
		return fmt.Errorf("creating search.errors.total: %w", err)
	}
	if set.stagesDuration, err = meter.Float64Histogram("stage.duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("creating stage.duration: %w", err)
	}

	mu.Lock()
	instruments = set
	mu.Unlock()
	return nil
}

func current() *instrumentSet {
	mu.Lock()
	defer mu.Unlock()
	return instruments
}

// RecordLLMUsage counts a successful completion and its token usage.
func RecordLLMUsage(model, stage string, promptTokens, completionTokens int) {
	set := current()
	if set == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("stage", stage),
	)
	set.llmRequests.Add(ctx, 1, attrs)
	if promptTokens > 0 {
		set.llmTokens.Add(ctx, int64(promptTokens), metric.WithAttributes(
			attribute.String("type", "prompt"),
			attribute.String("model", model),
			attribute.String("stage", stage),
		))
	}
	if completionTokens > 0 {
		set.llmTokens.Add(ctx, int64(completionTokens), metric.WithAttributes(
			attribute.String("type", "completion"),
			attribute.String("model", model),
			attribute.String("stage", stage),
		))
	}
}

// RecordLLMError counts a failed completion.
func RecordLLMError(model, stage string) {
	set := current()
	if set == nil {
		return
	}
	set.llmErrors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("stage", stage),
	))
}

// RecordWebhook counts an outbound webhook attempt.
func RecordWebhook(service string, ok bool) {
	set := current()
	if set == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("service", service))
	set.webhookTotal.Add(ctx, 1, attrs)
	if !ok {
		set.webhookErrors.Add(ctx, 1, attrs)
	}
}

// RecordSearch counts a search provider call.
func RecordSearch(provider string, ok bool) {
	set := current()
	if set == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	set.searchTotal.Add(ctx, 1, attrs)
	if !ok {
		set.searchErrors.Add(ctx, 1, attrs)
	}
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, d time.Duration) {
	set := current()
	if set == nil {
		return
	}
	set.stagesDuration.Record(context.Background(), d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

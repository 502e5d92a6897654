package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

const (
	serviceName    = "growthops"
	serviceVersion = "1.0.0"
)

// Exporter exports workspace metrics to an OTEL Collector.
type Exporter struct {
	provider     *sdkmetric.MeterProvider
	created      metric.Int64Counter
	transitions  metric.Int64Counter
	completed    metric.Int64Counter
	scoreHist    metric.Float64Histogram
	syncFailures metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter pushing over OTLP/gRPC.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Active() {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return NewExporterWithProvider(provider)
}

// NewExporterWithProvider registers the growthops instruments on an existing provider.
func NewExporterWithProvider(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	created, err := meter.Int64Counter(
		"growthops_experiments_created_total",
		metric.WithDescription("Total experiments created"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating experiments counter: %w", err)
	}

	transitions, err := meter.Int64Counter(
		"growthops_status_transitions_total",
		metric.WithDescription("Status changes between kanban columns"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	completed, err := meter.Int64Counter(
		"growthops_experiments_completed_total",
		metric.WithDescription("Experiments completed and locked"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}

	scoreHist, err := meter.Float64Histogram(
		"growthops_composite_score",
		metric.WithDescription("Composite priority score at completion"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating score histogram: %w", err)
	}

	syncFailures, err := meter.Int64Counter(
		"growthops_sync_failures_total",
		metric.WithDescription("Writes that failed to reach the store"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync failures counter: %w", err)
	}

	return &Exporter{
		provider:     provider,
		created:      created,
		transitions:  transitions,
		completed:    completed,
		scoreHist:    scoreHist,
		syncFailures: syncFailures,
	}, nil
}

func (e *Exporter) RecordExperimentCreated(ctx context.Context, exp *domain.Experiment) {
	e.created.Add(ctx, 1, metric.WithAttributes(
		attribute.String("board_id", exp.BoardID),
		attribute.String("type", exp.Type),
		attribute.String("market", exp.Market),
	))
}

func (e *Exporter) RecordStatusChange(ctx context.Context, from, to domain.Status) {
	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
}

func (e *Exporter) RecordCompleted(ctx context.Context, exp *domain.Experiment, score float64) {
	result := string(exp.Result)
	if result == "" {
		result = "none"
	}
	opt := metric.WithAttributes(
		attribute.String("board_id", exp.BoardID),
		attribute.String("result", result),
	)
	e.completed.Add(ctx, 1, opt)
	e.scoreHist.Record(ctx, score, opt)
}

func (e *Exporter) RecordSyncFailure(ctx context.Context, op string) {
	e.syncFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

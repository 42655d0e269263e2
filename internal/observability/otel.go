// Package observability wires OpenTelemetry tracing and metrics for the
// interview service, with console, OTLP, and Prometheus exporters chosen
// by configuration.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mockmate/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the custom instruments for the interview service
type Metrics struct {
	// Generation gateway metrics
	GenerationDuration metric.Float64Histogram
	GenerationCount    metric.Int64Counter
	GenerationErrors   metric.Int64Counter
	TokenUsage         metric.Int64Histogram

	// Interview lifecycle metrics
	SessionsStarted     metric.Int64Counter
	AnswersSubmitted    metric.Int64Counter
	InterviewsCompleted metric.Int64Counter
	FeedbackFallbacks   metric.Int64Counter
	TranscriptLength    metric.Int64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// Manager owns the tracer and meter providers plus the custom metrics
type Manager struct {
	cfg              config.ObservabilityConfig
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.ServeMux
}

// NewManager sets up tracing and metrics per the configuration. A disabled
// config yields a manager whose middleware and metrics are no-ops.
func NewManager(cfg config.ObservabilityConfig) (*Manager, error) {
	if !cfg.Enabled {
		return &Manager{cfg: cfg}, nil
	}

	m := &Manager{
		cfg:           cfg,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := m.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

func (m *Manager) newResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(m.cfg.ServiceName),
			semconv.ServiceVersion(m.cfg.ServiceVersion),
			attribute.String("service.instance.id", m.cfg.ServiceInstance),
		),
	)
}

// initTracing sets up the tracer provider and exporter
func (m *Manager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case m.cfg.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if m.cfg.Console.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case m.cfg.OTLP.Enabled:
		exporter, err = m.createOTLPTraceExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := m.newResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(m.cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)
	return nil
}

// initMetrics sets up the meter provider with all configured readers
func (m *Manager) initMetrics() error {
	var readers []sdkmetric.Reader

	if m.cfg.ConsoleOutput || m.cfg.Console.Enabled {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers,
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())))
	}

	if m.cfg.OTLP.Enabled {
		otlpReader, err := m.createOTLPMetricsReader()
		if err != nil {
			return fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, otlpReader)
	}

	if m.cfg.Prometheus.Enabled {
		promReader, promMux, err := SetupPrometheusExporter(m.cfg.Prometheus)
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if promReader != nil {
			readers = append(readers, promReader)
			m.prometheusServer = promMux
			if err := StartPrometheusServer(promMux, m.cfg.Prometheus.Port); err != nil {
				return fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	res, err := m.newResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	return m.initCustomMetrics()
}

// initCustomMetrics creates the service's custom instruments
func (m *Manager) initCustomMetrics() error {
	meter := m.meterProvider.Meter(m.cfg.ServiceName)
	m.metrics = &Metrics{}
	var err error

	if m.metrics.GenerationDuration, err = meter.Float64Histogram(
		"mockmate_generation_duration_seconds",
		metric.WithDescription("Time spent on generation requests"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create generation duration metric: %w", err)
	}

	if m.metrics.GenerationCount, err = meter.Int64Counter(
		"mockmate_generation_requests_total",
		metric.WithDescription("Total number of generation requests"),
	); err != nil {
		return fmt.Errorf("failed to create generation count metric: %w", err)
	}

	if m.metrics.GenerationErrors, err = meter.Int64Counter(
		"mockmate_generation_errors_total",
		metric.WithDescription("Total number of failed generation requests"),
	); err != nil {
		return fmt.Errorf("failed to create generation error metric: %w", err)
	}

	if m.metrics.TokenUsage, err = meter.Int64Histogram(
		"mockmate_generation_token_usage",
		metric.WithDescription("Token usage for generation requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return fmt.Errorf("failed to create token usage metric: %w", err)
	}

	if m.metrics.SessionsStarted, err = meter.Int64Counter(
		"mockmate_sessions_started_total",
		metric.WithDescription("Total number of interview sessions started"),
	); err != nil {
		return fmt.Errorf("failed to create sessions started metric: %w", err)
	}

	if m.metrics.AnswersSubmitted, err = meter.Int64Counter(
		"mockmate_answers_submitted_total",
		metric.WithDescription("Total number of answers submitted"),
	); err != nil {
		return fmt.Errorf("failed to create answers submitted metric: %w", err)
	}

	if m.metrics.InterviewsCompleted, err = meter.Int64Counter(
		"mockmate_interviews_completed_total",
		metric.WithDescription("Total number of interviews completed"),
	); err != nil {
		return fmt.Errorf("failed to create interviews completed metric: %w", err)
	}

	if m.metrics.FeedbackFallbacks, err = meter.Int64Counter(
		"mockmate_feedback_fallbacks_total",
		metric.WithDescription("Total number of interviews that received fallback feedback"),
	); err != nil {
		return fmt.Errorf("failed to create feedback fallback metric: %w", err)
	}

	if m.metrics.TranscriptLength, err = meter.Int64Histogram(
		"mockmate_transcript_turns",
		metric.WithDescription("Number of turns per completed interview"),
		metric.WithUnit("{turn}"),
	); err != nil {
		return fmt.Errorf("failed to create transcript length metric: %w", err)
	}

	if m.metrics.RateLimitHits, err = meter.Int64Counter(
		"mockmate_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance
func (m *Manager) GetMetrics() *Metrics {
	if m.metrics == nil {
		return &Metrics{}
	}
	return m.metrics
}

// SessionStarted implements interview.Metrics
func (m *Manager) SessionStarted(ctx context.Context, role string) {
	mm := m.GetMetrics()
	if mm.SessionsStarted != nil {
		mm.SessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
	}
}

// AnswerSubmitted implements interview.Metrics
func (m *Manager) AnswerSubmitted(ctx context.Context, role string) {
	mm := m.GetMetrics()
	if mm.AnswersSubmitted != nil {
		mm.AnswersSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
	}
}

// InterviewCompleted implements interview.Metrics
func (m *Manager) InterviewCompleted(ctx context.Context, role string, turns int) {
	mm := m.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("role", role))
	if mm.InterviewsCompleted != nil {
		mm.InterviewsCompleted.Add(ctx, 1, attrs)
	}
	if mm.TranscriptLength != nil {
		mm.TranscriptLength.Record(ctx, int64(turns), attrs)
	}
}

// FeedbackFallback implements interview.Metrics
func (m *Manager) FeedbackFallback(ctx context.Context, role string) {
	mm := m.GetMetrics()
	if mm.FeedbackFallbacks != nil {
		mm.FeedbackFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
	}
}

// RecordRateLimitHit counts a rejected request
func (m *Manager) RecordRateLimitHit(ctx context.Context, key string) {
	mm := m.GetMetrics()
	if mm.RateLimitHits != nil {
		mm.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_key", key)))
	}
}

// GenerationResult carries the outcome of a tracked generation call
type GenerationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage mirrors the gateway's token accounting for metric recording
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackGeneration instruments a generation call with tracing, duration,
// and token metrics.
func (m *Manager) TrackGeneration(ctx context.Context, operation string, fn func(context.Context) *GenerationResult) error {
	mm := m.GetMetrics()
	if mm.GenerationDuration == nil {
		result := fn(ctx)
		if result != nil {
			return result.Error
		}
		return nil
	}

	tracer := otel.Tracer("mockmate.generation")
	ctx, span := tracer.Start(ctx, "generation."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	mm.GenerationDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	mm.GenerationCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		mm.GenerationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	if result != nil && result.TokenUsage != nil && mm.TokenUsage != nil {
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", result.TokenUsage.InputTokens},
			{"output", result.TokenUsage.OutputTokens},
			{"total", result.TokenUsage.TotalTokens},
		} {
			mm.TokenUsage.Record(ctx, tt.value, metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("token_type", tt.tokenType),
			))
		}
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attrs...)
	return err
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !m.cfg.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		m.cfg.ServiceName,
		otelhttp.WithTracerProvider(m.tracerProvider),
		otelhttp.WithMeterProvider(m.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if !m.cfg.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) collectionInterval() time.Duration {
	if m.cfg.Metrics.CollectionInterval > 0 {
		return m.cfg.Metrics.CollectionInterval
	}
	return 15 * time.Second
}

type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (n *noOpSpanExporter) Shutdown(context.Context) error                          { return nil }

// createOTLPTraceExporter creates an OTLP HTTP trace exporter
func (m *Manager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(m.cfg.OTLP.Endpoint),
	}
	if m.cfg.OTLP.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(m.cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(m.cfg.OTLP.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (m *Manager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(m.cfg.OTLP.Endpoint),
	}
	if m.cfg.OTLP.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(m.cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(m.cfg.OTLP.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())), nil
}

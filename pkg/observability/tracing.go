// Package observability provides OpenTelemetry tracing and Prometheus
// metrics for device pipeline operations.
package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures OpenTelemetry tracing
type TracingConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter configuration
	ExporterType ExporterType
	Endpoint     string // OTLP endpoint
	Headers      map[string]string
	Insecure     bool // Use insecure connection (for development)

	// Sampling configuration
	SampleRate   float64  // 0.0 to 1.0
	AlwaysSample []string // Operation names to always sample
	NeverSample  []string // Operation names to never sample

	// Additional attributes
	ResourceAttributes map[string]string
}

// ExporterType defines the type of trace exporter
type ExporterType string

const (
	// ExporterTypeOTLPGRPC exports traces via OTLP over gRPC
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"

	// ExporterTypeOTLPHTTP exports traces via OTLP over HTTP
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"

	// ExporterTypeNoop disables trace export (for testing)
	ExporterTypeNoop ExporterType = "noop"
)

// TracingProvider manages OpenTelemetry tracing
type TracingProvider struct {
	config         TracingConfig
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
	mu             sync.RWMutex
	shutdown       func(context.Context) error
}

// NewTracingProvider creates a new tracing provider
func NewTracingProvider(config TracingConfig) (*TracingProvider, error) {
	// Set defaults
	if config.ServiceName == "" {
		config.ServiceName = "device-sdk"
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = "unknown"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 1.0
	}

	res, err := createResource(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := createExporter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	sampler := createSampler(config)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)

	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		propagator = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
		otel.SetTextMapPropagator(propagator)
	}

	return &TracingProvider{
		config:         config,
		tracerProvider: tp,
		tracer:         tp.Tracer("device-sdk"),
		propagator:     propagator,
		shutdown:       tp.Shutdown,
	}, nil
}

// createResource creates the OpenTelemetry resource
func createResource(config TracingConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(config.Environment),
	}

	for k, v := range config.ResourceAttributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		attrs...,
	), nil
}

// createExporter creates the configured trace exporter
func createExporter(config TracingConfig) (sdktrace.SpanExporter, error) {
	switch config.ExporterType {
	case ExporterTypeOTLPGRPC:
		return createOTLPGRPCExporter(config)
	case ExporterTypeOTLPHTTP:
		return createOTLPHTTPExporter(config)
	case ExporterTypeNoop:
		return &noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", config.ExporterType)
	}
}

// createOTLPGRPCExporter creates an OTLP gRPC exporter
func createOTLPGRPCExporter(config TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(config.Endpoint),
		otlptracegrpc.WithHeaders(config.Headers),
	}

	if config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	client := otlptracegrpc.NewClient(opts...)
	return otlptrace.New(context.Background(), client)
}

// createOTLPHTTPExporter creates an OTLP HTTP exporter
func createOTLPHTTPExporter(config TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Endpoint),
		otlptracehttp.WithHeaders(config.Headers),
	}

	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	client := otlptracehttp.NewClient(opts...)
	return otlptrace.New(context.Background(), client)
}

// createSampler creates a sampler based on configuration
func createSampler(config TracingConfig) sdktrace.Sampler {
	if len(config.AlwaysSample) > 0 || len(config.NeverSample) > 0 {
		return &operationSampler{
			defaultRate:  config.SampleRate,
			alwaysSample: makeStringSet(config.AlwaysSample),
			neverSample:  makeStringSet(config.NeverSample),
		}
	}

	if config.SampleRate >= 1.0 {
		return sdktrace.AlwaysSample()
	} else if config.SampleRate <= 0.0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(config.SampleRate)
}

// StartSpan starts a new span with the given name and options
func (tp *TracingProvider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, name, opts...)
}

// StartOperationSpan starts a span for a pipeline operation
func (tp *TracingProvider) StartOperationSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("device.operation", operation),
			attribute.String("device.service", tp.config.ServiceName),
		),
	}

	return tp.tracer.Start(ctx, fmt.Sprintf("device.%s", operation), opts...)
}

// RecordError records an error on the current span
func (tp *TracingProvider) RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.RecordError(err, opts...)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds an event to the current span
func (tp *TracingProvider) AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// SetAttributes sets attributes on the current span
func (tp *TracingProvider) SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// Shutdown gracefully shuts down the tracing provider
func (tp *TracingProvider) Shutdown(ctx context.Context) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.shutdown != nil {
		return tp.shutdown(ctx)
	}
	return nil
}

// operationSampler samples based on pipeline operation name
type operationSampler struct {
	defaultRate  float64
	alwaysSample map[string]struct{}
	neverSample  map[string]struct{}
}

func (os *operationSampler) ShouldSample(params sdktrace.SamplingParameters) sdktrace.SamplingResult {
	operation := params.Name
	for _, attr := range params.Attributes {
		if attr.Key == "device.operation" {
			operation = attr.Value.AsString()
			break
		}
	}

	if _, ok := os.alwaysSample[operation]; ok {
		return sdktrace.SamplingResult{Decision: sdktrace.RecordAndSample}
	}
	if _, ok := os.neverSample[operation]; ok {
		return sdktrace.SamplingResult{Decision: sdktrace.Drop}
	}

	if os.defaultRate >= 1.0 {
		return sdktrace.SamplingResult{Decision: sdktrace.RecordAndSample}
	} else if os.defaultRate <= 0.0 {
		return sdktrace.SamplingResult{Decision: sdktrace.Drop}
	}

	return sdktrace.TraceIDRatioBased(os.defaultRate).ShouldSample(params)
}

func (os *operationSampler) Description() string {
	return fmt.Sprintf("OperationSampler{defaultRate=%.2f}", os.defaultRate)
}

// noopExporter is a no-op span exporter for testing
type noopExporter struct{}

func (n *noopExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (n *noopExporter) Shutdown(ctx context.Context) error {
	return nil
}

func makeStringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

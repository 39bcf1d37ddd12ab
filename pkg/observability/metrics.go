package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures Prometheus metrics collection
type MetricsConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Prometheus configuration
	Namespace   string
	Subsystem   string
	MetricsPath string
	MetricsPort int

	// Histogram buckets for durations (milliseconds)
	HistogramBuckets []float64

	// Labels applied to all metrics
	ConstLabels prometheus.Labels
}

// MetricsProvider collects metrics for device pipeline operations
type MetricsProvider interface {
	// Operation metrics
	RecordOperation(ctx context.Context, operation, status string, duration time.Duration)
	RecordMessageSent(ctx context.Context, count int, status string, duration time.Duration)
	RecordMessageReceived(ctx context.Context, status string)

	// Connection lifecycle metrics
	RecordOpenAttempt(ctx context.Context, status string, duration time.Duration)
	RecordReset(ctx context.Context, reason string)
	RecordConnectionState(ctx context.Context, state string)

	// Error metrics
	RecordError(ctx context.Context, category, operation string)

	// Custom metrics
	RecordGauge(name string, value float64, labels prometheus.Labels)
	RecordCounter(name string, labels prometheus.Labels)
	RecordHistogram(name string, value float64, labels prometheus.Labels)

	// Management
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// PrometheusMetricsProvider implements MetricsProvider using Prometheus
type PrometheusMetricsProvider struct {
	config MetricsConfig
	server *http.Server

	// Operation metrics
	operationDuration *prometheus.HistogramVec
	operationTotal    *prometheus.CounterVec

	// Messaging metrics
	messagesSentTotal     *prometheus.CounterVec
	sendBatchSize         *prometheus.HistogramVec
	sendDuration          *prometheus.HistogramVec
	messagesReceivedTotal *prometheus.CounterVec

	// Connection lifecycle metrics
	openAttemptDuration *prometheus.HistogramVec
	openAttemptTotal    *prometheus.CounterVec
	resetTotal          *prometheus.CounterVec
	connectionState     *prometheus.GaugeVec

	// Error metrics
	errorTotal *prometheus.CounterVec

	// Custom metrics registry
	customMetrics map[string]prometheus.Collector
	mu            sync.RWMutex
}

// NewMetricsProvider creates a new Prometheus metrics provider
func NewMetricsProvider(config MetricsConfig) (MetricsProvider, error) {
	// Set defaults
	if config.Namespace == "" {
		config.Namespace = "device"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.MetricsPort == 0 {
		config.MetricsPort = 9090
	}
	if config.HistogramBuckets == nil {
		// Default buckets for milliseconds
		config.HistogramBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
	}

	if config.ConstLabels == nil {
		config.ConstLabels = prometheus.Labels{}
	}
	config.ConstLabels["service"] = config.ServiceName
	config.ConstLabels["version"] = config.ServiceVersion
	config.ConstLabels["environment"] = config.Environment

	provider := &PrometheusMetricsProvider{
		config:        config,
		customMetrics: make(map[string]prometheus.Collector),
	}

	provider.initializeMetrics()

	if err := provider.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return provider, nil
}

// initializeMetrics creates all metric collectors
func (p *PrometheusMetricsProvider) initializeMetrics() {
	p.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "operation_duration_milliseconds",
			Help:        "Duration of device pipeline operations in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"operation", "status"},
	)

	p.operationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "operation_total",
			Help:        "Total number of device pipeline operations",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"operation", "status"},
	)

	p.messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "messages_sent_total",
			Help:        "Total number of messages sent to the hub",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.sendBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "send_batch_size",
			Help:        "Number of messages per send call",
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "send_duration_milliseconds",
			Help:        "Duration of message send calls in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.messagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "messages_received_total",
			Help:        "Total number of messages received from the hub",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.openAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "open_attempt_duration_milliseconds",
			Help:        "Duration of connection open attempts in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.openAttemptTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "open_attempt_total",
			Help:        "Total number of connection open attempts",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"status"},
	)

	p.resetTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "reset_total",
			Help:        "Total number of connection resets",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"reason"},
	)

	p.connectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "connection_state",
			Help:        "Current connection state (1=current, 0=not current)",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"state"},
	)

	p.errorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "error_total",
			Help:        "Total number of errors by category",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"category", "operation"},
	)
}

// registerMetrics registers all metrics with Prometheus
func (p *PrometheusMetricsProvider) registerMetrics() error {
	collectors := []prometheus.Collector{
		p.operationDuration,
		p.operationTotal,
		p.messagesSentTotal,
		p.sendBatchSize,
		p.sendDuration,
		p.messagesReceivedTotal,
		p.openAttemptDuration,
		p.openAttemptTotal,
		p.resetTotal,
		p.connectionState,
		p.errorTotal,
	}

	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			// Check if already registered
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	return nil
}

// RecordOperation records a pipeline operation
func (p *PrometheusMetricsProvider) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	ms := float64(duration.Milliseconds())
	p.operationDuration.WithLabelValues(operation, status).Observe(ms)
	p.operationTotal.WithLabelValues(operation, status).Inc()
}

// RecordMessageSent records a send of one or more messages
func (p *PrometheusMetricsProvider) RecordMessageSent(ctx context.Context, count int, status string, duration time.Duration) {
	ms := float64(duration.Milliseconds())
	p.messagesSentTotal.WithLabelValues(status).Add(float64(count))
	p.sendBatchSize.WithLabelValues(status).Observe(float64(count))
	p.sendDuration.WithLabelValues(status).Observe(ms)
}

// RecordMessageReceived records a received message
func (p *PrometheusMetricsProvider) RecordMessageReceived(ctx context.Context, status string) {
	p.messagesReceivedTotal.WithLabelValues(status).Inc()
}

// RecordOpenAttempt records a connection open attempt
func (p *PrometheusMetricsProvider) RecordOpenAttempt(ctx context.Context, status string, duration time.Duration) {
	ms := float64(duration.Milliseconds())
	p.openAttemptDuration.WithLabelValues(status).Observe(ms)
	p.openAttemptTotal.WithLabelValues(status).Inc()
}

// RecordReset records a connection reset
func (p *PrometheusMetricsProvider) RecordReset(ctx context.Context, reason string) {
	p.resetTotal.WithLabelValues(reason).Inc()
}

// RecordConnectionState records the current connection state
func (p *PrometheusMetricsProvider) RecordConnectionState(ctx context.Context, state string) {
	// Reset all states to 0
	p.connectionState.WithLabelValues("open").Set(0)
	p.connectionState.WithLabelValues("opening").Set(0)
	p.connectionState.WithLabelValues("closed").Set(0)

	// Set current state to 1
	p.connectionState.WithLabelValues(state).Set(1)
}

// RecordError records an error by fault category
func (p *PrometheusMetricsProvider) RecordError(ctx context.Context, category, operation string) {
	p.errorTotal.WithLabelValues(category, operation).Inc()
}

// RecordGauge records a custom gauge metric
func (p *PrometheusMetricsProvider) RecordGauge(name string, value float64, labels prometheus.Labels) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := name + fmt.Sprint(labels)
	if gauge, exists := p.customMetrics[key]; exists {
		if g, ok := gauge.(*prometheus.GaugeVec); ok {
			g.With(labels).Set(value)
			return
		}
	}

	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   "custom",
			Name:        name,
			Help:        fmt.Sprintf("Custom gauge metric: %s", name),
			ConstLabels: p.config.ConstLabels,
		},
		getLabelsKeys(labels),
	)

	prometheus.MustRegister(gauge)
	p.customMetrics[key] = gauge
	gauge.With(labels).Set(value)
}

// RecordCounter records a custom counter metric
func (p *PrometheusMetricsProvider) RecordCounter(name string, labels prometheus.Labels) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := name + fmt.Sprint(labels)
	if counter, exists := p.customMetrics[key]; exists {
		if c, ok := counter.(*prometheus.CounterVec); ok {
			c.With(labels).Inc()
			return
		}
	}

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   "custom",
			Name:        name,
			Help:        fmt.Sprintf("Custom counter metric: %s", name),
			ConstLabels: p.config.ConstLabels,
		},
		getLabelsKeys(labels),
	)

	prometheus.MustRegister(counter)
	p.customMetrics[key] = counter
	counter.With(labels).Inc()
}

// RecordHistogram records a custom histogram metric
func (p *PrometheusMetricsProvider) RecordHistogram(name string, value float64, labels prometheus.Labels) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := name + fmt.Sprint(labels)
	if histogram, exists := p.customMetrics[key]; exists {
		if h, ok := histogram.(*prometheus.HistogramVec); ok {
			h.With(labels).Observe(value)
			return
		}
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   "custom",
			Name:        name,
			Help:        fmt.Sprintf("Custom histogram metric: %s", name),
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		getLabelsKeys(labels),
	)

	prometheus.MustRegister(histogram)
	p.customMetrics[key] = histogram
	histogram.With(labels).Observe(value)
}

// Start starts the metrics HTTP server
func (p *PrometheusMetricsProvider) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(p.config.MetricsPath, promhttp.Handler())

	p.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", p.config.MetricsPort),
		Handler: mux,
	}

	go func() {
		_ = p.server.ListenAndServe()
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics server
func (p *PrometheusMetricsProvider) Shutdown(ctx context.Context) error {
	if p.server != nil {
		return p.server.Shutdown(ctx)
	}
	return nil
}

// Helper function to extract label keys from a map
func getLabelsKeys(labels prometheus.Labels) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	return keys
}

// Package telemetry provides a standardized, one-stop-shop for setting up
// OpenTelemetry for sebtree, including metrics and tracing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/arvindsridhar/sebtree/internal/pagecache"
)

// Config holds all the configuration for the telemetry system.
type Config struct {
	// Enabled toggles the entire telemetry system on or off.
	Enabled bool `yaml:"enabled"`
	// ServiceName is the name of the service that will appear in traces and metrics.
	ServiceName string `yaml:"service_name"`
	// PrometheusPort is the port on which to expose the /metrics endpoint.
	PrometheusPort int `yaml:"prometheus_port"`
	// TraceSampleRatio is the fraction of traces to sample (e.g., 0.01 for 1%).
	// Defaults to 1.0 (always sample) if not set or invalid.
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
}

// Telemetry represents the active telemetry components.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// InstanceID distinguishes this process's series from another sebtree
	// process reporting under the same ServiceName, e.g. two
	// sebtree-inspect runs against different page files on one host.
	InstanceID string
}

// ShutdownFunc is a function that gracefully shuts down the telemetry providers.
type ShutdownFunc func(ctx context.Context) error

// New initializes the OpenTelemetry SDK for metrics and tracing.
// It sets up a Prometheus exporter for metrics. It returns a Telemetry struct
// containing the active components and a shutdown function.
func New(config Config) (*Telemetry, ShutdownFunc, error) {
	if !config.Enabled {
		// If telemetry is disabled, return no-op providers.
		return &Telemetry{
			TracerProvider: nil,
			MeterProvider:  nil,
			Tracer:         nooptrace.NewTracerProvider().Tracer(""),
			Meter:          noop.NewMeterProvider().Meter(""),
		}, func(ctx context.Context) error { return nil }, nil
	}

	// --- General OpenTelemetry Setup ---
	// instanceID tags every series from this process, so two sebtree-inspect
	// runs sharing a ServiceName (e.g. against different page files) don't
	// collide in Prometheus once scraped.
	instanceID := uuid.NewString()
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			attribute.String("sebtree.instance_id", instanceID),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// --- Metrics Setup (Prometheus) ---
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	// Expose the Prometheus metrics endpoint.
	go func() {
		addr := fmt.Sprintf(":%d", config.PrometheusPort)
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, nil); err != nil {
			otel.Handle(fmt.Errorf("prometheus http server failed: %w", err))
		}
	}()

	// --- Tracing Setup ---
	// Set a default sampling ratio if not provided or invalid.
	sampleRatio := config.TraceSampleRatio
	if sampleRatio <= 0 || sampleRatio > 1 {
		sampleRatio = 1.0 // Default to always sampling
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		// Use the ratio-based sampler for production use.
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRatio)),
	)

	// Set the global providers.
	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// Create the main tracer and meter for the application.
	tracer := tracerProvider.Tracer(config.ServiceName)
	meter := meterProvider.Meter(config.ServiceName)

	tel := &Telemetry{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracer,
		Meter:          meter,
		InstanceID:     instanceID,
	}

	// The shutdown function ensures all buffered telemetry is exported. Both
	// providers get a chance to flush even if one fails first: a Prometheus
	// scrape racing process exit cares more about the meter's last gauge
	// reading than it does about outstanding trace spans.
	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		var errs []error
		if err := tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
		if err := meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
		return errors.Join(errs...)
	}

	return tel, shutdown, nil
}

// PageCacheInstruments builds the buffer-pool hit/fault/eviction counters
// against this Telemetry's meter, the one concrete consumer every
// sebtree-backed process wires up alongside tracing.
func (t *Telemetry) PageCacheInstruments() (*pagecache.Instruments, error) {
	return pagecache.NewInstruments(t.Meter)
}

// NodeInstruments are the counters and gauges a caller reports node-level
// activity through: splits and merges, and a snapshot of free bytes on the
// page most recently touched. sebtree's node package stays decoupled from
// telemetry (it never imports this package), so the caller driving node
// sessions (cmd/sebtree-inspect, or a future tree layer) reports through
// these after each operation instead of the node reporting on itself.
type NodeInstruments struct {
	Splits metric.Int64Counter
	Merges metric.Int64Counter
}

// NewNodeInstruments builds the split/merge counters and registers an
// observable gauge that samples freeBytes on every collection pass.
func (t *Telemetry) NewNodeInstruments(freeBytes func() int64) (*NodeInstruments, error) {
	splits, err := t.Meter.Int64Counter("sebtree.node.splits",
		metric.WithDescription("tail-move splits performed to keep a page under its half-free threshold"))
	if err != nil {
		return nil, fmt.Errorf("building splits counter: %w", err)
	}
	merges, err := t.Meter.Int64Counter("sebtree.node.merges",
		metric.WithDescription("clone-based merges of two sibling pages into one"))
	if err != nil {
		return nil, fmt.Errorf("building merges counter: %w", err)
	}
	if freeBytes != nil {
		gauge, err := t.Meter.Int64ObservableGauge("sebtree.node.free_bytes",
			metric.WithDescription("free bytes remaining on the most recently touched page"))
		if err != nil {
			return nil, fmt.Errorf("building free bytes gauge: %w", err)
		}
		if _, err := t.Meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(gauge, freeBytes())
			return nil
		}, gauge); err != nil {
			return nil, fmt.Errorf("registering free bytes callback: %w", err)
		}
	}
	return &NodeInstruments{Splits: splits, Merges: merges}, nil
}

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Config controls telemetry setup.
type Config struct {
	// Enabled turns the SDK provider on. When false, Init returns a
	// noop Providers without touching the globals.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ServiceName is reported on every span.
	ServiceName string `json:"service_name" yaml:"service_name"`

	// SampleRate is the trace sampling ratio in [0,1].
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
}

// DefaultConfig returns telemetry defaults: disabled, full sampling.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		ServiceName: "councilflow",
		SampleRate:  1.0,
	}
}

// Providers holds the OTel SDK TracerProvider. When telemetry is
// disabled the field is nil and Shutdown is a no-op.
type Providers struct {
	tp *sdktrace.TracerProvider
}

// Init initializes the OTel SDK. When cfg.Enabled is false, it returns
// a noop Providers without registering anything. Span export is left to
// the embedding application; processors can be attached through the
// returned provider.
func Init(cfg Config, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("telemetry disabled, using noop providers")
		return &Providers{}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry initialized",
		zap.String("service", cfg.ServiceName),
		zap.Float64("sample_rate", cfg.SampleRate))
	return &Providers{tp: tp}, nil
}

// TracerProvider returns the SDK provider, or nil when disabled.
func (p *Providers) TracerProvider() *sdktrace.TracerProvider {
	return p.tp
}

// Shutdown flushes and stops the provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

package observability

import (
	"context"
	"time"

	"franchise-notifications/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the otel meter and tracer. A nil *Observability is
// valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	created        otelmetric.Int64Counter
	createDuration otelmetric.Float64Histogram
	deliveries     otelmetric.Int64Counter
}

// New builds the meter provider on the Prometheus exporter and, when
// jaegerEndpoint is set, a tracer provider exporting to Jaeger.
func New(serviceName, jaegerEndpoint string, log logger.Logger) *Observability {
	o := &Observability{}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)

		meter := o.meterProvider.Meter(serviceName)
		o.created, _ = meter.Int64Counter(
			"notifications.created",
			otelmetric.WithDescription("Notifications persisted"),
		)
		o.createDuration, _ = meter.Float64Histogram(
			"notifications.create.duration",
			otelmetric.WithDescription("Create call duration including channel fan-out"),
			otelmetric.WithUnit("ms"),
		)
		o.deliveries, _ = meter.Int64Counter(
			"notifications.channel.deliveries",
			otelmetric.WithDescription("Channel outcomes"),
		)
	}

	if jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Warn("failed to create jaeger exporter", map[string]interface{}{"error": err.Error()})
		} else {
			o.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exp),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(o.tracerProvider)
		}
	}
	o.tracer = otel.Tracer(serviceName)

	return o
}

// StartSpan starts a span on the configured tracer; without Jaeger the global
// no-op tracer is used.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordNotificationCreated(ctx context.Context, notificationType, priority string) {
	if o == nil || o.created == nil {
		return
	}
	o.created.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("type", notificationType),
		attribute.String("priority", priority),
	))
}

func (o *Observability) RecordCreateDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.createDuration == nil {
		return
	}
	o.createDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordDelivery(ctx context.Context, channel, outcome string) {
	if o == nil || o.deliveries == nil {
		return
	}
	o.deliveries.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}

package observability

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	llmCalls  otelmetric.Int64Counter
	fragments otelmetric.Int64Counter
)

// SetupTracing initializes OpenTelemetry tracing with stdout exporter (for demo; replace with OTLP in prod)
func SetupTracing(serviceName string) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("failed to initialize stdouttrace exporter: %v", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupPrometheusMetrics initializes the Prometheus exporter, registers the
// domain instruments and exposes /metrics on the given side port.
func SetupPrometheusMetrics(port string) *metric.MeterProvider {
	exp, err := prometheus.New()
	if err != nil {
		log.Fatalf("failed to initialize prometheus exporter: %v", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	otel.SetMeterProvider(mp)

	meter := mp.Meter("companion-chat")
	llmCalls, _ = meter.Int64Counter("llm_calls_total",
		otelmetric.WithDescription("LLM provider calls by provider, capability and outcome"))
	fragments, _ = meter.Int64Counter("reply_fragments_total",
		otelmetric.WithDescription("Parsed reply fragments by type"))

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(":"+port, nil)
	}()
	return mp
}

// RecordLLMCall counts one provider call.
func RecordLLMCall(ctx context.Context, provider, capability, outcome string) {
	if llmCalls == nil {
		return
	}
	llmCalls.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("capability", capability),
		attribute.String("outcome", outcome),
	))
}

// RecordFragment counts one persisted reply fragment.
func RecordFragment(ctx context.Context, fragmentType string) {
	if fragments == nil {
		return
	}
	fragments.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("type", fragmentType),
	))
}

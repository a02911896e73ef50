package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const exportInterval = 10 * time.Second

// Config configures OTLP metric export.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// NewProvider installs the global meter provider. With export disabled every
// instrument is a no-op.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	exporter, err := exporterFor(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
	))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(func(ctx context.Context) error {
			log.Info("flushing metrics")
			return provider.Shutdown(ctx)
		}))
	}
	log.Info("metrics export enabled",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

func exporterFor(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("metrics: unsupported OTLP protocol %q", p)
	}
}

// Metrics holds the business counters for enrollments, checkout sessions,
// provider webhooks and throttled requests. A nil *Metrics records nothing.
type Metrics struct {
	counters map[counterID]metric.Int64Counter
}

type counterID int

const (
	enrollmentsCounter counterID = iota
	checkoutSessionsCounter
	webhookEventsCounter
	rateLimitDeniedCounter
)

var counterDefs = []struct {
	id          counterID
	name        string
	description string
}{
	{enrollmentsCounter, "limaskap_enrollments_total", "Enrollment attempts by outcome."},
	{checkoutSessionsCounter, "limaskap_checkout_sessions_total", "Hosted checkout sessions requested from Frisbii by outcome."},
	{webhookEventsCounter, "limaskap_webhook_events_total", "Frisbii webhook deliveries by event type and outcome."},
	{rateLimitDeniedCounter, "limaskap_rate_limit_denied_total", "Requests refused by the rate limiter by endpoint."},
}

// New creates the counters on the meter named after the service.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "limaskap"
	}
	meter := provider.Meter(name)

	m := &Metrics{counters: make(map[counterID]metric.Int64Counter, len(counterDefs))}
	for _, def := range counterDefs {
		counter, err := meter.Int64Counter(def.name, metric.WithDescription(def.description))
		if err != nil {
			return nil, fmt.Errorf("metrics: %s: %w", def.name, err)
		}
		m.counters[def.id] = counter
	}
	return m, nil
}

func (m *Metrics) inc(ctx context.Context, id counterID, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	counter, ok := m.counters[id]
	if !ok {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

func label(key, value string) attribute.KeyValue {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "unknown"
	}
	return attribute.String(key, value)
}

// RecordEnrollment counts an enrollment attempt: created, duplicate or
// in_progress.
func (m *Metrics) RecordEnrollment(ctx context.Context, outcome string) {
	m.inc(ctx, enrollmentsCounter, label("outcome", outcome))
}

func (m *Metrics) RecordCheckoutSession(ctx context.Context, outcome string) {
	m.inc(ctx, checkoutSessionsCounter, label("outcome", outcome))
}

// RecordWebhookEvent counts a webhook delivery. Event types come from
// Frisbii's fixed catalogue so the label stays bounded.
func (m *Metrics) RecordWebhookEvent(ctx context.Context, eventType, outcome string) {
	m.inc(ctx, webhookEventsCounter, label("event_type", eventType), label("outcome", outcome))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	m.inc(ctx, rateLimitDeniedCounter, label("endpoint", endpoint))
}

var allowedLabelKeys = map[attribute.Key]bool{
	"endpoint":   true,
	"event_type": true,
	"outcome":    true,
}

// FilterAttributes keeps only labels known to be low-cardinality. Handles,
// ids and emails never become metric labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	kept := attrs[:0:0]
	for _, attr := range attrs {
		if allowedLabelKeys[attr.Key] {
			kept = append(kept, attr)
		}
	}
	return kept
}

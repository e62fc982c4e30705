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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes loyalty instruments. A nil *Metrics records nothing.
type Metrics struct {
	pointsEarned       metric.Int64Counter
	pointsSpent        metric.Int64Counter
	ordersClosed       metric.Int64Counter
	benefitRedemptions metric.Int64Counter
	settingChanges     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New creates the loyalty instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "bar"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	var err error
	if m.pointsEarned, err = meter.Int64Counter("bar_points_earned_total"); err != nil {
		return nil, err
	}
	if m.pointsSpent, err = meter.Int64Counter("bar_points_spent_total"); err != nil {
		return nil, err
	}
	if m.ordersClosed, err = meter.Int64Counter("bar_orders_closed_total"); err != nil {
		return nil, err
	}
	if m.benefitRedemptions, err = meter.Int64Counter("bar_benefit_redemptions_total"); err != nil {
		return nil, err
	}
	if m.settingChanges, err = meter.Int64Counter("bar_setting_changes_total"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordPointsEarned adds the credited points, labelled by movement source kind.
func (m *Metrics) RecordPointsEarned(ctx context.Context, sourceType string, points int64) {
	if m == nil || points <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("source_type", strings.TrimSpace(sourceType)))
	m.pointsEarned.Add(ctx, points, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPointsSpent(ctx context.Context, sourceType string, points int64) {
	if m == nil || points <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("source_type", strings.TrimSpace(sourceType)))
	m.pointsSpent.Add(ctx, points, metric.WithAttributes(attrs...))
}

// RecordOrderClosed counts settlements; withClient tells whether a client was attached.
func (m *Metrics) RecordOrderClosed(ctx context.Context, withClient bool) {
	if m == nil {
		return
	}
	outcome := "anonymous"
	if withClient {
		outcome = "client"
	}
	m.ordersClosed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordBenefitRedemption(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("benefit_kind", strings.TrimSpace(kind)))
	m.benefitRedemptions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordSettingChange(ctx context.Context, key string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("setting_key", strings.TrimSpace(key)))
	m.settingChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source_type":  {},
	"benefit_kind": {},
	"setting_key":  {},
	"outcome":      {},
	"route":        {},
	"method":       {},
	"status_code":  {},
}

// FilterAttributes strips labels outside the allow list. Client ids and
// emails must never become metric labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

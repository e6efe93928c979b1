package metrics

import (
	"context"
	"errors"
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

type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics holds the business counters. A nil *Metrics records nothing.
type Metrics struct {
	boletasGeneradas   metric.Int64Counter
	pagosRegistrados   metric.Int64Counter
	transicionesEstado metric.Int64Counter
	avisosEnviados     metric.Int64Counter
	loginPermitidos    metric.Int64Counter
	loginLimitados     metric.Int64Counter
}

// NewProvider installs the global meter provider. Disabled configs get a
// noop provider so instruments stay callable.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		noopProvider := noop.NewMeterProvider()
		otel.SetMeterProvider(noopProvider)
		return noopProvider, nil
	}

	exporter, err := otlpExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(mp)

	if log == nil {
		log = zap.NewNop()
	}
	log.Info("meter provider ready",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	if lc != nil {
		lc.Append(fx.StopHook(func(ctx context.Context) error {
			log.Info("flushing meter provider")
			return mp.Shutdown(ctx)
		}))
	}
	return mp, nil
}

// New creates the counters on the service meter.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(firstNonEmpty(cfg.ServiceName, "agua"))

	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	m := &Metrics{
		boletasGeneradas:   counter("agua_boletas_generadas_total", "Boletas generated, by origin."),
		pagosRegistrados:   counter("agua_pagos_registrados_total", "Payments registered, by method and state."),
		transicionesEstado: counter("agua_transiciones_estado_total", "Service state transitions."),
		avisosEnviados:     counter("agua_avisos_enviados_total", "Service notices mailed, by template and outcome."),
		loginPermitidos:    counter("agua_rate_limit_allowed_total", "Login attempts let through."),
		loginLimitados:     counter("agua_rate_limit_denied_total", "Login attempts throttled."),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// add increments c once. kv alternates label keys and values.
func (m *Metrics) add(ctx context.Context, c metric.Int64Counter, kv ...string) {
	if m == nil || c == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], strings.TrimSpace(kv[i+1])))
	}
	c.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

// RecordBoletaGenerada counts boletas by origin (individual, masivo).
func (m *Metrics) RecordBoletaGenerada(ctx context.Context, origen string) {
	if m == nil {
		return
	}
	m.add(ctx, m.boletasGeneradas, "origen", origen)
}

func (m *Metrics) RecordPago(ctx context.Context, metodo, estado string) {
	if m == nil {
		return
	}
	m.add(ctx, m.pagosRegistrados, "metodo", metodo, "estado", estado)
}

func (m *Metrics) RecordTransicionEstado(ctx context.Context, desde, hacia string) {
	if m == nil {
		return
	}
	m.add(ctx, m.transicionesEstado, "desde", desde, "hacia", hacia)
}

// RecordAviso counts a mailed notice; ok is false when delivery failed.
func (m *Metrics) RecordAviso(ctx context.Context, plantilla string, ok bool) {
	if m == nil {
		return
	}
	resultado := "enviado"
	if !ok {
		resultado = "fallido"
	}
	m.add(ctx, m.avisosEnviados, "plantilla", plantilla, "resultado", resultado)
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.add(ctx, m.loginPermitidos, "endpoint", endpoint)
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.add(ctx, m.loginLimitados, "endpoint", endpoint, "reason", reason)
}

func otlpExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", p)
	}
}

// Labels outside this set are dropped; ids and padrones would explode
// series cardinality.
var allowedLabelKeys = map[attribute.Key]bool{
	"endpoint":    true,
	"status_code": true,
	"origen":      true,
	"metodo":      true,
	"estado":      true,
	"desde":       true,
	"hacia":       true,
	"reason":      true,
	"plantilla":   true,
	"resultado":   true,
}

func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := attrs[:0:0]
	for _, attr := range attrs {
		if allowedLabelKeys[attr.Key] {
			out = append(out, attr)
		}
	}
	return out
}

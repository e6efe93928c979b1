package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("metodo", "efectivo"),
		attribute.String("usuario_id", "456"),
		attribute.String("estado", "aprobado"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("metodo"))
	assert.Contains(t, keys, attribute.Key("estado"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordBoletaGenerada(context.Background(), "masivo")
		m.RecordPago(context.Background(), "efectivo", "aprobado")
		m.RecordTransicionEstado(context.Background(), "ACTIVO", "AVISO_DEUDA")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "agua"}, noop.NewMeterProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordBoletaGenerada(context.Background(), "individual")
	})
}

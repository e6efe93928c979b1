package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicarPorPeriodo_KeepsLatestEmission(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items := []Response{
		{ID: "old", Mes: 6, Anio: 2024, FechaEmision: base},
		{ID: "may", Mes: 5, Anio: 2024, FechaEmision: base.AddDate(0, -1, 0)},
		{ID: "new", Mes: 6, Anio: 2024, FechaEmision: base.Add(time.Hour)},
		{ID: "dec", Mes: 12, Anio: 2023, FechaEmision: base.AddDate(0, -6, 0)},
	}

	got := DeduplicarPorPeriodo(items)
	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "may", got[1].ID)
	assert.Equal(t, "dec", got[2].ID)
}

func TestDeduplicarPorPeriodo_Empty(t *testing.T) {
	assert.Empty(t, DeduplicarPorPeriodo([]Boleta{}))
}

func TestEstadoPredicates(t *testing.T) {
	assert.True(t, EstadoPendiente.Recalculable())
	assert.True(t, EstadoProcesando.Recalculable())
	assert.False(t, EstadoPagada.Recalculable())
	assert.False(t, EstadoVencida.Recalculable())

	assert.True(t, EstadoVencida.Impaga())
	assert.False(t, EstadoPagada.Impaga())
}

func TestValidarPeriodo(t *testing.T) {
	assert.NoError(t, ValidarPeriodo(6, 2024))
	assert.ErrorIs(t, ValidarPeriodo(0, 2024), ErrInvalidPeriodo)
	assert.ErrorIs(t, ValidarPeriodo(13, 2024), ErrInvalidPeriodo)
	assert.ErrorIs(t, ValidarPeriodo(6, 1999), ErrInvalidPeriodo)
}

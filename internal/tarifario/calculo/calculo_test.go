package calculo

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tarifaResidencial() ([]ConceptoFijo, []Escala) {
	conceptos := []ConceptoFijo{
		{TipoCliente: "residencial", Nombre: "Servicio base", Monto: dec("8000")},
		{TipoCliente: "comercial", Nombre: "Servicio base", Monto: dec("12000")},
	}
	escalas := []Escala{
		{TipoCliente: "residencial", DesdeM3: 0, HastaM3: intPtr(10), PrecioPorM3: dec("0"), Orden: 1},
		{TipoCliente: "residencial", DesdeM3: 11, HastaM3: intPtr(20), PrecioPorM3: dec("150"), Orden: 2},
		{TipoCliente: "residencial", DesdeM3: 21, HastaM3: nil, PrecioPorM3: dec("250.5"), Orden: 3},
		{TipoCliente: "comercial", DesdeM3: 0, HastaM3: nil, PrecioPorM3: dec("300"), Orden: 1},
	}
	return conceptos, escalas
}

func TestComponerEscalonado(t *testing.T) {
	conceptos, escalas := tarifaResidencial()

	got, err := Componer(Entrada{
		TipoCliente:    "residencial",
		ConceptosFijos: conceptos,
		Escalas:        escalas,
		TieneMedidor:   true,
		ConsumoM3:      dec("25"),
		Cargos:         []Cargo{{Concepto: "Reconexión", Monto: dec("1000")}},
		Cuota:          &Cuota{Numero: 2, Monto: dec("14800")},
	})
	require.NoError(t, err)

	require.Len(t, got.DesgloseConsumo, 3)
	assert.True(t, got.DesgloseConsumo[0].M3.Equal(dec("10")))
	assert.True(t, got.DesgloseConsumo[0].Subtotal.IsZero())
	assert.True(t, got.DesgloseConsumo[1].M3.Equal(dec("10")))
	assert.True(t, got.DesgloseConsumo[1].Subtotal.Equal(dec("1500")))
	assert.True(t, got.DesgloseConsumo[2].M3.Equal(dec("5")))
	assert.True(t, got.DesgloseConsumo[2].Subtotal.Equal(dec("1252.5")))
	assert.Nil(t, got.DesgloseConsumo[2].Hasta)

	assert.True(t, got.MontoServicioBase.Equal(dec("8000")))
	assert.True(t, got.MontoConsumo.Equal(dec("2752.5")))
	assert.True(t, got.Subtotal.Equal(dec("10752.5")))
	assert.True(t, got.TotalCargosExtras.Equal(dec("1000")))
	require.NotNil(t, got.CuotaPlanNumero)
	assert.Equal(t, 2, *got.CuotaPlanNumero)
	assert.True(t, got.Total.Equal(dec("26552.5")))
}

func TestComponerTotalInvariante(t *testing.T) {
	conceptos, escalas := tarifaResidencial()
	for _, consumo := range []string{"0", "0.5", "10", "10.4", "11", "20", "21", "137.25"} {
		got, err := Componer(Entrada{
			TipoCliente:    "residencial",
			ConceptosFijos: conceptos,
			Escalas:        escalas,
			TieneMedidor:   true,
			ConsumoM3:      dec(consumo),
		})
		require.NoError(t, err)
		assert.True(t, got.Subtotal.Equal(got.MontoServicioBase.Add(got.MontoConsumo)), consumo)
		assert.True(t, got.Total.Equal(got.Subtotal.Add(got.TotalCargosExtras).Add(got.MontoCuotaPlan)), consumo)

		suma := decimal.Zero
		for _, tramo := range got.DesgloseConsumo {
			suma = suma.Add(tramo.M3)
		}
		assert.True(t, suma.Equal(dec(consumo)), "m3 distribuidos para %s", consumo)
	}
}

func TestComponerSinMedidor(t *testing.T) {
	conceptos, escalas := tarifaResidencial()
	got, err := Componer(Entrada{
		TipoCliente:    "comercial",
		ConceptosFijos: conceptos,
		Escalas:        escalas,
		TieneMedidor:   false,
		ConsumoM3:      dec("40"),
	})
	require.NoError(t, err)
	assert.True(t, got.ConsumoM3.IsZero())
	assert.True(t, got.MontoConsumo.IsZero())
	assert.True(t, got.Total.Equal(dec("12000")))
	assert.Nil(t, got.CuotaPlanNumero)
}

func TestComponerConsumoNegativo(t *testing.T) {
	_, err := Componer(Entrada{TieneMedidor: true, ConsumoM3: dec("-1")})
	assert.ErrorIs(t, err, ErrConsumoNegativo)
}

func TestValidarEscalas(t *testing.T) {
	_, escalas := tarifaResidencial()
	require.NoError(t, ValidarEscalas(escalas))

	assert.ErrorIs(t, ValidarEscalas(nil), ErrEscalasVacias)

	hueco := []Escala{
		{TipoCliente: "residencial", DesdeM3: 0, HastaM3: intPtr(10), Orden: 1},
		{TipoCliente: "residencial", DesdeM3: 12, Orden: 2},
	}
	var noContiguas *EscalasNoContiguasError
	require.True(t, errors.As(ValidarEscalas(hueco), &noContiguas))
	assert.Equal(t, 10, noContiguas.Hasta)
	assert.Equal(t, 12, noContiguas.Desde)

	acotada := []Escala{
		{TipoCliente: "residencial", DesdeM3: 0, HastaM3: intPtr(10), Orden: 1},
	}
	assert.ErrorIs(t, ValidarEscalas(acotada), ErrEscalaFinalAcotada)

	inicio := []Escala{{TipoCliente: "residencial", DesdeM3: 1, Orden: 1}}
	assert.ErrorIs(t, ValidarEscalas(inicio), ErrEscalaInicial)
}

func TestMontoCuota(t *testing.T) {
	total := dec("74000")
	suma := decimal.Zero
	for n := 1; n <= 3; n++ {
		cuota, err := MontoCuota(total, 3, n)
		require.NoError(t, err)
		suma = suma.Add(cuota)
	}
	assert.True(t, suma.Equal(total))

	primera, _ := MontoCuota(total, 3, 1)
	assert.True(t, primera.Equal(dec("24666.67")))

	_, err := MontoCuota(total, 3, 4)
	assert.ErrorIs(t, err, ErrCuotasInvalidas)
}

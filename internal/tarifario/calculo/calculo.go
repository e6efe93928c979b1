// Package calculo composes the amounts of a boleta from a tariff and a
// metered consumption. It performs no I/O.
package calculo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ConceptoFijo is a fixed monthly charge for a customer type.
type ConceptoFijo struct {
	TipoCliente string
	Nombre      string
	Monto       decimal.Decimal
}

// Escala is one consumption tier. HastaM3 nil means unbounded.
type Escala struct {
	TipoCliente string
	DesdeM3     int
	HastaM3     *int
	PrecioPorM3 decimal.Decimal
	Orden       int
}

// Tramo is the slice of consumption billed inside one tier.
type Tramo struct {
	Desde       int             `json:"desde"`
	Hasta       *int            `json:"hasta"`
	PrecioPorM3 decimal.Decimal `json:"precio_por_m3"`
	M3          decimal.Decimal `json:"m3"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Cargo struct {
	Concepto string          `json:"concepto"`
	Monto    decimal.Decimal `json:"monto"`
}

// Cuota is one installment of a reconnection plan.
type Cuota struct {
	Numero int
	Monto  decimal.Decimal
}

type Entrada struct {
	TipoCliente    string
	ConceptosFijos []ConceptoFijo
	Escalas        []Escala
	TieneMedidor   bool
	ConsumoM3      decimal.Decimal
	Cargos         []Cargo
	Cuota          *Cuota
}

type Composicion struct {
	MontoServicioBase decimal.Decimal
	ConsumoM3         decimal.Decimal
	DesgloseConsumo   []Tramo
	MontoConsumo      decimal.Decimal
	Subtotal          decimal.Decimal
	CargosExtras      []Cargo
	TotalCargosExtras decimal.Decimal
	CuotaPlanNumero   *int
	MontoCuotaPlan    decimal.Decimal
	Total             decimal.Decimal
}

var (
	ErrEscalasVacias       = errors.New("escalas_vacias")
	ErrConsumoNegativo     = errors.New("consumo_negativo")
	ErrEscalaInicial       = errors.New("la primera escala debe comenzar en 0 m³")
	ErrEscalaFinalAcotada  = errors.New("la última escala no debe tener límite superior")
	ErrEscalaRangoInvalido = errors.New("escala con rango inválido")
	ErrPrecioNegativo      = errors.New("precio por m³ negativo")
	ErrCuotasInvalidas     = errors.New("cantidad de cuotas inválida")
)

// EscalasNoContiguasError reports a gap or overlap between two tiers.
type EscalasNoContiguasError struct {
	TipoCliente string
	Hasta       int
	Desde       int
}

func (e *EscalasNoContiguasError) Error() string {
	return fmt.Sprintf("escalas %s no contiguas: una termina en %d y la siguiente comienza en %d", e.TipoCliente, e.Hasta, e.Desde)
}

// Redondear rounds half away from zero to cents.
func Redondear(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// EscalasDe returns the tiers of tipoCliente ordered by Orden then DesdeM3.
func EscalasDe(escalas []Escala, tipoCliente string) []Escala {
	out := make([]Escala, 0, len(escalas))
	for _, e := range escalas {
		if e.TipoCliente == tipoCliente {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Orden != out[j].Orden {
			return out[i].Orden < out[j].Orden
		}
		return out[i].DesdeM3 < out[j].DesdeM3
	})
	return out
}

// ValidarEscalas checks every customer type: first tier starts at 0, each
// tier starts right after the previous one ends, and only the last is open.
func ValidarEscalas(escalas []Escala) error {
	if len(escalas) == 0 {
		return ErrEscalasVacias
	}
	tipos := make([]string, 0)
	vistos := map[string]struct{}{}
	for _, e := range escalas {
		if _, ok := vistos[e.TipoCliente]; ok {
			continue
		}
		vistos[e.TipoCliente] = struct{}{}
		tipos = append(tipos, e.TipoCliente)
	}

	for _, tipo := range tipos {
		grupo := EscalasDe(escalas, tipo)
		if grupo[0].DesdeM3 != 0 {
			return ErrEscalaInicial
		}
		for i, e := range grupo {
			if e.PrecioPorM3.IsNegative() {
				return ErrPrecioNegativo
			}
			ultima := i == len(grupo)-1
			if ultima {
				if e.HastaM3 != nil {
					return ErrEscalaFinalAcotada
				}
				continue
			}
			if e.HastaM3 == nil || *e.HastaM3 < e.DesdeM3 {
				return ErrEscalaRangoInvalido
			}
			if next := grupo[i+1]; *e.HastaM3+1 != next.DesdeM3 {
				return &EscalasNoContiguasError{TipoCliente: tipo, Hasta: *e.HastaM3, Desde: next.DesdeM3}
			}
		}
	}
	return nil
}

// Componer computes every amount of a boleta. The breakdown lists all tiers of
// the customer type, including those the consumption does not reach.
func Componer(in Entrada) (Composicion, error) {
	consumo := in.ConsumoM3
	if consumo.IsNegative() {
		return Composicion{}, ErrConsumoNegativo
	}
	if !in.TieneMedidor {
		consumo = decimal.Zero
	}

	base := decimal.Zero
	for _, c := range in.ConceptosFijos {
		if c.TipoCliente != in.TipoCliente {
			continue
		}
		base = base.Add(Redondear(c.Monto))
	}

	escalas := EscalasDe(in.Escalas, in.TipoCliente)
	desglose := make([]Tramo, 0, len(escalas))
	montoConsumo := decimal.Zero
	for _, e := range escalas {
		m3 := m3EnEscala(consumo, e)
		subtotal := Redondear(m3.Mul(e.PrecioPorM3))
		desglose = append(desglose, Tramo{
			Desde:       e.DesdeM3,
			Hasta:       e.HastaM3,
			PrecioPorM3: e.PrecioPorM3,
			M3:          m3,
			Subtotal:    subtotal,
		})
		montoConsumo = montoConsumo.Add(subtotal)
	}

	cargos := make([]Cargo, 0, len(in.Cargos))
	totalCargos := decimal.Zero
	for _, c := range in.Cargos {
		monto := Redondear(c.Monto)
		cargos = append(cargos, Cargo{Concepto: c.Concepto, Monto: monto})
		totalCargos = totalCargos.Add(monto)
	}

	out := Composicion{
		MontoServicioBase: base,
		ConsumoM3:         consumo,
		DesgloseConsumo:   desglose,
		MontoConsumo:      montoConsumo,
		Subtotal:          base.Add(montoConsumo),
		CargosExtras:      cargos,
		TotalCargosExtras: totalCargos,
		MontoCuotaPlan:    decimal.Zero,
	}
	if in.Cuota != nil && in.Cuota.Numero > 0 {
		numero := in.Cuota.Numero
		out.CuotaPlanNumero = &numero
		out.MontoCuotaPlan = Redondear(in.Cuota.Monto)
	}
	out.Total = out.Subtotal.Add(out.TotalCargosExtras).Add(out.MontoCuotaPlan)
	return out, nil
}

// m3EnEscala = max(0, min(consumo, hasta) - max(desde-1, 0))
func m3EnEscala(consumo decimal.Decimal, e Escala) decimal.Decimal {
	tope := consumo
	if e.HastaM3 != nil {
		tope = decimal.Min(consumo, decimal.NewFromInt(int64(*e.HastaM3)))
	}
	piso := decimal.NewFromInt(int64(max(e.DesdeM3-1, 0)))
	m3 := tope.Sub(piso)
	if m3.IsNegative() {
		return decimal.Zero
	}
	return m3
}

// MontoCuota splits total into cantidad installments rounded to cents. The
// last installment absorbs the rounding difference.
func MontoCuota(total decimal.Decimal, cantidad, numero int) (decimal.Decimal, error) {
	if cantidad <= 0 || numero <= 0 || numero > cantidad {
		return decimal.Zero, ErrCuotasInvalidas
	}
	cuota := total.Div(decimal.NewFromInt(int64(cantidad))).Round(2)
	if numero < cantidad {
		return cuota, nil
	}
	return total.Sub(cuota.Mul(decimal.NewFromInt(int64(cantidad - 1)))), nil
}

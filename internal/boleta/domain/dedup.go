package domain

import (
	"sort"
	"time"
)

// Periodico is anything billed for a (mes, anio) period.
type Periodico interface {
	Periodo() (mes int, anio int)
	Emitida() time.Time
}

type periodo struct {
	mes  int
	anio int
}

// DeduplicarPorPeriodo keeps one item per period, the one with the latest
// emission date. The result is ordered newest period first.
func DeduplicarPorPeriodo[T Periodico](items []T) []T {
	latest := make(map[periodo]T, len(items))
	for _, item := range items {
		mes, anio := item.Periodo()
		key := periodo{mes: mes, anio: anio}
		current, ok := latest[key]
		if !ok || item.Emitida().After(current.Emitida()) {
			latest[key] = item
		}
	}

	out := make([]T, 0, len(latest))
	for _, item := range latest {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		mi, ai := out[i].Periodo()
		mj, aj := out[j].Periodo()
		if ai != aj {
			return ai > aj
		}
		return mi > mj
	})
	return out
}

func (b Boleta) Periodo() (int, int)   { return b.Mes, b.Anio }
func (b Boleta) Emitida() time.Time    { return b.FechaEmision }
func (r Response) Periodo() (int, int) { return r.Mes, r.Anio }
func (r Response) Emitida() time.Time  { return r.FechaEmision }

// Package detalle lays out the breakdown of an already computed boleta. It
// formats the stored amounts and never recomputes them.
package detalle

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/shopspring/decimal"
)

type Tipo string

const (
	SeccionPeriodo      Tipo = "periodo"
	SeccionVencimiento  Tipo = "vencimiento"
	SeccionMedidor      Tipo = "medidor"
	SeccionServicioBase Tipo = "servicio_base"
	SeccionDesglose     Tipo = "desglose"
	SeccionSubtotal     Tipo = "subtotal"
	SeccionCargosExtras Tipo = "cargos_extras"
	SeccionCuotaPlan    Tipo = "cuota_reconexion"
	SeccionTotal        Tipo = "total"
)

const (
	IncluidoEnBase = "Incluido en servicio base"
	SinDesglose    = "Sin desglose disponible"
)

type Fila struct {
	Etiqueta string `json:"etiqueta"`
	Valor    string `json:"valor"`
}

type Seccion struct {
	Tipo   Tipo   `json:"tipo"`
	Titulo string `json:"titulo"`
	Filas  []Fila `json:"filas"`
}

type Detalle struct {
	Numero    string    `json:"numero"`
	Secciones []Seccion `json:"secciones"`
}

var meses = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// NombreMes returns the Spanish month name, or the number itself when out
// of range.
func NombreMes(mes int) string {
	if mes < 1 || mes > 12 {
		return fmt.Sprintf("%d", mes)
	}
	return meses[mes-1]
}

func Dinero(v decimal.Decimal) string {
	return "$ " + v.StringFixed(2)
}

func Fecha(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// Componer builds the sections of b in their fixed order. Optional sections
// are omitted rather than shown with zeros.
func Componer(b boletadomain.Response) Detalle {
	d := Detalle{Numero: b.Numero}

	d.Secciones = append(d.Secciones,
		Seccion{Tipo: SeccionPeriodo, Titulo: "Período", Filas: []Fila{
			{Etiqueta: "Período", Valor: fmt.Sprintf("%s %d", NombreMes(b.Mes), b.Anio)},
		}},
		Seccion{Tipo: SeccionVencimiento, Titulo: "Vencimiento", Filas: []Fila{
			{Etiqueta: "Vencimiento", Valor: Fecha(b.FechaVencimiento)},
		}},
	)

	if b.Lectura != nil {
		filas := make([]Fila, 0, 4)
		if b.Lectura.NumeroSerie != "" {
			filas = append(filas, Fila{Etiqueta: "Medidor", Valor: b.Lectura.NumeroSerie})
		}
		filas = append(filas,
			Fila{Etiqueta: "Lectura anterior", Valor: b.Lectura.LecturaAnterior.StringFixed(2)},
			Fila{Etiqueta: "Lectura actual", Valor: b.Lectura.LecturaActual.StringFixed(2)},
			Fila{Etiqueta: "Consumo", Valor: b.Lectura.ConsumoM3.StringFixed(2) + " m³"},
		)
		d.Secciones = append(d.Secciones, Seccion{Tipo: SeccionMedidor, Titulo: "Medidor", Filas: filas})
	}

	d.Secciones = append(d.Secciones, Seccion{Tipo: SeccionServicioBase, Titulo: "Servicio base", Filas: []Fila{
		{Etiqueta: "Servicio base", Valor: Dinero(b.MontoServicioBase)},
	}})

	if b.TieneMedidor && b.ConsumoM3.IsPositive() {
		d.Secciones = append(d.Secciones, desglose(b))
	}

	d.Secciones = append(d.Secciones, Seccion{Tipo: SeccionSubtotal, Titulo: "Subtotal", Filas: []Fila{
		{Etiqueta: "Subtotal", Valor: Dinero(b.Subtotal)},
	}})

	if b.TotalCargosExtras.IsPositive() {
		filas := make([]Fila, 0, len(b.CargosExtras)+1)
		for _, c := range b.CargosExtras {
			filas = append(filas, Fila{Etiqueta: c.Concepto, Valor: Dinero(c.Monto)})
		}
		filas = append(filas, Fila{Etiqueta: "Total cargos extras", Valor: Dinero(b.TotalCargosExtras)})
		d.Secciones = append(d.Secciones, Seccion{Tipo: SeccionCargosExtras, Titulo: "Cargos extras", Filas: filas})
	}

	if b.CuotaPlanNumero != nil && b.MontoCuotaPlan.IsPositive() {
		d.Secciones = append(d.Secciones, Seccion{Tipo: SeccionCuotaPlan, Titulo: "Cuota de reconexión", Filas: []Fila{
			{Etiqueta: fmt.Sprintf("Cuota %d", *b.CuotaPlanNumero), Valor: Dinero(b.MontoCuotaPlan)},
		}})
	}

	d.Secciones = append(d.Secciones, Seccion{Tipo: SeccionTotal, Titulo: "Total", Filas: []Fila{
		{Etiqueta: "Total", Valor: Dinero(b.Total)},
	}})
	return d
}

func desglose(b boletadomain.Response) Seccion {
	s := Seccion{Tipo: SeccionDesglose, Titulo: "Consumo escalonado"}
	if len(b.DesgloseConsumo) == 0 {
		s.Filas = []Fila{{Etiqueta: SinDesglose}}
		return s
	}
	for _, t := range b.DesgloseConsumo {
		hasta := "∞"
		if t.Hasta != nil {
			hasta = fmt.Sprintf("%d", *t.Hasta)
		}
		fila := Fila{Etiqueta: fmt.Sprintf("%d - %s m³", t.Desde, hasta)}
		if t.PrecioPorM3.IsZero() {
			fila.Valor = IncluidoEnBase
		} else {
			fila.Valor = fmt.Sprintf("%s m³ x %s = %s", t.M3.StringFixed(2), Dinero(t.PrecioPorM3), Dinero(t.Subtotal))
		}
		s.Filas = append(s.Filas, fila)
	}
	return s
}

// Seccion returns the section of the given type, if present.
func (d Detalle) Seccion(tipo Tipo) (Seccion, bool) {
	for _, s := range d.Secciones {
		if s.Tipo == tipo {
			return s, true
		}
	}
	return Seccion{}, false
}

// String renders the detail as aligned plain text.
func (d Detalle) String() string {
	var sb strings.Builder
	if d.Numero != "" {
		fmt.Fprintf(&sb, "Boleta %s\n", d.Numero)
	}
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, s := range d.Secciones {
		fmt.Fprintf(w, "[%s]\t\n", s.Titulo)
		for _, f := range s.Filas {
			fmt.Fprintf(w, "  %s\t%s\n", f.Etiqueta, f.Valor)
		}
	}
	_ = w.Flush()
	return sb.String()
}

package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func (p *PDFProvider) GenerateRecibo(ctx context.Context, r ReciboData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := maroto.New(config.NewBuilder().Build())
	m.AddRows(encabezado(r.Empresa, "Recibo de pago")...)

	lineas := [][2]string{
		{"Cliente", r.Cliente.Nombre},
		{"Padrón", r.Cliente.Padron},
		{"Boleta", r.NumeroBoleta},
		{"Período", r.Periodo},
		{"Fecha de pago", r.FechaPago},
		{"Medio de pago", r.Metodo},
	}
	if r.Observacion != "" {
		lineas = append(lineas, [2]string{"Observaciones", r.Observacion})
	}
	for _, l := range lineas {
		m.AddRows(row.New(7).Add(
			text.NewCol(4, l[0], props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(8, l[1], props.Text{Size: 9}),
		))
	}
	m.AddRows(row.New(12).Add(
		text.NewCol(8, "Importe abonado", props.Text{Size: 12, Style: fontstyle.Bold, Top: 4}),
		text.NewCol(4, r.Monto, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Top: 4}),
	))

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

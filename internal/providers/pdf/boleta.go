package pdf

import (
	"context"
	"errors"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrSinBoletas = errors.New("sin_boletas")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateBoletas(ctx context.Context, boletas []BoletaData) ([]byte, error) {
	if len(boletas) == 0 {
		return nil, ErrSinBoletas
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	for _, b := range boletas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.AddPages(boletaPage(b))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func boletaPage(b BoletaData) core.Page {
	pg := page.New()
	pg.Add(encabezado(b.Empresa, "Boleta "+b.Detalle.Numero)...)
	pg.Add(
		row.New(18).Add(
			col.New(12).Add(
				text.New("Cliente: "+b.Cliente.Nombre, props.Text{Style: fontstyle.Bold, Size: 10}),
				text.New("Padrón: "+b.Cliente.Padron, props.Text{Top: 5, Size: 9}),
				text.New(b.Cliente.Direccion, props.Text{Top: 10, Size: 9}),
			),
		),
	)

	for _, s := range b.Detalle.Secciones {
		pg.Add(text.NewRow(8, s.Titulo, props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
		for _, f := range s.Filas {
			pg.Add(row.New(6).Add(
				text.NewCol(8, f.Etiqueta, props.Text{Size: 9}),
				text.NewCol(4, f.Valor, props.Text{Size: 9, Align: align.Right}),
			))
		}
	}
	return pg
}

func encabezado(e Empresa, titulo string) []core.Row {
	nombre := e.Nombre
	if nombre == "" {
		nombre = "Servicio de Agua"
	}
	return []core.Row{
		row.New(12).Add(
			text.NewCol(8, nombre, props.Text{Size: 16, Style: fontstyle.Bold}),
			text.NewCol(4, titulo, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
		),
		row.New(12).Add(
			col.New(12).Add(
				text.New(e.Direccion, props.Text{Size: 8}),
				text.New(joinNonEmpty("CUIT "+e.CUIT, e.CUIT, "Tel. "+e.Telefono, e.Telefono), props.Text{Size: 8, Top: 4}),
			),
		),
	}
}

// joinNonEmpty pairs each label with its value and keeps the labels whose
// value is set.
func joinNonEmpty(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		if out != "" {
			out += " · "
		}
		out += pairs[i]
	}
	return out
}

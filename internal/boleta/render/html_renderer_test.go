package render

import (
	"testing"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	r := NewRenderer()
	html, err := r.RenderHTML(RenderInput{
		Cliente: Cliente{Nombre: "Ana <Pérez>", Padron: "10-0036"},
		Detalle: detalle.Detalle{
			Numero: "B-202406-000001",
			Secciones: []detalle.Seccion{
				{Tipo: detalle.SeccionTotal, Titulo: "Total", Filas: []detalle.Fila{{Etiqueta: "Total", Valor: "$ 15000.00"}}},
			},
		},
		PrimaryColor: "red; background:url(x)",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "B-202406-000001")
	assert.Contains(t, html, "Servicio de Agua")
	assert.Contains(t, html, "Ana &lt;Pérez&gt;")
	assert.Contains(t, html, "$ 15000.00")
	assert.Contains(t, html, "#0b5394")
	assert.Contains(t, html, `class="total"`)
}

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	importacion "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	usuariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	zonarepo "github.com/AxelFernandez/agua-andre-sub000/internal/zona/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"gorm.io/gorm"
)

const padronCSV = `nombre ; Zona;PADRON;dire01
Ana Soto;10;10-0001;Calle 1
;10;10-0002;Calle 2
Beto Paz;10;100002;Calle 3
Caro Gil;99;99-0001;Calle 4
Dario Luz;10;20-0001;Calle 5

Eva Rios;Norte;10-0001;Calle 6
Fede Ruiz;10;10-0036;Calle 7
`

func newService(t *testing.T, operacion *config.OperacionConfigHolder) (importacion.Service, *gorm.DB, *testutil.Fixtures) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	fx := testutil.NewFixtures(t, db, node, clk.Now())
	fx.Zona("Norte", 10)
	fx.Cliente("Fede Ruiz", "10-0036", usuariodomain.TipoResidencial)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		UsuarioRepo: usuariorepo.Provide(),
		ZonaRepo:    zonarepo.Provide(db),
		Auditoria:   testutil.Auditoria(db, node, clk),
		Operacion:   operacion,
	})
	return svc, db, fx
}

func TestPreview(t *testing.T) {
	svc, _, _ := newService(t, nil)

	resp, err := svc.Preview(context.Background(), []byte(padronCSV))
	require.NoError(t, err)

	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 2, resp.Validas)
	assert.Equal(t, []importacion.FilaError{
		{Fila: 3, Error: "NOMBRE es obligatorio"},
		{Fila: 4, Error: "PADRON con formato inválido, se espera ZONA-NNNN"},
		{Fila: 5, Error: "Zona inexistente: 99"},
		{Fila: 6, Error: "El padrón 20-0001 no corresponde a la zona 10"},
		{Fila: 8, Error: "Padrón duplicado en el archivo (fila 2)"},
	}, resp.Errores)

	require.Len(t, resp.Filas, 7)
	assert.True(t, resp.Filas[0].Valida)
	assert.False(t, resp.Filas[0].Existente)
	last := resp.Filas[6]
	assert.Equal(t, 9, last.Fila)
	assert.True(t, last.Valida)
	assert.True(t, last.Existente)
}

func TestImportar(t *testing.T) {
	svc, db, _ := newService(t, nil)
	ctx := context.Background()

	resp, err := svc.Importar(ctx, []byte(padronCSV))
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 2, resp.Validas)
	assert.Equal(t, 1, resp.Importadas)
	assert.Equal(t, 1, resp.Omitidas)
	assert.Len(t, resp.Errores, 5)
	assert.Equal(t, resp.Total, resp.Importadas+resp.Omitidas+len(resp.Errores))

	var ana usuariodomain.Usuario
	require.NoError(t, db.Where("padron = ?", "10-0001").First(&ana).Error)
	assert.Equal(t, "Ana Soto", ana.Nombre)
	assert.Equal(t, usuariodomain.RolCliente, ana.Rol)
	assert.Equal(t, "Calle 1", ana.Direccion)
	require.NotNil(t, ana.ZonaID)

	var audits int64
	require.NoError(t, db.Model(&auditoriadomain.Registro{}).Where("entidad = ?", "Importacion").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	again, err := svc.Importar(ctx, []byte(padronCSV))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Importadas)
	assert.Equal(t, 2, again.Omitidas)
}

func TestImportar_Windows1252(t *testing.T) {
	svc, db, _ := newService(t, nil)

	raw := "NOMBRE;ZONA;PADRON;DIRE01\nJosé Peña;10;10-0040;Güemes 12\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(raw)
	require.NoError(t, err)

	resp, err := svc.Importar(context.Background(), []byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Importadas)

	var u usuariodomain.Usuario
	require.NoError(t, db.Where("padron = ?", "10-0040").First(&u).Error)
	assert.Equal(t, "José Peña", u.Nombre)
	assert.Equal(t, "Güemes 12", u.Direccion)
}

func TestRejectsInvalidFiles(t *testing.T) {
	cfg := config.DefaultOperacionConfig()
	cfg.Importacion.CSVMaxBytes = 64
	svc, _, _ := newService(t, config.NewStaticOperacionConfigHolder(cfg))
	ctx := context.Background()

	_, err := svc.Preview(ctx, nil)
	assert.ErrorIs(t, err, importacion.ErrArchivoVacio)

	_, err = svc.Preview(ctx, []byte("NOMBRE;PADRON\nAna;10-0001\n"))
	require.ErrorIs(t, err, importacion.ErrEncabezadosFaltantes)
	assert.Contains(t, err.Error(), "ZONA, DIRE01")

	_, err = svc.Preview(ctx, []byte(strings.Repeat("x", 65)))
	assert.ErrorIs(t, err, importacion.ErrArchivoMuyGrande)
}

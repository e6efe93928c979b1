package service

import (
	"context"
	"testing"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	estadisticas "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type dataset struct {
	ana, beto, caro *usuariodomain.Usuario
}

func seed(t *testing.T, db *gorm.DB, now time.Time) dataset {
	t.Helper()
	node := testutil.Node(t)
	fx := testutil.NewFixtures(t, db, node, now)

	norte := fx.Zona("Norte", 10)
	ana := fx.Cliente("Ana Soto", "10-0001", usuariodomain.TipoResidencial)
	beto := fx.Cliente("Beto Paz", "10-0002", usuariodomain.TipoComercial)
	caro := fx.Cliente("Caro Gil", "20-0001", usuariodomain.TipoResidencial)
	require.NoError(t, db.Model(&usuariodomain.Usuario{}).Where("id IN ?", []any{ana.ID, beto.ID}).Update("zona_id", norte.ID).Error)
	fx.Estado(beto, estadodomain.EstadoAvisoDeuda, now.AddDate(0, 0, -3))

	baja := fx.Cliente("Dario Baja", "20-0002", usuariodomain.TipoResidencial)
	require.NoError(t, db.Model(&usuariodomain.Usuario{}).Where("id = ?", baja.ID).Update("servicio_dado_de_baja", true).Error)

	pagadaAna := fx.Boleta(ana, 5, 2024, decimal.RequireFromString("1500"), boletadomain.EstadoPagada)
	fx.Boleta(ana, 6, 2024, decimal.RequireFromString("1600"), boletadomain.EstadoPendiente)
	fx.Boleta(beto, 4, 2024, decimal.RequireFromString("3000"), boletadomain.EstadoVencida)
	fx.Boleta(beto, 5, 2024, decimal.RequireFromString("3100"), boletadomain.EstadoVencida)
	fx.Boleta(caro, 5, 2024, decimal.RequireFromString("900.50"), boletadomain.EstadoProcesando)

	require.NoError(t, db.Create(&pagodomain.Pago{
		ID:        node.Generate(),
		BoletaID:  pagadaAna.ID,
		UsuarioID: ana.ID,
		Monto:     decimal.RequireFromString("1500"),
		FechaPago: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		Metodo:    pagodomain.MetodoEfectivo,
		Estado:    pagodomain.EstadoAprobado,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	return dataset{ana: ana, beto: beto, caro: caro}
}

func newService(t *testing.T) (estadisticas.Service, dataset) {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	data := seed(t, db, clk.Now())
	return NewService(Params{DB: db, Log: zap.NewNop(), Clock: clk}), data
}

func TestResumen(t *testing.T) {
	svc, _ := newService(t)

	resp, err := svc.Resumen(context.Background())
	require.NoError(t, err)

	assert.Equal(t, estadisticas.Periodo{Mes: 6, Anio: 2024}, resp.Periodo)
	assert.Equal(t, int64(3), resp.ClientesActivos)
	assert.Equal(t, int64(1), resp.ClientesDeBaja)
	assert.Equal(t, int64(2), resp.PorEstadoServicio[string(estadodomain.EstadoActivo)])
	assert.Equal(t, int64(1), resp.PorEstadoServicio[string(estadodomain.EstadoAvisoDeuda)])
	assert.Equal(t, int64(2), resp.BoletasPorEstado["vencida"])
	assert.Equal(t, int64(1), resp.BoletasPorEstado["pagada"])
	assert.Equal(t, "8600.5", resp.DeudaTotal.String())
	assert.Equal(t, "6100", resp.DeudaVencida.String())
	assert.Equal(t, "1500", resp.RecaudadoMes.String())
	assert.Equal(t, int64(0), resp.PagosPendientes)
}

func TestTendencias(t *testing.T) {
	svc, _ := newService(t)

	series, err := svc.Tendencias(context.Background(), estadisticas.TendenciasRequest{Meses: 3})
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, 4, series[0].Mes)
	assert.Equal(t, "3000", series[0].Facturado.String())
	assert.True(t, series[0].Recaudado.IsZero())

	may := series[1]
	assert.Equal(t, 5, may.Mes)
	assert.Equal(t, int64(3), may.Boletas)
	assert.Equal(t, "5500.5", may.Facturado.String())
	assert.Equal(t, "1500", may.Recaudado.String())
	assert.Equal(t, "4000.5", may.Pendiente.String())
	require.NotNil(t, may.Cobranza)
	assert.InDelta(t, 0.2727, *may.Cobranza, 0.0001)

	assert.Equal(t, 6, series[2].Mes)
	assert.Equal(t, 2024, series[2].Anio)

	_, err = svc.Tendencias(context.Background(), estadisticas.TendenciasRequest{Meses: 30})
	assert.ErrorIs(t, err, estadisticas.ErrInvalidMeses)

	series, err = svc.Tendencias(context.Background(), estadisticas.TendenciasRequest{})
	require.NoError(t, err)
	assert.Len(t, series, estadisticas.DefaultTendenciaMeses)
	assert.Equal(t, 1, series[0].Mes)
}

func TestDeudaPorZona(t *testing.T) {
	svc, _ := newService(t)

	zonas, err := svc.DeudaPorZona(context.Background())
	require.NoError(t, err)
	require.Len(t, zonas, 2)

	assert.Equal(t, "Norte", zonas[0].Zona)
	require.NotNil(t, zonas[0].ZonaID)
	assert.Equal(t, int64(2), zonas[0].Clientes)
	assert.Equal(t, int64(3), zonas[0].BoletasImpagas)
	assert.Equal(t, "7700", zonas[0].Deuda.String())

	assert.Equal(t, "Sin zona", zonas[1].Zona)
	assert.Nil(t, zonas[1].ZonaID)
	assert.Equal(t, "900.5", zonas[1].Deuda.String())
}

func TestTopDeudaClientes(t *testing.T) {
	svc, data := newService(t)

	top, err := svc.TopDeudaClientes(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, data.beto.ID.String(), top[0].UsuarioID)
	assert.Equal(t, "6100", top[0].Deuda.String())
	assert.Equal(t, int64(2), top[0].BoletasImpagas)
	assert.Equal(t, string(estadodomain.EstadoAvisoDeuda), top[0].EstadoServicio)
	assert.Equal(t, data.ana.ID.String(), top[1].UsuarioID)

	_, err = svc.TopDeudaClientes(context.Background(), 500)
	assert.ErrorIs(t, err, estadisticas.ErrInvalidLimit)
}

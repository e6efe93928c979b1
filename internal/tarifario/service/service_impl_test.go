package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	usuariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (tarifariodomain.Service, *gorm.DB, *testutil.Fixtures) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		UsuarioRepo: usuariorepo.Provide(),
		Auditoria:   testutil.Auditoria(db, node, clk),
	})
	return svc, db, testutil.NewFixtures(t, db, node, clk.Now())
}

func hasta(v int) *int { return &v }

func actualizarRequest(nombre string, base int64) tarifariodomain.ActualizarRequest {
	monto := decimal.NewFromInt(2500)
	return tarifariodomain.ActualizarRequest{
		Nombre: nombre,
		ConceptosFijos: []tarifariodomain.ConceptoFijoDTO{
			{TipoCliente: "residencial", Nombre: "Servicio base", Monto: decimal.NewFromInt(base)},
			{TipoCliente: "Comercial", Nombre: "Servicio base", Monto: decimal.NewFromInt(base * 2)},
		},
		EscalasConsumo: []tarifariodomain.EscalaDTO{
			{TipoCliente: "residencial", DesdeM3: 0, HastaM3: hasta(10), PrecioPorM3: decimal.Zero},
			{TipoCliente: "residencial", DesdeM3: 11, PrecioPorM3: decimal.NewFromInt(200)},
			{TipoCliente: "comercial", DesdeM3: 0, PrecioPorM3: decimal.NewFromInt(300)},
		},
		CargosExtras: []tarifariodomain.CargoExtraDTO{
			{Nombre: "Visita técnica", Monto: &monto},
			{Nombre: "Conexión", Monto: nil},
		},
	}
}

func TestActualizarActivo_ReplacesVersion(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	_, err := svc.GetActivo(ctx)
	assert.ErrorIs(t, err, tarifariodomain.ErrSinTarifarioActivo)

	first, err := svc.ActualizarActivo(ctx, actualizarRequest("2024", 5000))
	require.NoError(t, err)
	assert.True(t, first.Activo)
	assert.Len(t, first.EscalasConsumo, 3)

	got, err := svc.GetActivo(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	second, err := svc.ActualizarActivo(ctx, actualizarRequest("2024 bis", 6000))
	require.NoError(t, err)

	vigente, err := svc.Vigente(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, vigente.Tarifario.ID.String())

	var activos int64
	require.NoError(t, db.Model(&tarifariodomain.Tarifario{}).Where("activo = ?", true).Count(&activos).Error)
	assert.Equal(t, int64(1), activos)

	cargos, err := svc.ListCargosExtras(ctx)
	require.NoError(t, err)
	assert.Len(t, cargos, 2)
}

func TestActualizarActivo_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	req := actualizarRequest("x", 5000)
	req.ConceptosFijos = nil
	_, err := svc.ActualizarActivo(ctx, req)
	assert.ErrorIs(t, err, tarifariodomain.ErrConceptosVacios)

	req = actualizarRequest("x", 5000)
	req.EscalasConsumo[1].DesdeM3 = 12
	_, err = svc.ActualizarActivo(ctx, req)
	var gap *calculo.EscalasNoContiguasError
	assert.True(t, errors.As(err, &gap))

	req = actualizarRequest("x", 5000)
	req.ConceptosFijos[0].TipoCliente = "industrial"
	_, err = svc.ActualizarActivo(ctx, req)
	assert.ErrorIs(t, err, tarifariodomain.ErrInvalidTipoCliente)

	_, err = svc.GetActivo(ctx)
	assert.ErrorIs(t, err, tarifariodomain.ErrSinTarifarioActivo)
}

func TestConfiguracion(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	def, err := svc.GetConfiguracion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, def.AvisoDeudaMeses)
	assert.Equal(t, tarifariodomain.MaxCuotasReconexion, def.ReconexionCuotasMax)

	seis := 6
	_, err = svc.ActualizarConfiguracion(ctx, tarifariodomain.ConfiguracionRequest{ReconexionCuotasMax: &seis})
	assert.ErrorIs(t, err, tarifariodomain.ErrInvalidCuotasMax)

	negativo := decimal.NewFromInt(-1)
	_, err = svc.ActualizarConfiguracion(ctx, tarifariodomain.ConfiguracionRequest{RecargoMoraMonto: &negativo})
	assert.ErrorIs(t, err, tarifariodomain.ErrInvalidMonto)

	tres := 3
	mora := decimal.NewFromInt(800)
	activo := true
	saved, err := svc.ActualizarConfiguracion(ctx, tarifariodomain.ConfiguracionRequest{
		AvisoDeudaMeses:   &tres,
		RecargoMoraMonto:  &mora,
		RecargoMoraActivo: &activo,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, saved.AvisoDeudaMeses)
	assert.Equal(t, 3, saved.AvisoCorteMeses)
	assert.True(t, saved.RecargoMoraActivo)

	stored, err := svc.Configuracion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.AvisoDeudaMeses)
	assert.True(t, stored.RecargoMoraMonto.Equal(mora))
}

func TestAplicarCargo(t *testing.T) {
	svc, _, f := newService(t)
	ctx := context.Background()

	_, err := svc.ActualizarActivo(ctx, actualizarRequest("2024", 5000))
	require.NoError(t, err)
	cargos, err := svc.ListCargosExtras(ctx)
	require.NoError(t, err)
	var visita, conexion string
	for _, c := range cargos {
		switch c.Nombre {
		case "Visita técnica":
			visita = c.ID
		case "Conexión":
			conexion = c.ID
		}
	}

	u := f.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	op := f.Interno("Op", "op@agua.test", usuariodomain.RolOperario)

	c, err := svc.AplicarCargo(ctx, tarifariodomain.AplicarCargoRequest{UsuarioID: u.ID.String(), CargoExtraID: &visita})
	require.NoError(t, err)
	assert.Equal(t, "Visita técnica", c.Concepto)
	assert.True(t, c.Monto.Equal(decimal.NewFromInt(2500)))
	assert.Nil(t, c.BoletaID)

	_, err = svc.AplicarCargo(ctx, tarifariodomain.AplicarCargoRequest{UsuarioID: u.ID.String(), CargoExtraID: &conexion})
	assert.ErrorIs(t, err, tarifariodomain.ErrInvalidMonto)

	monto := decimal.RequireFromString("12000.456")
	c, err = svc.AplicarCargo(ctx, tarifariodomain.AplicarCargoRequest{UsuarioID: u.ID.String(), CargoExtraID: &conexion, Monto: &monto})
	require.NoError(t, err)
	assert.Equal(t, "12000.46", c.Monto.StringFixed(2))

	_, err = svc.AplicarCargo(ctx, tarifariodomain.AplicarCargoRequest{UsuarioID: u.ID.String(), Monto: &monto})
	assert.ErrorIs(t, err, tarifariodomain.ErrInvalidConcepto)

	_, err = svc.AplicarCargo(ctx, tarifariodomain.AplicarCargoRequest{UsuarioID: op.ID.String(), Concepto: "x", Monto: &monto})
	assert.ErrorIs(t, err, tarifariodomain.ErrUsuarioNoCliente)
}

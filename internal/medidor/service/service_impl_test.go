package service

import (
	"context"
	"testing"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/medidor/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	usuariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsignarYBaja(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.April, 10, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		UsuarioRepo: usuariorepo.Provide(),
		Auditoria:   testutil.Auditoria(db, node, clk),
	})
	f := testutil.NewFixtures(t, db, node, clk.Now())
	ctx := context.Background()

	u := f.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	otro := f.Cliente("Bruno", "10-0002", usuariodomain.TipoResidencial)
	op := f.Interno("Op", "op@agua.test", usuariodomain.RolOperario)
	instalacion := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	inicial := decimal.NewFromInt(120)

	_, err := svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: u.ID.String(), FechaInstalacion: instalacion})
	assert.ErrorIs(t, err, medidordomain.ErrInvalidSerie)
	_, err = svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: u.ID.String(), NumeroSerie: "MED-1"})
	assert.ErrorIs(t, err, medidordomain.ErrInvalidFecha)
	neg := decimal.NewFromInt(-1)
	_, err = svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: u.ID.String(), NumeroSerie: "MED-1", FechaInstalacion: instalacion, LecturaInicial: &neg})
	assert.ErrorIs(t, err, medidordomain.ErrInvalidLecturaInicial)
	_, err = svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: op.ID.String(), NumeroSerie: "MED-1", FechaInstalacion: instalacion})
	assert.ErrorIs(t, err, medidordomain.ErrUsuarioNoCliente)

	m, err := svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: u.ID.String(), NumeroSerie: " MED-1 ", FechaInstalacion: instalacion, LecturaInicial: &inicial})
	require.NoError(t, err)
	assert.Equal(t, "MED-1", m.NumeroSerie)
	assert.True(t, m.Activo)
	assert.True(t, m.LecturaInicial.Equal(inicial))

	_, err = svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: u.ID.String(), NumeroSerie: "MED-2", FechaInstalacion: instalacion})
	assert.ErrorIs(t, err, medidordomain.ErrMedidorActivoExistente)
	_, err = svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: otro.ID.String(), NumeroSerie: "MED-1", FechaInstalacion: instalacion})
	assert.ErrorIs(t, err, medidordomain.ErrSerieEnUso)

	check, err := svc.VerificarSerie(ctx, "MED-1")
	require.NoError(t, err)
	assert.False(t, check.Disponible)
	check, err = svc.VerificarSerie(ctx, "MED-9")
	require.NoError(t, err)
	assert.True(t, check.Disponible)

	_, err = svc.DarDeBaja(ctx, medidordomain.BajaRequest{ID: m.ID})
	assert.ErrorIs(t, err, medidordomain.ErrMotivoRequerido)

	baja, err := svc.DarDeBaja(ctx, medidordomain.BajaRequest{ID: m.ID, Motivo: "Rotura"})
	require.NoError(t, err)
	assert.False(t, baja.Activo)
	assert.Equal(t, "Rotura", *baja.MotivoBaja)

	_, err = svc.DarDeBaja(ctx, medidordomain.BajaRequest{ID: m.ID, Motivo: "Otra"})
	assert.ErrorIs(t, err, medidordomain.ErrMedidorInactivo)

	reemplazo, err := svc.Asignar(ctx, medidordomain.AsignarRequest{UsuarioID: u.ID.String(), NumeroSerie: "MED-2", FechaInstalacion: instalacion.AddDate(0, 0, 5)})
	require.NoError(t, err)
	assert.True(t, reemplazo.LecturaInicial.IsZero())

	historial, err := svc.ListPorUsuario(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Len(t, historial, 2)

	activos, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, activos, 1)
}

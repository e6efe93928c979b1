package service

import (
	"context"
	"testing"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/lectura/repository"
	medidorrepo "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistrar_ChainsReadings(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.May, 30, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		MedidorRepo: medidorrepo.Provide(),
		Auditoria:   testutil.Auditoria(db, node, clk),
	})
	f := testutil.NewFixtures(t, db, node, clk.Now())
	ctx := context.Background()

	u := f.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	op := f.Interno("Op", "op@agua.test", usuariodomain.RolOperario)
	m := f.Medidor(u, "MED-1", decimal.NewFromInt(100))
	medidorID := m.ID.String()

	abril := time.Date(2024, time.April, 28, 10, 0, 0, 0, time.UTC)
	primera, err := svc.Registrar(ctx, lecturadomain.RegistrarRequest{
		MedidorID:     medidorID,
		LecturaActual: decimal.NewFromInt(112),
		FechaLectura:  abril,
		OperarioID:    op.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, primera.LecturaAnterior.Equal(decimal.NewFromInt(100)))
	assert.True(t, primera.ConsumoM3.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, 4, primera.Mes)
	assert.Equal(t, 2024, primera.Anio)
	if assert.NotNil(t, primera.OperarioID) {
		assert.Equal(t, op.ID.String(), *primera.OperarioID)
	}

	_, err = svc.Registrar(ctx, lecturadomain.RegistrarRequest{MedidorID: medidorID, LecturaActual: decimal.NewFromInt(130), FechaLectura: abril.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, lecturadomain.ErrLecturaPeriodoExistente)

	mayo := abril.AddDate(0, 1, 0)
	_, err = svc.Registrar(ctx, lecturadomain.RegistrarRequest{MedidorID: medidorID, LecturaActual: decimal.NewFromInt(111), FechaLectura: mayo})
	assert.ErrorIs(t, err, lecturadomain.ErrLecturaMenorAnterior)

	segunda, err := svc.Registrar(ctx, lecturadomain.RegistrarRequest{MedidorID: medidorID, LecturaActual: decimal.RequireFromString("130.5"), FechaLectura: mayo})
	require.NoError(t, err)
	assert.True(t, segunda.LecturaAnterior.Equal(decimal.NewFromInt(112)))
	assert.True(t, segunda.ConsumoM3.Equal(decimal.RequireFromString("18.5")))

	ultima, err := svc.Ultima(ctx, medidorID)
	require.NoError(t, err)
	assert.Equal(t, segunda.ID, ultima.ID)

	items, err := svc.List(ctx, medidorID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.Registrar(ctx, lecturadomain.RegistrarRequest{MedidorID: medidorID, LecturaActual: decimal.NewFromInt(140)})
	assert.ErrorIs(t, err, lecturadomain.ErrInvalidFecha)
	_, err = svc.Registrar(ctx, lecturadomain.RegistrarRequest{MedidorID: "x", LecturaActual: decimal.NewFromInt(140), FechaLectura: mayo})
	assert.ErrorIs(t, err, lecturadomain.ErrInvalidMedidor)

	require.NoError(t, db.Model(m).Update("activo", false).Error)
	_, err = svc.Registrar(ctx, lecturadomain.RegistrarRequest{MedidorID: medidorID, LecturaActual: decimal.NewFromInt(140), FechaLectura: mayo.AddDate(0, 1, 0)})
	assert.ErrorIs(t, err, lecturadomain.ErrMedidorInactivo)
}

package service

import (
	"context"
	"testing"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	boletarepo "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	medidorrepo "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	zonarepo "github.com/AxelFernandez/agua-andre-sub000/internal/zona/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db  *gorm.DB
	fx  *testutil.Fixtures
	svc usuariodomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		ZonaRepo:    zonarepo.Provide(db),
		MedidorRepo: medidorrepo.Provide(),
		BoletaRepo:  boletarepo.Provide(),
		Auditoria:   testutil.Auditoria(db, node, clk),
	})
	return &harness{db: db, fx: testutil.NewFixtures(t, db, node, clk.Now()), svc: svc}
}

func ptr[T any](v T) *T { return &v }

func TestCreateCliente_AssignsPadronFromZona(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zona := h.fx.Zona("Centro", 10)
	zonaID := zona.ID.String()

	siguiente, err := h.svc.SiguientePadron(ctx, zonaID)
	require.NoError(t, err)
	assert.Equal(t, "10-0001", siguiente)

	first, err := h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Ana", ZonaID: &zonaID})
	require.NoError(t, err)
	assert.Equal(t, "10-0001", *first.Padron)
	assert.Equal(t, "cliente", first.Rol)
	assert.Equal(t, "residencial", first.TipoCliente)
	assert.Equal(t, "ACTIVO", first.EstadoServicio)
	if assert.NotNil(t, first.Zona) {
		assert.Equal(t, 10, first.Zona.Valor)
	}

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Manual", Padron: ptr("10-0036")})
	require.NoError(t, err)

	next, err := h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Bruno", ZonaID: &zonaID, TipoCliente: "Comercial"})
	require.NoError(t, err)
	assert.Equal(t, "10-0037", *next.Padron)
	assert.Equal(t, "comercial", next.TipoCliente)

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Dup", Padron: ptr("10-0036")})
	assert.ErrorIs(t, err, usuariodomain.ErrPadronEnUso)

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Sin zona"})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidZona)

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Malo", Padron: ptr("abc")})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidPadron)

	got, err := h.svc.GetByPadron(ctx, "10-0037")
	require.NoError(t, err)
	assert.Equal(t, next.ID, got.ID)
}

func TestCreateInterno_RequiresCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Op", Rol: "operario"})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidEmail)

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Op", Rol: "operario", Email: ptr("op@agua.test"), Password: ptr("corta")})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidPassword)

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Op", Rol: "jefe", Email: ptr("op@agua.test")})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidRol)

	op, err := h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Op", Rol: "Operario", Email: ptr(" OP@agua.test "), Password: ptr("secreto123")})
	require.NoError(t, err)
	assert.Equal(t, "op@agua.test", *op.Email)
	assert.Nil(t, op.Padron)

	_, err = h.svc.Create(ctx, usuariodomain.CreateRequest{Nombre: "Otro", Rol: "administrativo", Email: ptr("op@agua.test"), Password: ptr("secreto123")})
	assert.ErrorIs(t, err, usuariodomain.ErrEmailEnUso)

	internos, err := h.svc.List(ctx, usuariodomain.ListRequest{Rol: "operario"})
	require.NoError(t, err)
	assert.Len(t, internos, 1)
}

func TestDeleteAndBaja(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	nuevo := h.fx.Cliente("Nuevo", "10-0001", usuariodomain.TipoResidencial)
	facturado := h.fx.Cliente("Facturado", "10-0002", usuariodomain.TipoResidencial)
	h.fx.Boleta(facturado, 1, 2024, decimal.NewFromInt(5000), boletadomain.EstadoPagada)

	require.NoError(t, h.svc.Delete(ctx, nuevo.ID.String()))
	_, err := h.svc.GetByID(ctx, nuevo.ID.String())
	assert.ErrorIs(t, err, usuariodomain.ErrNotFound)

	assert.ErrorIs(t, h.svc.Delete(ctx, facturado.ID.String()), usuariodomain.ErrTieneBoletas)

	_, err = h.svc.DarDeBajaServicio(ctx, usuariodomain.BajaServicioRequest{ID: facturado.ID.String()})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidMotivo)

	baja, err := h.svc.DarDeBajaServicio(ctx, usuariodomain.BajaServicioRequest{ID: facturado.ID.String(), Motivo: "Mudanza"})
	require.NoError(t, err)
	assert.True(t, baja.ServicioDadoDeBaja)
	assert.NotNil(t, baja.FechaBajaServicio)

	_, err = h.svc.DarDeBajaServicio(ctx, usuariodomain.BajaServicioRequest{ID: facturado.ID.String(), Motivo: "Otra vez"})
	assert.ErrorIs(t, err, usuariodomain.ErrYaDadoDeBaja)
}

func TestUpdateCliente(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)

	updated, err := h.svc.Update(ctx, usuariodomain.UpdateRequest{
		ID:          u.ID.String(),
		Direccion:   ptr(" San Martín 123 "),
		TipoCliente: ptr("comercial"),
	})
	require.NoError(t, err)
	assert.Equal(t, "San Martín 123", updated.Direccion)
	assert.Equal(t, "comercial", updated.TipoCliente)

	_, err = h.svc.Update(ctx, usuariodomain.UpdateRequest{ID: u.ID.String(), Password: ptr("secreto123")})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidPassword)

	_, err = h.svc.Update(ctx, usuariodomain.UpdateRequest{ID: u.ID.String(), TipoCliente: ptr("industrial")})
	assert.ErrorIs(t, err, usuariodomain.ErrInvalidTipoCliente)
}

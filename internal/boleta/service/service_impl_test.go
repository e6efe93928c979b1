package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/render"
	boletarepo "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	lecturarepo "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/repository"
	medidorrepo "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	tarifariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/repository"
	tarifarioservice "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/service"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	usuariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db    *gorm.DB
	clock *clock.FakeClock
	fx    *testutil.Fixtures
	svc   boletadomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	operacion := config.DefaultOperacionConfig()
	operacion.Facturacion.WorkersMasivo = 1
	return newHarnessWith(t, operacion)
}

func newHarnessWith(t *testing.T, operacion config.OperacionConfig) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.November, 2, 9, 0, 0, 0, time.UTC))
	audit := testutil.Auditoria(db, node, clk)
	usuarios := usuariorepo.Provide()
	tarifarios := tarifariorepo.Provide()

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clk,
		Repo:          boletarepo.Provide(),
		UsuarioRepo:   usuarios,
		MedidorRepo:   medidorrepo.Provide(),
		LecturaRepo:   lecturarepo.Provide(),
		TarifarioRepo: tarifarios,
		Tarifario: tarifarioservice.New(tarifarioservice.Params{
			DB:          db,
			Log:         zap.NewNop(),
			GenID:       node,
			Clock:       clk,
			Repo:        tarifarios,
			UsuarioRepo: usuarios,
			Auditoria:   audit,
		}),
		Auditoria: audit,
		Operacion: config.NewStaticOperacionConfigHolder(operacion),
		Renderer:  render.NewRenderer(),
		PDF:       pdf.New(),
	})

	f := testutil.NewFixtures(t, db, node, clk.Now())
	f.Tarifario()
	return &harness{db: db, clock: clk, fx: f, svc: svc}
}

func TestGenerarIndividual_ComposesFromLectura(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana Pérez", "10-0036", usuariodomain.TipoResidencial)
	m := h.fx.Medidor(u, "MED-001", decimal.NewFromInt(100))
	h.fx.Lectura(m, decimal.NewFromInt(100), decimal.NewFromInt(125), 10, 2024)

	b, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 10, Anio: 2024})
	require.NoError(t, err)

	assert.Equal(t, "B-202410-000001", b.Numero)
	assert.Equal(t, boletadomain.EstadoPendiente, b.Estado)
	assert.True(t, b.TieneMedidor)
	assert.True(t, b.ConsumoM3.Equal(decimal.NewFromInt(25)))
	assert.True(t, b.MontoServicioBase.Equal(decimal.NewFromInt(5000)))
	// 10 m³ included, 10 m³ at 150, 5 m³ at 250
	assert.True(t, b.MontoConsumo.Equal(decimal.NewFromInt(2750)), b.MontoConsumo.String())
	assert.True(t, b.Total.Equal(decimal.NewFromInt(7750)), b.Total.String())
	assert.Len(t, b.DesgloseConsumo, 3)
	assert.Equal(t, h.clock.Now().AddDate(0, 0, 10), b.FechaVencimiento.UTC())
	if assert.NotNil(t, b.Lectura) {
		assert.Equal(t, "MED-001", b.Lectura.NumeroSerie)
	}
	if assert.NotNil(t, b.Usuario) {
		assert.Equal(t, "10-0036", *b.Usuario.Padron)
	}

	var audits int64
	h.db.Model(&auditoriadomain.Registro{}).Where("modulo = ?", "boletas").Count(&audits)
	assert.Equal(t, int64(1), audits)

	_, err = h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 10, Anio: 2024})
	assert.ErrorIs(t, err, boletadomain.ErrBoletaExistente)
}

func TestGenerarIndividual_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: "1", Mes: 13, Anio: 2024})
	assert.ErrorIs(t, err, boletadomain.ErrInvalidPeriodo)

	_, err = h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: "abc", Mes: 10, Anio: 2024})
	assert.ErrorIs(t, err, boletadomain.ErrInvalidUsuario)

	op := h.fx.Interno("Operario", "op@agua.local", usuariodomain.RolOperario)
	_, err = h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: op.ID.String(), Mes: 10, Anio: 2024})
	assert.ErrorIs(t, err, boletadomain.ErrUsuarioNoElegible)
}

func TestGenerarMasivo_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	h.fx.Cliente("Bruno", "10-0002", usuariodomain.TipoComercial)
	baja := h.fx.Cliente("Carla", "10-0003", usuariodomain.TipoResidencial)
	require.NoError(t, h.db.Model(&usuariodomain.Usuario{}).Where("id = ?", baja.ID).
		Update("servicio_dado_de_baja", true).Error)

	req := boletadomain.GenerarMasivoRequest{Mes: 10, Anio: 2024}
	first, err := h.svc.GenerarMasivo(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalClientes)
	assert.Equal(t, 2, first.BoletasGeneradas)
	assert.Zero(t, first.BoletasExistentes)
	assert.Empty(t, first.Errores)

	second, err := h.svc.GenerarMasivo(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, second.BoletasGeneradas)
	assert.Equal(t, 2, second.BoletasExistentes)

	var count int64
	h.db.Model(&boletadomain.Boleta{}).Count(&count)
	assert.Equal(t, int64(2), count)

	items, err := h.svc.ListPeriodo(ctx, boletadomain.PeriodoRequest{Mes: 10, Anio: 2024})
	require.NoError(t, err)
	numeros := []string{items[0].Numero, items[1].Numero}
	assert.ElementsMatch(t, []string{"B-202410-000001", "B-202410-000002"}, numeros)
}

func TestRecalcular(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	m := h.fx.Medidor(u, "MED-009", decimal.Zero)

	b, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 10, Anio: 2024})
	require.NoError(t, err)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(5000)))
	assert.Nil(t, b.Lectura)

	h.fx.Lectura(m, decimal.Zero, decimal.NewFromInt(25), 10, 2024)
	recalculada, err := h.svc.Recalcular(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Numero, recalculada.Numero)
	assert.True(t, recalculada.Total.Equal(decimal.NewFromInt(7750)), recalculada.Total.String())

	var audit auditoriadomain.Registro
	require.NoError(t, h.db.Where("accion = ?", auditoriadomain.AccionRecalculo).First(&audit).Error)

	require.NoError(t, h.db.Model(&boletadomain.Boleta{}).Where("id = ?", b.ID).
		Update("estado", boletadomain.EstadoPagada).Error)
	_, err = h.svc.Recalcular(ctx, b.ID)
	assert.ErrorIs(t, err, boletadomain.ErrBoletaNoRecalculable)
}

func TestGenerar_IncludesCargosAndCuota(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	node := testutil.Node(t)

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	plan := h.fx.Plan(u, decimal.NewFromInt(74000), 5)
	cargo := &tarifariodomain.CargoAplicado{
		ID:        node.Generate(),
		UsuarioID: u.ID,
		Concepto:  "Reparación de vereda",
		Monto:     decimal.NewFromInt(1200),
		CreatedAt: h.clock.Now(),
	}
	require.NoError(t, h.db.Create(cargo).Error)

	b, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 11, Anio: 2024})
	require.NoError(t, err)

	assert.False(t, b.TieneMedidor)
	assert.True(t, b.TotalCargosExtras.Equal(decimal.NewFromInt(1200)))
	if assert.NotNil(t, b.CuotaPlanNumero) {
		assert.Equal(t, 1, *b.CuotaPlanNumero)
	}
	assert.True(t, b.MontoCuotaPlan.Equal(decimal.NewFromInt(14800)))
	assert.True(t, b.Total.Equal(decimal.NewFromInt(5000+1200+14800)), b.Total.String())

	var stored tarifariodomain.PlanReconexion
	require.NoError(t, h.db.First(&stored, "id = ?", plan.ID).Error)
	assert.Equal(t, 1, stored.CuotasFacturadas)

	var asignado tarifariodomain.CargoAplicado
	require.NoError(t, h.db.First(&asignado, "id = ?", cargo.ID).Error)
	if assert.NotNil(t, asignado.BoletaID) {
		assert.Equal(t, b.ID, asignado.BoletaID.String())
	}

	// the charge and the installment survive a recalculation
	recalculada, err := h.svc.Recalcular(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, recalculada.Total.Equal(b.Total))
}

func TestMarcarVencidasAndListPorUsuario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	_, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 9, Anio: 2024})
	require.NoError(t, err)
	_, err = h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 10, Anio: 2024})
	require.NoError(t, err)

	n, err := h.svc.MarcarVencidas(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	h.clock.Advance(11 * 24 * time.Hour)
	n, err = h.svc.MarcarVencidas(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err := h.svc.ListPorUsuario(ctx, u.ID.String())
	require.NoError(t, err)
	if assert.Len(t, items, 2) {
		assert.Equal(t, 10, items[0].Mes)
		assert.Equal(t, boletadomain.EstadoVencida, items[0].Estado)
	}

	vencidas, err := h.svc.List(ctx, boletadomain.ListRequest{Estado: "VENCIDA"})
	require.NoError(t, err)
	assert.Len(t, vencidas, 2)

	_, err = h.svc.List(ctx, boletadomain.ListRequest{Estado: "anulada"})
	assert.ErrorIs(t, err, boletadomain.ErrInvalidEstado)
}

func TestRenderHTMLAndPDF(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	b, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 10, Anio: 2024})
	require.NoError(t, err)

	html, err := h.svc.RenderHTML(ctx, b.ID)
	require.NoError(t, err)
	assert.Contains(t, html, b.Numero)
	assert.Contains(t, html, "Cooperativa de Agua Potable")

	doc, err := h.svc.PDF(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(doc[:4]))

	_, err = h.svc.PDFPeriodo(ctx, boletadomain.PeriodoRequest{Mes: 1, Anio: 2024})
	assert.ErrorIs(t, err, boletadomain.ErrNotFound)
}

func TestGenerarMasivo_CountsPreexisting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	clientes := make([]*usuariodomain.Usuario, 0, 50)
	for i := 1; i <= 50; i++ {
		clientes = append(clientes, h.fx.Cliente("Cliente", fmt.Sprintf("10-%04d", i), usuariodomain.TipoResidencial))
	}
	for _, u := range clientes[:10] {
		_, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 6, Anio: 2024})
		require.NoError(t, err)
	}

	resp, err := h.svc.GenerarMasivo(ctx, boletadomain.GenerarMasivoRequest{Mes: 6, Anio: 2024})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.TotalClientes)
	assert.Equal(t, 40, resp.BoletasGeneradas)
	assert.Equal(t, 10, resp.BoletasExistentes)
	assert.Equal(t, resp.TotalClientes, resp.BoletasGeneradas+resp.BoletasExistentes)

	var count int64
	h.db.Model(&boletadomain.Boleta{}).Where("mes = ? AND anio = ?", 6, 2024).Count(&count)
	assert.Equal(t, int64(50), count)
}

func TestGenerarMasivo_DefaultWorkersOnSQLite(t *testing.T) {
	operacion := config.DefaultOperacionConfig()
	require.Greater(t, operacion.Facturacion.WorkersMasivo, 1)
	h := newHarnessWith(t, operacion)
	ctx := context.Background()

	clientes := make([]*usuariodomain.Usuario, 0, 50)
	for i := 1; i <= 50; i++ {
		clientes = append(clientes, h.fx.Cliente("Cliente", fmt.Sprintf("10-%04d", i), usuariodomain.TipoResidencial))
	}
	for _, u := range clientes[:10] {
		_, err := h.svc.GenerarIndividual(ctx, boletadomain.GenerarRequest{UsuarioID: u.ID.String(), Mes: 6, Anio: 2024})
		require.NoError(t, err)
	}

	resp, err := h.svc.GenerarMasivo(ctx, boletadomain.GenerarMasivoRequest{Mes: 6, Anio: 2024})
	require.NoError(t, err)
	assert.Empty(t, resp.Errores)
	assert.Equal(t, 40, resp.BoletasGeneradas)
	assert.Equal(t, 10, resp.BoletasExistentes)

	var count int64
	require.NoError(t, h.db.Model(&boletadomain.Boleta{}).Where("mes = ? AND anio = ?", 6, 2024).Count(&count).Error)
	assert.Equal(t, int64(50), count)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	boletarepo "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	tarifariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/repository"
	tarifarioservice "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/service"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	usuariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	"github.com/bwmarrin/snowflake"
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
	svc   estadodomain.Service
	mail  *fakeMail
	meses map[snowflake.ID]int
}

type avisoEnviado struct {
	to       []string
	template string
	data     any
}

type fakeMail struct {
	enviados []avisoEnviado
	err      error
}

func (m *fakeMail) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	return m.err
}

func (m *fakeMail) SendTemplate(ctx context.Context, to []string, templateName string, data any) error {
	m.enviados = append(m.enviados, avisoEnviado{to: to, template: templateName, data: data})
	return m.err
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.November, 20, 3, 0, 0, 0, time.UTC))
	audit := testutil.Auditoria(db, node, clk)
	usuarios := usuariorepo.Provide()
	tarifarios := tarifariorepo.Provide()
	mail := &fakeMail{}

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clk,
		UsuarioRepo:   usuarios,
		BoletaRepo:    boletarepo.Provide(),
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
		Email:     mail,
	})

	f := testutil.NewFixtures(t, db, node, clk.Now())
	f.Configuracion(tarifariodomain.DefaultConfiguracion())
	return &harness{db: db, clock: clk, fx: f, svc: svc, mail: mail, meses: map[snowflake.ID]int{}}
}

func (h *harness) estado(t *testing.T, u *usuariodomain.Usuario) estadodomain.Estado {
	t.Helper()
	var stored usuariodomain.Usuario
	require.NoError(t, h.db.First(&stored, "id = ?", u.ID).Error)
	return stored.EstadoServicio
}

func (h *harness) vencidas(u *usuariodomain.Usuario, n int) {
	for i := 0; i < n; i++ {
		h.meses[u.ID]++
		h.fx.Boleta(u, h.meses[u.ID], 2024, decimal.NewFromInt(10000), boletadomain.EstadoVencida)
	}
}

func TestVerificarEstados_EscalatesOneStepPerRun(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := h.clock.Now()

	deudor := h.fx.Cliente("Deudor", "10-0001", usuariodomain.TipoResidencial)
	h.vencidas(deudor, 2)

	alDia := h.fx.Cliente("Al día", "10-0002", usuariodomain.TipoResidencial)
	h.vencidas(alDia, 1)

	avisado := h.fx.Cliente("Avisado", "10-0003", usuariodomain.TipoResidencial)
	h.fx.Estado(avisado, estadodomain.EstadoAvisoDeuda, now.AddDate(0, 0, -20))
	h.vencidas(avisado, 3)

	reciente := h.fx.Cliente("Reciente", "10-0004", usuariodomain.TipoResidencial)
	h.fx.Estado(reciente, estadodomain.EstadoAvisoDeuda, now.AddDate(0, 0, -5))
	h.vencidas(reciente, 3)

	aCortar := h.fx.Cliente("A cortar", "10-0005", usuariodomain.TipoComercial)
	h.fx.Estado(aCortar, estadodomain.EstadoAvisoCorte, now.AddDate(0, 0, -30))
	h.vencidas(aCortar, 1)

	resp, err := h.svc.VerificarEstados(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Evaluados)
	assert.Len(t, resp.Transiciones, 3)

	assert.Equal(t, estadodomain.EstadoAvisoDeuda, h.estado(t, deudor))
	assert.Equal(t, estadodomain.EstadoActivo, h.estado(t, alDia))
	assert.Equal(t, estadodomain.EstadoAvisoCorte, h.estado(t, avisado))
	assert.Equal(t, estadodomain.EstadoAvisoDeuda, h.estado(t, reciente))
	assert.Equal(t, estadodomain.EstadoCortado, h.estado(t, aCortar))

	var audits int64
	require.NoError(t, h.db.Model(&auditoriadomain.Registro{}).Where("modulo = ?", "estados_servicio").Count(&audits).Error)
	assert.Equal(t, int64(3), audits)

	again, err := h.svc.VerificarEstados(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Transiciones)

	h.clock.Advance(16 * 24 * time.Hour)
	later, err := h.svc.VerificarEstados(ctx)
	require.NoError(t, err)
	assert.Equal(t, estadodomain.EstadoAvisoCorte, h.estado(t, deudor), "two vencidas stay below the corte threshold")
	assert.Equal(t, estadodomain.EstadoCortado, h.estado(t, avisado))
	assert.Equal(t, estadodomain.EstadoAvisoCorte, h.estado(t, reciente))
	assert.Len(t, later.Transiciones, 2)
}

func TestVerificarEstados_MontoThreshold(t *testing.T) {
	h := newHarness(t)
	cfg := tarifariodomain.DefaultConfiguracion()
	cfg.AvisoDeudaMeses = 0
	cfg.AvisoDeudaMonto = decimal.NewFromInt(15000)
	h.fx.Configuracion(cfg)

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	h.vencidas(u, 1)

	resp, err := h.svc.VerificarEstados(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Transiciones)

	h.vencidas(u, 2)
	resp, err = h.svc.VerificarEstados(context.Background())
	require.NoError(t, err)
	if assert.Len(t, resp.Transiciones, 1) {
		assert.Equal(t, "10-0001", resp.Transiciones[0].Padron)
		assert.Equal(t, estadodomain.EstadoActivo, resp.Transiciones[0].Desde)
		assert.Equal(t, estadodomain.EstadoAvisoDeuda, resp.Transiciones[0].Hacia)
	}
}

func TestVerificarEstados_MailsCustomersWithEmail(t *testing.T) {
	h := newHarness(t)
	now := h.clock.Now()

	conMail := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	require.NoError(t, h.db.Model(&usuariodomain.Usuario{}).Where("id = ?", conMail.ID).
		Update("email", "ana@example.com").Error)
	h.fx.Estado(conMail, estadodomain.EstadoAvisoCorte, now.AddDate(0, 0, -30))
	h.vencidas(conMail, 3)

	sinMail := h.fx.Cliente("Bruno", "10-0002", usuariodomain.TipoResidencial)
	h.vencidas(sinMail, 2)

	h.mail.err = errors.New("smtp down")
	resp, err := h.svc.VerificarEstados(context.Background())
	require.NoError(t, err, "delivery failures do not abort the run")
	assert.Len(t, resp.Transiciones, 2)

	require.Len(t, h.mail.enviados, 1)
	enviado := h.mail.enviados[0]
	assert.Equal(t, []string{"ana@example.com"}, enviado.to)
	assert.Equal(t, "servicio_cortado", enviado.template)
	data, ok := enviado.data.(aviso)
	require.True(t, ok)
	assert.Equal(t, "10-0001", data.Padron)
	assert.Equal(t, 3, data.BoletasVencidas)
	assert.Equal(t, "30000.00", data.Deuda)
	assert.Equal(t, estadodomain.EstadoCortado, h.estado(t, conMail))
}

func TestReconectar_Contado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	h.fx.Estado(u, estadodomain.EstadoCortado, h.clock.Now().AddDate(0, -1, 0))
	h.fx.Boleta(u, 9, 2024, decimal.NewFromInt(10000), boletadomain.EstadoPagada)

	resp, err := h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: u.ID.String(), PagoContado: true, CantidadCuotas: 4})
	require.NoError(t, err)
	assert.True(t, resp.MontoTotal.Equal(decimal.NewFromInt(74000)))
	assert.Equal(t, 1, resp.CantidadCuotas)
	assert.True(t, resp.MontoCuota.Equal(decimal.NewFromInt(74000)))
	assert.Equal(t, estadodomain.EstadoActivo, resp.EstadoServicio)
	assert.Equal(t, estadodomain.EstadoActivo, h.estado(t, u))

	var cargos []tarifariodomain.CargoAplicado
	require.NoError(t, h.db.Where("usuario_id = ?", u.ID).Find(&cargos).Error)
	if assert.Len(t, cargos, 1) {
		assert.Equal(t, estadodomain.ConceptoReconexion, cargos[0].Concepto)
		assert.Nil(t, cargos[0].BoletaID)
	}

	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: u.ID.String(), PagoContado: true})
	var invalid *estadodomain.TransicionInvalidaError
	assert.True(t, errors.As(err, &invalid))
}

func TestReconectar_Cuotas(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	h.fx.Estado(u, estadodomain.EstadoCortado, h.clock.Now().AddDate(0, -1, 0))

	_, err := h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: u.ID.String(), CantidadCuotas: 6})
	assert.ErrorIs(t, err, estadodomain.ErrInvalidCuotas)
	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: u.ID.String()})
	assert.ErrorIs(t, err, estadodomain.ErrInvalidCuotas)

	resp, err := h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: u.ID.String(), CantidadCuotas: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.CantidadCuotas)
	assert.True(t, resp.MontoCuota.Equal(decimal.NewFromInt(18500)))

	var plan tarifariodomain.PlanReconexion
	require.NoError(t, h.db.First(&plan, "usuario_id = ?", u.ID).Error)
	assert.True(t, plan.Activo)
	assert.Equal(t, 4, plan.CantidadCuotas)
	assert.Equal(t, 0, plan.CuotasFacturadas)
	assert.True(t, plan.MontoTotal.Equal(decimal.NewFromInt(74000)))
}

func TestReconectar_Refusals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hace := h.clock.Now().AddDate(0, -1, 0)

	activo := h.fx.Cliente("Activo", "10-0001", usuariodomain.TipoResidencial)
	_, err := h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: activo.ID.String(), PagoContado: true})
	var invalid *estadodomain.TransicionInvalidaError
	if assert.True(t, errors.As(err, &invalid)) {
		assert.Contains(t, err.Error(), "Solo se puede reconectar un servicio CORTADO")
	}

	deudor := h.fx.Cliente("Deudor", "10-0002", usuariodomain.TipoResidencial)
	h.fx.Estado(deudor, estadodomain.EstadoCortado, hace)
	h.vencidas(deudor, 1)
	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: deudor.ID.String(), PagoContado: true})
	assert.ErrorIs(t, err, estadodomain.ErrDeudaPendiente)
	assert.Equal(t, estadodomain.EstadoCortado, h.estado(t, deudor))

	conPlan := h.fx.Cliente("Con plan", "10-0003", usuariodomain.TipoResidencial)
	h.fx.Estado(conPlan, estadodomain.EstadoCortado, hace)
	h.fx.Plan(conPlan, decimal.NewFromInt(74000), 2)
	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: conPlan.ID.String(), CantidadCuotas: 2})
	assert.ErrorIs(t, err, estadodomain.ErrPlanActivo)

	interno := h.fx.Interno("Operario", "op@agua.test", usuariodomain.RolOperario)
	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: interno.ID.String(), PagoContado: true})
	assert.ErrorIs(t, err, estadodomain.ErrUsuarioNoCliente)

	baja := h.fx.Cliente("Baja", "10-0004", usuariodomain.TipoResidencial)
	h.fx.Estado(baja, estadodomain.EstadoCortado, hace)
	require.NoError(t, h.db.Model(&usuariodomain.Usuario{}).Where("id = ?", baja.ID).Update("servicio_dado_de_baja", true).Error)
	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: baja.ID.String(), PagoContado: true})
	assert.ErrorIs(t, err, estadodomain.ErrServicioDadoDeBaja)

	_, err = h.svc.Reconectar(ctx, estadodomain.ReconectarRequest{UsuarioID: "nope", PagoContado: true})
	assert.ErrorIs(t, err, estadodomain.ErrInvalidUsuario)
}

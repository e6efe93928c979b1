package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/auditcontext"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	boletarepo "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	pagorepo "github.com/AxelFernandez/agua-andre-sub000/internal/pago/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
	"github.com/AxelFernandez/agua-andre-sub000/internal/storage"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	tarifariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/repository"
	"github.com/AxelFernandez/agua-andre-sub000/internal/testutil"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	usuariorepo "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type harness struct {
	db     *gorm.DB
	fx     *testutil.Fixtures
	fs     afero.Fs
	boleta boletadomain.Repository
	svc    pagodomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, time.June, 12, 15, 0, 0, 0, time.UTC))
	fs := afero.NewMemMapFs()
	boletas := boletarepo.Provide()

	operacion := config.DefaultOperacionConfig()
	operacion.Pagos.ComprobanteMaxBytes = 1024

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clk,
		Repo:          pagorepo.Provide(),
		BoletaRepo:    boletas,
		UsuarioRepo:   usuariorepo.Provide(),
		TarifarioRepo: tarifariorepo.Provide(),
		Auditoria:     testutil.Auditoria(db, node, clk),
		Storage:       storage.NewFS(fs),
		Operacion:     config.NewStaticOperacionConfigHolder(operacion),
		PDF:           pdf.New(),
	})
	return &harness{
		db:     db,
		fx:     testutil.NewFixtures(t, db, node, clk.Now()),
		fs:     fs,
		boleta: boletas,
		svc:    svc,
	}
}

func (h *harness) estado(t *testing.T, id string) boletadomain.Estado {
	t.Helper()
	var b boletadomain.Boleta
	require.NoError(t, h.db.First(&b, "id = ?", id).Error)
	return b.Estado
}

func TestRegistrarEfectivo_PaysBoleta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana Pérez", "10-0036", usuariodomain.TipoResidencial)
	b := h.fx.Boleta(u, 6, 2024, decimal.NewFromInt(15000), boletadomain.EstadoPendiente)

	fecha := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	p, err := h.svc.RegistrarEfectivo(ctx, pagodomain.EfectivoRequest{
		BoletaID:  b.ID.String(),
		Monto:     decimal.RequireFromString("15000.00"),
		FechaPago: &fecha,
	})
	require.NoError(t, err)
	assert.Equal(t, pagodomain.EstadoAprobado, p.Estado)
	assert.Equal(t, pagodomain.MetodoEfectivo, p.Metodo)
	assert.Nil(t, p.ComprobanteURL)
	assert.Equal(t, boletadomain.EstadoPagada, h.estado(t, b.ID.String()))

	stored, err := h.boleta.FindByID(ctx, h.db, b.ID)
	require.NoError(t, err)
	if assert.NotNil(t, stored.FechaPago) {
		assert.True(t, fecha.Equal(*stored.FechaPago))
	}

	_, err = h.svc.RegistrarEfectivo(ctx, pagodomain.EfectivoRequest{BoletaID: b.ID.String(), Monto: decimal.NewFromInt(15000)})
	assert.ErrorIs(t, err, pagodomain.ErrBoletaPagada)

	recibo, err := h.svc.Recibo(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(recibo[:4]))
}

func TestRegistrarEfectivo_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	b := h.fx.Boleta(u, 6, 2024, decimal.NewFromInt(15000), boletadomain.EstadoVencida)

	_, err := h.svc.RegistrarEfectivo(ctx, pagodomain.EfectivoRequest{BoletaID: b.ID.String(), Monto: decimal.Zero})
	assert.ErrorIs(t, err, pagodomain.ErrInvalidMonto)

	_, err = h.svc.RegistrarEfectivo(ctx, pagodomain.EfectivoRequest{BoletaID: b.ID.String(), Monto: decimal.NewFromInt(14999)})
	assert.ErrorIs(t, err, pagodomain.ErrMontoInsuficiente)

	_, err = h.svc.RegistrarEfectivo(ctx, pagodomain.EfectivoRequest{BoletaID: "x", Monto: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, pagodomain.ErrInvalidBoleta)

	assert.Equal(t, boletadomain.EstadoVencida, h.estado(t, b.ID.String()))
}

func TestComprobante_ReviewFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	b := h.fx.Boleta(u, 6, 2024, decimal.NewFromInt(15000), boletadomain.EstadoPendiente)

	p, err := h.svc.RegistrarComprobante(ctx, pagodomain.ComprobanteRequest{
		BoletaID:      b.ID.String(),
		Monto:         decimal.NewFromInt(15000),
		NombreArchivo: "transferencia.png",
		Archivo:       bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.Equal(t, pagodomain.EstadoPendienteRevision, p.Estado)
	require.NotNil(t, p.ComprobanteURL)
	assert.Equal(t, "/pagos/comprobante/"+p.ID, *p.ComprobanteURL)
	assert.Equal(t, boletadomain.EstadoProcesando, h.estado(t, b.ID.String()))

	archivo, err := h.svc.Comprobante(ctx, p.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(archivo.Contenido)
	require.NoError(t, archivo.Contenido.Close())
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", archivo.ContentType)

	pendientes, err := h.svc.ListPendientesRevision(ctx)
	require.NoError(t, err)
	if assert.Len(t, pendientes, 1) && assert.NotNil(t, pendientes[0].Boleta) {
		assert.Equal(t, b.Numero, pendientes[0].Boleta.Numero)
	}

	_, err = h.svc.Rechazar(ctx, pagodomain.RechazarRequest{ID: p.ID, Observaciones: "   "})
	assert.ErrorIs(t, err, pagodomain.ErrObservacionesRequeridas)

	rechazado, err := h.svc.Rechazar(ctx, pagodomain.RechazarRequest{ID: p.ID, Observaciones: "Comprobante ilegible"})
	require.NoError(t, err)
	assert.Equal(t, pagodomain.EstadoRechazado, rechazado.Estado)
	assert.Equal(t, "Comprobante ilegible", *rechazado.Observaciones)
	assert.Equal(t, boletadomain.EstadoPendiente, h.estado(t, b.ID.String()))

	_, err = h.svc.Aprobar(ctx, p.ID)
	assert.ErrorIs(t, err, pagodomain.ErrPagoNoPendiente)

	segundo, err := h.svc.RegistrarComprobante(ctx, pagodomain.ComprobanteRequest{
		BoletaID: b.ID.String(),
		Monto:    decimal.NewFromInt(15000),
		Archivo:  bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	aprobado, err := h.svc.Aprobar(ctx, segundo.ID)
	require.NoError(t, err)
	assert.Equal(t, pagodomain.EstadoAprobado, aprobado.Estado)
	assert.Equal(t, boletadomain.EstadoPagada, h.estado(t, b.ID.String()))

	historial, err := h.svc.ListPorBoleta(ctx, b.ID.String())
	require.NoError(t, err)
	assert.Len(t, historial, 2)
}

func TestComprobante_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	otro := h.fx.Cliente("Bruno", "10-0002", usuariodomain.TipoResidencial)
	b := h.fx.Boleta(u, 6, 2024, decimal.NewFromInt(15000), boletadomain.EstadoPendiente)
	pagada := h.fx.Boleta(u, 5, 2024, decimal.NewFromInt(15000), boletadomain.EstadoPagada)

	req := func(id string, data []byte) pagodomain.ComprobanteRequest {
		return pagodomain.ComprobanteRequest{BoletaID: id, Monto: decimal.NewFromInt(15000), Archivo: bytes.NewReader(data)}
	}

	_, err := h.svc.RegistrarComprobante(ctx, req(b.ID.String(), []byte("texto plano, no es imagen")))
	assert.ErrorIs(t, err, pagodomain.ErrComprobanteTipo)

	_, err = h.svc.RegistrarComprobante(ctx, req(b.ID.String(), append(pngHeader, make([]byte, 2048)...)))
	assert.ErrorIs(t, err, pagodomain.ErrComprobanteTamanio)

	_, err = h.svc.RegistrarComprobante(ctx, req(pagada.ID.String(), pngHeader))
	assert.ErrorIs(t, err, pagodomain.ErrBoletaNoPagable)

	ajeno := auditcontext.WithActor(ctx, auditcontext.ActorTypeUser, otro.ID.String(), string(usuariodomain.RolCliente))
	_, err = h.svc.RegistrarComprobante(ajeno, req(b.ID.String(), pngHeader))
	assert.ErrorIs(t, err, pagodomain.ErrBoletaAjena)

	files, err := afero.ReadDir(h.fs, "comprobantes")
	if err == nil {
		assert.Empty(t, files)
	}
	assert.Equal(t, boletadomain.EstadoPendiente, h.estado(t, b.ID.String()))
}

func TestAprobar_AdvancesPlanReconexion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.fx.Cliente("Ana", "10-0001", usuariodomain.TipoResidencial)
	plan := h.fx.Plan(u, decimal.NewFromInt(20000), 2)
	require.NoError(t, h.db.Model(&tarifariodomain.PlanReconexion{}).Where("id = ?", plan.ID).
		Updates(map[string]any{"cuotas_facturadas": 2, "cuotas_pagadas": 1}).Error)

	b := h.fx.Boleta(u, 6, 2024, decimal.NewFromInt(15000), boletadomain.EstadoPendiente)
	numero := 2
	require.NoError(t, h.db.Model(&boletadomain.Boleta{}).Where("id = ?", b.ID).Updates(map[string]any{
		"plan_reconexion_id": plan.ID,
		"cuota_plan_numero":  numero,
	}).Error)

	_, err := h.svc.RegistrarEfectivo(ctx, pagodomain.EfectivoRequest{BoletaID: b.ID.String(), Monto: decimal.NewFromInt(15000)})
	require.NoError(t, err)

	var stored tarifariodomain.PlanReconexion
	require.NoError(t, h.db.First(&stored, "id = ?", plan.ID).Error)
	assert.Equal(t, 2, stored.CuotasPagadas)
	assert.False(t, stored.Activo)
}

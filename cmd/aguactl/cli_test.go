package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/cliente"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	url   string
	dir   string
	calls atomic.Int32
}

func newHarness(t *testing.T, register func(r *gin.Engine)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{dir: t.TempDir()}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		h.calls.Add(1)
		c.Next()
	})
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	h.url = srv.URL

	store, err := cliente.NewFileStore(h.dir)
	require.NoError(t, err)
	sesion, err := cliente.CargarSesion(store)
	require.NoError(t, err)
	require.NoError(t, sesion.Iniciar(authdomain.LoginResponse{
		AccessToken: "tok-admin",
		Usuario:     authdomain.UsuarioSesion{ID: "1", Nombre: "Admin", Rol: "administrativo"},
	}))
	return h
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	root := newRootCmd(strings.NewReader(stdin))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api-url", h.url, "--session-dir", h.dir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func verificarHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"evaluados": 3,
		"transiciones": []gin.H{
			{"usuarioId": "7", "padron": "10-0036", "desde": "AVISO_CORTE", "hacia": "CORTADO"},
		},
	}})
}

func TestEstadosVerificar_RequiresConfirmation(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/tarifario/verificar-estados", verificarHandler)
	})

	_, err := h.run("n\n", "estados", "verificar")
	assert.ErrorIs(t, err, errCancelado)
	assert.Zero(t, h.calls.Load())

	out, err := h.run("s\n", "estados", "verificar")
	require.NoError(t, err)
	assert.Contains(t, out, "Clientes evaluados: 3")
	assert.Contains(t, out, "10-0036")
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestEstadosVerificar_Yes(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.POST("/tarifario/verificar-estados", verificarHandler)
	})

	out, err := h.run("", "estados", "verificar", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Cambios: 1")
}

func TestPagoRechazar_WithoutObservaciones(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.PUT("/pagos/:id/rechazar", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": c.Param("id"), "estado": "rechazado"}})
		})
	})

	_, err := h.run("", "pago", "rechazar", "5")
	require.Error(t, err)
	assert.Equal(t, "Indique el motivo del rechazo", mensaje(err))
	assert.Zero(t, h.calls.Load())

	out, err := h.run("", "pago", "rechazar", "5", "--observaciones", "Monto incorrecto")
	require.NoError(t, err)
	assert.Contains(t, out, "Pago 5 rechazado")
}

func TestBoleta_PrintsDetail(t *testing.T) {
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/boletas/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": gin.H{
				"id":                  c.Param("id"),
				"numero":              "B-202406-000001",
				"mes":                 6,
				"anio":                2024,
				"tiene_medidor":       false,
				"monto_servicio_base": "12000",
				"subtotal":            "12000",
				"total":               "12000",
				"estado":              "pendiente",
			}})
		})
	})

	out, err := h.run("", "boleta", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "B-202406-000001")
	assert.Contains(t, out, "Junio 2024")
	assert.Contains(t, out, "$ 12000.00")
}

func TestRecalcular_PaidBoletaRefusedLocally(t *testing.T) {
	var recalculos atomic.Int32
	h := newHarness(t, func(r *gin.Engine) {
		r.GET("/boletas/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": c.Param("id"), "estado": "pagada"}})
		})
		r.POST("/tarifario/recalcular-boleta/:id", func(c *gin.Context) {
			recalculos.Add(1)
			c.Status(http.StatusOK)
		})
	})

	_, err := h.run("", "recalcular", "11")
	require.Error(t, err)
	assert.True(t, cliente.EsValidacion(err))
	assert.Zero(t, recalculos.Load())
}

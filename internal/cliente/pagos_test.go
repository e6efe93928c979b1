package cliente

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRechazarPago_EmptyObservacionesNeverSent(t *testing.T) {
	f := newFakeAPI(t)
	f.PUT("/pagos/:id/rechazar", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": c.Param("id"), "estado": "rechazado"}})
	})
	client, _ := newTestClient(t, f, true)

	for _, obs := range []string{"", "   "} {
		_, err := client.RechazarPago(context.Background(), "5", obs)
		require.Error(t, err)
		assert.True(t, EsValidacion(err))
		assert.Equal(t, "Indique el motivo del rechazo", Mensaje(err))
	}
	assert.Zero(t, f.total())

	pago, err := client.RechazarPago(context.Background(), "5", "Comprobante ilegible")
	require.NoError(t, err)
	assert.Equal(t, pagodomain.EstadoRechazado, pago.Estado)
	assert.Equal(t, 1, f.count("PUT /pagos/5/rechazar"))
}

func TestPagoEfectivo_LocalValidation(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newTestClient(t, f, true)

	pendiente := &boletadomain.Response{ID: "11", Estado: boletadomain.EstadoPendiente, Total: decimal.NewFromInt(15000)}
	pagada := &boletadomain.Response{ID: "12", Estado: boletadomain.EstadoPagada, Total: decimal.NewFromInt(15000)}

	tests := []struct {
		name  string
		input PagoEfectivo
		campo string
	}{
		{"sin clave", PagoEfectivo{Boleta: pendiente, Monto: "100"}, "clave"},
		{"sin boleta", PagoEfectivo{Clave: "10-0036", Monto: "100"}, "boletaId"},
		{"boleta pagada", PagoEfectivo{Clave: "10-0036", Boleta: pagada, Monto: "100"}, "boletaId"},
		{"monto no numerico", PagoEfectivo{Clave: "10-0036", Boleta: pendiente, Monto: "abc"}, "monto"},
		{"monto cero", PagoEfectivo{Clave: "10-0036", Boleta: pendiente, Monto: "0"}, "monto"},
		{"monto negativo", PagoEfectivo{Clave: "10-0036", Boleta: pendiente, Monto: "-5"}, "monto"},
		{"miles con coma", PagoEfectivo{Clave: "10-0036", Boleta: pendiente, Monto: "15,000"}, "monto"},
		{"miles con punto", PagoEfectivo{Clave: "10-0036", Boleta: pendiente, Monto: "15.000"}, "monto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.RegistrarPagoEfectivo(context.Background(), tt.input)
			var vErr *ValidacionError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.campo, vErr.Campo)
		})
	}
	assert.Zero(t, f.total())
}

func TestPagoEfectivo_CashierScenario(t *testing.T) {
	f := newFakeAPI(t)
	var mu sync.Mutex
	estado := boletadomain.EstadoPendiente
	boleta := func() boletadomain.Response {
		mu.Lock()
		defer mu.Unlock()
		return boletadomain.Response{
			ID:           "11",
			UsuarioID:    "7",
			Mes:          6,
			Anio:         2024,
			Total:        decimal.RequireFromString("15000.00"),
			Estado:       estado,
			FechaEmision: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	var recibido pagodomain.EfectivoRequest

	f.GET("/usuarios/padron/:padron", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": "7", "padron": c.Param("padron"), "rol": "cliente"}})
	})
	f.GET("/boletas/usuario/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []boletadomain.Response{boleta()}})
	})
	f.GET("/boletas/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": boleta()})
	})
	f.POST("/pagos/efectivo", func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()
		if err := c.ShouldBindJSON(&recibido); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		estado = boletadomain.EstadoPagada
		c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": "90", "boletaId": recibido.BoletaID, "estado": "aprobado", "metodo": "efectivo"}})
	})
	client, _ := newTestClient(t, f, true)
	ctx := context.Background()

	boletas, err := client.BuscarBoletasParaCobro(ctx, "10-0036")
	require.NoError(t, err)
	require.Len(t, boletas, 1)

	fecha := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	cobro, err := client.RegistrarPagoEfectivo(ctx, PagoEfectivo{
		Clave:         "10-0036",
		Boleta:        &boletas[0],
		Monto:         "15000.00",
		FechaPago:     fecha,
		Observaciones: "Pago en ventanilla",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "11", recibido.BoletaID)
	assert.True(t, recibido.Monto.Equal(decimal.NewFromInt(15000)))
	require.NotNil(t, recibido.FechaPago)
	assert.True(t, recibido.FechaPago.Equal(fecha))
	assert.Equal(t, pagodomain.MetodoEfectivo, cobro.Pago.Metodo)
	assert.Equal(t, boletadomain.EstadoPagada, cobro.Boleta.Estado)
	assert.Equal(t, 1, f.count("GET /boletas/11"))
}

func TestPagoEfectivo_DefaultsToBoletaTotal(t *testing.T) {
	f := newFakeAPI(t)
	var (
		mu       sync.Mutex
		recibido pagodomain.EfectivoRequest
	)
	f.POST("/pagos/efectivo", func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()
		_ = c.ShouldBindJSON(&recibido)
		c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": "90"}})
	})
	f.GET("/boletas/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": "11", "estado": "pagada"}})
	})
	client, _ := newTestClient(t, f, true)

	_, err := client.RegistrarPagoEfectivo(context.Background(), PagoEfectivo{
		Clave:  "11",
		Boleta: &boletadomain.Response{ID: "11", Estado: boletadomain.EstadoVencida, Total: decimal.RequireFromString("8450.50")},
	})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "8450.5", recibido.Monto.String())
}

func TestSubirComprobante_RejectsUnsupportedType(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newTestClient(t, f, true)

	_, err := client.SubirComprobante(context.Background(), Comprobante{
		BoletaID: "11",
		Monto:    "15000",
		Nombre:   "notas.txt",
		Datos:    []byte("hola, esto no es un comprobante"),
	})
	assert.True(t, EsValidacion(err))
	assert.Zero(t, f.total())
}

func TestSubirComprobante_SendsMultipart(t *testing.T) {
	f := newFakeAPI(t)
	f.POST("/pagos", func(c *gin.Context) {
		file, err := c.FormFile("comprobante")
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": gin.H{
			"id":             "91",
			"boletaId":       c.PostForm("boletaId"),
			"monto":          c.PostForm("monto"),
			"estado":         "pendiente-revision",
			"metodo":         "transferencia",
			"comprobanteUrl": file.Filename,
		}})
	})
	client, _ := newTestClient(t, f, true)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	pago, err := client.SubirComprobante(context.Background(), Comprobante{BoletaID: "11", Monto: "15000,00", Nombre: "transferencia.pdf", Datos: pdf})
	require.NoError(t, err)
	assert.Equal(t, "11", pago.BoletaID)
	assert.True(t, pago.Monto.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, pagodomain.EstadoPendienteRevision, pago.Estado)
	require.NotNil(t, pago.ComprobanteURL)
	assert.Equal(t, "transferencia.pdf", *pago.ComprobanteURL)
}

func TestParseMonto(t *testing.T) {
	for in, want := range map[string]string{"15000": "15000", "15000.5": "15000.5", "15000,50": "15000.5", " 200 ": "200"} {
		got, ok := parseMonto(in)
		require.True(t, ok, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), in)
	}
	for _, in := range []string{"", "abc", "15,000", "15.000", "1.500,00", "15000,505"} {
		_, ok := parseMonto(in)
		assert.False(t, ok, in)
	}
}

func TestPagoEfectivo_ThousandsGroupingMessage(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newTestClient(t, f, true)
	boleta := &boletadomain.Response{ID: "11", Estado: boletadomain.EstadoPendiente, Total: decimal.NewFromInt(15000)}

	_, err := client.RegistrarPagoEfectivo(context.Background(), PagoEfectivo{Clave: "10-0036", Boleta: boleta, Monto: "15,000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sin separador de miles")
	assert.Zero(t, f.total())
}

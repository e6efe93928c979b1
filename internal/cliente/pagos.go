package cliente

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

// BuscarBoletasParaCobro finds the boletas a cashier can pick from. clave is
// either a padron ("10-0036") or a boleta id.
func (c *Client) BuscarBoletasParaCobro(ctx context.Context, clave string) ([]boletadomain.Response, error) {
	clave = strings.TrimSpace(clave)
	if clave == "" {
		return nil, invalido("clave", "Ingrese un padrón o un número de boleta")
	}
	if _, _, ok := usuariodomain.ParsePadron(clave); ok {
		var u usuariodomain.Response
		if err := c.getJSON(ctx, "/usuarios/padron/"+url.PathEscape(clave), nil, &u); err != nil {
			return nil, err
		}
		return c.BoletasDeUsuario(ctx, u.ID)
	}
	b, err := c.Boleta(ctx, clave)
	if err != nil {
		return nil, err
	}
	return []boletadomain.Response{*b}, nil
}

type PagoEfectivo struct {
	Clave  string
	Boleta *boletadomain.Response
	// Monto defaults to the boleta total when empty.
	Monto         string
	FechaPago     time.Time
	Observaciones string
}

type CobroEfectivo struct {
	Pago   pagodomain.Response
	Boleta boletadomain.Response
}

func (p PagoEfectivo) validar() (decimal.Decimal, error) {
	if strings.TrimSpace(p.Clave) == "" {
		return decimal.Zero, invalido("clave", "Ingrese un padrón o un número de boleta")
	}
	if p.Boleta == nil {
		return decimal.Zero, invalido("boletaId", "Seleccione una boleta")
	}
	if p.Boleta.Estado == boletadomain.EstadoPagada {
		return decimal.Zero, invalido("boletaId", "La boleta ya está pagada")
	}
	if strings.TrimSpace(p.Monto) == "" {
		return p.Boleta.Total, nil
	}
	monto, ok := parseMonto(p.Monto)
	if !ok {
		return decimal.Zero, invalido("monto", mensajeMonto)
	}
	if !monto.IsPositive() {
		return decimal.Zero, invalido("monto", "Ingrese un monto válido mayor a cero")
	}
	return monto, nil
}

// RegistrarPagoEfectivo records an in-person payment and re-reads the boleta
// so the caller sees its new state.
func (c *Client) RegistrarPagoEfectivo(ctx context.Context, p PagoEfectivo) (*CobroEfectivo, error) {
	monto, err := p.validar()
	if err != nil {
		return nil, err
	}
	fecha := p.FechaPago
	if fecha.IsZero() {
		fecha = c.now()
	}

	var pago pagodomain.Response
	req := pagodomain.EfectivoRequest{
		BoletaID:      p.Boleta.ID,
		Monto:         monto,
		FechaPago:     &fecha,
		Observaciones: strings.TrimSpace(p.Observaciones),
	}
	if err := c.doJSON(ctx, http.MethodPost, "/pagos/efectivo", req, &pago); err != nil {
		return nil, err
	}
	b, err := c.Boleta(ctx, p.Boleta.ID)
	if err != nil {
		return nil, err
	}
	return &CobroEfectivo{Pago: pago, Boleta: *b}, nil
}

type Comprobante struct {
	BoletaID string
	Monto    string
	Nombre   string
	Datos    []byte
}

// SubirComprobante uploads a proof of transfer. Size and type are checked
// against the default limits before sending; the server checks again.
func (c *Client) SubirComprobante(ctx context.Context, comp Comprobante) (*pagodomain.Response, error) {
	limites := config.DefaultOperacionConfig().Pagos
	if strings.TrimSpace(comp.BoletaID) == "" {
		return nil, invalido("boletaId", "Seleccione una boleta")
	}
	monto, ok := parseMonto(comp.Monto)
	if !ok {
		return nil, invalido("monto", mensajeMonto)
	}
	if !monto.IsPositive() {
		return nil, invalido("monto", "Ingrese un monto válido mayor a cero")
	}
	if len(comp.Datos) == 0 {
		return nil, invalido("comprobante", "Adjunte el comprobante")
	}
	if int64(len(comp.Datos)) > limites.ComprobanteMaxBytes {
		return nil, invalido("comprobante", fmt.Sprintf("El comprobante no puede superar %d MB", limites.ComprobanteMaxBytes>>20))
	}
	mtype := mimetype.Detect(comp.Datos)
	if !mimetype.EqualsAny(mtype.String(), limites.TiposPermitidos...) {
		return nil, invalido("comprobante", "El comprobante debe ser una imagen o un PDF")
	}

	nombre := strings.TrimSpace(comp.Nombre)
	if nombre == "" {
		nombre = "comprobante" + mtype.Extension()
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("boletaId", strings.TrimSpace(comp.BoletaID))
	_ = w.WriteField("monto", monto.String())
	part, err := w.CreateFormFile("comprobante", nombre)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(comp.Datos); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/pagos", &body, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out pagodomain.Response
	if err := decodeData(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PagosPendientes(ctx context.Context) ([]pagodomain.Response, error) {
	var out []pagodomain.Response
	if err := c.getJSON(ctx, "/pagos/pendientes-revision", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AprobarPago(ctx context.Context, id string) (*pagodomain.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalido("pagoId", "Seleccione un pago")
	}
	var out pagodomain.Response
	if err := c.doJSON(ctx, http.MethodPut, "/pagos/"+url.PathEscape(id)+"/aprobar", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RechazarPago requires observaciones; an empty reason never reaches the
// server.
func (c *Client) RechazarPago(ctx context.Context, id, observaciones string) (*pagodomain.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalido("pagoId", "Seleccione un pago")
	}
	observaciones = strings.TrimSpace(observaciones)
	if observaciones == "" {
		return nil, invalido("observaciones", "Indique el motivo del rechazo")
	}
	var out pagodomain.Response
	req := pagodomain.RechazarRequest{Observaciones: observaciones}
	if err := c.doJSON(ctx, http.MethodPut, "/pagos/"+url.PathEscape(id)+"/rechazar", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReciboPago(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalido("pagoId", "Seleccione un pago")
	}
	return c.do(ctx, http.MethodGet, "/pagos/"+url.PathEscape(id)+"/recibo", nil, "")
}

func decodeData(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

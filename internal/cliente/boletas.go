package cliente

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
)

// BoletasDeUsuario lists a customer's boletas, one per period, newest first.
func (c *Client) BoletasDeUsuario(ctx context.Context, usuarioID string) ([]boletadomain.Response, error) {
	usuarioID = strings.TrimSpace(usuarioID)
	if usuarioID == "" {
		return nil, invalido("usuarioId", "Seleccione un usuario")
	}
	var out []boletadomain.Response
	if err := c.getJSON(ctx, "/boletas/usuario/"+url.PathEscape(usuarioID), nil, &out); err != nil {
		return nil, err
	}
	return DeduplicarPorPeriodo(out), nil
}

// DeduplicarPorPeriodo keeps, for every (mes, anio), the boleta emitted last.
func DeduplicarPorPeriodo(boletas []boletadomain.Response) []boletadomain.Response {
	return boletadomain.DeduplicarPorPeriodo(boletas)
}

func (c *Client) Boleta(ctx context.Context, id string) (*boletadomain.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalido("boletaId", "Ingrese el número de boleta")
	}
	var out boletadomain.Response
	if err := c.getJSON(ctx, "/boletas/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetalleBoleta fetches a boleta and lays out its breakdown locally. No
// amount is recomputed.
func (c *Client) DetalleBoleta(ctx context.Context, id string) (detalle.Detalle, error) {
	b, err := c.Boleta(ctx, id)
	if err != nil {
		return detalle.Detalle{}, err
	}
	return detalle.Componer(*b), nil
}

func (c *Client) BoletasPeriodo(ctx context.Context, mes, anio int) ([]boletadomain.Response, error) {
	if err := validarPeriodo(mes, anio); err != nil {
		return nil, err
	}
	var out []boletadomain.Response
	if err := c.getJSON(ctx, "/tarifario/boletas-periodo", periodoQuery(mes, anio), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerarBoleta bills one customer. Customers that are inactive or whose
// service was terminated are refused before the request.
func (c *Client) GenerarBoleta(ctx context.Context, usuario Elegible, mes, anio int) (*boletadomain.Response, error) {
	if strings.TrimSpace(usuario.ID) == "" {
		return nil, invalido("usuarioId", "Seleccione un usuario")
	}
	if !usuario.Activo || usuario.ServicioDadoDeBaja {
		return nil, invalido("usuarioId", "El usuario no puede recibir boletas")
	}
	if err := validarPeriodo(mes, anio); err != nil {
		return nil, err
	}
	var out boletadomain.Response
	req := boletadomain.GenerarRequest{UsuarioID: usuario.ID, Mes: mes, Anio: anio}
	if err := c.doJSON(ctx, http.MethodPost, "/tarifario/generar-boleta", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Elegible is the part of a customer that decides whether it can be billed.
type Elegible struct {
	ID                 string
	Activo             bool
	ServicioDadoDeBaja bool
}

func (c *Client) GenerarMasivo(ctx context.Context, mes, anio int) (*boletadomain.MasivoResponse, error) {
	if err := validarPeriodo(mes, anio); err != nil {
		return nil, err
	}
	var out boletadomain.MasivoResponse
	req := boletadomain.GenerarMasivoRequest{Mes: mes, Anio: anio}
	if err := c.doJSON(ctx, http.MethodPost, "/tarifario/generar-boletas-masivas", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recalcular refuses paid boletas locally. The server enforces the same rule.
func (c *Client) Recalcular(ctx context.Context, b boletadomain.Response) (*boletadomain.Response, error) {
	if strings.TrimSpace(b.ID) == "" {
		return nil, invalido("boletaId", "Seleccione una boleta")
	}
	if b.Estado == boletadomain.EstadoPagada {
		return nil, invalido("boletaId", "Las boletas pagadas no se pueden recalcular")
	}
	var out boletadomain.Response
	if err := c.doJSON(ctx, http.MethodPost, "/tarifario/recalcular-boleta/"+url.PathEscape(b.ID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PDFBoleta(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalido("boletaId", "Ingrese el número de boleta")
	}
	return c.do(ctx, http.MethodGet, "/tarifario/pdf/boleta/"+url.PathEscape(id), nil, "")
}

func (c *Client) PDFBoletasPeriodo(ctx context.Context, mes, anio int) ([]byte, error) {
	if err := validarPeriodo(mes, anio); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, "/tarifario/pdf/boletas-masivas?"+periodoQuery(mes, anio).Encode(), nil, "")
}

func validarPeriodo(mes, anio int) error {
	if mes < 1 || mes > 12 {
		return invalido("mes", "Mes inválido")
	}
	if anio < 2000 || anio > 2100 {
		return invalido("anio", "Año inválido")
	}
	return nil
}

func periodoQuery(mes, anio int) url.Values {
	q := url.Values{}
	q.Set("mes", strconv.Itoa(mes))
	q.Set("anio", strconv.Itoa(anio))
	return q
}

package cliente

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/shopspring/decimal"
)

func (c *Client) ConfiguracionAvisos(ctx context.Context) (*tarifariodomain.ConfiguracionResponse, error) {
	var out tarifariodomain.ConfiguracionResponse
	if err := c.getJSON(ctx, "/tarifario/configuracion-avisos", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerificarEstados asks the server to re-evaluate every customer. Callers
// confirm with the operator first.
func (c *Client) VerificarEstados(ctx context.Context) (*estadodomain.VerificacionResponse, error) {
	var out estadodomain.VerificacionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/tarifario/verificar-estados", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type OpcionReconexion struct {
	PagoContado    bool
	CantidadCuotas int
}

// Estimacion previews the reconnection fee with the configured amount.
type Estimacion struct {
	MontoTotal     decimal.Decimal
	CantidadCuotas int
	MontoCuota     decimal.Decimal
	// UltimaCuota absorbs the rounding remainder.
	UltimaCuota decimal.Decimal
}

// EstimarReconexion reads reconexion_monto from the tariff configuration and
// splits it the same way the server bills it.
func (c *Client) EstimarReconexion(ctx context.Context, opcion OpcionReconexion) (*Estimacion, error) {
	cfg, err := c.ConfiguracionAvisos(ctx)
	if err != nil {
		return nil, err
	}
	cuotas, err := validarCuotas(opcion, cfg.ReconexionCuotasMax)
	if err != nil {
		return nil, err
	}
	total := calculo.Redondear(cfg.ReconexionMonto)
	cuota, err := calculo.MontoCuota(total, cuotas, 1)
	if err != nil {
		return nil, err
	}
	ultima, err := calculo.MontoCuota(total, cuotas, cuotas)
	if err != nil {
		return nil, err
	}
	return &Estimacion{MontoTotal: total, CantidadCuotas: cuotas, MontoCuota: cuota, UltimaCuota: ultima}, nil
}

// Reconectar is only sent for a CORTADO customer whose service is still
// contracted. Pending debt is checked by the server.
func (c *Client) Reconectar(ctx context.Context, usuario usuariodomain.Response, opcion OpcionReconexion) (*estadodomain.ReconexionResponse, error) {
	if strings.TrimSpace(usuario.ID) == "" {
		return nil, invalido("usuarioId", "Seleccione un usuario")
	}
	if usuario.ServicioDadoDeBaja {
		return nil, invalido("usuarioId", "El servicio del usuario fue dado de baja")
	}
	if !estadodomain.PuedeReconectar(estadodomain.Estado(usuario.EstadoServicio), usuario.ServicioDadoDeBaja) {
		return nil, invalido("usuarioId", "Solo se puede reconectar un servicio CORTADO")
	}
	cuotas, err := validarCuotas(opcion, tarifariodomain.MaxCuotasReconexion)
	if err != nil {
		return nil, err
	}

	var out estadodomain.ReconexionResponse
	req := estadodomain.ReconectarRequest{PagoContado: opcion.PagoContado, CantidadCuotas: cuotas}
	if err := c.doJSON(ctx, http.MethodPost, "/tarifario/reconexion/"+url.PathEscape(usuario.ID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func validarCuotas(opcion OpcionReconexion, maximo int) (int, error) {
	if opcion.PagoContado {
		return 1, nil
	}
	limite := min(maximo, tarifariodomain.MaxCuotasReconexion)
	if opcion.CantidadCuotas < 1 || opcion.CantidadCuotas > limite {
		return 0, invalido("cantidadCuotas", "La cantidad de cuotas debe estar entre 1 y "+strconv.Itoa(limite))
	}
	return opcion.CantidadCuotas, nil
}

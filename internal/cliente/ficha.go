package cliente

import (
	"context"
	"errors"
	"net/url"
	"strings"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FichaCliente is everything a customer page shows.
type FichaCliente struct {
	Usuario   usuariodomain.Response
	Zona      *zonadomain.Response
	Boletas   []boletadomain.Response
	Medidores []medidordomain.Response
	// PuedeReconectar decides whether the reconnection action is offered.
	PuedeReconectar bool
}

// CargarFichaCliente loads the customer, its boletas, its meter history and
// the zones in parallel. Boletas and meters fall back to empty lists when
// their request fails; the customer and zones do not.
func (c *Client) CargarFichaCliente(ctx context.Context, usuarioID string) (*FichaCliente, error) {
	usuarioID = strings.TrimSpace(usuarioID)
	if usuarioID == "" {
		return nil, invalido("usuarioId", "Seleccione un usuario")
	}

	var (
		usuario   usuariodomain.Response
		zonas     []zonadomain.Response
		boletas   []boletadomain.Response
		medidores []medidordomain.Response
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, "/usuarios/"+url.PathEscape(usuarioID), nil, &usuario)
	})
	g.Go(func() error {
		return c.getJSON(gctx, "/zonas", nil, &zonas)
	})
	g.Go(func() error {
		out, err := c.BoletasDeUsuario(gctx, usuarioID)
		if err != nil {
			return c.degradar("boletas", err)
		}
		boletas = out
		return nil
	})
	g.Go(func() error {
		var out []medidordomain.Response
		if err := c.getJSON(gctx, "/medidores/usuario/"+url.PathEscape(usuarioID), nil, &out); err != nil {
			return c.degradar("medidores", err)
		}
		medidores = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ficha := &FichaCliente{
		Usuario:   usuario,
		Boletas:   boletas,
		Medidores: medidores,
		PuedeReconectar: estadodomain.PuedeReconectar(
			estadodomain.Estado(usuario.EstadoServicio),
			usuario.ServicioDadoDeBaja,
		),
	}
	if ficha.Boletas == nil {
		ficha.Boletas = []boletadomain.Response{}
	}
	if ficha.Medidores == nil {
		ficha.Medidores = []medidordomain.Response{}
	}
	if usuario.Zona != nil {
		for i := range zonas {
			if zonas[i].ID == usuario.Zona.ID {
				ficha.Zona = &zonas[i]
				break
			}
		}
	}
	return ficha, nil
}

// degradar swallows a failed read unless the session is gone.
func (c *Client) degradar(seccion string, err error) error {
	if errors.Is(err, ErrSesionExpirada) || errors.Is(err, context.Canceled) {
		return err
	}
	c.log.Warn("section unavailable, showing empty", zap.String("section", seccion), zap.Error(err))
	return nil
}

package cliente

import (
	"context"
	"net/url"
	"strings"

	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
)

func (c *Client) Usuario(ctx context.Context, id string) (*usuariodomain.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalido("usuarioId", "Seleccione un usuario")
	}
	var out usuariodomain.Response
	if err := c.getJSON(ctx, "/usuarios/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UsuarioPorPadron(ctx context.Context, padron string) (*usuariodomain.Response, error) {
	padron = strings.TrimSpace(padron)
	if _, _, ok := usuariodomain.ParsePadron(padron); !ok {
		return nil, invalido("padron", "Padrón con formato inválido, se espera ZONA-NNNN")
	}
	var out usuariodomain.Response
	if err := c.getJSON(ctx, "/usuarios/padron/"+url.PathEscape(padron), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuscarUsuario accepts either a padron or a user id.
func (c *Client) BuscarUsuario(ctx context.Context, clave string) (*usuariodomain.Response, error) {
	if _, _, ok := usuariodomain.ParsePadron(clave); ok {
		return c.UsuarioPorPadron(ctx, clave)
	}
	return c.Usuario(ctx, clave)
}

func (c *Client) Zonas(ctx context.Context) ([]zonadomain.Response, error) {
	var out []zonadomain.Response
	if err := c.getJSON(ctx, "/zonas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package cliente

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
)

func (c *Client) LoginPadron(ctx context.Context, padron string) (*authdomain.UsuarioSesion, error) {
	padron = strings.TrimSpace(padron)
	if padron == "" {
		return nil, invalido("padron", "Ingrese su número de padrón")
	}
	if _, _, ok := usuariodomain.ParsePadron(padron); !ok {
		return nil, invalido("padron", "Padrón con formato inválido, se espera ZONA-NNNN")
	}
	return c.login(ctx, "/auth/login/padron", authdomain.LoginPadronRequest{Padron: padron})
}

func (c *Client) LoginInterno(ctx context.Context, email, password string) (*authdomain.UsuarioSesion, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalido("email", "Ingrese su email")
	}
	if password == "" {
		return nil, invalido("password", "Ingrese su contraseña")
	}
	return c.login(ctx, "/auth/login/interno", authdomain.LoginInternoRequest{Email: email, Password: password})
}

// login answers are not enveloped.
func (c *Client) login(ctx context.Context, path string, body any) (*authdomain.UsuarioSesion, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	var resp authdomain.LoginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if err := c.sesion.Iniciar(resp); err != nil {
		return nil, err
	}
	usuario := resp.Usuario
	return &usuario, nil
}

func (c *Client) Logout() error {
	return c.sesion.Cerrar()
}

func (c *Client) Perfil(ctx context.Context) (*authdomain.UsuarioSesion, error) {
	var out authdomain.UsuarioSesion
	if err := c.getJSON(ctx, "/auth/perfil", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package cliente

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
)

type FiltroAuditoria struct {
	Modulo     string
	Accion     string
	UsuarioID  string
	RegistroID string
	Desde      *time.Time
	Hasta      *time.Time
	Limit      int
	PageToken  string
}

func (f FiltroAuditoria) query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			q.Set(key, value)
		}
	}
	set("modulo", f.Modulo)
	set("accion", f.Accion)
	set("usuarioId", f.UsuarioID)
	set("registroId", f.RegistroID)
	set("page_token", f.PageToken)
	if f.Desde != nil {
		q.Set("desde", f.Desde.Format(time.RFC3339))
	}
	if f.Hasta != nil {
		q.Set("hasta", f.Hasta.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (c *Client) Auditoria(ctx context.Context, filtro FiltroAuditoria) (*auditoriadomain.ListResponse, error) {
	if filtro.Desde != nil && filtro.Hasta != nil && filtro.Hasta.Before(*filtro.Desde) {
		return nil, invalido("hasta", "La fecha hasta no puede ser anterior a desde")
	}
	var out auditoriadomain.ListResponse
	if err := c.getJSON(ctx, "/auditoria", filtro.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package service

import (
	"context"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
)

func (s *Service) response(ctx context.Context, p *pagodomain.Pago) (*pagodomain.Response, error) {
	items, err := s.withRefs(ctx, []pagodomain.Pago{*p})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *Service) withRefs(ctx context.Context, items []pagodomain.Pago) ([]pagodomain.Response, error) {
	boletas := map[snowflake.ID]*boletadomain.Boleta{}
	usuarioIDs := make([]snowflake.ID, 0, len(items))
	for _, p := range items {
		if _, ok := boletas[p.BoletaID]; !ok {
			b, err := s.boletaRepo.FindByID(ctx, s.db, p.BoletaID)
			if err != nil {
				return nil, err
			}
			boletas[p.BoletaID] = b
		}
		usuarioIDs = append(usuarioIDs, p.UsuarioID)
	}

	usuarios := map[snowflake.ID]usuariodomain.Usuario{}
	if len(usuarioIDs) > 0 {
		rows, err := s.usuarioRepo.FindByIDs(ctx, s.db, usuarioIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range rows {
			usuarios[u.ID] = u
		}
	}

	out := make([]pagodomain.Response, 0, len(items))
	for i := range items {
		p := &items[i]
		resp := toResponse(p)
		if b := boletas[p.BoletaID]; b != nil {
			resp.Boleta = &pagodomain.BoletaRef{
				ID:     b.ID.String(),
				Numero: b.Numero,
				Mes:    b.Mes,
				Anio:   b.Anio,
				Total:  b.Total,
			}
		}
		if u, ok := usuarios[p.UsuarioID]; ok {
			resp.Usuario = &pagodomain.UsuarioRef{
				ID:     u.ID.String(),
				Nombre: u.Nombre,
				Padron: u.Padron,
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func toResponse(p *pagodomain.Pago) pagodomain.Response {
	resp := pagodomain.Response{
		ID:            p.ID.String(),
		BoletaID:      p.BoletaID.String(),
		UsuarioID:     p.UsuarioID.String(),
		Monto:         p.Monto,
		FechaPago:     p.FechaPago,
		Metodo:        p.Metodo,
		Estado:        p.Estado,
		Observaciones: p.Observaciones,
		RevisadoEn:    p.RevisadoEn,
		CreatedAt:     p.CreatedAt,
	}
	if p.ComprobanteKey != nil {
		url := "/pagos/comprobante/" + p.ID.String()
		resp.ComprobanteURL = &url
	}
	return resp
}

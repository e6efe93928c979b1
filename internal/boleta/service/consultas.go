package service

import (
	"context"
	"strings"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

func (s *Service) GetByID(ctx context.Context, id string) (*boletadomain.Response, error) {
	boletaID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || boletaID == 0 {
		return nil, boletadomain.ErrInvalidID
	}
	b, err := s.repo.FindByID(ctx, s.db, boletaID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, boletadomain.ErrNotFound
	}
	items, err := s.withRefs(ctx, s.db, []boletadomain.Boleta{*b})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListPorUsuario returns one boleta per period, newest first.
func (s *Service) ListPorUsuario(ctx context.Context, usuarioID string) ([]boletadomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(usuarioID))
	if err != nil || id == 0 {
		return nil, boletadomain.ErrInvalidUsuario
	}
	items, err := s.repo.List(ctx, s.db, boletadomain.ListFilter{UsuarioID: &id})
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, s.db, boletadomain.DeduplicarPorPeriodo(items))
}

func (s *Service) List(ctx context.Context, req boletadomain.ListRequest) ([]boletadomain.Response, error) {
	filter := boletadomain.ListFilter{}
	if v := strings.TrimSpace(req.UsuarioID); v != "" {
		id, err := snowflake.ParseString(v)
		if err != nil || id == 0 {
			return nil, boletadomain.ErrInvalidUsuario
		}
		filter.UsuarioID = &id
	}
	if v := strings.ToLower(strings.TrimSpace(req.Estado)); v != "" {
		estado := boletadomain.Estado(v)
		if !estado.Valido() {
			return nil, boletadomain.ErrInvalidEstado
		}
		filter.Estados = []boletadomain.Estado{estado}
	}
	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, s.db, items)
}

func (s *Service) ListPeriodo(ctx context.Context, req boletadomain.PeriodoRequest) ([]boletadomain.Response, error) {
	if err := boletadomain.ValidarPeriodo(req.Mes, req.Anio); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, s.db, boletadomain.ListFilter{Mes: req.Mes, Anio: req.Anio})
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, s.db, items)
}

// withRefs loads the customers, readings and meters referenced by the
// boletas in three queries.
func (s *Service) withRefs(ctx context.Context, db *gorm.DB, items []boletadomain.Boleta) ([]boletadomain.Response, error) {
	usuarioIDs := make([]snowflake.ID, 0, len(items))
	lecturaIDs := make([]snowflake.ID, 0, len(items))
	seen := make(map[snowflake.ID]struct{}, len(items))
	for _, b := range items {
		if _, ok := seen[b.UsuarioID]; !ok {
			seen[b.UsuarioID] = struct{}{}
			usuarioIDs = append(usuarioIDs, b.UsuarioID)
		}
		if b.LecturaID != nil {
			lecturaIDs = append(lecturaIDs, *b.LecturaID)
		}
	}

	usuarios := map[snowflake.ID]usuariodomain.Usuario{}
	if len(usuarioIDs) > 0 {
		rows, err := s.usuarioRepo.FindByIDs(ctx, db, usuarioIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range rows {
			usuarios[u.ID] = u
		}
	}

	lecturas := map[snowflake.ID]lecturadomain.Lectura{}
	medidores := map[snowflake.ID]medidordomain.Medidor{}
	if len(lecturaIDs) > 0 {
		rows, err := s.lecturaRepo.ListByIDs(ctx, db, lecturaIDs)
		if err != nil {
			return nil, err
		}
		for _, l := range rows {
			lecturas[l.ID] = l
			if _, ok := medidores[l.MedidorID]; ok {
				continue
			}
			m, err := s.medidorRepo.FindByID(ctx, db, l.MedidorID)
			if err != nil {
				return nil, err
			}
			if m != nil {
				medidores[m.ID] = *m
			}
		}
	}

	out := make([]boletadomain.Response, 0, len(items))
	for i := range items {
		b := &items[i]
		resp := toResponse(b)
		if u, ok := usuarios[b.UsuarioID]; ok {
			resp.Usuario = &boletadomain.UsuarioRef{
				ID:        u.ID.String(),
				Nombre:    u.Nombre,
				Padron:    u.Padron,
				Direccion: u.Direccion,
			}
		}
		if b.LecturaID != nil {
			if l, ok := lecturas[*b.LecturaID]; ok {
				resp.Lectura = &boletadomain.LecturaRef{
					ID:              l.ID.String(),
					NumeroSerie:     medidores[l.MedidorID].NumeroSerie,
					LecturaAnterior: l.LecturaAnterior,
					LecturaActual:   l.LecturaActual,
					ConsumoM3:       l.ConsumoM3,
					FechaLectura:    l.FechaLectura,
				}
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func toResponse(b *boletadomain.Boleta) boletadomain.Response {
	return boletadomain.Response{
		ID:                b.ID.String(),
		Numero:            b.Numero,
		UsuarioID:         b.UsuarioID.String(),
		Mes:               b.Mes,
		Anio:              b.Anio,
		TieneMedidor:      b.TieneMedidor,
		ConsumoM3:         b.ConsumoM3,
		MontoServicioBase: b.MontoServicioBase,
		DesgloseConsumo:   b.DesgloseConsumo.Data(),
		MontoConsumo:      b.MontoConsumo,
		Subtotal:          b.Subtotal,
		CargosExtras:      b.CargosExtras.Data(),
		TotalCargosExtras: b.TotalCargosExtras,
		CuotaPlanNumero:   b.CuotaPlanNumero,
		MontoCuotaPlan:    b.MontoCuotaPlan,
		Total:             b.Total,
		Estado:            b.Estado,
		FechaEmision:      b.FechaEmision,
		FechaVencimiento:  b.FechaVencimiento,
		FechaPago:         b.FechaPago,
	}
}

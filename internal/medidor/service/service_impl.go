package service

import (
	"context"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        medidordomain.Repository
	UsuarioRepo usuariodomain.Repository
	Auditoria   auditoriadomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        medidordomain.Repository
	usuarioRepo usuariodomain.Repository
	auditoria   auditoriadomain.Service
}

func New(p Params) medidordomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("medidor.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		usuarioRepo: p.UsuarioRepo,
		auditoria:   p.Auditoria,
	}
}

func (s *Service) Asignar(ctx context.Context, req medidordomain.AsignarRequest) (*medidordomain.Response, error) {
	usuarioID, err := snowflake.ParseString(strings.TrimSpace(req.UsuarioID))
	if err != nil || usuarioID == 0 {
		return nil, medidordomain.ErrInvalidUsuario
	}
	serie := strings.TrimSpace(req.NumeroSerie)
	if serie == "" {
		return nil, medidordomain.ErrInvalidSerie
	}
	if req.FechaInstalacion.IsZero() {
		return nil, medidordomain.ErrInvalidFecha
	}
	lecturaInicial := decimal.Zero
	if req.LecturaInicial != nil {
		if req.LecturaInicial.IsNegative() {
			return nil, medidordomain.ErrInvalidLecturaInicial
		}
		lecturaInicial = *req.LecturaInicial
	}

	var created *medidordomain.Medidor
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		usuario, err := s.usuarioRepo.FindByID(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if usuario == nil {
			return medidordomain.ErrInvalidUsuario
		}
		if usuario.Rol != usuariodomain.RolCliente {
			return medidordomain.ErrUsuarioNoCliente
		}

		activo, err := s.repo.FindActivoByUsuario(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if activo != nil {
			return medidordomain.ErrMedidorActivoExistente
		}

		existente, err := s.repo.FindBySerie(ctx, tx, serie)
		if err != nil {
			return err
		}
		if existente != nil {
			return medidordomain.ErrSerieEnUso
		}

		now := s.clock.Now()
		m := &medidordomain.Medidor{
			ID:               s.genID.Generate(),
			UsuarioID:        usuarioID,
			NumeroSerie:      serie,
			FechaInstalacion: req.FechaInstalacion.UTC(),
			LecturaInicial:   lecturaInicial,
			Activo:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.Insert(ctx, tx, m); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return medidordomain.ErrSerieEnUso
			}
			return err
		}
		created = m

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "medidores",
			Entidad:     "Medidor",
			RegistroID:  m.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			Descripcion: "Medidor " + serie + " asignado",
			DatosNuevos: toResponse(m),
			Metadata:    map[string]any{"usuarioId": usuarioID.String()},
		})
	})
	if err != nil {
		return nil, err
	}
	return toResponse(created), nil
}

func (s *Service) DarDeBaja(ctx context.Context, req medidordomain.BajaRequest) (*medidordomain.Response, error) {
	id, err := medidordomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, medidordomain.ErrInvalidID
	}
	motivo := strings.TrimSpace(req.Motivo)
	if motivo == "" {
		return nil, medidordomain.ErrMotivoRequerido
	}

	var updated *medidordomain.Medidor
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return medidordomain.ErrNotFound
		}
		if !m.Activo {
			return medidordomain.ErrMedidorInactivo
		}

		previo := toResponse(m)
		now := s.clock.Now()
		if err := s.repo.DarDeBaja(ctx, tx, id, now, motivo); err != nil {
			return err
		}
		m.Activo = false
		m.FechaBaja = &now
		m.MotivoBaja = &motivo
		m.UpdatedAt = now
		updated = m

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "medidores",
			Entidad:      "Medidor",
			RegistroID:   m.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			Descripcion:  "Baja de medidor " + m.NumeroSerie + ": " + motivo,
			DatosPrevios: previo,
			DatosNuevos:  toResponse(m),
		})
	})
	if err != nil {
		return nil, err
	}
	return toResponse(updated), nil
}

func (s *Service) VerificarSerie(ctx context.Context, serie string) (*medidordomain.VerificacionSerie, error) {
	serie = strings.TrimSpace(serie)
	if serie == "" {
		return nil, medidordomain.ErrInvalidSerie
	}
	m, err := s.repo.FindBySerie(ctx, s.db, serie)
	if err != nil {
		return nil, err
	}
	return &medidordomain.VerificacionSerie{NumeroSerie: serie, Disponible: m == nil}, nil
}

func (s *Service) ListPorUsuario(ctx context.Context, usuarioID string) ([]medidordomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(usuarioID))
	if err != nil || id == 0 {
		return nil, medidordomain.ErrInvalidUsuario
	}
	items, err := s.repo.ListByUsuario(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) List(ctx context.Context) ([]medidordomain.Response, error) {
	items, err := s.repo.ListActivos(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*medidordomain.Response, error) {
	medidorID, err := medidordomain.ParseID(strings.TrimSpace(id))
	if err != nil || medidorID == 0 {
		return nil, medidordomain.ErrInvalidID
	}
	m, err := s.repo.FindByID(ctx, s.db, medidorID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, medidordomain.ErrNotFound
	}
	return toResponse(m), nil
}

func toResponses(items []medidordomain.Medidor) []medidordomain.Response {
	resp := make([]medidordomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp
}

func toResponse(m *medidordomain.Medidor) *medidordomain.Response {
	return &medidordomain.Response{
		ID:               m.ID.String(),
		UsuarioID:        m.UsuarioID.String(),
		NumeroSerie:      m.NumeroSerie,
		FechaInstalacion: m.FechaInstalacion,
		FechaBaja:        m.FechaBaja,
		MotivoBaja:       m.MotivoBaja,
		LecturaInicial:   m.LecturaInicial,
		Activo:           m.Activo,
	}
}

package service

import (
	"context"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
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
	Repo        lecturadomain.Repository
	MedidorRepo medidordomain.Repository
	Auditoria   auditoriadomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        lecturadomain.Repository
	medidorRepo medidordomain.Repository
	auditoria   auditoriadomain.Service
}

func New(p Params) lecturadomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("lectura.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		medidorRepo: p.MedidorRepo,
		auditoria:   p.Auditoria,
	}
}

// Registrar stores a reading. The previous value is the last reading of the
// meter, or its initial reading when none exists.
func (s *Service) Registrar(ctx context.Context, req lecturadomain.RegistrarRequest) (*lecturadomain.Response, error) {
	medidorID, err := snowflake.ParseString(strings.TrimSpace(req.MedidorID))
	if err != nil || medidorID == 0 {
		return nil, lecturadomain.ErrInvalidMedidor
	}
	if req.FechaLectura.IsZero() {
		return nil, lecturadomain.ErrInvalidFecha
	}
	var operarioID *snowflake.ID
	if raw := strings.TrimSpace(req.OperarioID); raw != "" {
		if id, err := snowflake.ParseString(raw); err == nil && id != 0 {
			operarioID = &id
		}
	}

	fecha := req.FechaLectura.UTC()
	mes, anio := int(fecha.Month()), fecha.Year()

	var created *lecturadomain.Lectura
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		medidor, err := s.medidorRepo.FindByID(ctx, tx, medidorID)
		if err != nil {
			return err
		}
		if medidor == nil {
			return lecturadomain.ErrInvalidMedidor
		}
		if !medidor.Activo {
			return lecturadomain.ErrMedidorInactivo
		}

		existente, err := s.repo.FindPorPeriodo(ctx, tx, medidorID, mes, anio)
		if err != nil {
			return err
		}
		if existente != nil {
			return lecturadomain.ErrLecturaPeriodoExistente
		}

		anterior := medidor.LecturaInicial
		ultima, err := s.repo.FindUltima(ctx, tx, medidorID)
		if err != nil {
			return err
		}
		if ultima != nil {
			anterior = ultima.LecturaActual
		}
		if req.LecturaActual.LessThan(anterior) {
			return lecturadomain.ErrLecturaMenorAnterior
		}

		l := &lecturadomain.Lectura{
			ID:              s.genID.Generate(),
			MedidorID:       medidorID,
			UsuarioID:       medidor.UsuarioID,
			OperarioID:      operarioID,
			LecturaAnterior: anterior,
			LecturaActual:   req.LecturaActual,
			ConsumoM3:       req.LecturaActual.Sub(anterior),
			FechaLectura:    fecha,
			Mes:             mes,
			Anio:            anio,
			CreatedAt:       s.clock.Now(),
		}
		if err := s.repo.Insert(ctx, tx, l); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return lecturadomain.ErrLecturaPeriodoExistente
			}
			return err
		}
		created = l

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "lecturas",
			Entidad:     "Lectura",
			RegistroID:  l.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			DatosNuevos: toResponse(l),
		})
	})
	if err != nil {
		return nil, err
	}
	return toResponse(created), nil
}

func (s *Service) List(ctx context.Context, medidorID string) ([]lecturadomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(medidorID))
	if err != nil || id == 0 {
		return nil, lecturadomain.ErrInvalidMedidor
	}
	items, err := s.repo.ListByMedidor(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	resp := make([]lecturadomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Ultima(ctx context.Context, medidorID string) (*lecturadomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(medidorID))
	if err != nil || id == 0 {
		return nil, lecturadomain.ErrInvalidMedidor
	}
	l, err := s.repo.FindUltima(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, lecturadomain.ErrNotFound
	}
	return toResponse(l), nil
}

func toResponse(l *lecturadomain.Lectura) *lecturadomain.Response {
	resp := &lecturadomain.Response{
		ID:              l.ID.String(),
		MedidorID:       l.MedidorID.String(),
		UsuarioID:       l.UsuarioID.String(),
		LecturaAnterior: l.LecturaAnterior,
		LecturaActual:   l.LecturaActual,
		ConsumoM3:       l.ConsumoM3,
		FechaLectura:    l.FechaLectura,
		Mes:             l.Mes,
		Anio:            l.Anio,
	}
	if l.OperarioID != nil {
		id := l.OperarioID.String()
		resp.OperarioID = &id
	}
	return resp
}

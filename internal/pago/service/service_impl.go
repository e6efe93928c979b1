package service

import (
	"context"
	"strings"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/auditcontext"
	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability/metrics"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
	"github.com/AxelFernandez/agua-andre-sub000/internal/storage"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          pagodomain.Repository
	BoletaRepo    boletadomain.Repository
	UsuarioRepo   usuariodomain.Repository
	TarifarioRepo tarifariodomain.Repository
	Auditoria     auditoriadomain.Service
	Storage       storage.Storage
	Operacion     *config.OperacionConfigHolder
	PDF           pdf.Provider     `optional:"true"`
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          pagodomain.Repository
	boletaRepo    boletadomain.Repository
	usuarioRepo   usuariodomain.Repository
	tarifarioRepo tarifariodomain.Repository
	auditoria     auditoriadomain.Service
	storage       storage.Storage
	operacion     *config.OperacionConfigHolder
	pdf           pdf.Provider
	metrics       *metrics.Metrics
}

func New(p Params) pagodomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("pago.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		boletaRepo:    p.BoletaRepo,
		usuarioRepo:   p.UsuarioRepo,
		tarifarioRepo: p.TarifarioRepo,
		auditoria:     p.Auditoria,
		storage:       p.Storage,
		operacion:     p.Operacion,
		pdf:           p.PDF,
		metrics:       p.Metrics,
	}
}

func (s *Service) ListPendientesRevision(ctx context.Context) ([]pagodomain.Response, error) {
	items, err := s.repo.ListByEstado(ctx, s.db, pagodomain.EstadoPendienteRevision)
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, items)
}

func (s *Service) ListPorBoleta(ctx context.Context, boletaID string) ([]pagodomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(boletaID))
	if err != nil || id == 0 {
		return nil, pagodomain.ErrInvalidBoleta
	}
	b, err := s.boletaRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, pagodomain.ErrNotFound
	}
	if err := verificarTitular(ctx, b); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByBoleta(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, items)
}

// Aprobar accepts a reviewed transfer and settles its boleta.
func (s *Service) Aprobar(ctx context.Context, id string) (*pagodomain.Response, error) {
	pagoID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || pagoID == 0 {
		return nil, pagodomain.ErrInvalidID
	}

	var out *pagodomain.Pago
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.pendiente(ctx, tx, pagoID)
		if err != nil {
			return err
		}
		b, err := s.boletaRepo.FindByID(ctx, tx, p.BoletaID)
		if err != nil {
			return err
		}
		if b == nil {
			return pagodomain.ErrNotFound
		}
		if b.Estado == boletadomain.EstadoPagada {
			return pagodomain.ErrBoletaPagada
		}

		now := s.clock.Now()
		rev := pagodomain.Revision{
			Estado:      pagodomain.EstadoAprobado,
			RevisadoPor: actorID(ctx),
			RevisadoEn:  now,
		}
		if err := s.repo.UpdateRevision(ctx, tx, p.ID, rev); err != nil {
			return err
		}
		if err := s.saldar(ctx, tx, b, p.FechaPago, now); err != nil {
			return err
		}
		previo := *p
		aplicarRevision(p, rev)
		out = p

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "pagos",
			Entidad:      "Pago",
			RegistroID:   p.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			Descripcion:  "Pago aprobado para boleta " + b.Numero,
			DatosPrevios: previo,
			DatosNuevos:  p,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPago(ctx, string(out.Metodo), string(out.Estado))
	return s.response(ctx, out)
}

// Rechazar returns the boleta to pendiente. The reason is mandatory and is
// shown to the customer.
func (s *Service) Rechazar(ctx context.Context, req pagodomain.RechazarRequest) (*pagodomain.Response, error) {
	pagoID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || pagoID == 0 {
		return nil, pagodomain.ErrInvalidID
	}
	observaciones := strings.TrimSpace(req.Observaciones)
	if observaciones == "" {
		return nil, pagodomain.ErrObservacionesRequeridas
	}

	var out *pagodomain.Pago
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.pendiente(ctx, tx, pagoID)
		if err != nil {
			return err
		}
		b, err := s.boletaRepo.FindByID(ctx, tx, p.BoletaID)
		if err != nil {
			return err
		}
		if b == nil {
			return pagodomain.ErrNotFound
		}

		now := s.clock.Now()
		rev := pagodomain.Revision{
			Estado:        pagodomain.EstadoRechazado,
			Observaciones: &observaciones,
			RevisadoPor:   actorID(ctx),
			RevisadoEn:    now,
		}
		if err := s.repo.UpdateRevision(ctx, tx, p.ID, rev); err != nil {
			return err
		}
		if b.Estado == boletadomain.EstadoProcesando {
			if err := s.boletaRepo.UpdateEstado(ctx, tx, b.ID, boletadomain.EstadoPendiente, nil, now); err != nil {
				return err
			}
		}
		previo := *p
		aplicarRevision(p, rev)
		out = p

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "pagos",
			Entidad:      "Pago",
			RegistroID:   p.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			Descripcion:  "Pago rechazado para boleta " + b.Numero,
			DatosPrevios: previo,
			DatosNuevos:  p,
			Metadata:     map[string]any{"observaciones": observaciones},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPago(ctx, string(out.Metodo), string(out.Estado))
	return s.response(ctx, out)
}

// RegistrarEfectivo records a cash payment at the counter. Partial payments
// are refused.
func (s *Service) RegistrarEfectivo(ctx context.Context, req pagodomain.EfectivoRequest) (*pagodomain.Response, error) {
	boletaID, err := snowflake.ParseString(strings.TrimSpace(req.BoletaID))
	if err != nil || boletaID == 0 {
		return nil, pagodomain.ErrInvalidBoleta
	}
	if !req.Monto.IsPositive() {
		return nil, pagodomain.ErrInvalidMonto
	}
	var observaciones *string
	if v := strings.TrimSpace(req.Observaciones); v != "" {
		observaciones = &v
	}

	var out *pagodomain.Pago
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.boletaRepo.FindByID(ctx, tx, boletaID)
		if err != nil {
			return err
		}
		if b == nil {
			return pagodomain.ErrNotFound
		}
		if b.Estado == boletadomain.EstadoPagada {
			return pagodomain.ErrBoletaPagada
		}
		if req.Monto.LessThan(b.Total) {
			return pagodomain.ErrMontoInsuficiente
		}

		now := s.clock.Now()
		fechaPago := now
		if req.FechaPago != nil && !req.FechaPago.IsZero() {
			fechaPago = req.FechaPago.UTC()
		}
		p := &pagodomain.Pago{
			ID:            s.genID.Generate(),
			BoletaID:      b.ID,
			UsuarioID:     b.UsuarioID,
			Monto:         req.Monto.Round(2),
			FechaPago:     fechaPago,
			Metodo:        pagodomain.MetodoEfectivo,
			Estado:        pagodomain.EstadoAprobado,
			Observaciones: observaciones,
			RevisadoPor:   actorID(ctx),
			RevisadoEn:    &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, p); err != nil {
			return err
		}
		if err := s.saldar(ctx, tx, b, fechaPago, now); err != nil {
			return err
		}
		out = p

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "pagos",
			Entidad:     "Pago",
			RegistroID:  p.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			Descripcion: "Pago en efectivo registrado para boleta " + b.Numero,
			DatosNuevos: p,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPago(ctx, string(out.Metodo), string(out.Estado))
	return s.response(ctx, out)
}

func (s *Service) pendiente(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*pagodomain.Pago, error) {
	p, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pagodomain.ErrNotFound
	}
	if p.Estado != pagodomain.EstadoPendienteRevision {
		return nil, pagodomain.ErrPagoNoPendiente
	}
	return p, nil
}

// saldar marks the boleta paid and, when it billed a reconnection
// installment, counts the installment as paid on the plan.
func (s *Service) saldar(ctx context.Context, tx *gorm.DB, b *boletadomain.Boleta, fechaPago, now time.Time) error {
	if err := s.boletaRepo.UpdateEstado(ctx, tx, b.ID, boletadomain.EstadoPagada, &fechaPago, now); err != nil {
		return err
	}
	if b.PlanReconexionID == nil || b.CuotaPlanNumero == nil {
		return nil
	}
	plan, err := s.tarifarioRepo.FindPlan(ctx, tx, *b.PlanReconexionID)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}
	plan.CuotasPagadas = min(plan.CuotasPagadas+1, plan.CantidadCuotas)
	if plan.CuotasPagadas >= plan.CantidadCuotas {
		plan.Activo = false
	}
	plan.UpdatedAt = now
	return s.tarifarioRepo.UpdatePlan(ctx, tx, plan)
}

func aplicarRevision(p *pagodomain.Pago, rev pagodomain.Revision) {
	p.Estado = rev.Estado
	p.Observaciones = rev.Observaciones
	p.RevisadoPor = rev.RevisadoPor
	revisadoEn := rev.RevisadoEn
	p.RevisadoEn = &revisadoEn
	p.UpdatedAt = rev.RevisadoEn
}

// verificarTitular keeps clientes to their own boletas. Internal users and
// system actors pass.
func verificarTitular(ctx context.Context, b *boletadomain.Boleta) error {
	actorType, id, rol := auditcontext.Actor(ctx)
	if actorType != auditcontext.ActorTypeUser || rol != string(usuariodomain.RolCliente) {
		return nil
	}
	if id != b.UsuarioID.String() {
		return pagodomain.ErrBoletaAjena
	}
	return nil
}

func actorID(ctx context.Context) *snowflake.ID {
	actorType, raw, _ := auditcontext.Actor(ctx)
	if actorType != auditcontext.ActorTypeUser {
		return nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

package service

import (
	"context"
	"strings"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability/metrics"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/email"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
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
	UsuarioRepo   usuariodomain.Repository
	BoletaRepo    boletadomain.Repository
	TarifarioRepo tarifariodomain.Repository
	Tarifario     tarifariodomain.Service
	Auditoria     auditoriadomain.Service
	Email         email.Provider                `optional:"true"`
	Operacion     *config.OperacionConfigHolder `optional:"true"`
	Metrics       *metrics.Metrics              `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	usuarioRepo   usuariodomain.Repository
	boletaRepo    boletadomain.Repository
	tarifarioRepo tarifariodomain.Repository
	tarifario     tarifariodomain.Service
	auditoria     auditoriadomain.Service
	email         email.Provider
	operacion     *config.OperacionConfigHolder
	metrics       *metrics.Metrics
}

func New(p Params) estadodomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("estadoservicio.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		usuarioRepo:   p.UsuarioRepo,
		boletaRepo:    p.BoletaRepo,
		tarifarioRepo: p.TarifarioRepo,
		tarifario:     p.Tarifario,
		auditoria:     p.Auditoria,
		email:         p.Email,
		operacion:     p.Operacion,
		metrics:       p.Metrics,
	}
}

// VerificarEstados evaluates every billable customer against the debt
// thresholds and applies at most one transition per customer.
func (s *Service) VerificarEstados(ctx context.Context) (*estadodomain.VerificacionResponse, error) {
	cfg, err := s.tarifario.Configuracion(ctx)
	if err != nil {
		return nil, err
	}
	umbrales := cfg.Umbrales()

	usuarios, err := s.usuarioRepo.ListElegibles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	vencidas, err := s.boletaRepo.List(ctx, s.db, boletadomain.ListFilter{
		Estados: []boletadomain.Estado{boletadomain.EstadoVencida},
	})
	if err != nil {
		return nil, err
	}
	deudas := make(map[snowflake.ID]estadodomain.Deuda, len(usuarios))
	for _, b := range vencidas {
		d := deudas[b.UsuarioID]
		d.BoletasVencidas++
		d.Monto = d.Monto.Add(b.Total)
		deudas[b.UsuarioID] = d
	}

	now := s.clock.Now()
	resp := &estadodomain.VerificacionResponse{
		Evaluados:    len(usuarios),
		Transiciones: []estadodomain.Transicion{},
	}
	for i := range usuarios {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		u := &usuarios[i]
		desde := u.CreatedAt
		if u.EstadoServicioDesde != nil {
			desde = *u.EstadoServicioDesde
		}
		disparador, ok := estadodomain.Evaluar(u.EstadoServicio, desde, deudas[u.ID], umbrales, now)
		if !ok {
			continue
		}
		hacia, err := s.transicionar(ctx, u, disparador, now, deudas[u.ID])
		if err != nil {
			return resp, err
		}
		padron := ""
		if u.Padron != nil {
			padron = *u.Padron
		}
		s.notificar(ctx, u, padron, hacia, deudas[u.ID])
		resp.Transiciones = append(resp.Transiciones, estadodomain.Transicion{
			UsuarioID: u.ID.String(),
			Padron:    padron,
			Desde:     u.EstadoServicio,
			Hacia:     hacia,
		})
	}

	s.log.Info("verificacion de estados finalizada",
		zap.Int("evaluados", resp.Evaluados),
		zap.Int("transiciones", len(resp.Transiciones)),
	)
	return resp, nil
}

func (s *Service) transicionar(ctx context.Context, u *usuariodomain.Usuario, disparador estadodomain.Disparador, now time.Time, deuda estadodomain.Deuda) (estadodomain.Estado, error) {
	hacia, err := estadodomain.Siguiente(u.EstadoServicio, disparador)
	if err != nil {
		return "", err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.usuarioRepo.UpdateEstadoServicio(ctx, tx, u.ID, hacia, now); err != nil {
			return err
		}
		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "estados_servicio",
			Entidad:      "Usuario",
			RegistroID:   u.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			Descripcion:  "Estado de servicio " + string(u.EstadoServicio) + " -> " + string(hacia),
			DatosPrevios: map[string]any{"estado_servicio": u.EstadoServicio},
			DatosNuevos:  map[string]any{"estado_servicio": hacia},
			Metadata: map[string]any{
				"disparador":       disparador,
				"boletas_vencidas": deuda.BoletasVencidas,
				"deuda":            deuda.Monto.StringFixed(2),
			},
		})
	})
	if err != nil {
		return "", err
	}
	s.metrics.RecordTransicionEstado(ctx, string(u.EstadoServicio), string(hacia))
	return hacia, nil
}

// aviso is the data rendered into the notice templates.
type aviso struct {
	Nombre          string
	Padron          string
	Deuda           string
	BoletasVencidas int
	Empresa         string
}

var plantillas = map[estadodomain.Estado]string{
	estadodomain.EstadoAvisoDeuda: email.TemplateAvisoDeuda,
	estadodomain.EstadoAvisoCorte: email.TemplateAvisoCorte,
	estadodomain.EstadoCortado:    email.TemplateServicioCortado,
}

// notificar mails the customer about a new state. Delivery failures are
// logged and never undo the transition.
func (s *Service) notificar(ctx context.Context, u *usuariodomain.Usuario, padron string, hacia estadodomain.Estado, deuda estadodomain.Deuda) {
	if s.email == nil || u.Email == nil || strings.TrimSpace(*u.Email) == "" {
		return
	}
	plantilla, ok := plantillas[hacia]
	if !ok {
		return
	}
	data := aviso{
		Nombre:          u.Nombre,
		Padron:          padron,
		Deuda:           deuda.Monto.StringFixed(2),
		BoletasVencidas: deuda.BoletasVencidas,
	}
	if s.operacion != nil {
		data.Empresa = s.operacion.Get().Empresa.Nombre
	}
	err := s.email.SendTemplate(ctx, []string{strings.TrimSpace(*u.Email)}, plantilla, data)
	s.metrics.RecordAviso(ctx, plantilla, err == nil)
	if err != nil {
		s.log.Warn("no se pudo enviar el aviso",
			zap.String("usuario_id", u.ID.String()),
			zap.String("estado", string(hacia)),
			zap.Error(err),
		)
	}
}

// Reconectar restores a cut-off customer. The fee is billed on the next
// boleta, at once or split into a plan of installments.
func (s *Service) Reconectar(ctx context.Context, req estadodomain.ReconectarRequest) (*estadodomain.ReconexionResponse, error) {
	usuarioID, err := snowflake.ParseString(strings.TrimSpace(req.UsuarioID))
	if err != nil || usuarioID == 0 {
		return nil, estadodomain.ErrInvalidUsuario
	}
	cfg, err := s.tarifario.Configuracion(ctx)
	if err != nil {
		return nil, err
	}

	cuotas := 1
	if !req.PagoContado {
		cuotas = req.CantidadCuotas
		limite := min(cfg.ReconexionCuotasMax, tarifariodomain.MaxCuotasReconexion)
		if cuotas < 1 || cuotas > limite {
			return nil, estadodomain.ErrInvalidCuotas
		}
	}
	total := calculo.Redondear(cfg.ReconexionMonto)
	montoCuota, err := calculo.MontoCuota(total, cuotas, 1)
	if err != nil {
		return nil, err
	}

	var previo estadodomain.Estado
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.usuarioRepo.FindByID(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if u == nil {
			return estadodomain.ErrInvalidUsuario
		}
		if u.Rol != usuariodomain.RolCliente {
			return estadodomain.ErrUsuarioNoCliente
		}
		if u.ServicioDadoDeBaja {
			return estadodomain.ErrServicioDadoDeBaja
		}
		hacia, err := estadodomain.Siguiente(u.EstadoServicio, estadodomain.DisparadorReconexion)
		if err != nil {
			return err
		}
		impagas, err := s.boletaRepo.List(ctx, tx, boletadomain.ListFilter{
			UsuarioID: &u.ID,
			Estados: []boletadomain.Estado{
				boletadomain.EstadoPendiente,
				boletadomain.EstadoProcesando,
				boletadomain.EstadoVencida,
			},
		})
		if err != nil {
			return err
		}
		if len(impagas) > 0 {
			return estadodomain.ErrDeudaPendiente
		}

		now := s.clock.Now()
		metadata := map[string]any{
			"monto_total":     total.StringFixed(2),
			"pago_contado":    req.PagoContado,
			"cantidad_cuotas": cuotas,
		}
		if req.PagoContado {
			cargo := &tarifariodomain.CargoAplicado{
				ID:        s.genID.Generate(),
				UsuarioID: u.ID,
				Concepto:  estadodomain.ConceptoReconexion,
				Monto:     total,
				CreatedAt: now,
			}
			if err := s.tarifarioRepo.InsertCargoAplicado(ctx, tx, cargo); err != nil {
				return err
			}
			metadata["cargo_aplicado_id"] = cargo.ID.String()
		} else {
			activo, err := s.tarifarioRepo.FindPlanActivo(ctx, tx, u.ID)
			if err != nil {
				return err
			}
			if activo != nil {
				return estadodomain.ErrPlanActivo
			}
			plan := &tarifariodomain.PlanReconexion{
				ID:             s.genID.Generate(),
				UsuarioID:      u.ID,
				MontoTotal:     total,
				CantidadCuotas: cuotas,
				Activo:         true,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.tarifarioRepo.InsertPlan(ctx, tx, plan); err != nil {
				return err
			}
			metadata["plan_reconexion_id"] = plan.ID.String()
		}

		if err := s.usuarioRepo.UpdateEstadoServicio(ctx, tx, u.ID, hacia, now); err != nil {
			return err
		}
		previo = u.EstadoServicio
		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "estados_servicio",
			Entidad:      "Usuario",
			RegistroID:   u.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			Descripcion:  "Reconexión de servicio",
			DatosPrevios: map[string]any{"estado_servicio": u.EstadoServicio},
			DatosNuevos:  map[string]any{"estado_servicio": hacia},
			Metadata:     metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("servicio reconectado",
		zap.String("usuario_id", usuarioID.String()),
		zap.Bool("pago_contado", req.PagoContado),
		zap.Int("cuotas", cuotas),
	)
	s.metrics.RecordTransicionEstado(ctx, string(previo), string(estadodomain.EstadoActivo))

	return &estadodomain.ReconexionResponse{
		MontoTotal:     total,
		PagoContado:    req.PagoContado,
		CantidadCuotas: cuotas,
		MontoCuota:     montoCuota,
		EstadoServicio: estadodomain.EstadoActivo,
	}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/format"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/render"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability/metrics"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	origenIndividual = "individual"
	origenMasivo     = "masivo"

	ConceptoRecargoMora = "Recargo por mora"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          boletadomain.Repository
	UsuarioRepo   usuariodomain.Repository
	MedidorRepo   medidordomain.Repository
	LecturaRepo   lecturadomain.Repository
	TarifarioRepo tarifariodomain.Repository
	Tarifario     tarifariodomain.Service
	Auditoria     auditoriadomain.Service
	Operacion     *config.OperacionConfigHolder
	Renderer      render.Renderer
	PDF           pdf.Provider
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          boletadomain.Repository
	usuarioRepo   usuariodomain.Repository
	medidorRepo   medidordomain.Repository
	lecturaRepo   lecturadomain.Repository
	tarifarioRepo tarifariodomain.Repository
	tarifario     tarifariodomain.Service
	auditoria     auditoriadomain.Service
	operacion     *config.OperacionConfigHolder
	renderer      render.Renderer
	pdf           pdf.Provider
	metrics       *metrics.Metrics
}

func New(p Params) boletadomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("boleta.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		usuarioRepo:   p.UsuarioRepo,
		medidorRepo:   p.MedidorRepo,
		lecturaRepo:   p.LecturaRepo,
		tarifarioRepo: p.TarifarioRepo,
		tarifario:     p.Tarifario,
		auditoria:     p.Auditoria,
		operacion:     p.Operacion,
		renderer:      p.Renderer,
		pdf:           p.PDF,
		metrics:       p.Metrics,
	}
}

// insumos are the inputs of a composition besides the tariff.
type insumos struct {
	entrada   calculo.Entrada
	lecturaID *snowflake.ID
	planID    *snowflake.ID
	cargoIDs  []snowflake.ID
}

func (s *Service) GenerarIndividual(ctx context.Context, req boletadomain.GenerarRequest) (*boletadomain.Response, error) {
	if err := boletadomain.ValidarPeriodo(req.Mes, req.Anio); err != nil {
		return nil, err
	}
	usuarioID, err := snowflake.ParseString(strings.TrimSpace(req.UsuarioID))
	if err != nil || usuarioID == 0 {
		return nil, boletadomain.ErrInvalidUsuario
	}
	u, err := s.usuarioRepo.FindByID(ctx, s.db, usuarioID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, boletadomain.ErrInvalidUsuario
	}

	b, err := s.generar(ctx, u, req.Mes, req.Anio, origenIndividual)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, b.ID.String())
}

// GenerarMasivo bills every eligible customer for the period. Customers that
// already have a boleta are counted, never billed twice; failures are
// reported per customer and do not stop the run.
func (s *Service) GenerarMasivo(ctx context.Context, req boletadomain.GenerarMasivoRequest) (*boletadomain.MasivoResponse, error) {
	if err := boletadomain.ValidarPeriodo(req.Mes, req.Anio); err != nil {
		return nil, err
	}
	if _, err := s.tarifario.Vigente(ctx); err != nil {
		return nil, err
	}

	usuarios, err := s.usuarioRepo.ListElegibles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	conBoleta, err := s.repo.UsuariosConBoleta(ctx, s.db, req.Mes, req.Anio)
	if err != nil {
		return nil, err
	}
	existentes := make(map[snowflake.ID]struct{}, len(conBoleta))
	for _, id := range conBoleta {
		existentes[id] = struct{}{}
	}

	resp := &boletadomain.MasivoResponse{
		Mes:           req.Mes,
		Anio:          req.Anio,
		TotalClientes: len(usuarios),
		Errores:       []boletadomain.MasivoError{},
	}

	pendientes := make([]*usuariodomain.Usuario, 0, len(usuarios))
	for i := range usuarios {
		if _, ok := existentes[usuarios[i].ID]; ok {
			resp.BoletasExistentes++
			continue
		}
		pendientes = append(pendientes, &usuarios[i])
	}

	workers := 1
	if s.operacion != nil && !db.SerializesWrites(s.db) {
		workers = max(s.operacion.Get().Facturacion.WorkersMasivo, 1)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range pendientes {
		g.Go(func() error {
			_, err := s.generar(gctx, u, req.Mes, req.Anio, origenMasivo)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				resp.BoletasGeneradas++
			case errors.Is(err, boletadomain.ErrBoletaExistente):
				resp.BoletasExistentes++
			default:
				padron := ""
				if u.Padron != nil {
					padron = *u.Padron
				}
				resp.Errores = append(resp.Errores, boletadomain.MasivoError{
					UsuarioID: u.ID.String(),
					Padron:    padron,
					Error:     err.Error(),
				})
				s.log.Warn("boleta generation failed",
					zap.String("usuario_id", u.ID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("generacion masiva finalizada",
		zap.Int("mes", req.Mes),
		zap.Int("anio", req.Anio),
		zap.Int("total", resp.TotalClientes),
		zap.Int("generadas", resp.BoletasGeneradas),
		zap.Int("existentes", resp.BoletasExistentes),
		zap.Int("errores", len(resp.Errores)),
	)
	return resp, nil
}

func (s *Service) generar(ctx context.Context, u *usuariodomain.Usuario, mes, anio int, origen string) (*boletadomain.Boleta, error) {
	if !u.Elegible() {
		return nil, boletadomain.ErrUsuarioNoElegible
	}
	version, err := s.tarifario.Vigente(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := s.tarifario.Configuracion(ctx)
	if err != nil {
		return nil, err
	}

	var created *boletadomain.Boleta
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existente, err := s.repo.FindByUsuarioPeriodo(ctx, tx, u.ID, mes, anio)
		if err != nil {
			return err
		}
		if existente != nil {
			return boletadomain.ErrBoletaExistente
		}

		in, err := s.insumosNuevos(ctx, tx, u, mes, anio, cfg)
		if err != nil {
			return err
		}
		in.entrada.ConceptosFijos = version.ConceptosCalculo()
		in.entrada.Escalas = version.EscalasCalculo()
		comp, err := calculo.Componer(in.entrada)
		if err != nil {
			return err
		}

		seq, err := s.repo.NextSecuencia(ctx, tx, anio, mes)
		if err != nil {
			return err
		}
		numero, err := format.Numero(format.DefaultNumeroTemplate, anio, mes, seq)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		b := &boletadomain.Boleta{
			ID:               s.genID.Generate(),
			Numero:           numero,
			UsuarioID:        u.ID,
			Mes:              mes,
			Anio:             anio,
			LecturaID:        in.lecturaID,
			TarifarioID:      version.Tarifario.ID,
			TieneMedidor:     in.entrada.TieneMedidor,
			PlanReconexionID: in.planID,
			Estado:           boletadomain.EstadoPendiente,
			FechaEmision:     now,
			FechaVencimiento: now.AddDate(0, 0, cfg.DiasVencimiento),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		b.Aplicar(comp)

		if err := s.repo.Insert(ctx, tx, b); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return boletadomain.ErrBoletaExistente
			}
			return err
		}
		if err := s.tarifarioRepo.AsignarCargos(ctx, tx, in.cargoIDs, b.ID); err != nil {
			return err
		}
		if in.planID != nil {
			if err := s.facturarCuota(ctx, tx, *in.planID, now); err != nil {
				return err
			}
		}
		created = b

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "boletas",
			Entidad:     "Boleta",
			RegistroID:  b.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			Descripcion: fmt.Sprintf("Boleta %s generada (%s)", b.Numero, origen),
			DatosNuevos: b,
			Metadata:    map[string]any{"origen": origen},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBoletaGenerada(ctx, origen)
	return created, nil
}

func (s *Service) insumosNuevos(ctx context.Context, tx *gorm.DB, u *usuariodomain.Usuario, mes, anio int, cfg *tarifariodomain.ConfiguracionAvisos) (*insumos, error) {
	in, err := s.insumosConsumo(ctx, tx, u, mes, anio)
	if err != nil {
		return nil, err
	}

	pendientes, err := s.tarifarioRepo.ListCargosPendientes(ctx, tx, u.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range pendientes {
		in.entrada.Cargos = append(in.entrada.Cargos, calculo.Cargo{Concepto: c.Concepto, Monto: c.Monto})
		in.cargoIDs = append(in.cargoIDs, c.ID)
	}

	if cfg.RecargoMoraActivo && cfg.RecargoMoraMonto.IsPositive() {
		vencidas, err := s.repo.List(ctx, tx, boletadomain.ListFilter{
			UsuarioID: &u.ID,
			Estados:   []boletadomain.Estado{boletadomain.EstadoVencida},
		})
		if err != nil {
			return nil, err
		}
		if len(vencidas) > 0 {
			in.entrada.Cargos = append(in.entrada.Cargos, calculo.Cargo{Concepto: ConceptoRecargoMora, Monto: cfg.RecargoMoraMonto})
		}
	}

	plan, err := s.tarifarioRepo.FindPlanActivo(ctx, tx, u.ID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		cuota, err := plan.SiguienteCuota()
		if err != nil {
			return nil, err
		}
		if cuota != nil {
			in.entrada.Cuota = cuota
			in.planID = &plan.ID
		}
	}
	return in, nil
}

// insumosConsumo reads the period's reading of the customer's active meter.
// A customer without a reading is billed with zero consumption.
func (s *Service) insumosConsumo(ctx context.Context, tx *gorm.DB, u *usuariodomain.Usuario, mes, anio int) (*insumos, error) {
	in := &insumos{entrada: calculo.Entrada{TipoCliente: string(u.TipoCliente)}}

	medidor, err := s.medidorRepo.FindActivoByUsuario(ctx, tx, u.ID)
	if err != nil {
		return nil, err
	}
	if medidor == nil {
		return in, nil
	}
	in.entrada.TieneMedidor = true

	lectura, err := s.lecturaRepo.FindPorPeriodo(ctx, tx, medidor.ID, mes, anio)
	if err != nil {
		return nil, err
	}
	if lectura != nil {
		in.entrada.ConsumoM3 = lectura.ConsumoM3
		in.lecturaID = &lectura.ID
	}
	return in, nil
}

func (s *Service) facturarCuota(ctx context.Context, tx *gorm.DB, planID snowflake.ID, now time.Time) error {
	plan, err := s.tarifarioRepo.FindPlan(ctx, tx, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}
	plan.CuotasFacturadas++
	plan.UpdatedAt = now
	return s.tarifarioRepo.UpdatePlan(ctx, tx, plan)
}

// Recalcular recomposes a boleta that is not yet paid with the current tariff
// and reading. Its number, attached charges and installment are kept.
func (s *Service) Recalcular(ctx context.Context, id string) (*boletadomain.Response, error) {
	boletaID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || boletaID == 0 {
		return nil, boletadomain.ErrInvalidID
	}
	version, err := s.tarifario.Vigente(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.repo.FindByID(ctx, tx, boletaID)
		if err != nil {
			return err
		}
		if b == nil {
			return boletadomain.ErrNotFound
		}
		if !b.Estado.Recalculable() {
			return boletadomain.ErrBoletaNoRecalculable
		}
		u, err := s.usuarioRepo.FindByID(ctx, tx, b.UsuarioID)
		if err != nil {
			return err
		}
		if u == nil {
			return boletadomain.ErrInvalidUsuario
		}
		previo := *b

		in, err := s.insumosConsumo(ctx, tx, u, b.Mes, b.Anio)
		if err != nil {
			return err
		}
		in.entrada.ConceptosFijos = version.ConceptosCalculo()
		in.entrada.Escalas = version.EscalasCalculo()

		adjuntos, err := s.tarifarioRepo.ListCargosByBoleta(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		for _, c := range adjuntos {
			in.entrada.Cargos = append(in.entrada.Cargos, calculo.Cargo{Concepto: c.Concepto, Monto: c.Monto})
		}
		for _, c := range b.CargosExtras.Data() {
			if c.Concepto == ConceptoRecargoMora {
				in.entrada.Cargos = append(in.entrada.Cargos, c)
			}
		}
		if b.CuotaPlanNumero != nil {
			in.entrada.Cuota = &calculo.Cuota{Numero: *b.CuotaPlanNumero, Monto: b.MontoCuotaPlan}
		}

		comp, err := calculo.Componer(in.entrada)
		if err != nil {
			return err
		}
		b.Aplicar(comp)
		b.LecturaID = in.lecturaID
		b.TarifarioID = version.Tarifario.ID
		b.TieneMedidor = in.entrada.TieneMedidor
		b.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateMontos(ctx, tx, b); err != nil {
			return err
		}
		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "boletas",
			Entidad:      "Boleta",
			RegistroID:   b.ID.String(),
			Accion:       auditoriadomain.AccionRecalculo,
			Descripcion:  "Boleta " + b.Numero + " recalculada",
			DatosPrevios: previo,
			DatosNuevos:  b,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, boletaID.String())
}

func (s *Service) MarcarVencidas(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.repo.MarcarVencidas(ctx, tx, now)
		if err != nil {
			return err
		}
		count = n
		if n == 0 {
			return nil
		}
		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "boletas",
			Entidad:     "Boleta",
			Accion:      auditoriadomain.AccionActualizacion,
			Descripcion: fmt.Sprintf("%d boletas marcadas como vencidas", n),
			Metadata:    map[string]any{"cantidad": n},
		})
	})
	return count, err
}

package service

import (
	"context"
	"strings"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/cache"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	vigenteKey = "vigente"
	vigenteTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        tarifariodomain.Repository
	UsuarioRepo usuariodomain.Repository
	Auditoria   auditoriadomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        tarifariodomain.Repository
	usuarioRepo usuariodomain.Repository
	auditoria   auditoriadomain.Service

	vigente cache.Cache[string, *tarifariodomain.Version]
}

func New(p Params) tarifariodomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("tarifario.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		usuarioRepo: p.UsuarioRepo,
		auditoria:   p.Auditoria,
		vigente:     cache.NewTTLCache[string, *tarifariodomain.Version](),
	}
}

func (s *Service) Vigente(ctx context.Context) (*tarifariodomain.Version, error) {
	if v, ok := s.vigente.Get(vigenteKey); ok {
		return v, nil
	}
	v, err := s.loadVigente(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.vigente.Set(vigenteKey, v, vigenteTTL)
	return v, nil
}

func (s *Service) loadVigente(ctx context.Context, db *gorm.DB) (*tarifariodomain.Version, error) {
	t, err := s.repo.FindActivo(ctx, db)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tarifariodomain.ErrSinTarifarioActivo
	}
	return s.repo.LoadVersion(ctx, db, t)
}

func (s *Service) GetActivo(ctx context.Context) (*tarifariodomain.Response, error) {
	v, err := s.Vigente(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(v), nil
}

// ActualizarActivo stores a new tariff version and makes it the only active
// one. Boletas already issued keep the amounts they were composed with.
func (s *Service) ActualizarActivo(ctx context.Context, req tarifariodomain.ActualizarRequest) (*tarifariodomain.Response, error) {
	now := s.clock.Now()
	tarifarioID := s.genID.Generate()
	vigencia := now
	if req.VigenciaDesde != nil && !req.VigenciaDesde.IsZero() {
		vigencia = req.VigenciaDesde.UTC()
	}

	v := &tarifariodomain.Version{
		Tarifario: tarifariodomain.Tarifario{
			ID:            tarifarioID,
			Nombre:        strings.TrimSpace(req.Nombre),
			VigenciaDesde: vigencia,
			Activo:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	if v.Tarifario.Nombre == "" {
		v.Tarifario.Nombre = "Tarifario " + vigencia.Format("2006-01-02")
	}
	for _, c := range req.ConceptosFijos {
		v.ConceptosFijos = append(v.ConceptosFijos, tarifariodomain.ConceptoFijo{
			ID:          s.genID.Generate(),
			TarifarioID: tarifarioID,
			TipoCliente: strings.ToLower(strings.TrimSpace(c.TipoCliente)),
			Nombre:      strings.TrimSpace(c.Nombre),
			Monto:       c.Monto,
		})
	}
	for i, e := range req.EscalasConsumo {
		orden := e.Orden
		if orden == 0 {
			orden = i + 1
		}
		v.Escalas = append(v.Escalas, tarifariodomain.EscalaConsumo{
			ID:          s.genID.Generate(),
			TarifarioID: tarifarioID,
			TipoCliente: strings.ToLower(strings.TrimSpace(e.TipoCliente)),
			DesdeM3:     e.DesdeM3,
			HastaM3:     e.HastaM3,
			PrecioPorM3: e.PrecioPorM3,
			Orden:       orden,
		})
	}
	for _, c := range req.CargosExtras {
		activo := true
		if c.Activo != nil {
			activo = *c.Activo
		}
		v.CargosExtras = append(v.CargosExtras, tarifariodomain.CargoExtra{
			ID:          s.genID.Generate(),
			TarifarioID: tarifarioID,
			Nombre:      strings.TrimSpace(c.Nombre),
			Monto:       c.Monto,
			Activo:      activo,
		})
	}

	if err := tarifariodomain.ValidarVersion(v); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		previo, err := s.repo.FindActivo(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.repo.DesactivarTodos(ctx, tx); err != nil {
			return err
		}
		if err := s.repo.InsertVersion(ctx, tx, v); err != nil {
			return err
		}

		entrada := auditoriadomain.Entrada{
			Modulo:      "tarifario",
			Entidad:     "Tarifario",
			RegistroID:  tarifarioID.String(),
			Accion:      auditoriadomain.AccionActualizacion,
			Descripcion: "Nueva versión de tarifario",
			DatosNuevos: toResponse(v),
		}
		if previo != nil {
			entrada.Metadata = map[string]any{"tarifario_previo": previo.ID.String()}
		} else {
			entrada.Accion = auditoriadomain.AccionCreacion
		}
		return s.auditoria.Registrar(ctx, tx, entrada)
	})
	if err != nil {
		return nil, err
	}

	s.vigente.Delete(vigenteKey)
	s.log.Info("tarifario actualizado", zap.String("tarifario_id", tarifarioID.String()))
	return toResponse(v), nil
}

// Configuracion returns the stored notice configuration, or the defaults
// when none was saved yet.
func (s *Service) Configuracion(ctx context.Context) (*tarifariodomain.ConfiguracionAvisos, error) {
	c, err := s.repo.FindConfiguracion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if c == nil {
		def := tarifariodomain.DefaultConfiguracion()
		return &def, nil
	}
	return c, nil
}

func (s *Service) GetConfiguracion(ctx context.Context) (*tarifariodomain.ConfiguracionResponse, error) {
	c, err := s.Configuracion(ctx)
	if err != nil {
		return nil, err
	}
	return toConfiguracionResponse(c), nil
}

func (s *Service) ActualizarConfiguracion(ctx context.Context, req tarifariodomain.ConfiguracionRequest) (*tarifariodomain.ConfiguracionResponse, error) {
	var saved *tarifariodomain.ConfiguracionAvisos
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actual, err := s.repo.FindConfiguracion(ctx, tx)
		if err != nil {
			return err
		}
		if actual == nil {
			def := tarifariodomain.DefaultConfiguracion()
			actual = &def
		}
		previo := *actual
		c := *actual

		setInt(&c.AvisoDeudaMeses, req.AvisoDeudaMeses)
		setInt(&c.AvisoCorteMeses, req.AvisoCorteMeses)
		setInt(&c.AvisoCorteDiasDespues, req.AvisoCorteDiasDespues)
		setInt(&c.CorteDiasDespues, req.CorteDiasDespues)
		setInt(&c.ReconexionCuotasMax, req.ReconexionCuotasMax)
		setInt(&c.DiasVencimiento, req.DiasVencimiento)
		if req.AvisoDeudaMonto != nil {
			c.AvisoDeudaMonto = *req.AvisoDeudaMonto
		}
		if req.AvisoCorteMonto != nil {
			c.AvisoCorteMonto = *req.AvisoCorteMonto
		}
		if req.ReconexionMonto != nil {
			c.ReconexionMonto = *req.ReconexionMonto
		}
		if req.RecargoMoraMonto != nil {
			c.RecargoMoraMonto = *req.RecargoMoraMonto
		}
		if req.RecargoMoraActivo != nil {
			c.RecargoMoraActivo = *req.RecargoMoraActivo
		}
		if err := validarConfiguracion(c); err != nil {
			return err
		}
		c.UpdatedAt = s.clock.Now()

		if err := s.repo.SaveConfiguracion(ctx, tx, &c); err != nil {
			return err
		}
		saved = &c

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "tarifario",
			Entidad:      "ConfiguracionAvisos",
			RegistroID:   "1",
			Accion:       auditoriadomain.AccionActualizacion,
			DatosPrevios: toConfiguracionResponse(&previo),
			DatosNuevos:  toConfiguracionResponse(&c),
		})
	})
	if err != nil {
		return nil, err
	}
	return toConfiguracionResponse(saved), nil
}

func validarConfiguracion(c tarifariodomain.ConfiguracionAvisos) error {
	if c.AvisoDeudaMeses < 0 || c.AvisoCorteMeses < 0 ||
		c.AvisoCorteDiasDespues < 0 || c.CorteDiasDespues < 0 || c.DiasVencimiento < 0 {
		return tarifariodomain.ErrInvalidConfiguracion
	}
	if c.AvisoDeudaMonto.IsNegative() || c.AvisoCorteMonto.IsNegative() ||
		c.ReconexionMonto.IsNegative() || c.RecargoMoraMonto.IsNegative() {
		return tarifariodomain.ErrInvalidMonto
	}
	if c.ReconexionCuotasMax < 1 || c.ReconexionCuotasMax > tarifariodomain.MaxCuotasReconexion {
		return tarifariodomain.ErrInvalidCuotasMax
	}
	return nil
}

func (s *Service) ListCargosExtras(ctx context.Context) ([]tarifariodomain.CargoExtraResponse, error) {
	v, err := s.Vigente(ctx)
	if err != nil {
		return nil, err
	}
	return toCargosResponse(v.CargosExtras), nil
}

// AplicarCargo assigns a one-time charge to a customer. The charge is billed
// on the next boleta generated for them.
func (s *Service) AplicarCargo(ctx context.Context, req tarifariodomain.AplicarCargoRequest) (*tarifariodomain.CargoAplicadoResponse, error) {
	usuarioID, err := snowflake.ParseString(strings.TrimSpace(req.UsuarioID))
	if err != nil || usuarioID == 0 {
		return nil, tarifariodomain.ErrInvalidUsuario
	}

	var created *tarifariodomain.CargoAplicado
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.usuarioRepo.FindByID(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if u == nil {
			return tarifariodomain.ErrInvalidUsuario
		}
		if u.Rol != usuariodomain.RolCliente {
			return tarifariodomain.ErrUsuarioNoCliente
		}

		c := &tarifariodomain.CargoAplicado{
			ID:        s.genID.Generate(),
			UsuarioID: usuarioID,
			Concepto:  strings.TrimSpace(req.Concepto),
			CreatedAt: s.clock.Now(),
		}

		if req.CargoExtraID != nil && strings.TrimSpace(*req.CargoExtraID) != "" {
			cargoID, err := snowflake.ParseString(strings.TrimSpace(*req.CargoExtraID))
			if err != nil || cargoID == 0 {
				return tarifariodomain.ErrInvalidCargoExtra
			}
			extra, err := s.repo.FindCargoExtra(ctx, tx, cargoID)
			if err != nil {
				return err
			}
			if extra == nil {
				return tarifariodomain.ErrInvalidCargoExtra
			}
			if !extra.Activo {
				return tarifariodomain.ErrCargoExtraInactivo
			}
			c.CargoExtraID = &extra.ID
			if c.Concepto == "" {
				c.Concepto = extra.Nombre
			}
			switch {
			case extra.Monto != nil:
				c.Monto = *extra.Monto
			case req.Monto != nil:
				c.Monto = *req.Monto
			}
		} else if req.Monto != nil {
			c.Monto = *req.Monto
		}

		if c.Concepto == "" {
			return tarifariodomain.ErrInvalidConcepto
		}
		if !c.Monto.IsPositive() {
			return tarifariodomain.ErrInvalidMonto
		}
		c.Monto = c.Monto.Round(2)

		if err := s.repo.InsertCargoAplicado(ctx, tx, c); err != nil {
			return err
		}
		created = c

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "tarifario",
			Entidad:     "CargoAplicado",
			RegistroID:  c.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			DatosNuevos: toCargoAplicadoResponse(c),
		})
	})
	if err != nil {
		return nil, err
	}
	return toCargoAplicadoResponse(created), nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func toResponse(v *tarifariodomain.Version) *tarifariodomain.Response {
	resp := &tarifariodomain.Response{
		ID:             v.Tarifario.ID.String(),
		Nombre:         v.Tarifario.Nombre,
		VigenciaDesde:  v.Tarifario.VigenciaDesde,
		Activo:         v.Tarifario.Activo,
		ConceptosFijos: make([]tarifariodomain.ConceptoFijoDTO, 0, len(v.ConceptosFijos)),
		EscalasConsumo: make([]tarifariodomain.EscalaDTO, 0, len(v.Escalas)),
		CargosExtras:   toCargosResponse(v.CargosExtras),
	}
	for _, c := range v.ConceptosFijos {
		resp.ConceptosFijos = append(resp.ConceptosFijos, tarifariodomain.ConceptoFijoDTO{
			TipoCliente: c.TipoCliente,
			Nombre:      c.Nombre,
			Monto:       c.Monto,
		})
	}
	for _, e := range v.Escalas {
		resp.EscalasConsumo = append(resp.EscalasConsumo, tarifariodomain.EscalaDTO{
			TipoCliente: e.TipoCliente,
			DesdeM3:     e.DesdeM3,
			HastaM3:     e.HastaM3,
			PrecioPorM3: e.PrecioPorM3,
			Orden:       e.Orden,
		})
	}
	return resp
}

func toCargosResponse(items []tarifariodomain.CargoExtra) []tarifariodomain.CargoExtraResponse {
	resp := make([]tarifariodomain.CargoExtraResponse, 0, len(items))
	for _, c := range items {
		resp = append(resp, tarifariodomain.CargoExtraResponse{
			ID:     c.ID.String(),
			Nombre: c.Nombre,
			Monto:  c.Monto,
			Activo: c.Activo,
		})
	}
	return resp
}

func toConfiguracionResponse(c *tarifariodomain.ConfiguracionAvisos) *tarifariodomain.ConfiguracionResponse {
	return &tarifariodomain.ConfiguracionResponse{
		AvisoDeudaMeses:       c.AvisoDeudaMeses,
		AvisoDeudaMonto:       c.AvisoDeudaMonto,
		AvisoCorteMeses:       c.AvisoCorteMeses,
		AvisoCorteMonto:       c.AvisoCorteMonto,
		AvisoCorteDiasDespues: c.AvisoCorteDiasDespues,
		CorteDiasDespues:      c.CorteDiasDespues,
		ReconexionMonto:       c.ReconexionMonto,
		ReconexionCuotasMax:   c.ReconexionCuotasMax,
		RecargoMoraMonto:      c.RecargoMoraMonto,
		RecargoMoraActivo:     c.RecargoMoraActivo,
		DiasVencimiento:       c.DiasVencimiento,
		ActualizadoEn:         c.UpdatedAt,
	}
}

func toCargoAplicadoResponse(c *tarifariodomain.CargoAplicado) *tarifariodomain.CargoAplicadoResponse {
	resp := &tarifariodomain.CargoAplicadoResponse{
		ID:        c.ID.String(),
		UsuarioID: c.UsuarioID.String(),
		Concepto:  c.Concepto,
		Monto:     c.Monto,
		CreadoEn:  c.CreatedAt,
	}
	if c.CargoExtraID != nil {
		id := c.CargoExtraID.String()
		resp.CargoExtraID = &id
	}
	if c.BoletaID != nil {
		id := c.BoletaID.String()
		resp.BoletaID = &id
	}
	return resp
}

package service

import (
	"context"
	"net/mail"
	"strconv"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auth/password"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        usuariodomain.Repository
	ZonaRepo    zonadomain.Repository
	MedidorRepo medidordomain.Repository
	BoletaRepo  boletadomain.Repository
	Auditoria   auditoriadomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        usuariodomain.Repository
	zonaRepo    zonadomain.Repository
	medidorRepo medidordomain.Repository
	boletaRepo  boletadomain.Repository
	auditoria   auditoriadomain.Service
}

func New(p Params) usuariodomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("usuario.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		zonaRepo:    p.ZonaRepo,
		medidorRepo: p.MedidorRepo,
		boletaRepo:  p.BoletaRepo,
		auditoria:   p.Auditoria,
	}
}

// Create registers a customer or an internal user. Customers get a padron
// generated from their zone when none is given; internal users need an
// email and a password.
func (s *Service) Create(ctx context.Context, req usuariodomain.CreateRequest) (*usuariodomain.Response, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, usuariodomain.ErrInvalidNombre
	}
	rol := usuariodomain.Rol(strings.ToLower(strings.TrimSpace(req.Rol)))
	if rol == "" {
		rol = usuariodomain.RolCliente
	}
	if !rol.Valido() {
		return nil, usuariodomain.ErrInvalidRol
	}
	tipo := usuariodomain.TipoCliente(strings.ToLower(strings.TrimSpace(req.TipoCliente)))
	if tipo == "" {
		tipo = usuariodomain.TipoResidencial
	}
	if !tipo.Valido() {
		return nil, usuariodomain.ErrInvalidTipoCliente
	}

	now := s.clock.Now()
	u := &usuariodomain.Usuario{
		ID:                  s.genID.Generate(),
		Nombre:              nombre,
		Rol:                 rol,
		TipoCliente:         tipo,
		Direccion:           strings.TrimSpace(req.Direccion),
		Telefono:            strings.TrimSpace(req.Telefono),
		Activo:              true,
		EstadoServicio:      estadodomain.EstadoActivo,
		EstadoServicioDesde: &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	u.Email = email

	if rol != usuariodomain.RolCliente {
		if u.Email == nil {
			return nil, usuariodomain.ErrInvalidEmail
		}
		if req.Password == nil || len(*req.Password) < minPasswordLen {
			return nil, usuariodomain.ErrInvalidPassword
		}
		hash, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = &hash
	}

	var zona *zonadomain.Zona
	if req.ZonaID != nil && strings.TrimSpace(*req.ZonaID) != "" {
		zona, err = s.findZona(ctx, *req.ZonaID)
		if err != nil {
			return nil, err
		}
		u.ZonaID = &zona.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rol == usuariodomain.RolCliente {
			padron, err := s.resolvePadron(ctx, tx, req.Padron, zona)
			if err != nil {
				return err
			}
			u.Padron = &padron
		}

		if err := s.emailLibre(ctx, tx, u); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, u); err != nil {
			return mapDuplicate(err)
		}

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "usuarios",
			Entidad:     "Usuario",
			RegistroID:  u.ID.String(),
			Accion:      auditoriadomain.AccionCreacion,
			DatosNuevos: u,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, u, zona, nil), nil
}

func (s *Service) resolvePadron(ctx context.Context, tx *gorm.DB, requested *string, zona *zonadomain.Zona) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		padron := strings.TrimSpace(*requested)
		if _, _, ok := usuariodomain.ParsePadron(padron); !ok {
			return "", usuariodomain.ErrInvalidPadron
		}
		return padron, nil
	}
	if zona == nil {
		return "", usuariodomain.ErrInvalidZona
	}
	existentes, err := s.repo.ListPadronesPorPrefijo(ctx, tx, strconv.Itoa(zona.Valor))
	if err != nil {
		return "", err
	}
	return usuariodomain.SiguientePadron(zona.Valor, existentes), nil
}

func (s *Service) List(ctx context.Context, req usuariodomain.ListRequest) ([]usuariodomain.Response, error) {
	filter := usuariodomain.ListFilter{
		Busqueda: strings.TrimSpace(req.Busqueda),
	}
	if raw := strings.TrimSpace(req.Rol); raw != "" {
		rol := usuariodomain.Rol(strings.ToLower(raw))
		if !rol.Valido() {
			return nil, usuariodomain.ErrInvalidRol
		}
		filter.Rol = rol
	}
	if raw := strings.TrimSpace(req.ZonaID); raw != "" {
		zonaID, err := snowflake.ParseString(raw)
		if err != nil || zonaID == 0 {
			return nil, usuariodomain.ErrInvalidZona
		}
		filter.ZonaID = &zonaID
	}
	if raw := strings.TrimSpace(req.EstadoServicio); raw != "" {
		filter.EstadoServicio = estadodomain.Estado(strings.ToUpper(raw))
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []usuariodomain.Response{}, nil
	}

	zonas, err := s.zonaRepo.Find(ctx, &zonadomain.Zona{})
	if err != nil {
		return nil, err
	}
	zonasByID := make(map[snowflake.ID]*zonadomain.Zona, len(zonas))
	for _, z := range zonas {
		zonasByID[z.ID] = z
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, u := range items {
		ids = append(ids, u.ID)
	}
	medidores, err := s.medidorRepo.ListActivosByUsuarios(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	medidorByUsuario := make(map[snowflake.ID]*medidordomain.Medidor, len(medidores))
	for i := range medidores {
		medidorByUsuario[medidores[i].UsuarioID] = &medidores[i]
	}

	resp := make([]usuariodomain.Response, 0, len(items))
	for i := range items {
		u := &items[i]
		var zona *zonadomain.Zona
		if u.ZonaID != nil {
			zona = zonasByID[*u.ZonaID]
		}
		resp = append(resp, *s.toResponse(ctx, u, zona, medidorByUsuario[u.ID]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*usuariodomain.Response, error) {
	u, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, u)
}

func (s *Service) GetByPadron(ctx context.Context, padron string) (*usuariodomain.Response, error) {
	padron = strings.TrimSpace(padron)
	if padron == "" {
		return nil, usuariodomain.ErrInvalidPadron
	}
	u, err := s.repo.FindByPadron(ctx, s.db, padron)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, usuariodomain.ErrNotFound
	}
	return s.withRefs(ctx, u)
}

func (s *Service) Update(ctx context.Context, req usuariodomain.UpdateRequest) (*usuariodomain.Response, error) {
	var updated *usuariodomain.Usuario
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.find(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		previo := *u

		if req.Nombre != nil {
			nombre := strings.TrimSpace(*req.Nombre)
			if nombre == "" {
				return usuariodomain.ErrInvalidNombre
			}
			u.Nombre = nombre
		}
		if req.Email != nil {
			email, err := normalizeEmail(req.Email)
			if err != nil {
				return err
			}
			if email == nil && u.Rol != usuariodomain.RolCliente {
				return usuariodomain.ErrInvalidEmail
			}
			u.Email = email
		}
		if req.Password != nil {
			if u.Rol == usuariodomain.RolCliente || len(*req.Password) < minPasswordLen {
				return usuariodomain.ErrInvalidPassword
			}
			hash, err := password.Hash(*req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = &hash
		}
		if req.ZonaID != nil {
			zona, err := s.findZona(ctx, *req.ZonaID)
			if err != nil {
				return err
			}
			u.ZonaID = &zona.ID
		}
		if req.TipoCliente != nil {
			tipo := usuariodomain.TipoCliente(strings.ToLower(strings.TrimSpace(*req.TipoCliente)))
			if !tipo.Valido() {
				return usuariodomain.ErrInvalidTipoCliente
			}
			u.TipoCliente = tipo
		}
		if req.Direccion != nil {
			u.Direccion = strings.TrimSpace(*req.Direccion)
		}
		if req.Telefono != nil {
			u.Telefono = strings.TrimSpace(*req.Telefono)
		}
		if req.Activo != nil {
			u.Activo = *req.Activo
		}
		u.UpdatedAt = s.clock.Now()

		if err := s.emailLibre(ctx, tx, u); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, u); err != nil {
			return mapDuplicate(err)
		}
		updated = u

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "usuarios",
			Entidad:      "Usuario",
			RegistroID:   u.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			DatosPrevios: previo,
			DatosNuevos:  u,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, updated)
}

// Delete removes a user that was never billed. Customers with boletas must
// be deactivated or have their service terminated instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		count, err := s.boletaRepo.CountByUsuario(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return usuariodomain.ErrTieneBoletas
		}
		if err := s.repo.Delete(ctx, tx, u.ID); err != nil {
			return err
		}
		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "usuarios",
			Entidad:      "Usuario",
			RegistroID:   u.ID.String(),
			Accion:       auditoriadomain.AccionEliminacion,
			DatosPrevios: u,
		})
	})
}

func (s *Service) DarDeBajaServicio(ctx context.Context, req usuariodomain.BajaServicioRequest) (*usuariodomain.Response, error) {
	motivo := strings.TrimSpace(req.Motivo)
	if motivo == "" {
		return nil, usuariodomain.ErrInvalidMotivo
	}

	var updated *usuariodomain.Usuario
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.find(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if u.ServicioDadoDeBaja {
			return usuariodomain.ErrYaDadoDeBaja
		}
		previo := *u

		now := s.clock.Now()
		u.ServicioDadoDeBaja = true
		u.FechaBajaServicio = &now
		u.MotivoBajaServicio = &motivo
		u.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, u); err != nil {
			return err
		}
		updated = u

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:       "usuarios",
			Entidad:      "Usuario",
			RegistroID:   u.ID.String(),
			Accion:       auditoriadomain.AccionActualizacion,
			Descripcion:  "Baja de servicio: " + motivo,
			DatosPrevios: previo,
			DatosNuevos:  u,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.withRefs(ctx, updated)
}

func (s *Service) SiguientePadron(ctx context.Context, zonaID string) (string, error) {
	zona, err := s.findZona(ctx, zonaID)
	if err != nil {
		return "", err
	}
	return s.resolvePadron(ctx, s.db, nil, zona)
}

func (s *Service) find(ctx context.Context, tx *gorm.DB, id string) (*usuariodomain.Usuario, error) {
	usuarioID, err := usuariodomain.ParseID(strings.TrimSpace(id))
	if err != nil || usuarioID == 0 {
		return nil, usuariodomain.ErrInvalidID
	}
	u, err := s.repo.FindByID(ctx, tx, usuarioID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, usuariodomain.ErrNotFound
	}
	return u, nil
}

func (s *Service) findZona(ctx context.Context, id string) (*zonadomain.Zona, error) {
	zonaID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || zonaID == 0 {
		return nil, usuariodomain.ErrInvalidZona
	}
	zona, err := s.zonaRepo.FindOne(ctx, &zonadomain.Zona{ID: zonaID})
	if err != nil {
		return nil, err
	}
	if zona == nil {
		return nil, usuariodomain.ErrInvalidZona
	}
	return zona, nil
}

func (s *Service) withRefs(ctx context.Context, u *usuariodomain.Usuario) (*usuariodomain.Response, error) {
	var zona *zonadomain.Zona
	if u.ZonaID != nil {
		z, err := s.zonaRepo.FindOne(ctx, &zonadomain.Zona{ID: *u.ZonaID})
		if err != nil {
			return nil, err
		}
		zona = z
	}
	medidor, err := s.medidorRepo.FindActivoByUsuario(ctx, s.db, u.ID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, u, zona, medidor), nil
}

func (s *Service) toResponse(_ context.Context, u *usuariodomain.Usuario, zona *zonadomain.Zona, medidor *medidordomain.Medidor) *usuariodomain.Response {
	resp := &usuariodomain.Response{
		ID:                  u.ID.String(),
		Nombre:              u.Nombre,
		Email:               u.Email,
		Rol:                 string(u.Rol),
		Padron:              u.Padron,
		TipoCliente:         string(u.TipoCliente),
		Direccion:           u.Direccion,
		Telefono:            u.Telefono,
		Activo:              u.Activo,
		EstadoServicio:      string(u.EstadoServicio),
		EstadoServicioDesde: u.EstadoServicioDesde,
		ServicioDadoDeBaja:  u.ServicioDadoDeBaja,
		FechaBajaServicio:   u.FechaBajaServicio,
		CreadoEn:            u.CreatedAt,
		ActualizadoEn:       u.UpdatedAt,
	}
	if zona != nil {
		resp.Zona = &usuariodomain.ZonaRef{
			ID:     zona.ID.String(),
			Nombre: zona.Nombre,
			Valor:  zona.Valor,
		}
	}
	if medidor != nil {
		resp.Medidor = &usuariodomain.MedidorRef{
			ID:               medidor.ID.String(),
			NumeroSerie:      medidor.NumeroSerie,
			FechaInstalacion: medidor.FechaInstalacion,
			Activo:           medidor.Activo,
		}
	}
	return resp
}

func normalizeEmail(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	email := strings.ToLower(strings.TrimSpace(*raw))
	if email == "" {
		return nil, nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, usuariodomain.ErrInvalidEmail
	}
	return &email, nil
}

// emailLibre rejects an email held by another usuario. Translated unique
// violations no longer name the column, so this check runs before writing.
func (s *Service) emailLibre(ctx context.Context, tx *gorm.DB, u *usuariodomain.Usuario) error {
	if u.Email == nil {
		return nil
	}
	other, err := s.repo.FindByEmail(ctx, tx, *u.Email)
	if err != nil {
		return err
	}
	if other != nil && other.ID != u.ID {
		return usuariodomain.ErrEmailEnUso
	}
	return nil
}

func mapDuplicate(err error) error {
	if !db.IsDuplicateKeyErr(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "email") {
		return usuariodomain.ErrEmailEnUso
	}
	return usuariodomain.ErrPadronEnUso
}

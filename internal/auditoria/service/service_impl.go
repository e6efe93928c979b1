package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/auditcontext"
	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/masking"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditoriadomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditoriadomain.Repository
}

func New(p Params) auditoriadomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auditoria.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Registrar(ctx context.Context, tx *gorm.DB, e auditoriadomain.Entrada) error {
	modulo := strings.TrimSpace(e.Modulo)
	if modulo == "" {
		return auditoriadomain.ErrInvalidModulo
	}
	entidad := strings.TrimSpace(e.Entidad)
	if entidad == "" {
		return auditoriadomain.ErrInvalidEntidad
	}
	if !e.Accion.Valida() {
		return auditoriadomain.ErrInvalidAccion
	}

	metadata := map[string]any{}
	for key, value := range e.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		metadata[key] = value
	}
	if requestID := auditcontext.RequestID(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}
	if ip := auditcontext.IPAddress(ctx); ip != "" {
		metadata["ip"] = ip
	}
	if ua := auditcontext.UserAgent(ctx); ua != "" {
		metadata["user_agent"] = ua
	}
	actorType, actorID, rol := auditcontext.Actor(ctx)
	if actorType != "" {
		metadata["actor_type"] = actorType
	}
	if actorType == auditcontext.ActorTypeSystem && actorID != "" {
		metadata["job"] = actorID
	}
	if rol != "" {
		metadata["rol"] = rol
	}

	entry := auditoriadomain.Registro{
		ID:           s.genID.Generate(),
		Modulo:       modulo,
		Entidad:      entidad,
		Accion:       e.Accion,
		DatosPrevios: snapshot(e.DatosPrevios),
		DatosNuevos:  snapshot(e.DatosNuevos),
		Metadata:     snapshot(metadata),
		CreadoEn:     s.clock.Now(),
	}
	if registroID := strings.TrimSpace(e.RegistroID); registroID != "" {
		entry.RegistroID = &registroID
	}
	if descripcion := strings.TrimSpace(e.Descripcion); descripcion != "" {
		entry.Descripcion = &descripcion
	}
	if actorType == auditcontext.ActorTypeUser {
		if id, err := snowflake.ParseString(actorID); err == nil && id != 0 {
			entry.UsuarioID = &id
		}
	}

	db := tx
	if db == nil {
		db = s.db
	}
	if err := s.repo.Insert(ctx, db, &entry); err != nil {
		s.log.Warn("failed to write audit entry",
			zap.String("modulo", modulo),
			zap.String("accion", string(e.Accion)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditoriadomain.ListRequest) (auditoriadomain.ListResponse, error) {
	if req.Desde != nil && req.Hasta != nil && req.Desde.After(*req.Hasta) {
		return auditoriadomain.ListResponse{}, auditoriadomain.ErrInvalidTimeRange
	}

	accion := auditoriadomain.Accion(strings.TrimSpace(req.Accion))
	if accion != "" && !accion.Valida() {
		return auditoriadomain.ListResponse{}, auditoriadomain.ErrInvalidAccion
	}

	var usuarioID *snowflake.ID
	if raw := strings.TrimSpace(req.UsuarioID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return auditoriadomain.ListResponse{}, auditoriadomain.ErrInvalidUsuario
		}
		usuarioID = &id
	}

	var cursor *auditoriadomain.Cursor
	decoded, err := pagination.ParseToken(req.PageToken)
	if err != nil {
		return auditoriadomain.ListResponse{}, auditoriadomain.ErrInvalidPageToken
	}
	if decoded != nil {
		id, err := snowflake.ParseString(decoded.ID)
		if err != nil || id == 0 {
			return auditoriadomain.ListResponse{}, auditoriadomain.ErrInvalidPageToken
		}
		cursor = &auditoriadomain.Cursor{ID: id, CreadoEn: decoded.At}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = auditoriadomain.DefaultLimit
	}
	if limit > auditoriadomain.MaxLimit {
		limit = auditoriadomain.MaxLimit
	}

	items, err := s.repo.List(ctx, s.db, auditoriadomain.ListFilter{
		Modulo:     strings.TrimSpace(req.Modulo),
		Accion:     accion,
		UsuarioID:  usuarioID,
		RegistroID: strings.TrimSpace(req.RegistroID),
		Desde:      req.Desde,
		Hasta:      req.Hasta,
		Cursor:     cursor,
		Limit:      limit,
	})
	if err != nil {
		return auditoriadomain.ListResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, limit, func(item *auditoriadomain.Registro) pagination.Cursor {
		return pagination.Cursor{ID: item.ID.String(), At: item.CreadoEn}
	})

	registros := make([]auditoriadomain.Registro, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		registros = append(registros, *item)
	}

	return auditoriadomain.ListResponse{PageInfo: pageInfo, Registros: registros}, nil
}

// snapshot serialises v as JSON with credential fields redacted.
func snapshot(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	if m, ok := generic.(map[string]any); ok {
		generic = masking.RedactSensitive(m)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}

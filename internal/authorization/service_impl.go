package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectUsuario        = "usuario"
	ObjectZona           = "zona"
	ObjectMedidor        = "medidor"
	ObjectLectura        = "lectura"
	ObjectBoleta         = "boleta"
	ObjectTarifario      = "tarifario"
	ObjectPago           = "pago"
	ObjectEstadoServicio = "estado_servicio"
	ObjectAuditoria      = "auditoria"
	ObjectEstadisticas   = "estadisticas"
	ObjectImportacion    = "importacion"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionBoletaGenerar    = "boleta.generar"
	ActionBoletaRecalcular = "boleta.recalcular"
	ActionBoletaVencer     = "boleta.vencer"

	ActionPagoComprobante = "pago.comprobante"
	ActionPagoEfectivo    = "pago.efectivo"
	ActionPagoRevisar     = "pago.revisar"

	ActionEstadoVerificar  = "estado.verificar"
	ActionEstadoReconectar = "estado.reconectar"

	ActionTarifarioConfigurar = "tarifario.configurar"
	ActionCargoAplicar        = "cargo.aplicar"

	ActionImportar = "importacion.ejecutar"
)

const (
	roleAdministrativo = "role:administrativo"
	roleOperario       = "role:operario"
	roleCliente        = "role:cliente"
	roleSystem         = "role:system"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := resolveActor(actor)
	if err != nil {
		return err
	}

	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func resolveActor(actor Actor) (string, string, error) {
	if actor.System {
		return "system", roleSystem, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(actor.UsuarioID))
	if err != nil || id == 0 {
		return "", "", ErrInvalidActor
	}
	rol := strings.ToLower(strings.TrimSpace(actor.Rol))
	switch rol {
	case "administrativo", "operario", "cliente":
	default:
		return "", "", ErrInvalidActor
	}
	return fmt.Sprintf("usuario:%s", id.String()), fmt.Sprintf("role:%s", rol), nil
}

// ensureGrouping keeps exactly one role link per subject so a role change
// replaces the previous grant.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Administrativo manages everything.
		{roleAdministrativo, ObjectUsuario, "*"},
		{roleAdministrativo, ObjectZona, "*"},
		{roleAdministrativo, ObjectMedidor, "*"},
		{roleAdministrativo, ObjectLectura, "*"},
		{roleAdministrativo, ObjectBoleta, "*"},
		{roleAdministrativo, ObjectTarifario, "*"},
		{roleAdministrativo, ObjectPago, "*"},
		{roleAdministrativo, ObjectEstadoServicio, "*"},
		{roleAdministrativo, ObjectAuditoria, "*"},
		{roleAdministrativo, ObjectEstadisticas, "*"},
		{roleAdministrativo, ObjectImportacion, "*"},

		// Operario works in the field and at the counter.
		{roleOperario, ObjectUsuario, ActionView},
		{roleOperario, ObjectZona, ActionView},
		{roleOperario, ObjectMedidor, ActionView},
		{roleOperario, ObjectMedidor, ActionCreate},
		{roleOperario, ObjectMedidor, ActionUpdate},
		{roleOperario, ObjectLectura, ActionView},
		{roleOperario, ObjectLectura, ActionCreate},
		{roleOperario, ObjectBoleta, ActionView},
		{roleOperario, ObjectTarifario, ActionView},
		{roleOperario, ObjectPago, ActionView},
		{roleOperario, ObjectPago, ActionPagoEfectivo},

		// Cliente reads its own records and uploads comprobantes.
		{roleCliente, ObjectUsuario, ActionView},
		{roleCliente, ObjectMedidor, ActionView},
		{roleCliente, ObjectLectura, ActionView},
		{roleCliente, ObjectBoleta, ActionView},
		{roleCliente, ObjectTarifario, ActionView},
		{roleCliente, ObjectPago, ActionPagoComprobante},

		// System runs the periodic jobs.
		{roleSystem, ObjectBoleta, ActionBoletaVencer},
		{roleSystem, ObjectEstadoServicio, ActionEstadoVerificar},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

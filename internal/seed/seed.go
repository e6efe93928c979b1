package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/auth/password"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultTarifarioNombre = "Tarifario inicial"

// Bootstrap makes an empty database usable: the avisos configuration row,
// a first tariff and the first administrativo account.
func Bootstrap(ctx context.Context, db *gorm.DB, node *snowflake.Node, cfg config.BootstrapConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		var err error
		if node, err = snowflake.NewNode(1); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureConfiguracionTx(ctx, tx, now); err != nil {
			return err
		}
		if cfg.SeedTarifario {
			if err := ensureTarifarioTx(ctx, tx, node, now); err != nil {
				return err
			}
		}
		return ensureAdminTx(ctx, tx, node, cfg, now)
	})
}

func ensureConfiguracionTx(ctx context.Context, tx *gorm.DB, now time.Time) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tarifariodomain.ConfiguracionAvisos{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	c := tarifariodomain.DefaultConfiguracion()
	c.UpdatedAt = now
	return tx.WithContext(ctx).Create(&c).Error
}

func ensureTarifarioTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tarifariodomain.Tarifario{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	v := DefaultVersion(node, now)
	if err := tarifariodomain.ValidarVersion(v); err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Create(&v.Tarifario).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Create(&v.ConceptosFijos).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&v.Escalas).Error
}

// DefaultVersion is the tariff installed on a new database. The first
// 10 m³ are included in the base service.
func DefaultVersion(node *snowflake.Node, now time.Time) *tarifariodomain.Version {
	t := tarifariodomain.Tarifario{
		ID:            node.Generate(),
		Nombre:        defaultTarifarioNombre,
		VigenciaDesde: now,
		Activo:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	diez, veinte := 10, 20
	residencial := string(usuariodomain.TipoResidencial)
	comercial := string(usuariodomain.TipoComercial)

	return &tarifariodomain.Version{
		Tarifario: t,
		ConceptosFijos: []tarifariodomain.ConceptoFijo{
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: residencial, Nombre: "Servicio base", Monto: decimal.NewFromInt(5000)},
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: comercial, Nombre: "Servicio base", Monto: decimal.NewFromInt(8000)},
		},
		Escalas: []tarifariodomain.EscalaConsumo{
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: residencial, DesdeM3: 0, HastaM3: &diez, PrecioPorM3: decimal.Zero, Orden: 1},
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: residencial, DesdeM3: 11, HastaM3: &veinte, PrecioPorM3: decimal.NewFromInt(150), Orden: 2},
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: residencial, DesdeM3: 21, PrecioPorM3: decimal.NewFromInt(250), Orden: 3},
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: comercial, DesdeM3: 0, HastaM3: &diez, PrecioPorM3: decimal.Zero, Orden: 1},
			{ID: node.Generate(), TarifarioID: t.ID, TipoCliente: comercial, DesdeM3: 11, PrecioPorM3: decimal.NewFromInt(300), Orden: 2},
		},
	}
}

func ensureAdminTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, cfg config.BootstrapConfig, now time.Time) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&usuariodomain.Usuario{}).
		Where("rol = ?", usuariodomain.RolAdministrativo).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}
	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	nombre := strings.TrimSpace(cfg.AdminNombre)
	if nombre == "" {
		nombre = "Administración"
	}
	admin := usuariodomain.Usuario{
		ID:             node.Generate(),
		Nombre:         nombre,
		Email:          &email,
		PasswordHash:   &hashed,
		Rol:            usuariodomain.RolAdministrativo,
		TipoCliente:    usuariodomain.TipoResidencial,
		Activo:         true,
		EstadoServicio: estadodomain.EstadoActivo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return tx.WithContext(ctx).Create(&admin).Error
}

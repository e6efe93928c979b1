package repository

import (
	"context"

	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() tarifariodomain.Repository {
	return &repo{}
}

func (r *repo) FindActivo(ctx context.Context, db *gorm.DB) (*tarifariodomain.Tarifario, error) {
	var t tarifariodomain.Tarifario
	err := db.WithContext(ctx).Raw(
		`SELECT id, nombre, vigencia_desde, activo, created_at, updated_at
		 FROM tarifarios WHERE activo = ? ORDER BY vigencia_desde DESC LIMIT 1`,
		true,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) LoadVersion(ctx context.Context, db *gorm.DB, t *tarifariodomain.Tarifario) (*tarifariodomain.Version, error) {
	v := &tarifariodomain.Version{Tarifario: *t}
	if err := db.WithContext(ctx).
		Where("tarifario_id = ?", t.ID).
		Order("tipo_cliente ASC, nombre ASC").
		Find(&v.ConceptosFijos).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Where("tarifario_id = ?", t.ID).
		Order("tipo_cliente ASC, orden ASC, desde_m3 ASC").
		Find(&v.Escalas).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Where("tarifario_id = ?", t.ID).
		Order("nombre ASC").
		Find(&v.CargosExtras).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repo) InsertVersion(ctx context.Context, db *gorm.DB, v *tarifariodomain.Version) error {
	tx := db.WithContext(ctx)
	if err := tx.Create(&v.Tarifario).Error; err != nil {
		return err
	}
	if len(v.ConceptosFijos) > 0 {
		if err := tx.Create(&v.ConceptosFijos).Error; err != nil {
			return err
		}
	}
	if len(v.Escalas) > 0 {
		if err := tx.Create(&v.Escalas).Error; err != nil {
			return err
		}
	}
	if len(v.CargosExtras) > 0 {
		if err := tx.Create(&v.CargosExtras).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) DesactivarTodos(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tarifarios SET activo = ? WHERE activo = ?`,
		false, true,
	).Error
}

func (r *repo) FindConfiguracion(ctx context.Context, db *gorm.DB) (*tarifariodomain.ConfiguracionAvisos, error) {
	var c tarifariodomain.ConfiguracionAvisos
	err := db.WithContext(ctx).Where("id = ?", tarifariodomain.ConfiguracionID).Limit(1).Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) SaveConfiguracion(ctx context.Context, db *gorm.DB, c *tarifariodomain.ConfiguracionAvisos) error {
	c.ID = tarifariodomain.ConfiguracionID
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(c).Error
}

func (r *repo) FindCargoExtra(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tarifariodomain.CargoExtra, error) {
	var c tarifariodomain.CargoExtra
	err := db.WithContext(ctx).Raw(
		`SELECT id, tarifario_id, nombre, monto, activo FROM cargos_extras WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) InsertCargoAplicado(ctx context.Context, db *gorm.DB, c *tarifariodomain.CargoAplicado) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO cargos_aplicados (id, usuario_id, cargo_extra_id, concepto, monto, boleta_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.UsuarioID,
		c.CargoExtraID,
		c.Concepto,
		c.Monto,
		c.BoletaID,
		c.CreatedAt,
	).Error
}

func (r *repo) ListCargosPendientes(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) ([]tarifariodomain.CargoAplicado, error) {
	var items []tarifariodomain.CargoAplicado
	err := db.WithContext(ctx).Raw(
		`SELECT id, usuario_id, cargo_extra_id, concepto, monto, boleta_id, created_at
		 FROM cargos_aplicados WHERE usuario_id = ? AND boleta_id IS NULL
		 ORDER BY created_at ASC, id ASC`,
		usuarioID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListCargosByBoleta(ctx context.Context, db *gorm.DB, boletaID snowflake.ID) ([]tarifariodomain.CargoAplicado, error) {
	var items []tarifariodomain.CargoAplicado
	err := db.WithContext(ctx).Raw(
		`SELECT id, usuario_id, cargo_extra_id, concepto, monto, boleta_id, created_at
		 FROM cargos_aplicados WHERE boleta_id = ?
		 ORDER BY created_at ASC, id ASC`,
		boletaID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) AsignarCargos(ctx context.Context, db *gorm.DB, ids []snowflake.ID, boletaID snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`UPDATE cargos_aplicados SET boleta_id = ? WHERE id IN ? AND boleta_id IS NULL`,
		boletaID, ids,
	).Error
}

const planColumns = `id, usuario_id, monto_total, cantidad_cuotas, cuotas_facturadas, cuotas_pagadas, activo, created_at, updated_at`

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tarifariodomain.PlanReconexion, error) {
	return r.findPlan(ctx, db, `SELECT `+planColumns+` FROM planes_reconexion WHERE id = ?`, id)
}

func (r *repo) FindPlanActivo(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) (*tarifariodomain.PlanReconexion, error) {
	return r.findPlan(ctx, db,
		`SELECT `+planColumns+` FROM planes_reconexion WHERE usuario_id = ? AND activo = ?
		 ORDER BY created_at DESC LIMIT 1`,
		usuarioID, true,
	)
}

func (r *repo) findPlan(ctx context.Context, db *gorm.DB, query string, args ...any) (*tarifariodomain.PlanReconexion, error) {
	var p tarifariodomain.PlanReconexion
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) InsertPlan(ctx context.Context, db *gorm.DB, p *tarifariodomain.PlanReconexion) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, p *tarifariodomain.PlanReconexion) error {
	return db.WithContext(ctx).Exec(
		`UPDATE planes_reconexion SET cuotas_facturadas = ?, cuotas_pagadas = ?, activo = ?, updated_at = ? WHERE id = ?`,
		p.CuotasFacturadas,
		p.CuotasPagadas,
		p.Activo,
		p.UpdatedAt,
		p.ID,
	).Error
}

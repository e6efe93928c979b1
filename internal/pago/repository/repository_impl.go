package repository

import (
	"context"

	"github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Pago) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Pago, error) {
	var p domain.Pago
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListByEstado(ctx context.Context, db *gorm.DB, estado domain.Estado) ([]domain.Pago, error) {
	var items []domain.Pago
	err := db.WithContext(ctx).
		Where("estado = ?", estado).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByBoleta(ctx context.Context, db *gorm.DB, boletaID snowflake.ID) ([]domain.Pago, error) {
	var items []domain.Pago
	err := db.WithContext(ctx).
		Where("boleta_id = ?", boletaID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateRevision(ctx context.Context, db *gorm.DB, id snowflake.ID, rev domain.Revision) error {
	return db.WithContext(ctx).
		Model(&domain.Pago{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"estado":        rev.Estado,
			"observaciones": rev.Observaciones,
			"revisado_por":  rev.RevisadoPor,
			"revisado_en":   rev.RevisadoEn,
			"updated_at":    rev.RevisadoEn,
		}).Error
}

package repository

import (
	"context"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() auditoriadomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *auditoriadomain.Registro) error {
	return db.WithContext(ctx).Create(entry).Error
}

func col(name string) clause.Column {
	return clause.Column{Name: name}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter auditoriadomain.ListFilter) ([]*auditoriadomain.Registro, error) {
	query := db.WithContext(ctx).Model(&auditoriadomain.Registro{})

	if filter.Modulo != "" {
		query = query.Where(clause.Eq{Column: col("modulo"), Value: filter.Modulo})
	}
	if filter.Accion != "" {
		query = query.Where(clause.Eq{Column: col("accion"), Value: filter.Accion})
	}
	if filter.UsuarioID != nil {
		query = query.Where(clause.Eq{Column: col("usuarioId"), Value: *filter.UsuarioID})
	}
	if filter.RegistroID != "" {
		query = query.Where(clause.Eq{Column: col("registroId"), Value: filter.RegistroID})
	}
	if filter.Desde != nil {
		query = query.Where(clause.Gte{Column: col("creadoEn"), Value: *filter.Desde})
	}
	if filter.Hasta != nil {
		query = query.Where(clause.Lte{Column: col("creadoEn"), Value: *filter.Hasta})
	}
	if filter.Cursor != nil {
		query = query.Where(clause.Or(
			clause.Lt{Column: col("creadoEn"), Value: filter.Cursor.CreadoEn},
			clause.And(
				clause.Eq{Column: col("creadoEn"), Value: filter.Cursor.CreadoEn},
				clause.Lt{Column: col("id"), Value: filter.Cursor.ID},
			),
		))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = auditoriadomain.DefaultLimit
	}

	var items []*auditoriadomain.Registro
	err := query.
		Order(clause.OrderByColumn{Column: col("creadoEn"), Desc: true}).
		Order(clause.OrderByColumn{Column: col("id"), Desc: true}).
		Limit(limit + 1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

package repository

import (
	"context"

	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const lecturaColumns = `id, medidor_id, usuario_id, operario_id, lectura_anterior, lectura_actual, consumo_m3,
	fecha_lectura, mes, anio, created_at`

type repo struct{}

func Provide() lecturadomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, l *lecturadomain.Lectura) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO lecturas (`+lecturaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.MedidorID,
		l.UsuarioID,
		l.OperarioID,
		l.LecturaAnterior,
		l.LecturaActual,
		l.ConsumoM3,
		l.FechaLectura,
		l.Mes,
		l.Anio,
		l.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*lecturadomain.Lectura, error) {
	return r.findOne(ctx, db, `SELECT `+lecturaColumns+` FROM lecturas WHERE id = ?`, id)
}

func (r *repo) FindUltima(ctx context.Context, db *gorm.DB, medidorID snowflake.ID) (*lecturadomain.Lectura, error) {
	return r.findOne(ctx, db,
		`SELECT `+lecturaColumns+` FROM lecturas WHERE medidor_id = ?
		 ORDER BY fecha_lectura DESC, created_at DESC LIMIT 1`,
		medidorID,
	)
}

func (r *repo) FindPorPeriodo(ctx context.Context, db *gorm.DB, medidorID snowflake.ID, mes, anio int) (*lecturadomain.Lectura, error) {
	return r.findOne(ctx, db,
		`SELECT `+lecturaColumns+` FROM lecturas WHERE medidor_id = ? AND mes = ? AND anio = ?`,
		medidorID, mes, anio,
	)
}

func (r *repo) FindPorUsuarioPeriodo(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID, mes, anio int) (*lecturadomain.Lectura, error) {
	return r.findOne(ctx, db,
		`SELECT `+lecturaColumns+` FROM lecturas WHERE usuario_id = ? AND mes = ? AND anio = ?
		 ORDER BY fecha_lectura DESC LIMIT 1`,
		usuarioID, mes, anio,
	)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*lecturadomain.Lectura, error) {
	var l lecturadomain.Lectura
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&l).Error; err != nil {
		return nil, err
	}
	if l.ID == 0 {
		return nil, nil
	}
	return &l, nil
}

func (r *repo) ListByMedidor(ctx context.Context, db *gorm.DB, medidorID snowflake.ID) ([]lecturadomain.Lectura, error) {
	var items []lecturadomain.Lectura
	err := db.WithContext(ctx).Raw(
		`SELECT `+lecturaColumns+` FROM lecturas WHERE medidor_id = ? ORDER BY fecha_lectura DESC`,
		medidorID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]lecturadomain.Lectura, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []lecturadomain.Lectura
	err := db.WithContext(ctx).Raw(
		`SELECT `+lecturaColumns+` FROM lecturas WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	return items, err
}

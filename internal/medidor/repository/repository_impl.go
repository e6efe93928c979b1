package repository

import (
	"context"
	"time"

	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const medidorColumns = `id, usuario_id, numero_serie, fecha_instalacion, fecha_baja, motivo_baja, lectura_inicial, activo,
	created_at, updated_at`

type repo struct{}

func Provide() medidordomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *medidordomain.Medidor) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO medidores (`+medidorColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.UsuarioID,
		m.NumeroSerie,
		m.FechaInstalacion,
		m.FechaBaja,
		m.MotivoBaja,
		m.LecturaInicial,
		m.Activo,
		m.CreatedAt,
		m.UpdatedAt,
	).Error
}

func (r *repo) DarDeBaja(ctx context.Context, db *gorm.DB, id snowflake.ID, fecha time.Time, motivo string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE medidores SET activo = ?, fecha_baja = ?, motivo_baja = ?, updated_at = ? WHERE id = ?`,
		false,
		fecha,
		motivo,
		fecha,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*medidordomain.Medidor, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindBySerie(ctx context.Context, db *gorm.DB, serie string) (*medidordomain.Medidor, error) {
	return r.findOne(ctx, db, `numero_serie = ?`, serie)
}

func (r *repo) FindActivoByUsuario(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) (*medidordomain.Medidor, error) {
	var m medidordomain.Medidor
	err := db.WithContext(ctx).Raw(
		`SELECT `+medidorColumns+` FROM medidores WHERE usuario_id = ? AND activo = ? LIMIT 1`,
		usuarioID,
		true,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*medidordomain.Medidor, error) {
	var m medidordomain.Medidor
	err := db.WithContext(ctx).Raw(
		`SELECT `+medidorColumns+` FROM medidores WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) ListActivosByUsuarios(ctx context.Context, db *gorm.DB, usuarioIDs []snowflake.ID) ([]medidordomain.Medidor, error) {
	if len(usuarioIDs) == 0 {
		return nil, nil
	}
	var items []medidordomain.Medidor
	err := db.WithContext(ctx).Raw(
		`SELECT `+medidorColumns+` FROM medidores WHERE activo = ? AND usuario_id IN ?`,
		true,
		usuarioIDs,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListByUsuario(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) ([]medidordomain.Medidor, error) {
	var items []medidordomain.Medidor
	err := db.WithContext(ctx).Raw(
		`SELECT `+medidorColumns+` FROM medidores WHERE usuario_id = ?
		 ORDER BY fecha_instalacion DESC, created_at DESC`,
		usuarioID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListActivos(ctx context.Context, db *gorm.DB) ([]medidordomain.Medidor, error) {
	var items []medidordomain.Medidor
	err := db.WithContext(ctx).Raw(
		`SELECT `+medidorColumns+` FROM medidores WHERE activo = ? ORDER BY numero_serie ASC`,
		true,
	).Scan(&items).Error
	return items, err
}

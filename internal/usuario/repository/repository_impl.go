package repository

import (
	"context"
	"strings"
	"time"

	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const usuarioColumns = `id, nombre, email, password_hash, rol, padron, zona_id, tipo_cliente, direccion, telefono,
	activo, estado_servicio, estado_servicio_desde, servicio_dado_de_baja, fecha_baja_servicio, motivo_baja_servicio,
	created_at, updated_at`

type repo struct{}

func Provide() usuariodomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, u *usuariodomain.Usuario) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO usuarios (`+usuarioColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Nombre,
		u.Email,
		u.PasswordHash,
		u.Rol,
		u.Padron,
		u.ZonaID,
		u.TipoCliente,
		u.Direccion,
		u.Telefono,
		u.Activo,
		u.EstadoServicio,
		u.EstadoServicioDesde,
		u.ServicioDadoDeBaja,
		u.FechaBajaServicio,
		u.MotivoBajaServicio,
		u.CreatedAt,
		u.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, u *usuariodomain.Usuario) error {
	return db.WithContext(ctx).Exec(
		`UPDATE usuarios
		 SET nombre = ?, email = ?, password_hash = ?, padron = ?, zona_id = ?, tipo_cliente = ?, direccion = ?,
		     telefono = ?, activo = ?, servicio_dado_de_baja = ?, fecha_baja_servicio = ?, motivo_baja_servicio = ?,
		     updated_at = ?
		 WHERE id = ?`,
		u.Nombre,
		u.Email,
		u.PasswordHash,
		u.Padron,
		u.ZonaID,
		u.TipoCliente,
		u.Direccion,
		u.Telefono,
		u.Activo,
		u.ServicioDadoDeBaja,
		u.FechaBajaServicio,
		u.MotivoBajaServicio,
		u.UpdatedAt,
		u.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM usuarios WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*usuariodomain.Usuario, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByPadron(ctx context.Context, db *gorm.DB, padron string) (*usuariodomain.Usuario, error) {
	return r.findOne(ctx, db, `padron = ?`, padron)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*usuariodomain.Usuario, error) {
	return r.findOne(ctx, db, `LOWER(email) = LOWER(?)`, email)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*usuariodomain.Usuario, error) {
	var u usuariodomain.Usuario
	err := db.WithContext(ctx).Raw(
		`SELECT `+usuarioColumns+` FROM usuarios WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, nil
	}
	return &u, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]usuariodomain.Usuario, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []usuariodomain.Usuario
	err := db.WithContext(ctx).Raw(
		`SELECT `+usuarioColumns+` FROM usuarios WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	return items, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter usuariodomain.ListFilter) ([]usuariodomain.Usuario, error) {
	query := db.WithContext(ctx).Model(&usuariodomain.Usuario{})
	if filter.Rol != "" {
		query = query.Where("rol = ?", filter.Rol)
	}
	if filter.ZonaID != nil {
		query = query.Where("zona_id = ?", *filter.ZonaID)
	}
	if filter.EstadoServicio != "" {
		query = query.Where("estado_servicio = ?", filter.EstadoServicio)
	}
	if filter.SoloActivos {
		query = query.Where("activo = ?", true)
	}
	if busqueda := strings.TrimSpace(filter.Busqueda); busqueda != "" {
		like := "%" + strings.ToLower(busqueda) + "%"
		query = query.Where("(LOWER(nombre) LIKE ? OR LOWER(padron) LIKE ?)", like, like)
	}

	var items []usuariodomain.Usuario
	if err := query.Order("nombre ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListElegibles(ctx context.Context, db *gorm.DB) ([]usuariodomain.Usuario, error) {
	var items []usuariodomain.Usuario
	err := db.WithContext(ctx).Raw(
		`SELECT `+usuarioColumns+` FROM usuarios
		 WHERE rol = ? AND activo = ? AND servicio_dado_de_baja = ?
		 ORDER BY padron ASC`,
		usuariodomain.RolCliente,
		true,
		false,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListPadronesPorPrefijo(ctx context.Context, db *gorm.DB, prefijo string) ([]string, error) {
	var padrones []string
	err := db.WithContext(ctx).Raw(
		`SELECT padron FROM usuarios WHERE padron LIKE ?`,
		prefijo+"-%",
	).Scan(&padrones).Error
	return padrones, err
}

func (r *repo) CountByZona(ctx context.Context, db *gorm.DB, zonaID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM usuarios WHERE zona_id = ?`, zonaID).Scan(&count).Error
	return count, err
}

func (r *repo) CountByRol(ctx context.Context, db *gorm.DB, rol usuariodomain.Rol) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM usuarios WHERE rol = ?`, rol).Scan(&count).Error
	return count, err
}

func (r *repo) UpdateEstadoServicio(ctx context.Context, db *gorm.DB, id snowflake.ID, estado estadodomain.Estado, desde time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE usuarios SET estado_servicio = ?, estado_servicio_desde = ?, updated_at = ? WHERE id = ?`,
		estado,
		desde,
		desde,
		id,
	).Error
}

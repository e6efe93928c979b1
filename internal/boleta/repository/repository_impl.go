package repository

import (
	"context"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() boletadomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, b *boletadomain.Boleta) error {
	return db.WithContext(ctx).Create(b).Error
}

func (r *repo) UpdateMontos(ctx context.Context, db *gorm.DB, b *boletadomain.Boleta) error {
	return db.WithContext(ctx).
		Model(&boletadomain.Boleta{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"lectura_id":          b.LecturaID,
			"tarifario_id":        b.TarifarioID,
			"tiene_medidor":       b.TieneMedidor,
			"consumo_m3":          b.ConsumoM3,
			"monto_servicio_base": b.MontoServicioBase,
			"desglose_consumo":    b.DesgloseConsumo,
			"monto_consumo":       b.MontoConsumo,
			"subtotal":            b.Subtotal,
			"cargos_extras":       b.CargosExtras,
			"total_cargos_extras": b.TotalCargosExtras,
			"cuota_plan_numero":   b.CuotaPlanNumero,
			"monto_cuota_plan":    b.MontoCuotaPlan,
			"total":               b.Total,
			"updated_at":          b.UpdatedAt,
		}).Error
}

func (r *repo) UpdateEstado(ctx context.Context, db *gorm.DB, id snowflake.ID, estado boletadomain.Estado, fechaPago *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE boletas SET estado = ?, fecha_pago = ?, updated_at = ? WHERE id = ?`,
		estado, fechaPago, now, id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*boletadomain.Boleta, error) {
	var b boletadomain.Boleta
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) FindByUsuarioPeriodo(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID, mes, anio int) (*boletadomain.Boleta, error) {
	var b boletadomain.Boleta
	err := db.WithContext(ctx).
		Where("usuario_id = ? AND mes = ? AND anio = ?", usuarioID, mes, anio).
		Order("fecha_emision DESC").
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter boletadomain.ListFilter) ([]boletadomain.Boleta, error) {
	stmt := db.WithContext(ctx).Model(&boletadomain.Boleta{})
	if filter.UsuarioID != nil {
		stmt = stmt.Where("usuario_id = ?", *filter.UsuarioID)
	}
	if filter.Mes > 0 {
		stmt = stmt.Where("mes = ?", filter.Mes)
	}
	if filter.Anio > 0 {
		stmt = stmt.Where("anio = ?", filter.Anio)
	}
	if len(filter.Estados) > 0 {
		stmt = stmt.Where("estado IN ?", filter.Estados)
	}

	var items []boletadomain.Boleta
	err := stmt.
		Order("anio DESC").
		Order("mes DESC").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "fecha_emision"}, Desc: true}).
		Find(&items).Error
	return items, err
}

func (r *repo) UsuariosConBoleta(ctx context.Context, db *gorm.DB, mes, anio int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT usuario_id FROM boletas WHERE mes = ? AND anio = ?`,
		mes, anio,
	).Scan(&ids).Error
	return ids, err
}

func (r *repo) CountByUsuario(ctx context.Context, db *gorm.DB, usuarioID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM boletas WHERE usuario_id = ?`, usuarioID).Scan(&count).Error
	return count, err
}

func (r *repo) MarcarVencidas(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE boletas SET estado = ?, updated_at = ? WHERE estado = ? AND fecha_vencimiento < ?`,
		boletadomain.EstadoVencida, now, boletadomain.EstadoPendiente, now,
	)
	return res.RowsAffected, res.Error
}

// NextSecuencia allocates the next number of a period. It must run inside
// the transaction that inserts the boleta.
func (r *repo) NextSecuencia(ctx context.Context, db *gorm.DB, anio, mes int) (int64, error) {
	tx := db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&boletadomain.Secuencia{Anio: anio, Mes: mes}).Error; err != nil {
		return 0, err
	}
	if err := tx.Exec(
		`UPDATE boleta_secuencias SET ultimo = ultimo + 1 WHERE anio = ? AND mes = ?`,
		anio, mes,
	).Error; err != nil {
		return 0, err
	}
	var ultimo int64
	if err := tx.Raw(
		`SELECT ultimo FROM boleta_secuencias WHERE anio = ? AND mes = ?`,
		anio, mes,
	).Scan(&ultimo).Error; err != nil {
		return 0, err
	}
	return ultimo, nil
}

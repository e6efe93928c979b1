package service

import (
	"context"
	"time"

	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	estadisticas "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sinZona = "Sin zona"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) estadisticas.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("estadisticas.service"),
		clock: p.Clock,
	}
}

func estadosImpagos() []string {
	return []string{
		string(boletadomain.EstadoPendiente),
		string(boletadomain.EstadoProcesando),
		string(boletadomain.EstadoVencida),
	}
}

func (s *Service) Resumen(ctx context.Context) (*estadisticas.ResumenResponse, error) {
	now := s.clock.Now().UTC()
	inicioMes := truncateToMonth(now)
	db := s.db.WithContext(ctx)

	resp := &estadisticas.ResumenResponse{
		Periodo:           estadisticas.Periodo{Mes: int(now.Month()), Anio: now.Year()},
		PorEstadoServicio: map[string]int64{},
		BoletasPorEstado:  map[string]int64{},
	}

	var estados []struct {
		EstadoServicio string `gorm:"column:estado_servicio"`
		Total          int64  `gorm:"column:total"`
	}
	if err := db.Raw(
		`SELECT estado_servicio, COUNT(*) AS total
		FROM usuarios
		WHERE rol = ? AND activo = ? AND servicio_dado_de_baja = ?
		GROUP BY estado_servicio`,
		usuariodomain.RolCliente, true, false,
	).Scan(&estados).Error; err != nil {
		return nil, err
	}
	for _, row := range estados {
		resp.PorEstadoServicio[row.EstadoServicio] = row.Total
		resp.ClientesActivos += row.Total
	}

	if err := db.Raw(
		`SELECT COUNT(*) FROM usuarios WHERE rol = ? AND servicio_dado_de_baja = ?`,
		usuariodomain.RolCliente, true,
	).Scan(&resp.ClientesDeBaja).Error; err != nil {
		return nil, err
	}

	var boletas []struct {
		Estado string `gorm:"column:estado"`
		Total  int64  `gorm:"column:total"`
	}
	if err := db.Raw(`SELECT estado, COUNT(*) AS total FROM boletas GROUP BY estado`).Scan(&boletas).Error; err != nil {
		return nil, err
	}
	for _, row := range boletas {
		resp.BoletasPorEstado[row.Estado] = row.Total
	}

	var deuda struct {
		Total   decimal.Decimal `gorm:"column:total"`
		Vencida decimal.Decimal `gorm:"column:vencida"`
	}
	if err := db.Raw(
		`SELECT COALESCE(SUM(total), 0) AS total,
			COALESCE(SUM(CASE WHEN estado = ? THEN total ELSE 0 END), 0) AS vencida
		FROM boletas
		WHERE estado IN ?`,
		boletadomain.EstadoVencida, estadosImpagos(),
	).Scan(&deuda).Error; err != nil {
		return nil, err
	}
	resp.DeudaTotal = deuda.Total.Round(2)
	resp.DeudaVencida = deuda.Vencida.Round(2)

	var recaudado struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := db.Raw(
		`SELECT COALESCE(SUM(monto), 0) AS total
		FROM pagos
		WHERE estado = ? AND fecha_pago >= ? AND fecha_pago < ?`,
		pagodomain.EstadoAprobado, inicioMes, inicioMes.AddDate(0, 1, 0),
	).Scan(&recaudado).Error; err != nil {
		return nil, err
	}
	resp.RecaudadoMes = recaudado.Total.Round(2)

	if err := db.Raw(
		`SELECT COUNT(*) FROM pagos WHERE estado = ?`,
		pagodomain.EstadoPendienteRevision,
	).Scan(&resp.PagosPendientes).Error; err != nil {
		return nil, err
	}

	return resp, nil
}

// Tendencias returns one point per month, oldest first, ending at the
// current month. Months without boletas are reported as zero.
func (s *Service) Tendencias(ctx context.Context, req estadisticas.TendenciasRequest) ([]estadisticas.PuntoTendencia, error) {
	meses := req.Meses
	if meses == 0 {
		meses = estadisticas.DefaultTendenciaMeses
	}
	if meses < 0 || meses > estadisticas.MaxTendenciaMeses {
		return nil, estadisticas.ErrInvalidMeses
	}

	end := truncateToMonth(s.clock.Now().UTC())
	start := end.AddDate(0, -(meses - 1), 0)
	desde := periodKey(start)
	hasta := periodKey(end)
	db := s.db.WithContext(ctx)

	var facturado []struct {
		Anio      int             `gorm:"column:anio"`
		Mes       int             `gorm:"column:mes"`
		Boletas   int64           `gorm:"column:boletas"`
		Facturado decimal.Decimal `gorm:"column:facturado"`
		Pendiente decimal.Decimal `gorm:"column:pendiente"`
	}
	if err := db.Raw(
		`SELECT anio, mes, COUNT(*) AS boletas,
			COALESCE(SUM(total), 0) AS facturado,
			COALESCE(SUM(CASE WHEN estado IN ? THEN total ELSE 0 END), 0) AS pendiente
		FROM boletas
		WHERE (anio * 100 + mes) BETWEEN ? AND ?
		GROUP BY anio, mes`,
		estadosImpagos(), desde, hasta,
	).Scan(&facturado).Error; err != nil {
		return nil, err
	}

	var recaudado []struct {
		Anio  int             `gorm:"column:anio"`
		Mes   int             `gorm:"column:mes"`
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := db.Raw(
		`SELECT b.anio AS anio, b.mes AS mes, COALESCE(SUM(p.monto), 0) AS total
		FROM pagos p
		JOIN boletas b ON b.id = p.boleta_id
		WHERE p.estado = ? AND (b.anio * 100 + b.mes) BETWEEN ? AND ?
		GROUP BY b.anio, b.mes`,
		pagodomain.EstadoAprobado, desde, hasta,
	).Scan(&recaudado).Error; err != nil {
		return nil, err
	}

	points := make(map[int]*estadisticas.PuntoTendencia, meses)
	series := make([]estadisticas.PuntoTendencia, 0, meses)
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		series = append(series, estadisticas.PuntoTendencia{
			Mes:       int(cursor.Month()),
			Anio:      cursor.Year(),
			Facturado: decimal.Zero,
			Recaudado: decimal.Zero,
			Pendiente: decimal.Zero,
		})
	}
	for i := range series {
		points[series[i].Anio*100+series[i].Mes] = &series[i]
	}

	for _, row := range facturado {
		point, ok := points[row.Anio*100+row.Mes]
		if !ok {
			continue
		}
		point.Boletas = row.Boletas
		point.Facturado = row.Facturado.Round(2)
		point.Pendiente = row.Pendiente.Round(2)
	}
	for _, row := range recaudado {
		point, ok := points[row.Anio*100+row.Mes]
		if !ok {
			continue
		}
		point.Recaudado = row.Total.Round(2)
	}
	for i := range series {
		if series[i].Facturado.IsPositive() {
			rate, _ := series[i].Recaudado.Div(series[i].Facturado).Round(4).Float64()
			series[i].Cobranza = &rate
		}
	}

	return series, nil
}

func (s *Service) DeudaPorZona(ctx context.Context) ([]estadisticas.DeudaZona, error) {
	var rows []struct {
		ZonaID         *int64          `gorm:"column:zona_id"`
		Zona           *string         `gorm:"column:zona"`
		Clientes       int64           `gorm:"column:clientes"`
		BoletasImpagas int64           `gorm:"column:boletas_impagas"`
		Deuda          decimal.Decimal `gorm:"column:deuda"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT z.id AS zona_id, z.nombre AS zona,
			COUNT(DISTINCT u.id) AS clientes,
			COUNT(b.id) AS boletas_impagas,
			COALESCE(SUM(b.total), 0) AS deuda
		FROM boletas b
		JOIN usuarios u ON u.id = b.usuario_id
		LEFT JOIN zonas z ON z.id = u.zona_id
		WHERE b.estado IN ?
		GROUP BY z.id, z.nombre
		ORDER BY deuda DESC`,
		estadosImpagos(),
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	resp := make([]estadisticas.DeudaZona, 0, len(rows))
	for _, row := range rows {
		item := estadisticas.DeudaZona{
			Zona:           sinZona,
			Clientes:       row.Clientes,
			BoletasImpagas: row.BoletasImpagas,
			Deuda:          row.Deuda.Round(2),
		}
		if row.ZonaID != nil {
			id := snowflake.ID(*row.ZonaID).String()
			item.ZonaID = &id
		}
		if row.Zona != nil {
			item.Zona = *row.Zona
		}
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *Service) TopDeudaClientes(ctx context.Context, limit int) ([]estadisticas.DeudaCliente, error) {
	if limit == 0 {
		limit = estadisticas.DefaultTopLimit
	}
	if limit < 0 || limit > estadisticas.MaxTopLimit {
		return nil, estadisticas.ErrInvalidLimit
	}

	var rows []struct {
		UsuarioID      int64           `gorm:"column:usuario_id"`
		Nombre         string          `gorm:"column:nombre"`
		Padron         *string         `gorm:"column:padron"`
		EstadoServicio string          `gorm:"column:estado_servicio"`
		BoletasImpagas int64           `gorm:"column:boletas_impagas"`
		Deuda          decimal.Decimal `gorm:"column:deuda"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT u.id AS usuario_id, u.nombre AS nombre, u.padron AS padron,
			u.estado_servicio AS estado_servicio,
			COUNT(b.id) AS boletas_impagas,
			COALESCE(SUM(b.total), 0) AS deuda
		FROM boletas b
		JOIN usuarios u ON u.id = b.usuario_id
		WHERE b.estado IN ?
		GROUP BY u.id, u.nombre, u.padron, u.estado_servicio
		ORDER BY deuda DESC, u.id ASC
		LIMIT ?`,
		estadosImpagos(), limit,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	resp := make([]estadisticas.DeudaCliente, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, estadisticas.DeudaCliente{
			UsuarioID:      snowflake.ID(row.UsuarioID).String(),
			Nombre:         row.Nombre,
			Padron:         row.Padron,
			EstadoServicio: row.EstadoServicio,
			BoletasImpagas: row.BoletasImpagas,
			Deuda:          row.Deuda.Round(2),
		})
	}
	return resp, nil
}

func periodKey(value time.Time) int {
	return value.Year()*100 + int(value.Month())
}

func truncateToMonth(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, time.UTC)
}

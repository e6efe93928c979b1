// Package testutil builds in-memory databases and fixtures for service tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/repository"
	auditoriaservice "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/service"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/format"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/migration"
	"github.com/AxelFernandez/agua-andre-sub000/internal/seed"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenDB returns a private in-memory sqlite database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migration.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

// Auditoria returns a real audit service writing to db.
func Auditoria(db *gorm.DB, node *snowflake.Node, clk clock.Clock) auditoriadomain.Service {
	return auditoriaservice.New(auditoriaservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
}

// Fixtures inserts rows directly, bypassing services.
type Fixtures struct {
	t    *testing.T
	db   *gorm.DB
	node *snowflake.Node
	now  time.Time
}

func NewFixtures(t *testing.T, db *gorm.DB, node *snowflake.Node, now time.Time) *Fixtures {
	return &Fixtures{t: t, db: db, node: node, now: now.UTC()}
}

func (f *Fixtures) create(v any) {
	f.t.Helper()
	if err := f.db.WithContext(context.Background()).Create(v).Error; err != nil {
		f.t.Fatalf("fixture %T: %v", v, err)
	}
}

func (f *Fixtures) Zona(nombre string, valor int) *zonadomain.Zona {
	z := &zonadomain.Zona{
		ID:        f.node.Generate(),
		Nombre:    nombre,
		Valor:     valor,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	f.create(z)
	return z
}

func (f *Fixtures) Cliente(nombre, padron string, tipo usuariodomain.TipoCliente) *usuariodomain.Usuario {
	u := &usuariodomain.Usuario{
		ID:             f.node.Generate(),
		Nombre:         nombre,
		Rol:            usuariodomain.RolCliente,
		Padron:         &padron,
		TipoCliente:    tipo,
		Direccion:      "Calle " + padron,
		Activo:         true,
		EstadoServicio: estadodomain.EstadoActivo,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	f.create(u)
	return u
}

func (f *Fixtures) Interno(nombre, email string, rol usuariodomain.Rol) *usuariodomain.Usuario {
	u := &usuariodomain.Usuario{
		ID:             f.node.Generate(),
		Nombre:         nombre,
		Email:          &email,
		Rol:            rol,
		TipoCliente:    usuariodomain.TipoResidencial,
		Activo:         true,
		EstadoServicio: estadodomain.EstadoActivo,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	f.create(u)
	return u
}

func (f *Fixtures) Estado(u *usuariodomain.Usuario, estado estadodomain.Estado, desde time.Time) {
	f.t.Helper()
	err := f.db.Model(&usuariodomain.Usuario{}).Where("id = ?", u.ID).Updates(map[string]any{
		"estado_servicio":       estado,
		"estado_servicio_desde": desde,
	}).Error
	if err != nil {
		f.t.Fatalf("fixture estado: %v", err)
	}
	u.EstadoServicio = estado
	u.EstadoServicioDesde = &desde
}

func (f *Fixtures) Medidor(u *usuariodomain.Usuario, serie string, inicial decimal.Decimal) *medidordomain.Medidor {
	m := &medidordomain.Medidor{
		ID:               f.node.Generate(),
		UsuarioID:        u.ID,
		NumeroSerie:      serie,
		FechaInstalacion: f.now.AddDate(0, -6, 0),
		LecturaInicial:   inicial,
		Activo:           true,
		CreatedAt:        f.now,
		UpdatedAt:        f.now,
	}
	f.create(m)
	return m
}

func (f *Fixtures) Lectura(m *medidordomain.Medidor, anterior, actual decimal.Decimal, mes, anio int) *lecturadomain.Lectura {
	l := &lecturadomain.Lectura{
		ID:              f.node.Generate(),
		MedidorID:       m.ID,
		UsuarioID:       m.UsuarioID,
		LecturaAnterior: anterior,
		LecturaActual:   actual,
		ConsumoM3:       actual.Sub(anterior),
		FechaLectura:    time.Date(anio, time.Month(mes), 28, 10, 0, 0, 0, time.UTC),
		Mes:             mes,
		Anio:            anio,
		CreatedAt:       f.now,
	}
	f.create(l)
	return l
}

// Tarifario installs the bootstrap tariff and avisos configuration.
func (f *Fixtures) Tarifario() *tarifariodomain.Version {
	f.t.Helper()
	v := seed.DefaultVersion(f.node, f.now)
	f.create(&v.Tarifario)
	f.create(&v.ConceptosFijos)
	f.create(&v.Escalas)
	f.Configuracion(tarifariodomain.DefaultConfiguracion())
	return v
}

func (f *Fixtures) Configuracion(c tarifariodomain.ConfiguracionAvisos) {
	f.t.Helper()
	c.ID = tarifariodomain.ConfiguracionID
	c.UpdatedAt = f.now
	if err := f.db.Save(&c).Error; err != nil {
		f.t.Fatalf("fixture configuracion: %v", err)
	}
}

func (f *Fixtures) Plan(u *usuariodomain.Usuario, total decimal.Decimal, cuotas int) *tarifariodomain.PlanReconexion {
	p := &tarifariodomain.PlanReconexion{
		ID:             f.node.Generate(),
		UsuarioID:      u.ID,
		MontoTotal:     total,
		CantidadCuotas: cuotas,
		Activo:         true,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	f.create(p)
	return p
}

// Boleta inserts a boleta whose whole amount is the base service.
func (f *Fixtures) Boleta(u *usuariodomain.Usuario, mes, anio int, total decimal.Decimal, estado boletadomain.Estado) *boletadomain.Boleta {
	f.t.Helper()
	var seq int64
	f.db.Model(&boletadomain.Boleta{}).Where("mes = ? AND anio = ?", mes, anio).Count(&seq)
	numero, err := format.Numero(format.DefaultNumeroTemplate, anio, mes, seq+1)
	if err != nil {
		f.t.Fatalf("fixture numero: %v", err)
	}
	emision := time.Date(anio, time.Month(mes), 1, 9, 0, 0, 0, time.UTC)
	b := &boletadomain.Boleta{
		ID:                f.node.Generate(),
		Numero:            numero,
		UsuarioID:         u.ID,
		Mes:               mes,
		Anio:              anio,
		TarifarioID:       f.node.Generate(),
		ConsumoM3:         decimal.Zero,
		MontoServicioBase: total,
		Subtotal:          total,
		TotalCargosExtras: decimal.Zero,
		MontoCuotaPlan:    decimal.Zero,
		Total:             total,
		Estado:            estado,
		FechaEmision:      emision,
		FechaVencimiento:  emision.AddDate(0, 0, 10),
		CreatedAt:         f.now,
		UpdatedAt:         f.now,
	}
	f.create(b)
	return b
}

package db

import (
	"fmt"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the gorm driver for DATABASE_TYPE. Postgres is the production
// target and the only one with versioned migrations; the others are schema
// managed through AutoMigrate.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DBType)) {
	case "postgres", "postgresql":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)), nil
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		)), nil
	case "sqlite":
		// Pure Go driver, used for single-office installs and tests.
		return sqlite.Open(sqliteFile(cfg.DBName) + "?_pragma=busy_timeout(5000)"), nil
	case "sqlite3":
		return cgosqlite.Open(sqliteFile(cfg.DBName) + "?_busy_timeout=5000"), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

func sqliteFile(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "agua" {
		return "agua.db"
	}
	return name
}

// SerializesWrites reports whether the database takes one writer at a time.
// Callers fanning out write transactions run them one by one there.
func SerializesWrites(conn *gorm.DB) bool {
	return conn != nil && conn.Dialector != nil && conn.Dialector.Name() == "sqlite"
}

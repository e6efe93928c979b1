package db

import (
	"testing"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialect(t *testing.T) {
	for _, dbType := range []string{"postgres", "POSTGRESQL", "mysql", "sqlite", "sqlite3"} {
		d, err := Dialect(config.Config{DBType: dbType, DBName: "agua"})
		require.NoError(t, err, dbType)
		assert.NotNil(t, d, dbType)
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestSqliteFile(t *testing.T) {
	assert.Equal(t, "agua.db", sqliteFile(""))
	assert.Equal(t, "agua.db", sqliteFile("agua"))
	assert.Equal(t, "/var/lib/agua/datos.db", sqliteFile("/var/lib/agua/datos.db"))
}

func TestSerializesWrites(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	assert.True(t, SerializesWrites(conn))
	assert.False(t, SerializesWrites(nil))

	pg, err := Dialect(config.Config{DBType: "postgres"})
	require.NoError(t, err)
	assert.False(t, SerializesWrites(&gorm.DB{Config: &gorm.Config{Dialector: pg}}))
}

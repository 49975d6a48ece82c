package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenchworks/docdesk/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, GetDefaultConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Numbering.InvoicePadLength = 0
	assert.Error(t, cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.Archive.AfterMonths = 0
	assert.Error(t, cfg.Validate())
}

func TestSQLiteDSN(t *testing.T) {
	cfg := SQLiteConfig{Path: "data/test.db", JournalMode: "WAL", BusyTimeoutMS: 0}
	dsn := cfg.GetDSN()

	assert.Contains(t, dsn, "file:data/test.db?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "busy_timeout%280%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
}

func TestDatabaseDSNPicksDriver(t *testing.T) {
	cfg := GetDefaultConfig().Database
	assert.Contains(t, cfg.GetDSN(), "_txlock=immediate")

	cfg.Driver = types.DatabaseDriverPostgres
	cfg.Postgres.User = "docdesk"
	cfg.Postgres.DBName = "shop"
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "user=docdesk")
	assert.Contains(t, dsn, "dbname=shop")
	assert.Contains(t, dsn, "sslmode=disable")
}

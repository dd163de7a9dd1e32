package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoSim-25-26J-441/telemetry-backend/config"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(t *testing.T, doc string) *project.Project {
	t.Helper()
	raw, err := project.Parse([]byte(doc))
	require.NoError(t, err)
	p, err := project.New(raw, project.WithLogger(logger.Nop()))
	require.NoError(t, err)
	return p
}

const kimiosConfig = `
project:
  name: Kimios
  schema:
    plugins: false
    usage:
      num_users: {type: integer, required: true}
      ratio: {type: number}
      enabled: {type: boolean}
      edition: {type: string}
  mapping:
    num_users: kimios_num_users
    ratio: kimios_ratio
    enabled: kimios_enabled
    edition: kimios_edition
`

func TestColumns(t *testing.T) {
	fixed := len(record.FixedColumns())

	t.Run("default usage", func(t *testing.T) {
		cols := Columns(newProject(t, "project:\n  name: GLPI\n"))
		assert.Len(t, cols, fixed+len(record.DefaultUsageColumns()))
		assert.Equal(t, record.ColUUID, cols[0].Name)
	})

	t.Run("usage disabled", func(t *testing.T) {
		cols := Columns(newProject(t, "project:\n  name: GLPI\n  schema:\n    usage: false\n"))
		assert.Len(t, cols, fixed)
	})

	t.Run("custom usage keeps configuration order", func(t *testing.T) {
		cols := Columns(newProject(t, kimiosConfig))
		require.Len(t, cols, fixed+4)
		assert.Equal(t, []record.Column{
			{Name: "kimios_num_users", Kind: record.KindInteger},
			{Name: "kimios_ratio", Kind: record.KindNumber},
			{Name: "kimios_enabled", Kind: record.KindBoolean},
			{Name: "kimios_edition", Kind: record.KindString, Length: record.CustomUsageLength},
		}, cols[fixed:])
	})
}

func TestMigrator_Statements(t *testing.T) {
	stmts := NewMigrator(nil, "").Statements(newProject(t, kimiosConfig))
	require.Len(t, stmts, 6)

	create := stmts[0]
	assert.Contains(t, create, `CREATE TABLE IF NOT EXISTS "telemetry" (`)
	assert.Contains(t, create, `"glpi_uuid" VARCHAR(41)`)
	assert.Contains(t, create, `"db_size" BIGINT`)
	assert.Contains(t, create, `"db_sql_mode" TEXT`)
	assert.Contains(t, create, `"php_config_safe_mode" BOOLEAN`)
	assert.Contains(t, create, `"kimios_ratio" DOUBLE PRECISION`)
	assert.Contains(t, create, `"kimios_edition" VARCHAR(25)`)
	assert.Contains(t, create, "created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()")

	assert.Equal(t, `ALTER TABLE "telemetry" ADD COLUMN IF NOT EXISTS "kimios_num_users" BIGINT`, stmts[1])
	assert.Equal(t, `CREATE INDEX IF NOT EXISTS "telemetry_created_at_idx" ON "telemetry" (created_at)`, stmts[5])
}

func TestMigrator_Migrate(t *testing.T) {
	p := newProject(t, "project:\n  name: GLPI\n  schema:\n    usage: false\n")

	t.Run("applies statements in a transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		m := NewMigrator(db, "glpi_reference")
		mock.ExpectBegin()
		for _, stmt := range m.Statements(p) {
			mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		require.NoError(t, m.Migrate(context.Background(), p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		m := NewMigrator(db, "")
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err = m.Migrate(context.Background(), p)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply migration")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDSN_Migrator(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: 5432, User: "glpi", Password: "secret", Name: "telemetry"}
	assert.Equal(t, "host=db port=5432 user=glpi password=secret dbname=telemetry sslmode=disable", DSN(cfg))

	cfg.DSN = "postgres://glpi@db/telemetry"
	assert.Equal(t, "postgres://glpi@db/telemetry", DSN(cfg))
}

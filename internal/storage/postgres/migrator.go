package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
	"github.com/lib/pq"
)

// Migrator creates the reference table a project's records are stored in
type Migrator struct {
	db    *sql.DB
	table string
}

// NewMigrator creates a new Migrator. db may be nil when only Statements is
// used.
func NewMigrator(db *sql.DB, table string) *Migrator {
	if table == "" {
		table = "telemetry"
	}
	return &Migrator{db: db, table: table}
}

// Columns returns the storage columns of p's records: the fixed columns
// followed by its usage columns.
func Columns(p *project.Project) []record.Column {
	cols := record.FixedColumns()
	return append(cols, usageColumns(p)...)
}

func usageColumns(p *project.Project) []record.Column {
	usage := p.Usage()
	switch usage.Mode() {
	case project.UsageDisabled:
		return nil
	case project.UsageCustom:
		mapping := p.Mapping()
		var cols []record.Column
		for _, f := range usage.Fields() {
			col := record.Column{Name: mapping[f.Key], Kind: record.KindForUsageType(f.Type)}
			if col.Kind == record.KindString {
				col.Length = record.CustomUsageLength
			}
			cols = append(cols, col)
		}
		return cols
	default:
		return record.DefaultUsageColumns()
	}
}

// Statements returns the DDL that brings the table up to date for p. The
// table is created when missing and usage columns are added to an existing
// table, so the statements can be applied repeatedly.
func (m *Migrator) Statements(p *project.Project) []string {
	table := pq.QuoteIdentifier(m.table)

	defs := []string{"id BIGSERIAL PRIMARY KEY"}
	for _, col := range Columns(p) {
		defs = append(defs, columnDef(col))
	}
	defs = append(defs,
		"created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		"updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
	)

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(defs, ",\n\t")),
	}
	for _, col := range usageColumns(p) {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", table, columnDef(col)))
	}
	stmts = append(stmts, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (created_at)",
		pq.QuoteIdentifier(m.table+"_created_at_idx"), table,
	))
	return stmts
}

// Migrate applies Statements in a single transaction
func (m *Migrator) Migrate(ctx context.Context, p *project.Project) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements(p) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func columnDef(col record.Column) string {
	return pq.QuoteIdentifier(col.Name) + " " + sqlType(col)
}

func sqlType(col record.Column) string {
	switch col.Kind {
	case record.KindInteger:
		return "BIGINT"
	case record.KindNumber:
		return "DOUBLE PRECISION"
	case record.KindBoolean:
		return "BOOLEAN"
	case record.KindText:
		return "TEXT"
	default:
		return fmt.Sprintf("VARCHAR(%d)", col.Length)
	}
}

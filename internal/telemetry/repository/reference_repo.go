package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const DefaultTable = "telemetry"

var ErrEmptyRecord = errors.New("record has no columns")

// Executor is the subset of pgxpool.Pool the repository needs.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// ReferenceRepository stores flat telemetry records, one row per submission
type ReferenceRepository struct {
	db    Executor
	table string
}

// NewReferenceRepository creates a new ReferenceRepository. An empty table
// name selects DefaultTable.
func NewReferenceRepository(db Executor, table string) *ReferenceRepository {
	if table == "" {
		table = DefaultTable
	}
	return &ReferenceRepository{db: db, table: table}
}

// Insert writes rec as a new row. created_at and updated_at are set by the
// database.
func (r *ReferenceRepository) Insert(ctx context.Context, rec record.Record) error {
	query, args, err := r.insertQuery(rec)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert telemetry record: %w", err)
	}
	return nil
}

func (r *ReferenceRepository) insertQuery(rec record.Record) (string, []any, error) {
	if len(rec) == 0 {
		return "", nil, ErrEmptyRecord
	}

	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names)+2)
	placeholders := make([]string, 0, len(names)+2)
	args := make([]any, 0, len(names))
	for i, name := range names {
		cols = append(cols, pgx.Identifier{name}.Sanitize())
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, rec[name])
	}
	cols = append(cols, "created_at", "updated_at")
	placeholders = append(placeholders, "NOW()", "NOW()")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{r.table}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args, nil
}

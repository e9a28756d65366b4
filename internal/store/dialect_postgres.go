package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) NowExpr() string   { return "NOW()" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) SystemTablesSQL() string {
	return pgSystemTablesSQL
}

func (d *PostgresDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 AND table_schema = 'public'`,
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

func (d *PostgresDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	ph := pb.Add(values)
	return fmt.Sprintf("%s = ANY(%s)", field, ph)
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib, the underlying error message includes the PG code
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- PostgreSQL DDL ---

const pgSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _fieldsets (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    title       TEXT NOT NULL,
    field_key   TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    active      BOOLEAN NOT NULL DEFAULT true,
    settings    JSONB NOT NULL DEFAULT '{}',
    menu_order  INT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _fields (
    id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    fieldset_id      BIGINT NOT NULL REFERENCES _fieldsets(id) ON DELETE CASCADE,
    parent_id        BIGINT,
    label            TEXT NOT NULL DEFAULT '',
    name             TEXT NOT NULL DEFAULT '',
    type             TEXT NOT NULL DEFAULT 'text',
    menu_order       INT NOT NULL DEFAULT 0,
    placeholder      TEXT,
    default_value    TEXT,
    instructions     TEXT,
    required         BOOLEAN NOT NULL DEFAULT false,
    conditional_logic JSONB,
    wrapper_config   JSONB,
    field_config     JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ DEFAULT NOW(),
    updated_at       TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fields_fieldset ON _fields(fieldset_id);
CREATE INDEX IF NOT EXISTS idx_fields_parent ON _fields(parent_id);

CREATE TABLE IF NOT EXISTS _field_values (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    object_type TEXT NOT NULL,
    object_id   TEXT NOT NULL,
    field_name  TEXT NOT NULL,
    value       JSONB,
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE(object_type, object_id, field_name)
);
CREATE INDEX IF NOT EXISTS idx_field_values_object ON _field_values(object_type, object_id);
`

// Compile-time check
var _ Dialect = (*PostgresDialect)(nil)

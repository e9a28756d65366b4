package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) NowExpr() string   { return "datetime('now')" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue any
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = colType
	}
	return cols, rows.Err()
}

func (d *SQLiteDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		return "1=0" // always false
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(phs, ", "))
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "2067") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- SQLite DDL ---

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _fieldsets (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    title       TEXT NOT NULL,
    field_key   TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    active      INTEGER NOT NULL DEFAULT 1,
    settings    TEXT NOT NULL DEFAULT '{}',
    menu_order  INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT DEFAULT (datetime('now')),
    updated_at  TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS _fields (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    fieldset_id      INTEGER NOT NULL REFERENCES _fieldsets(id) ON DELETE CASCADE,
    parent_id        INTEGER,
    label            TEXT NOT NULL DEFAULT '',
    name             TEXT NOT NULL DEFAULT '',
    type             TEXT NOT NULL DEFAULT 'text',
    menu_order       INTEGER NOT NULL DEFAULT 0,
    placeholder      TEXT,
    default_value    TEXT,
    instructions     TEXT,
    required         INTEGER NOT NULL DEFAULT 0,
    conditional_logic TEXT,
    wrapper_config   TEXT,
    field_config     TEXT NOT NULL DEFAULT '{}',
    created_at       TEXT DEFAULT (datetime('now')),
    updated_at       TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_fields_fieldset ON _fields(fieldset_id);
CREATE INDEX IF NOT EXISTS idx_fields_parent ON _fields(parent_id);

CREATE TABLE IF NOT EXISTS _field_values (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    object_type TEXT NOT NULL,
    object_id   TEXT NOT NULL,
    field_name  TEXT NOT NULL,
    value       TEXT,
    created_at  TEXT DEFAULT (datetime('now')),
    updated_at  TEXT DEFAULT (datetime('now')),
    UNIQUE(object_type, object_id, field_name)
);
CREATE INDEX IF NOT EXISTS idx_field_values_object ON _field_values(object_type, object_id);
`

// Compile-time check
var _ Dialect = (*SQLiteDialect)(nil)

package store

import (
	"context"
	"fmt"
)

// Migrator upgrades the system tables in place when new columns are
// introduced by a release. Tables themselves are created by Bootstrap.
type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// columnUpgrade describes a column that older deployments may be missing.
type columnUpgrade struct {
	table  string
	column string
	pgType string
	ltType string // sqlite
}

var columnUpgrades = []columnUpgrade{
	{"_fieldsets", "description", "TEXT NOT NULL DEFAULT ''", "TEXT NOT NULL DEFAULT ''"},
	{"_fieldsets", "menu_order", "INT NOT NULL DEFAULT 0", "INTEGER NOT NULL DEFAULT 0"},
	{"_fields", "wrapper_config", "JSONB", "TEXT"},
	{"_fields", "conditional_logic", "JSONB", "TEXT"},
}

// Migrate adds any missing columns to the system tables.
func (m *Migrator) Migrate(ctx context.Context) error {
	byTable := make(map[string][]columnUpgrade)
	for _, u := range columnUpgrades {
		byTable[u.table] = append(byTable[u.table], u)
	}

	for table, upgrades := range byTable {
		existing, err := m.store.Dialect.GetColumns(ctx, m.store.DB, table)
		if err != nil {
			return fmt.Errorf("get columns for %s: %w", table, err)
		}
		for _, u := range upgrades {
			if _, ok := existing[u.column]; ok {
				continue
			}
			colType := u.pgType
			if m.store.Dialect.Name() == "sqlite" {
				colType = u.ltType
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", u.table, u.column, colType)
			if _, err := m.store.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("add column %s.%s: %w", u.table, u.column, err)
			}
		}
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"strings"
)

// Bootstrap creates the fieldset system tables if they don't exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	ddl := s.Dialect.SystemTablesSQL()
	if s.driver == "sqlite" {
		// modernc.org/sqlite executes one statement per call
		for _, stmt := range splitStatements(ddl) {
			if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("bootstrap system tables: %w", err)
			}
		}
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var stmts []string
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

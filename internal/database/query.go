package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// hiddenTables are left out of the schema offered to the model and cannot be
// read through QueryReadOnly.
var hiddenTables = []string{"schema_migrations", "agent_chat_messages"}

var (
	// ErrMultipleStatements is returned for queries holding more than one
	// statement. The driver executes every statement in the string.
	ErrMultipleStatements = errors.New("only a single statement is allowed")
	// ErrRestrictedTable is returned for queries touching a hidden table.
	ErrRestrictedTable = errors.New("query references a restricted table")
)

// checkReadOnlyQuery returns the query without trailing semicolons, or an
// error when it holds several statements or names a hidden table.
func checkReadOnlyQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	for strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	if strings.Contains(q, ";") {
		return "", ErrMultipleStatements
	}
	lower := strings.ToLower(q)
	for _, name := range hiddenTables {
		if strings.Contains(lower, name) {
			return "", fmt.Errorf("%w: %s", ErrRestrictedTable, name)
		}
	}
	return q, nil
}

// QueryReadOnly runs a single statement with PRAGMA query_only enabled on a
// dedicated connection. Hidden tables are off limits.
func (s *sqlxStore) QueryReadOnly(ctx context.Context, query string, maxRows int) ([]map[string]any, error) {
	if maxRows <= 0 {
		return nil, fmt.Errorf("maxRows must be positive")
	}
	query, err := checkReadOnlyQuery(query)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected read-only query", "error", err)
		return nil, err
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF;"); err != nil {
			s.logger.WarnContext(ctx, "Failed to reset query_only", "error", err)
		}
		if err := conn.Close(); err != nil {
			s.logger.WarnContext(ctx, "Failed to release connection", "error", err)
		}
	}()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable query_only: %w", err)
	}

	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "Read-only query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	result := []map[string]any{}
	for len(result) < maxRows && rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for k, v := range row {
			switch tv := v.(type) {
			case []byte:
				row[k] = string(tv)
			case time.Time:
				row[k] = tv.UTC().Format(time.RFC3339)
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	s.logger.DebugContext(ctx, "Read-only query completed", "rows", len(result), "max_rows", maxRows)
	return result, nil
}

func (s *sqlxStore) Schema(ctx context.Context) (map[string][]string, error) {
	query, args, err := sqlx.In(`
        SELECT m.name AS table_name, p.name AS column_name, p.type AS data_type
        FROM sqlite_master AS m
        JOIN pragma_table_info(m.name) AS p
        WHERE m.type = 'table'
          AND m.name NOT LIKE 'sqlite_%'
          AND m.name NOT IN (?)
        ORDER BY m.name, p.cid;
    `, hiddenTables)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema query: %w", err)
	}

	var cols []struct {
		Table  string `db:"table_name"`
		Column string `db:"column_name"`
		Type   string `db:"data_type"`
	}
	if err := s.db.SelectContext(ctx, &cols, s.db.Rebind(query), args...); err != nil {
		s.logger.ErrorContext(ctx, "Schema introspection failed", "error", err)
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	schema := make(map[string][]string)
	for _, c := range cols {
		schema[c.Table] = append(schema[c.Table], fmt.Sprintf("%s (%s)", c.Column, c.Type))
	}
	return schema, nil
}

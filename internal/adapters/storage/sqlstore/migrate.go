package sqlstore

import (
	"context"
	"embed"
	"strings"

	"github.com/juju/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate crea las tablas si no existen. Es idempotente.
func (s *Store) Migrate(ctx context.Context) error {
	raw, err := migrations.ReadFile("migrations/" + string(s.dialect) + ".sql")
	if err != nil {
		return errors.Annotatef(err, "read migrations for %s", s.dialect)
	}
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Annotatef(err, "migrate: %s", firstLine(stmt))
		}
	}
	return nil
}

// splitStatements separa por ';' al final de línea; el driver de mysql no acepta
// varias sentencias por Exec.
func splitStatements(sqlText string) []string {
	var out []string
	for _, part := range strings.Split(sqlText, ";\n") {
		var lines []string
		for _, l := range strings.Split(part, "\n") {
			if t := strings.TrimSpace(l); t != "" && !strings.HasPrefix(t, "--") {
				lines = append(lines, l)
			}
		}
		stmt := strings.TrimSuffix(strings.TrimSpace(strings.Join(lines, "\n")), ";")
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

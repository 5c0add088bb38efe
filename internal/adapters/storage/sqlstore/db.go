// Package sqlstore implementa los repositorios sobre database/sql para postgres (pgx),
// mysql y sqlite (modernc). Las consultas se escriben con '?' y se reescriben a $n
// para postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) driverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open abre el pool, hace ping y aplica las migraciones del dialecto.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case Postgres:
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, errors.Annotate(err, "parse mysql dsn")
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		// RowsAffected cuenta filas encontradas, no solo las modificadas.
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	case SQLite:
		if !strings.Contains(dsn, "_time_format") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_time_format=sqlite"
		}
	default:
		return nil, errors.NotValidf("dialect %q", dialect)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", dialect)
	}

	if dialect == SQLite {
		// sqlite serializa escritores; una sola conexión evita SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Annotatef(err, "ping %s", dialect)
	}

	s := &Store{db: db, dialect: dialect, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Dialect() Dialect { return s.dialect }

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

type txValue struct {
	owner *Store
	tx    *sql.Tx
}

func (s *Store) txFrom(ctx context.Context) *sql.Tx {
	v, ok := ctx.Value(txKey{}).(txValue)
	if !ok || v.owner != s {
		return nil
	}
	return v.tx
}

// WithinTx implementa storage.Transactor. Si el ctx ya trae una transacción de este
// store, fn corre dentro de ella.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, txValue{owner: s, tx: tx})); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Annotate(err, "commit tx")
	}
	return nil
}

func (s *Store) conn(ctx context.Context) querier {
	if tx := s.txFrom(ctx); tx != nil {
		return tx
	}
	return s.db
}

// rebind convierte '?' en $1, $2... para postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.conn(ctx).ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn(ctx).QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn(ctx).QueryRowContext(ctx, s.rebind(query), args...)
}

// insert ejecuta un INSERT y devuelve el id generado.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.dialect == Postgres {
		var id int64
		err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// insertOrder es la columna que desempata filas de auditoría con la misma fecha:
// seq (autoincremental) en postgres/mysql, el rowid implícito en sqlite.
func (s *Store) insertOrder() string {
	if s.dialect == SQLite {
		return "rowid"
	}
	return "seq"
}

// forUpdate es el sufijo de bloqueo de fila; sqlite bloquea la base entera al escribir.
func (s *Store) forUpdate() string {
	if s.dialect == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// updated traduce "0 filas afectadas" a NotFound.
func updated(res sql.Result, err error, format string, args ...any) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFoundf(format, args...)
	}
	return nil
}

/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

// Package sql stores credential lines in a MySQL or PostgreSQL table.
//
// Expected schema:
//
//	CREATE TABLE credential_lines (
//	    resource VARCHAR(255) NOT NULL,
//	    position INT NOT NULL,
//	    line     TEXT NOT NULL,
//	    PRIMARY KEY (resource, position)
//	);
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/inventario/credvault/log"
	"github.com/inventario/credvault/storage/repository"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

const tableName = "credential_lines"

// Driver identifies a supported database flavor.
type Driver string

const (
	// MySQL selects github.com/go-sql-driver/mysql.
	MySQL Driver = "mysql"

	// PostgreSQL selects github.com/lib/pq.
	PostgreSQL Driver = "postgres"
)

var _ repository.Lines = (*Storage)(nil)

// Storage is a SQL backed line resource.
type Storage struct {
	db       *sql.DB
	sb       sq.StatementBuilderType
	cb       *gobreaker.CircuitBreaker
	resource string
}

// New opens a database connection and returns a SQL line resource.
func New(ctx context.Context, driver Driver, cfg *Config) (*Storage, error) {
	dsn, err := dataSourceName(driver, cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize) // set max opened connection count
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newStorage(db, driver, cfg.Resource), nil
}

func dataSourceName(driver Driver, cfg *Config) (string, error) {
	switch driver {
	case MySQL:
		c := mysql.NewConfig()
		c.User = cfg.User
		c.Passwd = cfg.Password
		c.Net = "tcp"
		c.Addr = cfg.Host
		c.DBName = cfg.Database
		c.ParseTime = true
		return c.FormatDSN(), nil

	case PostgreSQL:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     cfg.Host,
			Path:     "/" + cfg.Database,
			RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
		}
		return u.String(), nil

	default:
		return "", fmt.Errorf("sql: unsupported driver: %s", driver)
	}
}

func newStorage(db *sql.DB, driver Driver, resource string) *Storage {
	sb := sq.StatementBuilder
	if driver == PostgreSQL {
		sb = sb.PlaceholderFormat(sq.Dollar)
	}
	if len(resource) == 0 {
		resource = DefaultResource
	}
	return &Storage{
		db: db,
		sb: sb,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "sql-" + resource,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
		resource: resource,
	}
}

// Exists satisfies repository.Lines interface.
func (s *Storage) Exists(ctx context.Context) (bool, error) {
	q := s.sb.Select("COUNT(*)").
		From(tableName).
		Where(sq.Eq{"resource": s.resource})

	var count int
	err := s.execute(func() error {
		return q.RunWith(s.db).QueryRowContext(ctx).Scan(&count)
	})
	if err != nil {
		return false, errors.Wrap(err, "sql: count lines")
	}
	return count > 0, nil
}

// Read satisfies repository.Lines interface.
func (s *Storage) Read(ctx context.Context) ([]string, error) {
	q := s.sb.Select("line").
		From(tableName).
		Where(sq.Eq{"resource": s.resource}).
		OrderBy("position")

	lines := []string{}
	err := s.execute(func() error {
		rows, err := q.RunWith(s.db).QueryContext(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var line string
			if err := rows.Scan(&line); err != nil {
				return err
			}
			lines = append(lines, line)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(err, "sql: read lines")
	}
	return lines, nil
}

// Append satisfies repository.Lines interface.
func (s *Storage) Append(ctx context.Context, line string) error {
	err := s.execute(func() error {
		return s.inTransaction(ctx, func(tx *sql.Tx) error {
			var last int
			err := s.sb.Select("COALESCE(MAX(position), 0)").
				From(tableName).
				Where(sq.Eq{"resource": s.resource}).
				RunWith(tx).
				QueryRowContext(ctx).
				Scan(&last)
			if err != nil {
				return err
			}
			_, err = s.sb.Insert(tableName).
				Columns("resource", "position", "line").
				Values(s.resource, last+1, strings.TrimSuffix(line, "\n")).
				RunWith(tx).
				ExecContext(ctx)
			return err
		})
	})
	return errors.Wrap(err, "sql: append line")
}

// Replace satisfies repository.Lines interface.
//
// Deletion and re-insertion run in a single transaction, so readers either observe the
// previous content or the new one. An empty set is stored as a single empty line, keeping
// the resource existent like an empty credential file.
func (s *Storage) Replace(ctx context.Context, lines []string) error {
	err := s.execute(func() error {
		return s.inTransaction(ctx, func(tx *sql.Tx) error {
			_, err := s.sb.Delete(tableName).
				Where(sq.Eq{"resource": s.resource}).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				lines = []string{""}
			}
			q := s.sb.Insert(tableName).Columns("resource", "position", "line")
			for i, line := range lines {
				q = q.Values(s.resource, i+1, strings.TrimSuffix(line, "\n"))
			}
			_, err = q.RunWith(tx).ExecContext(ctx)
			return err
		})
	})
	return errors.Wrap(err, "sql: replace lines")
}

// Close satisfies repository.Lines interface.
func (s *Storage) Close(_ context.Context) error {
	return s.db.Close()
}

func (s *Storage) execute(f func() error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, f()
	})
	return err
}

func (s *Storage) inTransaction(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return txErr
	}
	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

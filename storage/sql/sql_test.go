/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package sql

import (
	"context"
	"errors"
	"net/url"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

var errMocked = errors.New("sql: storage error")

func newMock(t *testing.T, driver Driver) (*Storage, sqlmock.Sqlmock) {
	db, sqlMock, err := sqlmock.New()
	require.Nil(t, err)
	return newStorage(db, driver, "usuarios"), sqlMock
}

func TestSQLStorageExists(t *testing.T) {
	s, mock := newMock(t, MySQL)
	mock.ExpectQuery("SELECT COUNT(.+) FROM credential_lines WHERE resource = \\?").
		WithArgs("usuarios").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	ok, err := s.Exists(context.Background())
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.True(t, ok)

	s, mock = newMock(t, MySQL)
	mock.ExpectQuery("SELECT COUNT(.+) FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err = s.Exists(context.Background())
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.False(t, ok)

	s, mock = newMock(t, MySQL)
	mock.ExpectQuery("SELECT COUNT(.+) FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnError(errMocked)

	_, err = s.Exists(context.Background())
	require.Nil(t, mock.ExpectationsWereMet())
	require.Equal(t, errMocked, pkgerrors.Cause(err))
}

func TestSQLStorageRead(t *testing.T) {
	s, mock := newMock(t, PostgreSQL)
	mock.ExpectQuery("SELECT line FROM credential_lines WHERE resource = \\$1 ORDER BY position").
		WithArgs("usuarios").
		WillReturnRows(sqlmock.NewRows([]string{"line"}).
			AddRow("alice:pw1").
			AddRow("").
			AddRow("bob:d:s"))

	lines, err := s.Read(context.Background())
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.Equal(t, []string{"alice:pw1", "", "bob:d:s"}, lines)

	s, mock = newMock(t, PostgreSQL)
	mock.ExpectQuery("SELECT line FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnRows(sqlmock.NewRows([]string{"line"}))

	lines, err = s.Read(context.Background())
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.Len(t, lines, 0)

	s, mock = newMock(t, PostgreSQL)
	mock.ExpectQuery("SELECT line FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnError(errMocked)

	_, err = s.Read(context.Background())
	require.Nil(t, mock.ExpectationsWereMet())
	require.Equal(t, errMocked, pkgerrors.Cause(err))
}

func TestSQLStorageAppend(t *testing.T) {
	s, mock := newMock(t, MySQL)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE(.+) FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
	mock.ExpectExec("INSERT INTO credential_lines (.+)").
		WithArgs("usuarios", 3, "alice:pw1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Append(context.Background(), "alice:pw1\n")
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)

	s, mock = newMock(t, MySQL)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE(.+) FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(0))
	mock.ExpectExec("INSERT INTO credential_lines (.+)").
		WithArgs("usuarios", 1, "alice:pw1").
		WillReturnError(errMocked)
	mock.ExpectRollback()

	err = s.Append(context.Background(), "alice:pw1")
	require.Nil(t, mock.ExpectationsWereMet())
	require.Equal(t, errMocked, pkgerrors.Cause(err))
}

func TestSQLStorageReplace(t *testing.T) {
	s, mock := newMock(t, MySQL)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO credential_lines (.+)").
		WithArgs("usuarios", 1, "alice:d:s", "usuarios", 2, "bob:d2:s2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.Replace(context.Background(), []string{"alice:d:s", "bob:d2:s2"})
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)

	s, mock = newMock(t, MySQL)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO credential_lines (.+)").
		WithArgs("usuarios", 1, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// empty content keeps the resource existent
	err = s.Replace(context.Background(), nil)
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)

	s, mock = newMock(t, MySQL)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM credential_lines (.+)").
		WithArgs("usuarios").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO credential_lines (.+)").
		WithArgs("usuarios", 1, "alice:d:s").
		WillReturnError(errMocked)
	mock.ExpectRollback()

	err = s.Replace(context.Background(), []string{"alice:d:s"})
	require.Nil(t, mock.ExpectationsWereMet())
	require.Equal(t, errMocked, pkgerrors.Cause(err))
}

func TestSQLDataSourceName(t *testing.T) {
	cfg := &Config{Host: "db:3306", User: "inventario", Password: "p@ss/w:rd?", Database: "inventario", SSLMode: "disable"}

	dsn, err := dataSourceName(MySQL, cfg)
	require.Nil(t, err)
	mc, err := mysql.ParseDSN(dsn)
	require.Nil(t, err)
	require.Equal(t, "inventario", mc.User)
	require.Equal(t, "p@ss/w:rd?", mc.Passwd)
	require.Equal(t, "db:3306", mc.Addr)
	require.Equal(t, "inventario", mc.DBName)
	require.True(t, mc.ParseTime)

	cfg.Host = "db:5432"
	dsn, err = dataSourceName(PostgreSQL, cfg)
	require.Nil(t, err)
	u, err := url.Parse(dsn)
	require.Nil(t, err)
	pw, _ := u.User.Password()
	require.Equal(t, "inventario", u.User.Username())
	require.Equal(t, "p@ss/w:rd?", pw)
	require.Equal(t, "db:5432", u.Host)
	require.Equal(t, "/inventario", u.Path)
	require.Equal(t, "disable", u.Query().Get("sslmode"))

	_, err = dataSourceName(Driver("sqlite"), cfg)
	require.NotNil(t, err)
}

func TestSQLConfig(t *testing.T) {
	var c Config
	require.Nil(t, yaml.Unmarshal([]byte("{host: localhost:3306, user: inventario, database: inventario}"), &c))
	require.Equal(t, "localhost:3306", c.Host)
	require.Equal(t, DefaultPoolSize, c.PoolSize)
	require.Equal(t, DefaultResource, c.Resource)
	require.Equal(t, "disable", c.SSLMode)

	_, err := New(context.Background(), Driver("sqlite"), &c)
	require.NotNil(t, err)
}

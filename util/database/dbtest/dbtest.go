// Package dbtest opens a database/sql handle backed by a stub driver whose
// transactions always succeed. Service tests use it to drive code past
// BeginTx while the repositories stay mocked; the Tally records how the
// transaction ended.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
)

type Tally struct {
	Commits   int
	Rollbacks int
}

// Open returns a *sql.DB whose transactions commit and roll back into t.
func Open(t *Tally) *sql.DB {
	return sql.OpenDB(connector{tally: t})
}

type connector struct{ tally *Tally }

func (c connector) Connect(context.Context) (driver.Conn, error) {
	return conn{tally: c.tally}, nil
}
func (c connector) Driver() driver.Driver { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("dbtest: open through sql.OpenDB")
}

type conn struct{ tally *Tally }

func (conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("dbtest: statements are not supported")
}
func (conn) Close() error { return nil }
func (c conn) Begin() (driver.Tx, error) {
	return tx{tally: c.tally}, nil
}

type tx struct{ tally *Tally }

func (t tx) Commit() error {
	if t.tally != nil {
		t.tally.Commits++
	}
	return nil
}
func (t tx) Rollback() error {
	if t.tally != nil {
		t.tally.Rollbacks++
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"schemaboard/internal/config"
	"schemaboard/internal/errs"
)

func TestDSN_EscapesCredentials(t *testing.T) {
	got := dsn(config.DatabaseConfig{
		Host: "db", Port: "5432", User: "admin", Password: "p@ss/word", SSLMode: "disable",
	}, "schema board")
	assert.Equal(t, "postgres://admin:p%40ss%2Fword@db:5432/schema%20board?sslmode=disable", got)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), errs.ErrKindTimeout},
		{"unique", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, errs.ErrKindInvalidInput},
		{"bad enum text", &pgconn.PgError{Code: "22P02"}, errs.ErrKindInvalidInput},
		{"connection", &pgconn.PgError{Code: "08006"}, errs.ErrKindConnectionFailed},
		{"canceled", &pgconn.PgError{Code: "57014"}, errs.ErrKindTimeout},
		{"syntax", &pgconn.PgError{Code: "42601"}, errs.ErrKindQueryFailed},
		{"other", errors.New("boom"), errs.ErrKindQueryFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := MapError(tc.err, "op")
			assert.Equal(t, tc.kind, errs.KindOf(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	assert.NoError(t, MapError(nil, "op"))

	already := errs.New(errs.ErrKindPermissionDenied, "nope")
	assert.Same(t, already, MapError(already, "op"))
}

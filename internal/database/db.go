package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"schemaboard/internal/config"
	"schemaboard/internal/errs"
	"schemaboard/internal/logger"
)

func dsn(cfg config.DatabaseConfig, database string) string {
	// url.UserPassword escapes credentials with reserved characters
	userInfo := url.UserPassword(cfg.User, cfg.Password)
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		userInfo.String(),
		cfg.Host,
		cfg.Port,
		url.PathEscape(database),
		cfg.SSLMode,
	)
}

// EnsureDatabaseExists creates cfg.Name through the postgres maintenance
// database when it is missing.
func EnsureDatabaseExists(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) error {
	pool, err := pgxpool.New(ctx, dsn(cfg, "postgres"))
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "connect to maintenance database", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Name).Scan(&exists)
	if err != nil {
		return MapError(err, "check database exists")
	}
	if exists {
		return nil
	}

	log.Infof("database %q does not exist, creating it", cfg.Name)
	// CREATE DATABASE cannot run inside a transaction or take a parameter
	if _, err := pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.Name}.Sanitize()); err != nil {
		return MapError(err, "create database")
	}
	return nil
}

// Connect opens the pool and pings it.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	log.Infof("connecting to database: postgres://%s:***@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)

	poolCfg, err := pgxpool.ParseConfig(dsn(cfg, cfg.Name))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse connection string", err)
	}

	poolCfg.MaxConns = 25
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = 5 * time.Minute
	poolCfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "create connection pool", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "ping database", err)
	}

	log.Info("database connection pool established")
	return pool, nil
}

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrCheckViolation      = "23514"
	pgErrNotNullViolation    = "23502"
	pgErrInvalidText         = "22P02"
	pgErrConnectionFailure   = "08006"
	pgErrCannotConnect       = "08001"
	pgErrQueryCanceled       = "57014"
)

// MapError converts a pgx error into an *errs.Error. msg describes the
// operation that failed.
func MapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation, pgErrForeignKeyViolation, pgErrCheckViolation,
			pgErrNotNullViolation, pgErrInvalidText:
			return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
		case pgErrConnectionFailure, pgErrCannotConnect:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case pgErrQueryCanceled:
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

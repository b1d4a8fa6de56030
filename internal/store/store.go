// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all blog entities.
// Each store struct wraps a *sqlx.DB and exposes typed, context-aware
// query methods. Dynamic list queries are assembled with squirrel.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"blogcms/internal/slug"
)

var (
	// ErrNotFound is returned when a lookup by id or slug matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference is returned when a write points at a row that does
	// not exist (unknown category, post or user).
	ErrInvalidReference = errors.New("invalid reference")
)

// ConstraintError reports the column a uniqueness or foreign-key violation
// concerns. It matches ErrConflict or ErrInvalidReference with errors.Is.
type ConstraintError struct {
	Kind  error
	Field string
	cause error
}

func (e *ConstraintError) Error() string {
	return e.Kind.Error() + ": " + e.Field
}

func (e *ConstraintError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

// ConstraintField returns the column named by a ConstraintError in err's
// chain, or "".
func ConstraintField(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// PostgreSQL SQLSTATE codes mapped to sentinel errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	psql   = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	tracer = otel.Tracer("blogcms/store")
)

// wrap converts a sqlx-compatible *sql.DB into the handle used by stores.
func wrap(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "pgx")
}

// startSpan opens a span named after the store operation.
func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
	))
}

// endSpan records err on the span (if any) and ends it. ErrNotFound is an
// expected outcome and does not mark the span as failed.
func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// mapError translates driver errors into the package sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Kind: ErrConflict, Field: constraintField(pgErr.ConstraintName), cause: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Kind: ErrInvalidReference, Field: constraintField(pgErr.ConstraintName), cause: err}
		}
	}
	return err
}

// constraintField extracts the column name from a default PostgreSQL
// constraint name such as "posts_slug_key" or "posts_category_id_fkey".
func constraintField(name string) string {
	name = strings.TrimSuffix(name, "_key")
	name = strings.TrimSuffix(name, "_fkey")
	if i := strings.Index(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// likePattern builds a contains-pattern for ILIKE with the LIKE wildcards in
// term escaped.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// searchAny returns an OR of case-insensitive contains matches over cols.
func searchAny(term string, cols ...string) sq.Or {
	pattern := likePattern(term)
	or := make(sq.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, sq.ILike{col: pattern})
	}
	return or
}

// paginate applies limit/offset when they are set.
func paginate(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}

// getOne runs b and scans the single resulting row into dest.
func getOne(ctx context.Context, q sqlx.QueryerContext, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return mapError(sqlx.GetContext(ctx, q, dest, query, args...))
}

// selectAll runs b and scans every resulting row into dest (a slice pointer).
func selectAll(ctx context.Context, q sqlx.QueryerContext, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return mapError(sqlx.SelectContext(ctx, q, dest, query, args...))
}

// exec runs a write statement and returns the number of affected rows.
func exec(ctx context.Context, e sqlx.ExecerContext, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// countRows runs a COUNT(*) query built from b.
func countRows(ctx context.Context, q sqlx.QueryerContext, b sq.SelectBuilder) (int, error) {
	var n int
	if err := getOne(ctx, q, &n, b); err != nil {
		return 0, err
	}
	return n, nil
}

// slugRetries bounds how often a create with a generated slug is repeated
// after a concurrent insert took the same slug first.
const slugRetries = 2

// retrySlugConflict runs create and repeats it while it fails only because
// a generated slug was claimed between the uniqueness check and the insert.
// Explicit slugs are never retried.
func retrySlugConflict[T any](explicit bool, create func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := create()
		if err == nil || explicit || attempt >= slugRetries {
			return v, err
		}
		if !errors.Is(err, ErrConflict) || ConstraintField(err) != "slug" {
			return v, err
		}
	}
}

// uniqueSlug returns base, or base with the first free numeric suffix, so
// that the result is not yet used in table.
func uniqueSlug(ctx context.Context, q sqlx.QueryerContext, table, base string) (string, error) {
	for n := 1; ; n++ {
		candidate := slug.WithSuffix(base, n)
		var taken bool
		b := psql.Select().Column(sq.Expr("EXISTS (SELECT 1 FROM "+table+" WHERE slug = ?)", candidate))
		if err := getOne(ctx, q, &taken, b); err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

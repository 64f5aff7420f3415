package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// Database is the name reported in DatabaseErrors from this package.
const Database = "audit"

// MapError converts pgx/pgconn errors to domain errors. A server that
// cannot be reached or refuses work becomes a *domain.DatabaseError.
// Context errors pass through unchanged.
func MapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case pgErr.Code == "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case pgErr.Code == "23514", pgErr.Code == "22P02": // check_violation, invalid_text_representation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		case unavailableCode(pgErr.Code):
			return domain.NewDatabaseError(entity, Database, err)
		}
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return domain.NewDatabaseError(entity, Database, err)
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}

// unavailableCode reports SQLSTATEs meaning the server cannot serve the
// request right now: connection exceptions (class 08), shutdowns and
// connection limits.
func unavailableCode(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "57P01", "57P02", "57P03", "53300":
		return true
	}
	return false
}

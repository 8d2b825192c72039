package implementation

import (
	"errors"
	"strings"

	"messpal-be/internal/repository/contract"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// translateWriteError maps driver-specific unique violations to contract.ErrDuplicate.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return contract.ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return contract.ErrDuplicate
	}
	// sqlite (tests)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return contract.ErrDuplicate
	}
	return err
}

package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"subtrack/pkg/utils"
)

// ErrDuplicateKey is returned when an insert hits a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// storeError classifies a gorm error: unreachable database becomes
// utils.ErrStoreUnavailable, unique violations become ErrDuplicateKey and
// anything else is wrapped as utils.ErrDatabaseError.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isDuplicate(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %v", op, utils.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, utils.ErrDatabaseError, err)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// SQLite dialects that do not translate constraint errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if strings.Contains(err.Error(), "sql: database is closed") {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgForeignKeyViolation = "23503"

// missingID is returned for lookups and deletes given an empty id; nothing can match it
func missingID(entity string) error {
	return fmt.Errorf("%s with empty id: %w", entity, domain.ErrNotFound)
}

// isForeignKeyViolation reports whether err is a foreign key failure from either driver
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		// primary code only when extended result codes are off
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY")
	}

	return false
}

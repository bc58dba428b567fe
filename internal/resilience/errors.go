package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes worth another attempt.
var transientPgCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// IsTransient reports whether err is a lock, contention or connection
// failure that may succeed on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientPgCodes[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// modernc.org/sqlite reports contention only through the message.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"database is locked", "sqlite_busy", "database table is locked", "connection reset by peer"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

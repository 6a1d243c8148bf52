// Package dberr classifies storage driver errors into the auth error taxonomy.
package dberr

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsConnectivity reports failures where the store could not be reached or
// the caller gave up waiting. Retrying later may succeed.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Wrap maps a driver error that is not an expected miss.
func Wrap(err error, op string) error {
	if IsConnectivity(err) {
		return customErrors.WrapUnavailable(err, op)
	}
	return customErrors.WrapInternal(err, op)
}

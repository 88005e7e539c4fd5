package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/wellness-backend/internal/platform/apierr"
)

var (
	// ErrUnauthenticated covers a missing, malformed or expired bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStoreTimeout is a store call that ran past its deadline.
	ErrStoreTimeout = errors.New("store timeout")
	// ErrStoreUnavailable is any other failure talking to the store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidInput is a request the caller has to fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSubmissionInFlight is a bulk submission whose idempotency key is held.
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

func InvalidInput(msg string) error {
	return apierr.New(http.StatusBadRequest, "invalid_request", fmt.Errorf("%w: %s", ErrInvalidInput, strings.TrimSpace(msg)))
}

// MapStoreError classifies an infrastructure failure so handlers can tell
// "try again" (503/504) apart from "fix your input".
func MapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apierr.New(http.StatusGatewayTimeout, "network_error", errors.Join(ErrStoreTimeout, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case strings.HasPrefix(code, "08"), // connection_exception
			strings.HasPrefix(code, "53"), // insufficient_resources
			code == "57P01", code == "57P03", // admin_shutdown, cannot_connect_now
			code == "40001", code == "40P01": // serialization_failure, deadlock_detected
			return apierr.New(http.StatusServiceUnavailable, "store_unavailable", errors.Join(ErrStoreUnavailable, err))
		}
		return apierr.New(http.StatusInternalServerError, "store_error", err)
	}

	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return apierr.New(http.StatusGatewayTimeout, "network_error", errors.Join(ErrStoreTimeout, err))
	}
	return apierr.New(http.StatusServiceUnavailable, "store_unavailable", errors.Join(ErrStoreUnavailable, err))
}

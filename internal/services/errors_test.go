package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/wellness-backend/internal/platform/apierr"
)

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		is     error
	}{
		{"deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "network_error", ErrStoreTimeout},
		{"pg_connection", &pgconn.PgError{Code: "08006"}, http.StatusServiceUnavailable, "store_unavailable", ErrStoreUnavailable},
		{"pg_deadlock", &pgconn.PgError{Code: "40P01"}, http.StatusServiceUnavailable, "store_unavailable", ErrStoreUnavailable},
		{"pg_other", &pgconn.PgError{Code: "42P01"}, http.StatusInternalServerError, "store_error", nil},
		{"opaque", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, "store_unavailable", ErrStoreUnavailable},
		{"opaque_timeout", errors.New("i/o timeout"), http.StatusGatewayTimeout, "network_error", ErrStoreTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := apierr.From(MapStoreError(tc.err))
			if got.Status != tc.status || got.Code != tc.code {
				t.Fatalf("got %d/%s want %d/%s", got.Status, got.Code, tc.status, tc.code)
			}
			if tc.is != nil && !errors.Is(got, tc.is) {
				t.Fatalf("%v is not %v", got, tc.is)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("original error lost: %v", got)
			}
		})
	}

	if MapStoreError(nil) != nil {
		t.Fatalf("nil should map to nil")
	}
	pre := InvalidInput("bad")
	if MapStoreError(pre) != pre {
		t.Fatalf("api errors should pass through")
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/data/repos/testutil"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
)

func TestAuthService_SetContextFromToken(t *testing.T) {
	svc := NewAuthService(testutil.Logger(t), "test-secret", "")
	user := uuid.New()

	valid, err := svc.IssueToken(user, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expired, err := svc.IssueToken(user, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	foreign, err := NewAuthService(testutil.Logger(t), "other-secret", "").IssueToken(user, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: user.String()}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name  string
		token string
		ok    bool
	}{
		{"valid", valid, true},
		{"empty", "", false},
		{"garbage", "abc.def.ghi", false},
		{"expired", expired, false},
		{"wrong_secret", foreign, false},
		{"missing_expiry", noExpiry, false},
		{"bad_subject", badSubject, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, err := svc.SetContextFromToken(context.Background(), tc.token)
			if !tc.ok {
				if !errors.Is(err, ErrUnauthenticated) {
					t.Fatalf("err=%v, want ErrUnauthenticated", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetContextFromToken: %v", err)
			}
			if got := ctxutil.UserID(ctx); got != user {
				t.Fatalf("user=%s want %s", got, user)
			}
		})
	}
}

func TestAuthService_Issuer(t *testing.T) {
	svc := NewAuthService(testutil.Logger(t), "s", "wellness")
	other := NewAuthService(testutil.Logger(t), "s", "someone-else")
	tok, err := other.IssueToken(uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.SetContextFromToken(context.Background(), tok); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err=%v", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey []byte
	issuer       string
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, issuer string) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: []byte(jwtSecretKey),
		issuer:       strings.TrimSpace(issuer),
		now:          time.Now,
	}
}

func unauthenticated(format string, args ...any) error {
	return apierr.New(http.StatusUnauthorized, "unauthorized", errors.Join(ErrUnauthenticated, fmt.Errorf(format, args...)))
}

// SetContextFromToken verifies an HS256 token and attaches the caller to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, unauthenticated("missing token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, opts...)
	if err != nil {
		return ctx, unauthenticated("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, unauthenticated("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, unauthenticated("invalid user id in token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: tokenString, UserID: userID}), nil
}

// IssueToken signs a token for userID. Used by the CLI and tests.
func (as *authService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := as.now()
	claims := JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    as.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}

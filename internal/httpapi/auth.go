package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ledgerline/backend/internal/domain"
	"ledgerline/backend/internal/store"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errAccountDisabled    = errors.New("user account is disabled")
	errInvalidToken       = errors.New("invalid or expired token")
)

// UserSource is the slice of the ledger the auth layer needs.
type UserSource interface {
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	users    UserSource
}

type ledgerClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, users UserSource) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
	}
}

// Login verifies credentials against the live user record. A wrong username
// and a wrong password both report invalid credentials; a correct password on
// a deactivated account reports the account as disabled.
func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error) {
	user, err := a.users.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenResponse{}, errInvalidCredentials
		}
		return domain.TokenResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return domain.TokenResponse{}, errInvalidCredentials
	}
	if !user.Active {
		return domain.TokenResponse{}, errAccountDisabled
	}

	token, err := a.sign(user.Username, user.Role, time.Now().UTC().Add(a.tokenTTL))
	if err != nil {
		return domain.TokenResponse{}, err
	}
	return domain.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to the live user record. Tokens for
// deleted or deactivated accounts fail even when the signature is valid.
func (a *AuthManager) Authenticate(ctx context.Context, tokenStr string) (*domain.User, error) {
	claims, err := a.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := a.users.FindUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, errAccountDisabled
	}
	return user, nil
}

func (a *AuthManager) parse(tokenStr string) (*ledgerClaims, error) {
	claims := &ledgerClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := ledgerClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "ledgerline",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

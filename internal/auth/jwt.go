package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"kirana/internal/domain"
)

// Principal is the authenticated caller extracted from a JWT.
type Principal struct {
	UserID uint64
	Role   domain.Role
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MintToken issues an HS256 token for the given user.
func MintToken(secret string, ttl time.Duration, user *domain.User) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}

	now := time.Now()
	c := claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString([]byte(secret))
}

// ParseToken validates a token and returns the principal it carries.
func ParseToken(tokenStr, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}

	c, _ := tok.Claims.(*claims)
	if c == nil || c.Subject == "" {
		return nil, errors.New("invalid claims")
	}

	userID, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return nil, errors.New("invalid subject")
	}

	role, ok := domain.ToRole(c.Role)
	if !ok {
		return nil, errors.New("invalid role claim")
	}

	return &Principal{UserID: userID, Role: role}, nil
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
)

// AccessClaims are the claims of an access token. Subject is the user id.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAccessToken creates a signed HS256 JWT for the given subject and role.
func IssueAccessToken(key []byte, uid uuid.UUID, role model.Role, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := AccessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	return signed, exp, err
}

// ParseAccessToken verifies an HS256 token and returns the caller it names.
// Every failure matches errs.ErrUnauthorized.
func ParseAccessToken(key []byte, token string) (model.Caller, error) {
	var claims AccessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return model.Caller{}, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return model.Caller{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	role := model.Role(claims.Role)
	if role != model.RoleAdmin && role != model.RoleCadet {
		return model.Caller{}, fmt.Errorf("%w: bad role claim", errs.ErrUnauthorized)
	}
	return model.Caller{ID: id, Role: role}, nil
}

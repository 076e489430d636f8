package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/davomat-api/internal/models"
)

const defaultTokenTTL = 24 * time.Hour

// ErrTokenSecretMissing indicates the signing secret was not configured.
var ErrTokenSecretMissing = errors.New("jwt secret is not configured")

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user models.User) (string, time.Time, error)
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type hmacTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an HS256 issuer. A non-positive ttl falls back to 24h.
func NewTokenIssuer(secret string, ttl time.Duration) TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &hmacTokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *hmacTokenIssuer) Issue(user models.User) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, ErrTokenSecretMissing
	}

	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(i.ttl)
	claims := AccessClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"classattend/internal/account"
	"classattend/internal/apperr"
)

// Principal is the identity a verified session token carries.
type Principal struct {
	UserID int64        `json:"user_id"`
	Role   account.Role `json:"role"`
	Name   string       `json:"name"`
}

// Claims represents JWT payload.
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Principal returns the identity embedded in the claims.
func (c Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: account.Role(c.Role), Name: c.Name}
}

// Tokens issues and verifies HS256 session tokens with a fixed validity window.
type Tokens struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer/verifier.
func NewTokens(key, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(key), issuer: issuer, ttl: ttl, now: time.Now}
}

// WithClock swaps the time source used for both issuing and verifying.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	cp := *t
	cp.now = now
	return &cp
}

// TTL is the validity window of issued tokens.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for p and returns it with its expiry.
func (t *Tokens) Issue(p Principal) (string, time.Time, error) {
	issuedAt := t.now()
	exp := issuedAt.Add(t.ttl)
	claims := Claims{
		UserID: p.UserID,
		Role:   string(p.Role),
		Name:   p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates signature, algorithm, issuer and expiry and returns the claims.
// Every failure wraps apperr.ErrInvalidOrExpiredToken.
func (t *Tokens) Parse(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", apperr.ErrInvalidOrExpiredToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, apperr.ErrInvalidOrExpiredToken
	}
	return *claims, nil
}

package security

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a console token fails validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// ConsoleClaims is the JWT payload for operator console tokens.
type ConsoleClaims struct {
	Username string `json:"uname"`
	jwtlib.RegisteredClaims
}

// TokenProvider signs and validates console bearer tokens with HS256.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with secret. ttl defaults
// to 12h when non-positive.
func NewTokenProvider(secret, issuer string, ttl time.Duration) *TokenProvider {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenProvider{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue creates a signed token for the given admin username and returns it
// with its expiry.
func (p *TokenProvider) Issue(username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(p.ttl)
	claims := ConsoleClaims{
		Username: username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    p.issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Validate parses a token string and returns the admin username it was issued
// for. Returns ErrInvalidToken for anything that does not verify.
func (p *TokenProvider) Validate(tokenStr string) (string, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &ConsoleClaims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*ConsoleClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}

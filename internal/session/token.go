package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itchan-dev/postsweb/internal/domain"
)

var ErrInvalidToken = errors.New("invalid session token")

// Tokens signs session ids into the session cookie.
type Tokens struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokens(secretKey string, ttl time.Duration) *Tokens {
	return &Tokens{secretKey: []byte(secretKey), ttl: ttl}
}

func (t *Tokens) Sign(id domain.SessionId) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secretKey)
	if err != nil {
		return "", fmt.Errorf("can't sign session token: %w", err)
	}
	return signed, nil
}

// Parse returns the session id carried by a valid, unexpired token.
func (t *Tokens) Parse(tokenStr string) (domain.SessionId, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

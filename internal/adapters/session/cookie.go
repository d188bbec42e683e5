package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const cookieIssuer = "flatcms"

// CookieCodec signs session ids into cookie values and verifies them on the
// way back in.
type CookieCodec struct {
	secret []byte
}

// NewCookieCodec creates a codec signing with secret
func NewCookieCodec(secret string) (*CookieCodec, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &CookieCodec{secret: []byte(secret)}, nil
}

// Encode returns a signed cookie value carrying the session id
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  sessionID,
		Issuer:   cookieIssuer,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return value, nil
}

// Decode verifies value and returns the session id it carries
func (c *CookieCodec) Decode(value string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(cookieIssuer))
	if err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid session cookie claims")
	}
	return claims.Subject, nil
}

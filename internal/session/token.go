package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for a cookie that does not carry a session id
// signed with our secret.
var ErrInvalidToken = errors.New("invalid session token")

// Signer turns session ids into HS256 tokens for the session cookie, so a
// client cannot pick another operator's session id.
type Signer struct {
	secret []byte
}

// NewSigner returns a signer using secret.
func NewSigner(secret string) Signer {
	return Signer{secret: []byte(secret)}
}

// Sign wraps sessionID in a signed token.
func (s Signer) Sign(sessionID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  sessionID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks raw and returns the session id it carries.
func (s Signer) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

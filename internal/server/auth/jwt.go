// Package auth issues and verifies the HS256 bearer tokens handed out on login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when GenerateToken is called with a zero ttl.
const DefaultTokenTTL = 15 * 24 * time.Hour

var ErrEmptySecret = errors.New("signing secret is empty")

// Claims carries only registered claims: sub is the user's email.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a token for subject that expires ttl from now.
// A negative ttl yields an already expired token.
func GenerateToken(subject string, secretKey []byte, ttl time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrEmptySecret
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken verifies tokenString and returns its subject.
// Errors are one of common.ErrInvalidToken, common.ErrTokenExpired or
// common.ErrTokenMalformed.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", common.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		default:
			return "", common.ErrInvalidToken
		}
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", common.ErrTokenMalformed
	}

	return claims.Subject, nil
}

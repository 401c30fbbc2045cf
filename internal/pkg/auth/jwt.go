// Package auth provides functionality for generating and parsing JSON Web Tokens (JWT)
// that identify the logged in user of the stub service. It defines custom claims,
// token generation, and validation logic.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TOKENEXP defines the token expiration duration.
const TOKENEXP = time.Hour * 3

// ErrEmptySecret is returned when a token is generated or parsed without a signing key.
var ErrEmptySecret = errors.New("auth: empty session secret")

// Claims represents the custom JWT claims that include the user ID and standard claims.
// It embeds jwt.RegisteredClaims for standard fields like expiration time.
type Claims struct {
	UserID int32
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token for a given userID signed with secret.
// It sets the expiration time based on TOKENEXP and includes the userID in the claims.
func GenerateToken(userID int32, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TOKENEXP)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates the provided JWT token string and parses its claims.
// It returns the Claims if the token is valid, or an error otherwise.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

package jwt_utils

import (
	"errors"
	"time"

	"github.com/stock-chat/stock-chat/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// GenerateSessionToken creates a signed session token identifying the
// given user.
func GenerateSessionToken(user domain.User, signingKey string, expiry time.Duration) (string, error) {

	if signingKey == "" {
		return "", errors.New("no session token signing key configured")
	}

	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   int64(user.ID),
		Username: string(user.Username),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signingKey))
}

// ParseSessionToken validates a session token and returns the user it
// identifies.
func ParseSessionToken(tokenString string, signingKey string) (domain.User, error) {

	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected token signing method")
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if !token.Valid {
		return domain.User{}, errors.New("invalid session token")
	}

	return domain.User{ID: domain.UserID(claims.UserID), Username: domain.Username(claims.Username)}, nil
}

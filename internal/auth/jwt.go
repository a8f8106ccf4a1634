package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The signing key is injected from configuration at startup via SetSecret.
// The default only exists so local tooling and tests work without a .env.
var jwtSecretKey = []byte("dev-only-secret-change-me")

// SetSecret replaces the signing key. Called once from main before the
// server starts; an empty secret keeps the development default.
func SetSecret(secret string) {
	if secret != "" {
		jwtSecretKey = []byte(secret)
	}
}

// GenerateToken creates a signed JWT for the given user ID.
// Token issuance normally belongs to the authentication service; this is
// kept for local development and for the handler tests.
func GenerateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(72 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecretKey)
}

// ValidateToken parses and validates a JWT string and returns the user ID
// carried in the subject claim.
func ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecretKey, nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		// JSON numbers decode as float64.
		userIDFloat, ok := claims["sub"].(float64)
		if !ok {
			return 0, errors.New("invalid subject claim")
		}
		return int64(userIDFloat), nil
	}

	return 0, errors.New("invalid token")
}

package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// JWT issues and verifies HS256 session tokens. The signing key is injected
// at startup; there is no package-level state.
type JWT struct {
	TokenAuth *jwtauth.JWTAuth
	expiry    time.Duration
}

func NewJWT(key []byte, expiry time.Duration) *JWT {
	return &JWT{
		TokenAuth: jwtauth.New("HS256", key, nil),
		expiry:    expiry,
	}
}

// GenerateToken signs a token carrying the user id, valid for the configured
// expiry (7 days by default).
func (j *JWT) GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(j.expiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := j.TokenAuth.Encode(claims)
	return tokenString, err
}

// VerifyToken decodes and validates a raw token string and returns the user id.
// Signature, structure and expiry failures are indistinguishable to the caller.
func (j *JWT) VerifyToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(j.TokenAuth, tokenString)
	if err != nil {
		return "", errors.New("invalid token")
	}
	userID, ok := token.PrivateClaims()["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid token")
	}
	return userID, nil
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

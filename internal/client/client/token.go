package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identifies the calling installation of the CLI.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"cid"`
}

// GenerateToken signs an HS256 token for clientID valid for ttl.
func GenerateToken(clientID string, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ClientID: clientID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// tokenSource hands out bearer tokens, reusing one until it is close to
// expiry.
type tokenSource struct {
	clientID string
	secret   []byte
	ttl      time.Duration

	token   string
	expires time.Time
}

func (s *tokenSource) Token() (string, error) {
	if s.token != "" && time.Until(s.expires) > s.ttl/10 {
		return s.token, nil
	}
	tok, err := GenerateToken(s.clientID, s.secret, s.ttl)
	if err != nil {
		return "", err
	}
	s.token, s.expires = tok, time.Now().Add(s.ttl)
	return tok, nil
}

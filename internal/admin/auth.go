package admin

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL comfortably outlives a single site's retry sequence; a
// fresh token is issued per target.
const DefaultTokenTTL = 15 * time.Minute

// Credentials identify this tool to the admin service.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

type claims struct {
	jwt.RegisteredClaims
}

// issueToken signs an HS256 client assertion with the given ttl.
func issueToken(creds Credentials, ttl time.Duration) (string, error) {
	if creds.ClientID == "" {
		return "", errors.New("empty client id")
	}
	if creds.ClientSecret == "" {
		return "", errors.New("empty client secret")
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    creds.ClientID,
			Subject:   creds.ClientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(creds.ClientSecret))
}

// VerifyToken validates signature and expiry of a client assertion. The
// admin service side uses the same shape; kept here so the fake service in
// tests can authenticate requests.
func VerifyToken(secret []byte, tokenStr string) error {
	if len(secret) == 0 {
		return errors.New("empty client secret")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return errors.New("invalid token")
	}
	return nil
}

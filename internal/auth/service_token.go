package auth

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceTokenVerifier checks the bearer token the scheduler presents when
// triggering an ingestion run: a signed JWT bound to this service's audience
// and the scheduler's issuer.
type ServiceTokenVerifier struct {
	secret   []byte
	audience string
	issuer   string
}

func NewServiceTokenVerifier(secret, audience, issuer string) *ServiceTokenVerifier {
	return &ServiceTokenVerifier{secret: []byte(secret), audience: audience, issuer: issuer}
}

func NewServiceTokenVerifierFromEnv() *ServiceTokenVerifier {
	return NewServiceTokenVerifier(
		os.Getenv("SERVICE_TOKEN_SECRET"),
		os.Getenv("SCHEDULER_AUDIENCE"),
		os.Getenv("SCHEDULER_ISSUER"),
	)
}

func (v *ServiceTokenVerifier) Verify(tokenString string) error {
	_, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return fmt.Errorf("invalid service token: %w", err)
	}
	return nil
}

package clients

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource mints a bearer credential for one outbound service call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ServiceTokenSource issues short-lived tokens scoped to a single target
// service identity via the client-credentials grant. A fresh token is fetched
// immediately before every call; nothing is cached across calls.
type ServiceTokenSource struct {
	conf *clientcredentials.Config
}

func NewServiceTokenSource(audience string) *ServiceTokenSource {
	return &ServiceTokenSource{
		conf: &clientcredentials.Config{
			ClientID:       os.Getenv("SERVICE_CLIENT_ID"),
			ClientSecret:   os.Getenv("SERVICE_CLIENT_SECRET"),
			TokenURL:       os.Getenv("SERVICE_TOKEN_URL"),
			AuthStyle:      oauth2.AuthStyleInHeader,
			EndpointParams: url.Values{"audience": {audience}},
		},
	}
}

func (s *ServiceTokenSource) Token(ctx context.Context) (string, error) {
	// A new TokenSource per call defeats the library's token cache on
	// purpose: every request presents a credential minted for it.
	tok, err := s.conf.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("[ServiceToken] failed to fetch token: %w", err)
	}
	return tok.AccessToken, nil
}

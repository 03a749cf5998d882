package clients

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const HEALTHCHECK_TIMEOUT = 5 * time.Second

// HealthCheck reports whether the scraper service answers its health probe.
func (s *ScraperClient) HealthCheck(ctx context.Context) bool {
	return probe(ctx, s.Client, s.BaseURL+"/health", "[ScraperClient]")
}

// HealthCheck reports whether the inference service answers its health probe.
func (c *InferenceClient) HealthCheck(ctx context.Context) bool {
	return probe(ctx, c.Client, c.BaseURL+"/health", "[InferenceClient]")
}

func probe(ctx context.Context, client *http.Client, url, component string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, HEALTHCHECK_TIMEOUT)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		slog.Warn(component+" Health probe failed",
			slog.String("error", err.Error()))
		return false
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK
}

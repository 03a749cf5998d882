package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/spacesedan/newspulse/internal/ingestion"
	"github.com/spacesedan/newspulse/internal/models"
)

const SCRAPER_TIMEOUT = 30 * time.Second

var (
	scraperInstance *ScraperClient
	scraperOnce     sync.Once
)

// ScraperClient talks to the scraper service. It does not retry; the
// orchestrator owns the retry contract.
type ScraperClient struct {
	BaseURL string
	Tokens  TokenSource
	Client  *http.Client
}

func NewScraperClient(baseURL string, tokens TokenSource) *ScraperClient {
	return &ScraperClient{
		BaseURL: baseURL,
		Tokens:  tokens,
		Client:  &http.Client{Timeout: SCRAPER_TIMEOUT},
	}
}

func GetScraperClient() *ScraperClient {
	scraperOnce.Do(func() {
		baseURL := os.Getenv("SCRAPER_SERVICE_URL")
		slog.Info("[ScraperClient] Initializing client", slog.String("base_url", baseURL))
		scraperInstance = NewScraperClient(baseURL, NewServiceTokenSource(baseURL))
	})
	return scraperInstance
}

// FetchScrapedItems requests items newer than the cursor. A nil cursor asks
// for the newest items from an empty store.
func (s *ScraperClient) FetchScrapedItems(ctx context.Context, cursor *string, limit int) ([]models.RawItem, error) {
	token, err := s.Tokens.Token(ctx)
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindTransport, Stage: "scraper", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/fetch_news", nil)
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindUnexpected, Stage: "scraper", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	query := req.URL.Query()
	if cursor != nil {
		query.Set("cursor", *cursor)
	}
	query.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = query.Encode()

	res, err := s.Client.Do(req)
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindTransport, Stage: "scraper", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		logNon2xxBody("[ScraperClient]", res)
		return nil, &ingestion.StageError{
			Kind:   ingestion.ErrorKindService,
			Stage:  "scraper",
			Status: res.StatusCode,
			Err:    fmt.Errorf("scraper responded with status %d", res.StatusCode),
		}
	}

	var items []models.RawItem
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindUnexpected, Stage: "scraper", Err: err}
	}

	slog.Info("[ScraperClient] Successfully fetched items", slog.Int("count", len(items)))
	return items, nil
}

func logNon2xxBody(component string, res *http.Response) {
	body, err := io.ReadAll(io.LimitReader(res.Body, 512))
	if err != nil {
		return
	}
	slog.Error(component+" Non-2xx response",
		slog.Int("status", res.StatusCode),
		slog.String("body", string(body)))
}

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spacesedan/newspulse/internal/ingestion"
	"github.com/spacesedan/newspulse/internal/models"
	"github.com/spacesedan/newspulse/internal/utils"
)

// Classification runs the whole batch through the model service, so the
// timeout is far looser than the scraper's.
const INFERENCE_TIMEOUT = 180 * time.Second

var (
	inferenceInstance *InferenceClient
	inferenceOnce     sync.Once
)

type InferenceClient struct {
	BaseURL string
	Tokens  TokenSource
	Client  *http.Client
}

func NewInferenceClient(baseURL string, tokens TokenSource) *InferenceClient {
	return &InferenceClient{
		BaseURL: baseURL,
		Tokens:  tokens,
		Client:  &http.Client{Timeout: INFERENCE_TIMEOUT},
	}
}

func GetInferenceClient() *InferenceClient {
	inferenceOnce.Do(func() {
		baseURL := os.Getenv("ML_INFERENCE_SERVICE_URL")
		slog.Info("[InferenceClient] Initializing client", slog.String("base_url", baseURL))
		inferenceInstance = NewInferenceClient(baseURL, NewServiceTokenSource(baseURL))
	})
	return inferenceInstance
}

// Classify submits texts for category/sentiment prediction. Results come back
// keyed by the input text.
func (c *InferenceClient) Classify(ctx context.Context, texts []string) ([]models.Classification, error) {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindTransport, Stage: "inference", Err: err}
	}

	body, err := utils.SerializeToJSON(models.ClassificationRequest{Texts: texts})
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindUnexpected, Stage: "inference", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindUnexpected, Stage: "inference", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.Client.Do(req)
	if err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindTransport, Stage: "inference", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		logNon2xxBody("[InferenceClient]", res)
		return nil, &ingestion.StageError{
			Kind:   ingestion.ErrorKindService,
			Stage:  "inference",
			Status: res.StatusCode,
			Err:    fmt.Errorf("inference responded with status %d", res.StatusCode),
		}
	}

	var classifications []models.Classification
	if err := json.NewDecoder(res.Body).Decode(&classifications); err != nil {
		return nil, &ingestion.StageError{Kind: ingestion.ErrorKindUnexpected, Stage: "inference", Err: err}
	}

	slog.Info("[InferenceClient] Classification successful",
		slog.Int("texts", len(texts)),
		slog.Int("results", len(classifications)),
		slog.Duration("elapsed", time.Since(start)))
	return classifications, nil
}

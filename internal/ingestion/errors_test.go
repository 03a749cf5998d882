package ingestion

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	serviceErr := &StageError{Kind: ErrorKindService, Stage: "scraper", Status: 502, Err: errors.New("bad gateway")}
	transportErr := &StageError{Kind: ErrorKindTransport, Stage: "inference", Err: errors.New("connection refused")}

	require.Equal(t, ErrorKindService, ClassifyError(serviceErr))
	require.Equal(t, ErrorKindTransport, ClassifyError(transportErr))
	require.Equal(t, ErrorKindUnexpected, ClassifyError(errors.New("boom")))
	require.Equal(t, ErrorKindUnexpected, ClassifyError(nil))

	// Wrapping must not hide the tag.
	wrapped := fmt.Errorf("run failed: %w", serviceErr)
	require.Equal(t, ErrorKindService, ClassifyError(wrapped))
}

func TestRetryExhaustedUnwraps(t *testing.T) {
	cause := &StageError{Kind: ErrorKindService, Stage: "scraper", Status: 500, Err: errors.New("boom")}
	terminal := &RetryExhaustedError{Attempts: 4, Last: cause}

	var stageErr *StageError
	require.True(t, errors.As(terminal, &stageErr))
	require.Equal(t, 500, stageErr.Status)
	require.Contains(t, terminal.Error(), "4 attempts")
}

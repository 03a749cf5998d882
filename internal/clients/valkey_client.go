package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

const (
	VALKEY_RUN_LOCK_KEY = "ingestion:run_lock"

	// The lock expires on its own if a worker dies mid-run.
	RUN_LOCK_TTL = 10 * time.Minute
)

type ValkeyClient struct {
	Client valkey.Client
}

func InitValkey() *ValkeyClient {
	valkeyOnce.Do(func() {
		valkeyAddr := os.Getenv("VALKEY_INIT_ADDRESS")
		valkeyPassword := os.Getenv("VALKEY_PASSWORD")
		useTLS := os.Getenv("VALKEY_TLS") == "true"

		opts := valkey.ClientOption{
			InitAddress: []string{
				valkeyAddr,
			},
			Password:         valkeyPassword,
			ConnWriteTimeout: 5 * time.Second,
			SelectDB:         0,
		}

		if useTLS {
			opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
		}

		client, err := valkey.NewClient(opts)
		if err != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		c := client.Do(ctx, client.B().Ping().Build())
		if c.Error() != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey")

		valkeyInstance = &ValkeyClient{Client: client}
	})
	return valkeyInstance
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.Client.Close()
	}
}

func GetValkeyClient() *ValkeyClient {
	if valkeyInstance == nil {
		panic("[ValkeyClient] Error: Valkey client is not initilialized")
	}
	return valkeyInstance
}

// AcquireRunLock claims the ingestion run lock with SET NX. It returns false
// without error when another run already holds it.
func (vc *ValkeyClient) AcquireRunLock(ctx context.Context, token string) (bool, error) {
	res := vc.DoWithRetry(ctx,
		vc.Client.B().Set().Key(VALKEY_RUN_LOCK_KEY).Value(token).Nx().
			Ex(RUN_LOCK_TTL).Build(), 3)
	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("[ValkeyClient] run lock acquire failed: %w", err)
	}
	slog.Info("[ValkeyClient] Acquired run lock", slog.String("token", token))
	return true, nil
}

// ReleaseRunLock deletes the lock only if this run still owns it, so an
// expired lock taken over by another run is left alone.
func (vc *ValkeyClient) ReleaseRunLock(ctx context.Context, token string) error {
	res := vc.DoWithRetry(ctx, vc.Client.B().Get().Key(VALKEY_RUN_LOCK_KEY).Build(), 3)
	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil
		}
		return fmt.Errorf("[ValkeyClient] run lock read failed: %w", err)
	}

	holder, err := res.ToString()
	if err != nil || holder != token {
		slog.Warn("[ValkeyClient] Run lock not held by this run, skipping release")
		return nil
	}

	del := vc.DoWithRetry(ctx, vc.Client.B().Del().Key(VALKEY_RUN_LOCK_KEY).Build(), 3)
	if err := del.Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] run lock release failed: %w", err)
	}
	slog.Info("[ValkeyClient] Released run lock", slog.String("token", token))
	return nil
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, completed)
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if !isConnectionError(err) {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}

// Package embedding defines the pluggable embedding-provider interface
// and its five concrete HTTP-backed adapters.
package embedding

import (
	"context"
	"math/rand"
	"time"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/rs/zerolog"
)

// Provider is the uniform interface every embedding backend satisfies.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
	Model() string
}

// maxBatch is the default per-call batching ceiling; callers with more
// texts than this are chunked into multiple requests by Embed.
const maxBatch = 100

// retry runs fn up to 3 attempts with exponential backoff starting at 2s,
// capped at 10s, jittered. A ProviderInvalid error is not retried: it is
// permanent.
func retry(ctx context.Context, logger zerolog.Logger, name string, fn func() error) error {
	const attempts = 3
	wait := 2 * time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errs.KindOf(err) == errs.ProviderInvalid {
			return err
		}
		if attempt == attempts {
			break
		}
		jitter := time.Duration(rand.Int63n(int64(wait) / 2))
		sleep := wait + jitter
		logger.Warn().Err(err).Str("provider", name).Int("attempt", attempt).Dur("backoff", sleep).Msg("embedding_provider_retry")
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
		if wait > 10*time.Second {
			wait = 10 * time.Second
		}
	}
	return errs.Wrap(errs.ProviderUnavailable, lastErr, "%s embedding call failed after %d attempts", name, attempts)
}

// validateDimensions rejects a response if any returned vector's length
// disagrees with the provider's reported dimension.
func validateDimensions(vectors [][]float32, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return errs.New(errs.ProviderInvalid, "embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return nil
}

// batches splits texts into groups of at most size, preserving order.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for i := 0; i < len(texts); i += size {
		end := i + size
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[i:end])
	}
	return out
}

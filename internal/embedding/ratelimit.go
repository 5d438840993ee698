package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to an underlying Embedder.
// Building an index embeds every stored ticket, so large departments would
// otherwise burst past provider rate limits.
type RateLimited struct {
	next    Embedder
	limiter *rate.Limiter
}

// Compile-time check that RateLimited implements Embedder
var _ Embedder = (*RateLimited)(nil)

// NewRateLimited wraps next with a token bucket of perSecond requests and burst.
// A non-positive perSecond disables limiting and returns next unchanged.
func NewRateLimited(next Embedder, perSecond float64, burst int) Embedder {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Embed waits for a token, then delegates
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}
	return r.next.Embed(ctx, text)
}

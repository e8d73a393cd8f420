package accessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CartAccessor fetches the user's cart snapshot. A user without a cart gets
// an empty snapshot, not an error.
type CartAccessor interface {
	FetchCart(ctx context.Context, userID int64) (domain.CartSnapshot, error)
}

// CatalogAccessor talks to the catalog collaborator: price/stock quotes and
// the stock reservation primitive.
type CatalogAccessor interface {
	QuoteProducts(ctx context.Context, productIDs []int64) (map[int64]domain.ProductQuote, error)
	Reserve(ctx context.Context, orderRef string, productID int64, quantity int32, ttl time.Duration) (int64, error)
	Release(ctx context.Context, reservationID int64) error
	Commit(ctx context.Context, reservationID int64) error
}

const (
	maxAttempts    = 3
	initialBackoff = 100 * time.Millisecond
)

// errTransient marks failures worth retrying: timeouts, connection errors,
// 5xx responses. Validation-style failures are never wrapped with it.
var errTransient = errors.New("transient upstream error")

func markTransient(err error) error {
	return fmt.Errorf("%w: %w", errTransient, err)
}

// doWithRetry runs fn with a small fixed retry budget and exponential
// backoff, retrying transient failures only. When the budget is exhausted the
// caller sees ErrUpstreamUnavailable without internal addresses leaking.
func doWithRetry(ctx context.Context, logger *zap.Logger, op string, fn func() error) error {
	backoff := initialBackoff

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !errors.Is(err, errTransient) {
			return err
		}

		mylogger.Warn(
			ctx,
			logger,
			"Transient accessor failure",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	mylogger.Error(
		ctx,
		logger,
		"Accessor retry budget exhausted",
		zap.String("op", op),
		zap.Error(err),
	)

	return fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, op)
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return gobreaker.NewCircuitBreaker(settings)
}

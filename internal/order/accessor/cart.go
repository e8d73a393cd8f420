package accessor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/pkg/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type cartAccessor struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewCartAccessor(baseURL string, timeout time.Duration, logger *zap.Logger) CartAccessor {
	return &cartAccessor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		cb:      newBreaker("CartService", logger),
		logger:  logger,
	}
}

func (a *cartAccessor) FetchCart(ctx context.Context, userID int64) (domain.CartSnapshot, error) {
	var snapshot domain.CartSnapshot

	err := doWithRetry(ctx, a.logger, "FetchCart", func() error {
		result, err := utils.ExecuteWithBreaker(a.cb, func() (domain.CartSnapshot, error) {
			return a.fetchOnce(ctx, userID)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return markTransient(err)
			}
			return err
		}

		snapshot = result
		return nil
	})
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	return snapshot, nil
}

func (a *cartAccessor) fetchOnce(ctx context.Context, userID int64) (domain.CartSnapshot, error) {
	url := fmt.Sprintf("%s/internal/carts/%d", a.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.CartSnapshot{}, markTransient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No cart yet means an empty cart, by contract.
		return domain.CartSnapshot{}, nil
	case resp.StatusCode >= 500:
		return domain.CartSnapshot{}, markTransient(fmt.Errorf("cart responded %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return domain.CartSnapshot{}, fmt.Errorf("cart responded %d", resp.StatusCode)
	}

	var body struct {
		Items []domain.CartItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.CartSnapshot{}, markTransient(err)
	}

	return domain.CartSnapshot{Items: body.Items}, nil
}

package accessor

import (
	"bytes"
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

type catalogAccessor struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewCatalogAccessor(baseURL string, timeout time.Duration, logger *zap.Logger) CatalogAccessor {
	return &catalogAccessor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		cb:      newBreaker("CatalogService", logger),
		logger:  logger,
	}
}

func (a *catalogAccessor) QuoteProducts(ctx context.Context, productIDs []int64) (map[int64]domain.ProductQuote, error) {
	var quotes map[int64]domain.ProductQuote

	err := doWithRetry(ctx, a.logger, "QuoteProducts", func() error {
		result, err := utils.ExecuteWithBreaker(a.cb, func() (map[int64]domain.ProductQuote, error) {
			return a.quoteOnce(ctx, productIDs)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return markTransient(err)
			}
			return err
		}

		quotes = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return quotes, nil
}

func (a *catalogAccessor) quoteOnce(ctx context.Context, productIDs []int64) (map[int64]domain.ProductQuote, error) {
	reqBody, err := json.Marshal(map[string]any{"product_ids": productIDs})
	if err != nil {
		return nil, err
	}

	resp, err := a.post(ctx, a.baseURL+"/internal/quotes", reqBody)
	if err != nil {
		return nil, markTransient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, markTransient(fmt.Errorf("catalog responded %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog responded %d", resp.StatusCode)
	}

	var body struct {
		Quotes []domain.ProductQuote `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, markTransient(err)
	}

	quotes := make(map[int64]domain.ProductQuote, len(body.Quotes))
	for _, quote := range body.Quotes {
		quotes[quote.ProductID] = quote
	}

	return quotes, nil
}

func (a *catalogAccessor) Reserve(ctx context.Context, orderRef string, productID int64, quantity int32, ttl time.Duration) (int64, error) {
	var reservationID int64

	err := doWithRetry(ctx, a.logger, "Reserve", func() error {
		reqBody, err := json.Marshal(map[string]any{
			"order_ref":   orderRef,
			"product_id":  productID,
			"quantity":    quantity,
			"ttl_seconds": int64(ttl.Seconds()),
		})
		if err != nil {
			return err
		}

		resp, err := a.post(ctx, a.baseURL+"/internal/reservations", reqBody)
		if err != nil {
			return markTransient(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusConflict:
			return &domain.InsufficientStockError{ProductID: productID}
		case resp.StatusCode == http.StatusNotFound:
			return &domain.ProductUnavailableError{ProductID: productID}
		case resp.StatusCode >= 500:
			return markTransient(fmt.Errorf("catalog responded %d", resp.StatusCode))
		case resp.StatusCode != http.StatusCreated:
			return fmt.Errorf("catalog responded %d", resp.StatusCode)
		}

		var body struct {
			ReservationID int64 `json:"reservation_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return markTransient(err)
		}

		reservationID = body.ReservationID
		return nil
	})
	if err != nil {
		return 0, err
	}

	return reservationID, nil
}

func (a *catalogAccessor) Release(ctx context.Context, reservationID int64) error {
	return a.reservationAction(ctx, reservationID, "release")
}

func (a *catalogAccessor) Commit(ctx context.Context, reservationID int64) error {
	return a.reservationAction(ctx, reservationID, "commit")
}

func (a *catalogAccessor) reservationAction(ctx context.Context, reservationID int64, action string) error {
	return doWithRetry(ctx, a.logger, action, func() error {
		url := fmt.Sprintf("%s/internal/reservations/%d/%s", a.baseURL, reservationID, action)

		resp, err := a.post(ctx, url, nil)
		if err != nil {
			return markTransient(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return markTransient(fmt.Errorf("catalog responded %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("catalog responded %d", resp.StatusCode)
		}

		return nil
	})
}

func (a *catalogAccessor) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return a.client.Do(req)
}

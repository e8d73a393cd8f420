package service

import (
	"context"
	"fmt"

	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.uber.org/zap"
)

type sagaState string

const (
	stateCollecting sagaState = "COLLECTING"
	statePricing    sagaState = "PRICING"
	stateReserving  sagaState = "RESERVING"
	statePersisting sagaState = "PERSISTING"
	stateAborted    sagaState = "ABORTED"
)

// placementSaga is one in-flight order placement. Each incoming request gets
// its own instance; no state is shared between concurrent placements except
// the stock counts guarded by the catalog.
type placementSaga struct {
	svc      *orderService
	req      *domain.OrderRequest
	orderRef string
	state    sagaState

	// reservations acquired so far, released in reverse on abort.
	reservations []domain.Reservation
}

func (s *placementSaga) transition(ctx context.Context, next sagaState) {
	mylogger.Debug(
		ctx,
		s.svc.logger,
		"Placement saga transition",
		zap.String("order_ref", s.orderRef),
		zap.String("from", string(s.state)),
		zap.String("to", string(next)),
	)

	s.state = next
}

func (s *placementSaga) run(ctx context.Context) (*domain.Order, error) {
	s.transition(ctx, stateCollecting)

	cart, err := s.svc.cartAccessor.FetchCart(ctx, s.req.UserID)
	if err != nil {
		return nil, s.abort(ctx, err)
	}

	if cart.Empty() {
		return nil, s.abort(ctx, domain.ErrEmptyCart)
	}

	s.transition(ctx, statePricing)

	order, err := s.price(ctx, cart)
	if err != nil {
		return nil, s.abort(ctx, err)
	}

	s.transition(ctx, stateReserving)

	if err := s.reserve(ctx, order); err != nil {
		return nil, s.abort(ctx, err)
	}

	s.transition(ctx, statePersisting)

	order, err = s.svc.persistOrder(ctx, s.orderRef, order)
	if err != nil {
		return nil, s.abort(ctx, err)
	}

	// The order is durable; turn the holds into permanent deductions. The
	// catalog also converts any hold left behind here when it consumes the
	// OrderCreated event, keyed by the order ref.
	s.commitReservations(ctx, order.ID)

	return order, nil
}

// price builds the order from the cart snapshot and a single batched quote
// call. Line validation is all-or-nothing: any missing product, short stock
// or currency mismatch rejects the whole placement.
func (s *placementSaga) price(ctx context.Context, cart domain.CartSnapshot) (*domain.Order, error) {
	quotes, err := s.svc.catalogAccessor.QuoteProducts(ctx, cart.DistinctProductIDs())
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:          s.req.UserID,
		Status:          domain.OrderStatusPending,
		ShippingAddress: s.req.ShippingAddress,
		IdempotencyKey:  s.req.IdempotencyKey,
	}

	for _, item := range cart.Items {
		quote, ok := quotes[item.ProductID]
		if !ok {
			return nil, &domain.ProductUnavailableError{ProductID: item.ProductID}
		}

		if quote.Stock < int64(item.Quantity) {
			return nil, &domain.InsufficientStockError{ProductID: item.ProductID}
		}

		if order.Currency == "" {
			order.Currency = quote.Price.Currency
		} else if order.Currency != quote.Price.Currency {
			return nil, domain.ErrMixedCurrency
		}

		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: quote.Price,
		})
	}

	order.ComputeTotals(s.svc.taxRatePercent, s.svc.shippingFee)

	return order, nil
}

// reserve acquires a time-bounded hold per line. A failed line releases
// every hold this saga already acquired before the error surfaces.
func (s *placementSaga) reserve(ctx context.Context, order *domain.Order) error {
	for _, line := range order.Lines {
		reservationID, err := s.svc.catalogAccessor.Reserve(
			ctx,
			s.orderRef,
			line.ProductID,
			line.Quantity,
			s.svc.reservationTTL,
		)
		if err != nil {
			return err
		}

		s.reservations = append(s.reservations, domain.Reservation{
			ID:        reservationID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	return nil
}

// abort compensates every acquired reservation and surfaces the original
// error. Compensation runs detached from the request context so a saga
// deadline cannot strand holds until their TTL.
func (s *placementSaga) abort(ctx context.Context, cause error) error {
	s.transition(ctx, stateAborted)

	releaseCtx := context.WithoutCancel(ctx)

	for i := len(s.reservations) - 1; i >= 0; i-- {
		reservation := s.reservations[i]

		if err := s.svc.catalogAccessor.Release(releaseCtx, reservation.ID); err != nil {
			// The hold expires on its own; the reaper returns the stock.
			mylogger.Warn(
				releaseCtx,
				s.svc.logger,
				"Failed to release reservation, relying on expiry",
				zap.Int64("reservation_id", reservation.ID),
				zap.Int64("product_id", reservation.ProductID),
				zap.Error(err),
			)
		}
	}

	return cause
}

func (s *placementSaga) commitReservations(ctx context.Context, orderID int64) {
	commitCtx := context.WithoutCancel(ctx)

	for _, reservation := range s.reservations {
		if err := s.svc.catalogAccessor.Commit(commitCtx, reservation.ID); err != nil {
			mylogger.Error(
				commitCtx,
				s.svc.logger,
				"Failed to commit reservation for persisted order",
				zap.Int64("order_id", orderID),
				zap.Int64("reservation_id", reservation.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *placementSaga) String() string {
	return fmt.Sprintf("placement %s (%s)", s.orderRef, s.state)
}

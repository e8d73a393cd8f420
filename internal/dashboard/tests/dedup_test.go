package tests

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rahul-codes-hash/microservices/pkg/idempotency"
	"go.uber.org/zap"
)

func (s *IntegrationTestSuite) TestApply_SQLFailureIsNotRetried() {
	attempts := 0

	_, err := idempotency.Apply(s.Ctx, s.DbPool, zap.NewNop(), "order_events", 8001, func(tx pgx.Tx) error {
		attempts++

		_, execErr := tx.Exec(s.Ctx, `INSERT INTO no_such_table (id) VALUES (1)`)
		return execErr
	})

	// A failed statement aborts the transaction; further attempts cannot
	// succeed, so the action must run exactly once.
	s.Require().Error(err)
	s.Equal(1, attempts)

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 8001`,
	).Scan(&processedCount))
	s.Equal(int64(0), processedCount)
}

func (s *IntegrationTestSuite) TestApply_TransientFailureRetriedInPlace() {
	attempts := 0

	result, err := idempotency.Apply(s.Ctx, s.DbPool, zap.NewNop(), "order_events", 8002, func(tx pgx.Tx) error {
		attempts++
		if attempts < 2 {
			return errors.New("smtp connection reset")
		}

		return nil
	})

	s.Require().NoError(err)
	s.Equal(idempotency.Applied, result)
	s.Equal(2, attempts)
}

func (s *IntegrationTestSuite) TestApply_ExhaustedRetriesLeaveNoMarker() {
	attempts := 0

	_, err := idempotency.Apply(s.Ctx, s.DbPool, zap.NewNop(), "order_events", 8003, func(tx pgx.Tx) error {
		attempts++
		return errors.New("smtp connection reset")
	})

	s.Require().Error(err)
	s.Equal(3, attempts)

	// No marker means broker redelivery replays the event.
	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 8003`,
	).Scan(&processedCount))
	s.Equal(int64(0), processedCount)
}

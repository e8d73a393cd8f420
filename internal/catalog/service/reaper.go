package service

import (
	"context"
	"time"

	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.uber.org/zap"
)

// Reaper releases stock held by reservations whose owner never came back.
// Without it a crashed order placement would strand its holds forever.
type Reaper struct {
	service  CatalogService
	interval time.Duration
	logger   *zap.Logger
}

func NewReaper(service CatalogService, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	mylogger.Info(ctx, r.logger, "Reservation reaper started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, r.logger, "Reservation reaper stopped")
			return
		case <-ticker.C:
			released, err := r.service.ReleaseExpired(ctx)
			if err != nil {
				mylogger.Error(ctx, r.logger, "Reaper pass failed", zap.Error(err))
				continue
			}

			if released > 0 {
				mylogger.Info(ctx, r.logger, "Released expired reservations", zap.Int("count", released))
			}
		}
	}
}

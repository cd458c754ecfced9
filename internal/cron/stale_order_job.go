package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/greentradehq/greentrade-backend/pkg/logger"
)

const (
	defaultPendingTimeout = 30 * time.Minute
	defaultSweepBatch     = 200
)

// staleOrderSweeper is the slice of the order service the job needs.
type staleOrderSweeper interface {
	SweepStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// StaleOrderJobParams configure the stale pending order sweep.
type StaleOrderJobParams struct {
	Logger         *logger.Logger
	Orders         staleOrderSweeper
	PendingTimeout time.Duration
	BatchSize      int
}

// NewStaleOrderJob builds the job that cancels pending orders whose payment
// window has lapsed, handing their reservations back to the ledger.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	timeout := params.PendingTimeout
	if timeout <= 0 {
		timeout = defaultPendingTimeout
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &staleOrderJob{
		logg:    params.Logger,
		orders:  params.Orders,
		timeout: timeout,
		batch:   batch,
	}, nil
}

type staleOrderJob struct {
	logg    *logger.Logger
	orders  staleOrderSweeper
	timeout time.Duration
	batch   int
}

func (j *staleOrderJob) Name() string { return "stale-order-sweep" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cancelled, err := j.orders.SweepStalePending(ctx, j.timeout, j.batch)
	if err != nil {
		return fmt.Errorf("stale order sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending_timeout":  j.timeout.String(),
		"orders_cancelled": cancelled,
	})
	j.logg.Info(logCtx, "stale pending order sweep complete")
	return nil
}

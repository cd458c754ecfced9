package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/internal/inventory"
	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/logger"
	"github.com/greentradehq/greentrade-backend/pkg/outbox"
	"github.com/greentradehq/greentrade-backend/pkg/outbox/payloads"
	"github.com/greentradehq/greentrade-backend/pkg/pagination"
	"github.com/greentradehq/greentrade-backend/pkg/types"
)

// Service drives the order lifecycle: status moves, cancellation, returns,
// payment reconciliation, and the stale pending sweep.
type Service interface {
	GetOrder(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderNumber string, to enums.OrderStatus, actorID uuid.UUID, note string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderNumber string, actorID uuid.UUID, reason string) (*models.Order, error)
	RequestReturn(ctx context.Context, orderNumber string, actorID uuid.UUID, input ReturnInput) (*models.Order, error)
	RecordPayment(ctx context.Context, orderNumber string, input PaymentInput) (*models.Order, error)
	SweepStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// ReturnInput carries a buyer's return request.
type ReturnInput struct {
	Reason         string
	EvidenceImages []string
}

// PaymentInput mirrors what a payment gateway reported.
type PaymentInput struct {
	Method          enums.PaymentMethod
	Status          enums.PaymentStatus
	PaidAmountCents int
	TransactionID   *string
	FailureReason   *string
}

type service struct {
	repo   OrderRepository
	tx     txRunner
	events eventEmitter
	policy Policy
	logg   *logger.Logger
}

// NewService builds the order service backed by the provided stack.
func NewService(repo OrderRepository, tx txRunner, events eventEmitter, policy Policy, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if policy.ReturnWindow <= 0 {
		return nil, fmt.Errorf("return window must be positive")
	}
	return &service{repo: repo, tx: tx, events: events, policy: policy, logg: logg}, nil
}

// GetOrder loads the full aggregate by its public number.
func (s *service) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.repo.FindByOrderNumber(ctx, orderNumber)
}

// ListOrders pages a buyer's orders newest-first.
func (s *service) ListOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if buyerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	return s.repo.ListByBuyer(ctx, buyerID, params)
}

// UpdateStatus applies one lifecycle step. Confirmation and cancellation
// have inventory side effects and must go through RecordPayment and
// CancelOrder instead.
func (s *service) UpdateStatus(ctx context.Context, orderNumber string, to enums.OrderStatus, actorID uuid.UUID, note string) (*models.Order, error) {
	if to == enums.OrderStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "confirmation happens through payment reconciliation")
	}
	if to == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation must go through the cancel operation")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := Transition(order, to, now); err != nil {
			return err
		}

		updates := map[string]any{"status": to}
		switch to {
		case enums.OrderStatusShipped:
			updates["shipped_at"] = now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.OrderStatusCompleted:
			updates["completed_at"] = now
		}
		if err := repo.UpdateWithVersion(ctx, order, updates); err != nil {
			return err
		}
		if err := propagateItemStatuses(ctx, repo, order.ID, to, actorID, note); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, repo, order, to, note, actorID); err != nil {
			return err
		}
		if err := s.emitStatusEvent(ctx, tx, order, now); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logStatus(ctx, updated, "order status updated")
	return updated, nil
}

// propagateItemStatuses mirrors order-level fulfilment milestones onto items
// that have not already moved ahead through a split shipment.
func propagateItemStatuses(ctx context.Context, repo OrderRepository, orderID uuid.UUID, to enums.OrderStatus, actorID uuid.UUID, note string) error {
	switch to {
	case enums.OrderStatusShipped:
		return repo.UpdateItemStatuses(ctx, orderID, enums.OrderItemStatusConfirmed, enums.OrderItemStatusShipped, actorID, note)
	case enums.OrderStatusDelivered:
		return repo.UpdateItemStatuses(ctx, orderID, enums.OrderItemStatusShipped, enums.OrderItemStatusDelivered, actorID, note)
	case enums.OrderStatusReturned:
		return repo.UpdateItemStatuses(ctx, orderID, enums.OrderItemStatusDelivered, enums.OrderItemStatusReturned, actorID, note)
	default:
		return nil
	}
}

// CancelOrder closes the order and hands every still-held reservation back
// to the ledger. Items already deducted by a confirmed payment keep their
// sold units; only pending holds are released.
func (s *service) CancelOrder(ctx context.Context, orderNumber string, actorID uuid.UUID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		if !s.policy.CanCancel(order.Status) {
			return pkgerrors.New(pkgerrors.CodeNotCancellable,
				fmt.Sprintf("order in status %s can no longer be cancelled", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		now := time.Now().UTC()
		for _, item := range order.Items {
			if item.Status != enums.OrderItemStatusPending {
				continue
			}
			if err := inventory.Release(ctx, tx, item.ListingID, item.Qty); err != nil {
				return err
			}
		}
		if err := repo.UpdateItemStatuses(ctx, order.ID, enums.OrderItemStatusPending, enums.OrderItemStatusCancelled, actorID, reason); err != nil {
			return err
		}

		if err := Transition(order, enums.OrderStatusCancelled, now); err != nil {
			return err
		}
		order.Cancellation = &types.Cancellation{
			Reason:      reason,
			CancelledBy: actorID,
			CancelledAt: now,
		}
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
			"cancellation": order.Cancellation,
		}
		if err := repo.UpdateWithVersion(ctx, order, updates); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, repo, order, enums.OrderStatusCancelled, reason, actorID); err != nil {
			return err
		}
		if err := s.emitStatusEvent(ctx, tx, order, now); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logStatus(ctx, updated, "order cancelled")
	return updated, nil
}

// RequestReturn records a buyer's return request inside the configured
// window. The order status does not change; an administrative review moves
// it to returned later.
func (s *service) RequestReturn(ctx context.Context, orderNumber string, actorID uuid.UUID, input ReturnInput) (*models.Order, error) {
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if ok, why := s.policy.CanReturn(order, now); !ok {
			return pkgerrors.New(pkgerrors.CodeReturnWindowExpired, why).
				WithDetails(map[string]any{
					"status":        order.Status,
					"delivered_at":  order.DeliveredAt,
					"return_window": s.policy.ReturnWindow.String(),
				})
		}
		if order.ReturnRequest != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a return request already exists for this order")
		}

		order.ReturnRequest = &types.ReturnRequest{
			Reason:         input.Reason,
			EvidenceImages: input.EvidenceImages,
			RequestedBy:    actorID,
			RequestedAt:    now,
			Status:         enums.ReturnStatusPending.String(),
		}
		updates := map[string]any{"return_request": order.ReturnRequest}
		if err := repo.UpdateWithVersion(ctx, order, updates); err != nil {
			return err
		}
		if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderReturnRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data:          orderEventPayload(order, now),
			Version:       1,
			OccurredAt:    now,
		}); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logStatus(ctx, updated, "return requested")
	return updated, nil
}

// RecordPayment reconciles a gateway outcome against the order. A completed
// payment on a pending order is the only trigger that confirms it: reserved
// units are deducted, items move to confirmed, and the order transitions.
// Amount mismatches confirm anyway but carry a discrepancy flag for finance.
func (s *service) RecordPayment(ctx context.Context, orderNumber string, input PaymentInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", input.Status))
	}
	if input.Method != "" && !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.Method))
	}
	if input.PaidAmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must not be negative")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		if order.Payment == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "order has no payment record")
		}
		if order.Payment.Status == enums.PaymentStatusCompleted {
			// Gateway retries are expected; the first reconciliation wins.
			updated = order
			return nil
		}

		now := time.Now().UTC()
		payment := order.Payment
		payment.Status = input.Status
		payment.PaidAmountCents = input.PaidAmountCents
		payment.TransactionID = input.TransactionID
		payment.FailureReason = input.FailureReason
		if input.Method != "" {
			payment.Method = input.Method
		}

		if input.Status != enums.PaymentStatusCompleted {
			if err := repo.SavePayment(ctx, payment); err != nil {
				return err
			}
			updated = order
			return nil
		}

		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order in status %s is not awaiting payment", order.Status))
		}

		payment.PaidAt = &now
		payment.AmountDiscrepancy = input.PaidAmountCents != order.TotalCents
		if err := repo.SavePayment(ctx, payment); err != nil {
			return err
		}

		for _, item := range order.Items {
			flipped, err := inventory.Deduct(ctx, tx, item.ListingID, item.Qty)
			if err != nil {
				return err
			}
			if flipped {
				if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventListingOutOfStock,
					AggregateType: enums.AggregateListing,
					AggregateID:   item.ListingID,
					Data: payloads.ListingOutOfStockEvent{
						ListingID: item.ListingID,
						SellerID:  item.SellerID,
						Timestamp: now,
					},
					Version:    1,
					OccurredAt: now,
				}); err != nil {
					return err
				}
			}
		}
		if err := repo.UpdateItemStatuses(ctx, order.ID, enums.OrderItemStatusPending, enums.OrderItemStatusConfirmed, uuid.Nil, "payment reconciled"); err != nil {
			return err
		}

		if err := Transition(order, enums.OrderStatusConfirmed, now); err != nil {
			return err
		}
		updates := map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": now,
		}
		if err := repo.UpdateWithVersion(ctx, order, updates); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, repo, order, enums.OrderStatusConfirmed, "payment reconciled", uuid.Nil); err != nil {
			return err
		}
		if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentRecordedEvent{
				OrderNumber:       order.OrderNumber,
				Method:            payment.Method,
				Status:            payment.Status,
				PaidAmountCents:   payment.PaidAmountCents,
				AmountDiscrepancy: payment.AmountDiscrepancy,
				Timestamp:         now,
			},
			Version:    1,
			OccurredAt: now,
		}); err != nil {
			return err
		}
		if err := s.emitStatusEvent(ctx, tx, order, now); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logStatus(ctx, updated, "payment recorded")
	return updated, nil
}

// SweepStalePending cancels pending orders whose payment window has lapsed,
// releasing their reservations. Each order is handled in its own transaction
// and unexpected failures are aggregated, so one bad order never stalls the
// rest of the batch.
func (s *service) SweepStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.repo.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	var errs error
	for _, order := range stale {
		_, err := s.CancelOrder(ctx, order.OrderNumber, uuid.Nil, "payment window expired")
		if err != nil {
			// Raced with a payment or another sweeper; skip and move on.
			if pkgerrors.IsCode(err, pkgerrors.CodeNotCancellable) ||
				pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("cancelling %s: %w", order.OrderNumber, err))
			continue
		}
		cancelled++
	}
	return cancelled, errs
}

func (s *service) appendHistory(ctx context.Context, repo OrderRepository, order *models.Order, status enums.OrderStatus, note string, actorID uuid.UUID) error {
	return repo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
		OrderID: order.ID,
		Status:  status,
		Note:    note,
		ActorID: actorID,
	})
}

func (s *service) emitStatusEvent(ctx context.Context, tx *gorm.DB, order *models.Order, now time.Time) error {
	eventType, ok := eventForStatus(order.Status)
	if !ok {
		return nil
	}
	return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data:          orderEventPayload(order, now),
		Version:       1,
		OccurredAt:    now,
	})
}

func orderEventPayload(order *models.Order, now time.Time) payloads.OrderEvent {
	return payloads.OrderEvent{
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		SellerIDs:   order.SellerIDs(),
		Status:      order.Status,
		Timestamp:   now,
	}
}

func (s *service) logStatus(ctx context.Context, order *models.Order, msg string) {
	if s.logg == nil || order == nil {
		return
	}
	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(logCtx, msg)
}

package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/internal/inventory"
	dbpkg "github.com/greentradehq/greentrade-backend/pkg/db"
	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/outbox"
	"github.com/greentradehq/greentrade-backend/pkg/pagination"
	"github.com/greentradehq/greentrade-backend/pkg/types"
)

type ordersTestEnv struct {
	db      *gorm.DB
	service Service
}

func newOrdersTestEnv(t *testing.T) *ordersTestEnv {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Listing{},
		&models.InventoryRecord{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemStatusEvent{},
		&models.PaymentRecord{},
		&models.OrderStatusEvent{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(
		NewRepository(db),
		dbpkg.FromGorm(db),
		emitter,
		Policy{ReturnWindow: 7 * 24 * time.Hour},
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &ordersTestEnv{db: db, service: svc}
}

type seededOrder struct {
	order     models.Order
	listingID uuid.UUID
	sellerID  uuid.UUID
}

// seedOrder creates a listing with stock, reserves qty for a pending order,
// and persists the aggregate the way checkout would have.
func (e *ordersTestEnv) seedOrder(t *testing.T, available, qty int, status enums.OrderStatus) seededOrder {
	t.Helper()
	ctx := context.Background()
	sellerID := uuid.New()
	listing := models.Listing{
		ID:                uuid.New(),
		SellerID:          sellerID,
		Title:             "Tomatoes",
		Unit:              enums.UnitCrate,
		PricePerUnitCents: 700,
		Currency:          enums.CurrencyUSD,
		Status:            enums.ListingStatusActive,
	}
	if err := e.db.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	if err := e.db.Create(&models.InventoryRecord{ListingID: listing.ID, AvailableQty: available}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		_, terr := inventory.Reserve(ctx, tx, []inventory.ReservationRequest{{ListingID: listing.ID, Qty: qty}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	number, err := GenerateOrderNumber(time.Now())
	if err != nil {
		t.Fatalf("order number: %v", err)
	}
	order := models.Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		BuyerID:       uuid.New(),
		Status:        status,
		Version:       1,
		Currency:      enums.CurrencyUSD,
		SubtotalCents: qty * 700,
		TotalCents:    qty * 700,
		Items: []models.OrderItem{{
			ID:                uuid.New(),
			ListingID:         listing.ID,
			SellerID:          sellerID,
			Title:             listing.Title,
			Unit:              listing.Unit,
			Qty:               qty,
			PricePerUnitCents: 700,
			TotalCents:        qty * 700,
			Status:            enums.OrderItemStatusPending,
		}},
		Payment: &models.PaymentRecord{
			ID:     uuid.New(),
			Method: enums.PaymentMethodMobileMoney,
			Status: enums.PaymentStatusPending,
		},
	}
	if err := e.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return seededOrder{order: order, listingID: listing.ID, sellerID: sellerID}
}

func (e *ordersTestEnv) inventoryFor(t *testing.T, listingID uuid.UUID) models.InventoryRecord {
	t.Helper()
	var record models.InventoryRecord
	if err := e.db.First(&record, "listing_id = ?", listingID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return record
}

func (e *ordersTestEnv) outboxCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	return count
}

func TestRecordPaymentConfirmsOrderAndDeductsStock(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 4, enums.OrderStatusPending)

	order, err := env.service.RecordPayment(ctx, seeded.order.OrderNumber, PaymentInput{
		Method:          enums.PaymentMethodMobileMoney,
		Status:          enums.PaymentStatusCompleted,
		PaidAmountCents: seeded.order.TotalCents,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed || order.ConfirmedAt == nil {
		t.Fatalf("expected confirmed order, got %s", order.Status)
	}

	record := env.inventoryFor(t, seeded.listingID)
	if record.AvailableQty != 6 || record.ReservedQty != 0 || record.SoldQty != 4 {
		t.Fatalf("unexpected counters after deduct: %+v", record)
	}

	reloaded, err := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Payment.Status != enums.PaymentStatusCompleted || reloaded.Payment.AmountDiscrepancy {
		t.Fatalf("unexpected payment state: %+v", reloaded.Payment)
	}
	for _, item := range reloaded.Items {
		if item.Status != enums.OrderItemStatusConfirmed {
			t.Fatalf("expected confirmed item, got %s", item.Status)
		}
	}
	if env.outboxCount(t, enums.EventOrderConfirmed) != 1 {
		t.Fatal("expected order_confirmed event")
	}
	if env.outboxCount(t, enums.EventPaymentRecorded) != 1 {
		t.Fatal("expected payment_recorded event")
	}
}

func TestRecordPaymentFlagsAmountDiscrepancy(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 2, enums.OrderStatusPending)

	order, err := env.service.RecordPayment(ctx, seeded.order.OrderNumber, PaymentInput{
		Status:          enums.PaymentStatusCompleted,
		PaidAmountCents: seeded.order.TotalCents - 100,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmation despite discrepancy, got %s", order.Status)
	}
	reloaded, _ := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if !reloaded.Payment.AmountDiscrepancy {
		t.Fatal("expected discrepancy flag")
	}
}

func TestRecordPaymentFailureKeepsOrderPending(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 2, enums.OrderStatusPending)

	reason := "card declined"
	order, err := env.service.RecordPayment(ctx, seeded.order.OrderNumber, PaymentInput{
		Status:        enums.PaymentStatusFailed,
		FailureReason: &reason,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}

	record := env.inventoryFor(t, seeded.listingID)
	if record.ReservedQty != 2 || record.SoldQty != 0 {
		t.Fatalf("failed payment must not touch stock: %+v", record)
	}
}

func TestRecordPaymentIsIdempotentOnceCompleted(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 3, enums.OrderStatusPending)

	input := PaymentInput{Status: enums.PaymentStatusCompleted, PaidAmountCents: seeded.order.TotalCents}
	if _, err := env.service.RecordPayment(ctx, seeded.order.OrderNumber, input); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if _, err := env.service.RecordPayment(ctx, seeded.order.OrderNumber, input); err != nil {
		t.Fatalf("gateway retry: %v", err)
	}

	record := env.inventoryFor(t, seeded.listingID)
	if record.SoldQty != 3 {
		t.Fatalf("retry must not deduct twice: %+v", record)
	}
}

func TestCancelPendingOrderReleasesReservations(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 4, enums.OrderStatusPending)
	actor := uuid.New()

	order, err := env.service.CancelOrder(ctx, seeded.order.OrderNumber, actor, "changed my mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled || order.CancelledAt == nil {
		t.Fatalf("expected cancelled order, got %s", order.Status)
	}

	record := env.inventoryFor(t, seeded.listingID)
	if record.ReservedQty != 0 || record.AvailableQty != 10 || record.SoldQty != 0 {
		t.Fatalf("expected reservations released, got %+v", record)
	}

	reloaded, _ := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if reloaded.Cancellation == nil || reloaded.Cancellation.CancelledBy != actor {
		t.Fatalf("expected cancellation subrecord, got %+v", reloaded.Cancellation)
	}
	for _, item := range reloaded.Items {
		if item.Status != enums.OrderItemStatusCancelled {
			t.Fatalf("expected cancelled item, got %s", item.Status)
		}
	}
	if env.outboxCount(t, enums.EventOrderCancelled) != 1 {
		t.Fatal("expected order_cancelled event")
	}
}

func TestCancelAfterShipmentRejected(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusShipped)

	_, err := env.service.CancelOrder(ctx, seeded.order.OrderNumber, uuid.New(), "too late")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotCancellable) {
		t.Fatalf("expected not cancellable, got %v", err)
	}
}

func TestCancelInProcessingReleasesHeldStock(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 8, 3, enums.OrderStatusProcessing)

	if _, err := env.service.CancelOrder(ctx, seeded.order.OrderNumber, uuid.New(), "seller unavailable"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	record := env.inventoryFor(t, seeded.listingID)
	if record.ReservedQty != 0 || record.AvailableQty != 8 {
		t.Fatalf("expected held stock returned, got %+v", record)
	}
}

func TestUpdateStatusWalksLifecycle(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusConfirmed)
	actor := uuid.New()

	for _, step := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCompleted,
	} {
		if _, err := env.service.UpdateStatus(ctx, seeded.order.OrderNumber, step, actor, ""); err != nil {
			t.Fatalf("step to %s: %v", step, err)
		}
	}

	order, err := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected final status %s", order.Status)
	}
	if order.ShippedAt == nil || order.DeliveredAt == nil || order.CompletedAt == nil {
		t.Fatal("expected milestone timestamps stamped")
	}
	if len(order.StatusHistory) != 5 {
		t.Fatalf("expected 5 history rows, got %d", len(order.StatusHistory))
	}
	if env.outboxCount(t, enums.EventOrderDelivered) != 1 {
		t.Fatal("expected order_delivered event")
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusPending)

	_, err := env.service.UpdateStatus(ctx, seeded.order.OrderNumber, enums.OrderStatusDelivered, uuid.New(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestUpdateStatusRefusesCancelledTarget(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusPending)

	_, err := env.service.UpdateStatus(ctx, seeded.order.OrderNumber, enums.OrderStatusCancelled, uuid.New(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusCannotConfirmWithoutPayment(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 4, enums.OrderStatusPending)

	_, err := env.service.UpdateStatus(ctx, seeded.order.OrderNumber, enums.OrderStatusConfirmed, uuid.New(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The order must stay pending with its holds intact and the payment
	// unreconciled, so the stale sweep can still pick it up.
	reloaded, _ := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if reloaded.Status != enums.OrderStatusPending || reloaded.ConfirmedAt != nil {
		t.Fatalf("expected untouched pending order, got %s", reloaded.Status)
	}
	if reloaded.Payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", reloaded.Payment.Status)
	}
	record := env.inventoryFor(t, seeded.listingID)
	if record.AvailableQty != 10 || record.ReservedQty != 4 || record.SoldQty != 0 {
		t.Fatalf("expected holds untouched, got %+v", record)
	}
}

func TestUpdateStatusPropagatesFulfilmentToItems(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 2, enums.OrderStatusConfirmed)
	if err := env.db.Model(&models.OrderItem{}).
		Where("order_id = ?", seeded.order.ID).
		Update("status", enums.OrderItemStatusConfirmed).Error; err != nil {
		t.Fatalf("confirm items: %v", err)
	}
	actor := uuid.New()

	for _, step := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		if _, err := env.service.UpdateStatus(ctx, seeded.order.OrderNumber, step, actor, ""); err != nil {
			t.Fatalf("step to %s: %v", step, err)
		}
	}

	order, err := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	for _, item := range order.Items {
		if item.Status != enums.OrderItemStatusDelivered {
			t.Fatalf("expected delivered item, got %s", item.Status)
		}
		if len(item.StatusHistory) != 2 {
			t.Fatalf("expected shipped and delivered history rows, got %d", len(item.StatusHistory))
		}
		if item.StatusHistory[0].Status != enums.OrderItemStatusShipped ||
			item.StatusHistory[1].Status != enums.OrderItemStatusDelivered {
			t.Fatalf("unexpected item history %+v", item.StatusHistory)
		}
	}
}

func TestCancelRecordsItemHistory(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 3, enums.OrderStatusPending)
	actor := uuid.New()

	if _, err := env.service.CancelOrder(ctx, seeded.order.OrderNumber, actor, "changed my mind"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	order, _ := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	for _, item := range order.Items {
		if len(item.StatusHistory) != 1 {
			t.Fatalf("expected one item history row, got %d", len(item.StatusHistory))
		}
		event := item.StatusHistory[0]
		if event.Status != enums.OrderItemStatusCancelled || event.ActorID != actor || event.Note != "changed my mind" {
			t.Fatalf("unexpected item history event %+v", event)
		}
	}
}

func TestUpdateStatusDetectsConcurrentWriter(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusConfirmed)

	repo := NewRepository(env.db)
	order, err := repo.FindByOrderNumber(ctx, seeded.order.OrderNumber)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Another writer bumps the version underneath us.
	if err := env.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("version", order.Version+1).Error; err != nil {
		t.Fatalf("bump version: %v", err)
	}

	err = repo.UpdateWithVersion(ctx, order, map[string]any{"status": enums.OrderStatusProcessing})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}

func TestRequestReturnWithinWindow(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusDelivered)
	deliveredAt := time.Now().UTC().Add(-48 * time.Hour)
	if err := env.db.Model(&models.Order{}).
		Where("id = ?", seeded.order.ID).
		Update("delivered_at", deliveredAt).Error; err != nil {
		t.Fatalf("set delivered_at: %v", err)
	}
	actor := uuid.New()

	order, err := env.service.RequestReturn(ctx, seeded.order.OrderNumber, actor, ReturnInput{
		Reason:         "crate arrived damaged",
		EvidenceImages: []string{"https://cdn.example.com/evidence/1.jpg"},
	})
	if err != nil {
		t.Fatalf("request return: %v", err)
	}
	if order.Status != enums.OrderStatusDelivered {
		t.Fatalf("return request must not change status, got %s", order.Status)
	}

	reloaded, _ := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	rr := reloaded.ReturnRequest
	if rr == nil || rr.RequestedBy != actor || rr.Status != enums.ReturnStatusPending.String() {
		t.Fatalf("unexpected return request %+v", rr)
	}
	if env.outboxCount(t, enums.EventOrderReturnRequested) != 1 {
		t.Fatal("expected order_return_requested event")
	}
}

func TestRequestReturnAfterWindowExpires(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusDelivered)
	deliveredAt := time.Now().UTC().Add(-8 * 24 * time.Hour)
	if err := env.db.Model(&models.Order{}).
		Where("id = ?", seeded.order.ID).
		Update("delivered_at", deliveredAt).Error; err != nil {
		t.Fatalf("set delivered_at: %v", err)
	}

	_, err := env.service.RequestReturn(ctx, seeded.order.OrderNumber, uuid.New(), ReturnInput{Reason: "spoiled"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeReturnWindowExpired) {
		t.Fatalf("expected return window expired, got %v", err)
	}
}

func TestRequestReturnBeforeDelivery(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusShipped)

	_, err := env.service.RequestReturn(ctx, seeded.order.OrderNumber, uuid.New(), ReturnInput{Reason: "never mind"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeReturnWindowExpired) {
		t.Fatalf("expected return rejection, got %v", err)
	}
}

func TestSweepStalePendingCancelsExpiredOrders(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()

	stale1 := env.seedOrder(t, 10, 2, enums.OrderStatusPending)
	stale2 := env.seedOrder(t, 10, 3, enums.OrderStatusPending)
	fresh := env.seedOrder(t, 10, 1, enums.OrderStatusPending)

	old := time.Now().UTC().Add(-2 * time.Hour)
	for _, id := range []uuid.UUID{stale1.order.ID, stale2.order.ID} {
		if err := env.db.Model(&models.Order{}).
			Where("id = ?", id).
			Update("created_at", old).Error; err != nil {
			t.Fatalf("age order: %v", err)
		}
	}

	cancelled, err := env.service.SweepStalePending(ctx, 30*time.Minute, 50)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if cancelled != 2 {
		t.Fatalf("expected 2 cancellations, got %d", cancelled)
	}

	for _, seeded := range []seededOrder{stale1, stale2} {
		order, _ := env.service.GetOrder(ctx, seeded.order.OrderNumber)
		if order.Status != enums.OrderStatusCancelled {
			t.Fatalf("expected cancelled order, got %s", order.Status)
		}
		record := env.inventoryFor(t, seeded.listingID)
		if record.ReservedQty != 0 {
			t.Fatalf("expected released stock, got %+v", record)
		}
	}

	untouched, _ := env.service.GetOrder(ctx, fresh.order.OrderNumber)
	if untouched.Status != enums.OrderStatusPending {
		t.Fatalf("fresh order must stay pending, got %s", untouched.Status)
	}
}

// vanishingOrderRepo reports one extra pending order that no longer exists,
// simulating a row lost between the sweep's listing and its cancellation.
type vanishingOrderRepo struct {
	OrderRepository
	phantom models.Order
}

func (r *vanishingOrderRepo) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	rows, err := r.OrderRepository.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return append([]models.Order{r.phantom}, rows...), nil
}

func TestSweepStalePendingCollectsFailuresAndFinishesBatch(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()

	stale := env.seedOrder(t, 10, 2, enums.OrderStatusPending)
	old := time.Now().UTC().Add(-2 * time.Hour)
	if err := env.db.Model(&models.Order{}).
		Where("id = ?", stale.order.ID).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("age order: %v", err)
	}

	repo := &vanishingOrderRepo{
		OrderRepository: NewRepository(env.db),
		phantom:         models.Order{ID: uuid.New(), OrderNumber: "GT260823FFFFFF", Status: enums.OrderStatusPending},
	}
	svc, err := NewService(repo, dbpkg.FromGorm(env.db),
		outbox.NewService(outbox.NewRepository(env.db), nil),
		Policy{ReturnWindow: 7 * 24 * time.Hour}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cancelled, err := svc.SweepStalePending(ctx, 30*time.Minute, 50)
	if cancelled != 1 {
		t.Fatalf("expected the real order cancelled despite the failure, got %d", cancelled)
	}
	failures := multierr.Errors(err)
	if len(failures) != 1 || !pkgerrors.IsCode(failures[0], pkgerrors.CodeNotFound) {
		t.Fatalf("expected one aggregated not-found failure, got %v", err)
	}
	if !strings.Contains(err.Error(), repo.phantom.OrderNumber) {
		t.Fatalf("aggregated error must name the order, got %v", err)
	}

	order, _ := env.service.GetOrder(ctx, stale.order.OrderNumber)
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", order.Status)
	}
}

func TestListOrdersPagesByCursor(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	buyer := uuid.New()
	for i := 0; i < 3; i++ {
		seeded := env.seedOrder(t, 5, 1, enums.OrderStatusPending)
		if err := env.db.Model(&models.Order{}).
			Where("id = ?", seeded.order.ID).
			Updates(map[string]any{
				"buyer_id":   buyer,
				"created_at": time.Now().UTC().Add(-time.Duration(i) * time.Hour),
			}).Error; err != nil {
			t.Fatalf("rebind order: %v", err)
		}
	}

	first, cursor, err := env.service.ListOrders(ctx, buyer, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 || cursor == "" {
		t.Fatalf("expected full first page with cursor, got %d rows", len(first))
	}

	second, next, err := env.service.ListOrders(ctx, buyer, pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 1 || next != "" {
		t.Fatalf("expected final page of 1, got %d rows cursor %q", len(second), next)
	}
}

func TestCancellationSubrecordSurvivesReload(t *testing.T) {
	t.Parallel()

	env := newOrdersTestEnv(t)
	ctx := context.Background()
	seeded := env.seedOrder(t, 10, 1, enums.OrderStatusPending)
	actor := uuid.New()

	if _, err := env.service.CancelOrder(ctx, seeded.order.OrderNumber, actor, "ordered twice"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	reloaded, err := env.service.GetOrder(ctx, seeded.order.OrderNumber)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := types.Cancellation{Reason: "ordered twice", CancelledBy: actor, CancelledAt: reloaded.Cancellation.CancelledAt}
	if *reloaded.Cancellation != want {
		t.Fatalf("unexpected cancellation %+v", reloaded.Cancellation)
	}
}

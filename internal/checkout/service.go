package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/internal/inventory"
	"github.com/greentradehq/greentrade-backend/internal/orders"
	"github.com/greentradehq/greentrade-backend/pkg/config"
	dbpkg "github.com/greentradehq/greentrade-backend/pkg/db"
	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/logger"
	"github.com/greentradehq/greentrade-backend/pkg/outbox"
	"github.com/greentradehq/greentrade-backend/pkg/outbox/payloads"
	"github.com/greentradehq/greentrade-backend/pkg/types"
)

// ItemInput is one requested listing line.
type ItemInput struct {
	ListingID uuid.UUID
	Qty       int
	Notes     *string
}

// Input is the full checkout request.
type Input struct {
	Items           []ItemInput
	DeliveryMethod  enums.DeliveryMethod
	ShippingAddress *types.Address
	PaymentMethod   enums.PaymentMethod
	ShippingCents   int
}

// Service turns a validated checkout into a pending order: every listing is
// reserved all-or-nothing, prices are frozen, and the aggregate lands in one
// transaction together with its order_created outbox row.
type Service interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, input Input) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	listings  ListingRepository
	orders    orders.OrderRepository
	tx        txRunner
	events    eventEmitter
	cfg       config.OrdersConfig
	logg      *logger.Logger
	newNumber func(time.Time) (string, error)
}

// NewService builds the checkout service backed by the provided stack.
func NewService(listings ListingRepository, orderRepo orders.OrderRepository, tx txRunner, events eventEmitter, cfg config.OrdersConfig, logg *logger.Logger) (Service, error) {
	if listings == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if cfg.NumberAttempts <= 0 {
		cfg.NumberAttempts = 5
	}
	return &service{
		listings:  listings,
		orders:    orderRepo,
		tx:        tx,
		events:    events,
		cfg:       cfg,
		logg:      logg,
		newNumber: orders.GenerateOrderNumber,
	}, nil
}

// CreateOrder reserves stock and persists the pending order. A collision on
// the generated order number aborts the transaction and the whole attempt is
// replayed with a fresh number.
func (s *service) CreateOrder(ctx context.Context, buyerID uuid.UUID, input Input) (*models.Order, error) {
	if err := validateInput(buyerID, input); err != nil {
		return nil, err
	}

	var created *models.Order
	var lastErr error
	for attempt := 0; attempt < s.cfg.NumberAttempts; attempt++ {
		number, err := s.newNumber(time.Now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, terr := s.placeOrder(ctx, tx, buyerID, number, input)
			if terr != nil {
				return terr
			}
			created = order
			return nil
		})
		if err == nil {
			s.logCreated(ctx, created)
			return created, nil
		}
		if !isNumberCollision(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "exhausted order number attempts")
}

// isNumberCollision matches the order number unique index by its Postgres
// constraint name and by its column form, which is what sqlite reports.
func isNumberCollision(err error) bool {
	return dbpkg.IsUniqueViolation(err, "ux_orders_order_number") ||
		dbpkg.IsUniqueViolation(err, "orders.order_number")
}

func (s *service) placeOrder(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, number string, input Input) (*models.Order, error) {
	listingRepo := s.listings.WithTx(tx)
	orderRepo := s.orders.WithTx(tx)

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ListingID)
	}
	listings, err := listingRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading listings")
	}
	byID := make(map[uuid.UUID]*models.Listing, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}

	requests := make([]inventory.ReservationRequest, 0, len(input.Items))
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	currency := enums.Currency("")
	for _, item := range input.Items {
		listing, ok := byID[item.ListingID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found").
				WithDetails(map[string]any{"listing_id": item.ListingID})
		}
		if !sellable(listing) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("listing %s is not available for purchase", listing.ID)).
				WithDetails(map[string]any{"listing_id": listing.ID, "status": listing.Status})
		}
		if currency == "" {
			currency = listing.Currency
		} else if currency != listing.Currency {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "all listings in one order must share a currency")
		}

		requests = append(requests, inventory.ReservationRequest{ListingID: item.ListingID, Qty: item.Qty})
		orderItems = append(orderItems, models.OrderItem{
			ID:                uuid.New(),
			ListingID:         listing.ID,
			SellerID:          listing.SellerID,
			Title:             listing.Title,
			Unit:              listing.Unit,
			Qty:               item.Qty,
			PricePerUnitCents: listing.PricePerUnitCents,
			Status:            enums.OrderItemStatusPending,
			Notes:             item.Notes,
		})
	}

	if _, err := inventory.Reserve(ctx, tx, requests); err != nil {
		return nil, err
	}

	totals, err := orders.ComputeTotals(orderItems, s.cfg.TaxRate, input.ShippingCents)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		BuyerID:         buyerID,
		Status:          enums.OrderStatusPending,
		Version:         1,
		Currency:        currency,
		SubtotalCents:   totals.SubtotalCents,
		DiscountCents:   totals.DiscountCents,
		TaxCents:        totals.TaxCents,
		ShippingCents:   totals.ShippingCents,
		TotalCents:      totals.TotalCents,
		ShippingAddress: input.ShippingAddress,
		DeliveryMethod:  input.DeliveryMethod,
		Items:           orderItems,
		Payment: &models.PaymentRecord{
			ID:     uuid.New(),
			Method: input.PaymentMethod,
			Status: enums.PaymentStatusPending,
		},
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := orderRepo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
		OrderID: order.ID,
		Status:  enums.OrderStatusPending,
		Note:    "order placed",
		ActorID: buyerID,
	}); err != nil {
		return nil, err
	}
	itemEvents := make([]models.OrderItemStatusEvent, 0, len(order.Items))
	for _, item := range order.Items {
		itemEvents = append(itemEvents, models.OrderItemStatusEvent{
			OrderItemID: item.ID,
			Status:      enums.OrderItemStatusPending,
			Note:        "order placed",
			ActorID:     buyerID,
		})
	}
	if err := orderRepo.AppendItemStatusEvents(ctx, itemEvents); err != nil {
		return nil, err
	}
	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: buyerID, Role: "buyer"},
		Data: payloads.OrderEvent{
			OrderNumber: order.OrderNumber,
			BuyerID:     buyerID,
			SellerIDs:   order.SellerIDs(),
			Status:      order.Status,
			Timestamp:   now,
		},
		Version:    1,
		OccurredAt: now,
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func validateInput(buyerID uuid.UUID, input Input) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.DeliveryMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown delivery method %q", input.DeliveryMethod))
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	if input.ShippingCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping must not be negative")
	}
	if input.DeliveryMethod != enums.DeliveryMethodPickup {
		if input.ShippingAddress == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required for delivery orders")
		}
		if err := input.ShippingAddress.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
		}
	}

	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.ListingID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "item quantity must be positive").
				WithDetails(map[string]any{"listing_id": item.ListingID, "qty": item.Qty})
		}
		if _, dup := seen[item.ListingID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate listing in order").
				WithDetails(map[string]any{"listing_id": item.ListingID})
		}
		seen[item.ListingID] = struct{}{}
	}
	return nil
}

// sellable permits active listings plus out-of-stock listings that accept
// backorders.
func sellable(listing *models.Listing) bool {
	switch listing.Status {
	case enums.ListingStatusActive:
		return true
	case enums.ListingStatusOutOfStock:
		return listing.Inventory != nil && listing.Inventory.AllowBackorder
	default:
		return false
	}
}

func (s *service) logCreated(ctx context.Context, order *models.Order) {
	if s.logg == nil || order == nil {
		return
	}
	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	logCtx = s.logg.WithField(logCtx, "total_cents", order.TotalCents)
	s.logg.Info(logCtx, "order created")
}

package orders

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/pagination"
)

// Repository persists order aggregates.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order with its items, payment record, and history rows.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByOrderNumber loads the full aggregate.
func (r *Repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Payment").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_number": orderNumber})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return &order, nil
}

// ListByBuyer pages a buyer's orders newest-first using a keyset cursor.
// The returned cursor is empty when no further page exists.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// UpdateWithVersion applies updates only when the in-memory version still
// matches the row, bumping the version on success. A zero-row update means
// another writer got there first.
func (r *Repository) UpdateWithVersion(ctx context.Context, order *models.Order, updates map[string]any) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["version"] = order.Version + 1

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "updating order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification, "order was modified concurrently").
			WithDetails(map[string]any{
				"order_number": order.OrderNumber,
				"version":      order.Version,
			})
	}
	order.Version++
	return nil
}

// AppendStatusEvent records one entry in the append-only history.
func (r *Repository) AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// UpdateItemStatuses moves every item currently in `from` to `to` and
// records one history row per moved item.
func (r *Repository) UpdateItemStatuses(ctx context.Context, orderID uuid.UUID, from, to enums.OrderItemStatus, actorID uuid.UUID, note string) error {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Pluck("id", &ids).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading items for status move")
	}
	if len(ids) == 0 {
		return nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id IN ?", ids).
		Update("status", to).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating item statuses")
	}

	events := make([]models.OrderItemStatusEvent, 0, len(ids))
	for _, id := range ids {
		events = append(events, models.OrderItemStatusEvent{
			OrderItemID: id,
			Status:      to,
			Note:        note,
			ActorID:     actorID,
		})
	}
	return r.AppendItemStatusEvents(ctx, events)
}

// AppendItemStatusEvents records entries in the per-item history.
func (r *Repository) AppendItemStatusEvents(ctx context.Context, events []models.OrderItemStatusEvent) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if events[i].ID == uuid.Nil {
			events[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

// SavePayment persists the payment record in full.
func (r *Repository) SavePayment(ctx context.Context, payment *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// FindPendingBefore returns pending orders created before the cutoff,
// oldest first, with items preloaded for reservation release.
func (r *Repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stale pending orders")
	}
	return rows, nil
}

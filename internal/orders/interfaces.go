package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	"github.com/greentradehq/greentrade-backend/pkg/outbox"
	"github.com/greentradehq/greentrade-backend/pkg/pagination"
)

// OrderRepository exposes the persistence surface for order aggregates.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	UpdateWithVersion(ctx context.Context, order *models.Order, updates map[string]any) error
	AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error
	UpdateItemStatuses(ctx context.Context, orderID uuid.UUID, from, to enums.OrderItemStatus, actorID uuid.UUID, note string) error
	AppendItemStatusEvents(ctx context.Context, events []models.OrderItemStatusEvent) error
	SavePayment(ctx context.Context, payment *models.PaymentRecord) error
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

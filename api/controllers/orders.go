package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/api/middleware"
	"github.com/greentradehq/greentrade-backend/api/responses"
	"github.com/greentradehq/greentrade-backend/api/validators"
	"github.com/greentradehq/greentrade-backend/internal/orders"
	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/logger"
	"github.com/greentradehq/greentrade-backend/pkg/pagination"
	"github.com/greentradehq/greentrade-backend/pkg/types"
)

const roleAdmin = "admin"

// ListOrders returns the caller's orders newest-first with cursor paging.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, nextCursor, err := svc.ListOrders(r.Context(), actor, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(results))
		for i := range results {
			items = append(items, newOrderResponse(&results[i]))
		}
		responses.WriteSuccess(w, listOrdersResponse{Orders: items, NextCursor: nextCursor})
	}
}

// GetOrder returns one order. Buyers only see their own.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !canViewOrder(r, actor, order) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// UpdateOrderStatus moves an order along the lifecycle state machine.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "orderNumber"), to, actor, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CancelOrder cancels an order and releases any still-held reservations.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), chi.URLParam(r, "orderNumber"), actor, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// RequestReturn opens a return request on a delivered order.
func RequestReturn(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RequestReturn(r.Context(), chi.URLParam(r, "orderNumber"), actor, orders.ReturnInput{
			Reason:         payload.Reason,
			EvidenceImages: payload.EvidenceImages,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// RecordPayment reconciles a gateway-reported payment outcome.
func RecordPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		status, err := enums.ParsePaymentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		order, err := svc.RecordPayment(r.Context(), chi.URLParam(r, "orderNumber"), orders.PaymentInput{
			Method:          method,
			Status:          status,
			PaidAmountCents: payload.PaidAmountCents,
			TransactionID:   payload.TransactionID,
			FailureReason:   payload.FailureReason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type returnRequest struct {
	Reason         string   `json:"reason" validate:"required,max=500"`
	EvidenceImages []string `json:"evidence_images,omitempty" validate:"omitempty,max=10,dive,url"`
}

type paymentRequest struct {
	Method          string  `json:"method" validate:"required"`
	Status          string  `json:"status" validate:"required"`
	PaidAmountCents int     `json:"paid_amount_cents" validate:"gte=0"`
	TransactionID   *string `json:"transaction_id,omitempty"`
	FailureReason   *string `json:"failure_reason,omitempty"`
}

type listOrdersResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type orderResponse struct {
	OrderNumber     string                `json:"order_number"`
	Status          string                `json:"status"`
	Currency        string                `json:"currency"`
	SubtotalCents   int                   `json:"subtotal_cents"`
	DiscountCents   int                   `json:"discount_cents"`
	TaxCents        int                   `json:"tax_cents"`
	ShippingCents   int                   `json:"shipping_cents"`
	TotalCents      int                   `json:"total_cents"`
	DeliveryMethod  string                `json:"delivery_method"`
	ShippingAddress *types.Address        `json:"shipping_address,omitempty"`
	Tracking        *types.TrackingInfo   `json:"tracking,omitempty"`
	Cancellation    *types.Cancellation   `json:"cancellation,omitempty"`
	ReturnRequest   *types.ReturnRequest  `json:"return_request,omitempty"`
	Items           []orderItemResponse   `json:"items"`
	Payment         *paymentResponse      `json:"payment,omitempty"`
	StatusHistory   []statusEventResponse `json:"status_history,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	ConfirmedAt     *time.Time            `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
}

type orderItemResponse struct {
	ListingID         uuid.UUID             `json:"listing_id"`
	SellerID          uuid.UUID             `json:"seller_id"`
	Title             string                `json:"title"`
	Unit              string                `json:"unit"`
	Qty               int                   `json:"qty"`
	PricePerUnitCents int                   `json:"price_per_unit_cents"`
	DiscountCents     int                   `json:"discount_cents"`
	TaxCents          int                   `json:"tax_cents"`
	TotalCents        int                   `json:"total_cents"`
	Status            string                `json:"status"`
	Notes             *string               `json:"notes,omitempty"`
	StatusHistory     []statusEventResponse `json:"status_history,omitempty"`
}

type paymentResponse struct {
	Method            string     `json:"method"`
	Status            string     `json:"status"`
	PaidAmountCents   int        `json:"paid_amount_cents"`
	TransactionID     *string    `json:"transaction_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	AmountDiscrepancy bool       `json:"amount_discrepancy"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
}

type statusEventResponse struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ActorID   uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}

	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		var itemHistory []statusEventResponse
		for _, event := range item.StatusHistory {
			itemHistory = append(itemHistory, statusEventResponse{
				Status:    event.Status.String(),
				Note:      event.Note,
				ActorID:   event.ActorID,
				CreatedAt: event.CreatedAt,
			})
		}
		items = append(items, orderItemResponse{
			ListingID:         item.ListingID,
			SellerID:          item.SellerID,
			Title:             item.Title,
			Unit:              item.Unit.String(),
			Qty:               item.Qty,
			PricePerUnitCents: item.PricePerUnitCents,
			DiscountCents:     item.DiscountCents,
			TaxCents:          item.TaxCents,
			TotalCents:        item.TotalCents,
			Status:            item.Status.String(),
			Notes:             item.Notes,
			StatusHistory:     itemHistory,
		})
	}

	var payment *paymentResponse
	if order.Payment != nil {
		payment = &paymentResponse{
			Method:            order.Payment.Method.String(),
			Status:            order.Payment.Status.String(),
			PaidAmountCents:   order.Payment.PaidAmountCents,
			TransactionID:     order.Payment.TransactionID,
			PaidAt:            order.Payment.PaidAt,
			AmountDiscrepancy: order.Payment.AmountDiscrepancy,
			FailureReason:     order.Payment.FailureReason,
		}
	}

	history := make([]statusEventResponse, 0, len(order.StatusHistory))
	for _, event := range order.StatusHistory {
		history = append(history, statusEventResponse{
			Status:    event.Status.String(),
			Note:      event.Note,
			ActorID:   event.ActorID,
			CreatedAt: event.CreatedAt,
		})
	}

	return orderResponse{
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		Currency:        string(order.Currency),
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		TaxCents:        order.TaxCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
		DeliveryMethod:  order.DeliveryMethod.String(),
		ShippingAddress: order.ShippingAddress,
		Tracking:        order.Tracking,
		Cancellation:    order.Cancellation,
		ReturnRequest:   order.ReturnRequest,
		Items:           items,
		Payment:         payment,
		StatusHistory:   history,
		CreatedAt:       order.CreatedAt,
		ConfirmedAt:     order.ConfirmedAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CompletedAt:     order.CompletedAt,
		CancelledAt:     order.CancelledAt,
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	actor, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject")
	}
	return actor, nil
}

func canViewOrder(r *http.Request, actor uuid.UUID, order *models.Order) bool {
	if order == nil {
		return false
	}
	if middleware.RoleFromContext(r.Context()) == roleAdmin {
		return true
	}
	if order.BuyerID == actor {
		return true
	}
	for _, sellerID := range order.SellerIDs() {
		if sellerID == actor {
			return true
		}
	}
	return false
}

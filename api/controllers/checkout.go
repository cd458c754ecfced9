package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/greentradehq/greentrade-backend/api/responses"
	"github.com/greentradehq/greentrade-backend/api/validators"
	checkoutsvc "github.com/greentradehq/greentrade-backend/internal/checkout"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/logger"
	"github.com/greentradehq/greentrade-backend/pkg/types"
)

// Checkout places a new order for the authenticated buyer. Reservation is
// all-or-nothing; any failed line rejects the whole request.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), buyerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutItemRequest struct {
	ListingID uuid.UUID `json:"listing_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
	Notes     *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryMethod  string                `json:"delivery_method" validate:"required"`
	ShippingAddress *types.Address        `json:"shipping_address,omitempty"`
	PaymentMethod   string                `json:"payment_method" validate:"required"`
	ShippingCents   int                   `json:"shipping_cents" validate:"gte=0"`
}

func (p checkoutRequest) toInput() (checkoutsvc.Input, error) {
	delivery, err := enums.ParseDeliveryMethod(p.DeliveryMethod)
	if err != nil {
		return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method")
	}
	payment, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	items := make([]checkoutsvc.ItemInput, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, checkoutsvc.ItemInput{
			ListingID: item.ListingID,
			Qty:       item.Qty,
			Notes:     item.Notes,
		})
	}

	return checkoutsvc.Input{
		Items:           items,
		DeliveryMethod:  delivery,
		ShippingAddress: p.ShippingAddress,
		PaymentMethod:   payment,
		ShippingCents:   p.ShippingCents,
	}, nil
}

package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
)

// Totals is the money summary persisted on the order row.
type Totals struct {
	SubtotalCents int
	DiscountCents int
	TaxCents      int
	ShippingCents int
	TotalCents    int
}

// ComputeTotals derives line totals and the order summary from frozen item
// snapshots. taxRate is a decimal fraction ("0.15" for 15%); tax applies to
// the discounted subtotal and rounds half-up to whole cents.
func ComputeTotals(items []models.OrderItem, taxRate string, shippingCents int) (Totals, error) {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid tax rate %q", taxRate))
	}
	if rate.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}
	if shippingCents < 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping must not be negative")
	}

	var totals Totals
	for i := range items {
		item := &items[i]
		if item.Qty <= 0 {
			return Totals{}, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "item quantity must be positive")
		}
		if item.PricePerUnitCents < 0 || item.DiscountCents < 0 {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "item amounts must not be negative")
		}

		lineSubtotal := item.Qty * item.PricePerUnitCents
		if item.DiscountCents > lineSubtotal {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "item discount exceeds line subtotal")
		}
		lineTax := rate.Mul(decimal.NewFromInt(int64(lineSubtotal - item.DiscountCents))).
			Round(0).IntPart()
		item.TaxCents = int(lineTax)
		item.TotalCents = lineSubtotal - item.DiscountCents + item.TaxCents

		totals.SubtotalCents += lineSubtotal
		totals.DiscountCents += item.DiscountCents
		totals.TaxCents += item.TaxCents
	}

	totals.ShippingCents = shippingCents
	totals.TotalCents = totals.SubtotalCents - totals.DiscountCents + totals.TaxCents + totals.ShippingCents
	return totals, nil
}

package inventory

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
)

// ReservationRequest asks the ledger to hold qty units of a listing.
type ReservationRequest struct {
	ListingID uuid.UUID
	Qty       int
}

// ReservationResult reports the per-listing outcome of a reserve pass.
type ReservationResult struct {
	ListingID uuid.UUID
	Reserved  bool
	Reason    string
}

// Reserve places holds for every request or fails the whole batch. Each hold
// is a single guarded UPDATE that increments reserved_qty only when enough
// uncommitted stock remains, so two concurrent checkouts can never both win
// the last units. Callers run this inside a transaction; the returned error
// aborts it and releases every hold taken so far.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction handle")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation request is required")
	}

	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		record, err := loadRecord(ctx, tx, req.ListingID)
		if err != nil {
			return nil, err
		}
		if err := validateQty(record, req.Qty); err != nil {
			return nil, err
		}

		res := tx.WithContext(ctx).
			Model(&models.InventoryRecord{}).
			Where("listing_id = ? AND (allow_backorder OR available_qty - reserved_qty >= ?)", req.ListingID, req.Qty).
			Update("reserved_qty", gorm.Expr("reserved_qty + ?", req.Qty))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserving inventory")
		}
		if res.RowsAffected == 0 {
			reason := fmt.Sprintf("requested %d, only %d unreserved", req.Qty, record.AvailableQty-record.ReservedQty)
			results = append(results, ReservationResult{ListingID: req.ListingID, Reason: reason})
			return results, pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient inventory for listing").
				WithDetails(map[string]any{
					"listing_id": req.ListingID,
					"requested":  req.Qty,
					"available":  record.AvailableQty - record.ReservedQty,
				})
		}
		results = append(results, ReservationResult{ListingID: req.ListingID, Reserved: true})
	}
	return results, nil
}

// CanReserve is the read-only preview of Reserve for a single listing. It
// reports whether a hold would currently succeed and, when it would not, why.
// The answer is advisory; only Reserve's guarded UPDATE is authoritative.
func CanReserve(ctx context.Context, db *gorm.DB, listingID uuid.UUID, qty int) (bool, string, error) {
	record, err := loadRecord(ctx, db, listingID)
	if err != nil {
		return false, "", err
	}
	if err := validateQty(record, qty); err != nil {
		typed := pkgerrors.As(err)
		return false, typed.Message(), nil
	}
	if record.AllowBackorder {
		return true, "", nil
	}
	if unreserved := record.AvailableQty - record.ReservedQty; unreserved < qty {
		return false, fmt.Sprintf("requested %d, only %d unreserved", qty, unreserved), nil
	}
	return true, "", nil
}

// Release returns qty held units to the unreserved pool. The operation is
// idempotent: releasing more than is currently held clamps reserved_qty at
// zero instead of erroring, so retried cancellations stay safe.
func Release(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "release quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("listing_id = ? AND reserved_qty >= ?", listingID, qty).
		Update("reserved_qty", gorm.Expr("reserved_qty - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "releasing inventory")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Fewer units held than asked for: clamp instead of going negative.
	res = tx.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("listing_id = ?", listingID).
		Update("reserved_qty", 0)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "clamping reserved inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return nil
}

// Deduct converts qty reserved units into sold units. Available stock may go
// negative only on backorder listings. When the deduction empties a
// non-backorder listing, its status flips to out_of_stock and Deduct reports
// the flip so the caller can emit the matching event.
func Deduct(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "deduct quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("listing_id = ? AND reserved_qty >= ? AND (allow_backorder OR available_qty >= ?)", listingID, qty, qty).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty - ?", qty),
			"reserved_qty":  gorm.Expr("reserved_qty - ?", qty),
			"sold_qty":      gorm.Expr("sold_qty + ?", qty),
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "deducting inventory")
	}
	if res.RowsAffected == 0 {
		record, err := loadRecord(ctx, tx, listingID)
		if err != nil {
			return false, err
		}
		return false, pkgerrors.New(pkgerrors.CodeInsufficientInventory, "deduction exceeds reserved stock").
			WithDetails(map[string]any{
				"listing_id": listingID,
				"requested":  qty,
				"reserved":   record.ReservedQty,
				"available":  record.AvailableQty,
			})
	}

	record, err := loadRecord(ctx, tx, listingID)
	if err != nil {
		return false, err
	}
	if record.AvailableQty > 0 || record.AllowBackorder {
		return false, nil
	}

	flip := tx.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, enums.ListingStatusActive).
		Update("status", enums.ListingStatusOutOfStock)
	if flip.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, flip.Error, "flipping listing out of stock")
	}
	return flip.RowsAffected == 1, nil
}

func loadRecord(ctx context.Context, db *gorm.DB, listingID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := db.WithContext(ctx).First(&record, "listing_id = ?", listingID).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found").
				WithDetails(map[string]any{"listing_id": listingID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory record")
	}
	return &record, nil
}

func validateQty(record *models.InventoryRecord, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive").
			WithDetails(map[string]any{"listing_id": record.ListingID, "qty": qty})
	}
	if record.MinOrderQty != nil && qty < *record.MinOrderQty {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity,
			fmt.Sprintf("quantity %d below listing minimum %d", qty, *record.MinOrderQty)).
			WithDetails(map[string]any{
				"listing_id":    record.ListingID,
				"qty":           qty,
				"min_order_qty": *record.MinOrderQty,
			})
	}
	if record.MaxOrderQty != nil && qty > *record.MaxOrderQty {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity,
			fmt.Sprintf("quantity %d above listing maximum %d", qty, *record.MaxOrderQty)).
			WithDetails(map[string]any{
				"listing_id":    record.ListingID,
				"qty":           qty,
				"max_order_qty": *record.MaxOrderQty,
			})
	}
	return nil
}

package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
	"github.com/greentradehq/greentrade-backend/pkg/enums"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
)

func TestReserveHoldsWithoutTouchingAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 5, false)

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: 5}})
		if terr != nil {
			return terr
		}
		if len(results) != 1 || !results[0].Reserved {
			t.Fatalf("unexpected results: %+v", results)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	record := loadInventory(t, db, listing)
	if record.AvailableQty != 5 || record.ReservedQty != 5 {
		t.Fatalf("unexpected counters: %+v", record)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: 1}})
		return terr
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientInventory) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}
}

func TestReserveAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listingA := seedListing(t, db, 10, false)
	listingB := seedListing(t, db, 1, false)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{
			{ListingID: listingA, Qty: 4},
			{ListingID: listingB, Qty: 2},
		})
		return terr
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientInventory) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}

	// The aborted transaction must leave the first hold undone.
	if record := loadInventory(t, db, listingA); record.ReservedQty != 0 {
		t.Fatalf("expected hold on listing A rolled back, got %+v", record)
	}
	if record := loadInventory(t, db, listingB); record.ReservedQty != 0 {
		t.Fatalf("expected listing B untouched, got %+v", record)
	}
}

func TestReserveNeverOversells(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 10, false)

	reserve := func(qty int) error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: qty}})
			return terr
		})
	}

	if err := reserve(6); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := reserve(6); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientInventory) {
		t.Fatalf("expected second reserve to fail, got %v", err)
	}

	record := loadInventory(t, db, listing)
	if record.ReservedQty != 6 || record.AvailableQty != 10 {
		t.Fatalf("unexpected counters after contention: %+v", record)
	}
}

func TestReserveQuantityBounds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 50, false)
	minQty, maxQty := 2, 10
	if err := db.Model(&models.InventoryRecord{}).
		Where("listing_id = ?", listing).
		Updates(map[string]any{"min_order_qty": minQty, "max_order_qty": maxQty}).Error; err != nil {
		t.Fatalf("set bounds: %v", err)
	}

	for _, qty := range []int{0, -3, 1, 11} {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: qty}})
			return terr
		})
		if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity) {
			t.Fatalf("qty %d: expected invalid quantity, got %v", qty, err)
		}
		details, ok := pkgerrors.As(err).Details().(map[string]any)
		if !ok {
			t.Fatalf("qty %d: expected structured details, got %#v", qty, pkgerrors.As(err).Details())
		}
		if details["listing_id"] != listing {
			t.Fatalf("qty %d: expected error to name listing %s, got %v", qty, listing, details["listing_id"])
		}
	}
}

func TestReserveBackorderListing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 2, true)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: 8}})
		return terr
	})
	if err != nil {
		t.Fatalf("backorder reserve: %v", err)
	}

	record := loadInventory(t, db, listing)
	if record.ReservedQty != 8 || record.AvailableQty != 2 {
		t.Fatalf("unexpected backorder counters: %+v", record)
	}
}

func TestCanReserve(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 3, false)

	ok, reason, err := CanReserve(ctx, db, listing, 3)
	if err != nil || !ok || reason != "" {
		t.Fatalf("expected reservable: ok=%v reason=%q err=%v", ok, reason, err)
	}

	ok, reason, err = CanReserve(ctx, db, listing, 4)
	if err != nil || ok || reason == "" {
		t.Fatalf("expected not reservable with reason: ok=%v reason=%q err=%v", ok, reason, err)
	}

	_, _, err = CanReserve(ctx, db, uuid.New(), 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 10, false)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: 4}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := Release(ctx, db, listing, 4); err != nil {
			t.Fatalf("release pass %d: %v", i+1, err)
		}
	}

	record := loadInventory(t, db, listing)
	if record.ReservedQty != 0 || record.AvailableQty != 10 {
		t.Fatalf("unexpected counters after double release: %+v", record)
	}

	if err := Release(ctx, db, uuid.New(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeductFlipsListingOutOfStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 3, false)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Reserve(ctx, tx, []ReservationRequest{{ListingID: listing, Qty: 3}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var flipped bool
	err = db.Transaction(func(tx *gorm.DB) error {
		var terr error
		flipped, terr = Deduct(ctx, tx, listing, 3)
		return terr
	})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if !flipped {
		t.Fatal("expected out-of-stock flip")
	}

	record := loadInventory(t, db, listing)
	if record.AvailableQty != 0 || record.ReservedQty != 0 || record.SoldQty != 3 {
		t.Fatalf("unexpected counters after deduct: %+v", record)
	}

	var row models.Listing
	if err := db.First(&row, "id = ?", listing).Error; err != nil {
		t.Fatalf("load listing: %v", err)
	}
	if row.Status != enums.ListingStatusOutOfStock {
		t.Fatalf("expected out_of_stock listing, got %s", row.Status)
	}
}

func TestDeductRequiresReservation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	listing := seedListing(t, db, 5, false)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := Deduct(ctx, tx, listing, 2)
		return terr
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientInventory) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Listing{}, &models.InventoryRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedListing(t *testing.T, db *gorm.DB, available int, backorder bool) uuid.UUID {
	t.Helper()
	listing := models.Listing{
		ID:                uuid.New(),
		SellerID:          uuid.New(),
		Title:             "Fresh Maize",
		Unit:              enums.UnitKilogram,
		PricePerUnitCents: 450,
		Currency:          enums.CurrencyUSD,
		Status:            enums.ListingStatusActive,
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	record := models.InventoryRecord{
		ListingID:      listing.ID,
		AvailableQty:   available,
		AllowBackorder: backorder,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return listing.ID
}

func loadInventory(t *testing.T, db *gorm.DB, listingID uuid.UUID) models.InventoryRecord {
	t.Helper()
	var record models.InventoryRecord
	if err := db.First(&record, "listing_id = ?", listingID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return record
}

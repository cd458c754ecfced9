package enums

import "fmt"

// ListingUnit is the unit of measure a listing sells in.
type ListingUnit string

const (
	UnitKilogram ListingUnit = "kg"
	UnitBag      ListingUnit = "bag"
	UnitCrate    ListingUnit = "crate"
	UnitLitre    ListingUnit = "litre"
	UnitPiece    ListingUnit = "piece"
)

var validListingUnits = []ListingUnit{
	UnitKilogram,
	UnitBag,
	UnitCrate,
	UnitLitre,
	UnitPiece,
}

// String implements fmt.Stringer.
func (u ListingUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known ListingUnit.
func (u ListingUnit) IsValid() bool {
	for _, candidate := range validListingUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseListingUnit converts raw input into a ListingUnit.
func ParseListingUnit(value string) (ListingUnit, error) {
	for _, candidate := range validListingUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing unit %q", value)
}

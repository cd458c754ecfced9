package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greentradehq/greentrade-backend/pkg/db/models"
)

// ListingRepository loads the sellable listings referenced by a checkout.
type ListingRepository interface {
	WithTx(tx *gorm.DB) ListingRepository
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error)
}

// Repository is the GORM-backed listing loader.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listing repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ListingRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByIDs loads listings with their inventory records preloaded.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("id IN ?", ids).
		Find(&rows).Error
	return rows, err
}

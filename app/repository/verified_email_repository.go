package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/VerifyBot/app/models"
)

// verifiedEmailRepository implements the VerifiedEmailRepository interface
type verifiedEmailRepository struct {
	db *gorm.DB
}

// NewVerifiedEmailRepository creates a new verified email repository instance
func NewVerifiedEmailRepository(db *gorm.DB) VerifiedEmailRepository {
	return &verifiedEmailRepository{db: db}
}

// Exists reports whether the email is already recorded
func (r *verifiedEmailRepository) Exists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.VerifiedEmail{}).
		Where("email = ?", email).
		Count(&n).Error
	return n > 0, err
}

// Create inserts the email; an existing row is left untouched
func (r *verifiedEmailRepository) Create(ctx context.Context, entry *models.VerifiedEmail) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

// List returns all entries in insertion order
func (r *verifiedEmailRepository) List(ctx context.Context) ([]models.VerifiedEmail, error) {
	var entries []models.VerifiedEmail
	err := r.db.WithContext(ctx).Order("id ASC").Find(&entries).Error
	return entries, err
}

// Count returns the number of recorded emails
func (r *verifiedEmailRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.VerifiedEmail{}).Count(&n).Error
	return n, err
}

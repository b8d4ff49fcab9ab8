package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/VerifyBot/app/models"
)

// VerifiedEmailRepository defines the database operations behind the ledger
type VerifiedEmailRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, entry *models.VerifiedEmail) error
	List(ctx context.Context) ([]models.VerifiedEmail, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	VerifiedEmail VerifiedEmailRepository
}

// NewRepositories creates all repositories for the given DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		VerifiedEmail: NewVerifiedEmailRepository(db),
	}
}

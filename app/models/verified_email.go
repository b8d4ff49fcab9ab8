package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// VerifiedEmail is one ledger entry: an email that already completed a
// purchase verification. Emails are stored normalized (trimmed, lower case).
type VerifiedEmail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_verified_emails_email" json:"email" validate:"required,email,max=200"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (VerifiedEmail) TableName() string {
	return "verified_emails"
}

func (v *VerifiedEmail) Validate() error {
	return validator.New().Struct(v)
}

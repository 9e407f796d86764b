package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider identifies how a user authenticates.
type Provider string

const (
	ProviderApp      Provider = "app"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// IsSocial reports whether the provider is an external identity provider.
func (p Provider) IsSocial() bool {
	return p == ProviderGoogle || p == ProviderFacebook
}

// User represents an identity record. Password users carry PasswordHash,
// social users carry SocialToken and SocialExpireAt.
type User struct {
	ID             uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Email          string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   *string    `json:"-" gorm:"size:255"` // Never expose in JSON
	SocialToken    *string    `json:"-" gorm:"type:text"`
	SocialExpireAt *time.Time `json:"-"`
	Provider       Provider   `json:"provider" gorm:"type:varchar(20);not null;index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is an uploaded binary payload. Name is the display name, StorageKey the
// object key in the bucket.
type Image struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name       string     `json:"name" gorm:"size:255;not null"`
	StorageKey string     `json:"-" gorm:"uniqueIndex;size:512;not null"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty" gorm:"type:char(36);index"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;index"`
}

// BeforeCreate assigns a time-ordered id.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		i.ID = id
	}
	return nil
}

// TaggedImage is an image together with the names of its tags.
type TaggedImage struct {
	Image
	Tags []string `json:"tags"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a lower-case label shared by images.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:20;not null"`
}

// Tagged links a tag to an image. CreatedAt copies the image's creation time so
// searches can page over this table alone.
type Tagged struct {
	TagID     uint      `gorm:"primaryKey"`
	ImageID   uuid.UUID `gorm:"type:char(36);primaryKey;index:idx_tagged_page,priority:2,sort:desc"`
	CreatedAt time.Time `gorm:"not null;index:idx_tagged_page,priority:1,sort:desc"`
}

// TableName keeps the association table name short.
func (Tagged) TableName() string {
	return "tagged"
}

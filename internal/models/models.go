package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// RevokedToken marks a bearer token as logged out.
// Only the token fingerprint is stored, never the token itself.
type RevokedToken struct {
	BaseModel
	Fingerprint string    `json:"fingerprint" gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID      string    `json:"user_id" gorm:"index"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"index;not null"` // Row can be purged after this
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RevokedToken{})
}

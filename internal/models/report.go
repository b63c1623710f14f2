package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report is a geotagged sighting. It is created once and never mutated.
type Report struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `json:"-"`
	Longitude float64   `gorm:"not null;index:idx_report_location,priority:2" json:"longitude"`
	Latitude  float64   `gorm:"not null;index:idx_report_location,priority:1" json:"latitude"`
	HasMedia  bool      `gorm:"not null;default:false" json:"has_media"`
	MediaRef  string    `json:"media_ref,omitempty"`
	Note      string    `json:"note"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

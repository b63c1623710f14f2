package models

import (
	"time"

	"gorm.io/gorm"
)

// Achievement is a catalog entry. Name is the stable lookup key.
type Achievement struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Points      int    `gorm:"not null;default:0" json:"points"`
	Icon        string `json:"icon"`
}

// Award proves that an achievement was granted to a user. The composite
// unique index makes a second grant of the same pair a no-op insert.
type Award struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_award_user_achievement" json:"user_id"`
	User          User        `json:"-"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_award_user_achievement" json:"achievement_id"`
	Achievement   Achievement `json:"achievement"`
	EarnedAt      time.Time   `gorm:"not null" json:"earned_at"`
}

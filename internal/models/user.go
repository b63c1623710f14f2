package models

import (
	"gorm.io/gorm"
)

// User is the progression record of a reporter. Points, Rank and
// ReportsCount are written only by the engine; Rank is always RankFor(Points).
type User struct {
	gorm.Model
	Subject      string `gorm:"uniqueIndex;not null" json:"-"`
	Username     string `json:"username"`
	Points       int    `gorm:"not null;default:0" json:"points"`
	Rank         Rank   `gorm:"size:16;not null;default:NOVICE" json:"rank"`
	ReportsCount int    `gorm:"not null;default:0" json:"reports_count"`
}

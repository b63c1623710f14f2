package store

import (
	"context"
	"errors"

	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Users is the read side of the progression ledger plus provisioning of
// empty records. Point and rank writes belong to the engine.
type Users struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsers(db *gorm.DB, baseLog *logger.Logger) *Users {
	return &Users{db: db, log: logger.OrNop(baseLog).With("store", "Users")}
}

func (s *Users) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("users.Get", "user %d not found", userID)
	}
	if err != nil {
		return nil, apperr.Store("users.Get", err)
	}
	return &user, nil
}

// EnsureUser returns the record for an external identity subject, creating
// a zeroed NOVICE record the first time the subject is seen. The username is
// refreshed when it changed.
func (s *Users) EnsureUser(ctx context.Context, subject, username string) (*models.User, error) {
	if subject == "" {
		return nil, apperr.Validation("users.EnsureUser", "subject must not be empty")
	}

	db := s.db.WithContext(ctx)
	user := models.User{Subject: subject, Username: username, Rank: models.RankNovice}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return nil, apperr.Store("users.EnsureUser", err)
	}

	if err := db.Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, apperr.Store("users.EnsureUser", err)
	}

	if username != "" && user.Username != username {
		if err := db.Model(&user).Update("username", username).Error; err != nil {
			s.log.Warn("failed to refresh username", "user_id", user.ID, "error", err)
		} else {
			user.Username = username
		}
	}
	return &user, nil
}

// Top returns up to limit users by points descending, ties by id.
func (s *Users) Top(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("points DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Store("users.Top", err)
	}
	return users, nil
}

// Awards lists the user's award records with their achievements.
func (s *Users) Awards(ctx context.Context, userID uint) ([]models.Award, error) {
	var awards []models.Award
	err := s.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&awards).Error
	if err != nil {
		return nil, apperr.Store("users.Awards", err)
	}
	return awards, nil
}

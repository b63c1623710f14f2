package engine

import (
	"errors"
	"time"

	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledger is the only code that writes points, rank, reports count and award
// records. Every method runs inside the caller's transaction.
type ledger struct{}

func (ledger) load(tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := tx.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, apperr.Validation("engine.RecordReport", "user %d does not exist", userID)
	}
	if err != nil {
		return user, apperr.Store("ledger.load", err)
	}
	return user, nil
}

// recordReport counts one accepted report and adds its base reward. The
// increments happen in SQL so a concurrent writer cannot lose an update.
func (l ledger) recordReport(tx *gorm.DB, userID uint, basePoints int) (models.User, error) {
	err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reports_count": gorm.Expr("reports_count + ?", 1),
			"points":        gorm.Expr("points + ?", basePoints),
		}).Error
	if err != nil {
		return models.User{}, apperr.Store("ledger.recordReport", err)
	}
	return l.load(tx, userID)
}

func (l ledger) addPoints(tx *gorm.DB, userID uint, points int) (models.User, error) {
	err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", points)).Error
	if err != nil {
		return models.User{}, apperr.Store("ledger.addPoints", err)
	}
	return l.load(tx, userID)
}

// recomputeRank derives the rank from the stored points and writes it when
// it changed. It is the only place a rank is ever assigned.
func (ledger) recomputeRank(tx *gorm.DB, user models.User) (models.User, error) {
	rank := models.RankFor(user.Points)
	if rank == user.Rank {
		return user, nil
	}
	err := tx.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("rank", rank).Error
	if err != nil {
		return user, apperr.Store("ledger.recomputeRank", err)
	}
	user.Rank = rank
	return user, nil
}

// grantOnce inserts the award unless the (user, achievement) pair already
// has one. It reports whether this call created the record.
func (ledger) grantOnce(tx *gorm.DB, userID, achievementID uint, at time.Time) (bool, error) {
	award := models.Award{UserID: userID, AchievementID: achievementID, EarnedAt: at.UTC()}
	res := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(&award)
	if res.Error != nil {
		return false, apperr.Store("ledger.grantOnce", res.Error)
	}
	return res.RowsAffected == 1, nil
}

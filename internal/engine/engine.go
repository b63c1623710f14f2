// Package engine turns submitted sighting reports into points, ranks and
// one-time achievement awards.
package engine

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/geo"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"gorm.io/gorm"
)

// BasePoints is credited for every accepted report.
const BasePoints = 10

const maxNoteLength = 1000

// ReportStore is the write path and the window count the rules need.
type ReportStore interface {
	Insert(ctx context.Context, tx *gorm.DB, report *models.Report) (*models.Report, error)
	CountInWindow(ctx context.Context, tx *gorm.DB, userID uint, since time.Time) (int64, error)
}

type Catalog interface {
	LookupByName(name string) (models.Achievement, error)
}

// Leaderboard receives the user's committed state after each submission.
type Leaderboard interface {
	Record(ctx context.Context, user models.User) error
}

type Notifier interface {
	NotifyAchievement(user models.User, achievement models.Achievement) error
	NotifyRankUp(user models.User, from, to models.Rank) error
}

type ReportInput struct {
	Longitude float64
	Latitude  float64
	HasMedia  bool
	MediaRef  string
	Note      string
}

func (in ReportInput) Validate() error {
	if err := (geo.Point{Longitude: in.Longitude, Latitude: in.Latitude}).Validate(); err != nil {
		return apperr.Validation("engine.RecordReport", "%v", err)
	}
	if utf8.RuneCountInString(in.Note) > maxNoteLength {
		return apperr.Validation("engine.RecordReport", "note exceeds %d characters", maxNoteLength)
	}
	return nil
}

type Result struct {
	Report             models.Report
	PointsAwarded      int
	AchievementsEarned []models.Achievement
	Points             int
	Rank               models.Rank
	ReportsCount       int
}

type Engine struct {
	db          *gorm.DB
	reports     ReportStore
	catalog     Catalog
	rules       []Rule
	ledger      ledger
	locks       *userLocks
	leaderboard Leaderboard
	notifier    Notifier
	loc         *time.Location
	timeout     time.Duration
	now         func() time.Time
	log         *logger.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }
func WithRules(rules []Rule) Option { return func(e *Engine) { e.rules = rules } }
func WithLeaderboard(l Leaderboard) Option { return func(e *Engine) { e.leaderboard = l } }
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }
func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

func New(db *gorm.DB, reports ReportStore, catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		db:      db,
		reports: reports,
		catalog: catalog,
		rules:   DefaultRules(),
		locks:   newUserLocks(),
		loc:     time.Local,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrNop(e.log).With("component", "engine")
	return e
}

// RecordReport stores the report and applies its rewards as one
// transaction. Calls for the same user are serialized.
func (e *Engine) RecordReport(ctx context.Context, userID uint, in ReportInput) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// The timeout covers waiting for the user's lock as well as the store.
	txCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	unlock, err := e.locks.lock(txCtx, userID)
	if err != nil {
		return nil, apperr.Store("engine.RecordReport", err)
	}
	defer unlock()

	now := e.now()
	var (
		res        *Result
		rankBefore models.Rank
	)
	err = e.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		user, err := e.ledger.load(tx, userID)
		if err != nil {
			return err
		}
		rankBefore = user.Rank

		stored, err := e.reports.Insert(txCtx, tx, &models.Report{
			UserID:    userID,
			Longitude: in.Longitude,
			Latitude:  in.Latitude,
			HasMedia:  in.HasMedia || in.MediaRef != "",
			MediaRef:  in.MediaRef,
			Note:      in.Note,
			CreatedAt: now.UTC(),
		})
		if err != nil {
			return err
		}

		user, err = e.ledger.recordReport(tx, userID, BasePoints)
		if err != nil {
			return err
		}

		earned, bonus, err := e.evaluate(txCtx, tx, user, *stored, now)
		if err != nil {
			return err
		}
		if bonus > 0 {
			if user, err = e.ledger.addPoints(tx, userID, bonus); err != nil {
				return err
			}
		}

		if user, err = e.ledger.recomputeRank(tx, user); err != nil {
			return err
		}

		res = &Result{
			Report:             *stored,
			PointsAwarded:      BasePoints + bonus,
			AchievementsEarned: earned,
			Points:             user.Points,
			Rank:               user.Rank,
			ReportsCount:       user.ReportsCount,
		}
		return nil
	})
	if err != nil {
		if apperr.IsValidation(err) || apperr.IsStore(err) {
			return nil, err
		}
		return nil, apperr.Store("engine.RecordReport", err)
	}

	e.publish(ctx, userID, res, rankBefore)
	return res, nil
}

// evaluate runs every rule in order and grants the ones that qualify and
// were not granted before. A rule whose achievement is missing from the
// catalog is skipped.
func (e *Engine) evaluate(ctx context.Context, tx *gorm.DB, user models.User, report models.Report, now time.Time) ([]models.Achievement, int, error) {
	ev := Evaluation{
		User:      user,
		Report:    report,
		LocalHour: report.CreatedAt.In(e.loc).Hour(),
		Now:       now,
		CountSince: func(since time.Time) (int64, error) {
			return e.reports.CountInWindow(ctx, tx, user.ID, since)
		},
	}

	earned := []models.Achievement{}
	bonus := 0
	for _, rule := range e.rules {
		ok, err := rule.Qualifies(ctx, ev)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			continue
		}

		achievement, err := e.catalog.LookupByName(rule.Achievement)
		if err != nil {
			cfgErr := apperr.Configuration("engine.evaluate", "rule references unknown achievement %q", rule.Achievement)
			e.log.Warn("skipping achievement rule", "achievement", rule.Achievement, "user_id", user.ID, "error", cfgErr, "cause", err)
			continue
		}

		granted, err := e.ledger.grantOnce(tx, user.ID, achievement.ID, now)
		if err != nil {
			return nil, 0, err
		}
		if granted {
			earned = append(earned, achievement)
			bonus += achievement.Points
		}
	}
	return earned, bonus, nil
}

// publish pushes committed state to the leaderboard and announces awards.
// Failures here never affect the submission.
func (e *Engine) publish(ctx context.Context, userID uint, res *Result, rankBefore models.Rank) {
	if e.leaderboard == nil && e.notifier == nil {
		return
	}

	var user models.User
	if err := e.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		e.log.Warn("failed to reload user after submission", "user_id", userID, "error", err)
		return
	}

	if e.leaderboard != nil {
		if err := e.leaderboard.Record(ctx, user); err != nil {
			e.log.Warn("failed to update leaderboard", "user_id", userID, "error", err)
		}
	}

	if e.notifier == nil {
		return
	}
	for _, a := range res.AchievementsEarned {
		if err := e.notifier.NotifyAchievement(user, a); err != nil {
			e.log.Warn("failed to announce achievement", "user_id", userID, "achievement", a.Name, "error", err)
		}
	}
	if res.Rank != rankBefore {
		if err := e.notifier.NotifyRankUp(user, rankBefore, res.Rank); err != nil {
			e.log.Warn("failed to announce rank change", "user_id", userID, "rank", res.Rank, "error", err)
		}
	}
}

package engine

import (
	"context"
	"time"

	"github.com/ratwatch/sighting-api/internal/catalog"
	"github.com/ratwatch/sighting-api/internal/models"
)

// WeeklyWindow is the trailing window for Weekly Warrior.
const WeeklyWindow = 7 * 24 * time.Hour

// Evaluation is what a rule sees: the user after the base update and the
// report that was just stored.
type Evaluation struct {
	User      models.User
	Report    models.Report
	LocalHour int
	Now       time.Time

	// CountSince counts the user's reports created at or after since,
	// including the current one.
	CountSince func(since time.Time) (int64, error)
}

// Rule awards the named catalog achievement when Qualifies returns true.
type Rule struct {
	Achievement string
	Qualifies   func(ctx context.Context, ev Evaluation) (bool, error)
}

// DefaultRules returns the rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Achievement: catalog.FirstSighting,
			Qualifies: func(_ context.Context, ev Evaluation) (bool, error) {
				return ev.User.ReportsCount == 1, nil
			},
		},
		{
			Achievement: catalog.EarlyBird,
			Qualifies: func(_ context.Context, ev Evaluation) (bool, error) {
				return ev.LocalHour >= 0 && ev.LocalHour < 7, nil
			},
		},
		{
			Achievement: catalog.NightOwl,
			Qualifies: func(_ context.Context, ev Evaluation) (bool, error) {
				return ev.LocalHour >= 22 && ev.LocalHour < 24, nil
			},
		},
		{
			Achievement: catalog.ActiveReporter,
			Qualifies: func(_ context.Context, ev Evaluation) (bool, error) {
				return ev.User.ReportsCount >= 5, nil
			},
		},
		{
			Achievement: catalog.WeeklyWarrior,
			Qualifies: func(_ context.Context, ev Evaluation) (bool, error) {
				n, err := ev.CountSince(ev.Now.Add(-WeeklyWindow))
				if err != nil {
					return false, err
				}
				return n >= 7, nil
			},
		},
	}
}

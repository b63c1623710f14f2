// Package catalog holds the achievement definitions. The catalog is loaded
// once at startup, mirrored into the achievements table so awards can
// reference it, and is read-only afterwards.
package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Names of achievements that have an evaluation rule.
const (
	FirstSighting  = "First Sighting"
	EarlyBird      = "Early Bird"
	NightOwl       = "Night Owl"
	ActiveReporter = "Active Reporter"
	WeeklyWarrior  = "Weekly Warrior"
)

type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Points      int    `yaml:"points"`
	Icon        string `yaml:"icon"`
}

func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: FirstSighting, Description: "Report your first rat sighting", Points: 10, Icon: "🐀"},
		{Name: EarlyBird, Description: "Report a rat before 7 AM", Points: 20, Icon: "🌅"},
		{Name: NightOwl, Description: "Report a rat after 10 PM", Points: 20, Icon: "🦉"},
		{Name: ActiveReporter, Description: "Submit 5 reports", Points: 100, Icon: "📋"},
		{Name: WeeklyWarrior, Description: "Submit 7 reports within a week", Points: 150, Icon: "🗓️"},
		// Listed but not yet awarded by any rule.
		{Name: "Streak Hunter", Description: "Report rats 3 days in a row", Points: 50, Icon: "🔥"},
		{Name: "Area Expert", Description: "Report 5 rats in the same neighborhood", Points: 100, Icon: "🏆"},
		{Name: "Night Watcher", Description: "Report 10 rats after dark", Points: 75, Icon: "🌙"},
	}
}

type seedFile struct {
	Achievements []Definition `yaml:"achievements"`
}

// ReadFile parses a YAML seed of the form:
//
//	achievements:
//	  - name: First Sighting
//	    description: Report your first rat sighting
//	    points: 10
//	    icon: "🐀"
func ReadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read achievements file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, apperr.Configuration("catalog.ReadFile", "invalid achievements file %s: %v", path, err)
	}
	return seed.Achievements, nil
}

func validate(defs []Definition) error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return apperr.Configuration("catalog.Load", "achievement with empty name")
		}
		if seen[d.Name] {
			return apperr.Configuration("catalog.Load", "duplicate achievement name %q", d.Name)
		}
		if d.Points < 0 {
			return apperr.Configuration("catalog.Load", "achievement %q has negative points", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Catalog is an immutable name-keyed view of the seeded achievements.
type Catalog struct {
	byName  map[string]models.Achievement
	ordered []models.Achievement
}

// Load validates defs, creates any missing rows and returns the catalog.
// Existing rows keep their ID; their descriptive fields are refreshed from
// the seed.
func Load(ctx context.Context, db *gorm.DB, defs []Definition, baseLog *logger.Logger) (*Catalog, error) {
	log := logger.OrNop(baseLog).With("component", "catalog")
	if err := validate(defs); err != nil {
		return nil, err
	}

	c := &Catalog{byName: make(map[string]models.Achievement, len(defs))}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range defs {
			var a models.Achievement
			err := tx.Where(models.Achievement{Name: d.Name}).
				Assign(models.Achievement{Description: d.Description, Points: d.Points, Icon: d.Icon}).
				FirstOrCreate(&a).Error
			if err != nil {
				return fmt.Errorf("seed achievement %q: %w", d.Name, err)
			}
			c.byName[a.Name] = a
			c.ordered = append(c.ordered, a)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Store("catalog.Load", err)
	}

	log.Info("achievement catalog loaded", "count", len(c.ordered))
	return c, nil
}

// LookupByName fails with apperr.ErrNotFound for unknown names.
func (c *Catalog) LookupByName(name string) (models.Achievement, error) {
	a, ok := c.byName[name]
	if !ok {
		return models.Achievement{}, apperr.NotFound("catalog.LookupByName", "achievement %q not in catalog", name)
	}
	return a, nil
}

// All returns the entries in seed order. The slice is a copy.
func (c *Catalog) All() []models.Achievement {
	out := make([]models.Achievement, len(c.ordered))
	copy(out, c.ordered)
	return out
}

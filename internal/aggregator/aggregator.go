// Package aggregator answers proximity queries and hot-area statistics over
// stored reports.
package aggregator

import (
	"context"
	"sort"
	"time"

	"github.com/ratwatch/sighting-api/internal/geo"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultRadiusKm   = 5.0
	DefaultResolution = 0.01
	DefaultTopAreas   = 5
)

type ReportStore interface {
	QueryByRadius(ctx context.Context, tx *gorm.DB, origin geo.Point, radiusKm float64) ([]models.Report, error)
	GroupCountByGridCell(ctx context.Context, tx *gorm.DB, resolution float64) ([]geo.CellCount, error)
	CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
}

type Area struct {
	Label string `json:"area" doc:"Snapped grid coordinate as lat,lng"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalReports int64  `json:"total_reports"`
	UserReports  int64  `json:"user_reports"`
	TopAreas     []Area `json:"top_areas"`
}

type Aggregator struct {
	reports    ReportStore
	resolution float64
	topAreas   int
	timeout    time.Duration
	log        *logger.Logger
}

type Option func(*Aggregator)

func WithResolution(deg float64) Option { return func(a *Aggregator) { a.resolution = deg } }
func WithTopAreas(n int) Option { return func(a *Aggregator) { a.topAreas = n } }
func WithTimeout(d time.Duration) Option { return func(a *Aggregator) { a.timeout = d } }
func WithLogger(l *logger.Logger) Option { return func(a *Aggregator) { a.log = l } }

func New(reports ReportStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		reports:    reports,
		resolution: DefaultResolution,
		topAreas:   DefaultTopAreas,
		timeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolution <= 0 {
		a.resolution = DefaultResolution
	}
	if a.topAreas <= 0 {
		a.topAreas = DefaultTopAreas
	}
	a.log = logger.OrNop(a.log).With("component", "aggregator")
	return a
}

// FilterNearby keeps the reports within radiusKm of origin and orders them
// newest first. A non-positive radius means DefaultRadiusKm.
func FilterNearby(origin geo.Point, radiusKm float64, reports []models.Report) []models.Report {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if geo.DistanceKm(origin, geo.Point{Longitude: r.Longitude, Latitude: r.Latitude}) <= radiusKm {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Nearby reads the reports around origin from the store. Store failures are
// returned to the caller.
func (a *Aggregator) Nearby(ctx context.Context, origin geo.Point, radiusKm float64) ([]models.Report, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	candidates, err := a.reports.QueryByRadius(ctx, nil, origin, radiusKm)
	if err != nil {
		return nil, err
	}
	return FilterNearby(origin, radiusKm, candidates), nil
}

// Stats never fails. Any store error yields a zeroed result.
func (a *Aggregator) Stats(ctx context.Context, userID uint) Stats {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		total, mine int64
		cells       []geo.CellCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = a.reports.CountAll(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = a.reports.CountByUser(gctx, nil, userID)
		return err
	})
	g.Go(func() error {
		var err error
		cells, err = a.reports.GroupCountByGridCell(gctx, nil, a.resolution)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Warn("stats unavailable, returning empty result", "user_id", userID, "error", err)
		return Stats{TopAreas: []Area{}}
	}

	return Stats{
		TotalReports: total,
		UserReports:  mine,
		TopAreas:     TopAreas(cells, a.resolution, a.topAreas),
	}
}

// TopAreas returns the n busiest cells by count, ties broken by cell
// identity ascending.
func TopAreas(cells []geo.CellCount, resolution float64, n int) []Area {
	sorted := make([]geo.CellCount, len(cells))
	copy(sorted, cells)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Cell.Less(sorted[j].Cell)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	areas := make([]Area, 0, len(sorted))
	for _, c := range sorted {
		areas = append(areas, Area{Label: c.Cell.Label(resolution), Count: c.Count})
	}
	return areas
}

// Bucket counts reports per grid cell in memory.
func Bucket(reports []models.Report, resolution float64) []geo.CellCount {
	counts := make(map[geo.Cell]int64)
	for _, r := range reports {
		counts[geo.SnapToGrid(geo.Point{Longitude: r.Longitude, Latitude: r.Latitude}, resolution)]++
	}
	out := make([]geo.CellCount, 0, len(counts))
	for cell, n := range counts {
		out = append(out, geo.CellCount{Cell: cell, Count: n})
	}
	return out
}

package store

import (
	"context"
	"time"

	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/geo"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"gorm.io/gorm"
)

// Reports is the Report Store. Every method takes an optional transaction;
// nil means the store's own handle.
type Reports struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReports(db *gorm.DB, baseLog *logger.Logger) *Reports {
	return &Reports{db: db, log: logger.OrNop(baseLog).With("store", "Reports")}
}

func (s *Reports) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx)
}

// Insert persists a new report and returns it with its assigned identity.
// CreatedAt is expected to be set by the caller (server time); when zero the
// database clock is used.
func (s *Reports) Insert(ctx context.Context, tx *gorm.DB, report *models.Report) (*models.Report, error) {
	if err := s.conn(ctx, tx).Omit("User").Create(report).Error; err != nil {
		return nil, apperr.Store("reports.Insert", err)
	}
	return report, nil
}

// CountInWindow counts the user's reports created at or after since.
func (s *Reports) CountInWindow(ctx context.Context, tx *gorm.DB, userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx, tx).
		Model(&models.Report{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Store("reports.CountInWindow", err)
	}
	return count, nil
}

// QueryByRadius returns reports within radiusKm of origin, newest first.
// A bounding box narrows the scan; the haversine check decides membership.
func (s *Reports) QueryByRadius(ctx context.Context, tx *gorm.DB, origin geo.Point, radiusKm float64) ([]models.Report, error) {
	box := geo.BoundingBox(origin, radiusKm)

	q := s.conn(ctx, tx).
		Model(&models.Report{}).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if box.UseLongitude {
		q = q.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	var candidates []models.Report
	if err := q.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return nil, apperr.Store("reports.QueryByRadius", err)
	}

	results := make([]models.Report, 0, len(candidates))
	for _, r := range candidates {
		if geo.DistanceKm(origin, geo.Point{Longitude: r.Longitude, Latitude: r.Latitude}) <= radiusKm {
			results = append(results, r)
		}
	}
	return results, nil
}

type cellRow struct {
	LatIndex int64
	LngIndex int64
	Count    int64
}

// GroupCountByGridCell counts all reports per grid cell of the given
// resolution in degrees. Order is unspecified.
func (s *Reports) GroupCountByGridCell(ctx context.Context, tx *gorm.DB, resolution float64) ([]geo.CellCount, error) {
	var rows []cellRow
	err := s.conn(ctx, tx).Raw(`
		SELECT CAST(ROUND(latitude / ?) AS INTEGER) AS lat_index,
		       CAST(ROUND(longitude / ?) AS INTEGER) AS lng_index,
		       COUNT(*) AS count
		FROM reports
		GROUP BY lat_index, lng_index`, resolution, resolution).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Store("reports.GroupCountByGridCell", err)
	}

	cells := make([]geo.CellCount, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, geo.CellCount{
			Cell:  geo.Cell{LatIndex: r.LatIndex, LngIndex: r.LngIndex},
			Count: r.Count,
		})
	}
	return cells, nil
}

func (s *Reports) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := s.conn(ctx, tx).Model(&models.Report{}).Count(&count).Error; err != nil {
		return 0, apperr.Store("reports.CountAll", err)
	}
	return count, nil
}

func (s *Reports) CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	if err := s.conn(ctx, tx).Model(&models.Report{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperr.Store("reports.CountByUser", err)
	}
	return count, nil
}

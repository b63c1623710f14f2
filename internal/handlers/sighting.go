package handlers

import (
	"context"

	"github.com/ratwatch/sighting-api/internal/aggregator"
	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/engine"
	"github.com/ratwatch/sighting-api/internal/geo"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
)

type SightingHandler struct {
	engine         *engine.Engine
	aggregator     *aggregator.Aggregator
	nearbyRadiusKm float64
	log            *logger.Logger
}

func NewSightingHandler(eng *engine.Engine, agg *aggregator.Aggregator, nearbyRadiusKm float64, baseLog *logger.Logger) *SightingHandler {
	return &SightingHandler{
		engine:         eng,
		aggregator:     agg,
		nearbyRadiusKm: nearbyRadiusKm,
		log:            logger.OrNop(baseLog).With("handler", "sightings"),
	}
}

type SubmitSightingRequest struct {
	Body struct {
		Longitude float64 `json:"longitude" doc:"Longitude in decimal degrees"`
		Latitude  float64 `json:"latitude" doc:"Latitude in decimal degrees"`
		HasMedia  bool    `json:"has_media,omitempty" doc:"Whether a photo was attached"`
		MediaRef  string  `json:"media_ref,omitempty" doc:"Reference to the uploaded media"`
		Note      string  `json:"note,omitempty" doc:"Free text, at most 1000 characters"`
	}
}

type SubmitSightingResponse struct {
	Body struct {
		Report             models.Report        `json:"report"`
		PointsAwarded      int                  `json:"points_awarded"`
		AchievementsEarned []models.Achievement `json:"achievements_earned"`
		Points             int                  `json:"points"`
		Rank               models.Rank          `json:"rank"`
		ReportsCount       int                  `json:"reports_count"`
	}
}

func (h *SightingHandler) HandleSubmit(ctx context.Context, input *SubmitSightingRequest) (*SubmitSightingResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.engine.RecordReport(ctx, userID, engine.ReportInput{
		Longitude: input.Body.Longitude,
		Latitude:  input.Body.Latitude,
		HasMedia:  input.Body.HasMedia,
		MediaRef:  input.Body.MediaRef,
		Note:      input.Body.Note,
	})
	if err != nil {
		h.log.Warn("sighting rejected", "user_id", userID, "error", err)
		return nil, toHTTPError(err)
	}

	res := &SubmitSightingResponse{}
	res.Body.Report = result.Report
	res.Body.PointsAwarded = result.PointsAwarded
	res.Body.AchievementsEarned = result.AchievementsEarned
	res.Body.Points = result.Points
	res.Body.Rank = result.Rank
	res.Body.ReportsCount = result.ReportsCount
	return res, nil
}

type NearbyRequest struct {
	Latitude  float64 `query:"lat" required:"true" doc:"Latitude of the search origin"`
	Longitude float64 `query:"lng" required:"true" doc:"Longitude of the search origin"`
	RadiusKm  float64 `query:"radius_km" doc:"Search radius in kilometres"`
}

type NearbyResponse struct {
	Body struct {
		Count    int             `json:"count"`
		RadiusKm float64         `json:"radius_km"`
		Reports  []models.Report `json:"reports"`
	}
}

func (h *SightingHandler) HandleNearby(ctx context.Context, input *NearbyRequest) (*NearbyResponse, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}

	origin := geo.Point{Longitude: input.Longitude, Latitude: input.Latitude}
	if err := origin.Validate(); err != nil {
		return nil, toHTTPError(apperr.Validation("handlers.Nearby", "%v", err))
	}

	radius := input.RadiusKm
	if radius <= 0 {
		radius = h.nearbyRadiusKm
	}

	reports, err := h.aggregator.Nearby(ctx, origin, radius)
	if err != nil {
		h.log.Error("nearby query failed", "error", err)
		return nil, toHTTPError(err)
	}

	res := &NearbyResponse{}
	res.Body.Count = len(reports)
	res.Body.RadiusKm = radius
	res.Body.Reports = reports
	return res, nil
}

type StatsResponse struct {
	Body aggregator.Stats
}

func (h *SightingHandler) HandleStats(ctx context.Context, _ *struct{}) (*StatsResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{Body: h.aggregator.Stats(ctx, userID)}, nil
}

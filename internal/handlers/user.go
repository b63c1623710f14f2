package handlers

import (
	"context"
	"time"

	"github.com/ratwatch/sighting-api/internal/catalog"
	"github.com/ratwatch/sighting-api/internal/models"
	"github.com/ratwatch/sighting-api/internal/store"
)

type UserHandler struct {
	users   *store.Users
	catalog *catalog.Catalog
}

func NewUserHandler(users *store.Users, cat *catalog.Catalog) *UserHandler {
	return &UserHandler{users: users, catalog: cat}
}

type UserProfile struct {
	ID           uint        `json:"id"`
	Username     string      `json:"username"`
	Points       int         `json:"points"`
	Rank         models.Rank `json:"rank"`
	Title        string      `json:"title"`
	ReportsCount int         `json:"reports_count"`
}

func profileOf(u *models.User) UserProfile {
	return UserProfile{
		ID:           u.ID,
		Username:     u.Username,
		Points:       u.Points,
		Rank:         u.Rank,
		Title:        u.Rank.Title(),
		ReportsCount: u.ReportsCount,
	}
}

type MeResponse struct {
	Body UserProfile
}

func (h *UserHandler) HandleMe(ctx context.Context, _ *struct{}) (*MeResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.users.Get(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &MeResponse{Body: profileOf(user)}, nil
}

type AchievementView struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Points      int        `json:"points"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

type AchievementsResponse struct {
	Body struct {
		User               UserProfile       `json:"user"`
		AchievementsEarned int               `json:"achievements_earned"`
		Achievements       []AchievementView `json:"achievements"`
	}
}

// HandleAchievements lists the whole catalog with the caller's progress.
func (h *UserHandler) HandleAchievements(ctx context.Context, _ *struct{}) (*AchievementsResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.users.Get(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	awards, err := h.users.Awards(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	earned := make(map[uint]time.Time, len(awards))
	for _, a := range awards {
		earned[a.AchievementID] = a.EarnedAt
	}

	res := &AchievementsResponse{}
	res.Body.User = profileOf(user)
	res.Body.AchievementsEarned = len(awards)
	res.Body.Achievements = []AchievementView{}
	for _, a := range h.catalog.All() {
		view := AchievementView{
			Name:        a.Name,
			Description: a.Description,
			Points:      a.Points,
			Icon:        a.Icon,
		}
		if at, ok := earned[a.ID]; ok {
			view.Earned = true
			view.EarnedAt = &at
		}
		res.Body.Achievements = append(res.Body.Achievements, view)
	}
	return res, nil
}

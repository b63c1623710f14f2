package handlers

import (
	"context"

	"github.com/ratwatch/sighting-api/internal/leaderboard"
)

const maxLeaderboardSize = 100

type LeaderboardHandler struct {
	board       leaderboard.Board
	defaultSize int
}

func NewLeaderboardHandler(board leaderboard.Board, defaultSize int) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, defaultSize: defaultSize}
}

type LeaderboardRequest struct {
	Limit int `query:"limit" doc:"Number of entries, at most 100"`
}

type LeaderboardResponse struct {
	Body struct {
		Entries []leaderboard.Entry `json:"entries"`
	}
}

func (h *LeaderboardHandler) HandleLeaderboard(ctx context.Context, input *LeaderboardRequest) (*LeaderboardResponse, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.defaultSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	entries, err := h.board.Top(ctx, limit)
	if err != nil {
		return nil, toHTTPError(err)
	}

	res := &LeaderboardResponse{}
	res.Body.Entries = entries
	if res.Body.Entries == nil {
		res.Body.Entries = []leaderboard.Entry{}
	}
	return res, nil
}

package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ratwatch/sighting-api/internal/apperr"
	"github.com/ratwatch/sighting-api/internal/auth"
)

// toHTTPError maps domain errors onto huma status errors.
func toHTTPError(err error) error {
	switch {
	case apperr.IsValidation(err):
		return huma.Error422UnprocessableEntity(err.Error())
	case apperr.IsNotFound(err):
		return huma.Error404NotFound(err.Error())
	case apperr.IsStore(err):
		return huma.Error503ServiceUnavailable("Storage unavailable, please retry")
	default:
		return huma.Error500InternalServerError("Internal error")
	}
}

func currentUser(ctx context.Context) (uint, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return 0, huma.Error401Unauthorized("Unauthorized")
	}
	return userID, nil
}

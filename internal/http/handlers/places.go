package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/placeshub/internal/domain/action"
	"github.com/geocoder89/placeshub/internal/http/middlewares"
	"github.com/geocoder89/placeshub/internal/places"
	"github.com/gin-gonic/gin"
)

type PlacesSearcher interface {
	Nearby(ctx context.Context, q places.Query) ([]places.Place, error)
}

type PlacesHandler struct {
	places  PlacesSearcher
	audit   AuditRecorder
	timeout time.Duration
}

func NewPlacesHandler(searcher PlacesSearcher, audit AuditRecorder, timeout time.Duration) *PlacesHandler {
	return &PlacesHandler{places: searcher, audit: audit, timeout: timeout}
}

type NearbyQuery struct {
	City        string `form:"city"`
	Coordinates string `form:"coordinates"`
	Radius      int    `form:"radius" binding:"omitempty,min=1,max=50000"`
}

func (h *PlacesHandler) NearbyRestaurants(ctx *gin.Context) {
	var q NearbyQuery

	if !BindQuery(ctx, &q) {
		return
	}

	query := places.Query{City: q.City, Coordinates: q.Coordinates, Radius: q.Radius}

	err := query.Validate()
	if err != nil {
		RespondBadRequestCode(ctx, "invalid_query", "You must provide either city or coordinates, but not both")
		return
	}

	// the upstream call is bounded by the places client's own timeout
	restaurants, err := h.places.Nearby(ctx.Request.Context(), query)
	if err != nil {
		if errors.Is(err, places.ErrUpstream) {
			slog.WarnContext(ctx.Request.Context(), "places upstream failed", "err", err)
			RespondBadGateway(ctx, "Error fetching restaurants")
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "places search failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	_, err = h.audit.RecordByName(cctx, userID, action.APIConsumption, restaurants)
	if err != nil {
		slog.ErrorContext(cctx, "record api consumption failed", "err", err)
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

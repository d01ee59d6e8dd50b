package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/activity"
	"sipReelAPI/middleware"
	"sipReelAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// POST /api/v1/activities - Log a beer or movie
func (h *ActivityHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.AddActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	act, err := h.activityService.AddActivity(ctx, clerkID, &req)
	if err != nil {
		// The activity itself was saved; only the feed/counter half
		// failed. Tell the client so it can retry the publish.
		if errors.Is(err, apperrors.ErrPartialFailure) && act != nil {
			respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
				"activity":       act,
				"publishPending": true,
			})
			return
		}
		respondWithServiceError(w, err)
		return
	}

	middleware.CountActivity(string(act.Type))
	respondWithJSON(w, http.StatusCreated, act)
}

// POST /api/v1/activities/{id}/republish - Retry a failed publish
func (h *ActivityHandler) RepublishActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	activityID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if err := h.activityService.RepublishActivity(ctx, clerkID, activityID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

// GET /api/v1/activities?type=beer&limit=50 - Own activity log
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var typeFilter *activity.ActivityType
	if t := r.URL.Query().Get("type"); t != "" {
		at := activity.ActivityType(t)
		typeFilter = &at
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activityService.ListActivities(ctx, clerkID, typeFilter, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"activities": activities})
}

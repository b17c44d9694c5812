package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-portal/internal/application"
)

type studySpotService interface {
	ListStudySpots(ctx context.Context, principal application.Principal) ([]application.StudySpot, error)
	UpdateOccupancy(ctx context.Context, params application.UpdateOccupancyParams) (application.StudySpot, error)
}

type StudySpotHandler struct {
	service   studySpotService
	responder responder
	logger    *slog.Logger
}

func NewStudySpotHandler(service studySpotService, logger *slog.Logger) *StudySpotHandler {
	base := defaultLogger(logger)
	return &StudySpotHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StudySpotHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StudySpotHandler", operation, attrs...)
}

func (h *StudySpotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")

	spots, err := h.service.ListStudySpots(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "study spot list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]studySpotDTO, 0, len(spots))
	for _, spot := range spots {
		out = append(out, toStudySpotDTO(spot))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listStudySpotsResponse{StudySpots: out})
}

func (h *StudySpotHandler) UpdateOccupancy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spotID, ok := StudySpotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(spotID) == "" {
		h.log(r.Context(), "UpdateOccupancy", "error_kind", "bad_request").ErrorContext(r.Context(), "missing study spot id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStudySpotID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req occupancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateOccupancy", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode occupancy request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if req.CurrentOccupancy == nil {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"current_occupancy": "current_occupancy is required"},
		})
		return
	}

	logger := h.log(r.Context(), "UpdateOccupancy")

	spot, err := h.service.UpdateOccupancy(r.Context(), application.UpdateOccupancyParams{
		Principal: principal,
		SpotID:    spotID,
		Occupancy: *req.CurrentOccupancy,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "occupancy update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("current_occupancy", spot.CurrentOccupancy).InfoContext(r.Context(), "occupancy updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, studySpotResponse{StudySpot: toStudySpotDTO(spot)})
}

type occupancyRequest struct {
	CurrentOccupancy *int `json:"current_occupancy"`
}

type studySpotResponse struct {
	StudySpot studySpotDTO `json:"study_spot"`
}

type listStudySpotsResponse struct {
	StudySpots []studySpotDTO `json:"study_spots"`
}

type studySpotDTO struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Location         string   `json:"location"`
	Capacity         int      `json:"capacity"`
	CurrentOccupancy int      `json:"current_occupancy"`
	OccupancyPercent int      `json:"occupancy_percent"`
	Amenities        []string `json:"amenities"`
	UpdatedAt        string   `json:"updated_at,omitempty"`
}

func toStudySpotDTO(spot application.StudySpot) studySpotDTO {
	amenities := spot.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return studySpotDTO{
		ID:               spot.ID,
		Name:             spot.Name,
		Location:         spot.Location,
		Capacity:         spot.Capacity,
		CurrentOccupancy: spot.CurrentOccupancy,
		OccupancyPercent: spot.OccupancyPercent(),
		Amenities:        amenities,
		UpdatedAt:        formatTimestamp(spot.UpdatedAt),
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"point-service/internal/models"
	"point-service/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type PointHandler struct {
	pointService *services.PointService
	queryService *services.PointQueryService
	logger       zerolog.Logger
	now          func() int64
}

func NewPointHandler(pointService *services.PointService, queryService *services.PointQueryService, logger zerolog.Logger) *PointHandler {
	return &PointHandler{
		pointService: pointService,
		queryService: queryService,
		logger:       logger,
		now:          func() int64 { return time.Now().UnixMilli() },
	}
}

func (h *PointHandler) GetPoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	point, err := h.queryService.GetPoint(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch point")
		h.respondWithError(w, http.StatusInternalServerError, "fetch_failed", "Failed to fetch point")
		return
	}

	h.respondWithJSON(w, http.StatusOK, point)
}

func (h *PointHandler) GetHistories(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	histories, err := h.queryService.GetHistories(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch point histories")
		h.respondWithError(w, http.StatusInternalServerError, "fetch_failed", "Failed to fetch point histories")
		return
	}

	h.respondWithJSON(w, http.StatusOK, histories)
}

func (h *PointHandler) GetPointAt(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	millisStr := r.URL.Query().Get("millis")
	if millisStr == "" {
		h.respondWithError(w, http.StatusBadRequest, "missing_parameter", "millis parameter is required")
		return
	}

	atMillis, err := strconv.ParseInt(millisStr, 10, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_millis", "millis must be epoch milliseconds")
		return
	}

	point, err := h.queryService.GetPointAt(r.Context(), userID, atMillis)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch point at time")
		h.respondWithError(w, http.StatusInternalServerError, "fetch_failed", "Failed to fetch point at time")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]int64{
		"id":     userID,
		"point":  point,
		"millis": atMillis,
	})
}

func (h *PointHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	result, err := h.queryService.Reconcile(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to reconcile point")
		h.respondWithError(w, http.StatusInternalServerError, "reconcile_failed", "Failed to reconcile point")
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.pointService.Charge)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.pointService.Use)
}

type mutation func(ctx context.Context, userID, amount, now int64) (models.Outcome, error)

func (h *PointHandler) mutate(w http.ResponseWriter, r *http.Request, op mutation) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var amount int64
	if err := json.NewDecoder(r.Body).Decode(&amount); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Request body must be an integer amount")
		return
	}

	outcome, err := op(r.Context(), userID, amount, h.now())
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Point update failed")
		h.respondWithError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		return
	}

	switch outcome {
	case models.OutcomeSuccess:
	case models.OutcomeInvalidAmount:
		h.respondWithError(w, http.StatusBadRequest, outcome.String(), "Amount must be greater than zero")
		return
	case models.OutcomeExceed:
		h.respondWithError(w, http.StatusPaymentRequired, outcome.String(), "Maximum point balance exceeded")
		return
	case models.OutcomeInsufficient:
		h.respondWithError(w, http.StatusPaymentRequired, outcome.String(), "Insufficient point balance")
		return
	default:
		h.logger.Error().Str("outcome", outcome.String()).Int64("user_id", userID).Msg("Unexpected point outcome")
		h.respondWithError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		return
	}

	point, err := h.queryService.GetPoint(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch point")
		h.respondWithError(w, http.StatusInternalServerError, "fetch_failed", "Failed to fetch point")
		return
	}

	h.respondWithJSON(w, http.StatusOK, point)
}

func (h *PointHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || userID < 0 {
		h.respondWithError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID")
		return 0, false
	}
	return userID, true
}

func (h *PointHandler) respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func (h *PointHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

package httpd

import (
	"net/http"

	"github.com/inkwell-hq/broker-service/internal/models"
)

func (h *Handler) CreateWriter(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWriterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	writer, err := h.writerService.CreateWriter(ctx, &req)
	if err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, writer)
}

func (h *Handler) GetWriterByID(w http.ResponseWriter, r *http.Request) {
	writerID, ok := getIntURLParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Writer ID is required")
		return
	}

	ctx := r.Context()
	writer, err := h.writerService.GetWriterByID(ctx, writerID)
	if err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, writer)
}

func (h *Handler) GetAllWriters(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	response, err := h.writerService.GetAllWriters(ctx, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get writers")
		writeError(w, http.StatusInternalServerError, "Failed to get writers")
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) UpdateWriter(w http.ResponseWriter, r *http.Request) {
	writerID, ok := getIntURLParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Writer ID is required")
		return
	}

	var req models.CreateWriterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.writerService.UpdateWriter(ctx, writerID, &req); err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Writer updated successfully",
	})
}

func (h *Handler) DeleteWriter(w http.ResponseWriter, r *http.Request) {
	writerID, ok := getIntURLParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Writer ID is required")
		return
	}

	ctx := r.Context()
	if err := h.writerService.DeleteWriter(ctx, writerID); err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Writer deleted successfully",
	})
}

// GetWriterDashboard отдаёт витрину райтера: её может смотреть сам райтер
// или админ.
func (h *Handler) GetWriterDashboard(w http.ResponseWriter, r *http.Request) {
	writerID, ok := getIntURLParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Writer ID is required")
		return
	}

	if !canAccessWriter(ClaimsFromContext(r.Context()), writerID) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	ctx := r.Context()
	dashboard, err := h.dashboardService.BuildWriterDashboard(ctx, writerID)
	if err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, dashboard)
}

func (h *Handler) GetWriterAchievements(w http.ResponseWriter, r *http.Request) {
	writerID, ok := getIntURLParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Writer ID is required")
		return
	}

	if !canAccessWriter(ClaimsFromContext(r.Context()), writerID) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	limit := getIntQueryParam(r, "limit", 10)

	ctx := r.Context()
	achievements, err := h.writerService.GetAchievements(ctx, writerID, limit)
	if err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, achievements)
}

// RecomputeWriterStats — ручная ресинхронизация счётчиков из админки.
func (h *Handler) RecomputeWriterStats(w http.ResponseWriter, r *http.Request) {
	writerID, ok := getIntURLParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Writer ID is required")
		return
	}

	ctx := r.Context()
	if err := h.writerService.RecomputeStats(ctx, writerID); err != nil {
		h.handleWriterError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Writer stats recomputed",
	})
}

func (h *Handler) handleWriterError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch errMsg {
	case "writer not found":
		writeError(w, http.StatusNotFound, errMsg)
	case "writer with this phone already exists", "phone already in use by another writer":
		writeError(w, http.StatusConflict, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Writer service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

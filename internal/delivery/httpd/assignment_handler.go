package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-hq/broker-service/internal/models"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	assignment, err := h.assignmentService.CreateAssignment(ctx, &req)
	if err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) GetAssignmentByID(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	ctx := r.Context()
	assignment, err := h.assignmentService.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) GetAllAssignments(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	response, err := h.assignmentService.GetAllAssignments(ctx, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get assignments")
		writeError(w, http.StatusInternalServerError, "Failed to get assignments")
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	var req models.UpdateAssignmentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.assignmentService.UpdateAssignment(ctx, assignmentID, &req); err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment updated successfully",
	})
}

func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	var req models.UpdateAssignmentStatusRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.assignmentService.UpdateStatus(ctx, assignmentID, req.Status); err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment status updated successfully",
	})
}

func (h *Handler) AssignWriter(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	var req models.AssignWriterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.assignmentService.AssignWriter(ctx, assignmentID, req.WriterID); err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment writer updated successfully",
	})
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	var req models.RecordPaymentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.assignmentService.RecordPayment(ctx, assignmentID, &req); err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Payment recorded successfully",
	})
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	ctx := r.Context()
	if err := h.assignmentService.DeleteAssignment(ctx, assignmentID); err != nil {
		h.handleAssignmentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment deleted successfully",
	})
}

func (h *Handler) handleAssignmentError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch errMsg {
	case "assignment not found", "student not found", "writer not found":
		writeError(w, http.StatusNotFound, errMsg)
	case "payment amount must be positive":
		writeError(w, http.StatusBadRequest, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Assignment service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

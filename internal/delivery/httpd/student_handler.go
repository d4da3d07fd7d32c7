package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-hq/broker-service/internal/models"
)

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	student, err := h.studentService.CreateStudent(ctx, &req)
	if err != nil {
		h.handleStudentError(w, err)
		return
	}

	writeSuccess(w, student)
}

func (h *Handler) GetStudentByID(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	ctx := r.Context()
	student, err := h.studentService.GetStudentByID(ctx, studentID)
	if err != nil {
		h.handleStudentError(w, err)
		return
	}

	writeSuccess(w, student)
}

func (h *Handler) GetAllStudents(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	response, err := h.studentService.GetAllStudents(ctx, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get students")
		writeError(w, http.StatusInternalServerError, "Failed to get students")
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	var req models.CreateStudentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if err := h.studentService.UpdateStudent(ctx, studentID, &req); err != nil {
		h.handleStudentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Student updated successfully",
	})
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	ctx := r.Context()
	if err := h.studentService.DeleteStudent(ctx, studentID); err != nil {
		h.handleStudentError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Student deleted successfully",
	})
}

func (h *Handler) GetAssignmentsByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "Student ID is required")
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	response, err := h.assignmentService.GetAssignmentsByStudent(ctx, studentID, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get assignments by student")
		writeError(w, http.StatusInternalServerError, "Failed to get assignments")
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) handleStudentError(w http.ResponseWriter, err error) {
	errMsg := err.Error()

	switch errMsg {
	case "student not found", "referrer not found":
		writeError(w, http.StatusNotFound, errMsg)
	case "student with this email already exists", "email already in use by another student":
		writeError(w, http.StatusConflict, errMsg)
	default:
		h.logger.Error().Err(err).Msg("Student service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

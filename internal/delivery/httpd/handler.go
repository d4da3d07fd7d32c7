package httpd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/service"
)

type Handler struct {
	studentService    service.StudentService
	writerService     service.WriterService
	assignmentService service.AssignmentService
	dashboardService  service.DashboardService
	validate          *validator.Validate
	jwtSecret         string
	logger            zerolog.Logger
}

func NewHandler(
	studentService service.StudentService,
	writerService service.WriterService,
	assignmentService service.AssignmentService,
	dashboardService service.DashboardService,
	jwtSecret string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		studentService:    studentService,
		writerService:     writerService,
		assignmentService: assignmentService,
		dashboardService:  dashboardService,
		validate:          validator.New(),
		jwtSecret:         jwtSecret,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(h.Authenticate)

		api.Route("/students", func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Post("/", h.CreateStudent)
			r.Get("/", h.GetAllStudents)
			r.Get("/{id}", h.GetStudentByID)
			r.Put("/{id}", h.UpdateStudent)
			r.Delete("/{id}", h.DeleteStudent)
			r.Get("/{id}/assignments", h.GetAssignmentsByStudent)
		})

		api.Route("/writers", func(r chi.Router) {
			// Витрина и достижения доступны самому райтеру, остальное — админке
			r.Get("/{id}/dashboard", h.GetWriterDashboard)
			r.Get("/{id}/achievements", h.GetWriterAchievements)

			r.Group(func(admin chi.Router) {
				admin.Use(h.RequireAdmin)
				admin.Post("/", h.CreateWriter)
				admin.Get("/", h.GetAllWriters)
				admin.Get("/{id}", h.GetWriterByID)
				admin.Put("/{id}", h.UpdateWriter)
				admin.Delete("/{id}", h.DeleteWriter)
				admin.Post("/{id}/stats/recompute", h.RecomputeWriterStats)
			})
		})

		api.Route("/assignments", func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Post("/", h.CreateAssignment)
			r.Get("/", h.GetAllAssignments)
			r.Get("/{id}", h.GetAssignmentByID)
			r.Put("/{id}", h.UpdateAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
			r.Put("/{id}/status", h.UpdateAssignmentStatus)
			r.Put("/{id}/writer", h.AssignWriter)
			r.Post("/{id}/payments", h.RecordPayment)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "broker-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getIntURLParam(r *http.Request, key string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil || value < 1 {
		return 0, false
	}
	return value, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

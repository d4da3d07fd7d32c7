package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
)

type StudentService interface {
	CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error)
	GetStudentByID(ctx context.Context, id string) (*models.StudentWithStats, error)
	GetAllStudents(ctx context.Context, page, limit int) (*models.StudentsResponse, error)
	UpdateStudent(ctx context.Context, id string, req *models.CreateStudentRequest) error
	DeleteStudent(ctx context.Context, id string) error
}

type studentService struct {
	studentRepo    repository.StudentRepository
	assignmentRepo repository.AssignmentRepository
	stats          StatsService
	logger         zerolog.Logger
}

func NewStudentService(
	studentRepo repository.StudentRepository,
	assignmentRepo repository.AssignmentRepository,
	stats StatsService,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		studentRepo:    studentRepo,
		assignmentRepo: assignmentRepo,
		stats:          stats,
		logger:         logger,
	}
}

func (s *studentService) CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error) {
	existingStudent, err := s.studentRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing student: %w", err)
	}
	if existingStudent != nil {
		return nil, errors.New("student with this email already exists")
	}

	if req.ReferredBy != nil {
		referrerExists, err := s.studentRepo.Exists(ctx, *req.ReferredBy)
		if err != nil {
			return nil, fmt.Errorf("failed to check referrer: %w", err)
		}
		if !referrerExists {
			return nil, errors.New("referrer not found")
		}
	}

	student := &models.Student{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		ReferredBy: req.ReferredBy,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info().
		Str("student_id", student.ID).
		Str("email", student.Email).
		Msg("Student created")

	return student, nil
}

func (s *studentService) GetStudentByID(ctx context.Context, id string) (*models.StudentWithStats, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, errors.New("student not found")
	}

	return student, nil
}

func (s *studentService) GetAllStudents(ctx context.Context, page, limit int) (*models.StudentsResponse, error) {
	page, limit = normalizePaging(page, limit)

	students, total, err := s.studentRepo.GetAll(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get all students: %w", err)
	}

	return &models.StudentsResponse{
		Students: students,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *studentService) UpdateStudent(ctx context.Context, id string, req *models.CreateStudentRequest) error {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return errors.New("student not found")
	}

	if req.Email != student.Email {
		existingStudent, err := s.studentRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email availability: %w", err)
		}
		if existingStudent != nil {
			return errors.New("email already in use by another student")
		}
	}

	student.Name = req.Name
	student.Email = req.Email
	student.Phone = req.Phone
	student.ReferredBy = req.ReferredBy
	student.UpdatedAt = time.Now()

	return s.studentRepo.Update(ctx, &student.Student)
}

func (s *studentService) DeleteStudent(ctx context.Context, id string) error {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return errors.New("student not found")
	}

	// Заказы студента каскадно удалит база; райтеров, которых это
	// коснётся, собираем заранее — их счётчики надо пересчитать.
	writerIDs, err := s.assignmentRepo.WriterIDsByStudent(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to collect affected writers: %w", err)
	}

	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}

	s.logger.Info().
		Str("student_id", id).
		Int("affected_writers", len(writerIDs)).
		Msg("Student deleted")

	for _, writerID := range writerIDs {
		id := writerID
		s.stats.RecomputeWriterStats(ctx, &id)
	}

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
	"github.com/inkwell-hq/broker-service/internal/service/integration"
)

type AssignmentService interface {
	CreateAssignment(ctx context.Context, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	GetAssignmentByID(ctx context.Context, id string) (*models.Assignment, error)
	GetAllAssignments(ctx context.Context, page, limit int) (*models.AssignmentsResponse, error)
	GetAssignmentsByStudent(ctx context.Context, studentID string, page, limit int) (*models.AssignmentsResponse, error)
	UpdateAssignment(ctx context.Context, id string, req *models.UpdateAssignmentRequest) error
	UpdateStatus(ctx context.Context, id, status string) error
	AssignWriter(ctx context.Context, id string, writerID *int) error
	RecordPayment(ctx context.Context, id string, req *models.RecordPaymentRequest) error
	DeleteAssignment(ctx context.Context, id string) error
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	studentRepo    repository.StudentRepository
	writerRepo     repository.WriterRepository
	stats          StatsService
	events         integration.EventPublisher
	logger         zerolog.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	studentRepo repository.StudentRepository,
	writerRepo repository.WriterRepository,
	stats StatsService,
	events integration.EventPublisher,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		studentRepo:    studentRepo,
		writerRepo:     writerRepo,
		stats:          stats,
		events:         events,
		logger:         logger,
	}
}

func (s *assignmentService) CreateAssignment(ctx context.Context, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	// Проверяем существование студента
	studentExists, err := s.studentRepo.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check student existence: %w", err)
	}
	if !studentExists {
		return nil, errors.New("student not found")
	}

	// И райтера, если заказ сразу назначается
	if req.WriterID != nil {
		writerExists, err := s.writerRepo.Exists(ctx, *req.WriterID)
		if err != nil {
			return nil, fmt.Errorf("failed to check writer existence: %w", err)
		}
		if !writerExists {
			return nil, errors.New("writer not found")
		}
	}

	now := time.Now()
	assignment := &models.Assignment{
		ID:          uuid.New().String(),
		StudentID:   req.StudentID,
		WriterID:    req.WriterID,
		Title:       req.Title,
		Subject:     req.Subject,
		WorkType:    req.WorkType,
		Level:       req.Level,
		Price:       req.Price,
		WriterPrice: req.WriterPrice,
		Status:      models.StatusPending,
		Deadline:    req.Deadline,
		ActivityLog: models.ActivityLog{
			{Message: "Assignment created", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("title", assignment.Title).
		Msg("Assignment created")

	// Запись в базе — дальше побочные эффекты
	s.stats.OnAssignmentChanged(ctx, nil, assignment)
	s.publish(ctx, assignment, models.EventActionCreated)

	return assignment, nil
}

func (s *assignmentService) GetAssignmentByID(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, errors.New("assignment not found")
	}

	return assignment, nil
}

func (s *assignmentService) GetAllAssignments(ctx context.Context, page, limit int) (*models.AssignmentsResponse, error) {
	page, limit = normalizePaging(page, limit)

	assignments, total, err := s.assignmentRepo.GetAll(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get all assignments: %w", err)
	}

	return &models.AssignmentsResponse{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *assignmentService) GetAssignmentsByStudent(ctx context.Context, studentID string, page, limit int) (*models.AssignmentsResponse, error) {
	page, limit = normalizePaging(page, limit)

	assignments, total, err := s.assignmentRepo.ListByStudent(ctx, studentID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments by student: %w", err)
	}

	return &models.AssignmentsResponse{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *assignmentService) UpdateAssignment(ctx context.Context, id string, req *models.UpdateAssignmentRequest) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return errors.New("assignment not found")
	}

	before := *assignment

	assignment.Title = req.Title
	assignment.Subject = req.Subject
	assignment.WorkType = req.WorkType
	assignment.Level = req.Level
	assignment.Price = req.Price
	assignment.WriterPrice = req.WriterPrice
	assignment.Deadline = req.Deadline
	assignment.UpdatedAt = time.Now()

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	s.stats.OnAssignmentChanged(ctx, &before, assignment)
	s.publish(ctx, assignment, models.EventActionUpdated)

	return nil
}

func (s *assignmentService) UpdateStatus(ctx context.Context, id, status string) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return errors.New("assignment not found")
	}

	before := *assignment
	now := time.Now()

	// Отметка завершения ставится/сбрасывается до записи и до пересчёта.
	ApplyStatusTransition(assignment, status, now)
	assignment.UpdatedAt = now

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("from", before.Status).
		Str("to", assignment.Status).
		Msg("Assignment status changed")

	s.stats.OnAssignmentChanged(ctx, &before, assignment)
	s.publish(ctx, assignment, models.EventActionStatusChanged)

	return nil
}

func (s *assignmentService) AssignWriter(ctx context.Context, id string, writerID *int) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return errors.New("assignment not found")
	}

	if writerID != nil {
		writerExists, err := s.writerRepo.Exists(ctx, *writerID)
		if err != nil {
			return fmt.Errorf("failed to check writer existence: %w", err)
		}
		if !writerExists {
			return errors.New("writer not found")
		}
	}

	before := *assignment
	now := time.Now()

	assignment.WriterID = writerID
	assignment.UpdatedAt = now

	message := "Writer unassigned"
	if writerID != nil {
		message = fmt.Sprintf("Writer #%d assigned", *writerID)
	}
	assignment.ActivityLog = append(assignment.ActivityLog, models.ActivityEntry{
		Message: message,
		At:      now,
	})

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to reassign writer: %w", err)
	}

	// Пересчёт пойдёт и по прежнему, и по новому райтеру.
	s.stats.OnAssignmentChanged(ctx, &before, assignment)
	s.publish(ctx, assignment, models.EventActionReassigned)

	return nil
}

func (s *assignmentService) RecordPayment(ctx context.Context, id string, req *models.RecordPaymentRequest) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return errors.New("assignment not found")
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("payment amount must be positive")
	}

	before := *assignment
	now := time.Now()

	assignment.PaymentHistory = append(assignment.PaymentHistory, models.PaymentEntry{
		Amount: req.Amount,
		Side:   req.Side,
		Note:   req.Note,
		At:     now,
	})

	switch req.Side {
	case "writer":
		assignment.WriterPaidAmount = assignment.WriterPaidAmount.Add(req.Amount)
	default:
		assignment.PaidAmount = assignment.PaidAmount.Add(req.Amount)
	}

	assignment.UpdatedAt = now

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("side", req.Side).
		Str("amount", req.Amount.String()).
		Msg("Payment recorded")

	s.stats.OnAssignmentChanged(ctx, &before, assignment)
	s.publish(ctx, assignment, models.EventActionPaymentRecorded)

	return nil
}

func (s *assignmentService) DeleteAssignment(ctx context.Context, id string) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return errors.New("assignment not found")
	}

	if err := s.assignmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", id).
		Msg("Assignment deleted")

	s.stats.OnAssignmentChanged(ctx, assignment, nil)
	s.publish(ctx, assignment, models.EventActionDeleted)

	return nil
}

// publish отправляет событие best-effort: без брокера сервис живёт дальше.
func (s *assignmentService) publish(ctx context.Context, a *models.Assignment, action string) {
	if s.events == nil {
		return
	}

	event := &models.AssignmentChangedEvent{
		AssignmentID: a.ID,
		StudentID:    a.StudentID,
		WriterID:     a.WriterID,
		Action:       action,
		Status:       a.Status,
		Timestamp:    time.Now().Unix(),
	}

	if err := s.events.PublishAssignmentChanged(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("assignment_id", a.ID).
			Str("action", action).
			Msg("Failed to publish assignment event")
	}
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

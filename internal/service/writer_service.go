package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
)

type WriterService interface {
	CreateWriter(ctx context.Context, req *models.CreateWriterRequest) (*models.Writer, error)
	GetWriterByID(ctx context.Context, id int) (*models.Writer, error)
	GetAllWriters(ctx context.Context, page, limit int) (*models.WritersResponse, error)
	UpdateWriter(ctx context.Context, id int, req *models.CreateWriterRequest) error
	DeleteWriter(ctx context.Context, id int) error
	GetAchievements(ctx context.Context, id, limit int) ([]models.WriterAchievement, error)
	RecomputeStats(ctx context.Context, id int) error
}

type writerService struct {
	writerRepo      repository.WriterRepository
	achievementRepo repository.AchievementRepository
	stats           StatsService
	logger          zerolog.Logger
}

func NewWriterService(
	writerRepo repository.WriterRepository,
	achievementRepo repository.AchievementRepository,
	stats StatsService,
	logger zerolog.Logger,
) WriterService {
	return &writerService{
		writerRepo:      writerRepo,
		achievementRepo: achievementRepo,
		stats:           stats,
		logger:          logger,
	}
}

func (s *writerService) CreateWriter(ctx context.Context, req *models.CreateWriterRequest) (*models.Writer, error) {
	phone, placeholder, err := s.resolvePhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	availability := req.Availability
	if availability == "" {
		availability = models.WriterAvailable
	}

	maxConcurrent := req.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = 3
	}

	now := time.Now()
	writer := &models.Writer{
		Phone:         phone,
		Name:          req.Name,
		Availability:  availability,
		MaxConcurrent: maxConcurrent,
		Level:         1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.writerRepo.Create(ctx, writer); err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	s.logger.Info().
		Int("writer_id", writer.ID).
		Str("name", writer.Name).
		Bool("placeholder_phone", placeholder).
		Msg("Writer created")

	return writer, nil
}

// resolvePhone нормализует телефон до 10 цифр; отсутствующий или кривой
// номер заменяется уникальной заглушкой, как делал старый импорт данных.
func (s *writerService) resolvePhone(ctx context.Context, raw string) (phone string, placeholder bool, err error) {
	normalized := normalizePhone(raw)

	if len(normalized) == 10 {
		exists, err := s.writerRepo.PhoneExists(ctx, normalized)
		if err != nil {
			return "", false, fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			return "", false, errors.New("writer with this phone already exists")
		}
		return normalized, false, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		candidate := generatePlaceholderPhone()
		exists, err := s.writerRepo.PhoneExists(ctx, candidate)
		if err != nil {
			return "", false, fmt.Errorf("failed to check phone: %w", err)
		}
		if !exists {
			return candidate, true, nil
		}
	}

	return "", false, errors.New("failed to generate unique placeholder phone")
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func generatePlaceholderPhone() string {
	return strconv.FormatInt(1000000000+rand.Int63n(9000000000), 10)
}

func (s *writerService) GetWriterByID(ctx context.Context, id int) (*models.Writer, error) {
	writer, err := s.writerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get writer: %w", err)
	}
	if writer == nil {
		return nil, errors.New("writer not found")
	}

	return writer, nil
}

func (s *writerService) GetAllWriters(ctx context.Context, page, limit int) (*models.WritersResponse, error) {
	page, limit = normalizePaging(page, limit)

	writers, total, err := s.writerRepo.GetAll(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get all writers: %w", err)
	}

	return &models.WritersResponse{
		Writers: writers,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

func (s *writerService) UpdateWriter(ctx context.Context, id int, req *models.CreateWriterRequest) error {
	writer, err := s.writerRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}
	if writer == nil {
		return errors.New("writer not found")
	}

	normalized := normalizePhone(req.Phone)
	if len(normalized) == 10 && normalized != writer.Phone {
		exists, err := s.writerRepo.PhoneExists(ctx, normalized)
		if err != nil {
			return fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			return errors.New("phone already in use by another writer")
		}
		writer.Phone = normalized
	}

	writer.Name = req.Name
	if req.Availability != "" {
		writer.Availability = req.Availability
	}
	if req.MaxConcurrent > 0 {
		writer.MaxConcurrent = req.MaxConcurrent
	}
	writer.UpdatedAt = time.Now()

	return s.writerRepo.Update(ctx, writer)
}

func (s *writerService) DeleteWriter(ctx context.Context, id int) error {
	writer, err := s.writerRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}
	if writer == nil {
		return errors.New("writer not found")
	}

	// writer_id на заказах база обнуляет сама (ON DELETE SET NULL)
	return s.writerRepo.Delete(ctx, id)
}

func (s *writerService) GetAchievements(ctx context.Context, id, limit int) ([]models.WriterAchievement, error) {
	exists, err := s.writerRepo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check writer existence: %w", err)
	}
	if !exists {
		return nil, errors.New("writer not found")
	}

	if limit < 1 || limit > 100 {
		limit = 10
	}

	return s.achievementRepo.ListRecentByWriter(ctx, id, limit)
}

// RecomputeStats — ручная ресинхронизация счётчиков из админки.
func (s *writerService) RecomputeStats(ctx context.Context, id int) error {
	exists, err := s.writerRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check writer existence: %w", err)
	}
	if !exists {
		return errors.New("writer not found")
	}

	s.stats.RecomputeWriterStats(ctx, &id)
	return nil
}

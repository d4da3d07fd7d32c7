package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
)

const (
	availableWorkLimit      = 10
	recentAchievementsLimit = 10
)

// DashboardService собирает витрину райтера напрямую из живого списка его
// заказов. Кэшированные счётчики карточки сознательно не используются:
// витрина самосогласованна, даже если кэш отстал.
type DashboardService interface {
	BuildWriterDashboard(ctx context.Context, writerID int) (*models.WriterDashboard, error)
}

type dashboardService struct {
	writerRepo      repository.WriterRepository
	assignmentRepo  repository.AssignmentRepository
	achievementRepo repository.AchievementRepository
	logger          zerolog.Logger
}

func NewDashboardService(
	writerRepo repository.WriterRepository,
	assignmentRepo repository.AssignmentRepository,
	achievementRepo repository.AchievementRepository,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		writerRepo:      writerRepo,
		assignmentRepo:  assignmentRepo,
		achievementRepo: achievementRepo,
		logger:          logger,
	}
}

func (s *dashboardService) BuildWriterDashboard(ctx context.Context, writerID int) (*models.WriterDashboard, error) {
	writer, err := s.writerRepo.GetByID(ctx, writerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get writer: %w", err)
	}
	if writer == nil {
		return nil, errors.New("writer not found")
	}

	assignments, err := s.assignmentRepo.ListByWriter(ctx, writerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list writer assignments: %w", err)
	}

	dashboard := summarizeAssignments(assignments)
	dashboard.WriterID = writer.ID
	dashboard.Name = writer.Name
	dashboard.AverageRating = writer.Rating.Average()
	dashboard.Level = writer.Level
	dashboard.Points = writer.Points
	dashboard.Streak = writer.Streak

	available, err := s.assignmentRepo.ListAvailable(ctx, availableWorkLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list available work: %w", err)
	}
	dashboard.AvailableWork = available

	achievements, err := s.achievementRepo.ListRecentByWriter(ctx, writerID, recentAchievementsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	dashboard.Achievements = achievements

	return dashboard, nil
}

// summarizeAssignments — чистая сводка по списку заказов райтера.
func summarizeAssignments(assignments []models.Assignment) *models.WriterDashboard {
	var (
		completedCount int
		onTimeCount    int
		activeCount    int
		totalEarnings  = decimal.Zero
		totalPaid      = decimal.Zero
	)

	for _, a := range assignments {
		// Выплаченное учитывается по всем заказам, включая активные.
		totalPaid = totalPaid.Add(a.WriterPaidAmount)

		if models.IsCompletedStatus(a.Status) {
			completedCount++
			totalEarnings = totalEarnings.Add(a.WriterPrice)
			if a.IsOnTime() {
				onTimeCount++
			}
		}

		if a.IsActive() {
			activeCount++
		}
	}

	return &models.WriterDashboard{
		CompletionRate: ratePercent(completedCount, len(assignments)),
		OnTimeRate:     ratePercent(onTimeCount, completedCount),
		TotalEarnings:  totalEarnings,
		TotalPaid:      totalPaid,
		// Может уйти в минус при переплате — не ограничиваем.
		PendingPayment: totalEarnings.Sub(totalPaid),
		ActiveCount:    activeCount,
	}
}

func ratePercent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

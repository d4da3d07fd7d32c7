package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
)

// StatsService держит кэшированные счётчики карточки райтера в согласии с
// фактическим множеством его заказов. Счётчики — производный кэш: любое
// значение здесь можно пересчитать заново из таблицы assignments.
type StatsService interface {
	// RecomputeWriterStats пересчитывает счётчики райтера из его заказов.
	// nil — тихий no-op. Ошибки персистентности логируются и не
	// пробрасываются: пересчёт идёт побочным эффектом мутации заказа и не
	// должен ронять её.
	RecomputeWriterStats(ctx context.Context, writerID *int)

	// OnAssignmentChanged — явное уведомление от границы мутаций: заказ
	// создан (before == nil), изменён или удалён (after == nil).
	// Ресинхронизируются оба райтера, если заказ переназначен.
	OnAssignmentChanged(ctx context.Context, before, after *models.Assignment)
}

type statsService struct {
	assignmentRepo  repository.AssignmentRepository
	writerRepo      repository.WriterRepository
	achievementRepo repository.AchievementRepository
	logger          zerolog.Logger
}

func NewStatsService(
	assignmentRepo repository.AssignmentRepository,
	writerRepo repository.WriterRepository,
	achievementRepo repository.AchievementRepository,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		assignmentRepo:  assignmentRepo,
		writerRepo:      writerRepo,
		achievementRepo: achievementRepo,
		logger:          logger,
	}
}

// ApplyStatusTransition выполняет побочный эффект смены статуса: переход в
// завершённый вариант ставит отметку завершения (если её ещё нет), любой
// другой статус её сбрасывает. Запись в историю статусов тоже здесь.
// Должна отработать до того, как пересчёт статистики прочитает запись.
func ApplyStatusTransition(a *models.Assignment, newStatus string, now time.Time) {
	if a.Status != newStatus {
		a.StatusHistory = append(a.StatusHistory, models.StatusChange{
			From: a.Status,
			To:   newStatus,
			At:   now,
		})
	}

	a.Status = newStatus

	if models.IsCompletedStatus(newStatus) {
		if a.CompletedAt == nil {
			completedAt := now
			a.CompletedAt = &completedAt
		}
	} else {
		a.CompletedAt = nil
	}
}

func (s *statsService) OnAssignmentChanged(ctx context.Context, before, after *models.Assignment) {
	s.RecomputeWriterStats(ctx, writerOf(after))

	// Если заказ переназначен или удалён, прежний райтер тоже должен
	// получить свежие счётчики.
	prev := writerOf(before)
	if prev != nil && !sameWriter(prev, writerOf(after)) {
		s.RecomputeWriterStats(ctx, prev)
	}
}

func writerOf(a *models.Assignment) *int {
	if a == nil {
		return nil
	}
	return a.WriterID
}

func sameWriter(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}

func (s *statsService) RecomputeWriterStats(ctx context.Context, writerID *int) {
	if writerID == nil {
		return
	}

	assignments, err := s.assignmentRepo.ListByWriter(ctx, *writerID)
	if err != nil {
		s.logger.Error().Err(err).
			Int("writer_id", *writerID).
			Msg("Failed to load assignments for stats recompute")
		return
	}

	stats := ComputeWriterStats(assignments)

	if err := s.writerRepo.UpdateStats(ctx, *writerID, stats); err != nil {
		s.logger.Error().Err(err).
			Int("writer_id", *writerID).
			Msg("Failed to write back writer stats")
		return
	}

	s.logger.Debug().
		Int("writer_id", *writerID).
		Int("total", stats.TotalAssignments).
		Int("completed", stats.CompletedAssignments).
		Int("on_time", stats.OnTimeDeliveries).
		Msg("Writer stats recomputed")

	s.awardMilestones(ctx, *writerID, stats)
}

// ComputeWriterStats — чистый пересчёт счётчиков из списка заказов.
// Детерминирован и не зависит от порядка входа.
func ComputeWriterStats(assignments []models.Assignment) models.WriterStats {
	var completed []models.Assignment
	for _, a := range assignments {
		if models.IsCompletedStatus(a.Status) {
			completed = append(completed, a)
		}
	}

	onTime := 0
	for _, a := range completed {
		if a.IsOnTime() {
			onTime++
		}
	}

	return models.WriterStats{
		TotalAssignments:     len(assignments),
		CompletedAssignments: len(completed),
		OnTimeDeliveries:     onTime,
		Level:                len(completed)/10 + 1,
		Points:               10*len(completed) + 5*onTime,
		Streak:               trailingOnTimeStreak(completed),
	}
}

// trailingOnTimeStreak — длина хвостовой серии вовремя сданных заказов
// в порядке их завершения.
func trailingOnTimeStreak(completed []models.Assignment) int {
	ordered := make([]models.Assignment, len(completed))
	copy(ordered, completed)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].FinishTime().Before(ordered[j].FinishTime())
	})

	streak := 0
	for i := len(ordered) - 1; i >= 0; i-- {
		if !ordered[i].IsOnTime() {
			break
		}
		streak++
	}
	return streak
}

// awardMilestones выдаёт достижения за пороги. Best-effort: сбой выдачи
// логируется и не влияет на пересчёт.
func (s *statsService) awardMilestones(ctx context.Context, writerID int, stats models.WriterStats) {
	type milestone struct {
		kind        string
		reached     bool
		description string
	}

	milestones := []milestone{
		{models.AchievementFirstCompleted, stats.CompletedAssignments >= 1, "First completed assignment"},
		{models.AchievementTenCompleted, stats.CompletedAssignments >= 10, "10 completed assignments"},
		{models.AchievementFiftyCompleted, stats.CompletedAssignments >= 50, "50 completed assignments"},
		{models.AchievementOnTimeStreak, stats.Streak >= 5, "5 on-time deliveries in a row"},
	}

	for _, m := range milestones {
		if !m.reached {
			continue
		}

		exists, err := s.achievementRepo.ExistsKind(ctx, writerID, m.kind)
		if err != nil {
			s.logger.Error().Err(err).
				Int("writer_id", writerID).
				Str("kind", m.kind).
				Msg("Failed to check achievement")
			continue
		}
		if exists {
			continue
		}

		achievement := &models.WriterAchievement{
			ID:          uuid.New().String(),
			WriterID:    writerID,
			Kind:        m.kind,
			Description: m.description,
			AwardedAt:   time.Now(),
		}

		if err := s.achievementRepo.Create(ctx, achievement); err != nil {
			s.logger.Error().Err(err).
				Int("writer_id", writerID).
				Str("kind", m.kind).
				Msg("Failed to award achievement")
			continue
		}

		s.logger.Info().
			Int("writer_id", writerID).
			Str("kind", m.kind).
			Msg("Achievement awarded")
	}
}

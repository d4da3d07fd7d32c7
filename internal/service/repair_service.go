package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
)

// RepairService — разовый офлайновый ремонт исторической порчи данных:
// строки заказов без идентификатора и дубликаты, оставшиеся от старых багов.
// Запускается вручную при остановленном трафике; два прохода чтения не
// изолированы от параллельных записей, конкурентный запуск небезопасен.
type RepairService interface {
	Run(ctx context.Context) (*models.RepairReport, error)
}

type repairService struct {
	assignmentRepo repository.AssignmentRepository
	stats          StatsService
	logger         zerolog.Logger
}

func NewRepairService(
	assignmentRepo repository.AssignmentRepository,
	stats StatsService,
	logger zerolog.Logger,
) RepairService {
	return &repairService{
		assignmentRepo: assignmentRepo,
		stats:          stats,
		logger:         logger,
	}
}

// Run чинит идентификаторы, затем схлопывает дубликаты. Повторный запуск по
// чистым данным ничего не находит и ничего не меняет.
func (s *repairService) Run(ctx context.Context) (*models.RepairReport, error) {
	report := &models.RepairReport{}

	if err := s.repairMissingIDs(ctx, report); err != nil {
		return nil, err
	}

	if err := s.collapseDuplicates(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("repaired_ids", report.RepairedIDs).
		Int("duplicate_groups", report.DuplicateGroups).
		Int("deleted_duplicates", report.DeletedDuplicates).
		Int("errors", report.Errors).
		Msg("Data repair finished")

	return report, nil
}

// Проход 1: каждой строке без идентификатора — свой свежий UUID, адресация
// по позиции строки. Сбой на одной строке не останавливает остальные.
func (s *repairService) repairMissingIDs(ctx context.Context, report *models.RepairReport) error {
	orphans, err := s.assignmentRepo.FindRowsMissingID(ctx)
	if err != nil {
		return fmt.Errorf("failed to find rows with missing ids: %w", err)
	}

	for _, row := range orphans {
		newID := uuid.New().String()
		if err := s.assignmentRepo.RepairRowID(ctx, row.CTID, newID); err != nil {
			s.logger.Error().Err(err).
				Str("ctid", row.CTID).
				Msg("Failed to repair assignment id")
			report.Errors++
			continue
		}

		report.RepairedIDs++
		s.logger.Info().
			Str("ctid", row.CTID).
			Str("new_id", newID).
			Msg("Assignment id repaired")
	}

	return nil
}

type duplicateKey struct {
	Title     string
	WriterID  int // 0 — заказ без райтера
	StudentID string
}

// Проход 2: группировка по (title, writer, student); в группе больше одного —
// выживает запись с высшим приоритетом статуса, при равенстве — свежайшая по
// updated_at. Остальные удаляются, и по каждому удалению пересчитывается
// статистика затронутого райтера.
func (s *repairService) collapseDuplicates(ctx context.Context, report *models.RepairReport) error {
	assignments, err := s.assignmentRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list assignments: %w", err)
	}

	groups := make(map[duplicateKey][]models.Assignment)
	for _, a := range assignments {
		// Пустой id — сирота, которую не удалось починить первым проходом.
		// Удалить её по id нельзя, оставляем до следующего запуска.
		if a.ID == "" {
			continue
		}

		key := duplicateKey{Title: a.Title, StudentID: a.StudentID}
		if a.WriterID != nil {
			key.WriterID = *a.WriterID
		}
		groups[key] = append(groups[key], a)
	}

	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		report.DuplicateGroups++

		sort.Slice(group, func(i, j int) bool {
			ri, rj := models.StatusRank(group[i].Status), models.StatusRank(group[j].Status)
			if ri != rj {
				return ri > rj
			}
			return group[i].UpdatedAt.After(group[j].UpdatedAt)
		})

		survivor := group[0]
		s.logger.Info().
			Str("title", key.Title).
			Str("survivor_id", survivor.ID).
			Int("duplicates", len(group)-1).
			Msg("Collapsing duplicate assignment group")

		for _, dup := range group[1:] {
			if err := s.assignmentRepo.Delete(ctx, dup.ID); err != nil {
				s.logger.Error().Err(err).
					Str("assignment_id", dup.ID).
					Msg("Failed to delete duplicate assignment")
				report.Errors++
				continue
			}

			report.DeletedDuplicates++

			// Удаление меняет множество заказов райтера.
			s.stats.RecomputeWriterStats(ctx, dup.WriterID)
		}
	}

	return nil
}

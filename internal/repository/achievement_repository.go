package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
)

type AchievementRepository interface {
	Create(ctx context.Context, achievement *models.WriterAchievement) error
	ListRecentByWriter(ctx context.Context, writerID, limit int) ([]models.WriterAchievement, error)
	ExistsKind(ctx context.Context, writerID int, kind string) (bool, error)
}

type achievementRepository struct {
	*PostgresRepository
}

func NewAchievementRepository(db *sql.DB, logger zerolog.Logger) AchievementRepository {
	return &achievementRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *achievementRepository) Create(ctx context.Context, achievement *models.WriterAchievement) error {
	query := `
		INSERT INTO writer_achievements (id, writer_id, kind, description, awarded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		achievement.ID,
		achievement.WriterID,
		achievement.Kind,
		achievement.Description,
		achievement.AwardedAt,
	)

	return err
}

func (r *achievementRepository) ListRecentByWriter(ctx context.Context, writerID, limit int) ([]models.WriterAchievement, error) {
	query := `
		SELECT id, writer_id, kind, description, awarded_at
		FROM writer_achievements
		WHERE writer_id = $1
		ORDER BY awarded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, writerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []models.WriterAchievement
	for rows.Next() {
		var a models.WriterAchievement
		err := rows.Scan(&a.ID, &a.WriterID, &a.Kind, &a.Description, &a.AwardedAt)
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}

func (r *achievementRepository) ExistsKind(ctx context.Context, writerID int, kind string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM writer_achievements WHERE writer_id = $1 AND kind = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, writerID, kind).Scan(&exists)
	return exists, err
}

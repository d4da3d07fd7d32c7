package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
)

type WriterRepository interface {
	Create(ctx context.Context, writer *models.Writer) error
	GetByID(ctx context.Context, id int) (*models.Writer, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.Writer, int, error)
	Update(ctx context.Context, writer *models.Writer) error
	UpdateStats(ctx context.Context, id int, stats models.WriterStats) error
	Delete(ctx context.Context, id int) error
	Exists(ctx context.Context, id int) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
}

type writerRepository struct {
	*PostgresRepository
}

func NewWriterRepository(db *sql.DB, logger zerolog.Logger) WriterRepository {
	return &writerRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const writerColumns = `
	id, phone, name, rating, availability, max_concurrent,
	total_assignments, completed_assignments, on_time_deliveries,
	level, points, streak, last_active_at, created_at, updated_at
`

func scanWriter(row interface{ Scan(...interface{}) error }, w *models.Writer) error {
	return row.Scan(
		&w.ID,
		&w.Phone,
		&w.Name,
		&w.Rating,
		&w.Availability,
		&w.MaxConcurrent,
		&w.TotalAssignments,
		&w.CompletedAssignments,
		&w.OnTimeDeliveries,
		&w.Level,
		&w.Points,
		&w.Streak,
		&w.LastActiveAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
}

func (r *writerRepository) Create(ctx context.Context, writer *models.Writer) error {
	query := `
		INSERT INTO writers (
			phone, name, rating, availability, max_concurrent,
			level, points, streak, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		writer.Phone,
		writer.Name,
		writer.Rating,
		writer.Availability,
		writer.MaxConcurrent,
		writer.Level,
		writer.Points,
		writer.Streak,
		writer.CreatedAt,
		writer.UpdatedAt,
	).Scan(&writer.ID)
}

func (r *writerRepository) GetByID(ctx context.Context, id int) (*models.Writer, error) {
	query := `SELECT ` + writerColumns + ` FROM writers WHERE id = $1`

	writer := &models.Writer{}
	err := scanWriter(r.db.QueryRowContext(ctx, query, id), writer)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return writer, err
}

func (r *writerRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Writer, int, error) {
	countQuery := `SELECT COUNT(*) FROM writers`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + writerColumns + ` FROM writers ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var writers []models.Writer
	for rows.Next() {
		var writer models.Writer
		if err := scanWriter(rows, &writer); err != nil {
			return nil, 0, err
		}
		writers = append(writers, writer)
	}

	return writers, total, rows.Err()
}

func (r *writerRepository) Update(ctx context.Context, writer *models.Writer) error {
	query := `
		UPDATE writers
		SET phone = $1, name = $2, rating = $3, availability = $4,
		    max_concurrent = $5, last_active_at = $6, updated_at = $7
		WHERE id = $8
	`

	_, err := r.db.ExecContext(ctx, query,
		writer.Phone,
		writer.Name,
		writer.Rating,
		writer.Availability,
		writer.MaxConcurrent,
		writer.LastActiveAt,
		writer.UpdatedAt,
		writer.ID,
	)

	return err
}

// UpdateStats пишет обратно пересчитанные счётчики. Вызывается только
// ресинхронизацией статистики, обычный Update этих колонок не касается.
// Пересчёт идёт побочным эффектом движения заказов райтера, поэтому здесь же
// обновляется last_active_at.
func (r *writerRepository) UpdateStats(ctx context.Context, id int, stats models.WriterStats) error {
	query := `
		UPDATE writers
		SET total_assignments = $1, completed_assignments = $2, on_time_deliveries = $3,
		    level = $4, points = $5, streak = $6, last_active_at = now(), updated_at = now()
		WHERE id = $7
	`

	_, err := r.db.ExecContext(ctx, query,
		stats.TotalAssignments,
		stats.CompletedAssignments,
		stats.OnTimeDeliveries,
		stats.Level,
		stats.Points,
		stats.Streak,
		id,
	)

	return err
}

// Delete удаляет райтера; writer_id его заказов база обнуляет.
func (r *writerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM writers WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *writerRepository) Exists(ctx context.Context, id int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM writers WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *writerRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM writers WHERE phone = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, phone).Scan(&exists)
	return exists, err
}

package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/inkwell-hq/broker-service/internal/models"
)

// OrphanRow — позиционная ссылка на строку без идентификатора. Чинится по
// ctid, а не по id, иначе несколько null-строк получили бы один и тот же
// новый идентификатор.
type OrphanRow struct {
	CTID string
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithDetails, int, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	ListByWriter(ctx context.Context, writerID int) ([]models.Assignment, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.AssignmentWithDetails, int, error)
	ListAvailable(ctx context.Context, limit int) ([]models.Assignment, error)
	ListAll(ctx context.Context) ([]models.Assignment, error)
	WriterIDsByStudent(ctx context.Context, studentID string) ([]int, error)
	FindRowsMissingID(ctx context.Context) ([]OrphanRow, error)
	RepairRowID(ctx context.Context, ctid, newID string) error
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// COALESCE по id: в исторических данных встречаются строки без
// идентификатора, скан в строку не должен на них падать.
const assignmentColumns = `
	COALESCE(id, '') as id, student_id, writer_id, title, subject, work_type, level,
	price, paid_amount, writer_price, writer_paid_amount, sunk_cost,
	status, deadline, completed_at,
	activity_log, payment_history, status_history, attachments,
	created_at, updated_at
`

func scanAssignment(row interface{ Scan(...interface{}) error }, a *models.Assignment) error {
	return row.Scan(
		&a.ID,
		&a.StudentID,
		&a.WriterID,
		&a.Title,
		&a.Subject,
		&a.WorkType,
		&a.Level,
		&a.Price,
		&a.PaidAmount,
		&a.WriterPrice,
		&a.WriterPaidAmount,
		&a.SunkCost,
		&a.Status,
		&a.Deadline,
		&a.CompletedAt,
		&a.ActivityLog,
		&a.PaymentHistory,
		&a.StatusHistory,
		&a.Attachments,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (
			id, student_id, writer_id, title, subject, work_type, level,
			price, paid_amount, writer_price, writer_paid_amount, sunk_cost,
			status, deadline, completed_at,
			activity_log, payment_history, status_history, attachments,
			created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19,
			$20, $21
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.StudentID,
		assignment.WriterID,
		assignment.Title,
		assignment.Subject,
		assignment.WorkType,
		assignment.Level,
		assignment.Price,
		assignment.PaidAmount,
		assignment.WriterPrice,
		assignment.WriterPaidAmount,
		assignment.SunkCost,
		assignment.Status,
		assignment.Deadline,
		assignment.CompletedAt,
		assignment.ActivityLog,
		assignment.PaymentHistory,
		assignment.StatusHistory,
		assignment.Attachments,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment := &models.Assignment{}
	err := scanAssignment(r.db.QueryRowContext(ctx, query, id), assignment)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			a.id, a.student_id, a.writer_id, a.title, a.subject, a.work_type, a.level,
			a.price, a.paid_amount, a.writer_price, a.writer_paid_amount, a.sunk_cost,
			a.status, a.deadline, a.completed_at,
			a.activity_log, a.payment_history, a.status_history, a.attachments,
			a.created_at, a.updated_at,
			s.name as student_name,
			w.name as writer_name
		FROM assignments a
		JOIN students s ON a.student_id = s.id
		LEFT JOIN writers w ON a.writer_id = w.id
		ORDER BY a.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := collectDetailedRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func collectDetailedRows(rows *sql.Rows) ([]models.AssignmentWithDetails, error) {
	var assignments []models.AssignmentWithDetails
	for rows.Next() {
		var a models.AssignmentWithDetails
		err := rows.Scan(
			&a.ID,
			&a.StudentID,
			&a.WriterID,
			&a.Title,
			&a.Subject,
			&a.WorkType,
			&a.Level,
			&a.Price,
			&a.PaidAmount,
			&a.WriterPrice,
			&a.WriterPaidAmount,
			&a.SunkCost,
			&a.Status,
			&a.Deadline,
			&a.CompletedAt,
			&a.ActivityLog,
			&a.PaymentHistory,
			&a.StatusHistory,
			&a.Attachments,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.StudentName,
			&a.WriterName,
		)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	query := `
		UPDATE assignments
		SET student_id = $1, writer_id = $2, title = $3, subject = $4,
		    work_type = $5, level = $6,
		    price = $7, paid_amount = $8, writer_price = $9,
		    writer_paid_amount = $10, sunk_cost = $11,
		    status = $12, deadline = $13, completed_at = $14,
		    activity_log = $15, payment_history = $16, status_history = $17,
		    attachments = $18, updated_at = $19
		WHERE id = $20
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.StudentID,
		assignment.WriterID,
		assignment.Title,
		assignment.Subject,
		assignment.WorkType,
		assignment.Level,
		assignment.Price,
		assignment.PaidAmount,
		assignment.WriterPrice,
		assignment.WriterPaidAmount,
		assignment.SunkCost,
		assignment.Status,
		assignment.Deadline,
		assignment.CompletedAt,
		assignment.ActivityLog,
		assignment.PaymentHistory,
		assignment.StatusHistory,
		assignment.Attachments,
		assignment.UpdatedAt,
		assignment.ID,
	)

	return err
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assignments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *assignmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM assignments WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *assignmentRepository) ListByWriter(ctx context.Context, writerID int) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE writer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, writerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRows(rows)
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.AssignmentWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments WHERE student_id = $1`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, studentID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			a.id, a.student_id, a.writer_id, a.title, a.subject, a.work_type, a.level,
			a.price, a.paid_amount, a.writer_price, a.writer_paid_amount, a.sunk_cost,
			a.status, a.deadline, a.completed_at,
			a.activity_log, a.payment_history, a.status_history, a.attachments,
			a.created_at, a.updated_at,
			s.name as student_name,
			w.name as writer_name
		FROM assignments a
		JOIN students s ON a.student_id = s.id
		LEFT JOIN writers w ON a.writer_id = w.id
		WHERE a.student_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := collectDetailedRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

// ListAvailable — свободные заказы для витрины райтера: без исполнителя,
// в статусе Pending, свежие первыми.
func (r *assignmentRepository) ListAvailable(ctx context.Context, limit int) ([]models.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE writer_id IS NULL AND lower(status) = 'pending'
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRows(rows)
}

func (r *assignmentRepository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRows(rows)
}

func collectRows(rows *sql.Rows) ([]models.Assignment, error) {
	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := scanAssignment(rows, &a); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) WriterIDsByStudent(ctx context.Context, studentID string) ([]int, error) {
	query := `
		SELECT DISTINCT writer_id
		FROM assignments
		WHERE student_id = $1 AND writer_id IS NOT NULL
	`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var writerIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		writerIDs = append(writerIDs, id)
	}

	return writerIDs, rows.Err()
}

func (r *assignmentRepository) FindRowsMissingID(ctx context.Context) ([]OrphanRow, error) {
	query := `SELECT ctid FROM assignments WHERE id IS NULL OR id = 'null'`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orphans []OrphanRow
	for rows.Next() {
		var row OrphanRow
		if err := rows.Scan(&row.CTID); err != nil {
			return nil, err
		}
		orphans = append(orphans, row)
	}

	return orphans, rows.Err()
}

func (r *assignmentRepository) RepairRowID(ctx context.Context, ctid, newID string) error {
	query := `UPDATE assignments SET id = $1 WHERE ctid = $2::tid`
	_, err := r.db.ExecContext(ctx, query, newID, ctid)
	return err
}

package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Канонические статусы заказа. Исторически колонка хранит свободный текст,
// поэтому все проверки регистронезависимые.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

type Assignment struct {
	ID               string          `json:"id" db:"id"`
	StudentID        string          `json:"student_id" db:"student_id"`
	WriterID         *int            `json:"writer_id,omitempty" db:"writer_id"`
	Title            string          `json:"title" db:"title"`
	Subject          string          `json:"subject" db:"subject"`
	WorkType         string          `json:"work_type" db:"work_type"`
	Level            string          `json:"level" db:"level"`
	Price            decimal.Decimal `json:"price" db:"price"`
	PaidAmount       decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	WriterPrice      decimal.Decimal `json:"writer_price" db:"writer_price"`
	WriterPaidAmount decimal.Decimal `json:"writer_paid_amount" db:"writer_paid_amount"`
	SunkCost         decimal.Decimal `json:"sunk_cost" db:"sunk_cost"`
	Status           string          `json:"status" db:"status"`
	Deadline         time.Time       `json:"deadline" db:"deadline"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	ActivityLog      ActivityLog     `json:"activity_log" db:"activity_log"`
	PaymentHistory   PaymentHistory  `json:"payment_history" db:"payment_history"`
	StatusHistory    StatusHistory   `json:"status_history" db:"status_history"`
	Attachments      Attachments     `json:"attachments" db:"attachments"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

type AssignmentWithDetails struct {
	Assignment
	StudentName string  `json:"student_name" db:"student_name"`
	WriterName  *string `json:"writer_name,omitempty" db:"writer_name"`
}

func IsCompletedStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusCompleted)
}

func IsCancelledStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusCancelled)
}

// StatusRank — приоритет статуса при разрешении дубликатов:
// Completed (3) > In Progress (2) > всё остальное (1).
func StatusRank(status string) int {
	switch {
	case IsCompletedStatus(status):
		return 3
	case strings.EqualFold(strings.TrimSpace(status), StatusInProgress):
		return 2
	default:
		return 1
	}
}

// FinishTime — момент завершения заказа: completed_at, а для записей,
// созданных до появления отметки завершения, updated_at.
func (a *Assignment) FinishTime() time.Time {
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return a.UpdatedAt
}

// IsOnTime: заказ сдан вовремя, если момент завершения не позже дедлайна.
// Граница включительная.
func (a *Assignment) IsOnTime() bool {
	return !a.FinishTime().After(a.Deadline)
}

// IsActive: заказ в работе — не завершён и не отменён.
func (a *Assignment) IsActive() bool {
	return !IsCompletedStatus(a.Status) && !IsCancelledStatus(a.Status)
}

type ActivityEntry struct {
	Message string    `json:"message"`
	Actor   string    `json:"actor,omitempty"`
	At      time.Time `json:"at"`
}

type ActivityLog []ActivityEntry

func (l ActivityLog) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *ActivityLog) Scan(src interface{}) error  { return jsonbScan(src, l) }

type PaymentEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Side   string          `json:"side"` // student или writer
	Note   string          `json:"note,omitempty"`
	At     time.Time       `json:"at"`
}

type PaymentHistory []PaymentEntry

func (h PaymentHistory) Value() (driver.Value, error) { return jsonbValue(h) }
func (h *PaymentHistory) Scan(src interface{}) error  { return jsonbScan(src, h) }

type StatusChange struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

type StatusHistory []StatusChange

func (h StatusHistory) Value() (driver.Value, error) { return jsonbValue(h) }
func (h *StatusHistory) Scan(src interface{}) error  { return jsonbScan(src, h) }

type Attachment struct {
	Name string    `json:"name"`
	URL  string    `json:"url"`
	At   time.Time `json:"at"`
}

type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) { return jsonbValue(a) }
func (a *Attachments) Scan(src interface{}) error  { return jsonbScan(src, a) }

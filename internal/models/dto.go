package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Data Transfer Objects

type CreateStudentRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=255"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Phone      string  `json:"phone" validate:"max=20"`
	ReferredBy *string `json:"referred_by,omitempty" validate:"omitempty,uuid"`
}

type CreateWriterRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	Phone         string `json:"phone" validate:"max=20"`
	Availability  string `json:"availability" validate:"omitempty,oneof=available busy inactive"`
	MaxConcurrent int    `json:"max_concurrent" validate:"omitempty,min=1,max=20"`
}

type CreateAssignmentRequest struct {
	StudentID   string          `json:"student_id" validate:"required,uuid"`
	WriterID    *int            `json:"writer_id,omitempty" validate:"omitempty,min=1"`
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Subject     string          `json:"subject" validate:"max=255"`
	WorkType    string          `json:"work_type" validate:"max=100"`
	Level       string          `json:"level" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	WriterPrice decimal.Decimal `json:"writer_price"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
}

type UpdateAssignmentRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Subject     string          `json:"subject" validate:"max=255"`
	WorkType    string          `json:"work_type" validate:"max=100"`
	Level       string          `json:"level" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	WriterPrice decimal.Decimal `json:"writer_price"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
}

type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" validate:"required,max=100"`
}

type AssignWriterRequest struct {
	// nil — снять райтера с заказа
	WriterID *int `json:"writer_id" validate:"omitempty,min=1"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Side   string          `json:"side" validate:"required,oneof=student writer"`
	Note   string          `json:"note" validate:"max=500"`
}

type AssignmentsResponse struct {
	Assignments []AssignmentWithDetails `json:"assignments"`
	Total       int                     `json:"total"`
	Page        int                     `json:"page"`
	Limit       int                     `json:"limit"`
}

type StudentsResponse struct {
	Students []StudentWithStats `json:"students"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
}

type WritersResponse struct {
	Writers []Writer `json:"writers"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

// WriterDashboard — витрина райтера. Все показатели пересчитаны напрямую из
// живого списка заказов, кэшированные счётчики карточки не используются.
type WriterDashboard struct {
	WriterID       int                 `json:"writer_id"`
	Name           string              `json:"name"`
	CompletionRate int                 `json:"completion_rate"`
	OnTimeRate     int                 `json:"on_time_rate"`
	TotalEarnings  decimal.Decimal     `json:"total_earnings"`
	TotalPaid      decimal.Decimal     `json:"total_paid"`
	PendingPayment decimal.Decimal     `json:"pending_payment"`
	ActiveCount    int                 `json:"active_count"`
	AverageRating  float64             `json:"average_rating"`
	Level          int                 `json:"level"`
	Points         int                 `json:"points"`
	Streak         int                 `json:"streak"`
	AvailableWork  []Assignment        `json:"available_work"`
	Achievements   []WriterAchievement `json:"achievements"`
}

// RepairReport — итог офлайнового ремонта данных.
type RepairReport struct {
	RepairedIDs       int `json:"repaired_ids"`
	DuplicateGroups   int `json:"duplicate_groups"`
	DeletedDuplicates int `json:"deleted_duplicates"`
	Errors            int `json:"errors"`
}

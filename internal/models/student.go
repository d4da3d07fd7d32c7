package models

import (
	"time"
)

type Student struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Phone      string    `json:"phone" db:"phone"`
	ReferredBy *string   `json:"referred_by,omitempty" db:"referred_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type StudentWithStats struct {
	Student
	TotalAssignments  int `json:"total_assignments" db:"total_assignments"`
	ActiveAssignments int `json:"active_assignments" db:"active_assignments"`
}

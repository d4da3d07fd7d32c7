package models

import (
	"time"
)

// Виды достижений. Фиксированный набор, новые значения добавляются только здесь.
const (
	AchievementFirstCompleted = "first_completed"
	AchievementTenCompleted   = "ten_completed"
	AchievementFiftyCompleted = "fifty_completed"
	AchievementOnTimeStreak   = "on_time_streak"
)

type WriterAchievement struct {
	ID          string    `json:"id" db:"id"`
	WriterID    int       `json:"writer_id" db:"writer_id"`
	Kind        string    `json:"kind" db:"kind"`
	Description string    `json:"description" db:"description"`
	AwardedAt   time.Time `json:"awarded_at" db:"awarded_at"`
}

func IsValidAchievementKind(kind string) bool {
	switch kind {
	case AchievementFirstCompleted, AchievementTenCompleted,
		AchievementFiftyCompleted, AchievementOnTimeStreak:
		return true
	default:
		return false
	}
}

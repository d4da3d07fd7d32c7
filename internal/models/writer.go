package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Доступность райтера.
const (
	WriterAvailable = "available"
	WriterBusy      = "busy"
	WriterInactive  = "inactive"
)

type Writer struct {
	ID            int       `json:"id" db:"id"`
	Phone         string    `json:"phone" db:"phone"`
	Name          string    `json:"name" db:"name"`
	Rating        Rating    `json:"rating" db:"rating"`
	Availability  string    `json:"availability" db:"availability"`
	MaxConcurrent int       `json:"max_concurrent" db:"max_concurrent"`

	// Производный кэш, пересчитываемый из заказов. Источник истины —
	// таблица assignments, не эти поля.
	TotalAssignments     int `json:"total_assignments" db:"total_assignments"`
	CompletedAssignments int `json:"completed_assignments" db:"completed_assignments"`
	OnTimeDeliveries     int `json:"on_time_deliveries" db:"on_time_deliveries"`

	Level  int `json:"level" db:"level"`
	Points int `json:"points" db:"points"`
	Streak int `json:"streak" db:"streak"`

	LastActiveAt *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// WriterStats — пересчитанные счётчики для записи обратно в карточку райтера.
type WriterStats struct {
	TotalAssignments     int
	CompletedAssignments int
	OnTimeDeliveries     int
	Level                int
	Points               int
	Streak               int
}

// Rating — составной рейтинг райтера. Хранится в JSONB; в старых записях
// колонка может содержать голое число вместо объекта, а в совсем испорченных —
// мусор, поэтому разбор терпимый: число трактуется как quality, мусор — как ноль.
type Rating struct {
	Quality       float64 `json:"quality"`
	Punctuality   float64 `json:"punctuality"`
	Communication float64 `json:"communication"`
	Reliability   float64 `json:"reliability"`
	Count         int     `json:"count"`
}

// Average — оценка для витрины: quality-составляющая.
func (r Rating) Average() float64 {
	return r.Quality
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	type plain Rating
	var p plain
	if err := json.Unmarshal(data, &p); err == nil {
		*r = Rating(p)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Rating{Quality: n}
		return nil
	}

	*r = Rating{}
	return nil
}

func (r Rating) Value() (driver.Value, error) { return jsonbValue(r) }

func (r *Rating) Scan(src interface{}) error {
	if src == nil {
		*r = Rating{}
		return nil
	}
	return jsonbScan(src, r)
}

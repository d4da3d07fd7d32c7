package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-hq/broker-service/internal/models"
	"github.com/inkwell-hq/broker-service/internal/repository"
)

// Фейковые репозитории в памяти для юнит-тестов сервисов.

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*models.Assignment
	orphans     []repository.OrphanRow
	repaired    map[string]string // ctid -> новый id
	deleted     []string
	failDelete  map[string]bool
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments: make(map[string]*models.Assignment),
		repaired:    make(map[string]string),
		failDelete:  make(map[string]bool),
	}
}

func (f *fakeAssignmentRepo) put(a models.Assignment) {
	f.assignments[a.ID] = &a
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, a *models.Assignment) error {
	f.put(*a)
	return nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssignmentRepo) GetAll(ctx context.Context, limit, offset int) ([]models.AssignmentWithDetails, int, error) {
	return nil, len(f.assignments), nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, a *models.Assignment) error {
	if _, ok := f.assignments[a.ID]; !ok {
		return errors.New("assignment does not exist")
	}
	f.put(*a)
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete[id] {
		return errors.New("delete failed")
	}
	delete(f.assignments, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAssignmentRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.assignments[id]
	return ok, nil
}

func (f *fakeAssignmentRepo) ListByWriter(ctx context.Context, writerID int) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.WriterID != nil && *a.WriterID == writerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.AssignmentWithDetails, int, error) {
	return nil, 0, nil
}

func (f *fakeAssignmentRepo) ListAvailable(ctx context.Context, limit int) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		if a.WriterID == nil && strings.EqualFold(a.Status, models.StatusPending) {
			out = append(out, *a)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListAll(ctx context.Context) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range f.assignments {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) WriterIDsByStudent(ctx context.Context, studentID string) ([]int, error) {
	seen := make(map[int]bool)
	var out []int
	for _, a := range f.assignments {
		if a.StudentID == studentID && a.WriterID != nil && !seen[*a.WriterID] {
			seen[*a.WriterID] = true
			out = append(out, *a.WriterID)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) FindRowsMissingID(ctx context.Context) ([]repository.OrphanRow, error) {
	return f.orphans, nil
}

func (f *fakeAssignmentRepo) RepairRowID(ctx context.Context, ctid, newID string) error {
	f.repaired[ctid] = newID
	return nil
}

type statsWrite struct {
	WriterID int
	Stats    models.WriterStats
}

type fakeWriterRepo struct {
	writers     map[int]*models.Writer
	statsWrites []statsWrite
	phones      map[string]bool
}

func newFakeWriterRepo() *fakeWriterRepo {
	return &fakeWriterRepo{
		writers: make(map[int]*models.Writer),
		phones:  make(map[string]bool),
	}
}

func (f *fakeWriterRepo) Create(ctx context.Context, w *models.Writer) error {
	w.ID = len(f.writers) + 1
	cp := *w
	f.writers[w.ID] = &cp
	f.phones[w.Phone] = true
	return nil
}

func (f *fakeWriterRepo) GetByID(ctx context.Context, id int) (*models.Writer, error) {
	w, ok := f.writers[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWriterRepo) GetAll(ctx context.Context, limit, offset int) ([]models.Writer, int, error) {
	var out []models.Writer
	for _, w := range f.writers {
		out = append(out, *w)
	}
	return out, len(out), nil
}

func (f *fakeWriterRepo) Update(ctx context.Context, w *models.Writer) error {
	cp := *w
	f.writers[w.ID] = &cp
	return nil
}

func (f *fakeWriterRepo) UpdateStats(ctx context.Context, id int, stats models.WriterStats) error {
	if w, ok := f.writers[id]; ok {
		w.TotalAssignments = stats.TotalAssignments
		w.CompletedAssignments = stats.CompletedAssignments
		w.OnTimeDeliveries = stats.OnTimeDeliveries
		w.Level = stats.Level
		w.Points = stats.Points
		w.Streak = stats.Streak
		now := time.Now()
		w.LastActiveAt = &now
	}
	f.statsWrites = append(f.statsWrites, statsWrite{WriterID: id, Stats: stats})
	return nil
}

func (f *fakeWriterRepo) Delete(ctx context.Context, id int) error {
	delete(f.writers, id)
	return nil
}

func (f *fakeWriterRepo) Exists(ctx context.Context, id int) (bool, error) {
	_, ok := f.writers[id]
	return ok, nil
}

func (f *fakeWriterRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return f.phones[phone], nil
}

type fakeAchievementRepo struct {
	created []models.WriterAchievement
}

func (f *fakeAchievementRepo) Create(ctx context.Context, a *models.WriterAchievement) error {
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAchievementRepo) ListRecentByWriter(ctx context.Context, writerID, limit int) ([]models.WriterAchievement, error) {
	var out []models.WriterAchievement
	for i := len(f.created) - 1; i >= 0 && len(out) < limit; i-- {
		if f.created[i].WriterID == writerID {
			out = append(out, f.created[i])
		}
	}
	return out, nil
}

func (f *fakeAchievementRepo) ExistsKind(ctx context.Context, writerID int, kind string) (bool, error) {
	for _, a := range f.created {
		if a.WriterID == writerID && a.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

type fakeStudentRepo struct {
	students map[string]*models.StudentWithStats
	deleted  []string
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[string]*models.StudentWithStats)}
}

func (f *fakeStudentRepo) Create(ctx context.Context, s *models.Student) error {
	f.students[s.ID] = &models.StudentWithStats{Student: *s}
	return nil
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id string) (*models.StudentWithStats, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudentRepo) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	for _, s := range f.students {
		if s.Email == email {
			cp := s.Student
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStudentRepo) GetAll(ctx context.Context, limit, offset int) ([]models.StudentWithStats, int, error) {
	var out []models.StudentWithStats
	for _, s := range f.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, s *models.Student) error {
	if cur, ok := f.students[s.ID]; ok {
		cur.Student = *s
	}
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	delete(f.students, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStudentRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.students[id]
	return ok, nil
}

// fakeEvents собирает опубликованные события вместо брокера.
type fakeEvents struct {
	published []models.AssignmentChangedEvent
	failNext  bool
}

func (f *fakeEvents) PublishAssignmentChanged(ctx context.Context, event *models.AssignmentChangedEvent) error {
	if f.failNext {
		f.failNext = false
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, *event)
	return nil
}

func (f *fakeEvents) Close() error { return nil }

// fakeStats записывает вызовы пересчёта, не трогая репозитории.
type fakeStats struct {
	recomputed []int
}

func (f *fakeStats) RecomputeWriterStats(ctx context.Context, writerID *int) {
	if writerID == nil {
		return
	}
	f.recomputed = append(f.recomputed, *writerID)
}

func (f *fakeStats) OnAssignmentChanged(ctx context.Context, before, after *models.Assignment) {
	f.RecomputeWriterStats(ctx, writerOf(after))

	prev := writerOf(before)
	if prev != nil && !sameWriter(prev, writerOf(after)) {
		f.RecomputeWriterStats(ctx, prev)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-hq/broker-service/internal/models"
)

func intPtr(v int) *int { return &v }

func testAssignment(id string, writerID *int, status string, deadline time.Time, finish time.Time) models.Assignment {
	a := models.Assignment{
		ID:        id,
		StudentID: "student-1",
		Title:     "Essay " + id,
		WriterID:  writerID,
		Status:    status,
		Deadline:  deadline,
		UpdatedAt: finish,
	}
	if models.IsCompletedStatus(status) {
		completedAt := finish
		a.CompletedAt = &completedAt
	}
	return a
}

func newStatsFixture() (*statsService, *fakeAssignmentRepo, *fakeWriterRepo, *fakeAchievementRepo) {
	assignments := newFakeAssignmentRepo()
	writers := newFakeWriterRepo()
	achievements := &fakeAchievementRepo{}
	svc := &statsService{
		assignmentRepo:  assignments,
		writerRepo:      writers,
		achievementRepo: achievements,
		logger:          zerolog.Nop(),
	}
	return svc, assignments, writers, achievements
}

func TestRecomputeWriterStatsCounters(t *testing.T) {
	svc, assignments, writers, _ := newStatsFixture()
	ctx := context.Background()

	writers.writers[7] = &models.Writer{ID: 7, Name: "Anna"}

	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 4 заказа: 2 завершены, из них 1 вовремя
	assignments.put(testAssignment("a1", intPtr(7), models.StatusCompleted, deadline, deadline.Add(-time.Hour)))
	assignments.put(testAssignment("a2", intPtr(7), models.StatusCompleted, deadline, deadline.Add(2*time.Hour)))
	assignments.put(testAssignment("a3", intPtr(7), models.StatusInProgress, deadline, deadline))
	assignments.put(testAssignment("a4", intPtr(7), models.StatusPending, deadline, deadline))
	// чужой заказ не учитывается
	assignments.put(testAssignment("b1", intPtr(8), models.StatusCompleted, deadline, deadline))

	svc.RecomputeWriterStats(ctx, intPtr(7))

	require.Len(t, writers.statsWrites, 1)
	stats := writers.statsWrites[0].Stats
	assert.Equal(t, 4, stats.TotalAssignments)
	assert.Equal(t, 2, stats.CompletedAssignments)
	assert.Equal(t, 1, stats.OnTimeDeliveries)
}

func TestRecomputeWriterStatsTouchesLastActive(t *testing.T) {
	svc, assignments, writers, _ := newStatsFixture()
	ctx := context.Background()

	writers.writers[7] = &models.Writer{ID: 7}
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assignments.put(testAssignment("a1", intPtr(7), models.StatusInProgress, deadline, deadline))

	require.Nil(t, writers.writers[7].LastActiveAt)
	svc.RecomputeWriterStats(ctx, intPtr(7))
	assert.NotNil(t, writers.writers[7].LastActiveAt)
}

func TestRecomputeWriterStatsNilWriter(t *testing.T) {
	svc, _, writers, _ := newStatsFixture()

	svc.RecomputeWriterStats(context.Background(), nil)

	assert.Empty(t, writers.statsWrites)
}

func TestRecomputeWriterStatsIdempotent(t *testing.T) {
	svc, assignments, writers, _ := newStatsFixture()
	ctx := context.Background()

	writers.writers[3] = &models.Writer{ID: 3}
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assignments.put(testAssignment("a1", intPtr(3), models.StatusCompleted, deadline, deadline.Add(-time.Minute)))

	svc.RecomputeWriterStats(ctx, intPtr(3))
	svc.RecomputeWriterStats(ctx, intPtr(3))

	require.Len(t, writers.statsWrites, 2)
	assert.Equal(t, writers.statsWrites[0], writers.statsWrites[1])
}

func TestOnTimeBoundaryInclusive(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	exact := testAssignment("a1", intPtr(1), models.StatusCompleted, deadline, deadline)
	late := testAssignment("a2", intPtr(1), models.StatusCompleted, deadline, deadline.Add(time.Millisecond))

	stats := ComputeWriterStats([]models.Assignment{exact, late})
	assert.Equal(t, 2, stats.CompletedAssignments)
	assert.Equal(t, 1, stats.OnTimeDeliveries)
}

func TestComputeWriterStatsGamification(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var assignments []models.Assignment
	// 12 завершённых, все вовремя
	for i := 0; i < 12; i++ {
		assignments = append(assignments, testAssignment(
			string(rune('a'+i)), intPtr(1), models.StatusCompleted,
			deadline, deadline.Add(-time.Duration(i+1)*time.Minute),
		))
	}

	stats := ComputeWriterStats(assignments)
	assert.Equal(t, 2, stats.Level)
	assert.Equal(t, 10*12+5*12, stats.Points)
	assert.Equal(t, 12, stats.Streak)
}

func TestTrailingOnTimeStreakBrokenByLateDelivery(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assignments := []models.Assignment{
		// просрочен и завершён последним — серия обнуляется
		testAssignment("late", intPtr(1), models.StatusCompleted, deadline, deadline.Add(time.Hour)),
		testAssignment("ok1", intPtr(1), models.StatusCompleted, deadline, deadline.Add(-3*time.Hour)),
		testAssignment("ok2", intPtr(1), models.StatusCompleted, deadline, deadline.Add(-2*time.Hour)),
	}

	stats := ComputeWriterStats(assignments)
	assert.Equal(t, 0, stats.Streak)

	// тот же просроченный в середине — хвост из двух вовремя
	assignments[0].CompletedAt = nil
	late := deadline.Add(time.Hour)
	assignments[0].CompletedAt = &late
	assignments[1].CompletedAt = nil
	ok1 := deadline.Add(2 * time.Hour)
	assignments[1].CompletedAt = &ok1
	assignments[1].Deadline = deadline.Add(3 * time.Hour)
	assignments[2].CompletedAt = nil
	ok2 := deadline.Add(4 * time.Hour)
	assignments[2].CompletedAt = &ok2
	assignments[2].Deadline = deadline.Add(5 * time.Hour)

	stats = ComputeWriterStats(assignments)
	assert.Equal(t, 2, stats.Streak)
}

func TestApplyStatusTransition(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	deadline := now.Add(24 * time.Hour)

	t.Run("completion stamps completed_at", func(t *testing.T) {
		a := testAssignment("a1", intPtr(1), models.StatusInProgress, deadline, now)
		ApplyStatusTransition(&a, models.StatusCompleted, now)

		require.NotNil(t, a.CompletedAt)
		assert.Equal(t, now, *a.CompletedAt)
		require.Len(t, a.StatusHistory, 1)
		assert.Equal(t, models.StatusInProgress, a.StatusHistory[0].From)
		assert.Equal(t, models.StatusCompleted, a.StatusHistory[0].To)
	})

	t.Run("existing completed_at preserved", func(t *testing.T) {
		a := testAssignment("a1", intPtr(1), models.StatusCompleted, deadline, now)
		original := *a.CompletedAt
		ApplyStatusTransition(&a, models.StatusCompleted, now.Add(time.Hour))

		require.NotNil(t, a.CompletedAt)
		assert.Equal(t, original, *a.CompletedAt)
		// статус не менялся — истории нет
		assert.Empty(t, a.StatusHistory)
	})

	t.Run("leaving completed clears the stamp", func(t *testing.T) {
		a := testAssignment("a1", intPtr(1), models.StatusCompleted, deadline, now)
		ApplyStatusTransition(&a, models.StatusPending, now)

		assert.Nil(t, a.CompletedAt)
		assert.Equal(t, models.StatusPending, a.Status)
	})
}

func TestOnAssignmentChangedReassignmentResyncsBothWriters(t *testing.T) {
	svc, assignments, writers, _ := newStatsFixture()
	ctx := context.Background()

	writers.writers[1] = &models.Writer{ID: 1}
	writers.writers[2] = &models.Writer{ID: 2}
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assignments.put(testAssignment("a1", intPtr(2), models.StatusInProgress, deadline, deadline))

	before := testAssignment("a1", intPtr(1), models.StatusInProgress, deadline, deadline)
	after := testAssignment("a1", intPtr(2), models.StatusInProgress, deadline, deadline)
	svc.OnAssignmentChanged(ctx, &before, &after)

	var synced []int
	for _, w := range writers.statsWrites {
		synced = append(synced, w.WriterID)
	}
	assert.ElementsMatch(t, []int{1, 2}, synced)
}

func TestMilestoneAwardedOnce(t *testing.T) {
	svc, assignments, writers, achievements := newStatsFixture()
	ctx := context.Background()

	writers.writers[5] = &models.Writer{ID: 5}
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assignments.put(testAssignment("a1", intPtr(5), models.StatusCompleted, deadline, deadline.Add(-time.Hour)))

	svc.RecomputeWriterStats(ctx, intPtr(5))
	svc.RecomputeWriterStats(ctx, intPtr(5))

	count := 0
	for _, a := range achievements.created {
		if a.Kind == models.AchievementFirstCompleted {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

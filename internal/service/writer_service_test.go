package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-hq/broker-service/internal/models"
)

func newWriterFixture() (WriterService, *fakeWriterRepo, *fakeAchievementRepo, *fakeStats) {
	writers := newFakeWriterRepo()
	achievements := &fakeAchievementRepo{}
	stats := &fakeStats{}
	svc := NewWriterService(writers, achievements, stats, zerolog.Nop())
	return svc, writers, achievements, stats
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "0501234567", normalizePhone("050-123-45-67"))
	assert.Equal(t, "0501234567", normalizePhone("+38 (050) 123 45 67")[2:])
	assert.Equal(t, "", normalizePhone("no digits here"))
}

func TestCreateWriterNormalizesPhone(t *testing.T) {
	svc, writers, _, _ := newWriterFixture()

	writer, err := svc.CreateWriter(context.Background(), &models.CreateWriterRequest{
		Name:  "Anna",
		Phone: "050-123-45-67",
	})
	require.NoError(t, err)

	assert.Equal(t, "0501234567", writer.Phone)
	assert.Equal(t, models.WriterAvailable, writer.Availability)
	assert.Equal(t, 3, writer.MaxConcurrent)
	assert.Equal(t, 1, writer.Level)
	assert.True(t, writers.phones["0501234567"])
}

func TestCreateWriterDuplicatePhone(t *testing.T) {
	svc, writers, _, _ := newWriterFixture()
	writers.phones["0501234567"] = true

	_, err := svc.CreateWriter(context.Background(), &models.CreateWriterRequest{
		Name:  "Anna",
		Phone: "0501234567",
	})

	require.Error(t, err)
	assert.Equal(t, "writer with this phone already exists", err.Error())
}

func TestCreateWriterPlaceholderPhone(t *testing.T) {
	svc, _, _, _ := newWriterFixture()

	// кривой номер заменяется 10-значной заглушкой
	writer, err := svc.CreateWriter(context.Background(), &models.CreateWriterRequest{
		Name:  "Anna",
		Phone: "123",
	})
	require.NoError(t, err)

	assert.Len(t, writer.Phone, 10)
	assert.NotEqual(t, "123", writer.Phone)
}

func TestGeneratePlaceholderPhone(t *testing.T) {
	for i := 0; i < 20; i++ {
		phone := generatePlaceholderPhone()
		assert.Len(t, phone, 10)
		assert.NotEqual(t, byte('0'), phone[0])
	}
}

func TestGetWriterByIDNotFound(t *testing.T) {
	svc, _, _, _ := newWriterFixture()

	_, err := svc.GetWriterByID(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, "writer not found", err.Error())
}

func TestRecomputeStatsManual(t *testing.T) {
	svc, writers, _, stats := newWriterFixture()
	writers.writers[5] = &models.Writer{ID: 5}

	require.NoError(t, svc.RecomputeStats(context.Background(), 5))
	assert.Equal(t, []int{5}, stats.recomputed)

	err := svc.RecomputeStats(context.Background(), 6)
	require.Error(t, err)
	assert.Equal(t, "writer not found", err.Error())
	assert.Equal(t, []int{5}, stats.recomputed)
}

func TestGetAchievementsLimitClamped(t *testing.T) {
	svc, writers, achievements, _ := newWriterFixture()
	writers.writers[1] = &models.Writer{ID: 1}

	for i := 0; i < 15; i++ {
		achievements.created = append(achievements.created, models.WriterAchievement{
			WriterID: 1,
			Kind:     models.AchievementFirstCompleted,
		})
	}

	got, err := svc.GetAchievements(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

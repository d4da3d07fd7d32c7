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

func newStudentFixture() (StudentService, *fakeStudentRepo, *fakeAssignmentRepo, *fakeStats) {
	students := newFakeStudentRepo()
	assignments := newFakeAssignmentRepo()
	stats := &fakeStats{}
	svc := NewStudentService(students, assignments, stats, zerolog.Nop())
	return svc, students, assignments, stats
}

func TestCreateStudent(t *testing.T) {
	svc, students, _, _ := newStudentFixture()

	student, err := svc.CreateStudent(context.Background(), &models.CreateStudentRequest{
		Name:  "Ivan",
		Email: "ivan@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "ivan@example.com", student.Email)
	_, ok := students.students[student.ID]
	assert.True(t, ok)
}

func TestCreateStudentDuplicateEmail(t *testing.T) {
	svc, students, _, _ := newStudentFixture()
	students.students["s1"] = &models.StudentWithStats{
		Student: models.Student{ID: "s1", Email: "ivan@example.com"},
	}

	_, err := svc.CreateStudent(context.Background(), &models.CreateStudentRequest{
		Name:  "Ivan",
		Email: "ivan@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, "student with this email already exists", err.Error())
}

func TestCreateStudentUnknownReferrer(t *testing.T) {
	svc, _, _, _ := newStudentFixture()
	referrer := "ghost"

	_, err := svc.CreateStudent(context.Background(), &models.CreateStudentRequest{
		Name:       "Ivan",
		Email:      "ivan@example.com",
		ReferredBy: &referrer,
	})

	require.Error(t, err)
	assert.Equal(t, "referrer not found", err.Error())
}

func TestDeleteStudentResyncsAffectedWriters(t *testing.T) {
	svc, students, assignments, stats := newStudentFixture()
	ctx := context.Background()

	students.students["s1"] = &models.StudentWithStats{
		Student: models.Student{ID: "s1", Email: "ivan@example.com"},
	}

	deadline := time.Now().Add(time.Hour)
	assignments.put(models.Assignment{ID: "a1", StudentID: "s1", WriterID: intPtr(1), Status: models.StatusInProgress, Deadline: deadline})
	assignments.put(models.Assignment{ID: "a2", StudentID: "s1", WriterID: intPtr(2), Status: models.StatusCompleted, Deadline: deadline})
	assignments.put(models.Assignment{ID: "a3", StudentID: "s1", WriterID: intPtr(1), Status: models.StatusPending, Deadline: deadline})
	// заказ другого студента не трогаем
	assignments.put(models.Assignment{ID: "b1", StudentID: "s2", WriterID: intPtr(3), Status: models.StatusPending, Deadline: deadline})

	require.NoError(t, svc.DeleteStudent(ctx, "s1"))

	assert.Equal(t, []string{"s1"}, students.deleted)
	assert.ElementsMatch(t, []int{1, 2}, stats.recomputed)
}

func TestDeleteStudentNotFound(t *testing.T) {
	svc, _, _, stats := newStudentFixture()

	err := svc.DeleteStudent(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, "student not found", err.Error())
	assert.Empty(t, stats.recomputed)
}

func TestUpdateStudentEmailConflict(t *testing.T) {
	svc, students, _, _ := newStudentFixture()
	students.students["s1"] = &models.StudentWithStats{
		Student: models.Student{ID: "s1", Email: "ivan@example.com"},
	}
	students.students["s2"] = &models.StudentWithStats{
		Student: models.Student{ID: "s2", Email: "taken@example.com"},
	}

	err := svc.UpdateStudent(context.Background(), "s1", &models.CreateStudentRequest{
		Name:  "Ivan",
		Email: "taken@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, "email already in use by another student", err.Error())
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/uniplan-api/internal/models"
)

type mockHistorySource struct {
	summary *models.AcademicSummary
}

func (m *mockHistorySource) History(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	return m.summary, nil
}

type mockTimetableSource struct {
	groups []models.Group
}

func (m *mockTimetableSource) ListByStudentActive(ctx context.Context, studentID string) ([]models.Group, error) {
	return m.groups, nil
}

func TestHistoryCSV(t *testing.T) {
	grade := 9.0
	letter := "A"
	summary := &models.AcademicSummary{
		StudentID: "st1",
		CurrentEnrollments: []models.Enrollment{
			{SubjectCode: "FIS101", SubjectCredits: 4, PeriodCode: "2025-2", Status: models.EnrollmentStatusEnrolled, AttemptNumber: 1},
		},
		History: []models.Enrollment{
			{SubjectCode: "MAT101", SubjectCredits: 6, PeriodCode: "2025-1", Status: models.EnrollmentStatusPassed,
				AttemptNumber: 1, Grade: &grade, GradeLetter: &letter},
		},
	}
	svc := NewExportService(&mockHistorySource{summary: summary}, &mockTimetableSource{}, nil, nil, nil)

	payload, filename, err := svc.HistoryCSV(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, "history_st1.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Period,Subject,Credits,Status,Attempt,Grade,Letter", lines[0])
	assert.Contains(t, lines[1], "FIS101")
	assert.Contains(t, lines[2], "MAT101")
	assert.Contains(t, lines[2], "9.0")
	assert.Contains(t, lines[2], "A")
}

func TestTimetablePDF(t *testing.T) {
	groups := []models.Group{
		{
			ID: "g1", SubjectCode: "MAT101", GroupNumber: "01", Room: "B-204",
			Schedules: []models.Schedule{
				{DayOfWeek: 3, StartTime: "08:00", EndTime: "10:00", Type: models.ScheduleTypeLecture},
				{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00", Type: models.ScheduleTypeLab},
			},
		},
	}
	svc := NewExportService(&mockHistorySource{summary: &models.AcademicSummary{}}, &mockTimetableSource{groups: groups}, nil, nil, nil)

	payload, filename, err := svc.TimetablePDF(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, "timetable_st1.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"), "output is a PDF document")
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/uniplan-api/internal/models"
)

func subjectWithPrereqs(id, code string, prereqs ...models.Prerequisite) *models.Subject {
	return &models.Subject{ID: id, Code: code, Active: true, Prerequisites: prereqs}
}

func passedEnrollment(subjectID, code string) models.Enrollment {
	return models.Enrollment{SubjectID: subjectID, SubjectCode: code, Status: models.EnrollmentStatusPassed}
}

func TestCheckPrerequisites(t *testing.T) {
	checker := NewPrerequisiteChecker(3)
	calc2 := subjectWithPrereqs("s2", "MAT201", models.Prerequisite{SubjectID: "s1", Code: "MAT101", Mandatory: true})

	ok, missing := checker.CheckPrerequisites(calc2, nil)
	require.False(t, ok)
	assert.Equal(t, []string{"MAT101"}, missing)

	ok, missing = checker.CheckPrerequisites(calc2, []models.Enrollment{passedEnrollment("s1", "MAT101")})
	assert.True(t, ok)
	assert.Empty(t, missing)
}

func TestCheckPrerequisitesRecommendedNeverBlocks(t *testing.T) {
	checker := NewPrerequisiteChecker(3)
	subject := subjectWithPrereqs("s2", "MAT201", models.Prerequisite{SubjectID: "s1", Code: "MAT101", Mandatory: false})

	ok, missing := checker.CheckPrerequisites(subject, nil)
	assert.True(t, ok)
	assert.Empty(t, missing)
}

func TestValidateEnrollmentOrder(t *testing.T) {
	checker := NewPrerequisiteChecker(3)
	subject := subjectWithPrereqs("s2", "MAT201", models.Prerequisite{SubjectID: "s1", Code: "MAT101", Mandatory: true})

	t.Run("already passed wins over everything", func(t *testing.T) {
		history := []models.Enrollment{passedEnrollment("s2", "MAT201")}
		ok, reason := checker.ValidateEnrollment(subject, history)
		require.False(t, ok)
		assert.Equal(t, "Subject already passed", reason)
	})

	t.Run("already enrolled", func(t *testing.T) {
		history := []models.Enrollment{
			passedEnrollment("s1", "MAT101"),
			{SubjectID: "s2", SubjectCode: "MAT201", Status: models.EnrollmentStatusEnrolled},
		}
		ok, reason := checker.ValidateEnrollment(subject, history)
		require.False(t, ok)
		assert.Equal(t, "Already enrolled in this subject", reason)
	})

	t.Run("pending counts as enrolled", func(t *testing.T) {
		history := []models.Enrollment{
			passedEnrollment("s1", "MAT101"),
			{SubjectID: "s2", SubjectCode: "MAT201", Status: models.EnrollmentStatusPending},
		}
		ok, reason := checker.ValidateEnrollment(subject, history)
		require.False(t, ok)
		assert.Equal(t, "Already enrolled in this subject", reason)
	})

	t.Run("max attempts", func(t *testing.T) {
		history := []models.Enrollment{passedEnrollment("s1", "MAT101")}
		for i := 0; i < 3; i++ {
			history = append(history, models.Enrollment{SubjectID: "s2", SubjectCode: "MAT201", Status: models.EnrollmentStatusFailed})
		}
		ok, reason := checker.ValidateEnrollment(subject, history)
		require.False(t, ok)
		assert.Equal(t, "Maximum attempts (3) exceeded", reason)
	})

	t.Run("missing prerequisites", func(t *testing.T) {
		ok, reason := checker.ValidateEnrollment(subject, nil)
		require.False(t, ok)
		assert.Equal(t, "Missing prerequisites: MAT101", reason)
	})

	t.Run("eligible", func(t *testing.T) {
		history := []models.Enrollment{passedEnrollment("s1", "MAT101")}
		ok, reason := checker.ValidateEnrollment(subject, history)
		assert.True(t, ok)
		assert.Empty(t, reason)
	})
}

func TestValidateEnrollmentDroppedAttemptsStillCount(t *testing.T) {
	checker := NewPrerequisiteChecker(2)
	subject := subjectWithPrereqs("s1", "MAT101")
	history := []models.Enrollment{
		{SubjectID: "s1", SubjectCode: "MAT101", Status: models.EnrollmentStatusDropped},
		{SubjectID: "s1", SubjectCode: "MAT101", Status: models.EnrollmentStatusFailed},
	}
	ok, reason := checker.ValidateEnrollment(subject, history)
	require.False(t, ok)
	assert.Equal(t, "Maximum attempts (2) exceeded", reason)
}

func TestPrerequisiteCheckerAvailableSubjects(t *testing.T) {
	checker := NewPrerequisiteChecker(3)
	mat101 := models.Subject{ID: "s1", Code: "MAT101", Active: true}
	mat201 := models.Subject{ID: "s2", Code: "MAT201", Active: true,
		Prerequisites: []models.Prerequisite{{SubjectID: "s1", Code: "MAT101", Mandatory: true}}}
	fis101 := models.Subject{ID: "s3", Code: "FIS101", Active: true}
	inactive := models.Subject{ID: "s4", Code: "QUI101", Active: false}

	history := []models.Enrollment{passedEnrollment("s1", "MAT101")}

	out := checker.AvailableSubjects([]models.Subject{mat101, mat201, fis101, inactive}, history, []string{"s3"})

	codes := make([]string, 0, len(out))
	for _, s := range out {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"MAT201"}, codes)
}

func TestNewPrerequisiteCheckerDefaults(t *testing.T) {
	assert.Equal(t, 3, NewPrerequisiteChecker(0).MaxAttempts())
	assert.Equal(t, 5, NewPrerequisiteChecker(5).MaxAttempts())
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/uniplan-api/internal/models"
)

func groupWithSlots(id, code string, slots ...models.Schedule) models.Group {
	return models.Group{ID: id, SubjectCode: code, GroupNumber: "01", Schedules: slots}
}

func TestDetectConflicts(t *testing.T) {
	detector := NewConflictDetector()

	a := groupWithSlots("g1", "MAT101", models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"})
	b := groupWithSlots("g2", "FIS101", models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"})
	c := groupWithSlots("g3", "QUI101", models.Schedule{DayOfWeek: 2, StartTime: "08:00", EndTime: "10:00"})

	conflicts := detector.DetectConflicts([]models.Group{a, b, c})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "g1", conflicts[0].GroupAID)
	assert.Equal(t, "g2", conflicts[0].GroupBID)
}

func TestDetectConflictsNoFalsePositives(t *testing.T) {
	detector := NewConflictDetector()

	a := groupWithSlots("g1", "MAT101", models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"})
	b := groupWithSlots("g2", "FIS101", models.Schedule{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00"})
	c := groupWithSlots("g3", "QUI101", models.Schedule{DayOfWeek: 3, StartTime: "08:00", EndTime: "10:00"})

	assert.Empty(t, detector.DetectConflicts([]models.Group{a, b, c}))
}

func TestDetectConflictsMultiplePairs(t *testing.T) {
	detector := NewConflictDetector()

	a := groupWithSlots("g1", "MAT101",
		models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"},
		models.Schedule{DayOfWeek: 3, StartTime: "08:00", EndTime: "10:00"})
	b := groupWithSlots("g2", "FIS101",
		models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
		models.Schedule{DayOfWeek: 3, StartTime: "09:00", EndTime: "11:00"})

	conflicts := detector.DetectConflicts([]models.Group{a, b})
	assert.Len(t, conflicts, 2, "each overlapping slot pair is reported")
}

func TestHasConflict(t *testing.T) {
	detector := NewConflictDetector()

	candidate := groupWithSlots("g1", "MAT101", models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"})
	enrolled := []models.Group{
		groupWithSlots("g2", "FIS101", models.Schedule{DayOfWeek: 2, StartTime: "08:00", EndTime: "10:00"}),
	}
	assert.False(t, detector.HasConflict(&candidate, enrolled))

	enrolled = append(enrolled,
		groupWithSlots("g3", "QUI101", models.Schedule{DayOfWeek: 1, StartTime: "09:30", EndTime: "11:00"}))
	assert.True(t, detector.HasConflict(&candidate, enrolled))
}

func TestConflictDetails(t *testing.T) {
	detector := NewConflictDetector()

	candidate := groupWithSlots("g1", "MAT101", models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"})
	enrolled := []models.Group{
		groupWithSlots("g2", "FIS101", models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}),
	}

	details := detector.ConflictDetails(&candidate, enrolled)
	require.Len(t, details, 1)
	assert.Equal(t, "g1", details[0].NewGroupID)
	assert.Equal(t, "g2", details[0].ExistingGroupID)
	assert.Equal(t, "MAT101", details[0].NewSubjectCode)
	assert.Equal(t, "FIS101", details[0].ExistingSubject)
	assert.Equal(t, "Monday", details[0].Day)
	assert.Equal(t, "08:00 - 10:00", details[0].NewTimeRange)
	assert.Equal(t, "09:00 - 11:00", details[0].ExistingTimeSlot)
}

func TestCompatibleGroups(t *testing.T) {
	detector := NewConflictDetector()

	enrolled := []models.Group{
		groupWithSlots("g1", "MAT101", models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"}),
	}
	candidates := []models.Group{
		groupWithSlots("g2", "FIS101", models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}),
		groupWithSlots("g3", "QUI101", models.Schedule{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00"}),
	}

	out := detector.CompatibleGroups(candidates, enrolled)
	require.Len(t, out, 1)
	assert.Equal(t, "g3", out[0].ID)
}

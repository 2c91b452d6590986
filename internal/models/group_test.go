package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slot(day int, start, end string) Schedule {
	return Schedule{DayOfWeek: day, StartTime: start, EndTime: end}
}

func TestScheduleOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Schedule
		b    Schedule
		want bool
	}{
		{"identical slots", slot(1, "08:00", "10:00"), slot(1, "08:00", "10:00"), true},
		{"partial overlap", slot(1, "08:00", "10:00"), slot(1, "09:00", "11:00"), true},
		{"contained slot", slot(1, "08:00", "12:00"), slot(1, "09:00", "10:00"), true},
		{"back to back", slot(1, "08:00", "10:00"), slot(1, "10:00", "12:00"), false},
		{"disjoint same day", slot(1, "08:00", "09:00"), slot(1, "11:00", "12:00"), false},
		{"same time different day", slot(1, "08:00", "10:00"), slot(2, "08:00", "10:00"), false},
		{"one minute overlap", slot(3, "08:00", "10:01"), slot(3, "10:00", "12:00"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestScheduleValidate(t *testing.T) {
	assert.NoError(t, slot(1, "08:00", "10:00").Validate())
	assert.Error(t, slot(0, "08:00", "10:00").Validate())
	assert.Error(t, slot(8, "08:00", "10:00").Validate())
	assert.Error(t, slot(1, "10:00", "08:00").Validate())
	assert.Error(t, slot(1, "10:00", "10:00").Validate())
	assert.Error(t, slot(1, "25:00", "26:00").Validate())
	assert.Error(t, slot(1, "0800", "1000").Validate())
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Monday", DayName(1))
	assert.Equal(t, "Sunday", DayName(7))
	assert.Equal(t, "Unknown", DayName(0))
	assert.Equal(t, "Unknown", DayName(8))
}

func TestGroupCapacity(t *testing.T) {
	g := Group{Capacity: 30, EnrolledCount: 28}
	assert.Equal(t, 2, g.AvailableSpots())
	assert.False(t, g.IsFull())

	g.EnrolledCount = 30
	assert.Equal(t, 0, g.AvailableSpots())
	assert.True(t, g.IsFull())

	g.EnrolledCount = 31
	assert.Equal(t, 0, g.AvailableSpots())
}

func TestGroupDisplayName(t *testing.T) {
	g := Group{SubjectCode: "MAT101", GroupNumber: "01"}
	assert.Equal(t, "MAT101-01", g.DisplayName())
	assert.Equal(t, "01", (&Group{GroupNumber: "01"}).DisplayName())
}

func TestGroupValidate(t *testing.T) {
	g := Group{
		GroupNumber: "01",
		Capacity:    30,
		Schedules: []Schedule{
			slot(1, "08:00", "10:00"),
			slot(3, "08:00", "10:00"),
		},
	}
	require.NoError(t, g.Validate())

	g.Schedules = append(g.Schedules, slot(1, "09:00", "11:00"))
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Monday")

	assert.Error(t, (&Group{GroupNumber: " ", Capacity: 10}).Validate())
	assert.Error(t, (&Group{GroupNumber: "01", Capacity: 0}).Validate())
	assert.Error(t, (&Group{GroupNumber: "01", Capacity: 5, EnrolledCount: 6}).Validate())
}

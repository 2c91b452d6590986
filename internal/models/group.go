package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleType tags what kind of session a time slot holds.
type ScheduleType string

// Possible schedule types.
const (
	ScheduleTypeLecture  ScheduleType = "LECTURE"
	ScheduleTypeLab      ScheduleType = "LAB"
	ScheduleTypeTutorial ScheduleType = "TUTORIAL"
)

var dayNames = [8]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English name for an ISO day-of-week (1 = Monday).
func DayName(day int) string {
	if day < 1 || day > 7 {
		return "Unknown"
	}
	return dayNames[day]
}

// Schedule is a half-open [start, end) time slot a group occupies on one day.
// Times use the "HH:MM" 24h wall-clock format.
type Schedule struct {
	ID        string       `db:"id" json:"id"`
	GroupID   string       `db:"group_id" json:"group_id"`
	DayOfWeek int          `db:"day_of_week" json:"day_of_week"`
	StartTime string       `db:"start_time" json:"start_time"`
	EndTime   string       `db:"end_time" json:"end_time"`
	Room      string       `db:"room" json:"room,omitempty"`
	Type      ScheduleType `db:"type" json:"type"`
}

// Key identifies a schedule by (day, start, end) for equality and hashing.
func (s Schedule) Key() string {
	return fmt.Sprintf("%d|%s|%s", s.DayOfWeek, s.StartTime, s.EndTime)
}

// TimeRange renders the slot as "HH:MM - HH:MM".
func (s Schedule) TimeRange() string {
	return s.StartTime + " - " + s.EndTime
}

// Validate enforces day range, clock format and positive duration.
func (s Schedule) Validate() error {
	if s.DayOfWeek < 1 || s.DayOfWeek > 7 {
		return fmt.Errorf("day of week must be between 1 and 7, got %d", s.DayOfWeek)
	}
	start, ok := clockMinutes(s.StartTime)
	if !ok {
		return fmt.Errorf("invalid start time %q, expected HH:MM", s.StartTime)
	}
	end, ok := clockMinutes(s.EndTime)
	if !ok {
		return fmt.Errorf("invalid end time %q, expected HH:MM", s.EndTime)
	}
	if start >= end {
		return fmt.Errorf("start time %s must be before end time %s", s.StartTime, s.EndTime)
	}
	return nil
}

// Overlaps reports whether two half-open slots intersect.
// Slots on different days never overlap; back-to-back slots do not overlap.
func (s Schedule) Overlaps(other Schedule) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	s1, ok1 := clockMinutes(s.StartTime)
	e1, ok2 := clockMinutes(s.EndTime)
	s2, ok3 := clockMinutes(other.StartTime)
	e2, ok4 := clockMinutes(other.EndTime)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return !(e1 <= s2 || s1 >= e2)
}

func clockMinutes(raw string) (int, bool) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Group is one offered section of a subject within an academic period.
// SubjectCode and SubjectCredits are projections populated by the loader.
type Group struct {
	ID             string     `db:"id" json:"id"`
	SubjectID      string     `db:"subject_id" json:"subject_id"`
	PeriodID       string     `db:"period_id" json:"period_id"`
	InstructorID   *string    `db:"instructor_id" json:"instructor_id,omitempty"`
	GroupNumber    string     `db:"group_number" json:"group_number"`
	Capacity       int        `db:"capacity" json:"capacity"`
	EnrolledCount  int        `db:"enrolled_count" json:"enrolled_count"`
	Room           string     `db:"room" json:"room,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	SubjectCode    string     `db:"subject_code" json:"subject_code,omitempty"`
	SubjectCredits int        `db:"subject_credits" json:"subject_credits,omitempty"`
	Schedules      []Schedule `db:"-" json:"schedules,omitempty"`
}

// AvailableSpots returns the remaining capacity, never negative.
func (g *Group) AvailableSpots() int {
	spots := g.Capacity - g.EnrolledCount
	if spots < 0 {
		return 0
	}
	return spots
}

// IsFull reports whether the group has no remaining capacity.
func (g *Group) IsFull() bool {
	return g.EnrolledCount >= g.Capacity
}

// DisplayName renders the section as "CODE-NUMBER" for messages.
func (g *Group) DisplayName() string {
	if g.SubjectCode == "" {
		return g.GroupNumber
	}
	return g.SubjectCode + "-" + g.GroupNumber
}

// Validate enforces the group invariants, including that no two of its
// own schedules overlap.
func (g *Group) Validate() error {
	if strings.TrimSpace(g.GroupNumber) == "" {
		return fmt.Errorf("group number must not be empty")
	}
	if g.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", g.Capacity)
	}
	if g.EnrolledCount < 0 || g.EnrolledCount > g.Capacity {
		return fmt.Errorf("enrolled count %d out of range [0, %d]", g.EnrolledCount, g.Capacity)
	}
	for i, sched := range g.Schedules {
		if err := sched.Validate(); err != nil {
			return err
		}
		for _, other := range g.Schedules[i+1:] {
			if sched.Overlaps(other) {
				return fmt.Errorf("group schedules overlap on %s", DayName(sched.DayOfWeek))
			}
		}
	}
	return nil
}

// GroupFilter describes query params for listing groups.
type GroupFilter struct {
	SubjectID string
	PeriodID  string
	Active    *bool
	Page      int
	PageSize  int
}

// GroupConflict is one overlapping schedule pair between two distinct groups.
type GroupConflict struct {
	GroupAID  string   `json:"group_a_id"`
	GroupBID  string   `json:"group_b_id"`
	ScheduleA Schedule `json:"schedule_a"`
	ScheduleB Schedule `json:"schedule_b"`
}

// ConflictDetail describes a candidate/existing collision for display.
type ConflictDetail struct {
	NewGroupID       string `json:"new_group_id"`
	ExistingGroupID  string `json:"existing_group_id"`
	NewSubjectCode   string `json:"new_subject_code,omitempty"`
	ExistingSubject  string `json:"existing_subject_code,omitempty"`
	Day              string `json:"day"`
	NewTimeRange     string `json:"new_time_range"`
	ExistingTimeSlot string `json:"existing_time_range"`
}

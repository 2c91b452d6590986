package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusPassed    EnrollmentStatus = "PASSED"
	EnrollmentStatusFailed    EnrollmentStatus = "FAILED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// statusTransitions is the closed transition table. Terminal states
// (PASSED, FAILED, DROPPED, WITHDRAWN) have no outgoing edges.
var statusTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusPending: {
		EnrollmentStatusEnrolled,
		EnrollmentStatusDropped,
		EnrollmentStatusWithdrawn,
	},
	EnrollmentStatusEnrolled: {
		EnrollmentStatusPassed,
		EnrollmentStatusFailed,
		EnrollmentStatusDropped,
		EnrollmentStatusWithdrawn,
	},
}

// CanTransitionTo reports whether the status may move to next.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the enrollment still occupies a seat.
// PENDING counts as active for duplicate and conflict checks.
func (s EnrollmentStatus) IsActive() bool {
	return s == EnrollmentStatusEnrolled || s == EnrollmentStatusPending
}

// IsTerminal reports whether the status is immutable.
func (s EnrollmentStatus) IsTerminal() bool {
	switch s {
	case EnrollmentStatusPassed, EnrollmentStatusFailed, EnrollmentStatusDropped, EnrollmentStatusWithdrawn:
		return true
	}
	return false
}

// Enrollment is a student's registration record in a group.
// SubjectID, SubjectCode, SubjectCredits and PeriodCode are projections
// populated by the loader for history traversal.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	GroupID        string           `db:"group_id" json:"group_id"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	Grade          *float64         `db:"grade" json:"grade,omitempty"`
	GradeLetter    *string          `db:"grade_letter" json:"grade_letter,omitempty"`
	AttemptNumber  int              `db:"attempt_number" json:"attempt_number"`
	EnrolledAt     time.Time        `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt    *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	SubjectID      string           `db:"subject_id" json:"subject_id,omitempty"`
	SubjectCode    string           `db:"subject_code" json:"subject_code,omitempty"`
	SubjectCredits int              `db:"subject_credits" json:"subject_credits,omitempty"`
	PeriodCode     string           `db:"period_code" json:"period_code,omitempty"`
}

// LetterGrade maps a numeric grade on the 0-10 scale to a letter.
func LetterGrade(grade float64) string {
	switch {
	case grade >= 9.0:
		return "A"
	case grade >= 8.0:
		return "B"
	case grade >= 7.0:
		return "C"
	case grade >= 6.0:
		return "D"
	default:
		return "F"
	}
}

// AcademicSummary aggregates a student's enrollment history.
type AcademicSummary struct {
	StudentID              string       `json:"student_id"`
	TotalCreditsAttempted  int          `json:"total_credits_attempted"`
	TotalCreditsEarned     int          `json:"total_credits_earned"`
	GPA                    float64      `json:"gpa"`
	SubjectsPassed         int          `json:"subjects_passed"`
	SubjectsFailed         int          `json:"subjects_failed"`
	SubjectsInProgress     int          `json:"subjects_in_progress"`
	CurrentEnrollments     []Enrollment `json:"current_enrollments"`
	History                []Enrollment `json:"history"`
}

package models

import (
	"fmt"
	"regexp"
	"time"
)

var periodCodePattern = regexp.MustCompile(`^\d{4}-[1-9]\d*$`)

// AcademicPeriod is a bounded calendar window (semester, trimester) groups belong to.
// At most one period is current at a time; that invariant lives in the database.
type AcademicPeriod struct {
	ID              string     `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	Name            string     `db:"name" json:"name"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	EndDate         time.Time  `db:"end_date" json:"end_date"`
	EnrollmentStart *time.Time `db:"enrollment_start" json:"enrollment_start,omitempty"`
	EnrollmentEnd   *time.Time `db:"enrollment_end" json:"enrollment_end,omitempty"`
	Current         bool       `db:"current" json:"current"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Validate enforces the period invariants.
func (p *AcademicPeriod) Validate() error {
	if !periodCodePattern.MatchString(p.Code) {
		return fmt.Errorf("period code %q must match YYYY-N", p.Code)
	}
	if !p.StartDate.Before(p.EndDate) {
		return fmt.Errorf("period start must be before end")
	}
	if p.EnrollmentStart != nil && p.EnrollmentEnd != nil && p.EnrollmentStart.After(*p.EnrollmentEnd) {
		return fmt.Errorf("enrollment window start must not be after its end")
	}
	return nil
}

// IsEnrollmentOpen reports whether the enrollment window contains now.
// A period without a window never accepts enrollments.
func (p *AcademicPeriod) IsEnrollmentOpen(now time.Time) bool {
	if p.EnrollmentStart == nil || p.EnrollmentEnd == nil {
		return false
	}
	return !now.Before(*p.EnrollmentStart) && !now.After(*p.EnrollmentEnd)
}

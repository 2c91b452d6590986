package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var subjectCodePattern = regexp.MustCompile(`^[A-Z0-9-]{1,20}$`)

// Subject represents an academic subject (course definition).
type Subject struct {
	ID                string         `db:"id" json:"id"`
	Code              string         `db:"code" json:"code"`
	Name              string         `db:"name" json:"name"`
	Credits           int            `db:"credits" json:"credits"`
	HoursTheory       int            `db:"hours_theory" json:"hours_theory"`
	HoursPractice     int            `db:"hours_practice" json:"hours_practice"`
	HoursLab          int            `db:"hours_lab" json:"hours_lab"`
	Department        string         `db:"department" json:"department,omitempty"`
	SemesterSuggested *int           `db:"semester_suggested" json:"semester_suggested,omitempty"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
	Prerequisites     []Prerequisite `db:"-" json:"prerequisites,omitempty"`
}

// TotalHours returns the weekly contact hours across all modalities.
func (s *Subject) TotalHours() int {
	return s.HoursTheory + s.HoursPractice + s.HoursLab
}

// MandatoryPrerequisites returns only the blocking prerequisite edges.
func (s *Subject) MandatoryPrerequisites() []Prerequisite {
	var out []Prerequisite
	for _, p := range s.Prerequisites {
		if p.Mandatory {
			out = append(out, p)
		}
	}
	return out
}

// Validate enforces the subject invariants.
func (s *Subject) Validate() error {
	if !subjectCodePattern.MatchString(s.Code) {
		return fmt.Errorf("subject code %q must be uppercase alphanumeric with dashes, at most 20 chars", s.Code)
	}
	if s.Credits < 0 || s.Credits > 20 {
		return fmt.Errorf("credits must be between 0 and 20, got %d", s.Credits)
	}
	if s.HoursTheory < 0 || s.HoursPractice < 0 || s.HoursLab < 0 {
		return fmt.Errorf("hour counts must be non-negative")
	}
	if s.SemesterSuggested != nil && (*s.SemesterSuggested < 1 || *s.SemesterSuggested > 12) {
		return fmt.Errorf("suggested semester must be between 1 and 12")
	}
	seen := make(map[string]struct{}, len(s.Prerequisites))
	for _, p := range s.Prerequisites {
		if p.SubjectID == s.ID {
			return fmt.Errorf("subject %s cannot be its own prerequisite", s.Code)
		}
		if _, dup := seen[p.SubjectID]; dup {
			return fmt.Errorf("duplicate prerequisite %s", p.Code)
		}
		seen[p.SubjectID] = struct{}{}
	}
	return nil
}

// NormalizeSubjectCode uppercases and trims a raw subject code.
func NormalizeSubjectCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Prerequisite is a directed requirement edge to another subject.
// Code and Name are projections populated by the loader.
type Prerequisite struct {
	SubjectID string `db:"prerequisite_id" json:"subject_id"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	Mandatory bool   `db:"mandatory" json:"mandatory"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Department string
	Semester   int
	Search     string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

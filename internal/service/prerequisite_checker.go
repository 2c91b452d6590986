package service

import (
	"fmt"
	"strings"

	"github.com/acadsys/uniplan-api/internal/models"
)

// PrerequisiteChecker decides whether a student's history satisfies a
// subject's requirements. It is pure and safe for concurrent use.
type PrerequisiteChecker struct {
	maxAttempts int
}

// NewPrerequisiteChecker constructs the checker. maxAttempts caps how often
// a student may register for the same subject; values below 1 fall back to 3.
func NewPrerequisiteChecker(maxAttempts int) *PrerequisiteChecker {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &PrerequisiteChecker{maxAttempts: maxAttempts}
}

// CheckPrerequisites returns eligibility and the codes of mandatory
// prerequisites the student has not passed. Recommended prerequisites
// never block.
func (c *PrerequisiteChecker) CheckPrerequisites(subject *models.Subject, history []models.Enrollment) (bool, []string) {
	passed := passedCodes(history)
	var missing []string
	for _, prereq := range subject.Prerequisites {
		if !prereq.Mandatory {
			continue
		}
		if _, ok := passed[prereq.Code]; !ok {
			missing = append(missing, prereq.Code)
		}
	}
	return len(missing) == 0, missing
}

// ValidateEnrollment runs the ordered admission checks for one subject.
// The first failing check wins; an empty reason means the student may enroll.
func (c *PrerequisiteChecker) ValidateEnrollment(subject *models.Subject, history []models.Enrollment) (bool, string) {
	attempts := 0
	for _, item := range history {
		if !sameSubject(item, subject) {
			continue
		}
		if item.Status == models.EnrollmentStatusPassed {
			return false, "Subject already passed"
		}
		attempts++
	}
	for _, item := range history {
		if sameSubject(item, subject) && item.Status.IsActive() {
			return false, "Already enrolled in this subject"
		}
	}
	if attempts >= c.maxAttempts {
		return false, fmt.Sprintf("Maximum attempts (%d) exceeded", c.maxAttempts)
	}
	if ok, missing := c.CheckPrerequisites(subject, history); !ok {
		return false, "Missing prerequisites: " + strings.Join(missing, ", ")
	}
	return true, ""
}

// AvailableSubjects filters the catalog down to subjects the student could
// start now: active, not already passed, not in progress, prerequisites met.
func (c *PrerequisiteChecker) AvailableSubjects(all []models.Subject, history []models.Enrollment, inProgressIDs []string) []models.Subject {
	passed := passedCodes(history)
	inProgress := make(map[string]struct{}, len(inProgressIDs))
	for _, id := range inProgressIDs {
		inProgress[id] = struct{}{}
	}

	var out []models.Subject
	for _, subject := range all {
		if !subject.Active {
			continue
		}
		if _, ok := passed[subject.Code]; ok {
			continue
		}
		if _, ok := inProgress[subject.ID]; ok {
			continue
		}
		subject := subject
		if ok, _ := c.CheckPrerequisites(&subject, history); ok {
			out = append(out, subject)
		}
	}
	return out
}

// MaxAttempts exposes the configured attempt cap.
func (c *PrerequisiteChecker) MaxAttempts() int {
	return c.maxAttempts
}

func passedCodes(history []models.Enrollment) map[string]struct{} {
	passed := make(map[string]struct{})
	for _, item := range history {
		if item.Status == models.EnrollmentStatusPassed && item.SubjectCode != "" {
			passed[item.SubjectCode] = struct{}{}
		}
	}
	return passed
}

func sameSubject(item models.Enrollment, subject *models.Subject) bool {
	if item.SubjectID != "" && item.SubjectID == subject.ID {
		return true
	}
	return item.SubjectCode != "" && item.SubjectCode == subject.Code
}

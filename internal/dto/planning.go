package dto

import "github.com/acadsys/uniplan-api/internal/models"

// EnrollRequest is the payload for the enroll operation.
type EnrollRequest struct {
	StudentID         string `json:"student_id" validate:"required"`
	GroupID           string `json:"group_id" validate:"required"`
	SkipPrerequisites bool   `json:"skip_prerequisites"`
	SkipConflicts     bool   `json:"skip_conflicts"`
}

// EnrollmentResult reports the outcome of an enroll attempt. Expected
// business rejections land here, not in an error return.
type EnrollmentResult struct {
	Success         bool                    `json:"success"`
	EnrollmentID    string                  `json:"enrollment_id,omitempty"`
	AttemptNumber   int                     `json:"attempt_number,omitempty"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	ConflictDetails []models.ConflictDetail `json:"conflict_details,omitempty"`
}

// DropRequest cancels an active enrollment.
type DropRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// RecordGradeRequest completes an enrollment with a final grade.
type RecordGradeRequest struct {
	Grade  float64 `json:"grade" validate:"min=0,max=10"`
	Passed bool    `json:"passed"`
}

// SimulationRequest names the candidate groups for a what-if run.
type SimulationRequest struct {
	GroupIDs []string `json:"group_ids" validate:"required,min=1,max=10"`
}

// SimulationConflict is one schedule collision between two candidates.
type SimulationConflict struct {
	Group1ID    string `json:"group1_id"`
	Group2ID    string `json:"group2_id"`
	Day         string `json:"day"`
	TimeOverlap string `json:"time_overlap"`
	Message     string `json:"message"`
}

// SimulationReport is the what-if result. Capacity and credit-load
// findings are warnings only; they never flip IsValid.
type SimulationReport struct {
	IsValid            bool                 `json:"is_valid"`
	TotalCredits       int                  `json:"total_credits"`
	Conflicts          []SimulationConflict `json:"conflicts"`
	PrerequisiteIssues []string             `json:"prerequisite_issues"`
	Warnings           []string             `json:"warnings"`
}

// IneligibleGroup explains why a group is not open to the student.
type IneligibleGroup struct {
	GroupID     string `json:"group_id"`
	SubjectCode string `json:"subject_code"`
	Reason      string `json:"reason"`
}

// AvailableGroupsReport partitions a period's groups for one student.
type AvailableGroupsReport struct {
	Eligible   []models.Group    `json:"eligible"`
	Ineligible []IneligibleGroup `json:"ineligible"`
}

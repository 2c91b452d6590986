package dto

// CreateSubjectRequest is the payload for registering a subject.
type CreateSubjectRequest struct {
	Code              string                 `json:"code" validate:"required,max=20"`
	Name              string                 `json:"name" validate:"required,max=200"`
	Credits           int                    `json:"credits" validate:"min=0,max=20"`
	HoursTheory       int                    `json:"hours_theory" validate:"min=0"`
	HoursPractice     int                    `json:"hours_practice" validate:"min=0"`
	HoursLab          int                    `json:"hours_lab" validate:"min=0"`
	Department        string                 `json:"department"`
	SemesterSuggested *int                   `json:"semester_suggested" validate:"omitempty,min=1,max=12"`
	Prerequisites     []PrerequisiteRequest  `json:"prerequisites"`
}

// PrerequisiteRequest links a subject to a required predecessor.
type PrerequisiteRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Mandatory bool   `json:"mandatory"`
}

// UpdateSubjectRequest modifies mutable subject fields.
type UpdateSubjectRequest struct {
	Name              string `json:"name" validate:"required,max=200"`
	Credits           int    `json:"credits" validate:"min=0,max=20"`
	HoursTheory       int    `json:"hours_theory" validate:"min=0"`
	HoursPractice     int    `json:"hours_practice" validate:"min=0"`
	HoursLab          int    `json:"hours_lab" validate:"min=0"`
	Department        string `json:"department"`
	SemesterSuggested *int   `json:"semester_suggested" validate:"omitempty,min=1,max=12"`
	Active            *bool  `json:"active"`
}

// CreateGroupRequest opens a new section of a subject in a period.
type CreateGroupRequest struct {
	SubjectID    string                  `json:"subject_id" validate:"required"`
	PeriodID     string                  `json:"period_id" validate:"required"`
	InstructorID *string                 `json:"instructor_id"`
	GroupNumber  string                  `json:"group_number" validate:"required,max=10"`
	Capacity     int                     `json:"capacity" validate:"required,min=1"`
	Room         string                  `json:"room"`
	Schedules    []CreateScheduleRequest `json:"schedules" validate:"required,min=1,dive"`
}

// CreateScheduleRequest adds a time slot to a group.
type CreateScheduleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Room      string `json:"room"`
	Type      string `json:"type" validate:"omitempty,oneof=LECTURE LAB TUTORIAL"`
}

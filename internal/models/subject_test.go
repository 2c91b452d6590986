package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectValidate(t *testing.T) {
	subject := Subject{ID: "s1", Code: "MAT101", Credits: 6}
	assert.NoError(t, subject.Validate())

	subject.Code = "mat101"
	assert.Error(t, subject.Validate())

	subject.Code = "MAT101"
	subject.Credits = 21
	assert.Error(t, subject.Validate())

	subject.Credits = 6
	subject.Prerequisites = []Prerequisite{{SubjectID: "s1", Code: "MAT101"}}
	assert.Error(t, subject.Validate(), "self prerequisite must be rejected")

	subject.Prerequisites = []Prerequisite{
		{SubjectID: "s0", Code: "MAT100"},
		{SubjectID: "s0", Code: "MAT100"},
	}
	assert.Error(t, subject.Validate(), "duplicate prerequisite must be rejected")
}

func TestNormalizeSubjectCode(t *testing.T) {
	assert.Equal(t, "MAT101", NormalizeSubjectCode("  mat101 "))
	assert.Equal(t, "FIS-2", NormalizeSubjectCode("fis-2"))
}

func TestSubjectTotalHours(t *testing.T) {
	s := Subject{HoursTheory: 3, HoursPractice: 2, HoursLab: 1}
	assert.Equal(t, 6, s.TotalHours())
}

func TestMandatoryPrerequisites(t *testing.T) {
	s := Subject{Prerequisites: []Prerequisite{
		{SubjectID: "a", Mandatory: true},
		{SubjectID: "b", Mandatory: false},
	}}
	mandatory := s.MandatoryPrerequisites()
	assert.Len(t, mandatory, 1)
	assert.Equal(t, "a", mandatory[0].SubjectID)
}

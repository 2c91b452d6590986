package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/models"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
)

type mockEnrollmentStore struct {
	enrollments map[string]models.Enrollment
	history     []models.Enrollment
	activePairs map[string]bool
	attempts    map[string]int
	applyErr    error
	applied     *models.Enrollment
	dropped     []string
	completed   map[string]models.EnrollmentStatus
}

func (m *mockEnrollmentStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentStore) History(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return m.history, nil
}

func (m *mockEnrollmentStore) ExistsActive(ctx context.Context, studentID, groupID string) (bool, error) {
	return m.activePairs[studentID+"|"+groupID], nil
}

func (m *mockEnrollmentStore) CountAttempts(ctx context.Context, studentID, subjectID string) (int, error) {
	return m.attempts[studentID+"|"+subjectID], nil
}

func (m *mockEnrollmentStore) Apply(ctx context.Context, enrollment *models.Enrollment, groupID string) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	m.applied = enrollment
	return nil
}

func (m *mockEnrollmentStore) Drop(ctx context.Context, id, groupID string, status models.EnrollmentStatus) error {
	m.dropped = append(m.dropped, id)
	return nil
}

func (m *mockEnrollmentStore) Complete(ctx context.Context, id string, status models.EnrollmentStatus, grade float64, letter string) error {
	if m.completed == nil {
		m.completed = make(map[string]models.EnrollmentStatus)
	}
	m.completed[id] = status
	return nil
}

type mockGroupStore struct {
	groups   map[string]models.Group
	enrolled []models.Group
}

func (m *mockGroupStore) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupStore) ListByStudentActive(ctx context.Context, studentID string) ([]models.Group, error) {
	return m.enrolled, nil
}

type mockSubjectReader struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockReportCache struct {
	deletedPatterns []string
}

func (m *mockReportCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletedPatterns = append(m.deletedPatterns, pattern)
	return nil
}

func newTestGroup(id, subjectID, code string) models.Group {
	return models.Group{
		ID:             id,
		SubjectID:      subjectID,
		SubjectCode:    code,
		SubjectCredits: 6,
		GroupNumber:    "01",
		Capacity:       30,
		EnrolledCount:  10,
		Active:         true,
		Schedules:      []models.Schedule{{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"}},
	}
}

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *mockEnrollmentStore, *mockGroupStore, *mockSubjectReader, *mockReportCache) {
	t.Helper()
	enrollments := &mockEnrollmentStore{
		enrollments: map[string]models.Enrollment{},
		activePairs: map[string]bool{},
		attempts:    map[string]int{},
	}
	groups := &mockGroupStore{groups: map[string]models.Group{
		"g1": newTestGroup("g1", "s1", "MAT101"),
	}}
	subjects := &mockSubjectReader{subjects: map[string]models.Subject{
		"s1": {ID: "s1", Code: "MAT101", Active: true, Credits: 6},
	}}
	cache := &mockReportCache{}
	svc := NewEnrollmentService(enrollments, groups, subjects, NewPrerequisiteChecker(3), NewConflictDetector(), cache, nil, nil)
	return svc, enrollments, groups, subjects, cache
}

func TestEnrollSuccess(t *testing.T) {
	svc, enrollments, _, _, cache := newEnrollmentFixture(t)

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "new-enrollment", result.EnrollmentID)
	assert.Equal(t, 1, result.AttemptNumber)
	require.NotNil(t, enrollments.applied)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollments.applied.Status)
	assert.Equal(t, []string{"planning:available:st1:*"}, cache.deletedPatterns)
}

func TestEnrollGroupNotFound(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture(t)

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "missing"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Group with ID missing not found", result.ErrorMessage)
}

func TestEnrollInactiveGroup(t *testing.T) {
	svc, _, groups, _, _ := newEnrollmentFixture(t)
	g := groups.groups["g1"]
	g.Active = false
	groups.groups["g1"] = g

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Group is not active", result.ErrorMessage)
}

func TestEnrollFullGroup(t *testing.T) {
	svc, _, groups, _, _ := newEnrollmentFixture(t)
	g := groups.groups["g1"]
	g.EnrolledCount = g.Capacity
	groups.groups["g1"] = g

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Group is at full capacity", result.ErrorMessage)
}

func TestEnrollAlreadyInGroup(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	enrollments.activePairs["st1|g1"] = true

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Already enrolled in this group", result.ErrorMessage)
}

func TestEnrollMissingPrerequisites(t *testing.T) {
	svc, _, groups, subjects, _ := newEnrollmentFixture(t)
	groups.groups["g2"] = newTestGroup("g2", "s2", "MAT201")
	subjects.subjects["s2"] = models.Subject{
		ID: "s2", Code: "MAT201", Active: true,
		Prerequisites: []models.Prerequisite{{SubjectID: "s1", Code: "MAT101", Mandatory: true}},
	}

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g2"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Missing prerequisites: MAT101", result.ErrorMessage)
}

func TestEnrollSkipPrerequisites(t *testing.T) {
	svc, _, groups, subjects, _ := newEnrollmentFixture(t)
	groups.groups["g2"] = newTestGroup("g2", "s2", "MAT201")
	subjects.subjects["s2"] = models.Subject{
		ID: "s2", Code: "MAT201", Active: true,
		Prerequisites: []models.Prerequisite{{SubjectID: "s1", Code: "MAT101", Mandatory: true}},
	}

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g2", SkipPrerequisites: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestEnrollScheduleConflict(t *testing.T) {
	svc, _, groups, _, _ := newEnrollmentFixture(t)
	existing := newTestGroup("g9", "s9", "FIS101")
	existing.Schedules = []models.Schedule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}
	groups.enrolled = []models.Group{existing}

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Schedule conflict with current enrollments", result.ErrorMessage)
	require.Len(t, result.ConflictDetails, 1)
	assert.Equal(t, "Monday", result.ConflictDetails[0].Day)
	assert.Equal(t, "FIS101", result.ConflictDetails[0].ExistingSubject)
}

func TestEnrollSkipConflicts(t *testing.T) {
	svc, _, groups, _, _ := newEnrollmentFixture(t)
	existing := newTestGroup("g9", "s9", "FIS101")
	existing.Schedules = []models.Schedule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}
	groups.enrolled = []models.Group{existing}

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1", SkipConflicts: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestEnrollLostSeatRace(t *testing.T) {
	svc, enrollments, _, _, cache := newEnrollmentFixture(t)
	enrollments.applyErr = appErrors.ErrCapacityExceeded

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Group is at full capacity", result.ErrorMessage)
	assert.Empty(t, cache.deletedPatterns, "rejected attempts do not invalidate reports")
}

// concurrentSeatStore guards a fixed seat count the way the conditional
// UPDATE does: once seats reach capacity, Apply loses the race.
type concurrentSeatStore struct {
	mockEnrollmentStore
	mu       sync.Mutex
	capacity int
	seats    int
}

func (m *concurrentSeatStore) Apply(ctx context.Context, enrollment *models.Enrollment, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seats >= m.capacity {
		return appErrors.ErrCapacityExceeded
	}
	m.seats++
	enrollment.ID = fmt.Sprintf("e%d", m.seats)
	return nil
}

func TestEnrollConcurrentCapacity(t *testing.T) {
	const capacity = 3
	const attempts = 8

	store := &concurrentSeatStore{capacity: capacity}
	group := newTestGroup("g1", "s1", "MAT101")
	group.Capacity = capacity
	group.EnrolledCount = 0
	groups := &mockGroupStore{groups: map[string]models.Group{"g1": group}}
	subjects := &mockSubjectReader{subjects: map[string]models.Subject{
		"s1": {ID: "s1", Code: "MAT101", Active: true, Credits: 6},
	}}
	svc := NewEnrollmentService(store, groups, subjects, NewPrerequisiteChecker(3), NewConflictDetector(), nil, nil, nil)

	type outcome struct {
		result *dto.EnrollmentResult
		err    error
	}
	outcomes := make(chan outcome, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := svc.Enroll(context.Background(), dto.EnrollRequest{
				StudentID: fmt.Sprintf("st%d", n),
				GroupID:   "g1",
			})
			outcomes <- outcome{result: result, err: err}
		}(i)
	}
	wg.Wait()
	close(outcomes)

	var accepted, rejected int
	for out := range outcomes {
		require.NoError(t, out.err)
		if out.result.Success {
			accepted++
		} else {
			rejected++
			assert.Equal(t, "Group is at full capacity", out.result.ErrorMessage)
		}
	}
	assert.Equal(t, capacity, accepted, "exactly capacity seats are granted")
	assert.Equal(t, attempts-capacity, rejected)
	assert.Equal(t, capacity, store.seats, "seat count never exceeds capacity")
}

func TestEnrollAttemptNumberIncrements(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	enrollments.attempts["st1|s1"] = 2
	enrollments.history = []models.Enrollment{
		{SubjectID: "s1", SubjectCode: "MAT101", Status: models.EnrollmentStatusFailed},
		{SubjectID: "s1", SubjectCode: "MAT101", Status: models.EnrollmentStatusDropped},
	}

	result, err := svc.Enroll(context.Background(), dto.EnrollRequest{StudentID: "st1", GroupID: "g1"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 3, result.AttemptNumber)
}

func TestDrop(t *testing.T) {
	svc, enrollments, _, _, cache := newEnrollmentFixture(t)
	enrollments.enrollments["e1"] = models.Enrollment{
		ID: "e1", StudentID: "st1", GroupID: "g1", Status: models.EnrollmentStatusEnrolled,
	}

	enrollment, err := svc.Drop(context.Background(), "e1", dto.DropRequest{StudentID: "st1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusDropped, enrollment.Status)
	assert.Equal(t, []string{"e1"}, enrollments.dropped)
	assert.NotEmpty(t, cache.deletedPatterns)
}

func TestDropWrongStudent(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	enrollments.enrollments["e1"] = models.Enrollment{
		ID: "e1", StudentID: "st1", GroupID: "g1", Status: models.EnrollmentStatusEnrolled,
	}

	_, err := svc.Drop(context.Background(), "e1", dto.DropRequest{StudentID: "st2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDropTerminalEnrollment(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	enrollments.enrollments["e1"] = models.Enrollment{
		ID: "e1", StudentID: "st1", GroupID: "g1", Status: models.EnrollmentStatusPassed,
	}

	_, err := svc.Drop(context.Background(), "e1", dto.DropRequest{StudentID: "st1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestRecordGrade(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	enrollments.enrollments["e1"] = models.Enrollment{
		ID: "e1", StudentID: "st1", GroupID: "g1", Status: models.EnrollmentStatusEnrolled,
	}

	enrollment, err := svc.RecordGrade(context.Background(), "e1", dto.RecordGradeRequest{Grade: 8.5, Passed: true})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPassed, enrollment.Status)
	require.NotNil(t, enrollment.GradeLetter)
	assert.Equal(t, "B", *enrollment.GradeLetter)
	assert.Equal(t, models.EnrollmentStatusPassed, enrollments.completed["e1"])
}

func TestRecordGradeIllegalTransition(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	enrollments.enrollments["e1"] = models.Enrollment{
		ID: "e1", StudentID: "st1", GroupID: "g1", Status: models.EnrollmentStatusPending,
	}

	_, err := svc.RecordGrade(context.Background(), "e1", dto.RecordGradeRequest{Grade: 9, Passed: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestHistorySummary(t *testing.T) {
	svc, enrollments, _, _, _ := newEnrollmentFixture(t)
	gradeA := 9.0
	gradeF := 4.0
	enrollments.history = []models.Enrollment{
		{SubjectCode: "MAT101", SubjectCredits: 6, Status: models.EnrollmentStatusPassed, Grade: &gradeA},
		{SubjectCode: "FIS101", SubjectCredits: 4, Status: models.EnrollmentStatusFailed, Grade: &gradeF},
		{SubjectCode: "QUI101", SubjectCredits: 5, Status: models.EnrollmentStatusEnrolled},
		{SubjectCode: "BIO101", SubjectCredits: 3, Status: models.EnrollmentStatusDropped},
	}

	summary, err := svc.History(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SubjectsPassed)
	assert.Equal(t, 1, summary.SubjectsFailed)
	assert.Equal(t, 1, summary.SubjectsInProgress)
	assert.Equal(t, 15, summary.TotalCreditsAttempted, "dropped courses do not count as attempted credits")
	assert.Equal(t, 6, summary.TotalCreditsEarned)
	assert.InDelta(t, 9.0, summary.GPA, 0.001, "GPA is credit weighted over passed courses")
	assert.Len(t, summary.CurrentEnrollments, 1)
	assert.Len(t, summary.History, 3)
}

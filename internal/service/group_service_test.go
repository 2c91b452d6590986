package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/models"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
)

type mockGroupCatalog struct {
	groups  map[string]models.Group
	created *models.Group
	added   []models.Schedule
}

func (m *mockGroupCatalog) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupCatalog) ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error) {
	return nil, nil
}

func (m *mockGroupCatalog) ListBySubjectAndPeriod(ctx context.Context, subjectID, periodID string) ([]models.Group, error) {
	return nil, nil
}

func (m *mockGroupCatalog) Create(ctx context.Context, group *models.Group) error {
	group.ID = "new-group"
	m.created = group
	return nil
}

func (m *mockGroupCatalog) AddSchedule(ctx context.Context, schedule *models.Schedule) error {
	m.added = append(m.added, *schedule)
	return nil
}

func (m *mockGroupCatalog) Deactivate(ctx context.Context, id string) error {
	return nil
}

type mockPeriodStore struct {
	periods map[string]models.AcademicPeriod
	current *models.AcademicPeriod
}

func (m *mockPeriodStore) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodStore) FindCurrent(ctx context.Context) (*models.AcademicPeriod, error) {
	if m.current == nil {
		return nil, sql.ErrNoRows
	}
	return m.current, nil
}

func (m *mockPeriodStore) List(ctx context.Context) ([]models.AcademicPeriod, error) {
	return nil, nil
}

func (m *mockPeriodStore) Create(ctx context.Context, period *models.AcademicPeriod) error {
	period.ID = "new-period"
	return nil
}

func newGroupFixture() (*GroupService, *mockGroupCatalog, *mockPeriodStore) {
	groups := &mockGroupCatalog{groups: map[string]models.Group{}}
	periods := &mockPeriodStore{periods: map[string]models.AcademicPeriod{
		"p1": {ID: "p1", Code: "2025-1"},
	}}
	subjects := &mockSubjectReader{subjects: map[string]models.Subject{
		"s1": {ID: "s1", Code: "MAT101", Credits: 6, Active: true},
	}}
	return NewGroupService(groups, subjects, periods, nil, nil), groups, periods
}

func TestGroupCreate(t *testing.T) {
	svc, store, _ := newGroupFixture()

	group, err := svc.Create(context.Background(), dto.CreateGroupRequest{
		SubjectID:   "s1",
		PeriodID:    "p1",
		GroupNumber: "01",
		Capacity:    30,
		Schedules: []dto.CreateScheduleRequest{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"},
			{DayOfWeek: 3, StartTime: "08:00", EndTime: "10:00", Type: "LAB"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT101", group.SubjectCode)
	assert.Equal(t, 6, group.SubjectCredits)
	assert.True(t, group.Active)
	require.Len(t, group.Schedules, 2)
	assert.Equal(t, models.ScheduleTypeLecture, group.Schedules[0].Type)
	assert.Equal(t, models.ScheduleTypeLab, group.Schedules[1].Type)
	require.NotNil(t, store.created)
}

func TestGroupCreateOverlappingSchedules(t *testing.T) {
	svc, _, _ := newGroupFixture()

	_, err := svc.Create(context.Background(), dto.CreateGroupRequest{
		SubjectID:   "s1",
		PeriodID:    "p1",
		GroupNumber: "01",
		Capacity:    30,
		Schedules: []dto.CreateScheduleRequest{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"},
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupCreateUnknownSubject(t *testing.T) {
	svc, _, _ := newGroupFixture()

	_, err := svc.Create(context.Background(), dto.CreateGroupRequest{
		SubjectID:   "ghost",
		PeriodID:    "p1",
		GroupNumber: "01",
		Capacity:    30,
		Schedules:   []dto.CreateScheduleRequest{{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupAddScheduleRejectsOverlap(t *testing.T) {
	svc, store, _ := newGroupFixture()
	store.groups["g1"] = models.Group{
		ID: "g1", GroupNumber: "01", Capacity: 30, Active: true,
		Schedules: []models.Schedule{{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"}},
	}

	_, err := svc.AddSchedule(context.Background(), "g1", dto.CreateScheduleRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	group, err := svc.AddSchedule(context.Background(), "g1", dto.CreateScheduleRequest{
		DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00",
	})
	require.NoError(t, err)
	assert.Len(t, group.Schedules, 2)
	assert.Len(t, store.added, 1)
}

func TestCurrentPeriodMissing(t *testing.T) {
	svc, _, _ := newGroupFixture()
	_, err := svc.CurrentPeriod(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

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

type mockSubjectStore struct {
	byID    map[string]models.Subject
	byCode  map[string]models.Subject
	created *models.Subject
	updated *models.Subject
	linked  []models.Prerequisite
}

func (m *mockSubjectStore) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.byID[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectStore) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	if s, ok := m.byCode[code]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectStore) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var out []models.Subject
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSubjectStore) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "new-subject"
	m.created = subject
	return nil
}

func (m *mockSubjectStore) Update(ctx context.Context, subject *models.Subject) error {
	m.updated = subject
	return nil
}

func (m *mockSubjectStore) AddPrerequisite(ctx context.Context, subjectID string, prereq models.Prerequisite) error {
	m.linked = append(m.linked, prereq)
	return nil
}

func newSubjectFixture() (*SubjectService, *mockSubjectStore) {
	store := &mockSubjectStore{byID: map[string]models.Subject{}, byCode: map[string]models.Subject{}}
	return NewSubjectService(store, nil, nil), store
}

func TestSubjectCreate(t *testing.T) {
	svc, store := newSubjectFixture()
	store.byID["s1"] = models.Subject{ID: "s1", Code: "MAT101", Name: "Calculus I"}

	subject, err := svc.Create(context.Background(), dto.CreateSubjectRequest{
		Code:    "mat201 ",
		Name:    "Calculus II",
		Credits: 6,
		Prerequisites: []dto.PrerequisiteRequest{
			{SubjectID: "s1", Mandatory: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT201", subject.Code, "codes are normalized")
	assert.True(t, subject.Active)
	require.Len(t, subject.Prerequisites, 1)
	assert.Equal(t, "MAT101", subject.Prerequisites[0].Code)
	require.NotNil(t, store.created)
}

func TestSubjectCreateDuplicateCode(t *testing.T) {
	svc, store := newSubjectFixture()
	store.byCode["MAT101"] = models.Subject{ID: "s1", Code: "MAT101"}

	_, err := svc.Create(context.Background(), dto.CreateSubjectRequest{Code: "MAT101", Name: "Calculus I", Credits: 6})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectCreateUnknownPrerequisite(t *testing.T) {
	svc, _ := newSubjectFixture()

	_, err := svc.Create(context.Background(), dto.CreateSubjectRequest{
		Code: "MAT201", Name: "Calculus II", Credits: 6,
		Prerequisites: []dto.PrerequisiteRequest{{SubjectID: "ghost", Mandatory: true}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectAddPrerequisiteSelf(t *testing.T) {
	svc, store := newSubjectFixture()
	store.byID["s1"] = models.Subject{ID: "s1", Code: "MAT101"}

	_, err := svc.AddPrerequisite(context.Background(), "s1", dto.PrerequisiteRequest{SubjectID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectAddPrerequisiteDuplicate(t *testing.T) {
	svc, store := newSubjectFixture()
	store.byID["s1"] = models.Subject{ID: "s1", Code: "MAT201",
		Prerequisites: []models.Prerequisite{{SubjectID: "s0", Code: "MAT101", Mandatory: true}}}
	store.byID["s0"] = models.Subject{ID: "s0", Code: "MAT101"}

	_, err := svc.AddPrerequisite(context.Background(), "s1", dto.PrerequisiteRequest{SubjectID: "s0"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectUpdate(t *testing.T) {
	svc, store := newSubjectFixture()
	store.byID["s1"] = models.Subject{ID: "s1", Code: "MAT101", Name: "Calculus I", Credits: 6, Active: true}
	inactive := false

	subject, err := svc.Update(context.Background(), "s1", dto.UpdateSubjectRequest{
		Name: "Calculus I (new syllabus)", Credits: 8, Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Calculus I (new syllabus)", subject.Name)
	assert.Equal(t, 8, subject.Credits)
	assert.False(t, subject.Active)
	require.NotNil(t, store.updated)
}

func TestSubjectGetNotFound(t *testing.T) {
	svc, _ := newSubjectFixture()
	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

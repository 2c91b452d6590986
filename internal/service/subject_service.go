package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/models"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
)

type subjectStore interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	AddPrerequisite(ctx context.Context, subjectID string, prereq models.Prerequisite) error
}

// SubjectService manages the subject catalog and its prerequisite graph.
type SubjectService struct {
	subjects  subjectStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(subjects subjectStore, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{subjects: subjects, validator: validate, logger: logger}
}

// Create registers a new subject. Codes are normalized and must be unique.
func (s *SubjectService) Create(ctx context.Context, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	code := models.NormalizeSubjectCode(req.Code)
	if existing, err := s.subjects.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("subject code %s already exists", code))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}

	subject := &models.Subject{
		Code:              code,
		Name:              req.Name,
		Credits:           req.Credits,
		HoursTheory:       req.HoursTheory,
		HoursPractice:     req.HoursPractice,
		HoursLab:          req.HoursLab,
		Department:        req.Department,
		SemesterSuggested: req.SemesterSuggested,
		Active:            true,
	}
	for _, p := range req.Prerequisites {
		prereq, err := s.resolvePrerequisite(ctx, p)
		if err != nil {
			return nil, err
		}
		subject.Prerequisites = append(subject.Prerequisites, *prereq)
	}
	if err := subject.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("code", subject.Code))
	return subject, nil
}

// Get returns a subject by ID with prerequisites loaded.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// List returns a filtered, paginated slice of the catalog.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update modifies mutable subject fields.
func (s *SubjectService) Update(ctx context.Context, id string, req dto.UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject.Name = req.Name
	subject.Credits = req.Credits
	subject.HoursTheory = req.HoursTheory
	subject.HoursPractice = req.HoursPractice
	subject.HoursLab = req.HoursLab
	subject.Department = req.Department
	subject.SemesterSuggested = req.SemesterSuggested
	if req.Active != nil {
		subject.Active = *req.Active
	}
	if err := subject.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.subjects.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// AddPrerequisite links a prerequisite edge to an existing subject.
func (s *SubjectService) AddPrerequisite(ctx context.Context, subjectID string, req dto.PrerequisiteRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	if subjectID == req.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a subject cannot be its own prerequisite")
	}
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	for _, p := range subject.Prerequisites {
		if p.SubjectID == req.SubjectID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "prerequisite already linked")
		}
	}
	prereq, err := s.resolvePrerequisite(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.subjects.AddPrerequisite(ctx, subjectID, *prereq); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add prerequisite")
	}
	subject.Prerequisites = append(subject.Prerequisites, *prereq)
	return subject, nil
}

func (s *SubjectService) resolvePrerequisite(ctx context.Context, req dto.PrerequisiteRequest) (*models.Prerequisite, error) {
	target, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("prerequisite subject %s does not exist", req.SubjectID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve prerequisite")
	}
	return &models.Prerequisite{
		SubjectID: target.ID,
		Code:      target.Code,
		Name:      target.Name,
		Mandatory: req.Mandatory,
	}, nil
}

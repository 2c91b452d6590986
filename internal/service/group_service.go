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

type groupCatalogStore interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error)
	ListBySubjectAndPeriod(ctx context.Context, subjectID, periodID string) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	AddSchedule(ctx context.Context, schedule *models.Schedule) error
	Deactivate(ctx context.Context, id string) error
}

type periodStore interface {
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	FindCurrent(ctx context.Context) (*models.AcademicPeriod, error)
	List(ctx context.Context) ([]models.AcademicPeriod, error)
	Create(ctx context.Context, period *models.AcademicPeriod) error
}

// GroupService manages group sections and academic periods.
type GroupService struct {
	groups    groupCatalogStore
	subjects  subjectReader
	periods   periodStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(groups groupCatalogStore, subjects subjectReader, periods periodStore, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{groups: groups, subjects: subjects, periods: periods, validator: validate, logger: logger}
}

// Create opens a new section of a subject in a period.
func (s *GroupService) Create(ctx context.Context, req dto.CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s does not exist", req.SubjectID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject")
	}
	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period %s does not exist", req.PeriodID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve period")
	}

	group := &models.Group{
		SubjectID:      subject.ID,
		PeriodID:       req.PeriodID,
		InstructorID:   req.InstructorID,
		GroupNumber:    req.GroupNumber,
		Capacity:       req.Capacity,
		Room:           req.Room,
		Active:         true,
		SubjectCode:    subject.Code,
		SubjectCredits: subject.Credits,
	}
	for _, slot := range req.Schedules {
		group.Schedules = append(group.Schedules, models.Schedule{
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Room:      slot.Room,
			Type:      scheduleType(slot.Type),
		})
	}
	if err := group.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	s.logger.Info("group created", zap.String("group_id", group.ID), zap.String("section", group.DisplayName()))
	return group, nil
}

// Get returns a group with its schedules loaded.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// ListByPeriod returns every active group of a period. Full groups are
// included with their live seat counts.
func (s *GroupService) ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error) {
	groups, err := s.groups.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// ListBySubject returns a subject's sections within a period.
func (s *GroupService) ListBySubject(ctx context.Context, subjectID, periodID string) ([]models.Group, error) {
	groups, err := s.groups.ListBySubjectAndPeriod(ctx, subjectID, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// AddSchedule appends a time slot to a group, rejecting overlaps with the
// group's own existing slots.
func (s *GroupService) AddSchedule(ctx context.Context, groupID string, req dto.CreateScheduleRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	schedule := models.Schedule{
		GroupID:   group.ID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
		Type:      scheduleType(req.Type),
	}
	if err := schedule.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	for _, existing := range group.Schedules {
		if schedule.Overlaps(existing) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("schedule overlaps existing slot on %s", models.DayName(schedule.DayOfWeek)))
		}
	}
	if err := s.groups.AddSchedule(ctx, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add schedule")
	}
	group.Schedules = append(group.Schedules, schedule)
	return group, nil
}

// Deactivate retires a group. Enrollment history is kept.
func (s *GroupService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.groups.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate group")
	}
	return nil
}

// CurrentPeriod returns the period flagged as current.
func (s *GroupService) CurrentPeriod(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.periods.FindCurrent(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current academic period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	return period, nil
}

// ListPeriods returns all academic periods, newest first.
func (s *GroupService) ListPeriods(ctx context.Context) ([]models.AcademicPeriod, error) {
	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// CreatePeriod registers a new academic period.
func (s *GroupService) CreatePeriod(ctx context.Context, period *models.AcademicPeriod) (*models.AcademicPeriod, error) {
	if err := period.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	return period, nil
}

func scheduleType(raw string) models.ScheduleType {
	switch models.ScheduleType(raw) {
	case models.ScheduleTypeLab:
		return models.ScheduleTypeLab
	case models.ScheduleTypeTutorial:
		return models.ScheduleTypeTutorial
	default:
		return models.ScheduleTypeLecture
	}
}

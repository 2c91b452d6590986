package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/models"
	"github.com/acadsys/uniplan-api/pkg/config"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
)

// lowSpotsThreshold triggers the "few spots left" warning in simulations.
const lowSpotsThreshold = 5

type planningGroupStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Group, error)
	ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error)
	ListByStudentActive(ctx context.Context, studentID string) ([]models.Group, error)
}

type planningSubjectStore interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListAllActive(ctx context.Context) ([]models.Subject, error)
}

type historyReader interface {
	History(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type planningCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// PlanningService answers the read-only planning questions: what-if
// simulations and the per-student availability partition. Neither
// operation writes anything.
type PlanningService struct {
	groups      planningGroupStore
	subjects    planningSubjectStore
	enrollments historyReader
	checker     *PrerequisiteChecker
	detector    *ConflictDetector
	cache       planningCache
	metrics     *MetricsService
	cfg         config.PlanningConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPlanningService constructs PlanningService. cache may be nil, which
// disables report caching; metrics may be nil.
func NewPlanningService(
	groups planningGroupStore,
	subjects planningSubjectStore,
	enrollments historyReader,
	checker *PrerequisiteChecker,
	detector *ConflictDetector,
	cache planningCache,
	metrics *MetricsService,
	cfg config.PlanningConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *PlanningService {
	if checker == nil {
		checker = NewPrerequisiteChecker(cfg.MaxAttempts)
	}
	if detector == nil {
		detector = NewConflictDetector()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCreditLoad < 1 {
		cfg.MaxCreditLoad = 24
	}
	if cfg.SimulationGroupLimit < 1 {
		cfg.SimulationGroupLimit = 10
	}
	return &PlanningService{
		groups:      groups,
		subjects:    subjects,
		enrollments: enrollments,
		checker:     checker,
		detector:    detector,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
	}
}

// Simulate runs a what-if over a candidate group set. It never writes and
// returns the same report for the same inputs.
func (s *PlanningService) Simulate(ctx context.Context, studentID string, req dto.SimulationRequest) (*dto.SimulationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid simulation payload")
	}
	if len(req.GroupIDs) > s.cfg.SimulationGroupLimit {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("at most %d groups per simulation", s.cfg.SimulationGroupLimit))
	}

	report := &dto.SimulationReport{
		Conflicts:          []dto.SimulationConflict{},
		PrerequisiteIssues: []string{},
		Warnings:           []string{},
	}

	resolved, err := s.groups.FindByIDs(ctx, req.GroupIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	byID := make(map[string]models.Group, len(resolved))
	for _, g := range resolved {
		byID[g.ID] = g
	}

	// Keep the caller's order; unknown IDs degrade to warnings.
	groups := make([]models.Group, 0, len(req.GroupIDs))
	for _, id := range req.GroupIDs {
		group, ok := byID[id]
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Group ID %s not found", id))
			continue
		}
		groups = append(groups, group)
	}

	history, err := s.enrollments.History(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}

	for _, group := range groups {
		report.TotalCredits += group.SubjectCredits

		if group.IsFull() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s is full (waitlist)", group.DisplayName()))
		} else if group.AvailableSpots() <= lowSpotsThreshold {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s has only %d spots left", group.DisplayName(), group.AvailableSpots()))
		}

		subject, err := s.subjects.FindByID(ctx, group.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Subject for group %s not found", group.DisplayName()))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		if ok, missing := s.checker.CheckPrerequisites(subject, history); !ok {
			for _, code := range missing {
				report.PrerequisiteIssues = append(report.PrerequisiteIssues,
					fmt.Sprintf("Missing prerequisite for %s: %s", subject.Code, code))
			}
		}
	}

	for _, conflict := range s.detector.DetectConflicts(groups) {
		day := models.DayName(conflict.ScheduleA.DayOfWeek)
		groupA, groupB := byID[conflict.GroupAID], byID[conflict.GroupBID]
		report.Conflicts = append(report.Conflicts, dto.SimulationConflict{
			Group1ID:    conflict.GroupAID,
			Group2ID:    conflict.GroupBID,
			Day:         day,
			TimeOverlap: fmt.Sprintf("%s ↔ %s", conflict.ScheduleA.TimeRange(), conflict.ScheduleB.TimeRange()),
			Message: fmt.Sprintf("Schedule conflict between %s and %s on %s",
				groupA.DisplayName(), groupB.DisplayName(), day),
		})
	}

	if report.TotalCredits > s.cfg.MaxCreditLoad {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Total credits (%d) exceeds recommended maximum (%d)", report.TotalCredits, s.cfg.MaxCreditLoad))
	} else if report.TotalCredits > s.cfg.MaxCreditLoad-3 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("High credit load (%d credits)", report.TotalCredits))
	}

	report.IsValid = len(report.Conflicts) == 0 && len(report.PrerequisiteIssues) == 0
	return report, nil
}

// AvailableGroups partitions a period's active groups into those the
// student may join and those blocked, with the blocking reason. Full groups
// stay in the eligible set; capacity is reported at enroll time, not here.
func (s *PlanningService) AvailableGroups(ctx context.Context, studentID, periodID string) (*dto.AvailableGroupsReport, error) {
	key := fmt.Sprintf("planning:available:%s:%s", studentID, periodID)
	if s.cacheEnabled() {
		var cached dto.AvailableGroupsReport
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		case errors.Is(err, appErrors.ErrCacheMiss):
			s.metrics.RecordCacheOperation(false)
		default:
			s.logger.Warn("planning cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	history, err := s.enrollments.History(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}
	groups, err := s.groups.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}

	passed := make(map[string]struct{})
	for _, item := range history {
		if item.Status == models.EnrollmentStatusPassed && item.SubjectCode != "" {
			passed[item.SubjectCode] = struct{}{}
		}
	}

	report := &dto.AvailableGroupsReport{
		Eligible:   []models.Group{},
		Ineligible: []dto.IneligibleGroup{},
	}
	subjectsByID := make(map[string]*models.Subject)
	for _, group := range groups {
		if _, ok := passed[group.SubjectCode]; ok {
			continue
		}
		subject, ok := subjectsByID[group.SubjectID]
		if !ok {
			subject, err = s.subjects.FindByID(ctx, group.SubjectID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
			}
			subjectsByID[group.SubjectID] = subject
		}
		if ok, reason := s.checker.ValidateEnrollment(subject, history); ok {
			report.Eligible = append(report.Eligible, group)
		} else {
			report.Ineligible = append(report.Ineligible, dto.IneligibleGroup{
				GroupID:     group.ID,
				SubjectCode: group.SubjectCode,
				Reason:      reason,
			})
		}
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, report, s.cfg.AvailableGroupsTTL); err != nil {
			s.logger.Warn("planning cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

// AvailableSubjects lists the active subjects the student could start now.
func (s *PlanningService) AvailableSubjects(ctx context.Context, studentID string) ([]models.Subject, error) {
	history, err := s.enrollments.History(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}
	all, err := s.subjects.ListAllActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	var inProgress []string
	for _, item := range history {
		if item.Status.IsActive() {
			inProgress = append(inProgress, item.SubjectID)
		}
	}
	return s.checker.AvailableSubjects(all, history, inProgress), nil
}

func (s *PlanningService) cacheEnabled() bool {
	return s.cache != nil && s.cfg.AvailableGroupsCaching
}

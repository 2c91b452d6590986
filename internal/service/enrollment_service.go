package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/uniplan-api/internal/dto"
	"github.com/acadsys/uniplan-api/internal/models"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
)

type enrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	History(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, groupID string) (bool, error)
	CountAttempts(ctx context.Context, studentID, subjectID string) (int, error)
	Apply(ctx context.Context, enrollment *models.Enrollment, groupID string) error
	Drop(ctx context.Context, id, groupID string, status models.EnrollmentStatus) error
	Complete(ctx context.Context, id string, status models.EnrollmentStatus, grade float64, letter string) error
}

type groupStore interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListByStudentActive(ctx context.Context, studentID string) ([]models.Group, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type reportCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// EnrollmentService orchestrates the enroll/drop/grade lifecycle. Enroll is
// the only operation in the core with a write side effect.
type EnrollmentService struct {
	enrollments enrollmentStore
	groups      groupStore
	subjects    subjectReader
	checker     *PrerequisiteChecker
	detector    *ConflictDetector
	cache       reportCache
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(
	enrollments enrollmentStore,
	groups groupStore,
	subjects subjectReader,
	checker *PrerequisiteChecker,
	detector *ConflictDetector,
	cache reportCache,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if checker == nil {
		checker = NewPrerequisiteChecker(0)
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
	return &EnrollmentService{
		enrollments: enrollments,
		groups:      groups,
		subjects:    subjects,
		checker:     checker,
		detector:    detector,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll registers a student in a group. Expected business rejections are
// reported through the result payload; the error return is reserved for
// infrastructure faults.
func (s *EnrollmentService) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	group, err := s.groups.FindByID(ctx, req.GroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return reject(fmt.Sprintf("Group with ID %s not found", req.GroupID)), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if !group.Active {
		return reject("Group is not active"), nil
	}
	if group.IsFull() {
		return reject("Group is at full capacity"), nil
	}

	exists, err := s.enrollments.ExistsActive(ctx, req.StudentID, req.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return reject("Already enrolled in this group"), nil
	}

	if !req.SkipPrerequisites {
		subject, err := s.subjects.FindByID(ctx, group.SubjectID)
		if err != nil {
			if err == sql.ErrNoRows {
				return reject(fmt.Sprintf("Subject with ID %s not found", group.SubjectID)), nil
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		history, err := s.enrollments.History(ctx, req.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
		}
		if ok, reason := s.checker.ValidateEnrollment(subject, history); !ok {
			return reject(reason), nil
		}
	}

	if !req.SkipConflicts {
		enrolled, err := s.groups.ListByStudentActive(ctx, req.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current enrollments")
		}
		if s.detector.HasConflict(group, enrolled) {
			result := reject("Schedule conflict with current enrollments")
			result.ConflictDetails = s.detector.ConflictDetails(group, enrolled)
			return result, nil
		}
	}

	attempts, err := s.enrollments.CountAttempts(ctx, req.StudentID, group.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}

	enrollment := &models.Enrollment{
		StudentID:     req.StudentID,
		GroupID:       group.ID,
		Status:        models.EnrollmentStatusEnrolled,
		AttemptNumber: attempts + 1,
	}
	if err := s.enrollments.Apply(ctx, enrollment, group.ID); err != nil {
		if errors.Is(err, appErrors.ErrCapacityExceeded) {
			// Lost the seat to a concurrent request; report it exactly
			// like the optimistic capacity check.
			return reject("Group is at full capacity"), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply enrollment")
	}

	s.invalidatePlanning(ctx, req.StudentID)
	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("group_id", group.ID),
		zap.Int("attempt", enrollment.AttemptNumber),
	)
	return &dto.EnrollmentResult{
		Success:       true,
		EnrollmentID:  enrollment.ID,
		AttemptNumber: enrollment.AttemptNumber,
	}, nil
}

// Drop cancels an active enrollment and releases its seat.
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string, req dto.DropRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot drop another student's enrollment")
	}
	if !enrollment.Status.CanTransitionTo(models.EnrollmentStatusDropped) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only active enrollments can be dropped")
	}
	if err := s.enrollments.Drop(ctx, enrollmentID, enrollment.GroupID, models.EnrollmentStatusDropped); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "enrollment is no longer active")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	s.invalidatePlanning(ctx, req.StudentID)
	enrollment.Status = models.EnrollmentStatusDropped
	return enrollment, nil
}

// RecordGrade completes an enrollment with a final grade, moving it to
// PASSED or FAILED through the status transition table.
func (s *EnrollmentService) RecordGrade(ctx context.Context, enrollmentID string, req dto.RecordGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	target := models.EnrollmentStatusFailed
	if req.Passed {
		target = models.EnrollmentStatusPassed
	}
	if !enrollment.Status.CanTransitionTo(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus,
			fmt.Sprintf("cannot move enrollment from %s to %s", enrollment.Status, target))
	}
	letter := models.LetterGrade(req.Grade)
	if err := s.enrollments.Complete(ctx, enrollmentID, target, req.Grade, letter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	enrollment.Status = target
	enrollment.Grade = &req.Grade
	enrollment.GradeLetter = &letter
	return enrollment, nil
}

// History returns the student's denormalized history with a credit and
// GPA summary.
func (s *EnrollmentService) History(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	history, err := s.enrollments.History(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}

	summary := &models.AcademicSummary{
		StudentID:          studentID,
		CurrentEnrollments: []models.Enrollment{},
		History:            []models.Enrollment{},
	}
	var gradePoints, gradedCredits float64
	for _, item := range history {
		if item.Status.IsActive() {
			summary.CurrentEnrollments = append(summary.CurrentEnrollments, item)
			summary.SubjectsInProgress++
			summary.TotalCreditsAttempted += item.SubjectCredits
			continue
		}
		summary.History = append(summary.History, item)
		switch item.Status {
		case models.EnrollmentStatusPassed:
			summary.SubjectsPassed++
			summary.TotalCreditsAttempted += item.SubjectCredits
			summary.TotalCreditsEarned += item.SubjectCredits
			if item.Grade != nil {
				gradePoints += *item.Grade * float64(item.SubjectCredits)
				gradedCredits += float64(item.SubjectCredits)
			}
		case models.EnrollmentStatusFailed:
			summary.SubjectsFailed++
			summary.TotalCreditsAttempted += item.SubjectCredits
		}
	}
	if gradedCredits > 0 {
		summary.GPA = math.Round(gradePoints/gradedCredits*100) / 100
	}
	return summary, nil
}

func (s *EnrollmentService) invalidatePlanning(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("planning:available:%s:*", studentID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate planning cache", zap.String("pattern", pattern), zap.Error(err))
	}
}

func reject(message string) *dto.EnrollmentResult {
	return &dto.EnrollmentResult{Success: false, ErrorMessage: message}
}

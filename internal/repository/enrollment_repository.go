package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/uniplan-api/internal/models"
	appErrors "github.com/acadsys/uniplan-api/pkg/errors"
)

// EnrollmentRepository handles persistence of enrollments. It owns the
// single write path that must respect group capacity.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentSelect = `SELECT e.id, e.student_id, e.group_id, e.status, e.grade, e.grade_letter,
        e.attempt_number, e.enrolled_at, e.completed_at,
        g.subject_id AS subject_id, s.code AS subject_code, s.credits AS subject_credits,
        p.code AS period_code
        FROM enrollments e
        JOIN groups g ON g.id = e.group_id
        JOIN subjects s ON s.id = g.subject_id
        JOIN academic_periods p ON p.id = g.period_id`

// FindByID returns an enrollment with subject and period projections.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, enrollmentSelect+" WHERE e.id = $1", id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// History returns the student's complete, denormalized academic history.
func (r *EnrollmentRepository) History(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	query := enrollmentSelect + " WHERE e.student_id = $1 ORDER BY e.enrolled_at DESC"
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("load academic history: %w", err)
	}
	return enrollments, nil
}

// ExistsActive checks for an active record for the (student, group) pair.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, groupID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND group_id = $2 AND status IN ($3, $4) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, studentID, groupID,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusPending)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CountAttempts counts the student's enrollments in any group of the
// subject, regardless of status.
func (r *EnrollmentRepository) CountAttempts(ctx context.Context, studentID, subjectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments e
        JOIN groups g ON g.id = e.group_id
        WHERE e.student_id = $1 AND g.subject_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, subjectID); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// Apply atomically creates the enrollment and claims one seat. The seat is
// claimed by a conditional increment scoped to the group row; when the
// group filled up concurrently the transaction rolls back and
// appErrors.ErrCapacityExceeded is returned.
func (r *EnrollmentRepository) Apply(ctx context.Context, enrollment *models.Enrollment, groupID string) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	enrollment.GroupID = groupID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const claim = `UPDATE groups SET enrolled_count = enrolled_count + 1
        WHERE id = $1 AND active = TRUE AND enrolled_count < capacity`
	result, err := tx.ExecContext(ctx, claim, groupID)
	if err != nil {
		return fmt.Errorf("claim group seat: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim group seat: %w", err)
	}
	if rows == 0 {
		return appErrors.ErrCapacityExceeded
	}

	const insert = `INSERT INTO enrollments (id, student_id, group_id, status, attempt_number, enrolled_at)
        VALUES (:id, :student_id, :group_id, :status, :attempt_number, :enrolled_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return tx.Commit()
}

// Drop releases an active enrollment and frees its seat in one transaction.
func (r *EnrollmentRepository) Drop(ctx context.Context, id, groupID string, status models.EnrollmentStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drop enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE enrollments SET status = $2 WHERE id = $1 AND status IN ($3, $4)`
	result, err := tx.ExecContext(ctx, update, id, status,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusPending)
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const release = `UPDATE groups SET enrolled_count = enrolled_count - 1 WHERE id = $1 AND enrolled_count > 0`
	if _, err := tx.ExecContext(ctx, release, groupID); err != nil {
		return fmt.Errorf("release group seat: %w", err)
	}
	return tx.Commit()
}

// Complete records a final grade and moves the enrollment to a terminal
// state. Transition legality is validated by the caller.
func (r *EnrollmentRepository) Complete(ctx context.Context, id string, status models.EnrollmentStatus, grade float64, letter string) error {
	const query = `UPDATE enrollments SET status = $2, grade = $3, grade_letter = $4, completed_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, grade, letter, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete enrollment: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

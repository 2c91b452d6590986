package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/uniplan-api/internal/models"
)

// GroupRepository handles persistence of groups and their schedules.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupSelect = `SELECT g.id, g.subject_id, g.period_id, g.instructor_id, g.group_number,
        g.capacity, g.enrolled_count, g.room, g.active, g.created_at,
        s.code AS subject_code, s.credits AS subject_credits
        FROM groups g
        JOIN subjects s ON s.id = g.subject_id`

// FindByID returns a group with schedules and subject projections loaded.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, groupSelect+" WHERE g.id = $1", id); err != nil {
		return nil, err
	}
	if err := r.loadSchedules(ctx, []*models.Group{&group}); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByIDs returns the resolvable subset of the requested groups, hydrated.
func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(groupSelect+" WHERE g.id IN (?) ORDER BY s.code, g.group_number", ids)
	if err != nil {
		return nil, fmt.Errorf("expand group ids: %w", err)
	}
	query = r.db.Rebind(query)
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	if err := r.loadScheduleSlice(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListByPeriod returns every active group offered in a period, hydrated.
// Full groups are included; capacity is not a filter at this layer.
func (r *GroupRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error) {
	var groups []models.Group
	query := groupSelect + " WHERE g.period_id = $1 AND g.active = TRUE ORDER BY s.code, g.group_number"
	if err := r.db.SelectContext(ctx, &groups, query, periodID); err != nil {
		return nil, fmt.Errorf("list groups by period: %w", err)
	}
	if err := r.loadScheduleSlice(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListBySubjectAndPeriod returns a subject's sections in a period.
func (r *GroupRepository) ListBySubjectAndPeriod(ctx context.Context, subjectID, periodID string) ([]models.Group, error) {
	var groups []models.Group
	query := groupSelect + " WHERE g.subject_id = $1 AND g.period_id = $2 AND g.active = TRUE ORDER BY g.group_number"
	if err := r.db.SelectContext(ctx, &groups, query, subjectID, periodID); err != nil {
		return nil, fmt.Errorf("list groups by subject: %w", err)
	}
	if err := r.loadScheduleSlice(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListByStudentActive returns the hydrated groups behind a student's
// active (ENROLLED or PENDING) enrollments.
func (r *GroupRepository) ListByStudentActive(ctx context.Context, studentID string) ([]models.Group, error) {
	var groups []models.Group
	query := groupSelect + ` JOIN enrollments e ON e.group_id = g.id
        WHERE e.student_id = $1 AND e.status IN ($2, $3)`
	if err := r.db.SelectContext(ctx, &groups, query, studentID,
		models.EnrollmentStatusEnrolled, models.EnrollmentStatusPending); err != nil {
		return nil, fmt.Errorf("list enrolled groups: %w", err)
	}
	if err := r.loadScheduleSlice(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Create persists a new group together with its schedules.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	group.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create group: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO groups (id, subject_id, period_id, instructor_id, group_number,
        capacity, enrolled_count, room, active, created_at)
        VALUES (:id, :subject_id, :period_id, :instructor_id, :group_number,
        :capacity, :enrolled_count, :room, :active, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	for i := range group.Schedules {
		group.Schedules[i].GroupID = group.ID
		if err := insertSchedule(ctx, tx, &group.Schedules[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddSchedule appends a time slot to an existing group.
func (r *GroupRepository) AddSchedule(ctx context.Context, schedule *models.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add schedule: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := insertSchedule(ctx, tx, schedule); err != nil {
		return err
	}
	return tx.Commit()
}

// Deactivate retires a group without deleting its enrollment history.
func (r *GroupRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE groups SET active = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate group: %w", err)
	}
	return nil
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Type == "" {
		schedule.Type = models.ScheduleTypeLecture
	}
	const query = `INSERT INTO schedules (id, group_id, day_of_week, start_time, end_time, room, type)
        VALUES (:id, :group_id, :day_of_week, :start_time, :end_time, :room, :type)`
	if _, err := tx.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (r *GroupRepository) loadScheduleSlice(ctx context.Context, groups []models.Group) error {
	refs := make([]*models.Group, len(groups))
	for i := range groups {
		refs[i] = &groups[i]
	}
	return r.loadSchedules(ctx, refs)
}

func (r *GroupRepository) loadSchedules(ctx context.Context, groups []*models.Group) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]string, len(groups))
	byID := make(map[string]*models.Group, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
		byID[g.ID] = g
	}
	query, args, err := sqlx.In(`SELECT id, group_id, day_of_week, start_time, end_time, room, type
        FROM schedules WHERE group_id IN (?) ORDER BY day_of_week, start_time`, ids)
	if err != nil {
		return fmt.Errorf("expand schedule ids: %w", err)
	}
	query = r.db.Rebind(query)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	for _, sched := range schedules {
		if g, ok := byID[sched.GroupID]; ok {
			g.Schedules = append(g.Schedules, sched)
		}
	}
	return nil
}

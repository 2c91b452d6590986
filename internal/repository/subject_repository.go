package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/uniplan-api/internal/models"
)

// SubjectRepository handles persistence of subjects and prerequisite edges.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = `id, code, name, credits, hours_theory, hours_practice, hours_lab,
        department, semester_suggested, active, created_at, updated_at`

// FindByID returns a subject with its prerequisites loaded.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE id = $1`, subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	if err := r.loadPrerequisites(ctx, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByCode returns a subject by its normalized code.
func (r *SubjectRepository) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE code = $1`, subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, models.NormalizeSubjectCode(code)); err != nil {
		return nil, err
	}
	if err := r.loadPrerequisites(ctx, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// List returns subjects filtered by the provided criteria.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester_suggested = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	sortBy := "code"
	if filter.SortBy == "name" {
		sortBy = "name"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM subjects%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		subjectColumns, clause, sortBy, order, size, offset)

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM subjects" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// ListAllActive returns every active subject with prerequisites loaded.
func (r *SubjectRepository) ListAllActive(ctx context.Context) ([]models.Subject, error) {
	query := fmt.Sprintf(`SELECT %s FROM subjects WHERE active = TRUE ORDER BY code`, subjectColumns)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}
	for i := range subjects {
		if err := r.loadPrerequisites(ctx, &subjects[i]); err != nil {
			return nil, err
		}
	}
	return subjects, nil
}

// Create persists a new subject with its prerequisite edges.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create subject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO subjects (id, code, name, credits, hours_theory, hours_practice, hours_lab,
        department, semester_suggested, active, created_at, updated_at)
        VALUES (:id, :code, :name, :credits, :hours_theory, :hours_practice, :hours_lab,
        :department, :semester_suggested, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	for _, prereq := range subject.Prerequisites {
		if err := insertPrerequisite(ctx, tx, subject.ID, prereq); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update modifies mutable subject fields.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, credits = :credits, hours_theory = :hours_theory,
        hours_practice = :hours_practice, hours_lab = :hours_lab, department = :department,
        semester_suggested = :semester_suggested, active = :active, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, subject)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddPrerequisite links a prerequisite edge to an existing subject.
func (r *SubjectRepository) AddPrerequisite(ctx context.Context, subjectID string, prereq models.Prerequisite) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add prerequisite: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := insertPrerequisite(ctx, tx, subjectID, prereq); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPrerequisite(ctx context.Context, tx *sqlx.Tx, subjectID string, prereq models.Prerequisite) error {
	const query = `INSERT INTO subject_prerequisites (id, subject_id, prerequisite_id, mandatory)
        VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), subjectID, prereq.SubjectID, prereq.Mandatory); err != nil {
		return fmt.Errorf("add prerequisite: %w", err)
	}
	return nil
}

func (r *SubjectRepository) loadPrerequisites(ctx context.Context, subject *models.Subject) error {
	const query = `SELECT sp.prerequisite_id, s.code, s.name, sp.mandatory
        FROM subject_prerequisites sp
        JOIN subjects s ON s.id = sp.prerequisite_id
        WHERE sp.subject_id = $1
        ORDER BY s.code`
	var prereqs []models.Prerequisite
	if err := r.db.SelectContext(ctx, &prereqs, query, subject.ID); err != nil {
		return fmt.Errorf("load prerequisites: %w", err)
	}
	subject.Prerequisites = prereqs
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/uniplan-api/internal/models"
)

// PeriodRepository handles persistence of academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

const periodColumns = `id, code, name, start_date, end_date, enrollment_start, enrollment_end,
        current, active, created_at`

// FindByID returns a period by its ID.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_periods WHERE id = $1`, periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindCurrent returns the period flagged as current, if any.
func (r *PeriodRepository) FindCurrent(ctx context.Context) (*models.AcademicPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_periods WHERE current = TRUE LIMIT 1`, periodColumns)
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// List returns periods ordered by start date, newest first.
func (r *PeriodRepository) List(ctx context.Context) ([]models.AcademicPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_periods ORDER BY start_date DESC`, periodColumns)
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// Create persists a new academic period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	period.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO academic_periods (id, code, name, start_date, end_date,
        enrollment_start, enrollment_end, current, active, created_at)
        VALUES (:id, :code, :name, :start_date, :end_date,
        :enrollment_start, :enrollment_end, :current, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

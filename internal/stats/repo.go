package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"nregahub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const statCols = `id, district_id, year, month,
	job_cards_issued, total_workers, active_workers,
	work_days, avg_days_per_household,
	total_expenditure, wage_expenditure, material_expenditure,
	employment_rate, works_completed, works_in_progress,
	created_at, updated_at`

// Upsert writes one statistic row under its natural key, replacing all
// metric fields when the row already exists. The UNIQUE(district_id, year,
// month) index makes the write atomic, so concurrent upserts to the same key
// cannot produce duplicate rows; the prior existence check only decides the
// created/updated label. A nil month is stored as 0 (annual row).
func (r *Repo) Upsert(ctx context.Context, s models.PeriodStatistic) (created bool, err error) {
	month := 0
	if s.Month != nil {
		month = *s.Month
	}

	var existingID int64
	err = r.DB.QueryRowContext(ctx, `
		SELECT id FROM period_statistics
		WHERE district_id = ? AND year = ? AND month = ?
	`, s.DistrictID, s.Year, month).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("lookup statistic: %w", err)
	}
	created = err == sql.ErrNoRows

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO period_statistics (
			district_id, year, month,
			job_cards_issued, total_workers, active_workers,
			work_days, avg_days_per_household,
			total_expenditure, wage_expenditure, material_expenditure,
			employment_rate, works_completed, works_in_progress,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(district_id, year, month) DO UPDATE SET
			job_cards_issued = excluded.job_cards_issued,
			total_workers = excluded.total_workers,
			active_workers = excluded.active_workers,
			work_days = excluded.work_days,
			avg_days_per_household = excluded.avg_days_per_household,
			total_expenditure = excluded.total_expenditure,
			wage_expenditure = excluded.wage_expenditure,
			material_expenditure = excluded.material_expenditure,
			employment_rate = excluded.employment_rate,
			works_completed = excluded.works_completed,
			works_in_progress = excluded.works_in_progress,
			updated_at = CURRENT_TIMESTAMP
	`,
		s.DistrictID, s.Year, month,
		s.JobCardsIssued, s.TotalWorkers, s.ActiveWorkers,
		s.WorkDays.String(), s.AvgDaysPerHousehold.String(),
		s.TotalExpenditure.String(), s.WageExpenditure.String(), s.MaterialExpenditure.String(),
		s.EmploymentRate.String(), s.WorksCompleted, s.WorksInProgress,
	)
	if err != nil {
		return false, fmt.Errorf("upsert statistic %s %d/%d: %w", s.DistrictID, s.Year, month, err)
	}
	return created, nil
}

func (r *Repo) ListByDistrict(ctx context.Context, districtID string, year, limit, offset int) ([]models.PeriodStatistic, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 36
	}
	if offset < 0 {
		offset = 0
	}

	where := `WHERE district_id = ?`
	args := []any{districtID}
	if year > 0 {
		where += ` AND year = ?`
		args = append(args, year)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM period_statistics `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count statistics: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+statCols+`
		FROM period_statistics `+where+`
		ORDER BY year DESC, month DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list statistics: %w", err)
	}
	defer rows.Close()

	out := make([]models.PeriodStatistic, 0, limit)
	for rows.Next() {
		s, err := scanStatistic(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan statistic: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *Repo) Latest(ctx context.Context, districtID string) (*models.PeriodStatistic, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+statCols+`
		FROM period_statistics
		WHERE district_id = ?
		ORDER BY year DESC, month DESC
		LIMIT 1
	`, districtID)

	s, err := scanStatistic(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest statistic: %w", err)
	}
	return s, nil
}

// DistrictIDsWithData backs the orchestrator's skip-existing option.
func (r *Repo) DistrictIDsWithData(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT district_id FROM period_statistics`)
	if err != nil {
		return nil, fmt.Errorf("districts with data: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan district id: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) CountDistrictsWithData(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT district_id) FROM period_statistics`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count districts with data: %w", err)
	}
	return n, nil
}

// StateCoverage is one row of the per-state health breakdown.
type StateCoverage struct {
	State    string `json:"state"`
	Total    int    `json:"total"`
	WithData int    `json:"with_data"`
}

func (r *Repo) CoverageByState(ctx context.Context) ([]StateCoverage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.state,
		       COUNT(*),
		       COUNT(DISTINCT ps.district_id)
		FROM districts d
		LEFT JOIN period_statistics ps ON ps.district_id = d.id
		GROUP BY d.state
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("coverage by state: %w", err)
	}
	defer rows.Close()

	var out []StateCoverage
	for rows.Next() {
		var sc StateCoverage
		if err := rows.Scan(&sc.State, &sc.Total, &sc.WithData); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanStatistic(row scannable) (*models.PeriodStatistic, error) {
	var (
		s                                                       models.PeriodStatistic
		month                                                   int
		workDays, avgDays, totalExp, wageExp, materialExp, rate string
	)
	if err := row.Scan(
		&s.ID, &s.DistrictID, &s.Year, &month,
		&s.JobCardsIssued, &s.TotalWorkers, &s.ActiveWorkers,
		&workDays, &avgDays,
		&totalExp, &wageExp, &materialExp,
		&rate, &s.WorksCompleted, &s.WorksInProgress,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if month != 0 {
		s.Month = &month
	}

	var err error
	if s.WorkDays, err = decimal.NewFromString(workDays); err != nil {
		return nil, fmt.Errorf("parse work_days %q: %w", workDays, err)
	}
	if s.AvgDaysPerHousehold, err = decimal.NewFromString(avgDays); err != nil {
		return nil, fmt.Errorf("parse avg_days_per_household %q: %w", avgDays, err)
	}
	if s.TotalExpenditure, err = decimal.NewFromString(totalExp); err != nil {
		return nil, fmt.Errorf("parse total_expenditure %q: %w", totalExp, err)
	}
	if s.WageExpenditure, err = decimal.NewFromString(wageExp); err != nil {
		return nil, fmt.Errorf("parse wage_expenditure %q: %w", wageExp, err)
	}
	if s.MaterialExpenditure, err = decimal.NewFromString(materialExp); err != nil {
		return nil, fmt.Errorf("parse material_expenditure %q: %w", materialExp, err)
	}
	if s.EmploymentRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse employment_rate %q: %w", rate, err)
	}

	return &s, nil
}

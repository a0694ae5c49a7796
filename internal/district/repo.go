package district

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"nregahub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const districtCols = `id, name, state, district_code, population, latitude, longitude, created_at, updated_at`

func (r *Repo) GetByCode(ctx context.Context, code string) (*models.District, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+districtCols+`
		FROM districts
		WHERE UPPER(district_code) = UPPER(?)
	`, strings.TrimSpace(code))

	d, err := scanDistrict(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get district by code: %w", err)
	}
	return d, nil
}

func (r *Repo) List(ctx context.Context, state string) ([]models.District, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if state == "" {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT `+districtCols+`
			FROM districts
			ORDER BY state, name
		`)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT `+districtCols+`
			FROM districts
			WHERE LOWER(state) = LOWER(?)
			ORDER BY name
		`, strings.TrimSpace(state))
	}
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()

	var out []models.District
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM districts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count districts: %w", err)
	}
	return n, nil
}

// Upsert creates or updates a district keyed by its code. New rows get a
// fresh UUID; existing rows keep theirs. Returns whether a row was created.
func (r *Repo) Upsert(ctx context.Context, d models.District) (bool, error) {
	existing, err := r.GetByCode(ctx, d.DistrictCode)
	if err != nil {
		return false, err
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO districts (id, name, state, district_code, population, latitude, longitude, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(district_code) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			population = COALESCE(excluded.population, districts.population),
			latitude = COALESCE(excluded.latitude, districts.latitude),
			longitude = COALESCE(excluded.longitude, districts.longitude),
			updated_at = CURRENT_TIMESTAMP
	`, d.ID, d.Name, d.State, strings.TrimSpace(d.DistrictCode),
		nullInt64(d.Population), nullFloat(d.Latitude), nullFloat(d.Longitude))
	if err != nil {
		return false, fmt.Errorf("upsert district %s: %w", d.DistrictCode, err)
	}

	return existing == nil, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDistrict(row scannable) (*models.District, error) {
	var (
		d          models.District
		population sql.NullInt64
		latitude   sql.NullFloat64
		longitude  sql.NullFloat64
	)
	if err := row.Scan(
		&d.ID, &d.Name, &d.State, &d.DistrictCode,
		&population, &latitude, &longitude,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if population.Valid {
		d.Population = &population.Int64
	}
	if latitude.Valid {
		d.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		d.Longitude = &longitude.Float64
	}
	return &d, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

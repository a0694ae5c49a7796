package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one flat key/value object as decoded from the open-data API.
// Field names vary across API schema revisions, so nothing downstream reads
// it directly; the normalizer resolves it into Metrics first.
type RawRecord map[string]any

// Metrics is the fixed set of numeric fields tracked per district per period.
// Financial and day-count fields are exact decimals; the upstream feed
// reports rupee totals that must not be rounded through binary floats.
type Metrics struct {
	JobCardsIssued      int             `json:"job_cards_issued"`
	TotalWorkers        int             `json:"total_workers"`
	ActiveWorkers       int             `json:"active_workers"`
	WorkDays            decimal.Decimal `json:"work_days"`
	AvgDaysPerHousehold decimal.Decimal `json:"avg_days_per_household"`
	TotalExpenditure    decimal.Decimal `json:"total_expenditure"`
	WageExpenditure     decimal.Decimal `json:"wage_expenditure"`
	MaterialExpenditure decimal.Decimal `json:"material_expenditure"`
	EmploymentRate      decimal.Decimal `json:"employment_rate"`
	WorksCompleted      int             `json:"works_completed"`
	WorksInProgress     int             `json:"works_in_progress"`
}

// PeriodStatistic is one persisted reporting period for one district.
// (DistrictID, Year, Month) is the natural key; Month nil means an
// annual/aggregate record.
type PeriodStatistic struct {
	ID         int64  `json:"id"`
	DistrictID string `json:"district_id"`
	Year       int    `json:"year"`
	Month      *int   `json:"month"`
	Metrics
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

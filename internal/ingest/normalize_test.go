package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nregahub/pkg/models"
)

func testNormalizer() *Normalizer {
	n := NewNormalizer()
	n.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return n
}

func TestNormalizeSentinelsYieldDefaults(t *testing.T) {
	for _, sentinel := range []any{"NA", "n/a", "-", "nil", "NULL", "", nil} {
		n := testNormalizer()
		out := n.Normalize(models.RawRecord{
			"district_code":    "MH-PUN",
			"total_workers":    sentinel,
			"wage_expenditure": sentinel,
		})

		assert.Equal(t, 0, out.Metrics.TotalWorkers, "sentinel %v", sentinel)
		assert.True(t, out.Metrics.WageExpenditure.IsZero(), "sentinel %v", sentinel)
	}
}

func TestNormalizeEmptyStringCountsAsCoercion(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{
		"district_code":    "MH-PUN",
		"total_workers":    "",
		"wage_expenditure": " ",
	})

	assert.Equal(t, 0, out.Metrics.TotalWorkers)
	assert.True(t, out.Metrics.WageExpenditure.IsZero())
	assert.Equal(t, 2, n.Fallbacks(), "present-but-empty values are audited like the other sentinels")
}

func TestNormalizeYear(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{"2024", 2024},
		{"24", 2024},
		{"2024-25", 2024},
		{float64(2023), 2023},
		{float64(23), 2023},
		{"garbage", 2026}, // processing year
	}

	for _, tt := range tests {
		n := testNormalizer()
		out := n.Normalize(models.RawRecord{"financial_year": tt.raw})
		assert.Equal(t, tt.want, out.Year, "raw %v", tt.raw)
	}
}

func TestNormalizeYearMissingDefaultsToProcessingYear(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{"district_code": "MH-PUN"})
	assert.Equal(t, 2026, out.Year)
}

func TestNormalizeMonth(t *testing.T) {
	one := 1
	tests := []struct {
		raw  any
		want *int
	}{
		{"JAN", &one},
		{"jan", &one},
		{"January", &one},
		{"1", &one},
		{float64(1), &one},
		{"13", nil},
		{"Undecember", nil},
		{nil, nil},
	}

	for _, tt := range tests {
		n := testNormalizer()
		out := n.Normalize(models.RawRecord{"month": tt.raw})
		if tt.want == nil {
			assert.Nil(t, out.Month, "raw %v", tt.raw)
		} else {
			require.NotNil(t, out.Month, "raw %v", tt.raw)
			assert.Equal(t, *tt.want, *out.Month, "raw %v", tt.raw)
		}
	}
}

func TestNormalizeNumericCoercion(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{
		"total_workers":     "12,345",
		"total_expenditure": "1,234,567.89",
		"works_completed":   "120.0",
	})

	assert.Equal(t, 12345, out.Metrics.TotalWorkers)
	assert.True(t, out.Metrics.TotalExpenditure.Equal(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, 120, out.Metrics.WorksCompleted)
}

func TestNormalizeDecimalKeepsExactValue(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{"wage_expenditure": "9007199254740993.10"})

	// a value float64 cannot hold exactly
	assert.Equal(t, "9007199254740993.1", out.Metrics.WageExpenditure.String())
}

func TestNormalizeAliasOrder(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{
		"total_job_cards_issued": "100",
		"total_job_cards":        "200",
	})
	assert.Equal(t, 100, out.Metrics.JobCardsIssued, "first alias present wins")

	out = n.Normalize(models.RawRecord{"total_job_cards": "200"})
	assert.Equal(t, 200, out.Metrics.JobCardsIssued)
}

func TestNormalizeKeyCasingDrift(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{
		"District_Code": "MH-PUN",
		"TOTAL_WORKERS": "42",
	})

	assert.Equal(t, "MH-PUN", out.DistrictCode)
	assert.Equal(t, 42, out.Metrics.TotalWorkers)
}

func TestNormalizeEmploymentRateDerived(t *testing.T) {
	n := testNormalizer()
	out := n.Normalize(models.RawRecord{
		"total_households_worked":      "50",
		"total_no_of_active_job_cards": "200",
	})
	assert.True(t, out.Metrics.EmploymentRate.Equal(decimal.NewFromInt(25)))

	// zero denominator defines the rate as zero
	out = n.Normalize(models.RawRecord{
		"total_households_worked":      "50",
		"total_no_of_active_job_cards": "0",
	})
	assert.True(t, out.Metrics.EmploymentRate.IsZero())

	// explicit rate wins over derivation
	out = n.Normalize(models.RawRecord{
		"employment_rate":              "80.5",
		"total_households_worked":      "50",
		"total_no_of_active_job_cards": "200",
	})
	assert.True(t, out.Metrics.EmploymentRate.Equal(decimal.RequireFromString("80.5")))
}

func TestNormalizeCountsFallbacks(t *testing.T) {
	n := testNormalizer()
	n.Normalize(models.RawRecord{
		"total_workers":     "NA",
		"total_expenditure": "not-a-number",
		"active_workers":    "77",
	})

	assert.Equal(t, 2, n.Fallbacks())
}

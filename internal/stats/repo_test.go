package stats

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nregahub/internal/district"
	"nregahub/pkg/database"
	"nregahub/pkg/models"
)

func setup(t *testing.T) (*Repo, *district.Repo) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(db), district.NewRepo(db)
}

func mustDistrict(t *testing.T, districts *district.Repo, code, name, state string) models.District {
	t.Helper()
	_, err := districts.Upsert(context.Background(), models.District{
		Name: name, State: state, DistrictCode: code,
	})
	require.NoError(t, err)
	d, err := districts.GetByCode(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, d)
	return *d
}

func sampleStat(districtID string, year int, month *int, workers int) models.PeriodStatistic {
	return models.PeriodStatistic{
		DistrictID: districtID,
		Year:       year,
		Month:      month,
		Metrics: models.Metrics{
			TotalWorkers:     workers,
			TotalExpenditure: decimal.RequireFromString("12345.67"),
		},
	}
}

func TestUpsertIdempotence(t *testing.T) {
	repo, districts := setup(t)
	ctx := context.Background()
	d := mustDistrict(t, districts, "MH-PUN", "Pune", "Maharashtra")

	month := 3
	created, err := repo.Upsert(ctx, sampleStat(d.ID, 2024, &month, 100))
	require.NoError(t, err)
	assert.True(t, created)

	// same natural key again: one row, second call's values win
	created, err = repo.Upsert(ctx, sampleStat(d.ID, 2024, &month, 250))
	require.NoError(t, err)
	assert.False(t, created)

	items, total, err := repo.ListByDistrict(ctx, d.ID, 2024, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, 250, items[0].TotalWorkers)
	assert.True(t, items[0].TotalExpenditure.Equal(decimal.RequireFromString("12345.67")))
}

func TestUpsertAnnualAndMonthlyAreDistinctKeys(t *testing.T) {
	repo, districts := setup(t)
	ctx := context.Background()
	d := mustDistrict(t, districts, "MH-PUN", "Pune", "Maharashtra")

	month := 1
	_, err := repo.Upsert(ctx, sampleStat(d.ID, 2024, nil, 10))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, sampleStat(d.ID, 2024, &month, 20))
	require.NoError(t, err)

	// a second annual row for the same year must collapse into the first
	created, err := repo.Upsert(ctx, sampleStat(d.ID, 2024, nil, 30))
	require.NoError(t, err)
	assert.False(t, created)

	_, total, err := repo.ListByDistrict(ctx, d.ID, 2024, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestLatestOrdersByPeriod(t *testing.T) {
	repo, districts := setup(t)
	ctx := context.Background()
	d := mustDistrict(t, districts, "MH-PUN", "Pune", "Maharashtra")

	for _, p := range []struct {
		year  int
		month int
	}{{2023, 12}, {2024, 6}, {2024, 2}} {
		m := p.month
		_, err := repo.Upsert(ctx, sampleStat(d.ID, p.year, &m, p.year*100+p.month))
		require.NoError(t, err)
	}

	latest, err := repo.Latest(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2024, latest.Year)
	require.NotNil(t, latest.Month)
	assert.Equal(t, 6, *latest.Month)
}

func TestCoverageCounts(t *testing.T) {
	repo, districts := setup(t)
	ctx := context.Background()

	a := mustDistrict(t, districts, "MH-PUN", "Pune", "Maharashtra")
	b := mustDistrict(t, districts, "MH-NAG", "Nagpur", "Maharashtra")
	mustDistrict(t, districts, "TN-SAL", "Salem", "Tamil Nadu")

	month := 1
	_, err := repo.Upsert(ctx, sampleStat(a.ID, 2024, &month, 1))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, sampleStat(b.ID, 2024, &month, 2))
	require.NoError(t, err)

	withData, err := repo.CountDistrictsWithData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, withData)

	total, err := districts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	ids, err := repo.DistrictIDsWithData(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, a.ID)

	byState, err := repo.CoverageByState(ctx)
	require.NoError(t, err)
	require.Len(t, byState, 2)
	assert.Equal(t, "Maharashtra", byState[0].State)
	assert.Equal(t, 2, byState[0].Total)
	assert.Equal(t, 2, byState[0].WithData)
	assert.Equal(t, "Tamil Nadu", byState[1].State)
	assert.Equal(t, 0, byState[1].WithData)
}

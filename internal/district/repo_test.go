package district

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nregahub/pkg/database"
	"nregahub/pkg/models"
)

func setup(t *testing.T) *Repo {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(db)
}

func TestUpsertCreateThenUpdate(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, models.District{
		Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN",
	})
	require.NoError(t, err)
	assert.True(t, created)

	pop := int64(9429408)
	created, err = repo.Upsert(ctx, models.District{
		Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN", Population: &pop,
	})
	require.NoError(t, err)
	assert.False(t, created)

	d, err := repo.GetByCode(ctx, "MH-PUN")
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NotNil(t, d.Population)
	assert.Equal(t, pop, *d.Population)
	assert.NotEmpty(t, d.ID, "created rows get an id")
}

func TestUpsertKeepsExistingOptionalFields(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	pop := int64(100)
	_, err := repo.Upsert(ctx, models.District{
		Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN", Population: &pop,
	})
	require.NoError(t, err)

	// a later upsert without population must not blank it out
	_, err = repo.Upsert(ctx, models.District{
		Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN",
	})
	require.NoError(t, err)

	d, err := repo.GetByCode(ctx, "MH-PUN")
	require.NoError(t, err)
	require.NotNil(t, d.Population)
	assert.Equal(t, pop, *d.Population)
}

func TestGetByCodeCaseInsensitive(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, models.District{
		Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN",
	})
	require.NoError(t, err)

	for _, code := range []string{"MH-PUN", "mh-pun", " Mh-Pun "} {
		d, err := repo.GetByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, d, "code %q", code)
		assert.Equal(t, "MH-PUN", d.DistrictCode)
	}
}

func TestListFiltersByState(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	for _, d := range []models.District{
		{Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN"},
		{Name: "Nagpur", State: "Maharashtra", DistrictCode: "MH-NAG"},
		{Name: "Salem", State: "Tamil Nadu", DistrictCode: "TN-SAL"},
	} {
		_, err := repo.Upsert(ctx, d)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mh, err := repo.List(ctx, "maharashtra")
	require.NoError(t, err)
	require.Len(t, mh, 2)
	assert.Equal(t, "Nagpur", mh[0].Name, "sorted by name")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

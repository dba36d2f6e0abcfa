package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrommo-tools/retrotracker/internal/storage/postgres"
	"github.com/retrommo-tools/retrotracker/internal/testutil"
)

func TestMonsterRepository_ResolveIDIsIdempotent(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewMonsterRepository(pool)
	ctx := context.Background()

	first, err := repo.ResolveID(ctx, "goblin")
	require.NoError(t, err)
	assert.Greater(t, first, int64(0))

	second, err := repo.ResolveID(ctx, "goblin")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := repo.ResolveID(ctx, "large rat")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMonsterRepository_CacheSurvivesFreshRepository(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	first, err := postgres.NewMonsterRepository(pool).ResolveID(ctx, "cave bat")
	require.NoError(t, err)

	// A new repository has a cold cache and must converge on the same row.
	second, err := postgres.NewMonsterRepository(pool).ResolveID(ctx, "cave bat")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMonsterRepository_GetByName(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewMonsterRepository(pool)
	ctx := context.Background()

	_, err := repo.GetByName(ctx, "lizard")
	assert.ErrorIs(t, err, postgres.ErrMonsterNotFound)

	id, err := repo.ResolveID(ctx, "lizard")
	require.NoError(t, err)

	m, err := repo.GetByName(ctx, "lizard")
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
}

func TestMonsterRepository_Names(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewMonsterRepository(pool)
	ctx := context.Background()

	for _, name := range []string{"goblin archer", "goblin grunt"} {
		_, err := repo.ResolveID(ctx, name)
		require.NoError(t, err)
	}

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"goblin archer", "goblin grunt"}, names)
}

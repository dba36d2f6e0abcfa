package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrommo-tools/retrotracker/internal/storage/postgres"
	"github.com/retrommo-tools/retrotracker/internal/testutil"
)

func TestHitRepository_SamplesRoundTrip(t *testing.T) {
	pool := testutil.NewPool(t)
	hits := postgres.NewHitRepository(pool)
	players := postgres.NewPlayerRepository(pool)
	monsters := postgres.NewMonsterRepository(pool)
	ctx := context.Background()

	username := uniqueName("zintis")
	rec, err := players.Create(ctx, username, makeTestPlayer(t))
	require.NoError(t, err)
	mid, err := monsters.ResolveID(ctx, "goblin grunt")
	require.NoError(t, err)

	require.NoError(t, hits.RecordPlayerHit(ctx, 0, rec.ID, "fireball", mid, 15))
	require.NoError(t, hits.RecordPlayerHit(ctx, 0, rec.ID, "fireball", mid, 18))
	require.NoError(t, hits.RecordPlayerHit(ctx, 0, rec.ID, "attack", mid, 4))
	require.NoError(t, hits.RecordMonsterHit(ctx, 0, mid, "club", rec.ID, 7))

	dealt, err := hits.PlayerHitSamples(ctx, username, "goblin grunt")
	require.NoError(t, err)
	assert.Equal(t, []postgres.HitSample{
		{Ability: "attack", Damage: 4},
		{Ability: "fireball", Damage: 15},
		{Ability: "fireball", Damage: 18},
	}, dealt)

	taken, err := hits.MonsterHitSamples(ctx, username, "goblin grunt")
	require.NoError(t, err)
	assert.Equal(t, []postgres.HitSample{{Ability: "club", Damage: 7}}, taken)

	// No samples against an unseen species.
	none, err := hits.PlayerHitSamples(ctx, username, "lizard")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStatsRecorder_TagsEncounter(t *testing.T) {
	pool := testutil.NewPool(t)
	hits := postgres.NewHitRepository(pool)
	players := postgres.NewPlayerRepository(pool)
	monsters := postgres.NewMonsterRepository(pool)
	encounters := postgres.NewEncounterRepository(pool)
	ctx := context.Background()

	username := uniqueName("brakus")
	rec, err := players.Create(ctx, username, makeTestPlayer(t))
	require.NoError(t, err)

	enc, err := encounters.Create(ctx)
	require.NoError(t, err)

	recorder := postgres.NewStatsRecorder(hits, monsters, encounters, enc.ID)

	mid, err := recorder.ResolveMonsterID(ctx, "cave bat")
	require.NoError(t, err)
	require.NoError(t, recorder.RecordPlayerHit(ctx, rec.ID, "attack", mid, 9))
	require.NoError(t, recorder.RecordMonsterHit(ctx, mid, "bite", rec.ID, 3))

	// Resolving the same species again must not duplicate the attachment.
	again, err := recorder.ResolveMonsterID(ctx, "cave bat")
	require.NoError(t, err)
	assert.Equal(t, mid, again)

	var attached int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter_monsters WHERE encounter_id = $1 AND monster_id = $2`,
		enc.ID, mid,
	).Scan(&attached)
	require.NoError(t, err)
	assert.Equal(t, 1, attached)

	var tagged int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM player_hit_monster WHERE encounter_id = $1`,
		enc.ID,
	).Scan(&tagged)
	require.NoError(t, err)
	assert.Equal(t, 1, tagged)
}

package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInvalidOpponents(t *testing.T) {
	t.Run("every team is invalid against itself", func(t *testing.T) {
		s := newSeason(t, 3, 2, 1)
		for _, team := range s.Teams {
			assert.Equal(t, []TeamID{team.ID}, team.InvalidOpponents())
		}
	})

	t.Run("restrictions covering every slot forbid the pair", func(t *testing.T) {
		s := newSeason(t, 4, 3, 1)
		require.NoError(t, s.SetRestrictions(1, []SlotID{1, 2}))
		require.NoError(t, s.SetRestrictions(2, []SlotID{3}))
		require.NoError(t, s.SetRestrictions(3, []SlotID{2}))
		s.Reset()

		assert.Equal(t, []TeamID{1, 2}, s.Team(1).InvalidOpponents())
		assert.Equal(t, []TeamID{1, 2}, s.Team(2).InvalidOpponents())
		assert.Equal(t, []TeamID{3}, s.Team(3).InvalidOpponents())
		assert.Equal(t, []TeamID{4}, s.Team(4).InvalidOpponents())
	})

	t.Run("a team restricted from every slot can play nobody", func(t *testing.T) {
		s := newSeason(t, 3, 2, 1)
		require.NoError(t, s.SetRestrictions(2, []SlotID{1, 2}))
		s.Reset()

		assert.Equal(t, []TeamID{1, 2, 3}, s.Team(2).InvalidOpponents())
		assert.Equal(t, []TeamID{1, 2}, s.Team(1).InvalidOpponents())
		assert.Equal(t, []TeamID{2, 3}, s.Team(3).InvalidOpponents())
	})

	t.Run("recomputed from scratch after restrictions change", func(t *testing.T) {
		s := newSeason(t, 2, 2, 1)
		require.NoError(t, s.SetRestriction(1, 1, true))
		require.NoError(t, s.SetRestriction(2, 2, true))
		s.Reset()
		require.True(t, s.Team(1).Invalid[2])

		require.NoError(t, s.SetRestriction(2, 2, false))
		s.Reset()
		s.Reset()
		assert.Equal(t, []TeamID{1}, s.Team(1).InvalidOpponents())
		assert.Equal(t, []TeamID{2}, s.Team(2).InvalidOpponents())
	})
}

package schedule

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOpponent(t *testing.T) {
	t.Run("prefers the least played opponent", func(t *testing.T) {
		s := newSeason(t, 4, 2, 2)
		s.record(s.Team(1), s.Team(2), 1, &s.Dates[0])
		s.record(s.Team(3), s.Team(4), 2, &s.Dates[0])

		for seed := int64(1); seed <= 10; seed++ {
			_, opp, ok := s.selectOpponent(rand.New(rand.NewSource(seed)), s.Team(1), map[TeamID]bool{}, 1)
			require.True(t, ok)
			assert.Equal(t, TeamID(3), opp)
		}
	})

	t.Run("skips slots whose usage would run ahead", func(t *testing.T) {
		s := newSeason(t, 4, 2, 2)
		s.record(s.Team(1), s.Team(2), 1, &s.Dates[0])
		s.record(s.Team(3), s.Team(4), 1, &s.Dates[0])

		for seed := int64(1); seed <= 10; seed++ {
			slot, _, ok := s.selectOpponent(rand.New(rand.NewSource(seed)), s.Team(1), map[TeamID]bool{}, 1)
			require.True(t, ok)
			assert.Equal(t, SlotID(2), slot)
		}
	})

	t.Run("uses a slot at most once per date", func(t *testing.T) {
		s := newSeason(t, 4, 2, 2)
		s.record(s.Team(1), s.Team(2), 1, &s.Dates[1])
		scheduled := map[TeamID]bool{1: true, 2: true}

		for seed := int64(1); seed <= 10; seed++ {
			slot, opp, ok := s.selectOpponent(rand.New(rand.NewSource(seed)), s.Team(3), scheduled, 1)
			require.True(t, ok)
			assert.Equal(t, TeamID(4), opp)
			assert.Equal(t, SlotID(2), slot)
		}
	})

	t.Run("honors restrictions on either side", func(t *testing.T) {
		s := newSeason(t, 4, 2, 2)
		require.NoError(t, s.SetRestriction(1, 1, true))
		s.Reset()

		for seed := int64(1); seed <= 10; seed++ {
			slot, _, ok := s.selectOpponent(rand.New(rand.NewSource(seed)), s.Team(2), map[TeamID]bool{}, 0)
			require.True(t, ok)
			if slot == 1 {
				t.Fatalf("seed %d: slot 1 chosen against a team that restricts it", seed)
			}
		}
	})

	t.Run("never picks an invalid opponent", func(t *testing.T) {
		s := newSeason(t, 4, 2, 2)
		require.NoError(t, s.SetRestriction(1, 1, true))
		require.NoError(t, s.SetRestriction(2, 2, true))
		s.Reset()

		for seed := int64(1); seed <= 10; seed++ {
			slot, opp, ok := s.selectOpponent(rand.New(rand.NewSource(seed)), s.Team(1), map[TeamID]bool{}, 0)
			require.True(t, ok)
			assert.Equal(t, TeamID(3), opp)
			assert.Equal(t, SlotID(2), slot)
		}
	})

	t.Run("reports when nothing fits", func(t *testing.T) {
		s := newSeason(t, 2, 1, 1)
		require.NoError(t, s.SetRestriction(1, 1, true))
		s.Reset()

		_, _, ok := s.selectOpponent(rand.New(rand.NewSource(1)), s.Team(2), map[TeamID]bool{}, 0)
		assert.False(t, ok)
	})
}

func TestSlotUsage(t *testing.T) {
	s := newSeason(t, 4, 3, 2)
	s.record(s.Team(1), s.Team(2), 3, &s.Dates[0])
	s.record(s.Team(3), s.Team(4), 1, &s.Dates[0])
	s.record(s.Team(1), s.Team(3), 3, &s.Dates[1])

	assert.Equal(t, []int{1, 0, 2}, s.SlotUsage())
}

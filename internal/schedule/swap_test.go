package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repeatPairs records 1v2 in slot 1 and 3v4 in slot 2 on each of the first
// n dates.
func repeatPairs(s *Season, n int) {
	for i := 0; i < n; i++ {
		s.record(s.Team(1), s.Team(2), 1, &s.Dates[i])
		s.record(s.Team(3), s.Team(4), 2, &s.Dates[i])
	}
}

func TestBalanceMatchups(t *testing.T) {
	t.Run("takes over the home side of another game", func(t *testing.T) {
		s := newSeason(t, 4, 2, 3)
		repeatPairs(s, 3)

		s.balanceMatchups(&s.Dates[2])

		assert.Equal(t, TeamID(3), s.Game(4).Home)
		assert.Equal(t, TeamID(2), s.Game(4).Away)
		assert.Equal(t, TeamID(1), s.Game(5).Home)
		assert.Equal(t, TeamID(4), s.Game(5).Away)

		assert.Equal(t, []TeamID{2, 2, 4}, s.Team(1).Opponents)
		assert.Equal(t, []TeamID{1, 1, 3}, s.Team(2).Opponents)
		assert.Equal(t, []TeamID{4, 4, 2}, s.Team(3).Opponents)
		assert.Equal(t, []TeamID{3, 3, 1}, s.Team(4).Opponents)
		assert.Equal(t, []GameID{0, 2, 5}, s.Team(1).Games)
		assert.Equal(t, []GameID{1, 3, 4}, s.Team(3).Games)

		for _, team := range s.Teams {
			assert.Len(t, team.Matchups, 4)
		}
		require.NoError(t, s.Check())
	})

	t.Run("falls back to the away side", func(t *testing.T) {
		s := newSeason(t, 4, 2, 3)
		require.NoError(t, s.SetRestriction(3, 1, true))
		s.Reset()
		repeatPairs(s, 3)
		require.Equal(t, 2, s.Team(1).HomeGames)
		require.Equal(t, 1, s.Team(4).HomeGames)

		s.balanceMatchups(&s.Dates[2])

		assert.Equal(t, TeamID(4), s.Game(4).Home)
		assert.Equal(t, TeamID(2), s.Game(4).Away)
		assert.Equal(t, TeamID(3), s.Game(5).Home)
		assert.Equal(t, TeamID(1), s.Game(5).Away)
		assert.Equal(t, 1, s.Team(1).HomeGames)
		assert.Equal(t, 2, s.Team(4).HomeGames)
		require.NoError(t, s.Check())
	})

	t.Run("leaves balanced dates alone", func(t *testing.T) {
		s := newSeason(t, 4, 2, 2)
		s.record(s.Team(1), s.Team(2), 1, &s.Dates[0])
		s.record(s.Team(3), s.Team(4), 2, &s.Dates[0])
		s.record(s.Team(1), s.Team(3), 1, &s.Dates[1])
		s.record(s.Team(2), s.Team(4), 2, &s.Dates[1])
		before := append([]Game(nil), s.Games...)

		s.balanceMatchups(&s.Dates[1])

		assert.Equal(t, before, s.Games)
	})

	t.Run("ignores teams idle on the date", func(t *testing.T) {
		s := newSeason(t, 4, 2, 4)
		for i := 0; i < 3; i++ {
			s.record(s.Team(1), s.Team(2), 1, &s.Dates[i])
		}
		s.record(s.Team(3), s.Team(4), 1, &s.Dates[3])
		before := append([]Game(nil), s.Games...)

		s.balanceMatchups(&s.Dates[3])

		assert.Equal(t, before, s.Games)
		require.NoError(t, s.Check())
	})

	t.Run("never moves a team into a restricted slot", func(t *testing.T) {
		s := newSeason(t, 4, 2, 3)
		require.NoError(t, s.SetRestriction(1, 2, true))
		require.NoError(t, s.SetRestriction(2, 2, true))
		s.Reset()
		repeatPairs(s, 3)
		before := append([]Game(nil), s.Games...)

		s.balanceMatchups(&s.Dates[2])

		assert.Equal(t, before, s.Games)
	})
}

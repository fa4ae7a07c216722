package schedule

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// Generate regenerates the season with a math/rand source seeded by seed.
// The same configuration and seed always yield the same schedule.
func (s *Season) Generate(seed int64) {
	s.Regenerate(rand.New(rand.NewSource(seed)))
}

// Regenerate clears the previous schedule and fills every date in order.
// rng drives the team shuffle once per date and the slot shuffle once per
// opponent search.
func (s *Season) Regenerate(rng *rand.Rand) {
	s.Reset()
	for i := range s.Dates {
		s.scheduleDate(rng, i)
	}
	s.log.WithFields(logrus.Fields{
		"games": len(s.Games),
		"dates": len(s.Dates),
		"teams": len(s.Teams),
	}).Debug("schedule generated")
}

// scheduleDate greedily pairs teams for the date at index idx, then runs the
// swap pass over the games it placed.
func (s *Season) scheduleDate(rng *rand.Rand, idx int) {
	date := &s.Dates[idx]
	s.prioritize(rng)

	scheduled := make(map[TeamID]bool, len(s.Teams))
	for _, id := range s.order {
		if scheduled[id] {
			continue
		}
		if len(date.Games) >= s.Size.SlotsPerDate {
			break
		}
		team := s.Team(id)
		slot, opp, ok := s.selectOpponent(rng, team, scheduled, idx)
		if !ok {
			s.log.WithFields(logrus.Fields{
				"team": team.Name,
				"date": date.Label,
			}).Debug("no opponent available")
			continue
		}
		s.record(team, s.Team(opp), slot, date)
		scheduled[id] = true
		scheduled[opp] = true
	}

	sort.SliceStable(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	sort.SliceStable(s.order, func(i, j int) bool {
		return len(s.Team(s.order[i]).Games) < len(s.Team(s.order[j]).Games)
	})
	s.balanceMatchups(date)
}

// prioritize shuffles the team order and then applies three stable sorts,
// least significant first: teams with more unplayed opponents, then teams
// with more restricted slots, then teams with fewer games played.
func (s *Season) prioritize(rng *rand.Rand) {
	rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})

	unplayed := make([]int, len(s.Teams))
	for i := range s.Teams {
		for _, c := range s.matchupCounts(&s.Teams[i]) {
			if c == 0 {
				unplayed[i]++
			}
		}
	}
	key := func(k []int, i int) int { return k[s.order[i]-1] }

	sort.SliceStable(s.order, func(i, j int) bool {
		return key(unplayed, i) > key(unplayed, j)
	})
	sort.SliceStable(s.order, func(i, j int) bool {
		return len(s.Team(s.order[i]).Restricted) > len(s.Team(s.order[j]).Restricted)
	})
	sort.SliceStable(s.order, func(i, j int) bool {
		return len(s.Team(s.order[i]).Games) < len(s.Team(s.order[j]).Games)
	})
}

// record adds a game between team and opp. The side with fewer home games so
// far hosts; team hosts on a tie.
func (s *Season) record(team, opp *Team, slot SlotID, date *GameDate) GameID {
	home, away := team, opp
	if opp.HomeGames < team.HomeGames {
		home, away = opp, team
	}
	id := GameID(len(s.Games))
	s.Games = append(s.Games, Game{
		ID:     id,
		Home:   home.ID,
		Away:   away.ID,
		Slot:   slot,
		DateID: date.ID,
		Date:   date.Label,
	})
	home.HomeGames++

	team.Games = append(team.Games, id)
	opp.Games = append(opp.Games, id)
	team.Opponents = append(team.Opponents, opp.ID)
	opp.Opponents = append(opp.Opponents, team.ID)
	s.Slot(slot).Games = append(s.Slot(slot).Games, id)
	date.Games = append(date.Games, id)
	return id
}

package schedule

import (
	"math/rand"
	"sort"
)

// selectOpponent finds an opponent and slot for team on the date at index
// idx. Opponents are tried least-played first; for each, slots are tried in
// a freshly shuffled order. Opponent preference dominates slot preference.
func (s *Season) selectOpponent(rng *rand.Rand, team *Team, scheduled map[TeamID]bool, idx int) (SlotID, TeamID, bool) {
	counts := s.matchupCounts(team)

	var candidates []TeamID
	for _, id := range s.order {
		if team.Invalid[id] || scheduled[id] {
			continue
		}
		candidates = append(candidates, id)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return counts[candidates[i]-1] < counts[candidates[j]-1]
	})

	rng.Shuffle(len(s.slotOrder), func(i, j int) {
		s.slotOrder[i], s.slotOrder[j] = s.slotOrder[j], s.slotOrder[i]
	})

	for _, id := range candidates {
		opp := s.Team(id)
		for _, slot := range s.slotOrder {
			if !s.slotOpen(slot, idx) || opp.Restricts(slot) || team.Restricts(slot) {
				continue
			}
			return slot, id, true
		}
	}
	return 0, 0, false
}

// slotOpen reports whether slot may take another game on the date at index
// idx. A slot's season usage may not run ahead of the number of dates already
// played, and a slot hosts at most one game per date.
func (s *Season) slotOpen(id SlotID, idx int) bool {
	if len(s.Slot(id).Games) > idx {
		return false
	}
	for _, g := range s.Dates[idx].Games {
		if s.Games[g].Slot == id {
			return false
		}
	}
	return true
}

// SlotUsage returns how many games each slot has hosted, indexed by SlotID-1.
func (s *Season) SlotUsage() []int {
	usage := make([]int, len(s.Slots))
	for i, slot := range s.Slots {
		usage[i] = len(slot.Games)
	}
	return usage
}

package schedule

// resolveInvalidOpponents rebuilds every team's forbidden-opponent set. A pair
// is forbidden when their restrictions together cover every slot, so there is
// nowhere both could play. A team is always forbidden against itself.
func (s *Season) resolveInvalidOpponents() {
	for i := range s.Teams {
		t := &s.Teams[i]
		t.Invalid = map[TeamID]bool{t.ID: true}
	}
	for i := range s.Teams {
		team := &s.Teams[i]
		for j := range s.Teams {
			opp := &s.Teams[j]
			if s.noSharedSlot(team, opp) {
				team.Invalid[opp.ID] = true
			}
		}
	}
}

func (s *Season) noSharedSlot(a, b *Team) bool {
	for _, slot := range s.Slots {
		if !a.Restricts(slot.ID) && !b.Restricts(slot.ID) {
			return false
		}
	}
	return true
}

package schedule

import (
	"errors"
	"fmt"
	"slices"
)

// Check verifies the season's invariants against its current restrictions
// and returns every violation found, joined.
func (s *Season) Check() error {
	var errs []error
	home := make([]int, len(s.Teams))

	for _, g := range s.Games {
		if g.Home == g.Away {
			errs = append(errs, fmt.Errorf("game %d: team %d plays itself", g.ID, g.Home))
			continue
		}
		h, a := s.Team(g.Home), s.Team(g.Away)
		if h.Invalid[a.ID] || a.Invalid[h.ID] {
			errs = append(errs, fmt.Errorf("game %d: %s and %s are invalid opponents", g.ID, h.Name, a.Name))
		}
		if h.Restricts(g.Slot) || a.Restricts(g.Slot) {
			errs = append(errs, fmt.Errorf("game %d: %s is restricted for %s or %s", g.ID, s.Slot(g.Slot).Name, h.Name, a.Name))
		}
		home[g.Home-1]++

		for _, t := range []*Team{h, a} {
			if !slices.Contains(t.Games, g.ID) {
				errs = append(errs, fmt.Errorf("game %d: missing from %s's games", g.ID, t.Name))
			}
		}
		if !slices.Contains(s.Slot(g.Slot).Games, g.ID) {
			errs = append(errs, fmt.Errorf("game %d: missing from %s", g.ID, s.Slot(g.Slot).Name))
		}
		if !slices.Contains(s.Date(g.DateID).Games, g.ID) {
			errs = append(errs, fmt.Errorf("game %d: missing from date %s", g.ID, s.Date(g.DateID).Label))
		}
	}

	for _, d := range s.Dates {
		teams := make(map[TeamID]bool)
		slots := make(map[SlotID]bool)
		if len(d.Games) > s.Size.SlotsPerDate {
			errs = append(errs, fmt.Errorf("date %s: %d games exceed %d slots", d.Label, len(d.Games), s.Size.SlotsPerDate))
		}
		for _, gid := range d.Games {
			g := s.Games[gid]
			if g.DateID != d.ID {
				errs = append(errs, fmt.Errorf("date %s: game %d belongs to date %d", d.Label, gid, g.DateID))
			}
			for _, t := range []TeamID{g.Home, g.Away} {
				if teams[t] {
					errs = append(errs, fmt.Errorf("date %s: %s plays more than once", d.Label, s.Team(t).Name))
				}
				teams[t] = true
			}
			if slots[g.Slot] {
				errs = append(errs, fmt.Errorf("date %s: %s used more than once", d.Label, s.Slot(g.Slot).Name))
			}
			slots[g.Slot] = true
		}
	}

	for i := range s.Teams {
		t := &s.Teams[i]
		if len(t.Games) != len(t.Opponents) {
			errs = append(errs, fmt.Errorf("%s: %d games but %d opponents", t.Name, len(t.Games), len(t.Opponents)))
			continue
		}
		for j, gid := range t.Games {
			g := s.Games[gid]
			if !g.Involves(t.ID) {
				errs = append(errs, fmt.Errorf("%s: listed in game %d without playing in it", t.Name, gid))
				continue
			}
			if g.Opponent(t.ID) != t.Opponents[j] {
				errs = append(errs, fmt.Errorf("%s: opponent %d does not match game %d", t.Name, j, gid))
			}
		}
		if t.HomeGames != home[i] {
			errs = append(errs, fmt.Errorf("%s: %d home credits for %d home games", t.Name, t.HomeGames, home[i]))
		}
	}

	for _, slot := range s.Slots {
		for _, gid := range slot.Games {
			if s.Games[gid].Slot != slot.ID {
				errs = append(errs, fmt.Errorf("%s: lists game %d played in slot %d", slot.Name, gid, s.Games[gid].Slot))
			}
		}
	}

	return errors.Join(errs...)
}

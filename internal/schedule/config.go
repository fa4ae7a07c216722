package schedule

import (
	"fmt"

	"github.com/derekprior/leaguegen/internal/config"
)

// FromConfig builds an unscheduled season from a validated config, applying
// team names, slot labels, date labels and restrictions.
func FromConfig(cfg *config.Config, opts ...Option) (*Season, error) {
	s, err := New(Size{
		Teams:        cfg.Season.Teams,
		SlotsPerDate: cfg.Season.SlotsPerDate,
		Dates:        cfg.Season.Dates,
	}, opts...)
	if err != nil {
		return nil, err
	}

	for i := range s.Teams {
		s.Teams[i].Name = cfg.TeamName(i + 1)
	}
	for i, slot := range cfg.Slots {
		if err := s.LabelSlot(SlotID(i+1), slot.Field, slot.Time); err != nil {
			return nil, err
		}
	}
	for i, label := range cfg.DateLabels() {
		s.Dates[i].Label = label
	}

	for _, r := range cfg.Restrictions {
		id, err := cfg.TeamID(r.Team)
		if err != nil {
			return nil, fmt.Errorf("restriction: %w", err)
		}
		for _, slot := range r.Slots {
			if err := s.SetRestriction(TeamID(id), SlotID(slot), true); err != nil {
				return nil, fmt.Errorf("restriction for %q: %w", r.Team, err)
			}
		}
	}

	s.Reset()
	return s, nil
}

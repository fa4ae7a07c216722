package schedule

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LabelCount is how many games a team played at one field or time label.
type LabelCount struct {
	Label string
	Count int
}

// TeamReport summarizes one team's season.
type TeamReport struct {
	ID        TeamID
	Name      string
	Games     int
	HomeGames int
	Matchups  []int // indexed by TeamID-1, Forbidden for invalid pairings
	Fields    []LabelCount
	Times     []LabelCount
}

// Balance holds season-wide balance statistics.
type Balance struct {
	HomeSpread       int     `json:"home_spread"`        // max minus min home games across teams
	MatchupMean      float64 `json:"matchup_mean"`       // over valid pairings
	MatchupStdDev    float64 `json:"matchup_std_dev"`
	MaxMatchupSpread int     `json:"max_matchup_spread"` // largest per-team most-played minus least-played
	IdleTeamDates    int     `json:"idle_team_dates"`    // team-date combinations without a game
	SlotUsage        []int   `json:"slot_usage"`
}

// Score folds the balance statistics into one number; lower is better.
func (b Balance) Score() float64 {
	return float64(b.MaxMatchupSpread)*10 +
		b.MatchupStdDev*5 +
		float64(b.HomeSpread)*2 +
		float64(b.IdleTeamDates)
}

// Report is the reporting view of a generated season.
type Report struct {
	Teams   []TeamReport
	Balance Balance
}

// Report builds per-team summaries and balance statistics for the current
// schedule. Teams are listed by id.
func (s *Season) Report() *Report {
	fields := distinctLabels(s.Slots, func(ts TimeSlot) string { return ts.Field })
	times := distinctLabels(s.Slots, func(ts TimeSlot) string { return ts.Time })

	r := &Report{Teams: make([]TeamReport, len(s.Teams))}
	for i := range s.Teams {
		t := &s.Teams[i]
		fieldCount := make(map[string]int)
		timeCount := make(map[string]int)
		for _, gid := range t.Games {
			slot := s.Slot(s.Games[gid].Slot)
			fieldCount[slot.Field]++
			timeCount[slot.Time]++
		}
		r.Teams[i] = TeamReport{
			ID:        t.ID,
			Name:      t.Name,
			Games:     len(t.Games),
			HomeGames: t.HomeGames,
			Matchups:  s.matchupCounts(t),
			Fields:    countLabels(fields, fieldCount),
			Times:     countLabels(times, timeCount),
		}
	}
	r.Balance = s.balance(r.Teams)
	return r
}

func (s *Season) balance(teams []TeamReport) Balance {
	b := Balance{SlotUsage: s.SlotUsage()}

	minHome, maxHome := math.MaxInt, 0
	var counts []float64
	for _, t := range teams {
		minHome = min(minHome, t.HomeGames)
		maxHome = max(maxHome, t.HomeGames)

		lo, hi, valid := math.MaxInt, 0, false
		for opp, c := range t.Matchups {
			if c == Forbidden {
				continue
			}
			valid = true
			lo, hi = min(lo, c), max(hi, c)
			if TeamID(opp+1) > t.ID {
				counts = append(counts, float64(c))
			}
		}
		if valid {
			b.MaxMatchupSpread = max(b.MaxMatchupSpread, hi-lo)
		}
	}
	if len(teams) > 0 {
		b.HomeSpread = maxHome - minHome
	}
	switch {
	case len(counts) > 1:
		b.MatchupMean, b.MatchupStdDev = stat.MeanStdDev(counts, nil)
	case len(counts) == 1:
		b.MatchupMean = counts[0]
	}

	for _, d := range s.Dates {
		b.IdleTeamDates += len(s.Teams) - 2*len(d.Games)
	}
	return b
}

func distinctLabels(slots []TimeSlot, label func(TimeSlot) string) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, ts := range slots {
		l := label(ts)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}

func countLabels(labels []string, counts map[string]int) []LabelCount {
	out := make([]LabelCount, len(labels))
	for i, l := range labels {
		out[i] = LabelCount{Label: l, Count: counts[l]}
	}
	return out
}

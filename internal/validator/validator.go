package validator

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguegen/internal/config"
	"github.com/derekprior/leaguegen/internal/excel"
	"github.com/derekprior/leaguegen/internal/schedule"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int    // master sheet row, 0 for season-wide findings
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule Excel file and checks it against the config's
// season size and restrictions.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := excel.ReadMaster(f)
	if err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}

	s, err := schedule.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building season: %w", err)
	}
	return Check(s, rows), nil
}

type parsedGame struct {
	Row   int
	Round int
	Date  string
	Slot  schedule.SlotID
	Home  schedule.TeamID
	Away  schedule.TeamID
}

// Check validates master sheet rows against an unscheduled season carrying
// the league's names, sizes and restrictions.
func Check(s *schedule.Season, rows []excel.Row) []Violation {
	games, violations := parseGames(s, rows)

	// Check hard constraints
	violations = append(violations, checkPairings(s, games)...)
	violations = append(violations, checkRounds(s, games)...)
	violations = append(violations, checkSlotUsage(games)...)

	// Check soft constraints
	violations = append(violations, checkDateLabels(s, games)...)
	violations = append(violations, checkHomeBalance(s, games)...)
	violations = append(violations, checkMatchupSpread(s, games)...)
	violations = append(violations, checkGameCompleteness(s, games)...)

	return violations
}

func parseGames(s *schedule.Season, rows []excel.Row) ([]parsedGame, []Violation) {
	ids := make(map[string]schedule.TeamID, len(s.Teams))
	for _, t := range s.Teams {
		ids[t.Name] = t.ID
	}

	var games []parsedGame
	var violations []Violation
	for _, r := range rows {
		bad := func(format string, args ...any) {
			violations = append(violations, Violation{Row: r.Line, Type: "error", Message: fmt.Sprintf(format, args...)})
		}
		home, okHome := ids[r.Home]
		away, okAway := ids[r.Away]
		switch {
		case !okHome:
			bad("unknown team %q", r.Home)
			continue
		case !okAway:
			bad("unknown team %q", r.Away)
			continue
		case r.Round < 1 || r.Round > s.Size.Dates:
			bad("round %d out of range 1-%d", r.Round, s.Size.Dates)
			continue
		case r.Slot < 1 || r.Slot > s.Size.SlotsPerDate:
			bad("slot %d out of range 1-%d", r.Slot, s.Size.SlotsPerDate)
			continue
		}
		games = append(games, parsedGame{
			Row:   r.Line,
			Round: r.Round,
			Date:  r.Date,
			Slot:  schedule.SlotID(r.Slot),
			Home:  home,
			Away:  away,
		})
	}
	return games, violations
}

func checkPairings(s *schedule.Season, games []parsedGame) []Violation {
	var violations []Violation
	for _, g := range games {
		home, away := s.Team(g.Home), s.Team(g.Away)
		if g.Home == g.Away {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s plays itself", home.Name),
			})
			continue
		}
		if home.Invalid[g.Away] {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s and %s have no slot in common", home.Name, away.Name),
			})
		}
		for _, t := range []*schedule.Team{home, away} {
			if t.Restricts(g.Slot) {
				violations = append(violations, Violation{
					Row:     g.Row,
					Type:    "error",
					Message: fmt.Sprintf("%s cannot play in slot %d", t.Name, g.Slot),
				})
			}
		}
	}
	return violations
}

func checkRounds(s *schedule.Season, games []parsedGame) []Violation {
	type teamRound struct {
		team  schedule.TeamID
		round int
	}
	type slotRound struct {
		slot  schedule.SlotID
		round int
	}
	teams := make(map[teamRound]bool)
	slots := make(map[slotRound]bool)

	var violations []Violation
	for _, g := range games {
		for _, id := range []schedule.TeamID{g.Home, g.Away} {
			key := teamRound{id, g.Round}
			if teams[key] {
				violations = append(violations, Violation{
					Row:     g.Row,
					Type:    "error",
					Message: fmt.Sprintf("%s plays more than once in round %d", s.Team(id).Name, g.Round),
				})
			}
			teams[key] = true
			if g.Home == g.Away {
				break
			}
		}
		key := slotRound{g.Slot, g.Round}
		if slots[key] {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("slot %d used more than once in round %d", g.Slot, g.Round),
			})
		}
		slots[key] = true
	}
	return violations
}

// checkSlotUsage flags a slot whose season usage runs ahead of the rounds
// played: its k-th game may not come before round k.
func checkSlotUsage(games []parsedGame) []Violation {
	perRound := make(map[schedule.SlotID]map[int]int)
	var maxSlot schedule.SlotID
	maxRound := 0
	for _, g := range games {
		if perRound[g.Slot] == nil {
			perRound[g.Slot] = make(map[int]int)
		}
		perRound[g.Slot][g.Round]++
		maxSlot = max(maxSlot, g.Slot)
		maxRound = max(maxRound, g.Round)
	}

	var violations []Violation
	for slot := schedule.SlotID(1); slot <= maxSlot; slot++ {
		rounds, ok := perRound[slot]
		if !ok {
			continue
		}
		used := 0
		for round := 1; round <= maxRound; round++ {
			used += rounds[round]
			if used > round {
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("slot %d used %d times by round %d", slot, used, round),
				})
				break
			}
		}
	}
	return violations
}

func checkDateLabels(s *schedule.Season, games []parsedGame) []Violation {
	var violations []Violation
	for _, g := range games {
		if want := s.Date(schedule.DateID(g.Round)).Label; g.Date != want {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "warning",
				Message: fmt.Sprintf("round %d dated %q, config says %q", g.Round, g.Date, want),
			})
		}
	}
	return violations
}

func checkHomeBalance(s *schedule.Season, games []parsedGame) []Violation {
	counts := make([]int, len(s.Teams))
	for _, g := range games {
		counts[g.Home-1]++
	}

	maxHome, minHome := 0, math.MaxInt
	for _, c := range counts {
		maxHome = max(maxHome, c)
		minHome = min(minHome, c)
	}
	if maxHome-minHome > 1 {
		return []Violation{{
			Type:    "warning",
			Message: fmt.Sprintf("home game imbalance: min %d, max %d across teams", minHome, maxHome),
		}}
	}
	return nil
}

func checkMatchupSpread(s *schedule.Season, games []parsedGame) []Violation {
	n := len(s.Teams)
	counts := make([][]int, n)
	for i := range counts {
		counts[i] = make([]int, n)
	}
	for _, g := range games {
		counts[g.Home-1][g.Away-1]++
		counts[g.Away-1][g.Home-1]++
	}

	var violations []Violation
	for i := range s.Teams {
		t := &s.Teams[i]
		lo, hi, valid := math.MaxInt, 0, false
		for j, c := range counts[i] {
			if t.Invalid[schedule.TeamID(j+1)] {
				continue
			}
			valid = true
			lo, hi = min(lo, c), max(hi, c)
		}
		if valid && hi-lo > 2 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s matchups uneven: plays one opponent %d times, another %d", t.Name, hi, lo),
			})
		}
	}
	return violations
}

func checkGameCompleteness(s *schedule.Season, games []parsedGame) []Violation {
	counts := make([]int, len(s.Teams))
	for _, g := range games {
		counts[g.Home-1]++
		counts[g.Away-1]++
	}

	var violations []Violation
	for i, t := range s.Teams {
		if counts[i] == 0 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has no games scheduled", t.Name),
			})
		}
	}
	return violations
}

package schedule

import "github.com/sirupsen/logrus"

// balanceMatchups walks teams in s.order and, for each team whose game on
// date repeats a matchup at least two more times than its least-played
// opponent, tries one swap with another game on the same date.
func (s *Season) balanceMatchups(date *GameDate) {
	for _, id := range s.order {
		team := s.Team(id)
		if len(team.Opponents) == 0 {
			continue
		}
		team.Matchups = s.matchupCounts(team)

		own := team.Games[len(team.Games)-1]
		if s.Games[own].DateID != date.ID {
			continue
		}
		opp := team.Opponents[len(team.Opponents)-1]
		repeats := team.Matchups[opp-1]
		least, ok := minMatchup(team.Matchups)
		if !ok || repeats-2 < least {
			continue
		}
		s.trySwap(team, own, repeats-2, date)
	}
}

// trySwap moves team out of its game own and into another game on date,
// taking over the home role if possible and the away role otherwise. The
// displaced team takes team's place in own. Both new pairings must have been
// played at most limit times.
func (s *Season) trySwap(team *Team, own GameID, limit int, date *GameDate) bool {
	mine := s.Games[own]
	opp := mine.Opponent(team.ID)
	for _, gid := range date.Games {
		if gid == own {
			continue
		}
		other := s.Games[gid]
		for _, displaced := range []TeamID{other.Home, other.Away} {
			partner := other.Opponent(displaced)
			if !s.canSwap(team, s.Team(opp), s.Team(displaced), s.Team(partner), mine.Slot, other.Slot, limit) {
				continue
			}
			s.swap(team.ID, own, displaced, gid)
			s.log.WithFields(logrus.Fields{
				"team":      team.Name,
				"displaced": s.Team(displaced).Name,
				"date":      date.Label,
			}).Debug("swapped teams")
			return true
		}
	}
	return false
}

// canSwap checks the pairings team-partner (in slot theirs) and
// displaced-opp (in slot mine) that a swap would create.
func (s *Season) canSwap(team, opp, displaced, partner *Team, mine, theirs SlotID, limit int) bool {
	if team.Invalid[partner.ID] || displaced.Invalid[opp.ID] {
		return false
	}
	if team.CountAgainst(partner.ID) > limit || displaced.CountAgainst(opp.ID) > limit {
		return false
	}
	return !team.Restricts(theirs) && !displaced.Restricts(mine)
}

// swap exchanges teamID (in game own) with displacedID (in game other). Each
// takes over the other's role, and home credits move with the roles. Both
// games are the latest game of all four teams involved, so only the last
// entries of their histories change.
func (s *Season) swap(teamID TeamID, own GameID, displacedID TeamID, other GameID) {
	mine, theirs := &s.Games[own], &s.Games[other]
	team, displaced := s.Team(teamID), s.Team(displacedID)
	opp := s.Team(mine.Opponent(teamID))
	partner := s.Team(theirs.Opponent(displacedID))

	teamHosted := mine.Home == teamID
	displacedHosted := theirs.Home == displacedID
	mine.replace(teamID, displacedID)
	theirs.replace(displacedID, teamID)
	switch {
	case teamHosted && !displacedHosted:
		team.HomeGames--
		displaced.HomeGames++
	case !teamHosted && displacedHosted:
		team.HomeGames++
		displaced.HomeGames--
	}

	team.Games[len(team.Games)-1] = other
	displaced.Games[len(displaced.Games)-1] = own

	team.Opponents[len(team.Opponents)-1] = partner.ID
	partner.Opponents[len(partner.Opponents)-1] = team.ID
	displaced.Opponents[len(displaced.Opponents)-1] = opp.ID
	opp.Opponents[len(opp.Opponents)-1] = displaced.ID
}

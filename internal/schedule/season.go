package schedule

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Forbidden is the matchup count reported for a pairing that can never be scheduled.
const Forbidden = -1

// ErrInvalidSize is returned when a season is sized with a non-positive count.
var ErrInvalidSize = errors.New("invalid season size")

type (
	TeamID int // 1-based
	SlotID int // 1-based
	DateID int // 1-based
	GameID int // index into Season.Games
)

// Size holds the season dimensions. Entities are created once from it.
type Size struct {
	Teams        int
	SlotsPerDate int
	Dates        int
}

func (sz Size) validate() error {
	if sz.Teams < 1 {
		return fmt.Errorf("%w: team count %d must be at least 1", ErrInvalidSize, sz.Teams)
	}
	if sz.SlotsPerDate < 1 {
		return fmt.Errorf("%w: slots per date %d must be at least 1", ErrInvalidSize, sz.SlotsPerDate)
	}
	if sz.Dates < 1 {
		return fmt.Errorf("%w: date count %d must be at least 1", ErrInvalidSize, sz.Dates)
	}
	return nil
}

// Team is a league member. Opponents and Games are chronological and always
// the same length: Opponents[i] is the other side of Games[i].
type Team struct {
	ID         TeamID
	Name       string
	Restricted map[SlotID]bool
	Invalid    map[TeamID]bool
	Opponents  []TeamID
	Games      []GameID
	HomeGames  int

	// Matchups is indexed by TeamID-1 and refreshed by the swap pass.
	Matchups []int
}

// Restricts reports whether the team cannot play in slot.
func (t *Team) Restricts(slot SlotID) bool { return t.Restricted[slot] }

// CountAgainst returns how many times the team has played opp so far.
func (t *Team) CountAgainst(opp TeamID) int {
	n := 0
	for _, o := range t.Opponents {
		if o == opp {
			n++
		}
	}
	return n
}

// RestrictedSlots returns the restricted slot ids in ascending order.
func (t *Team) RestrictedSlots() []SlotID {
	slots := make([]SlotID, 0, len(t.Restricted))
	for id := range t.Restricted {
		slots = append(slots, id)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// InvalidOpponents returns the forbidden opponents, including the team itself,
// in ascending order.
func (t *Team) InvalidOpponents() []TeamID {
	ids := make([]TeamID, 0, len(t.Invalid))
	for id := range t.Invalid {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TimeSlot is a recurring (field, time) pairing usable on any date.
type TimeSlot struct {
	ID    SlotID
	Name  string
	Field string
	Time  string
	Games []GameID // every game ever placed here this season
}

// GameDate is one day of the season.
type GameDate struct {
	ID    DateID
	Label string
	Games []GameID
}

// Game is a single scheduled matchup. Date is a copy of the owning
// GameDate's label at the time the game was created.
type Game struct {
	ID     GameID
	Home   TeamID
	Away   TeamID
	Slot   SlotID
	DateID DateID
	Date   string
}

// Opponent returns the other side of the game from team.
func (g Game) Opponent(team TeamID) TeamID {
	if g.Home == team {
		return g.Away
	}
	return g.Home
}

// Involves reports whether team plays in the game.
func (g Game) Involves(team TeamID) bool { return g.Home == team || g.Away == team }

func (g *Game) replace(old, repl TeamID) {
	switch old {
	case g.Home:
		g.Home = repl
	case g.Away:
		g.Away = repl
	}
}

// Season owns every entity of one scheduling run. The schedule is the
// mutated entity graph itself; there is no separate plan object.
type Season struct {
	Size  Size
	Teams []Team
	Slots []TimeSlot
	Dates []GameDate
	Games []Game

	log       logrus.FieldLogger
	order     []TeamID
	slotOrder []SlotID
}

// Option configures a Season.
type Option func(*Season)

// WithLogger sets the logger used for scheduling diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Season) {
		if l != nil {
			s.log = l
		}
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New builds all teams, slots, and dates for a season of the given size.
func New(size Size, opts ...Option) (*Season, error) {
	if err := size.validate(); err != nil {
		return nil, err
	}
	s := &Season{
		Size:  size,
		Teams: make([]Team, size.Teams),
		Slots: make([]TimeSlot, size.SlotsPerDate),
		Dates: make([]GameDate, size.Dates),
		log:   discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := range s.Teams {
		id := TeamID(i + 1)
		s.Teams[i] = Team{
			ID:         id,
			Name:       fmt.Sprintf("Team %d", id),
			Restricted: make(map[SlotID]bool),
			Invalid:    map[TeamID]bool{id: true},
		}
	}
	for i := range s.Slots {
		id := SlotID(i + 1)
		s.Slots[i] = TimeSlot{ID: id, Name: fmt.Sprintf("Time Slot %d", id), Field: "Null", Time: "Null"}
	}
	for i := range s.Dates {
		s.Dates[i] = GameDate{ID: DateID(i + 1), Label: strconv.Itoa(i + 1)}
	}
	s.Reset()
	return s, nil
}

func (s *Season) Team(id TeamID) *Team     { return &s.Teams[id-1] }
func (s *Season) Slot(id SlotID) *TimeSlot { return &s.Slots[id-1] }
func (s *Season) Date(id DateID) *GameDate { return &s.Dates[id-1] }
func (s *Season) Game(id GameID) *Game     { return &s.Games[id] }

func (s *Season) checkTeam(id TeamID) error {
	if id < 1 || int(id) > len(s.Teams) {
		return fmt.Errorf("team %d out of range 1-%d", id, len(s.Teams))
	}
	return nil
}

func (s *Season) checkSlot(id SlotID) error {
	if id < 1 || int(id) > len(s.Slots) {
		return fmt.Errorf("time slot %d out of range 1-%d", id, len(s.Slots))
	}
	return nil
}

// RenameTeam changes a team's display name. Existing games keep their ids,
// so exports pick up the new name immediately.
func (s *Season) RenameTeam(id TeamID, name string) error {
	if err := s.checkTeam(id); err != nil {
		return err
	}
	s.Team(id).Name = name
	return nil
}

// SetRestriction marks slot as unplayable (or playable) for team. It takes
// effect on the next regeneration.
func (s *Season) SetRestriction(team TeamID, slot SlotID, restricted bool) error {
	if err := s.checkTeam(team); err != nil {
		return err
	}
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	if restricted {
		s.Team(team).Restricted[slot] = true
	} else {
		delete(s.Team(team).Restricted, slot)
	}
	return nil
}

// SetRestrictions replaces the team's restricted slots.
func (s *Season) SetRestrictions(team TeamID, slots []SlotID) error {
	if err := s.checkTeam(team); err != nil {
		return err
	}
	for _, slot := range slots {
		if err := s.checkSlot(slot); err != nil {
			return err
		}
	}
	t := s.Team(team)
	t.Restricted = make(map[SlotID]bool, len(slots))
	for _, slot := range slots {
		t.Restricted[slot] = true
	}
	return nil
}

// LabelSlot sets the field and time labels of a slot.
func (s *Season) LabelSlot(id SlotID, field, time string) error {
	if err := s.checkSlot(id); err != nil {
		return err
	}
	slot := s.Slot(id)
	slot.Field = field
	slot.Time = time
	return nil
}

// LabelDate sets a date's label. Games already generated keep the label they
// were created with until the next regeneration.
func (s *Season) LabelDate(id DateID, label string) error {
	if id < 1 || int(id) > len(s.Dates) {
		return fmt.Errorf("date %d out of range 1-%d", id, len(s.Dates))
	}
	s.Date(id).Label = label
	return nil
}

// Reset clears the previous schedule and recomputes invalid opponents from
// the current restrictions. Identity, names, labels and restrictions survive.
func (s *Season) Reset() {
	s.Games = nil
	s.order = s.order[:0]
	for i := range s.Teams {
		t := &s.Teams[i]
		t.Games = nil
		t.Opponents = nil
		t.Matchups = nil
		t.HomeGames = 0
		s.order = append(s.order, t.ID)
	}
	s.slotOrder = s.slotOrder[:0]
	for i := range s.Slots {
		s.Slots[i].Games = nil
		s.slotOrder = append(s.slotOrder, s.Slots[i].ID)
	}
	for i := range s.Dates {
		s.Dates[i].Games = nil
	}
	s.resolveInvalidOpponents()
}

// matchupCounts returns how often t has played every team, indexed by
// TeamID-1, with Forbidden for invalid pairings.
func (s *Season) matchupCounts(t *Team) []int {
	counts := make([]int, len(s.Teams))
	for _, opp := range t.Opponents {
		counts[opp-1]++
	}
	for id := range t.Invalid {
		counts[id-1] = Forbidden
	}
	return counts
}

// minMatchup returns the smallest count among valid opponents.
func minMatchup(counts []int) (int, bool) {
	least, found := 0, false
	for _, c := range counts {
		if c == Forbidden {
			continue
		}
		if !found || c < least {
			least, found = c, true
		}
	}
	return least, found
}

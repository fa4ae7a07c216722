// Package export writes a generated season as a flat CSV schedule.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/derekprior/leaguegen/internal/schedule"
)

// Header is the first record of every export.
var Header = []string{"Home Team", "Away Team", "Game Time", "Field", "Date"}

// Row is one exported game.
type Row struct {
	Home  string
	Away  string
	Time  string
	Field string
	Date  string
}

func (r Row) record() []string {
	return []string{r.Home, r.Away, r.Time, r.Field, r.Date}
}

// Rows returns one row per game in creation order. Team names and slot labels
// are looked up at export time; the date is the label the game was created with.
func Rows(s *schedule.Season) []Row {
	rows := make([]Row, 0, len(s.Games))
	for _, g := range s.Games {
		slot := s.Slot(g.Slot)
		rows = append(rows, Row{
			Home:  s.Team(g.Home).Name,
			Away:  s.Team(g.Away).Name,
			Time:  slot.Time,
			Field: slot.Field,
			Date:  g.Date,
		})
	}
	return rows
}

// Write writes the header and every game to w.
func Write(w io.Writer, s *schedule.Season) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range Rows(s) {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates or truncates path and writes the schedule to it.
func WriteFile(path string, s *schedule.Season) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses an exported schedule back into rows.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}
	if len(records) == 0 || !slices.Equal(records[0], Header) {
		return nil, fmt.Errorf("reading schedule: missing header %v", Header)
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{Home: rec[0], Away: rec[1], Time: rec[2], Field: rec[3], Date: rec[4]})
	}
	return rows, nil
}

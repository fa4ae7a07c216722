package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguegen/internal/schedule"
)

const (
	MasterSheet  = "Master Schedule"
	SummarySheet = "Summary"

	maxSheetName = 31
)

// MasterHeaders are the columns of the master schedule sheet.
var MasterHeaders = []string{"Round", "Date", "Slot", "Time", "Field", "Home", "Away"}

var teamHeaders = []string{"Round", "Date", "Time", "Field", "Opponent", "Home/Away"}

// Row is one game as laid out on the master sheet. Line is the sheet row it
// was read from, zero for generated rows.
type Row struct {
	Line  int
	Round int
	Date  string
	Slot  int
	Time  string
	Field string
	Home  string
	Away  string
}

// Generate creates an Excel workbook with the master schedule, per-team sheets
// and a summary of the season's balance.
func Generate(s *schedule.Season) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	rows := masterRows(s)
	if err := writeMasterSheet(f, rows); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if err := writeSummarySheet(f, s); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}

	teams := make([]string, len(s.Teams))
	for i, t := range s.Teams {
		teams[i] = t.Name
	}
	if err := writeTeamSheets(f, teams, rows); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// masterRows lists every game ordered by round, then slot.
func masterRows(s *schedule.Season) []Row {
	rows := make([]Row, 0, len(s.Games))
	for _, g := range s.Games {
		slot := s.Slot(g.Slot)
		rows = append(rows, Row{
			Round: int(g.DateID),
			Date:  g.Date,
			Slot:  int(g.Slot),
			Time:  slot.Time,
			Field: slot.Field,
			Home:  s.Team(g.Home).Name,
			Away:  s.Team(g.Away).Name,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Round != rows[j].Round {
			return rows[i].Round < rows[j].Round
		}
		return rows[i].Slot < rows[j].Slot
	})
	return rows
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style := headerStyle(f); style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeMasterSheet(f *excelize.File, rows []Row) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, MasterHeaders)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	centered, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), r.Round)
		f.SetCellValue(sheet, cellRef(2, row), r.Date)
		f.SetCellValue(sheet, cellRef(3, row), r.Slot)
		f.SetCellValue(sheet, cellRef(4, row), r.Time)
		f.SetCellValue(sheet, cellRef(5, row), r.Field)
		f.SetCellValue(sheet, cellRef(6, row), r.Home)
		f.SetCellValue(sheet, cellRef(7, row), r.Away)

		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(MasterHeaders), row), cellStyle)
		}
		if centered != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(1, row), centered)
			f.SetCellStyle(sheet, cellRef(3, row), cellRef(3, row), centered)
		}
	}

	// Set column widths (sized for Arial 16)
	widths := map[string]float64{"A": 10, "B": 18, "C": 8, "D": 10, "E": 28, "F": 22, "G": 22}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s *schedule.Season) error {
	sheet := SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	report := s.Report()

	headers := []string{"Team", "Games", "Home", "Away"}
	for _, t := range s.Teams {
		headers = append(headers, "vs "+t.Name)
	}
	matchupEnd := len(headers)
	if len(report.Teams) > 0 {
		for _, lc := range report.Teams[0].Fields {
			headers = append(headers, lc.Label)
		}
		for _, lc := range report.Teams[0].Times {
			headers = append(headers, lc.Label)
		}
	}
	writeHeaders(f, sheet, headers)

	for i, t := range report.Teams {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), t.Name)
		f.SetCellValue(sheet, cellRef(2, row), t.Games)
		f.SetCellValue(sheet, cellRef(3, row), t.HomeGames)
		f.SetCellValue(sheet, cellRef(4, row), t.Games-t.HomeGames)
		for j, c := range t.Matchups {
			if c == schedule.Forbidden {
				f.SetCellValue(sheet, cellRef(j+5, row), "-")
				continue
			}
			f.SetCellValue(sheet, cellRef(j+5, row), c)
		}
		col := matchupEnd + 1
		for _, counts := range [][]schedule.LabelCount{t.Fields, t.Times} {
			for _, lc := range counts {
				f.SetCellValue(sheet, cellRef(col, row), lc.Count)
				col++
			}
		}
	}

	b := report.Balance
	stats := []struct {
		label string
		value any
	}{
		{"Home spread", b.HomeSpread},
		{"Matchup mean", b.MatchupMean},
		{"Matchup std dev", b.MatchupStdDev},
		{"Max matchup spread", b.MaxMatchupSpread},
		{"Idle team-dates", b.IdleTeamDates},
		{"Score", b.Score()},
	}
	start := len(report.Teams) + 3
	for i, st := range stats {
		f.SetCellValue(sheet, cellRef(1, start+i), st.label)
		f.SetCellValue(sheet, cellRef(2, start+i), st.value)
	}

	f.SetColWidth(sheet, "A", "A", 24)
	if len(s.Teams) > 0 {
		first, last := colLetter(5), colLetter(matchupEnd)
		f.SetColWidth(sheet, first, colLetter(len(headers)), 14)

		// Conditional formatting: valid pairings that never met get light red
		redFill, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		})
		cellRange := fmt.Sprintf("%s2:%s%d", first, last, len(report.Teams)+1)
		topCell := fmt.Sprintf("%s2", first)
		f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: fmt.Sprintf(`AND(ISNUMBER(%s),%s=0)`, topCell, topCell),
				Format:   &redFill,
			},
		})
	}
	return nil
}

func writeTeamSheets(f *excelize.File, teams []string, rows []Row) error {
	used := map[string]bool{strings.ToLower(MasterSheet): true, strings.ToLower(SummarySheet): true}
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	for _, team := range teams {
		sheet := SheetName(team, used)
		used[strings.ToLower(sheet)] = true
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", team, err)
		}
		writeHeaders(f, sheet, teamHeaders)

		row := 2
		for _, r := range rows {
			var opponent, homeAway string
			switch team {
			case r.Home:
				opponent, homeAway = r.Away, "Home"
			case r.Away:
				opponent, homeAway = r.Home, "Away"
			default:
				continue
			}
			f.SetCellValue(sheet, cellRef(1, row), r.Round)
			f.SetCellValue(sheet, cellRef(2, row), r.Date)
			f.SetCellValue(sheet, cellRef(3, row), r.Time)
			f.SetCellValue(sheet, cellRef(4, row), r.Field)
			f.SetCellValue(sheet, cellRef(5, row), opponent)
			f.SetCellValue(sheet, cellRef(6, row), homeAway)
			if cellStyle != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(teamHeaders), row), cellStyle)
			}
			row++
		}

		// Set column widths (sized for Arial 16)
		widths := map[string]float64{"A": 10, "B": 18, "C": 10, "D": 28, "E": 22, "F": 14}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

// ReadMaster parses the master schedule sheet. Rows without a numeric round
// are skipped.
func ReadMaster(f *excelize.File) ([]Row, error) {
	cells, err := f.GetRows(MasterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MasterSheet, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s is empty", MasterSheet)
	}
	if len(cells[0]) < len(MasterHeaders) || cells[0][0] != MasterHeaders[0] {
		return nil, fmt.Errorf("%s: unexpected header %v", MasterSheet, cells[0])
	}

	var rows []Row
	for i, c := range cells[1:] {
		if len(c) < len(MasterHeaders) {
			c = append(c, make([]string, len(MasterHeaders)-len(c))...)
		}
		round, err := strconv.Atoi(strings.TrimSpace(c[0]))
		if err != nil {
			continue
		}
		slot, _ := strconv.Atoi(strings.TrimSpace(c[2]))
		rows = append(rows, Row{
			Line:  i + 2,
			Round: round,
			Date:  c[1],
			Slot:  slot,
			Time:  c[3],
			Field: c[4],
			Home:  c[5],
			Away:  c[6],
		})
	}
	return rows, nil
}

// UpdateTeamSheets rebuilds every team sheet in the workbook at path from its
// master schedule, so hand edits to the master sheet carry over.
func UpdateTeamSheets(path string, teams []string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := ReadMaster(f)
	if err != nil {
		return err
	}

	for _, sheet := range f.GetSheetList() {
		if sheet != MasterSheet && sheet != SummarySheet {
			if err := f.DeleteSheet(sheet); err != nil {
				return fmt.Errorf("removing %s: %w", sheet, err)
			}
		}
	}
	if err := writeTeamSheets(f, teams, rows); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}
	return f.Save()
}

// SheetName turns a team name into a valid worksheet name not in used. Keys
// of used are lower case since sheet names are case-insensitive.
func SheetName(team string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, team)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Team"
	}
	name = truncate(name, maxSheetName)

	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	return candidate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

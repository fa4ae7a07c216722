package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derekprior/leaguegen/internal/config"
	"github.com/derekprior/leaguegen/internal/excel"
	"github.com/derekprior/leaguegen/internal/export"
	"github.com/derekprior/leaguegen/internal/schedule"
	"github.com/derekprior/leaguegen/internal/server"
	"github.com/derekprior/leaguegen/internal/validator"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

// newLogger builds the diagnostics logger. It writes to w so schedule output
// on stdout stays clean.
func newLogger(level string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.WarnLevel)
		log.WithField("invalid_level", level).Warn("Invalid log level, using warn")
	}
	return log
}

type generateOptions struct {
	configPath string
	outputPath string
	seed       int64
	seedSet    bool
	attempts   int
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "leaguegen",
		Short: "League game schedule generator",
	}

	var logLevel string
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Diagnostics log level (debug, info, warn, error)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var opts generateOptions
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			opts.configPath = configPath
			opts.seedSet = cmd.Flags().Changed("seed")
			return runGenerate(opts, newLogger(logLevel, os.Stderr))
		},
	}
	generateCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "schedule.csv", "Output file path (.csv or .xlsx)")
	generateCmd.Flags().Int64Var(&opts.seed, "seed", 1, "Random seed (overrides season.seed)")
	generateCmd.Flags().IntVar(&opts.attempts, "attempts", 0, "Seeds to try, keeping the best balanced schedule (overrides season.attempts)")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule workbook against the config",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	var addr string
	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the season over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runServe(configPath, addr, newLogger(logLevel, os.Stderr))
		},
	}
	serveCmd.Flags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	scheduleCmd.AddCommand(generateCmd, validateCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# League Season Configuration
# ==========================
# This file defines the league used to generate a schedule.

# Season sets the size of the league. Every date offers the same time slots.
season:
  teams: 8
  slots_per_date: 4
  dates: 10

  # The same seed always produces the same schedule.
  seed: 1

  # Try this many seeds (seed, seed+1, ...) and keep the best balanced
  # schedule: even matchups first, then home/away balance.
  attempts: 25

# Team names, in team-number order. Unnamed teams are called "Team N".
teams:
  - Angels
  - Astros
  - Cubs
  - Mariners
  - Padres
  - Phillies
  - Pirates
  - Royals

# Field and time for each slot, in slot-number order. Unlabelled slots
# export as "Null".
slots:
  - field: Moscariello Ballpark
    time: "17:45"
  - field: Symonds Field
    time: "17:45"
  - field: Moscariello Ballpark
    time: "20:00"
  - field: Washington Park
    time: "20:00"

# Either list a label per date...
# dates: ["Opening Day", "Week 2"]
# ...or generate ISO dates from a start date. Unlabelled dates are numbered.
date_range:
  start_date: "2026-04-25"
  every_days: 7

# Slots a team cannot play in. Teams are referenced by name or number.
# Two teams whose restrictions cover every slot never play each other.
restrictions:
  - team: Cubs
    slots: [3, 4]
`

func runGenerate(opts generateOptions, log logrus.FieldLogger) error {
	cfg, err := config.LoadFromFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	seed := int64(1)
	if cfg.Season.Seed != nil {
		seed = *cfg.Season.Seed
	}
	if opts.seedSet {
		seed = opts.seed
	}
	attempts := cfg.Attempts()
	if opts.attempts > 0 {
		attempts = opts.attempts
	}

	fmt.Printf("Scheduling %d teams into %d slots on %d dates...\n",
		cfg.Season.Teams, cfg.Season.SlotsPerDate, cfg.Season.Dates)

	build := func() (*schedule.Season, error) {
		return schedule.FromConfig(cfg, schedule.WithLogger(log))
	}
	best, err := schedule.Search(context.Background(), build, seed, attempts)
	if err != nil {
		return fmt.Errorf("generating schedule: %w", err)
	}
	s := best.Season
	if err := s.Check(); err != nil {
		return fmt.Errorf("generated schedule is inconsistent: %w", err)
	}

	fmt.Printf("✓ %d games scheduled (seed %d)\n", len(s.Games), best.Seed)
	if attempts > 1 {
		fmt.Printf("  best of %d attempts, balance score %.2f\n", attempts, best.Score)
	}

	report := s.Report()
	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-15s %6s %4s %4s %8s  %s | %s\n", "Team", "Games", "Home", "Away", "Matchups", "Fields", "Times")
	for _, t := range report.Teams {
		lo, hi := matchupRange(t.Matchups)
		fmt.Printf("  %-15s %6d %4d %4d %8s  %s | %s\n", t.Name, t.Games, t.HomeGames, t.Games-t.HomeGames,
			fmt.Sprintf("%d-%d", lo, hi), formatCounts(t.Fields), formatCounts(t.Times))
	}

	warnings := balanceWarnings(s, report.Balance)
	if len(warnings) > 0 {
		fmt.Printf("\nGuideline violations (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No guideline violations")
	}

	if err := writeSchedule(s, opts.outputPath); err != nil {
		return err
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", opts.outputPath)
	return nil
}

func writeSchedule(s *schedule.Season, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := excel.Generate(s)
		if err != nil {
			return fmt.Errorf("generating Excel: %w", err)
		}
		if err := f.SaveAs(path); err != nil {
			return fmt.Errorf("saving file: %w", err)
		}
		return nil
	}
	if err := export.WriteFile(path, s); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	return nil
}

func matchupRange(counts []int) (lo, hi int) {
	found := false
	for _, c := range counts {
		if c == schedule.Forbidden {
			continue
		}
		if !found {
			lo, hi, found = c, c, true
			continue
		}
		lo, hi = min(lo, c), max(hi, c)
	}
	return lo, hi
}

// formatCounts renders label counts as "North 3, South 2".
func formatCounts(counts []schedule.LabelCount) string {
	parts := make([]string, len(counts))
	for i, lc := range counts {
		parts[i] = fmt.Sprintf("%s %d", lc.Label, lc.Count)
	}
	return strings.Join(parts, ", ")
}

func balanceWarnings(s *schedule.Season, b schedule.Balance) []string {
	var warnings []string
	if b.HomeSpread > 1 {
		warnings = append(warnings, fmt.Sprintf("home games differ by %d between teams", b.HomeSpread))
	}
	if b.MaxMatchupSpread > 2 {
		warnings = append(warnings, fmt.Sprintf("a team plays one opponent %d more times than another", b.MaxMatchupSpread))
	}
	perDate := min(s.Size.SlotsPerDate, s.Size.Teams/2)
	if unavoidable := (s.Size.Teams - 2*perDate) * s.Size.Dates; b.IdleTeamDates > unavoidable {
		warnings = append(warnings, fmt.Sprintf("%d team-dates without a game (%d unavoidable)", b.IdleTeamDates, unavoidable))
	}
	return warnings
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf(" (row %d)", v.Row)
		}
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation%s: %s\n", where, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Guideline violation%s: %s\n", where, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d guideline violations\n", errors, warnings)

	// Regenerate team sheets from master schedule
	teams := make([]string, cfg.Season.Teams)
	for i := range teams {
		teams[i] = cfg.TeamName(i + 1)
	}
	if err := excel.UpdateTeamSheets(schedulePath, teams); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", schedulePath)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

func runServe(configPath, addr string, log *logrus.Logger) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	s, err := schedule.FromConfig(cfg, schedule.WithLogger(log))
	if err != nil {
		return fmt.Errorf("building season: %w", err)
	}

	seed := int64(1)
	if cfg.Season.Seed != nil {
		seed = *cfg.Season.Seed
	}
	srv := server.New(s, seed, log)

	fmt.Printf("✓ Serving %d teams on %s\n", len(s.Teams), addr)
	log.WithField("addr", addr).Info("listening")
	return http.ListenAndServe(addr, srv.Routes())
}

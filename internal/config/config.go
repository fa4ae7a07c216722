package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// Season holds the dimensions every entity is created from.
type Season struct {
	Teams        int    `yaml:"teams" validate:"required,min=1"`
	SlotsPerDate int    `yaml:"slots_per_date" validate:"required,min=1"`
	Dates        int    `yaml:"dates" validate:"required,min=1"`
	Seed         *int64 `yaml:"seed"`
	Attempts     int    `yaml:"attempts" validate:"min=0,max=10000"`
}

// Slot labels one recurring time slot.
type Slot struct {
	Field string `yaml:"field"`
	Time  string `yaml:"time"`
}

// DateRange generates date labels starting at StartDate, EveryDays apart.
type DateRange struct {
	StartDate Date `yaml:"start_date"`
	EveryDays int  `yaml:"every_days" validate:"min=0"`
}

// Restriction lists the slots a team cannot play in. Team is a team name or
// a 1-based team number.
type Restriction struct {
	Team  string `yaml:"team" validate:"required"`
	Slots []int  `yaml:"slots" validate:"dive,min=1"`
}

type Config struct {
	Season       Season        `yaml:"season"`
	Teams        []string      `yaml:"teams"`
	Slots        []Slot        `yaml:"slots"`
	Dates        []string      `yaml:"dates"`
	DateRange    *DateRange    `yaml:"date_range"`
	Restrictions []Restriction `yaml:"restrictions" validate:"dive"`
}

const defaultEveryDays = 7

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// TeamName returns the display name of the 1-based team id.
func (c *Config) TeamName(id int) string {
	if id >= 1 && id <= len(c.Teams) && c.Teams[id-1] != "" {
		return c.Teams[id-1]
	}
	return fmt.Sprintf("Team %d", id)
}

// TeamID resolves a team reference (display name or number) to its 1-based id.
func (c *Config) TeamID(ref string) (int, error) {
	for id := 1; id <= c.Season.Teams; id++ {
		if c.TeamName(id) == ref {
			return id, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= c.Season.Teams {
		return n, nil
	}
	return 0, fmt.Errorf("unknown team %q", ref)
}

// DateLabels returns one label per season date. Listed labels come first;
// a date range generates ISO dates; anything left over is numbered.
func (c *Config) DateLabels() []string {
	labels := make([]string, c.Season.Dates)
	for i := range labels {
		switch {
		case i < len(c.Dates):
			labels[i] = c.Dates[i]
		case c.DateRange != nil:
			every := c.DateRange.EveryDays
			if every == 0 {
				every = defaultEveryDays
			}
			labels[i] = c.DateRange.StartDate.Time.AddDate(0, 0, i*every).Format("2006-01-02")
		default:
			labels[i] = strconv.Itoa(i + 1)
		}
	}
	return labels
}

// Attempts returns how many seeded regenerations to search, at least one.
func (c *Config) Attempts() int {
	if c.Season.Attempts < 1 {
		return 1
	}
	return c.Season.Attempts
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// Validate checks field constraints and cross-references.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}

	if len(c.Teams) > c.Season.Teams {
		return fmt.Errorf("%d team names given for %d teams", len(c.Teams), c.Season.Teams)
	}
	seen := make(map[string]int)
	for id := 1; id <= c.Season.Teams; id++ {
		name := c.TeamName(id)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("team name %q used by teams %d and %d", name, prev, id)
		}
		seen[name] = id
	}

	if len(c.Slots) > c.Season.SlotsPerDate {
		return fmt.Errorf("%d slots labelled but only %d slots per date", len(c.Slots), c.Season.SlotsPerDate)
	}

	if len(c.Dates) > 0 && c.DateRange != nil {
		return fmt.Errorf("config cannot have both 'dates' and 'date_range'")
	}
	if len(c.Dates) > c.Season.Dates {
		return fmt.Errorf("%d date labels given for %d dates", len(c.Dates), c.Season.Dates)
	}

	for _, r := range c.Restrictions {
		if _, err := c.TeamID(r.Team); err != nil {
			return fmt.Errorf("restriction: %w", err)
		}
		for _, slot := range r.Slots {
			if slot > c.Season.SlotsPerDate {
				return fmt.Errorf("restriction for %q: slot %d out of range 1-%d", r.Team, slot, c.Season.SlotsPerDate)
			}
		}
	}

	return nil
}

// describe turns validator field errors into config-path messages.
func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", path))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s (got %v)", path, fe.Param(), fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s (got %v)", path, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", path))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

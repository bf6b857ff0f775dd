package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"schedgrid/internal/grid"
)

// ICSConfig describes a single appointment feed.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Resources assigns every appointment of the feed to resources, keyed by
	// resource level name (e.g. Owners: ["1", "3"]).
	Resources map[string][]string `yaml:"resources,omitempty" json:"resources,omitempty"`
	// Block marks the feed's appointments as blocked time.
	Block bool `yaml:"block,omitempty" json:"block,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ViewSettings configures the initial view and its date grid.
type ViewSettings struct {
	// CurrentView is one of Day, Week, WorkWeek, Month.
	CurrentView string `yaml:"current_view" json:"current_view"`
	// FirstDayOfWeek is 0 (Sunday) through 6 (Saturday).
	FirstDayOfWeek int `yaml:"first_day_of_week" json:"first_day_of_week"`
	// WorkDays lists working weekdays as 0..6.
	WorkDays []int `yaml:"work_days" json:"work_days"`
	// ShowWeekend keeps non-working columns visible.
	ShowWeekend bool `yaml:"show_weekend" json:"show_weekend"`
	// HighlightWorkDays marks working-day cells.
	HighlightWorkDays bool `yaml:"highlight_work_days" json:"highlight_work_days"`
	// Interval is the number of days/weeks/months shown at once.
	Interval int `yaml:"interval" json:"interval"`
	// MaxPerCell caps the appointments listed per cell; the rest are counted
	// as "more".
	MaxPerCell int `yaml:"max_per_cell" json:"max_per_cell"`
}

// ResourceConfig is one resource entry.
type ResourceConfig struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	Color    string `yaml:"color,omitempty" json:"color,omitempty"`
	CSSClass string `yaml:"css_class,omitempty" json:"css_class,omitempty"`
	GroupID  string `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	WorkDays []int  `yaml:"work_days,omitempty" json:"work_days,omitempty"`
}

// ResourceLevelConfig is a named list of resources.
type ResourceLevelConfig struct {
	Name          string           `yaml:"name" json:"name"`
	Title         string           `yaml:"title" json:"title"`
	Field         string           `yaml:"field" json:"field"`
	AllowMultiple bool             `yaml:"allow_multiple" json:"allow_multiple"`
	Items         []ResourceConfig `yaml:"items" json:"items"`
}

// GroupConfig selects the resource levels that expand the grid.
type GroupConfig struct {
	Resources []string `yaml:"resources" json:"resources"`
	ByDate    bool     `yaml:"by_date" json:"by_date"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone dates are interpreted in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is DEBUG, INFO or ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	View      ViewSettings          `yaml:"view" json:"view"`
	Resources []ResourceLevelConfig `yaml:"resources" json:"resources"`
	Group     GroupConfig           `yaml:"group" json:"group"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for re-fetching appointment feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ICS is the list of appointment feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		Timezone: "UTC",
		LogLevel: "INFO",
		View: ViewSettings{
			CurrentView:       string(grid.ViewMonth),
			FirstDayOfWeek:    0,
			WorkDays:          []int{1, 2, 3, 4, 5},
			ShowWeekend:       true,
			HighlightWorkDays: true,
			Interval:          1,
			MaxPerCell:        3,
		},
		Resources:   []ResourceLevelConfig{},
		RefreshCron: "*/15 * * * *",
		ICS:         []ICSConfig{},
	}
}

// Normalize fills in missing/zero values and replaces out-of-range ones so
// that partially-filled configs still produce a usable grid.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if _, err := grid.ParseView(c.View.CurrentView); err != nil {
		c.View.CurrentView = string(grid.ViewMonth)
	}
	if c.View.FirstDayOfWeek < 0 || c.View.FirstDayOfWeek > 6 {
		c.View.FirstDayOfWeek = 0
	}
	if c.View.WorkDays == nil {
		c.View.WorkDays = []int{1, 2, 3, 4, 5}
	}
	valid := c.View.WorkDays[:0]
	for _, d := range c.View.WorkDays {
		if d >= 0 && d <= 6 {
			valid = append(valid, d)
		}
	}
	c.View.WorkDays = valid
	if c.View.Interval < 1 {
		c.View.Interval = 1
	}
	if c.View.Interval > grid.MaxInterval {
		c.View.Interval = grid.MaxInterval
	}
	if c.View.MaxPerCell < 1 {
		c.View.MaxPerCell = 3
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.Resources == nil {
		c.Resources = []ResourceLevelConfig{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ViewConfig converts the view settings into a grid configuration anchored
// at anchor.
func (c *Config) ViewConfig(anchor grid.Date) grid.ViewConfig {
	view, err := grid.ParseView(c.View.CurrentView)
	if err != nil {
		view = grid.ViewMonth
	}
	vc := grid.ViewConfig{
		View:              view,
		Anchor:            anchor,
		FirstDayOfWeek:    time.Weekday(c.View.FirstDayOfWeek),
		WorkDays:          grid.NewWeekdaySet(c.View.WorkDays...),
		ShowWeekend:       c.View.ShowWeekend,
		HighlightWorkDays: c.View.HighlightWorkDays,
		Interval:          c.View.Interval,
		Location:          c.Location(),
	}
	vc.Normalize()
	return vc
}

// ResourceLevels converts the resource section into grid levels.
func (c *Config) ResourceLevels() []grid.ResourceLevel {
	out := make([]grid.ResourceLevel, 0, len(c.Resources))
	for _, rl := range c.Resources {
		level := grid.ResourceLevel{
			Name:          rl.Name,
			Title:         rl.Title,
			Field:         rl.Field,
			AllowMultiple: rl.AllowMultiple,
			Resources:     make([]grid.Resource, 0, len(rl.Items)),
		}
		for _, it := range rl.Items {
			r := grid.Resource{
				ID:       it.ID,
				Text:     it.Text,
				Color:    it.Color,
				CSSClass: it.CSSClass,
				GroupID:  it.GroupID,
			}
			if it.WorkDays != nil {
				wd := grid.NewWeekdaySet(it.WorkDays...)
				r.WorkDays = &wd
			}
			level.Resources = append(level.Resources, r)
		}
		out = append(out, level)
	}
	return out
}

// Grouping returns the grid grouping configuration.
func (c *Config) Grouping() grid.GroupConfig {
	return grid.GroupConfig{
		Resources: append([]string(nil), c.Group.Resources...),
		ByDate:    c.Group.ByDate,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating parent directories) and returned.
//   - Otherwise the YAML is decoded over the defaults and normalized, so
//     keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) when needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

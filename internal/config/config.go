package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"smartcal/internal/model"
)

// SeedTimeLayout is the layout used for seed event timestamps.
const SeedTimeLayout = "2006-01-02T15:04"

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls headless screenshots of the calendar page.
type CaptureConfig struct {
	Width          int `yaml:"width" json:"width"`
	Height         int `yaml:"height" json:"height"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout is TimeoutSeconds as a duration.
func (c CaptureConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SeedEvent is an event loaded into the store at startup. Start and End use
// SeedTimeLayout and are interpreted in the configured timezone.
type SeedEvent struct {
	Title       string `yaml:"title" json:"title"`
	Start       string `yaml:"start" json:"start"`
	End         string `yaml:"end" json:"end"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// Draft converts the seed into a store draft.
func (s SeedEvent) Draft(loc *time.Location) (model.Draft, error) {
	start, err := time.ParseInLocation(SeedTimeLayout, s.Start, loc)
	if err != nil {
		return model.Draft{}, fmt.Errorf("seed %q start: %w", s.Title, err)
	}
	end, err := time.ParseInLocation(SeedTimeLayout, s.End, loc)
	if err != nil {
		return model.Draft{}, fmt.Errorf("seed %q end: %w", s.Title, err)
	}
	kind := model.Kind(strings.ToLower(s.Kind))
	if !kind.Valid() {
		kind = model.KindRegular
	}
	return model.Draft{
		Title:       s.Title,
		Start:       start,
		End:         end,
		Category:    s.Category,
		Description: s.Description,
		Kind:        kind,
	}, nil
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone events are displayed in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	DefaultCategory string           `yaml:"default_category" json:"default_category"`
	LeaveColor      string           `yaml:"leave_color" json:"leave_color"`
	Categories      []model.Category `yaml:"categories" json:"categories"`

	// StatsRefresh is a cron-style schedule string (e.g. "*/5 * * * *")
	// used to refresh the this-week gauge.
	StatsRefresh string `yaml:"stats_refresh" json:"stats_refresh"`

	SeedEvents []SeedEvent `yaml:"seed_events" json:"seed_events"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`
}

// DefaultCategories is the built-in category table.
func DefaultCategories() []model.Category {
	return []model.Category{
		{ID: "work", Name: "Work", Color: "blue"},
		{ID: "personal", Name: "Personal", Color: "green"},
		{ID: "health", Name: "Health", Color: "purple"},
		{ID: "social", Name: "Social", Color: "pink"},
	}
}

// DefaultSeedEvents is the sample data shipped with a fresh config.
func DefaultSeedEvents() []SeedEvent {
	return []SeedEvent{
		{Title: "Team Meeting", Start: "2024-12-25T10:00", End: "2024-12-25T11:00", Category: "work", Description: "Weekly team sync"},
		{Title: "Lunch with Sarah", Start: "2024-12-26T12:30", End: "2024-12-26T13:30", Category: "personal", Description: "Catch up over lunch"},
		{Title: "Project Deadline", Start: "2024-12-28T09:00", End: "2024-12-28T17:00", Category: "work", Description: "Final submission"},
		{Title: "Vacation", Start: "2024-12-30T00:00", End: "2024-12-30T23:59", Category: "personal", Description: "Annual leave", Kind: string(model.KindLeave)},
		{Title: "Sick Leave", Start: "2024-12-27T00:00", End: "2024-12-27T23:59", Category: "personal", Description: "Medical appointment", Kind: string(model.KindLeave)},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "Local",
		LogLevel:        "INFO",
		DefaultCategory: "work",
		LeaveColor:      "red",
		Categories:      DefaultCategories(),
		StatsRefresh:    "*/5 * * * *",
		SeedEvents:      DefaultSeedEvents(),
		BasicAuth:       nil,
		Capture:         CaptureConfig{Width: 1280, Height: 960, TimeoutSeconds: 30},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if len(c.Categories) == 0 {
		c.Categories = d.Categories
	}
	title := cases.Title(language.English)
	for i := range c.Categories {
		if c.Categories[i].Name == "" {
			c.Categories[i].Name = title.String(c.Categories[i].ID)
		}
		if c.Categories[i].Color == "" {
			c.Categories[i].Color = "blue"
		}
	}
	if c.DefaultCategory == "" || !c.hasCategory(c.DefaultCategory) {
		// Unknown default; use the first configured category.
		c.DefaultCategory = c.Categories[0].ID
		if c.hasCategory(d.DefaultCategory) {
			c.DefaultCategory = d.DefaultCategory
		}
	}
	if c.LeaveColor == "" {
		c.LeaveColor = d.LeaveColor
	}
	if _, err := cron.ParseStandard(c.StatsRefresh); err != nil {
		c.StatsRefresh = d.StatsRefresh
	}
	if c.SeedEvents == nil {
		c.SeedEvents = []SeedEvent{}
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = d.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = d.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = d.Capture.TimeoutSeconds
	}
}

func (c *Config) hasCategory(id string) bool {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

// ApplyEnv overrides fields from SMARTCAL_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SMARTCAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SMARTCAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads the YAML config at path. A missing file is not an error: the
// defaults are written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save normalizes cfg and replaces path with its YAML encoding.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return writeFileAtomic(path, data, 0o600)
}

// writeFileAtomic writes data next to path and renames it into place, so a
// reader never sees a partial file.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

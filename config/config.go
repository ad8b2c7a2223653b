package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/ghinbox/internal/cache"
	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scorer"
)

// Config represents the application configuration
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty"`

	// Top-level config sections
	Weights *WeightOverrides `yaml:"weights,omitempty"`
	Repeat  *RepeatOverrides `yaml:"repeat,omitempty"`
	Badges  *BadgeOverrides  `yaml:"badges,omitempty"`
	Sync    *SyncOverrides   `yaml:"sync,omitempty"`
	Cache   *CacheOverrides  `yaml:"cache,omitempty"`
}

// WeightOverrides customizes the base weight of each notification reason
type WeightOverrides struct {
	ReviewRequested *int `yaml:"review_requested,omitempty"`
	Assign          *int `yaml:"assign,omitempty"`
	Mention         *int `yaml:"mention,omitempty"`
	Author          *int `yaml:"author,omitempty"`
	TeamMention     *int `yaml:"team_mention,omitempty"`
	Comment         *int `yaml:"comment,omitempty"`
	StateChange     *int `yaml:"state_change,omitempty"`
	Subscribed      *int `yaml:"subscribed,omitempty"`
	Other           *int `yaml:"other,omitempty"`
}

// RepeatOverrides tunes the degraded weight of a repeated reason
type RepeatOverrides struct {
	Divisor *int `yaml:"divisor,omitempty"`
	Floor   *int `yaml:"floor,omitempty"`
}

// BadgeOverrides tunes badge thresholds
type BadgeOverrides struct {
	HotMinReasons *int           `yaml:"hot_min_reasons,omitempty"`
	HotRecency    *time.Duration `yaml:"hot_recency,omitempty"`
	HotWindow     *time.Duration `yaml:"hot_window,omitempty"`
	CommentsOver  *int           `yaml:"comments_over,omitempty"`
	OldAfter      *time.Duration `yaml:"old_after,omitempty"`
}

// SyncOverrides tunes the sync pass and the watch scheduler
type SyncOverrides struct {
	Interval    *time.Duration `yaml:"interval,omitempty"`
	StopOnStale *bool          `yaml:"stop_on_stale,omitempty"`
	MaxPages    *int           `yaml:"max_pages,omitempty"`
	PerPage     *int           `yaml:"per_page,omitempty"`
	Timeout     *time.Duration `yaml:"timeout,omitempty"`
	BackoffMax  *time.Duration `yaml:"backoff_max,omitempty"`
}

// CacheOverrides selects the cache backend
type CacheOverrides struct {
	Backend  *string `yaml:"backend,omitempty"`
	Path     *string `yaml:"path,omitempty"`
	RedisURL *string `yaml:"redis_url,omitempty"`
}

// SyncSettings is the resolved sync configuration
type SyncSettings struct {
	Interval    time.Duration
	StopOnStale bool
	MaxPages    int
	PerPage     int
	Timeout     time.Duration
	BackoffMax  time.Duration
}

// DefaultSyncSettings returns the default sync configuration
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		Interval:    10 * time.Second,
		StopOnStale: true,
		MaxPages:    0,
		PerPage:     50,
		Timeout:     30 * time.Second,
		BackoffMax:  2 * time.Minute,
	}
}

// envOverrides are applied after the config files.
type envOverrides struct {
	Format       string        `env:"GHINBOX_FORMAT"`
	CacheBackend string        `env:"GHINBOX_CACHE_BACKEND"`
	CachePath    string        `env:"GHINBOX_CACHE_PATH"`
	RedisURL     string        `env:"GHINBOX_REDIS_URL"`
	SyncInterval time.Duration `env:"GHINBOX_SYNC_INTERVAL"`
}

// ScoringPolicy returns the scoring policy with user overrides merged with defaults
func (c *Config) ScoringPolicy() scorer.Policy {
	p := scorer.DefaultPolicy()

	if w := c.Weights; w != nil {
		for reason, v := range map[model.Reason]*int{
			model.ReasonReviewRequested: w.ReviewRequested,
			model.ReasonAssign:          w.Assign,
			model.ReasonMention:         w.Mention,
			model.ReasonAuthor:          w.Author,
			model.ReasonTeamMention:     w.TeamMention,
			model.ReasonComment:         w.Comment,
			model.ReasonStateChange:     w.StateChange,
			model.ReasonSubscribed:      w.Subscribed,
			model.ReasonOther:           w.Other,
		} {
			if v != nil {
				p.Weights[reason] = *v
			}
		}
	}

	if r := c.Repeat; r != nil {
		setIfNotNil(&p.RepeatDivisor, r.Divisor)
		setIfNotNil(&p.RepeatFloor, r.Floor)
	}

	if b := c.Badges; b != nil {
		setIfNotNil(&p.HotMinReasons, b.HotMinReasons)
		setIfNotNil(&p.HotRecency, b.HotRecency)
		setIfNotNil(&p.HotWindow, b.HotWindow)
		setIfNotNil(&p.CommentsOver, b.CommentsOver)
		setIfNotNil(&p.OldAfter, b.OldAfter)
	}

	return p
}

// SyncSettings returns the sync settings with user overrides merged with defaults
func (c *Config) SyncSettings() SyncSettings {
	s := DefaultSyncSettings()
	if o := c.Sync; o != nil {
		setIfNotNil(&s.Interval, o.Interval)
		setIfNotNil(&s.StopOnStale, o.StopOnStale)
		setIfNotNil(&s.MaxPages, o.MaxPages)
		setIfNotNil(&s.PerPage, o.PerPage)
		setIfNotNil(&s.Timeout, o.Timeout)
		setIfNotNil(&s.BackoffMax, o.BackoffMax)
	}
	return s
}

// CacheConfig returns the cache backend selection
func (c *Config) CacheConfig() cache.Config {
	cfg := cache.Config{Backend: cache.BackendFile}
	if o := c.Cache; o != nil {
		if o.Backend != nil {
			cfg.Backend = cache.Backend(*o.Backend)
		}
		setIfNotNil(&cfg.Path, o.Path)
		setIfNotNil(&cfg.RedisURL, o.RedisURL)
	}
	return cfg
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.DefaultFormat {
	case "", "table", "json":
	default:
		return fmt.Errorf("invalid default_format %q (must be table or json)", c.DefaultFormat)
	}

	p := c.ScoringPolicy()
	if p.RepeatDivisor < 1 {
		return fmt.Errorf("repeat.divisor must be at least 1, got %d", p.RepeatDivisor)
	}

	s := c.SyncSettings()
	if s.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", s.Interval)
	}
	if s.PerPage < 1 || s.PerPage > 100 {
		return fmt.Errorf("sync.per_page must be between 1 and 100, got %d", s.PerPage)
	}
	if s.MaxPages < 0 {
		return fmt.Errorf("sync.max_pages must not be negative, got %d", s.MaxPages)
	}

	backend := c.CacheConfig().Backend
	for _, b := range cache.Backends {
		if backend == b {
			return nil
		}
	}
	return fmt.Errorf("invalid cache.backend %q (must be file, sqlite, redis, or memory)", backend)
}

func setIfNotNil[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".ghinbox"
	}
	return filepath.Join(configDir, "ghinbox")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".ghinbox.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the user config directory, merges
// any local .ghinbox.yaml on top, then applies GHINBOX_* environment overrides.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads configuration from explicit global and local paths.
// Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	global, err := readConfigFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	if global != nil {
		cfg = mergeConfig(cfg, global)
	}

	local, err := readConfigFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Set defaults if still empty
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	o, err := env.ParseAs[envOverrides]()
	if err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if o.Format != "" {
		cfg.DefaultFormat = o.Format
	}
	if o.CacheBackend != "" || o.CachePath != "" || o.RedisURL != "" {
		if cfg.Cache == nil {
			cfg.Cache = &CacheOverrides{}
		}
		if o.CacheBackend != "" {
			cfg.Cache.Backend = &o.CacheBackend
		}
		if o.CachePath != "" {
			cfg.Cache.Path = &o.CachePath
		}
		if o.RedisURL != "" {
			cfg.Cache.RedisURL = &o.RedisURL
		}
	}
	if o.SyncInterval > 0 {
		if cfg.Sync == nil {
			cfg.Sync = &SyncOverrides{}
		}
		cfg.Sync.Interval = &o.SyncInterval
	}
	return nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	} else {
		result.DefaultFormat = global.DefaultFormat
	}

	result.Weights = mergeWeights(global.Weights, local.Weights)
	result.Repeat = mergeRepeat(global.Repeat, local.Repeat)
	result.Badges = mergeBadges(global.Badges, local.Badges)
	result.Sync = mergeSync(global.Sync, local.Sync)
	result.Cache = mergeCache(global.Cache, local.Cache)

	return result
}

// pick returns local when set, otherwise global.
func pick[T any](global, local *T) *T {
	if local != nil {
		return local
	}
	return global
}

func mergeWeights(global, local *WeightOverrides) *WeightOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	return &WeightOverrides{
		ReviewRequested: pick(global.ReviewRequested, local.ReviewRequested),
		Assign:          pick(global.Assign, local.Assign),
		Mention:         pick(global.Mention, local.Mention),
		Author:          pick(global.Author, local.Author),
		TeamMention:     pick(global.TeamMention, local.TeamMention),
		Comment:         pick(global.Comment, local.Comment),
		StateChange:     pick(global.StateChange, local.StateChange),
		Subscribed:      pick(global.Subscribed, local.Subscribed),
		Other:           pick(global.Other, local.Other),
	}
}

func mergeRepeat(global, local *RepeatOverrides) *RepeatOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	return &RepeatOverrides{
		Divisor: pick(global.Divisor, local.Divisor),
		Floor:   pick(global.Floor, local.Floor),
	}
}

func mergeBadges(global, local *BadgeOverrides) *BadgeOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	return &BadgeOverrides{
		HotMinReasons: pick(global.HotMinReasons, local.HotMinReasons),
		HotRecency:    pick(global.HotRecency, local.HotRecency),
		HotWindow:     pick(global.HotWindow, local.HotWindow),
		CommentsOver:  pick(global.CommentsOver, local.CommentsOver),
		OldAfter:      pick(global.OldAfter, local.OldAfter),
	}
}

func mergeSync(global, local *SyncOverrides) *SyncOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	return &SyncOverrides{
		Interval:    pick(global.Interval, local.Interval),
		StopOnStale: pick(global.StopOnStale, local.StopOnStale),
		MaxPages:    pick(global.MaxPages, local.MaxPages),
		PerPage:     pick(global.PerPage, local.PerPage),
		Timeout:     pick(global.Timeout, local.Timeout),
		BackoffMax:  pick(global.BackoffMax, local.BackoffMax),
	}
}

func mergeCache(global, local *CacheOverrides) *CacheOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	return &CacheOverrides{
		Backend:  pick(global.Backend, local.Backend),
		Path:     pick(global.Path, local.Path),
		RedisURL: pick(global.RedisURL, local.RedisURL),
	}
}

// Save saves the configuration to the global config file
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration as YAML to path
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(path, string(data))
}

// SettableKeys lists the keys accepted by Set, in help order.
var SettableKeys = []string{
	"format",
	"cache.backend",
	"cache.path",
	"cache.redis_url",
	"sync.interval",
	"sync.stop_on_stale",
	"sync.max_pages",
	"sync.per_page",
}

// Set updates one key in the config file at path, leaving other files and
// environment overrides out of it. The result must validate before it is saved.
func Set(path, key, value string) error {
	cfg, err := readConfigFile(path)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.SaveTo(path)
}

func (c *Config) set(key, value string) error {
	ensureSync := func() *SyncOverrides {
		if c.Sync == nil {
			c.Sync = &SyncOverrides{}
		}
		return c.Sync
	}
	ensureCache := func() *CacheOverrides {
		if c.Cache == nil {
			c.Cache = &CacheOverrides{}
		}
		return c.Cache
	}

	switch key {
	case "format", "default_format":
		c.DefaultFormat = value
	case "cache.backend":
		ensureCache().Backend = &value
	case "cache.path":
		ensureCache().Path = &value
	case "cache.redis_url":
		ensureCache().RedisURL = &value
	case "sync.interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		ensureSync().Interval = &d
	case "sync.stop_on_stale":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		ensureSync().StopOnStale = &b
	case "sync.max_pages", "sync.per_page":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "sync.max_pages" {
			ensureSync().MaxPages = &n
		} else {
			ensureSync().PerPage = &n
		}
	case "token":
		return fmt.Errorf("tokens cannot be stored in config files for security reasons. Run 'ghinbox auth login' or set GITHUB_TOKEN instead")
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	p := scorer.DefaultPolicy()
	s := DefaultSyncSettings()
	weight := func(r model.Reason) *int {
		v := p.Weights[r]
		return &v
	}
	backend := string(cache.BackendFile)

	return &Config{
		DefaultFormat: "table",
		Weights: &WeightOverrides{
			ReviewRequested: weight(model.ReasonReviewRequested),
			Assign:          weight(model.ReasonAssign),
			Mention:         weight(model.ReasonMention),
			Author:          weight(model.ReasonAuthor),
			TeamMention:     weight(model.ReasonTeamMention),
			Comment:         weight(model.ReasonComment),
			StateChange:     weight(model.ReasonStateChange),
			Subscribed:      weight(model.ReasonSubscribed),
			Other:           weight(model.ReasonOther),
		},
		Repeat: &RepeatOverrides{
			Divisor: &p.RepeatDivisor,
			Floor:   &p.RepeatFloor,
		},
		Badges: &BadgeOverrides{
			HotMinReasons: &p.HotMinReasons,
			HotRecency:    &p.HotRecency,
			HotWindow:     &p.HotWindow,
			CommentsOver:  &p.CommentsOver,
			OldAfter:      &p.OldAfter,
		},
		Sync: &SyncOverrides{
			Interval:    &s.Interval,
			StopOnStale: &s.StopOnStale,
			MaxPages:    &s.MaxPages,
			PerPage:     &s.PerPage,
			Timeout:     &s.Timeout,
			BackoffMax:  &s.BackoffMax,
		},
		Cache: &CacheOverrides{
			Backend: &backend,
		},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# ghinbox configuration file
# See: ghinbox config defaults  (for all available options)

# Output format: table or json
default_format: table

# Cache backend: file, sqlite, redis, or memory
# cache:
#   backend: sqlite
#   redis_url: redis://localhost:6379/0

# How often 'ghinbox watch' syncs, and when pagination stops
# sync:
#   interval: 15s
#   stop_on_stale: true
#   max_pages: 10

# Override reason weights (optional)
# weights:
#   review_requested: 29
#   mention: 17
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

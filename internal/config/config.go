package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source backends.
const (
	BackendAPI   = "api"
	BackendRSS   = "rss"
	BackendLocal = "local"
	BackendMock  = "mock"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	Results  ResultsConfig  `mapstructure:"results"`
	Reveal   RevealConfig   `mapstructure:"reveal"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// SourceConfig selects and tunes where search results come from.
type SourceConfig struct {
	Backend           string        `mapstructure:"backend"`
	BaseURL           string        `mapstructure:"base_url"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	Limit             int           `mapstructure:"limit"`
	Category          string        `mapstructure:"category"`
	Feeds             []string      `mapstructure:"feeds"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

// ResultsConfig holds the paging and hot topic knobs of the result page.
type ResultsConfig struct {
	PageSize          int `mapstructure:"page_size"`
	HotTopicThreshold int `mapstructure:"hot_topic_threshold"`
	HotTopicLimit     int `mapstructure:"hot_topic_limit"`
}

// RevealConfig times the staged appearance of a result page.
type RevealConfig struct {
	TypingInterval time.Duration `mapstructure:"typing_interval"`
	BodyDelay      time.Duration `mapstructure:"body_delay"`
	SidePanelDelay time.Duration `mapstructure:"side_panel_delay"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ArticleConfig struct {
	MaxSummaryLength int `mapstructure:"max_summary_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type MediaConfig struct {
	Darwin        MediaOpeners `mapstructure:"darwin"`
	Linux         MediaOpeners `mapstructure:"linux"`
	Windows       MediaOpeners `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

// MediaOpeners lists candidate programs in order of preference.
type MediaOpeners struct {
	Browser []string `mapstructure:"browser"`
	Image   []string `mapstructure:"image"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Search    string `mapstructure:"search"`
	More      string `mapstructure:"more"`
	Less      string `mapstructure:"less"`
	ShowAll   string `mapstructure:"show_all"`
	Open      string `mapstructure:"open"`
	OpenImage string `mapstructure:"open_image"`
	History   string `mapstructure:"history"`
	Back      string `mapstructure:"back"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".brief.db")
	searchIndexPath := filepath.Join(homeDir, ".brief", "index.bleve")

	return &Config{
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Source: SourceConfig{
			Backend:           BackendAPI,
			BaseURL:           "http://127.0.0.1:8000",
			HTTPTimeout:       15 * time.Second,
			UserAgent:         "brief/1.0 (https://github.com/pders01/brief)",
			RequestsPerSecond: 2,
			Burst:             4,
			CacheTTL:          2 * time.Minute,
			Limit:             20,
			Feeds:             []string{},
			AllowPrivateHosts: true,
		},
		Results: ResultsConfig{
			PageSize:          3,
			HotTopicThreshold: 1000,
			HotTopicLimit:     2,
		},
		Reveal: RevealConfig{
			TypingInterval: 50 * time.Millisecond,
			BodyDelay:      400 * time.Millisecond,
			SidePanelDelay: 300 * time.Millisecond,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Article: ArticleConfig{
				MaxSummaryLength: 150,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Media: MediaConfig{
			Darwin: MediaOpeners{
				Browser: []string{"open"},
				Image:   []string{"open"},
			},
			Linux: MediaOpeners{
				Browser: []string{"xdg-open", "firefox", "chromium"},
				Image:   []string{"feh", "eog", "xdg-open"},
			},
			Windows: MediaOpeners{
				Browser: []string{"start"},
				Image:   []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Search:    "s",
				More:      "n",
				Less:      "p",
				ShowAll:   "a",
				Open:      "o",
				OpenImage: "g",
				History:   "r",
				Back:      "esc",
			},
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "brief")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every leaf key so a partial section in the
// config file only overrides the keys it names.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("source.backend", cfg.Source.Backend)
	v.SetDefault("source.base_url", cfg.Source.BaseURL)
	v.SetDefault("source.http_timeout", cfg.Source.HTTPTimeout)
	v.SetDefault("source.user_agent", cfg.Source.UserAgent)
	v.SetDefault("source.requests_per_second", cfg.Source.RequestsPerSecond)
	v.SetDefault("source.burst", cfg.Source.Burst)
	v.SetDefault("source.cache_ttl", cfg.Source.CacheTTL)
	v.SetDefault("source.limit", cfg.Source.Limit)
	v.SetDefault("source.category", cfg.Source.Category)
	v.SetDefault("source.feeds", cfg.Source.Feeds)
	v.SetDefault("source.allow_private_hosts", cfg.Source.AllowPrivateHosts)

	v.SetDefault("results.page_size", cfg.Results.PageSize)
	v.SetDefault("results.hot_topic_threshold", cfg.Results.HotTopicThreshold)
	v.SetDefault("results.hot_topic_limit", cfg.Results.HotTopicLimit)

	v.SetDefault("reveal.typing_interval", cfg.Reveal.TypingInterval)
	v.SetDefault("reveal.body_delay", cfg.Reveal.BodyDelay)
	v.SetDefault("reveal.side_panel_delay", cfg.Reveal.SidePanelDelay)

	c := cfg.UI.Colors
	v.SetDefault("ui.colors.primary", c.Primary)
	v.SetDefault("ui.colors.secondary", c.Secondary)
	v.SetDefault("ui.colors.accent", c.Accent)
	v.SetDefault("ui.colors.background", c.Background)
	v.SetDefault("ui.colors.surface", c.Surface)
	v.SetDefault("ui.colors.text", c.Text)
	v.SetDefault("ui.colors.muted", c.Muted)
	v.SetDefault("ui.colors.error", c.Error)
	v.SetDefault("ui.colors.success", c.Success)
	v.SetDefault("ui.article.max_summary_length", cfg.UI.Article.MaxSummaryLength)
	v.SetDefault("ui.article.word_wrap_max_width", cfg.UI.Article.WordWrapMaxWidth)
	v.SetDefault("ui.article.word_wrap_min_width", cfg.UI.Article.WordWrapMinWidth)

	v.SetDefault("media.darwin.browser", cfg.Media.Darwin.Browser)
	v.SetDefault("media.darwin.image", cfg.Media.Darwin.Image)
	v.SetDefault("media.linux.browser", cfg.Media.Linux.Browser)
	v.SetDefault("media.linux.image", cfg.Media.Linux.Image)
	v.SetDefault("media.windows.browser", cfg.Media.Windows.Browser)
	v.SetDefault("media.windows.image", cfg.Media.Windows.Image)
	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)

	b := cfg.Keys.Bindings
	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("keys.bindings.quit", b.Quit)
	v.SetDefault("keys.bindings.search", b.Search)
	v.SetDefault("keys.bindings.more", b.More)
	v.SetDefault("keys.bindings.less", b.Less)
	v.SetDefault("keys.bindings.show_all", b.ShowAll)
	v.SetDefault("keys.bindings.open", b.Open)
	v.SetDefault("keys.bindings.open_image", b.OpenImage)
	v.SetDefault("keys.bindings.history", b.History)
	v.SetDefault("keys.bindings.back", b.Back)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Source.Backend {
	case BackendAPI, BackendRSS, BackendLocal, BackendMock:
	default:
		return fmt.Errorf("unknown source backend %q", c.Source.Backend)
	}
	if c.Results.PageSize < 1 {
		return fmt.Errorf("results.page_size must be at least 1, got %d", c.Results.PageSize)
	}
	if c.Results.HotTopicThreshold < 0 {
		return fmt.Errorf("results.hot_topic_threshold must not be negative")
	}
	if c.Source.Backend == BackendRSS && len(c.Source.Feeds) == 0 {
		return fmt.Errorf("source.feeds is empty; the rss backend needs at least one feed")
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	sourceCfg := map[string]interface{}{
		"backend":             config.Source.Backend,
		"base_url":            config.Source.BaseURL,
		"http_timeout":        config.Source.HTTPTimeout.String(),
		"user_agent":          config.Source.UserAgent,
		"requests_per_second": config.Source.RequestsPerSecond,
		"burst":               config.Source.Burst,
		"cache_ttl":           config.Source.CacheTTL.String(),
		"limit":               config.Source.Limit,
		"category":            config.Source.Category,
		"feeds":               config.Source.Feeds,
		"allow_private_hosts": config.Source.AllowPrivateHosts,
	}

	revealCfg := map[string]interface{}{
		"typing_interval":  config.Reveal.TypingInterval.String(),
		"body_delay":       config.Reveal.BodyDelay.String(),
		"side_panel_delay": config.Reveal.SidePanelDelay.String(),
	}

	resultsCfg := map[string]interface{}{
		"page_size":           config.Results.PageSize,
		"hot_topic_threshold": config.Results.HotTopicThreshold,
		"hot_topic_limit":     config.Results.HotTopicLimit,
	}

	v.Set("database", dbCfg)
	v.Set("source", sourceCfg)
	v.Set("results", resultsCfg)
	v.Set("reveal", revealCfg)
	v.Set("ui", config.UI)
	v.Set("media", config.Media)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

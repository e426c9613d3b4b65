// ABOUTME: Configuration for pipeline tracking, outreach pacing, and mail transports
// ABOUTME: Loads defaults, an optional YAML file at XDG paths, .env files, and env overrides
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName names the XDG directories.
	AppName = "prospect"

	// ConfigFileName is the optional YAML config under the XDG config dir.
	ConfigFileName = "config.yaml"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	TransportSMTP      = "smtp"
	TransportGmail     = "gmail"
	TransportAgentMail = "agentmail"
)

// Document names shared by both storage backends.
const (
	PipelineDocument        = "pipeline"
	OutreachLogDocument     = "outreach-log"
	ValidationCacheDocument = "email-validation-cache"
)

type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Backend  string         `yaml:"backend"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Outreach OutreachConfig `yaml:"outreach"`
	Mail     MailConfig     `yaml:"mail"`
}

type PipelineConfig struct {
	// StaleAfterDays flags leads untouched for longer than this.
	StaleAfterDays int `yaml:"stale_after_days"`

	// TierPrices values a lead by its tier for revenue stats.
	TierPrices map[string]int64 `yaml:"tier_prices"`
}

type OutreachConfig struct {
	SendDelay       time.Duration `yaml:"send_delay"`
	MaxSendsPerRun  int           `yaml:"max_sends_per_run"`
	DefaultSubject  string        `yaml:"default_subject"`
	ValidationPause time.Duration `yaml:"validation_pause"`
	TypoPatterns    []string      `yaml:"typo_patterns"`
	PreviewChars    int           `yaml:"preview_chars"`
	RecentEntries   int           `yaml:"recent_entries"`
}

type MailConfig struct {
	Transport        string `yaml:"transport"`
	FromName         string `yaml:"from_name"`
	GmailUser        string `yaml:"gmail_user"`
	GmailAppPassword string `yaml:"-"`
	SMTPHost         string `yaml:"smtp_host"`
	SMTPPort         int    `yaml:"smtp_port"`
	AgentMailAPIKey  string `yaml:"-"`
	AgentMailInbox   string `yaml:"agentmail_inbox"`
	AgentMailBaseURL string `yaml:"agentmail_base_url"`
}

// DefaultPipelineConfig returns the stock tier prices and stale threshold.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		StaleAfterDays: 7,
		TierPrices: map[string]int64{
			"starter":   3500,
			"growth":    12500,
			"ownership": 35000,
		},
	}
}

// DefaultOutreachConfig returns the stock pacing and validation settings.
func DefaultOutreachConfig() OutreachConfig {
	return OutreachConfig{
		SendDelay:       30 * time.Second,
		MaxSendsPerRun:  30,
		DefaultSubject:  "Quick question about {{company}}",
		ValidationPause: 100 * time.Millisecond,
		TypoPatterns:    []string{"gmial", "gnail", "gmal", "gmali", "yahooo", "hotmal"},
		PreviewChars:    200,
		RecentEntries:   5,
	}
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		DataDir:  filepath.Join(xdg.DataHome, AppName),
		Backend:  BackendJSON,
		Pipeline: DefaultPipelineConfig(),
		Outreach: DefaultOutreachConfig(),
		Mail: MailConfig{
			Transport:        TransportSMTP,
			FromName:         "Quinn",
			SMTPHost:         "smtp.gmail.com",
			SMTPPort:         587,
			AgentMailBaseURL: "https://api.agentmail.to/v0",
		},
	}
}

// ConfigDir returns the XDG config directory for the app.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// LoadEnvFiles loads .env from the working directory and the config dir.
// Variables already set in the environment are left alone.
func LoadEnvFiles() {
	for _, path := range []string{".env", filepath.Join(ConfigDir(), ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Load reads the YAML file at path (default location when empty), then
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(ConfigDir(), ConfigFileName)
	}

	cfg := Default()
	// yaml merges into existing maps; a configured price table replaces the default one
	cfg.Pipeline.TierPrices = nil

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides:
// - PROSPECT_DATA_DIR
// - PROSPECT_BACKEND
// - PROSPECT_SEND_DELAY (duration, e.g. 45s)
// - PROSPECT_MAX_SENDS
// - PROSPECT_TRANSPORT
// - GMAIL_USER, GMAIL_APP_PASSWORD
// - AGENTMAIL_API_KEY, AGENTMAIL_EMAIL.
func applyEnvOverrides(cfg *Config) error {
	if dir := os.Getenv("PROSPECT_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if backend := os.Getenv("PROSPECT_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if delay := os.Getenv("PROSPECT_SEND_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid PROSPECT_SEND_DELAY: %w", err)
		}
		cfg.Outreach.SendDelay = d
	}
	if maxSends := os.Getenv("PROSPECT_MAX_SENDS"); maxSends != "" {
		n, err := strconv.Atoi(maxSends)
		if err != nil {
			return fmt.Errorf("invalid PROSPECT_MAX_SENDS: %w", err)
		}
		cfg.Outreach.MaxSendsPerRun = n
	}
	if transport := os.Getenv("PROSPECT_TRANSPORT"); transport != "" {
		cfg.Mail.Transport = transport
	}
	if user := os.Getenv("GMAIL_USER"); user != "" {
		cfg.Mail.GmailUser = user
	}
	if pass := os.Getenv("GMAIL_APP_PASSWORD"); pass != "" {
		// App passwords are shown with spaces in the Google UI
		cfg.Mail.GmailAppPassword = strings.Join(strings.Fields(pass), "")
	}
	if key := os.Getenv("AGENTMAIL_API_KEY"); key != "" {
		cfg.Mail.AgentMailAPIKey = key
	}
	if inbox := os.Getenv("AGENTMAIL_EMAIL"); inbox != "" {
		cfg.Mail.AgentMailInbox = inbox
	}
	return nil
}

// fillDefaults restores defaults for fields a partial YAML file zeroed out.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Pipeline.StaleAfterDays <= 0 {
		c.Pipeline.StaleAfterDays = def.Pipeline.StaleAfterDays
	}
	if len(c.Pipeline.TierPrices) == 0 {
		c.Pipeline.TierPrices = def.Pipeline.TierPrices
	}
	if c.Outreach.MaxSendsPerRun <= 0 {
		c.Outreach.MaxSendsPerRun = def.Outreach.MaxSendsPerRun
	}
	if c.Outreach.DefaultSubject == "" {
		c.Outreach.DefaultSubject = def.Outreach.DefaultSubject
	}
	if c.Outreach.TypoPatterns == nil {
		c.Outreach.TypoPatterns = def.Outreach.TypoPatterns
	}
	if c.Outreach.PreviewChars <= 0 {
		c.Outreach.PreviewChars = def.Outreach.PreviewChars
	}
	if c.Outreach.RecentEntries <= 0 {
		c.Outreach.RecentEntries = def.Outreach.RecentEntries
	}
	if c.Mail.Transport == "" {
		c.Mail.Transport = def.Mail.Transport
	}
	if c.Mail.SMTPHost == "" {
		c.Mail.SMTPHost = def.Mail.SMTPHost
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = def.Mail.SMTPPort
	}
	if c.Mail.AgentMailBaseURL == "" {
		c.Mail.AgentMailBaseURL = def.Mail.AgentMailBaseURL
	}
}

// DocumentPath returns the JSON file path for a named document.
func (c *Config) DocumentPath(name string) string {
	return filepath.Join(c.DataDir, name+".json")
}

// SQLitePath returns the database path for the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, AppName+".db")
}

// Package config loads server settings from a .env file, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"voice-agent/internal/interview"
	"voice-agent/internal/observe"
)

const (
	DefaultConfigFile  = "configs/config.yaml"
	DefaultPort        = 8080
	DefaultDatabaseURL = "sqlite:voice-agent.db"
	DefaultCompanyName = "Acme Talent"
	DefaultUploadsDir  = "./uploads"
	DefaultWorkers     = 2
)

type Config struct {
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	CompanyName string `yaml:"company_name"`
	UploadsDir  string `yaml:"uploads_dir"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	// AllowedOrigins are host patterns accepted on the interview websocket,
	// e.g. "localhost:5173" or "*.example.com".
	AllowedOrigins []string `yaml:"allowed_origins"`

	// ImportWorkers is the number of background document extraction workers.
	ImportWorkers int `yaml:"import_workers"`

	Interview InterviewConfig `yaml:"interview"`
}

// InterviewConfig tunes the conversation engine and overrides its utterances.
type InterviewConfig struct {
	Pause      time.Duration          `yaml:"pause"`
	ListenPoll time.Duration          `yaml:"listen_poll"`
	Script     interview.ScriptConfig `yaml:",inline"`
}

// Load reads .env (falling back to ../../.env), then the YAML file at path,
// or CONFIG_FILE, or configs/config.yaml, then environment overrides. A missing
// YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			slog.Debug("no .env file found, using environment variables", "component", "config")
		}
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = DefaultConfigFile
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config file not found, using defaults", "component", "config", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("COMPANY_NAME"); v != "" {
		c.CompanyName = v
	}
	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		c.UploadsDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}
	if v := os.Getenv("IMPORT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMPORT_WORKERS %q: %w", v, err)
		}
		c.ImportWorkers = n
	}
	if v := os.Getenv("INTERVIEW_PAUSE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid INTERVIEW_PAUSE %q: %w", v, err)
		}
		c.Interview.Pause = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = DefaultDatabaseURL
	}
	if c.CompanyName == "" {
		c.CompanyName = DefaultCompanyName
	}
	if c.UploadsDir == "" {
		c.UploadsDir = DefaultUploadsDir
	}
	if c.ImportWorkers == 0 {
		c.ImportWorkers = DefaultWorkers
	}
	if c.Interview.Pause == 0 {
		c.Interview.Pause = interview.DefaultPause
	}
	if c.Interview.ListenPoll == 0 {
		c.Interview.ListenPoll = interview.DefaultListenPoll
	}
}

// Validate checks ranges and that the interview templates parse.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ImportWorkers < 1 {
		return fmt.Errorf("import_workers must be positive, got %d", c.ImportWorkers)
	}
	if c.Interview.Pause < 0 || c.Interview.ListenPoll < 0 {
		return errors.New("interview durations must not be negative")
	}
	if _, err := observe.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := interview.NewScript(c.Interview.Script); err != nil {
		return fmt.Errorf("interview script: %w", err)
	}
	return nil
}

// Script parses the configured interview script.
func (c *Config) Script() (*interview.Script, error) {
	return interview.NewScript(c.Interview.Script)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

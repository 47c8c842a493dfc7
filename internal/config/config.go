package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultAPIURL is used when neither the config file nor POSTS_API_URL name a host.
const DefaultAPIURL = "https://nestjs-posts-git-main-klofnes-projects.vercel.app"

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	API           API           `yaml:"api"`
	Server        Server        `yaml:"server"`
	Log           Log           `yaml:"log"`
	Notifications Notifications `yaml:"notifications"`
	Session       Session       `yaml:"session"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	Locale        string        `yaml:"locale"` // collation locale for title sort
	SecureCookies bool          `yaml:"secure_cookies"`
	Development   bool          `yaml:"development"` // reload templates from disk
	TemplatesDir  string        `yaml:"templates_dir"`
}

type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Server struct {
	Port            string        `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"` // allowed origins for /api
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Notifications struct {
	Timeout time.Duration `yaml:"timeout"` // auto-dismiss after being visible this long
	Grace   time.Duration `yaml:"grace"`   // exit animation delay before the next one shows
}

type Session struct {
	TTL time.Duration `yaml:"ttl"`
}

// RateLimit bounds mutation submissions per session (token bucket).
type RateLimit struct {
	Rate     float64 `yaml:"rate"`
	Capacity float64 `yaml:"capacity"`
}

type Private struct {
	SessionSecret string `yaml:"session_secret"`
}

func (c *Config) SessionSecret() string {
	return c.private.SessionSecret
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Public: Public{
			API: API{
				BaseURL: DefaultAPIURL,
				Timeout: 10 * time.Second,
			},
			Server: Server{
				Port:            "8081",
				ReadTimeout:     5 * time.Second,
				WriteTimeout:    15 * time.Second,
				ShutdownTimeout: 10 * time.Second,
			},
			Log: Log{Level: "info"},
			Notifications: Notifications{
				Timeout: 5 * time.Second,
				Grace:   300 * time.Millisecond,
			},
			Session:      Session{TTL: 24 * time.Hour},
			RateLimit:    RateLimit{Rate: 1, Capacity: 5},
			Locale:       "nb",
			TemplatesDir: "web/templates",
		},
	}
}

// Load builds the config from defaults, an optional YAML file and the environment,
// in that order of precedence (environment wins). A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		if err := loadFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if cfg.private.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	cfg.Public.API.BaseURL = strings.TrimRight(cfg.Public.API.BaseURL, "/")
	return cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv reads .env style files into the process environment without
// overriding variables that are already set.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

type fileConfig struct {
	Public  `yaml:",inline"`
	Private Private `yaml:"private"`
}

func loadFile(configPath string, cfg *Config) error {
	configFile, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}

	fc := fileConfig{Public: cfg.Public, Private: cfg.private}
	if err := yaml.Unmarshal(configFile, &fc); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	cfg.Public = fc.Public
	cfg.private = fc.Private
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("POSTS_API_URL", &cfg.Public.API.BaseURL)
	str("PORT", &cfg.Public.Server.Port)
	str("LOG_LEVEL", &cfg.Public.Log.Level)
	str("LOCALE", &cfg.Public.Locale)
	str("TEMPLATES_DIR", &cfg.Public.TemplatesDir)
	str("SESSION_SECRET", &cfg.private.SessionSecret)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.Public.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("ENV"); ok && v == "development" {
		cfg.Public.Development = true
	}

	for _, err := range []error{
		boolean("LOG_JSON", &cfg.Public.Log.JSON),
		boolean("SECURE_COOKIES", &cfg.Public.SecureCookies),
		duration("API_TIMEOUT", &cfg.Public.API.Timeout),
		duration("NOTIFICATION_TIMEOUT", &cfg.Public.Notifications.Timeout),
		duration("NOTIFICATION_GRACE", &cfg.Public.Notifications.Grace),
		duration("SESSION_TTL", &cfg.Public.Session.TTL),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

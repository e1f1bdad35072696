package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Environment string `yaml:"environment"`

	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Session struct {
		Secret       string        `yaml:"secret"`
		CookieName   string        `yaml:"cookie_name"`
		CookieTTL    time.Duration `yaml:"cookie_ttl"`
		CookieDomain string        `yaml:"cookie_domain"`
		CookieSecure bool          `yaml:"cookie_secure"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
	} `yaml:"session"`

	Identity struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"identity"`

	MeetingStore struct {
		BaseURL          string        `yaml:"base_url"`
		Timeout          time.Duration `yaml:"timeout"`
		RetryAttempts    int           `yaml:"retry_attempts"`
		BreakerThreshold int           `yaml:"breaker_threshold"`
		BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
	} `yaml:"meeting_store"`

	OAuth struct {
		FrontendURL string `yaml:"frontend_url"`
		Google      struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			RedirectURL  string `yaml:"redirect_url"`
		} `yaml:"google"`
		GitHub struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			RedirectURL  string `yaml:"redirect_url"`
		} `yaml:"github"`
	} `yaml:"oauth"`

	Relay struct {
		PingInterval      time.Duration `yaml:"ping_interval"`
		PongTimeout       time.Duration `yaml:"pong_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		MaxMessageSize    int64         `yaml:"max_message_size"`
		SendBuffer        int           `yaml:"send_buffer"`
		MessagesPerSecond float64       `yaml:"messages_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"relay"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret must not be empty")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}
	if c.Session.CookieTTL <= 0 {
		return fmt.Errorf("session.cookie_ttl must be > 0")
	}
	if c.Session.CacheTTL < 0 {
		return fmt.Errorf("session.cache_ttl must be >= 0")
	}

	if c.Identity.BaseURL == "" {
		return fmt.Errorf("identity.base_url must not be empty")
	}
	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("identity.timeout must be > 0")
	}

	if c.MeetingStore.BaseURL == "" {
		return fmt.Errorf("meeting_store.base_url must not be empty")
	}
	if c.MeetingStore.Timeout <= 0 {
		return fmt.Errorf("meeting_store.timeout must be > 0")
	}
	if c.MeetingStore.RetryAttempts < 0 {
		return fmt.Errorf("meeting_store.retry_attempts must be >= 0")
	}
	if c.MeetingStore.BreakerThreshold <= 0 {
		return fmt.Errorf("meeting_store.breaker_threshold must be > 0")
	}
	if c.MeetingStore.BreakerCooldown <= 0 {
		return fmt.Errorf("meeting_store.breaker_cooldown must be > 0")
	}

	if c.Relay.PingInterval <= 0 {
		return fmt.Errorf("relay.ping_interval must be > 0")
	}
	if c.Relay.PongTimeout <= 0 {
		return fmt.Errorf("relay.pong_timeout must be > 0")
	}
	if c.Relay.WriteTimeout <= 0 {
		return fmt.Errorf("relay.write_timeout must be > 0")
	}
	if c.Relay.MaxMessageSize <= 0 {
		return fmt.Errorf("relay.max_message_size must be > 0")
	}
	if c.Relay.SendBuffer <= 0 {
		return fmt.Errorf("relay.send_buffer must be > 0")
	}
	if c.Relay.MessagesPerSecond <= 0 {
		return fmt.Errorf("relay.messages_per_second must be > 0")
	}
	if c.Relay.Burst <= 0 {
		return fmt.Errorf("relay.burst must be > 0")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Environment = "development"

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Session.Secret = "change-me-in-production"
	cfg.Session.CookieName = "session"
	cfg.Session.CookieTTL = 5 * 24 * time.Hour // ~5 days
	cfg.Session.CookieSecure = false
	cfg.Session.CacheTTL = 5 * time.Minute

	cfg.Identity.BaseURL = "http://localhost:9099"
	cfg.Identity.Timeout = 5 * time.Second

	cfg.MeetingStore.BaseURL = "http://localhost:9100"
	cfg.MeetingStore.Timeout = 5 * time.Second
	cfg.MeetingStore.RetryAttempts = 2
	cfg.MeetingStore.BreakerThreshold = 5
	cfg.MeetingStore.BreakerCooldown = 30 * time.Second

	cfg.OAuth.FrontendURL = "http://localhost:3000"

	cfg.Relay.PingInterval = 30 * time.Second
	cfg.Relay.PongTimeout = 60 * time.Second
	cfg.Relay.WriteTimeout = 10 * time.Second
	cfg.Relay.MaxMessageSize = 64 * 1024
	cfg.Relay.SendBuffer = 32
	cfg.Relay.MessagesPerSecond = 50
	cfg.Relay.Burst = 100

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if env := os.Getenv("MEETGATE_ENVIRONMENT"); env != "" {
		c.Environment = env
	}
	if addr := os.Getenv("MEETGATE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if secret := os.Getenv("MEETGATE_SESSION_SECRET"); secret != "" {
		c.Session.Secret = secret
	}
	if url := os.Getenv("MEETGATE_IDENTITY_URL"); url != "" {
		c.Identity.BaseURL = url
	}
	if key := os.Getenv("MEETGATE_IDENTITY_API_KEY"); key != "" {
		c.Identity.APIKey = key
	}
	if url := os.Getenv("MEETGATE_MEETING_STORE_URL"); url != "" {
		c.MeetingStore.BaseURL = url
	}
	if level := os.Getenv("MEETGATE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

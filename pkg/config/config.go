package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lintang-b-s/minimap/pkg"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/spf13/viper"
)

const (
	PROVIDER_ORS       = "openrouteservice"
	PROVIDER_GOOGLE    = "google"
	PROVIDER_NOMINATIM = "nominatim"

	ORS_BASE_URL       = "https://api.openrouteservice.org"
	NOMINATIM_BASE_URL = "https://nominatim.openstreetmap.org"

	STORE_MEMORY = "memory"
	STORE_FILE   = "file"
	STORE_REDIS  = "redis"
)

type Directions struct {
	Provider string
	APIKey   string
	BaseURL  string
	Profile  string
	Timeout  time.Duration
}

type Geocoder struct {
	Provider      string
	BaseURL       string
	UserAgent     string
	APIKey        string
	Timeout       time.Duration
	MaxCandidates int
}

type Weather struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Artifact struct {
	Store      string
	Dir        string
	TTL        time.Duration
	MaxEntries int
	RedisAddr  string
}

type Resolver struct {
	SessionTTL           time.Duration
	SelectionRetryBudget int
}

type API struct {
	Port              int
	Timeout           time.Duration
	PublicBaseURL     string
	RateLimit         bool
	RateLimitRPS      float64
	RateLimitBurst    int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

type Config struct {
	AppEnv   string
	LogLevel string

	API        API
	Directions Directions
	Geocoder   Geocoder
	Weather    Weather
	Artifact   Artifact
	Resolver   Resolver

	AstarTrafficJitter bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("API_PORT", 5000)
	v.SetDefault("API_TIMEOUT", "60s")
	v.SetDefault("PUBLIC_BASE_URL", "")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("HTTP_SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", "5s")

	v.SetDefault("DIRECTIONS_PROVIDER", PROVIDER_ORS)
	v.SetDefault("DIRECTIONS_API_KEY", "")
	v.SetDefault("DIRECTIONS_BASE_URL", ORS_BASE_URL)
	v.SetDefault("DIRECTIONS_PROFILE", "driving-car")
	v.SetDefault("DIRECTIONS_TIMEOUT", "15s")

	v.SetDefault("GEOCODER_PROVIDER", PROVIDER_NOMINATIM)
	v.SetDefault("GEOCODER_BASE_URL", NOMINATIM_BASE_URL)
	v.SetDefault("GEOCODER_USER_AGENT", "minimap/1.0")
	v.SetDefault("GEOCODER_TIMEOUT", "10s")
	v.SetDefault("GEOCODER_MAX_CANDIDATES", pkg.DEFAULT_MAX_CANDIDATES)

	v.SetDefault("WEATHER_ENABLED", true)
	v.SetDefault("WEATHER_API_KEY", "")
	v.SetDefault("WEATHER_BASE_URL", "https://api.openweathermap.org")
	v.SetDefault("WEATHER_TIMEOUT", "3s")

	v.SetDefault("ARTIFACT_STORE", STORE_MEMORY)
	v.SetDefault("ARTIFACT_DIR", "./data/maps")
	v.SetDefault("ARTIFACT_TTL", "24h")
	v.SetDefault("ARTIFACT_MAX_ENTRIES", 1000)
	v.SetDefault("REDIS_ADDR", "localhost:6379")

	v.SetDefault("SESSION_TTL", "10m")
	v.SetDefault("SELECTION_RETRY_BUDGET", 3)

	v.SetDefault("ASTAR_TRAFFIC_JITTER", true)
}

// Load reads the environment (and an optional config file) and validates it. every problem is reported at once
// as a ConfigurationError so the process can exit before serving anything.
func Load() (*Config, error) {
	v := viper.New()
	return LoadFrom(v)
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	if err := util.ReadConfig(v); err != nil {
		return nil, util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError, "%v", err)
	}

	cfg := &Config{
		AppEnv:   v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		API: API{
			Port:              v.GetInt("API_PORT"),
			Timeout:           v.GetDuration("API_TIMEOUT"),
			PublicBaseURL:     strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			RateLimit:         v.GetBool("RATE_LIMIT_ENABLED"),
			RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:    v.GetInt("RATE_LIMIT_BURST"),
			ReadTimeout:       v.GetDuration("HTTP_SERVER_READ_TIMEOUT"),
			WriteTimeout:      v.GetDuration("HTTP_SERVER_WRITE_TIMEOUT"),
			IdleTimeout:       v.GetDuration("HTTP_SERVER_IDLE_TIMEOUT"),
			ReadHeaderTimeout: v.GetDuration("HTTP_SERVER_READ_HEADER_TIMEOUT"),
		},
		Directions: Directions{
			Provider: strings.ToLower(v.GetString("DIRECTIONS_PROVIDER")),
			APIKey:   v.GetString("DIRECTIONS_API_KEY"),
			BaseURL:  strings.TrimRight(v.GetString("DIRECTIONS_BASE_URL"), "/"),
			Profile:  v.GetString("DIRECTIONS_PROFILE"),
			Timeout:  v.GetDuration("DIRECTIONS_TIMEOUT"),
		},
		Geocoder: Geocoder{
			Provider:      strings.ToLower(v.GetString("GEOCODER_PROVIDER")),
			BaseURL:       strings.TrimRight(v.GetString("GEOCODER_BASE_URL"), "/"),
			UserAgent:     v.GetString("GEOCODER_USER_AGENT"),
			APIKey:        v.GetString("DIRECTIONS_API_KEY"),
			Timeout:       v.GetDuration("GEOCODER_TIMEOUT"),
			MaxCandidates: v.GetInt("GEOCODER_MAX_CANDIDATES"),
		},
		Weather: Weather{
			Enabled: v.GetBool("WEATHER_ENABLED"),
			APIKey:  v.GetString("WEATHER_API_KEY"),
			BaseURL: strings.TrimRight(v.GetString("WEATHER_BASE_URL"), "/"),
			Timeout: v.GetDuration("WEATHER_TIMEOUT"),
		},
		Artifact: Artifact{
			Store:      strings.ToLower(v.GetString("ARTIFACT_STORE")),
			Dir:        v.GetString("ARTIFACT_DIR"),
			TTL:        v.GetDuration("ARTIFACT_TTL"),
			MaxEntries: v.GetInt("ARTIFACT_MAX_ENTRIES"),
			RedisAddr:  v.GetString("REDIS_ADDR"),
		},
		Resolver: Resolver{
			SessionTTL:           v.GetDuration("SESSION_TTL"),
			SelectionRetryBudget: v.GetInt("SELECTION_RETRY_BUDGET"),
		},
		AstarTrafficJitter: v.GetBool("ASTAR_TRAFFIC_JITTER"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []error

	if c.Directions.APIKey == "" {
		problems = append(problems, errors.New("DIRECTIONS_API_KEY is required"))
	}
	switch c.Directions.Provider {
	case PROVIDER_ORS, PROVIDER_GOOGLE:
	default:
		problems = append(problems, fmt.Errorf("DIRECTIONS_PROVIDER %q is not one of %s, %s",
			c.Directions.Provider, PROVIDER_ORS, PROVIDER_GOOGLE))
	}
	switch c.Geocoder.Provider {
	case PROVIDER_NOMINATIM, PROVIDER_GOOGLE:
	default:
		problems = append(problems, fmt.Errorf("GEOCODER_PROVIDER %q is not one of %s, %s",
			c.Geocoder.Provider, PROVIDER_NOMINATIM, PROVIDER_GOOGLE))
	}
	if c.Weather.Enabled && c.Weather.APIKey == "" {
		problems = append(problems, errors.New("WEATHER_API_KEY is required when WEATHER_ENABLED is true"))
	}
	switch c.Artifact.Store {
	case STORE_MEMORY, STORE_FILE, STORE_REDIS:
	default:
		problems = append(problems, fmt.Errorf("ARTIFACT_STORE %q is not one of %s, %s, %s",
			c.Artifact.Store, STORE_MEMORY, STORE_FILE, STORE_REDIS))
	}
	if c.Geocoder.MaxCandidates <= 0 {
		problems = append(problems, errors.New("GEOCODER_MAX_CANDIDATES must be positive"))
	}
	if c.Resolver.SelectionRetryBudget <= 0 {
		problems = append(problems, errors.New("SELECTION_RETRY_BUDGET must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"DIRECTIONS_TIMEOUT": c.Directions.Timeout,
		"GEOCODER_TIMEOUT":   c.Geocoder.Timeout,
		"WEATHER_TIMEOUT":    c.Weather.Timeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Errorf("%s must be a positive duration", name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return util.WrapErrorf(da.ErrConfiguration, util.ErrInternalServerError, "configuration error: %v", errors.Join(problems...))
}

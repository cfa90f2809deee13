package config

import (
    "flag"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Cache backends accepted in CACHE_BACKEND.
const (
    BackendMemory = "memory"
    BackendRedis  = "redis"
)

const (
    defaultAPIURL       = "http://localhost:3001/api"
    defaultQuoteBaseURL = "https://www.google.com/finance/quote"
)

type Config struct {
    HTTPPort        int
    DashboardPort   int
    APIURL          string
    HoldingsFile    string
    QuoteBaseURL    string
    CacheTTL        time.Duration
    FetchTimeout    time.Duration
    RefreshInterval time.Duration
    CacheBackend    string
    RedisURL        string
}

// Load reads an optional .env file, then environment variables and application
// flags (via a local FlagSet), strips out any -test.* flags, and validates the result.
func Load() (*Config, error) {
    // A missing .env is normal outside local development.
    _ = godotenv.Load()

    fs := flag.NewFlagSet("config", flag.ContinueOnError)

    var (
        holdingsFile string
        redisURL     string
        backend      string
    )
    fs.StringVar(&holdingsFile, "holdings", os.Getenv("HOLDINGS_FILE"), "holdings file (json or yaml); empty uses the bundled list")
    fs.StringVar(&redisURL, "redis", os.Getenv("REDIS_URL"), "Redis connection URL")
    fs.StringVar(&backend, "cache", getEnvOrDefault("CACHE_BACKEND", BackendMemory), "quote cache backend: memory or redis")

    var appArgs []string
    for _, arg := range os.Args[1:] {
        if strings.HasPrefix(arg, "-test.") {
            continue
        }
        appArgs = append(appArgs, arg)
    }
    if err := fs.Parse(appArgs); err != nil {
        return nil, err
    }

    cfg := &Config{
        HoldingsFile:    holdingsFile,
        RedisURL:        redisURL,
        CacheBackend:    strings.ToLower(backend),
        APIURL:          strings.TrimRight(apiURL(), "/"),
        QuoteBaseURL:    strings.TrimRight(getEnvOrDefault("QUOTE_BASE_URL", defaultQuoteBaseURL), "/"),
        CacheTTL:        getDurationEnvOrDefault("CACHE_TTL", 5*time.Minute),
        FetchTimeout:    getDurationEnvOrDefault("FETCH_TIMEOUT", 10*time.Second),
        RefreshInterval: getDurationEnvOrDefault("REFRESH_INTERVAL", 15*time.Second),
    }

    var err error
    if cfg.HTTPPort, err = getPortEnv("PORT", 3001); err != nil {
        return nil, err
    }
    if cfg.DashboardPort, err = getPortEnv("DASHBOARD_PORT", 3000); err != nil {
        return nil, err
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    switch c.CacheBackend {
    case BackendMemory:
    case BackendRedis:
        if c.RedisURL == "" {
            return fmt.Errorf("missing required config: REDIS_URL or -redis when CACHE_BACKEND=redis")
        }
    default:
        return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
    }
    if c.CacheTTL <= 0 {
        return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
    }
    if c.FetchTimeout <= 0 {
        return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
    }
    if c.RefreshInterval <= 0 {
        return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
    }
    return nil
}

// apiURL prefers API_URL and falls back to the frontend's NEXT_PUBLIC_API_URL.
func apiURL() string {
    if v := os.Getenv("API_URL"); v != "" {
        return v
    }
    return getEnvOrDefault("NEXT_PUBLIC_API_URL", defaultAPIURL)
}

func getPortEnv(key string, defaultValue int) (int, error) {
    value := os.Getenv(key)
    if value == "" {
        return defaultValue, nil
    }
    port, err := strconv.Atoi(value)
    if err != nil {
        return 0, fmt.Errorf("invalid %s env var: %w", key, err)
    }
    if port <= 0 || port > 65535 {
        return 0, fmt.Errorf("invalid %s env var: %d out of range", key, port)
    }
    return port, nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
    if value := os.Getenv(key); value != "" {
        return value
    }
    return defaultValue
}

// getDurationEnvOrDefault returns environment variable as duration or default
func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
    if value := os.Getenv(key); value != "" {
        if duration, err := time.ParseDuration(value); err == nil {
            return duration
        }
    }
    return defaultValue
}

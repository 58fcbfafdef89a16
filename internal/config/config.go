package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Clutch      ClutchConfig      `mapstructure:"clutch"`
	Inference   InferenceConfig   `mapstructure:"inference"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr         string        `mapstructure:"http_addr"`
	CORSOrigins      []string      `mapstructure:"cors_origins"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	FrontendDistPath string        `mapstructure:"frontend_dist_path"`
	// AdminToken guards operator endpoints; they are not served when empty
	AdminToken       string        `mapstructure:"admin_token"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type CacheConfig struct {
	// RedisURL switches the pick cache from the in-process LRU to redis.
	RedisURL string        `mapstructure:"redis_url"`
	Size     int           `mapstructure:"size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ClutchConfig struct {
	MinOdds float64 `mapstructure:"min_odds"`
}

type InferenceConfig struct {
	ModelURL     string        `mapstructure:"model_url"`
	SentimentURL string        `mapstructure:"sentiment_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
	Burst        int           `mapstructure:"burst"`
	CacheSize    int           `mapstructure:"cache_size"`
}

type LeaderboardConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from an optional YAML file, a .env file and
// PICKS_* environment variables, in increasing order of precedence.
func Load(path string, envOnly bool) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PICKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly && path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.frontend_dist_path", "")
	v.SetDefault("server.admin_token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "./clutch_picks.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.log_queries", false)

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.size", 128)
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("clutch.min_odds", 3.0)

	v.SetDefault("inference.model_url", "http://localhost:9000")
	v.SetDefault("inference.sentiment_url", "http://localhost:9001")
	v.SetDefault("inference.timeout", "10s")
	v.SetDefault("inference.retry_max", 3)
	v.SetDefault("inference.rate_per_sec", 5.0)
	v.SetDefault("inference.burst", 10)
	v.SetDefault("inference.cache_size", 256)

	v.SetDefault("leaderboard.enabled", true)
	v.SetDefault("leaderboard.schedule", "0 0 23 * * *")
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const dateLayout = "2006-01-02"

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Ranking     RankingConfig
	Competition CompetitionConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the secret used to verify access tokens issued upstream.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RankingConfig governs ranking recomputation and caching.
type RankingConfig struct {
	CacheEnabled      bool
	CacheTTL          time.Duration
	LockTTL           time.Duration
	LockWait          time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	AsyncRecompute    bool
}

// CompetitionConfig carries competition-wide defaults.
type CompetitionConfig struct {
	DefaultCutoff   *time.Time
	BaseMemberTitle string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ranking = RankingConfig{
		CacheEnabled:      v.GetBool("ENABLE_RANKING_CACHE"),
		CacheTTL:          parseDuration(v.GetString("RANKING_CACHE_TTL"), 10*time.Minute),
		LockTTL:           parseDuration(v.GetString("RANKING_LOCK_TTL"), 5*time.Minute),
		LockWait:          parseDuration(v.GetString("RANKING_LOCK_WAIT"), 30*time.Second),
		WorkerConcurrency: v.GetInt("RANKING_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("RANKING_WORKER_RETRIES"),
		AsyncRecompute:    v.GetBool("ENABLE_ASYNC_RECOMPUTE"),
	}

	cfg.Competition = CompetitionConfig{
		DefaultCutoff:   parseDate(v.GetString("COMPETITION_CUTOFF_DATE")),
		BaseMemberTitle: v.GetString("BASE_MEMBER_TITLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "rso")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_RANKING_CACHE", false)
	v.SetDefault("RANKING_CACHE_TTL", "10m")
	v.SetDefault("RANKING_LOCK_TTL", "5m")
	v.SetDefault("RANKING_LOCK_WAIT", "30s")
	v.SetDefault("RANKING_WORKER_CONCURRENCY", 1)
	v.SetDefault("RANKING_WORKER_RETRIES", 3)
	v.SetDefault("ENABLE_ASYNC_RECOMPUTE", false)

	v.SetDefault("COMPETITION_CUTOFF_DATE", "")
	v.SetDefault("BASE_MEMBER_TITLE", "member")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseDate reads a calendar date (YYYY-MM-DD); empty or malformed input disables the cutoff.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

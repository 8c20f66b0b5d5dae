package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	FileStore FileStoreConfig
	SurrealDB SurrealDBConfig
	Session   SessionConfig
	Admin     AdminConfig
	Limits    LimitsConfig
	Redis     RedisConfig
	Cache     CacheConfig
	CORS      CORSConfig
	Log       LogConfig
}

// FileStoreConfig locates the JSON fallback store.
type FileStoreConfig struct {
	Path string
}

// SurrealDBConfig describes the optional document database connection.
type SurrealDBConfig struct {
	URL            string
	Namespace      string
	Database       string
	Username       string
	Password       string
	Table          string
	ConnectTimeout time.Duration
}

// SessionConfig governs admin session tokens and their cookie.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// AdminConfig holds the department -> password mapping.
type AdminConfig struct {
	Passwords map[string]string
}

// LimitsConfig bounds request bodies and stored field lengths.
type LimitsConfig struct {
	JSONBodyBytes     int64
	MaxTextLen        int
	MaxSuggestionsLen int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the optional redis list cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// defaultAdminPasswords are the development-only credentials the portal
// ships with; a configured mapping or per-department variable wins.
var defaultAdminPasswords = map[string]string{
	"Super Admin":    "superadmin123",
	"Facilities":     "facilities123",
	"Academic":       "academic123",
	"Infrastructure": "infrastructure123",
	"Events":         "events123",
	"General":        "general123",
}

var departmentEnvKeys = map[string]string{
	"Super Admin":    "ADMIN_PASSWORD_SUPER",
	"Facilities":     "ADMIN_PASSWORD_FACILITIES",
	"Academic":       "ADMIN_PASSWORD_ACADEMIC",
	"Infrastructure": "ADMIN_PASSWORD_INFRASTRUCTURE",
	"Events":         "ADMIN_PASSWORD_EVENTS",
	"General":        "ADMIN_PASSWORD_GENERAL",
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// A missing .env is the normal deployment case: everything can come
	// from real environment variables. Viper reports an explicitly set
	// config file that does not exist as a plain path error, not as
	// ConfigFileNotFoundError, so both shapes are tolerated.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.FileStore = FileStoreConfig{Path: v.GetString("FILE_STORE_PATH")}

	cfg.SurrealDB = SurrealDBConfig{
		URL:            v.GetString("SURREALDB_URL"),
		Namespace:      v.GetString("SURREALDB_NAMESPACE"),
		Database:       v.GetString("SURREALDB_DATABASE"),
		Username:       v.GetString("SURREALDB_USERNAME"),
		Password:       v.GetString("SURREALDB_PASSWORD"),
		Table:          v.GetString("SURREALDB_TABLE"),
		ConnectTimeout: parseDuration(v.GetString("SURREALDB_CONNECT_TIMEOUT"), 3*time.Second),
	}

	cfg.Session = SessionConfig{
		Secret:       v.GetString("ADMIN_JWT_SECRET"),
		TTL:          parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
	}

	cfg.Admin = AdminConfig{Passwords: loadAdminPasswords(v)}

	cfg.Limits = LimitsConfig{
		JSONBodyBytes:     v.GetInt64("JSON_BODY_LIMIT"),
		MaxTextLen:        v.GetInt("MAX_TEXT_LEN"),
		MaxSuggestionsLen: v.GetInt("MAX_SUGGESTIONS_LEN"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// loadAdminPasswords resolves the department credential mapping: the JSON
// blob takes precedence, then per-department variables override the
// built-in development defaults.
func loadAdminPasswords(v *viper.Viper) map[string]string {
	if raw := v.GetString("ADMIN_PASSWORDS_JSON"); raw != "" {
		parsed := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil && len(parsed) > 0 {
			return parsed
		}
	}

	passwords := make(map[string]string, len(defaultAdminPasswords))
	for dept, pw := range defaultAdminPasswords {
		passwords[dept] = pw
	}
	for dept, key := range departmentEnvKeys {
		if override := v.GetString(key); override != "" {
			passwords[dept] = override
		}
	}
	return passwords
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("FILE_STORE_PATH", "data/feedbacks.json")

	v.SetDefault("SURREALDB_URL", "ws://localhost:8000")
	v.SetDefault("SURREALDB_NAMESPACE", "portal")
	v.SetDefault("SURREALDB_DATABASE", "student_feedback_portal")
	v.SetDefault("SURREALDB_USERNAME", "")
	v.SetDefault("SURREALDB_PASSWORD", "")
	v.SetDefault("SURREALDB_TABLE", "feedback")
	v.SetDefault("SURREALDB_CONNECT_TIMEOUT", "3s")

	v.SetDefault("ADMIN_JWT_SECRET", "dev-insecure-secret-change-me")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "admin_session")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("ADMIN_PASSWORDS_JSON", "")
	v.SetDefault("ADMIN_PASSWORD_SUPER", "")
	v.SetDefault("ADMIN_PASSWORD_FACILITIES", "")
	v.SetDefault("ADMIN_PASSWORD_ACADEMIC", "")
	v.SetDefault("ADMIN_PASSWORD_INFRASTRUCTURE", "")
	v.SetDefault("ADMIN_PASSWORD_EVENTS", "")
	v.SetDefault("ADMIN_PASSWORD_GENERAL", "")

	v.SetDefault("JSON_BODY_LIMIT", 100*1024)
	v.SetDefault("MAX_TEXT_LEN", 4000)
	v.SetDefault("MAX_SUGGESTIONS_LEN", 2000)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "1m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is where main looks for the YAML file. DASHBOARD_CONFIG
// overrides it.
var ConfigPath = envOr("DASHBOARD_CONFIG", "config.yaml")

const minSessionSecretLength = 16

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                       string   `yaml:"port"`
	LogLevel                   string   `yaml:"logLevel"`
	LogsDir                    string   `yaml:"logsDir"`
	DatabaseURL                string   `yaml:"databaseURL"`
	SessionSecret              string   `yaml:"sessionSecret"`
	SessionTTL                 string   `yaml:"sessionTTL"`
	JWTIssuer                  string   `yaml:"jwtIssuer"`
	JWTAudience                string   `yaml:"jwtAudience"`
	JWTLeeway                  string   `yaml:"jwtLeeway"`
	BootstrapAdminPassword     string   `yaml:"bootstrapAdminPassword"`
	RedisAddr                  string   `yaml:"redisAddr"`
	RedisPassword              string   `yaml:"redisPassword"`
	TrustedProxyCIDRs          []string `yaml:"trustedProxyCidrs"`
	CORSOrigins                []string `yaml:"corsOrigins"`
	LoginRateLimitPerMinute    int      `yaml:"loginRateLimitPerMinute"`
	PasswordRateLimitPerMinute int      `yaml:"passwordRateLimitPerMinute"`
	MaxUploadBytes             int64    `yaml:"maxUploadBytes"`
	MaxConnections             int      `yaml:"maxConnections"`
	ArchiveDir                 string   `yaml:"archiveDir"`
	MinioEndpoint              string   `yaml:"minioEndpoint"`
	MinioAccessKey             string   `yaml:"minioAccessKey"`
	MinioSecretKey             string   `yaml:"minioSecretKey"`
	MinioBucket                string   `yaml:"minioBucket"`
	MinioPrefix                string   `yaml:"minioPrefix"`
	MinioUseSSL                bool     `yaml:"minioUseSSL"`
}

// Load reads config from path (defaults to ConfigPath), applies
// environment overrides and defaults, then validates.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString(&cfg.Port, "DASHBOARD_PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogsDir, "DASHBOARD_LOGS_DIR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.SessionTTL, "SESSION_TTL")
	setString(&cfg.JWTIssuer, "JWT_ISSUER")
	setString(&cfg.JWTAudience, "JWT_AUDIENCE")
	setString(&cfg.JWTLeeway, "JWT_LEEWAY")
	setString(&cfg.BootstrapAdminPassword, "DASHBOARD_BOOTSTRAP_ADMIN_PASSWORD")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.ArchiveDir, "DASHBOARD_ARCHIVE_DIR")
	setString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.MinioBucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("DASHBOARD_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("DASHBOARD_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	setInt(&cfg.LoginRateLimitPerMinute, "DASHBOARD_LOGIN_RATE_LIMIT_PER_MINUTE")
	setInt(&cfg.PasswordRateLimitPerMinute, "DASHBOARD_PASSWORD_RATE_LIMIT_PER_MINUTE")
	setInt(&cfg.MaxConnections, "DASHBOARD_MAX_CONNECTIONS")
	if v := os.Getenv("DASHBOARD_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8080"
	}
	if strings.TrimSpace(cfg.ArchiveDir) == "" {
		cfg.ArchiveDir = "uploaded_backups"
	}
	if strings.TrimSpace(cfg.BootstrapAdminPassword) == "" {
		cfg.BootstrapAdminPassword = "adminpass"
	}
}

func validateConfig(cfg FileConfig) error {
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("config: port must be numeric, got %q", cfg.Port)
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("config: sessionSecret must be at least %d characters (set SESSION_SECRET)", minSessionSecretLength)
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return err
	}
	if _, err := ParseJWTLeeway(cfg.JWTLeeway); err != nil {
		return err
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.PasswordRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.MaxUploadBytes < 0 || cfg.MaxConnections < 0 {
		return errors.New("config: maxUploadBytes and maxConnections must be >= 0")
	}
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		if cfg.MinioBucket == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return errors.New("config: minioEndpoint requires minioBucket, minioAccessKey and minioSecretKey")
		}
	}
	return nil
}

// ParseSessionTTL parses the optional session TTL; empty means 8h.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	if strings.TrimSpace(ttlStr) == "" {
		return 8 * time.Hour, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	if dur <= 0 {
		return 0, errors.New("invalid sessionTTL duration: must be positive")
	}
	return dur, nil
}

// ParseJWTLeeway parses optional JWT leeway duration string.
func ParseJWTLeeway(leewayStr string) (time.Duration, error) {
	if leewayStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(leewayStr)
	if err != nil {
		return 0, fmt.Errorf("invalid jwtLeeway duration: %w", err)
	}
	return dur, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

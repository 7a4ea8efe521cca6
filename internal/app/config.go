package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/officechat-backend/internal/platform/envutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type DBConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type ChatConfig struct {
	LogKey             string        `yaml:"log_key"`
	LogMax             int           `yaml:"log_max"`
	LockTTL            time.Duration `yaml:"lock_ttl"`
	LockWait           time.Duration `yaml:"lock_wait"`
	PresenceKey        string        `yaml:"presence_key"`
	PresenceStaleAfter time.Duration `yaml:"presence_stale_after"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	ClientBuffer       int           `yaml:"client_buffer"`
	FanOutConcurrency  int           `yaml:"fan_out_concurrency"`
}

type StorageConfig struct {
	Mode          string `yaml:"mode"`
	EmulatorHost  string `yaml:"emulator_host"`
	Bucket        string `yaml:"bucket"`
	CDNDomain     string `yaml:"cdn_domain"`
	PublicBaseURL string `yaml:"public_base_url"`
	Credentials   string `yaml:"credentials"`
	MaxBytes      int64  `yaml:"max_bytes"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	ServiceName    string        `yaml:"service_name"`
	Environment    string        `yaml:"environment"`
	Version        string        `yaml:"version"`
	Port           string        `yaml:"port"`
	LogMode        string        `yaml:"log_mode"`
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`

	DB      DBConfig      `yaml:"db"`
	Redis   RedisConfig   `yaml:"redis"`
	Chat    ChatConfig    `yaml:"chat"`
	Storage StorageConfig `yaml:"storage"`
	Tracing TracingConfig `yaml:"tracing"`

	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_allowed_origins"`
	MetricsEnabled bool     `yaml:"metrics_enabled"`
}

func defaultConfig() Config {
	return Config{
		ServiceName:    "officechat",
		Environment:    "development",
		Port:           "8080",
		LogMode:        "development",
		JWTSecretKey:   defaultJWTSecret,
		AccessTokenTTL: 24 * time.Hour,
		DB: DBConfig{
			Driver: "postgres",
			Host:   "localhost",
			Port:   "5432",
			User:   "postgres",
			Name:   "officechat",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "chat:events",
		},
		Chat: ChatConfig{
			LogKey:             "chat:messages",
			LogMax:             500,
			LockTTL:            5 * time.Second,
			LockWait:           10 * time.Second,
			PresenceKey:        "chat:online_users",
			PresenceStaleAfter: 2 * time.Minute,
			HeartbeatInterval:  30 * time.Second,
			ClientBuffer:       64,
			FanOutConcurrency:  8,
		},
		Storage: StorageConfig{
			MaxBytes: 10 << 20,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		MetricsEnabled: true,
	}
}

// LoadConfig layers defaults, the optional CONFIG_FILE yaml, then environment variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("Loaded config file", "path", path)
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the insecure default")
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment)
	cfg.Version = envutil.String("APP_VERSION", cfg.Version)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = envutil.String("POSTGRES_DSN", cfg.DB.DSN)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Chat.LogKey = envutil.String("CHAT_LOG_KEY", cfg.Chat.LogKey)
	cfg.Chat.LogMax = envutil.Int("CHAT_LOG_MAX", cfg.Chat.LogMax)
	cfg.Chat.LockTTL = envutil.Duration("CHAT_LOCK_TTL", cfg.Chat.LockTTL)
	cfg.Chat.LockWait = envutil.Duration("CHAT_LOCK_WAIT", cfg.Chat.LockWait)
	cfg.Chat.PresenceKey = envutil.String("PRESENCE_KEY", cfg.Chat.PresenceKey)
	cfg.Chat.PresenceStaleAfter = envutil.Duration("PRESENCE_STALE_AFTER", cfg.Chat.PresenceStaleAfter)
	cfg.Chat.HeartbeatInterval = envutil.Duration("SSE_HEARTBEAT_INTERVAL", cfg.Chat.HeartbeatInterval)
	cfg.Chat.ClientBuffer = envutil.Int("SSE_CLIENT_BUFFER", cfg.Chat.ClientBuffer)
	cfg.Chat.FanOutConcurrency = envutil.Int("NOTIFICATION_CONCURRENCY", cfg.Chat.FanOutConcurrency)

	cfg.Storage.Mode = envutil.String("OBJECT_STORAGE_MODE", cfg.Storage.Mode)
	cfg.Storage.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.Storage.EmulatorHost)
	cfg.Storage.Bucket = envutil.String("CHAT_ATTACHMENTS_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.CDNDomain = envutil.String("ATTACHMENTS_CDN_DOMAIN", cfg.Storage.CDNDomain)
	cfg.Storage.PublicBaseURL = envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", cfg.Storage.PublicBaseURL)
	cfg.Storage.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", cfg.Storage.Credentials)
	cfg.Storage.MaxBytes = envutil.Int64("ATTACHMENT_MAX_BYTES", cfg.Storage.MaxBytes)

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Tracing.Headers)
	cfg.Tracing.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.Insecure)
	cfg.Tracing.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Tracing.SampleRatio)

	cfg.RateLimitRPS = envutil.Float("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envutil.Int("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("REDIS_ADDR must not be empty")
	}
	if c.Chat.LogMax <= 0 {
		return fmt.Errorf("CHAT_LOG_MAX must be positive, got %d", c.Chat.LogMax)
	}
	if c.Chat.HeartbeatInterval <= 0 {
		return fmt.Errorf("SSE_HEARTBEAT_INTERVAL must be positive")
	}
	if c.Chat.PresenceStaleAfter <= 0 {
		return fmt.Errorf("PRESENCE_STALE_AFTER must be positive")
	}
	return nil
}

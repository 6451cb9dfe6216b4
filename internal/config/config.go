package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Tracing      TracingConfig `mapstructure:"tracing"`
	Redis        RedisConfig
	Exam         ExamConfig         `mapstructure:"exam"`
	Certificate  CertificateConfig  `mapstructure:"certificate"`
	Attorney     AttorneyConfig     `mapstructure:"attorney"`
	Notification NotificationConfig `mapstructure:"notification"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	Path      string `mapstructure:"path"` // sqlite 文件路径
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// ExamConfig 期末考试参数
type ExamConfig struct {
	QuestionCount int     `mapstructure:"question_count"`
	PassThreshold float64 `mapstructure:"pass_threshold"`
}

// CertificateConfig 证书签发参数
type CertificateConfig struct {
	ValidityMonths      int    `mapstructure:"validity_months"`
	MaxGenerateAttempts int    `mapstructure:"max_generate_attempts"`
	ExportPrefix        string `mapstructure:"export_prefix"`
	RepublishSpec       string `mapstructure:"republish_spec"`
}

// AttorneyConfig 律师模糊匹配阈值
type AttorneyConfig struct {
	MinScore             float64 `mapstructure:"min_score"`
	AutoSelectScore      float64 `mapstructure:"auto_select_score"`
	EmailPrefixMinLength int     `mapstructure:"email_prefix_min_length"`
	MaxCandidates        int     `mapstructure:"max_candidates"`
}

type NotificationConfig struct {
	Type       string        `mapstructure:"type"` // redis, webhook, log
	Stream     string        `mapstructure:"stream"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("exam.question_count", 20)
	v.SetDefault("exam.pass_threshold", 0.70)
	v.SetDefault("certificate.validity_months", 12)
	v.SetDefault("certificate.max_generate_attempts", 5)
	v.SetDefault("certificate.export_prefix", "certificates")
	v.SetDefault("certificate.republish_spec", "@every 5m")
	v.SetDefault("attorney.min_score", 0.55)
	v.SetDefault("attorney.auto_select_score", 0.85)
	v.SetDefault("attorney.email_prefix_min_length", 8)
	v.SetDefault("attorney.max_candidates", 10)
	v.SetDefault("notification.type", "log")
	v.SetDefault("notification.stream", "certificate:issued")
	v.SetDefault("notification.timeout_seconds", 5)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("COURTCERT")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Notification
	v.BindEnv("notification.type", "NOTIFICATION_TYPE")
	v.BindEnv("notification.webhook_url", "NOTIFICATION_WEBHOOK_URL")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Notification.Timeout = cfg.Notification.Timeout * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate 校验会导致考试或证书流程无法正确运行的配置
func (c *Config) Validate() error {
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Exam.QuestionCount <= 0 {
		return fmt.Errorf("exam.question_count must be positive, got %d", c.Exam.QuestionCount)
	}
	if c.Exam.PassThreshold <= 0 || c.Exam.PassThreshold > 1 {
		return fmt.Errorf("exam.pass_threshold must be in (0, 1], got %v", c.Exam.PassThreshold)
	}
	if c.Certificate.MaxGenerateAttempts <= 0 {
		return fmt.Errorf("certificate.max_generate_attempts must be positive")
	}
	if c.Attorney.AutoSelectScore < c.Attorney.MinScore {
		return fmt.Errorf("attorney.auto_select_score (%v) must not be below attorney.min_score (%v)", c.Attorney.AutoSelectScore, c.Attorney.MinScore)
	}
	return nil
}

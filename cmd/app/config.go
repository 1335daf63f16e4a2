package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yemun/blog/internal/common"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`

	ContentDir string `mapstructure:"CONTENT_DIR"`

	DBHost         string        `mapstructure:"POSTGRES_HOST"`
	DBPort         string        `mapstructure:"POSTGRES_PORT"`
	DBUser         string        `mapstructure:"POSTGRES_USER"`
	DBPassword     string        `mapstructure:"POSTGRES_PASSWORD"`
	DBName         string        `mapstructure:"POSTGRES_DB"`
	DBSSLMode      string        `mapstructure:"POSTGRES_SSLMODE"`
	DBMaxOpenConns int           `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	DBMaxIdleConns int           `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	DBMaxIdleTime  time.Duration `mapstructure:"POSTGRES_MAX_IDLE_TIME"`
	MigrationsDir  string        `mapstructure:"MIGRATIONS_DIR"`

	CommentStoreTimeout time.Duration `mapstructure:"COMMENT_STORE_TIMEOUT"`
	RevalidateToken     string        `mapstructure:"REVALIDATE_TOKEN"`

	CacheTTL             time.Duration `mapstructure:"CACHE_TTL"`
	CacheCleanupInterval time.Duration `mapstructure:"CACHE_CLEANUP_INTERVAL"`
	RedisURL             string        `mapstructure:"REDIS_URL"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	MailHost          string `mapstructure:"MAIL_HOST"`
	MailPort          int    `mapstructure:"MAIL_PORT"`
	MailUser          string `mapstructure:"MAIL_USER"`
	MailPassword      string `mapstructure:"MAIL_PASSWORD"`
	MailSender        string `mapstructure:"MAIL_SENDER"`
	MailRecipient     string `mapstructure:"MAIL_RECIPIENT"`
	MailRatePerMinute int    `mapstructure:"MAIL_RATE_PER_MINUTE"`
}

// defaults lists every key. viper only unmarshals keys it knows about, so environment
// overrides depend on each key having a default here.
var defaults = map[string]any{
	"PORT":            "4000",
	"ENVIRONMENT":     "development",
	"VERSION":         "1.0.0",
	"TRUSTED_ORIGINS": "",
	"TLS_CERT_FILE":   "",
	"TLS_KEY_FILE":    "",

	"CONTENT_DIR": "content",

	"POSTGRES_HOST":           "",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_DB":             "",
	"POSTGRES_SSLMODE":        "disable",
	"POSTGRES_MAX_OPEN_CONNS": 25,
	"POSTGRES_MAX_IDLE_CONNS": 25,
	"POSTGRES_MAX_IDLE_TIME":  "15m",
	"MIGRATIONS_DIR":          "file://migrations",

	"COMMENT_STORE_TIMEOUT": "5s",
	"REVALIDATE_TOKEN":      "",

	"CACHE_TTL":              "5m",
	"CACHE_CLEANUP_INTERVAL": "10m",
	"REDIS_URL":              "",

	"RABBITMQ_HOST":     "",
	"RABBITMQ_PORT":     "5672",
	"RABBITMQ_USER":     "guest",
	"RABBITMQ_PASSWORD": "guest",

	"MAIL_HOST":            "",
	"MAIL_PORT":            587,
	"MAIL_USER":            "",
	"MAIL_PASSWORD":        "",
	"MAIL_SENDER":          "",
	"MAIL_RECIPIENT":       "",
	"MAIL_RATE_PER_MINUTE": 10,
}

// loadConfig reads path as a dotenv file, if it exists, and lets the environment override it.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	origins := config.TrustedOrigins[:0]
	for _, o := range config.TrustedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	config.TrustedOrigins = origins

	return &config, nil
}

func (c *Config) addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c *Config) dsn() string {
	return common.DSN(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) amqpURI() string {
	if c.MQHost == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.MQUser, c.MQPassword, c.MQHost, c.MQPort)
}

func (c *Config) mailConfigured() bool {
	return c.MailHost != "" && c.MailRecipient != ""
}

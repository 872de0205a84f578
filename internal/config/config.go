package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Sentry   SentryConfig   `mapstructure:"sentry"`

	// Site is populated from SITE_* environment variables, not from app.yaml.
	Site SiteConfig `mapstructure:"-"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

type StorageConfig struct {
	LocalPath   string `mapstructure:"local_path"`
	PublicPath  string `mapstructure:"public_path"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AdminPassword string        `mapstructure:"admin_password"`
	AdminUsername string        `mapstructure:"admin_username"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	LoginTimeout  time.Duration `mapstructure:"login_timeout"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
}

type MailConfig struct {
	FunctionURL string        `mapstructure:"function_url"`
	TestTimeout time.Duration `mapstructure:"test_timeout"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type TrackingConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		if d.Path == ":memory:" {
			return "file:" + d.Name + "?mode=memory&cache=shared"
		}
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../..")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := ParseEnv(&cfg.Site); err != nil {
		return nil, err
	}

	if cfg.Mail.FunctionURL == "" {
		cfg.Mail.FunctionURL = fmt.Sprintf("http://127.0.0.1:%d/functions/v1/send-email", cfg.Server.Port)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "agency")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("storage.local_path", "./uploads")
	v.SetDefault("storage.public_path", "/storage")
	v.SetDefault("storage.max_file_size", 10485760)
	v.SetDefault("auth.jwt_secret", "changeme-secret")
	v.SetDefault("auth.admin_password", "changeme")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.session_ttl", 30*24*time.Hour)
	v.SetDefault("auth.login_timeout", 10*time.Second)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("mail.test_timeout", 25*time.Second)
	v.SetDefault("mail.send_timeout", 20*time.Second)
	v.SetDefault("tracking.cache_ttl", 5*time.Minute)
	v.SetDefault("sentry.environment", "development")
}

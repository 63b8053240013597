package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address     string   `mapstructure:"address"`
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost       int    `mapstructure:"bcrypt_cost"`
	EncryptionKey    string `mapstructure:"encryption_key"`
	MaxLoginAttempts int    `mapstructure:"max_login_attempts"`
	LockMinutes      int    `mapstructure:"lock_minutes"`
}

type LogConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json / text
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

type AppSubConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
	MaxClients  int           `mapstructure:"max_clients"`
}

// RedisConfig enables the distributed record lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type MaintenanceConfig struct {
	LogRetentionDays int           `mapstructure:"log_retention_days"`
	Interval         time.Duration `mapstructure:"interval"`
	FirstRunDelay    time.Duration `mapstructure:"first_run_delay"`
	StatsInterval    time.Duration `mapstructure:"stats_interval"`
	SizeWarnMB       float64       `mapstructure:"size_warn_mb"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Security    SecurityConfig    `mapstructure:"security"`
	Log         LogConfig         `mapstructure:"log"`
	Backup      BackupConfig      `mapstructure:"backup"`
	App         AppSubConfig      `mapstructure:"app"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

var (
	appConfig *Config
	once      sync.Once
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.path", "db/aih.db")
	v.SetDefault("database.log_mode", false)

	v.SetDefault("jwt.secret", "chave-secreta-aih")
	v.SetDefault("jwt.issuer", "aih")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lock_minutes", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("backup.dir", "backups")
	v.SetDefault("app.page_size", 20)

	v.SetDefault("ratelimit.window", 15*time.Minute)
	v.SetDefault("ratelimit.max_requests", 100)
	v.SetDefault("ratelimit.max_clients", 10000)

	v.SetDefault("redis.lock_ttl", 30*time.Second)

	v.SetDefault("maintenance.log_retention_days", 90)
	v.SetDefault("maintenance.interval", 7*24*time.Hour)
	v.SetDefault("maintenance.first_run_delay", time.Minute)
	v.SetDefault("maintenance.stats_interval", time.Hour)
	v.SetDefault("maintenance.size_warn_mb", 500)
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, "config.yaml" in the working directory is used when present;
// a missing file falls back to defaults plus AIH_* environment variables.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		appConfig, err = Read(path)
	})
	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Read builds a fresh Config without touching the process-wide one.
func Read(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. AIH_SERVER_PORT=9000
	v.SetEnvPrefix("AIH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/fitcoach-backend/internal/modules/coach"
	"github.com/yungbote/fitcoach-backend/internal/platform/envutil"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

const (
	KVBackendSQL    = "sql"
	KVBackendRedis  = "redis"
	KVBackendMemory = "memory"

	DBDriverNone = "none"

	devOriginSecret = "fitcoach-dev-secret"
)

type DBConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
}

type KVConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type OriginConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

type CoachConfig struct {
	Language          string `yaml:"language"`
	Timezone          string `yaml:"timezone"`
	ChatFailurePolicy string `yaml:"chat_failure_policy"`
	SyncWeight        bool   `yaml:"sync_weight"`
	SyncBodyFat       bool   `yaml:"sync_body_fat"`
	ChartFont         string `yaml:"chart_font"`
	ChatModel         string `yaml:"chat_model"`
	HubMaxResident    int    `yaml:"hub_max_resident"`
	HubIdleMinutes    int    `yaml:"hub_idle_minutes"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	Env         string       `yaml:"env"`
	Port        string       `yaml:"port"`
	LogMode     string       `yaml:"log_mode"`
	CORSOrigins []string     `yaml:"cors_origins"`
	DB          DBConfig     `yaml:"db"`
	KV          KVConfig     `yaml:"kv"`
	Origin      OriginConfig `yaml:"origin"`
	Coach       CoachConfig  `yaml:"coach"`
	Kafka       KafkaConfig  `yaml:"kafka"`
}

func defaultConfig() Config {
	return Config{
		Env:     "development",
		Port:    "8080",
		LogMode: "development",
		DB:      DBConfig{Driver: "sqlite", SQLitePath: "fitcoach.db", Host: "localhost", Port: "5432", SSLMode: "disable"},
		KV:      KVConfig{Backend: KVBackendSQL, RedisPrefix: "fitcoach:kv:"},
		Origin:  OriginConfig{TTLHours: 24 * 365},
		Coach: CoachConfig{
			Language:          coach.DefaultLanguage,
			ChatFailurePolicy: string(coach.SubstituteMessage),
			SyncWeight:        true,
		},
		Kafka: KafkaConfig{Topic: "fitcoach.events"},
	}
}

// LoadConfig layers defaults, the optional FITCOACH_CONFIG yaml file and the
// environment, in that order. A .env file in the working directory is loaded
// first when present.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) && log != nil {
		log.Warn("could not load .env", "error", err)
	}

	cfg := defaultConfig()
	if path := envutil.String("FITCOACH_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)

	if err := cfg.normalize(log); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.SSLMode)

	cfg.KV.Backend = envutil.String("KV_BACKEND", cfg.KV.Backend)
	cfg.KV.RedisAddr = envutil.String("REDIS_ADDR", cfg.KV.RedisAddr)
	cfg.KV.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.KV.RedisPassword)
	cfg.KV.RedisDB = envutil.Int("REDIS_DB", cfg.KV.RedisDB)
	cfg.KV.RedisPrefix = envutil.String("REDIS_PREFIX", cfg.KV.RedisPrefix)

	cfg.Origin.Secret = envutil.String("ORIGIN_TOKEN_SECRET", cfg.Origin.Secret)
	cfg.Origin.TTLHours = envutil.Int("ORIGIN_TOKEN_TTL_HOURS", cfg.Origin.TTLHours)

	cfg.Coach.Language = envutil.String("COACH_LANGUAGE", cfg.Coach.Language)
	cfg.Coach.Timezone = envutil.String("COACH_TIMEZONE", cfg.Coach.Timezone)
	cfg.Coach.ChatFailurePolicy = envutil.String("COACH_CHAT_FAILURE_POLICY", cfg.Coach.ChatFailurePolicy)
	cfg.Coach.SyncWeight = envutil.Bool("COACH_SYNC_WEIGHT", cfg.Coach.SyncWeight)
	cfg.Coach.SyncBodyFat = envutil.Bool("COACH_SYNC_BODY_FAT", cfg.Coach.SyncBodyFat)
	cfg.Coach.ChartFont = envutil.String("COACH_CHART_FONT", cfg.Coach.ChartFont)
	cfg.Coach.ChatModel = envutil.String("OPENAI_CHAT_MODEL", cfg.Coach.ChatModel)
	cfg.Coach.HubMaxResident = envutil.Int("COACH_HUB_MAX_RESIDENT", cfg.Coach.HubMaxResident)
	cfg.Coach.HubIdleMinutes = envutil.Int("COACH_HUB_IDLE_MINUTES", cfg.Coach.HubIdleMinutes)

	cfg.Kafka.Brokers = envutil.List("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = envutil.String("KAFKA_TOPIC", cfg.Kafka.Topic)
}

func (c *Config) production() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func (c *Config) normalize(log *logger.Logger) error {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	c.KV.Backend = strings.ToLower(strings.TrimSpace(c.KV.Backend))

	switch c.DB.Driver {
	case "sqlite", "postgres", DBDriverNone:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.KV.Backend {
	case KVBackendSQL:
		if c.DB.Driver == DBDriverNone {
			return fmt.Errorf("KV_BACKEND=sql needs a database, DB_DRIVER is none")
		}
	case KVBackendRedis:
		if c.KV.RedisAddr == "" {
			return fmt.Errorf("KV_BACKEND=redis needs REDIS_ADDR")
		}
	case KVBackendMemory:
	default:
		return fmt.Errorf("unsupported KV_BACKEND %q", c.KV.Backend)
	}
	if _, err := coach.ParseChatFailurePolicy(c.Coach.ChatFailurePolicy); err != nil {
		return err
	}
	if c.Coach.Timezone != "" {
		if _, err := time.LoadLocation(c.Coach.Timezone); err != nil {
			return fmt.Errorf("COACH_TIMEZONE: %w", err)
		}
	}
	if c.Origin.Secret == "" {
		if c.production() {
			return fmt.Errorf("missing ORIGIN_TOKEN_SECRET")
		}
		if log != nil {
			log.Warn("ORIGIN_TOKEN_SECRET unset, using the development secret")
		}
		c.Origin.Secret = devOriginSecret
	}
	return nil
}

// CoachConfig converts the loaded settings; call after LoadConfig succeeded.
func (c Config) CoachConfig() coach.Config {
	policy, _ := coach.ParseChatFailurePolicy(c.Coach.ChatFailurePolicy)
	cfg := coach.DefaultConfig()
	cfg.Language = c.Coach.Language
	cfg.ChatFailurePolicy = policy
	cfg.Sync = coach.SyncPolicy{Weight: c.Coach.SyncWeight, BodyFat: c.Coach.SyncBodyFat}
	if c.Coach.HubMaxResident > 0 {
		cfg.Hub.MaxResident = c.Coach.HubMaxResident
	}
	if c.Coach.HubIdleMinutes > 0 {
		cfg.Hub.IdleTTL = time.Duration(c.Coach.HubIdleMinutes) * time.Minute
	}
	return cfg
}

// Location is the calendar zone for clients that send no X-Timezone.
func (c Config) Location() *time.Location {
	if c.Coach.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Coach.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) OriginTTL() time.Duration {
	return time.Duration(c.Origin.TTLHours) * time.Hour
}

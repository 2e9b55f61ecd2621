package config

import (
	"time"
	_ "time/tzdata"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion          string `mapstructure:"GENERAL_VERSION"`
	Environment             string `mapstructure:"ENVIRONMENT"`
	ServerPort              int    `mapstructure:"SERVER_PORT"`
	DatabaseHost            string `mapstructure:"DB_HOST"`
	DatabasePort            int    `mapstructure:"DB_PORT"`
	DatabaseName            string `mapstructure:"DB_NAME"`
	DatabaseUser            string `mapstructure:"DB_USER"`
	DatabasePassword        string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress    string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort       int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset      int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins        string `mapstructure:"CORS_ALLOW_ORIGINS"`
	IdentityBaseURL         string `mapstructure:"IDENTITY_BASE_URL"`
	IdentitySigningKey      string `mapstructure:"IDENTITY_SIGNING_KEY"`
	IdentityTimeoutMS       int    `mapstructure:"IDENTITY_TIMEOUT_MS"`
	IdentityCacheTTLMinutes int    `mapstructure:"IDENTITY_CACHE_TTL_MINUTES"`
	SchedulerEnabled        bool   `mapstructure:"SCHEDULER_ENABLED"`
	AppTimezone             string `mapstructure:"APP_TIMEZONE"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"IDENTITY_BASE_URL", "IDENTITY_SIGNING_KEY", "IDENTITY_TIMEOUT_MS", "IDENTITY_CACHE_TTL_MINUTES",
	"SCHEDULER_ENABLED", "APP_TIMEZONE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_CACHE_RESET", -1)
	v.SetDefault("IDENTITY_TIMEOUT_MS", 3000)
	v.SetDefault("IDENTITY_CACHE_TTL_MINUTES", 60)
	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("APP_TIMEZONE", "UTC")
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	for _, env := range envVars {
		if err := v.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := v.IsSet("SERVER_PORT") && v.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		v.SetConfigFile(".env")
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		v.SetConfigFile(".env.local")
		if err := v.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"schedulerEnabled", config.SchedulerEnabled,
		"timezone", config.AppTimezone,
	)

	ConfigInstance = config
	return config, nil
}

func GetConfig() Config {
	return ConfigInstance
}

// IdentityTimeout bounds a single employee directory lookup.
func (c Config) IdentityTimeout() time.Duration {
	return time.Duration(c.IdentityTimeoutMS) * time.Millisecond
}

func (c Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.IdentityCacheTTLMinutes) * time.Minute
}

// Location resolves APP_TIMEZONE, falling back to UTC when unset.
func (c Config) Location() (*time.Location, error) {
	if c.AppTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.AppTimezone)
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.IdentityTimeoutMS <= 0 {
		return log.Error(
			"Fatal error: IDENTITY_TIMEOUT_MS must be positive",
			"timeoutMs", config.IdentityTimeoutMS,
		)
	}

	if config.IdentityCacheTTLMinutes < 0 {
		return log.Error(
			"Fatal error: IDENTITY_CACHE_TTL_MINUTES cannot be negative",
			"ttlMinutes", config.IdentityCacheTTLMinutes,
		)
	}

	if _, err := config.Location(); err != nil {
		return log.Err("Fatal error: APP_TIMEZONE is not a valid IANA zone", err, "timezone", config.AppTimezone)
	}

	return nil
}

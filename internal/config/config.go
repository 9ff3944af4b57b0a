package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port         int           `mapstructure:"port"`
		OpsPort      int           `mapstructure:"opsPort"`
		ReadTimeout  time.Duration `mapstructure:"readTimeout"`
		WriteTimeout time.Duration `mapstructure:"writeTimeout"`
		CORSOrigins  []string      `mapstructure:"corsOrigins"`
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	NATS struct {
		Enabled    bool   `mapstructure:"enabled"`
		URL        string `mapstructure:"url"`
		StreamName string `mapstructure:"streamName"`
	} `mapstructure:"nats"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Frontend struct {
		BaseURL string `mapstructure:"baseURL"`
	} `mapstructure:"frontend"`
	Media     MediaConfig     `mapstructure:"media"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Metrics   struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Notification WorkerPoolConfig `mapstructure:"notification"`
	} `mapstructure:"workerPools"`
}

// JWTConfig configures access tokens and refresh-token lifetime.
type JWTConfig struct {
	AccessTokenSecret    string `mapstructure:"accessTokenSecret"`
	AccessTokenDuration  int    `mapstructure:"accessTokenDuration"` // minutes
	RefreshTokenDuration int    `mapstructure:"refreshTokenDuration"`
	RefreshTokenUnit     string `mapstructure:"refreshTokenUnit"` // hours|days|weeks|months
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenDuration) * time.Minute
}

// RefreshTTL returns the refresh token lifetime. Months count as 30 days.
func (j JWTConfig) RefreshTTL() time.Duration {
	n := time.Duration(j.RefreshTokenDuration)
	switch j.RefreshTokenUnit {
	case "hours":
		return n * time.Hour
	case "weeks":
		return n * 7 * 24 * time.Hour
	case "months":
		return n * 30 * 24 * time.Hour
	default:
		return n * 24 * time.Hour
	}
}

// WhatsAppConfig points the outbound client at the Business API gateway.
type WhatsAppConfig struct {
	Number           string        `mapstructure:"number"`
	APIKey           string        `mapstructure:"apiKey"`
	APIURL           string        `mapstructure:"apiURL"`
	APIVersion       string        `mapstructure:"apiVersion"`
	SupportTeamPhone string        `mapstructure:"supportTeamPhone"`
	VerifyToken      string        `mapstructure:"verifyToken"`
	TemplateName     string        `mapstructure:"templateName"`
	TemplateImageURL string        `mapstructure:"templateImageURL"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// MediaConfig selects where uploaded files are stored.
type MediaConfig struct {
	Backend       string `mapstructure:"backend"` // local|gcs
	LocalDir      string `mapstructure:"localDir"`
	PublicBaseURL string `mapstructure:"publicBaseURL"`
	GCSBucket     string `mapstructure:"gcsBucket"`
	MaxUploadMB   int    `mapstructure:"maxUploadMB"`
}

// RateLimitConfig bounds requests per client per route window.
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// WorkerPoolConfig holds configuration for an ants worker pool
type WorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`
	QueueSize  int           `mapstructure:"queueSize"`
	MaxBlock   time.Duration `mapstructure:"maxBlock"`
	ExpiryTime time.Duration `mapstructure:"expiryTime"`
}

// conventionalEnv maps deployment env names to config keys.
var conventionalEnv = map[string]string{
	"POSTGRES_DSN":           "database.postgresDSN",
	"LOG_LEVEL":              "logLevel",
	"NATS_URL":               "nats.url",
	"REDIS_ADDR":             "redis.addr",
	"REDIS_PASS":             "redis.password",
	"ACCESS_TOKEN_SECRET":    "jwt.accessTokenSecret",
	"ACCESS_TOKEN_DURATION":  "jwt.accessTokenDuration",
	"REFRESH_TOKEN_DURATION": "jwt.refreshTokenDuration",
	"REFRESH_TOKEN_UNIT":     "jwt.refreshTokenUnit",
	"FRONTEND_BASE_URL":      "frontend.baseURL",
	"TEMPLATE_IMAGE_URL":     "whatsapp.templateImageURL",
	"TEMPLATE_NAME":          "whatsapp.templateName",
	"NUMBER":                 "whatsapp.number",
	"API_KEY":                "whatsapp.apiKey",
	"API_URL":                "whatsapp.apiURL",
	"API_VERSION":            "whatsapp.apiVersion",
	"SUPPORT_TEAM_PHONE":     "whatsapp.supportTeamPhone",
	"VERIFY_TOKEN":           "whatsapp.verifyToken",
}

// LoadConfig reads .env, then the optional default.yaml, then environment
// variables, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.opsPort", 8081)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.corsOrigins", []string{"*"})
	v.SetDefault("database.postgresAutoMigrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.streamName", "CLINIC_EVENTS")
	v.SetDefault("jwt.accessTokenDuration", 60)
	v.SetDefault("jwt.refreshTokenDuration", 30)
	v.SetDefault("jwt.refreshTokenUnit", "days")
	v.SetDefault("whatsapp.apiVersion", "v1")
	v.SetDefault("whatsapp.timeout", 10*time.Second)
	v.SetDefault("whatsapp.templateName", "patient_intake")
	v.SetDefault("frontend.baseURL", "http://localhost:3000")
	v.SetDefault("media.backend", "local")
	v.SetDefault("media.localDir", "./uploads")
	v.SetDefault("media.publicBaseURL", "http://localhost:8080/uploads")
	v.SetDefault("media.maxUploadMB", 5)
	v.SetDefault("rateLimit.limit", 5)
	v.SetDefault("rateLimit.window", 15*time.Minute)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("workerPools.notification.poolSize", 8)
	v.SetDefault("workerPools.notification.queueSize", 1000)
	v.SetDefault("workerPools.notification.maxBlock", time.Second)
	v.SetDefault("workerPools.notification.expiryTime", time.Minute)

	v.SetConfigName("default")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("/etc/clinic-case-service")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, Config{})

	for env, key := range conventionalEnv {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// Validate reports every invalid setting at once so the operator can fix
// them in a single pass.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.PostgresDSN == "" {
		errs = append(errs, errors.New("database.postgresDSN (POSTGRES_DSN) is required"))
	}
	if len(c.JWT.AccessTokenSecret) < 32 {
		errs = append(errs, errors.New("jwt.accessTokenSecret (ACCESS_TOKEN_SECRET) must be at least 32 characters"))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("jwt.accessTokenDuration must be a positive number of minutes"))
	}
	if c.JWT.RefreshTokenDuration <= 0 {
		errs = append(errs, errors.New("jwt.refreshTokenDuration must be positive"))
	}
	switch c.JWT.RefreshTokenUnit {
	case "hours", "days", "weeks", "months":
	default:
		errs = append(errs, fmt.Errorf("jwt.refreshTokenUnit %q must be one of hours, days, weeks, months", c.JWT.RefreshTokenUnit))
	}
	if u, err := url.Parse(c.WhatsApp.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("whatsapp.apiURL (API_URL) %q must be an absolute URL", c.WhatsApp.APIURL))
	}
	if c.WhatsApp.Number == "" {
		errs = append(errs, errors.New("whatsapp.number (NUMBER) is required"))
	}
	if c.WhatsApp.VerifyToken == "" {
		errs = append(errs, errors.New("whatsapp.verifyToken (VERIFY_TOKEN) is required"))
	}
	switch c.Media.Backend {
	case "local":
		if c.Media.LocalDir == "" {
			errs = append(errs, errors.New("media.localDir is required for the local backend"))
		}
	case "gcs":
		if c.Media.GCSBucket == "" {
			errs = append(errs, errors.New("media.gcsBucket is required for the gcs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("media.backend %q must be local or gcs", c.Media.Backend))
	}
	if c.Media.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("media.maxUploadMB must be positive"))
	}

	return errors.Join(errs...)
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(append([]string{}, parts...), tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}

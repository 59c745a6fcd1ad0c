package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/unified-feedback/unified/backend/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Identity   IdentityConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Summarizer SummarizerConfig
	MinIO      MinIOConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PublicURL prefixes links the API hands out, e.g. the embed page.
	PublicURL string
}

// MongoDBConfig selects the document store. An empty URI keeps every
// repository in memory.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// IdentityConfig describes the external identity provider whose ID tokens
// the API accepts.
type IdentityConfig struct {
	ProjectID string
	Issuer    string
	Audience  string
	// AllowInsecureToken parses ID tokens without checking signatures.
	AllowInsecureToken bool
	// TrustUIDHeader accepts the legacy firebase-uid header as identity.
	TrustUIDHeader bool
}

type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
	// SubmitRPS limits anonymous feedback submissions per client IP.
	SubmitRPS   float64
	SubmitBurst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type SummarizerConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" && m.Bucket != "" }

// EnvFile is loaded before reading the environment; missing files are ignored.
var EnvFile = ".env"

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(EnvFile)

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_TIMEOUT", 30)
	viper.SetDefault("MONGODB_DATABASE", "unified")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ISSUER", "unified")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("RATE_LIMIT_SUBMIT_RPS", 1)
	viper.SetDefault("RATE_LIMIT_SUBMIT_BURST", 5)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("SUMMARIZER_MODEL", "gemini-2.0-flash")
	viper.SetDefault("SUMMARIZER_TIMEOUT", 60)
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("MINIO_URL_EXPIRY", 60)

	var errs []string
	num := func(key string) int {
		n, err := cast.ToIntE(strings.TrimSpace(viper.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not an integer", key))
		}
		return n
	}
	float := func(key string) float64 {
		f, err := cast.ToFloat64E(strings.TrimSpace(viper.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not a number", key))
		}
		return f
	}
	flag := func(key string) bool {
		b, err := cast.ToBoolE(strings.TrimSpace(viper.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not a boolean", key))
		}
		return b
	}

	serverTimeout := time.Duration(num("SERVER_TIMEOUT")) * time.Second
	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  serverTimeout,
			WriteTimeout: serverTimeout,
			PublicURL:    strings.TrimRight(viper.GetString("PUBLIC_URL"), "/"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(num("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       num("REDIS_DB"),
		},
		Identity: IdentityConfig{
			ProjectID:          viper.GetString("FIREBASE_PROJECT_ID"),
			Issuer:             viper.GetString("IDENTITY_ISSUER"),
			Audience:           viper.GetString("IDENTITY_AUDIENCE"),
			AllowInsecureToken: viper.IsSet("ALLOW_INSECURE_TOKEN") && flag("ALLOW_INSECURE_TOKEN"),
			TrustUIDHeader:     viper.IsSet("AUTH_TRUST_UID_HEADER") && flag("AUTH_TRUST_UID_HEADER"),
		},
		JWT: JWTConfig{
			Secret:          viper.GetString("JWT_SECRET"),
			Issuer:          viper.GetString("JWT_ISSUER"),
			AccessTokenTTL:  time.Duration(num("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(num("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       flag("RATE_LIMIT_ENABLED"),
			UseRedis:      flag("RATE_LIMIT_USE_REDIS"),
			RPS:           float("RATE_LIMIT_RPS"),
			Burst:         num("RATE_LIMIT_BURST"),
			WindowSeconds: num("RATE_LIMIT_WINDOW_SECONDS"),
			SubmitRPS:     float("RATE_LIMIT_SUBMIT_RPS"),
			SubmitBurst:   num("RATE_LIMIT_SUBMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Summarizer: SummarizerConfig{
			APIKey:  firstSet(viper.GetString("GEMINI_API_KEY"), viper.GetString("GOOGLE_API_KEY")),
			Model:   viper.GetString("SUMMARIZER_MODEL"),
			Timeout: time.Duration(num("SUMMARIZER_TIMEOUT")) * time.Second,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
			UseSSL:    flag("MINIO_USE_SSL"),
			URLExpiry: time.Duration(num("MINIO_URL_EXPIRY")) * time.Minute,
		},
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if cfg.Identity.ProjectID != "" {
		if cfg.Identity.Issuer == "" {
			cfg.Identity.Issuer = "https://securetoken.google.com/" + cfg.Identity.ProjectID
		}
		if cfg.Identity.Audience == "" {
			cfg.Identity.Audience = cfg.Identity.ProjectID
		}
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; app access tokens are disabled")
	}
	if cfg.MongoDB.URI == "" {
		logger.Warn("MONGODB_URI is not set; using in-memory repositories")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

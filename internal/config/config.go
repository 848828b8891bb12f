package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort     string
	StoreDriver string
	DBDSN       string

	JWTSecret     string
	JWTExpiresMin int
	BcryptCost    int

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	WorkerCacheTTL time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	CORSOrigins string
	LogLevel    string
	LogFormat   string

	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresMin) * time.Minute
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != "" && c.GoogleRedirect != ""
}

// Load reads .env (if present), configs/config.yaml (if present) and the
// process environment, in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("JWT_EXPIRES_MIN", 1440)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WORKER_CACHE_TTL", "5m")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "homeease")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")

	cfg := Config{
		AppPort:          v.GetString("APP_PORT"),
		StoreDriver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		DBDSN:            v.GetString("DB_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTExpiresMin:    v.GetInt("JWT_EXPIRES_MIN"),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		WorkerCacheTTL:   v.GetDuration("WORKER_CACHE_TTL"),
		KafkaBrokers:     splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		CORSOrigins:      v.GetString("CORS_ORIGINS"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		GoogleClientID:   v.GetString("GOOGLE_CLIENT_ID"),
		GoogleSecret:     v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirect:   v.GetString("GOOGLE_REDIRECT_URL"),
		FrontendBaseURL:  v.GetString("FRONTEND_BASE_URL"),
	}

	switch {
	case cfg.JWTSecret == "":
		return Config{}, errors.New("missing env: JWT_SECRET")
	case cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory":
		return Config{}, errors.New("STORE_DRIVER must be postgres or memory")
	case cfg.StoreDriver == "postgres" && cfg.DBDSN == "":
		return Config{}, errors.New("missing env: DB_DSN")
	case cfg.JWTExpiresMin <= 0:
		return Config{}, errors.New("JWT_EXPIRES_MIN must be positive")
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

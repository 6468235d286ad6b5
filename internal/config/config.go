package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret           string
	JWTAccessTTLMinutes int

	CaptchaSecret    string
	CaptchaVerifyURL string

	AdminUsername string
	AdminPassword string

	AllowedOrigins []string

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 3000),

		DBURL: buildDBURL(),

		JWTSecret:           getEnv("ACCESS_TOKEN_SECRET", ""),
		JWTAccessTTLMinutes: getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60),

		CaptchaSecret:    getEnv("CAPTCHA_SECRET", ""),
		CaptchaVerifyURL: getEnv("CAPTCHA_VERIFY_URL", "https://api.hcaptcha.com/siteverify"),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		TracingEnabled: getEnv("OTEL_TRACING_ENABLED", "false") == "true",
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// AccessTTL is the lifetime of a minted access token.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "blogapi")
	pass := getEnv("DB_PASSWORD", "blogapi")
	name := getEnv("DB_NAME", "blogapi")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

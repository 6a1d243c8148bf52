package config

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

type Config struct {
	// tokens
	TokenSecret     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	TokenLeeway     time.Duration

	// passwords
	PasswordHasher string
	HashCost       int
	PasswordPepper string

	// storage
	StoreBackend  string
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// http
	HTTPAddress       string
	HTTPSCertFile     string
	HTTPSKeyFile      string
	CookieDomain      string
	RefreshCookiePath string
	AllowedOrigins    []string
	AllowCredentials  bool
	TrustedProxies    []string
	RequestTimeout    time.Duration
	LoginRateLimit    int
	LoginRateBurst    int

	LogLevel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ACCESS_TOKEN_TTL", 10*time.Minute)
	v.SetDefault("REFRESH_TOKEN_TTL", 240*time.Hour)
	v.SetDefault("JWT_LEEWAY", time.Duration(0))
	v.SetDefault("PASSWORD_HASHER", HasherBcrypt)
	v.SetDefault("HASH_COST", 10)
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("REFRESH_COOKIE_PATH", "/api/refresh")
	v.SetDefault("ALLOW_CREDENTIALS", true)
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")
}

// Load читает config.json из рабочей директории (если есть) и переменные окружения.
// Переменные окружения имеют приоритет.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	origins, err := parseList(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}
	// пусто: X-Forwarded-For не доверяем, клиентский IP берётся из RemoteAddr
	proxies, err := parseList(v.GetString("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	cfg := &Config{
		TokenSecret:     v.GetString("TOKEN_SECRET"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:          v.GetString("JWT_ISSUER"),
		Audience:        v.GetString("JWT_AUDIENCE"),
		TokenLeeway:     v.GetDuration("JWT_LEEWAY"),

		PasswordHasher: strings.ToLower(v.GetString("PASSWORD_HASHER")),
		HashCost:       v.GetInt("HASH_COST"),
		PasswordPepper: v.GetString("PASSWORD_PEPPER"),

		StoreBackend:  strings.ToLower(v.GetString("STORE_BACKEND")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisAddress:  v.GetString("REDIS_ADDRESS"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		HTTPAddress:       v.GetString("HTTP_ADDRESS"),
		HTTPSCertFile:     v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:      v.GetString("HTTPS_KEY_FILE"),
		CookieDomain:      v.GetString("COOKIE_DOMAIN"),
		RefreshCookiePath: v.GetString("REFRESH_COOKIE_PATH"),
		AllowedOrigins:    origins,
		AllowCredentials:  v.GetBool("ALLOW_CREDENTIALS"),
		TrustedProxies:    proxies,
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
		LoginRateLimit:    v.GetInt("LOGIN_RATE_LIMIT"),
		LoginRateBurst:    v.GetInt("LOGIN_RATE_BURST"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET не задан")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}

	switch c.PasswordHasher {
	case HasherBcrypt:
		if c.HashCost < 4 || c.HashCost > 31 {
			return fmt.Errorf("HASH_COST %d out of range [4, 31]", c.HashCost)
		}
	case HasherArgon2id:
	default:
		return fmt.Errorf("unknown PASSWORD_HASHER %q", c.PasswordHasher)
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL не задана")
		}
	case BackendRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS не задан")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == "") {
		return fmt.Errorf("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %q is neither an IP nor a CIDR", p)
		}
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("login rate limit must be positive")
	}
	return nil
}

// TLSEnabled reports whether the HTTP server should serve HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

// parseList accepts either a JSON array or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

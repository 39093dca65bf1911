package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Gateway  GatewayConfig
	Portal   PortalConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// GatewayConfig locates the attendance API the portal talks to
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PortalConfig holds the client-side settings of the employee portal
type PortalConfig struct {
	// Latitude and Longitude are NaN when the device position is not configured
	Latitude         float64
	Longitude        float64
	LocationName     string
	GeocoderURL      string
	GeocoderTimeout  time.Duration
	ResyncInterval   time.Duration
	SessionStorePath string
}

// Load reads the environment, optionally seeded from a .env file in the
// working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	// Gateway configuration
	gatewayTimeout, err := time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}

	config.Gateway = GatewayConfig{
		BaseURL: getEnv("GATEWAY_BASE_URL", fmt.Sprintf("http://localhost:%d", appPort)),
		Timeout: gatewayTimeout,
	}

	// Portal configuration
	lat, err := getEnvFloat("PORTAL_LATITUDE")
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_LATITUDE: %w", err)
	}
	lon, err := getEnvFloat("PORTAL_LONGITUDE")
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_LONGITUDE: %w", err)
	}
	geocoderTimeout, err := time.ParseDuration(getEnv("GEOCODER_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODER_TIMEOUT: %w", err)
	}
	resync, err := time.ParseDuration(getEnv("PORTAL_RESYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_RESYNC_INTERVAL: %w", err)
	}

	config.Portal = PortalConfig{
		Latitude:         lat,
		Longitude:        lon,
		LocationName:     getEnv("PORTAL_LOCATION_NAME", ""),
		GeocoderURL:      getEnv("GEOCODER_URL", ""),
		GeocoderTimeout:  geocoderTimeout,
		ResyncInterval:   resync,
		SessionStorePath: getEnv("PORTAL_SESSION_STORE", defaultStorePath()),
	}

	return config, nil
}

// Validate checks what every binary needs.
func (c *Config) Validate() error {
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.Portal.ResyncInterval < 0 {
		return fmt.Errorf("PORTAL_RESYNC_INTERVAL must not be negative")
	}
	return nil
}

// ValidateServer checks the settings the gateway server needs on top of
// Validate.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	return c.ValidateJWT()
}

// ValidateJWT checks the token settings used to mint and verify access tokens.
func (c *Config) ValidateJWT() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func getEnvFloat(key string) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(value, 64)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "hris-portal", "session.db")
}

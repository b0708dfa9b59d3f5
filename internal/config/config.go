package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dfryer1193/pressroom/auth"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
// Sources in increasing precedence: defaults, YAML file, .env file, environment.
type Config struct {
	// Server bind address (host:port)
	ServerAddr string `yaml:"server_addr"`

	// Database connection string. postgres:// URLs select PostgreSQL, anything else is a SQLite path.
	DatabaseURL string `yaml:"database_url"`

	// Maximum database connection pool size (PostgreSQL only)
	MaxDBConnections int `yaml:"max_db_connections"`

	// Enable debug logging
	Debug bool `yaml:"debug"`

	AdminID string `yaml:"admin_id"`
	// AdminSecretHash is a bcrypt hash. AdminSecret is a plaintext fallback for development.
	AdminSecretHash string `yaml:"admin_secret_hash"`
	AdminSecret     string `yaml:"admin_secret"`

	TokenSecret  string        `yaml:"token_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
	LoginPath    string        `yaml:"login_path"`

	UploadDir      string `yaml:"upload_dir"`
	UploadBaseURL  string `yaml:"upload_base_url"`
	UploadMaxBytes int64  `yaml:"upload_max_bytes"`

	SummaryLines    int `yaml:"summary_lines"`
	RenderCacheSize int `yaml:"render_cache_size"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		ServerAddr:       ":8080",
		DatabaseURL:      "./pressroom.db",
		MaxDBConnections: 25,
		AdminID:          "admin",
		TokenTTL:         auth.DefaultTokenTTL,
		LoginPath:        "/login",
		UploadDir:        "./uploads",
		UploadBaseURL:    "/uploads",
		UploadMaxBytes:   10 << 20,
		SummaryLines:     3,
		RenderCacheSize:  256,
	}
}

// Load builds the configuration. configPath may be empty. envFiles default to ".env";
// missing env files are ignored.
func Load(configPath string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString("SERVER_ADDR", &c.ServerAddr)
	envString("DATABASE_URL", &c.DatabaseURL)
	envString("ADMIN_ID", &c.AdminID)
	envString("ADMIN_SECRET_HASH", &c.AdminSecretHash)
	envString("ADMIN_SECRET", &c.AdminSecret)
	envString("TOKEN_SECRET", &c.TokenSecret)
	envString("LOGIN_PATH", &c.LoginPath)
	envString("UPLOAD_DIR", &c.UploadDir)
	envString("UPLOAD_BASE_URL", &c.UploadBaseURL)

	return errors.Join(
		envBool("DEBUG", &c.Debug),
		envBool("COOKIE_SECURE", &c.CookieSecure),
		envInt("MAX_DB_CONNECTIONS", &c.MaxDBConnections),
		envInt("SUMMARY_LINES", &c.SummaryLines),
		envInt("RENDER_CACHE_SIZE", &c.RenderCacheSize),
		envInt64("UPLOAD_MAX_BYTES", &c.UploadMaxBytes),
		envDuration("TOKEN_TTL", &c.TokenTTL),
	)
}

// Validate checks the fields the server cannot start without
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AdminID == "" {
		return fmt.Errorf("ADMIN_ID is required")
	}
	if c.AdminSecretHash == "" && c.AdminSecret == "" {
		return fmt.Errorf("one of ADMIN_SECRET_HASH or ADMIN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.SummaryLines <= 0 {
		return fmt.Errorf("SUMMARY_LINES must be positive, got %d", c.SummaryLines)
	}
	if c.RenderCacheSize <= 0 {
		return fmt.Errorf("RENDER_CACHE_SIZE must be positive, got %d", c.RenderCacheSize)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	return nil
}

// SecretHash returns the configured bcrypt hash, hashing the plaintext secret when only that is set
func (c *Config) SecretHash() ([]byte, error) {
	if c.AdminSecretHash != "" {
		return []byte(c.AdminSecretHash), nil
	}

	hash, err := auth.HashSecret(c.AdminSecret)
	if err != nil {
		return nil, err
	}
	return []byte(hash), nil
}

// EnsureTokenSecret fills an empty token secret with a random per-process key.
// It reports whether a key was generated; tokens signed with it die with the process.
func (c *Config) EnsureTokenSecret() (bool, error) {
	if c.TokenSecret != "" {
		return false, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("failed to generate token secret: %w", err)
	}

	c.TokenSecret = hex.EncodeToString(buf)
	return true, nil
}

func envString(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envBool(key string, dst *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	switch value {
	case "yes", "on":
		*dst = true
		return nil
	case "no", "off":
		*dst = false
		return nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	*dst = b
	return nil
}

func envInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, value)
	}
	*dst = d
	return nil
}

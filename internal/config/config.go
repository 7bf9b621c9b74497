package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Env         string            `yaml:"env"` // "development" or "production"
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Captcha     CaptchaConfig     `yaml:"captcha"`
	Email       EmailConfig       `yaml:"email"`
	Site        SiteConfig        `yaml:"site"`
	Referral    ReferralConfig    `yaml:"referral"`
	Invitations InvitationsConfig `yaml:"invitations"`
	Releases    ReleasesConfig    `yaml:"releases"`
	HTTP        HTTPConfig        `yaml:"http"`
	JWT         JWTConfig         `yaml:"jwt"`
	Admin       AdminConfig       `yaml:"admin"`
	Log         LogConfig         `yaml:"log"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// ServerConfig contains listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"` // health service; 0 means port+1
}

// DatabaseConfig selects the waitlist store backend
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // "postgres" or "sqlite"
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SSLMode    string `yaml:"ssl_mode"`
	SQLitePath string `yaml:"sqlite_path"`
	Migrate    bool   `yaml:"migrate"`
}

// CaptchaConfig contains hCaptcha verification settings
type CaptchaConfig struct {
	VerifyURL      string `yaml:"verify_url"`
	Secret         string `yaml:"secret"`
	SiteKey        string `yaml:"site_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Disabled       bool   `yaml:"disabled"` // development only
}

// EmailConfig contains SendGrid settings. An empty APIKey disables email.
type EmailConfig struct {
	APIKey         string `yaml:"api_key"`
	FromName       string `yaml:"from_name"`
	WelcomeFrom    string `yaml:"welcome_from"`
	InviteFrom     string `yaml:"invite_from"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SiteConfig describes the public marketing site
type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ReferralConfig contains referral code settings
type ReferralConfig struct {
	CodeLength  int `yaml:"code_length"`
	MaxAttempts int `yaml:"max_attempts"`
}

// InvitationsConfig contains wave invitation batch settings
type InvitationsConfig struct {
	DefaultLimit int    `yaml:"default_limit"`
	MaxLimit     int    `yaml:"max_limit"`
	DefaultWave  string `yaml:"default_wave"`
	Concurrency  int    `yaml:"concurrency"`
}

// ReleasesConfig contains release manifest proxy settings
type ReleasesConfig struct {
	ManifestURL    string `yaml:"manifest_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HTTPConfig contains HTTP API settings
type HTTPConfig struct {
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honoured.
	// Empty means the connection's peer address is always the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// JWTConfig contains admin token settings
type JWTConfig struct {
	Secret                  string `yaml:"secret"`
	AdminTokenExpiryMinutes int    `yaml:"admin_token_expiry_minutes"`
}

// AdminConfig holds the bcrypt hash of the admin password
type AdminConfig struct {
	PasswordHash string `yaml:"password_hash"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings. Empty disables a job.
type SchedulerConfig struct {
	SendWaveInvitations string `yaml:"send_wave_invitations"`
}

// Load reads configuration from a YAML file. A .env file next to the working
// directory is loaded first so its values can feed the env overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML bytes, applying env overrides and validation
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("APP_ENV", &c.Env)

	// Database
	envString("DATABASE_DRIVER", &c.Database.Driver)
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	envString("SQLITE_PATH", &c.Database.SQLitePath)

	// Third parties
	envString("HCAPTCHA_SECRET", &c.Captcha.Secret)
	envString("HCAPTCHA_SITE_KEY", &c.Captcha.SiteKey)
	envString("SENDGRID_API_KEY", &c.Email.APIKey)
	envString("RELEASE_MANIFEST_URL", &c.Releases.ManifestURL)
	envString("SITE_BASE_URL", &c.Site.BaseURL)

	// Admin
	envString("JWT_SECRET", &c.JWT.Secret)
	envString("ADMIN_PASSWORD_HASH", &c.Admin.PasswordHash)

	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envInt("GRPC_PORT", &c.Server.GRPCPort)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	envString("WAVE_SCHEDULE", &c.Scheduler.SendWaveInvitations)

	if val := os.Getenv("TRUSTED_PROXIES"); val != "" {
		c.HTTP.TrustedProxies = nil
		for _, entry := range strings.Split(val, ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				c.HTTP.TrustedProxies = append(c.HTTP.TrustedProxies, entry)
			}
		}
	}
}

// Validate fills defaults and checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Env == "" {
		c.Env = "production"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	// Database
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "require"
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			c.Database.SQLitePath = "waitlist.db"
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	// Captcha
	if c.Captcha.Disabled && !c.IsDevelopment() {
		return fmt.Errorf("captcha can only be disabled in development")
	}
	if !c.Captcha.Disabled && c.Captcha.Secret == "" {
		return fmt.Errorf("captcha secret is required")
	}
	if c.Captcha.VerifyURL == "" {
		c.Captcha.VerifyURL = "https://hcaptcha.com/siteverify"
	}
	if c.Captcha.TimeoutSeconds <= 0 {
		c.Captcha.TimeoutSeconds = 10
	}

	// Email
	if c.Email.FromName == "" {
		c.Email.FromName = "Vesta"
	}
	if c.Email.WelcomeFrom == "" {
		c.Email.WelcomeFrom = "welcome@vesta-launcher.com"
	}
	if c.Email.InviteFrom == "" {
		c.Email.InviteFrom = "alpha@vesta-launcher.com"
	}
	if c.Email.TimeoutSeconds <= 0 {
		c.Email.TimeoutSeconds = 10
	}

	// Site
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "https://vesta-launcher.com"
	}
	c.Site.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")

	// Referral codes
	if c.Referral.CodeLength == 0 {
		c.Referral.CodeLength = 6
	}
	if c.Referral.CodeLength < 4 || c.Referral.CodeLength > 32 {
		return fmt.Errorf("referral code length must be between 4 and 32: %d", c.Referral.CodeLength)
	}
	if c.Referral.MaxAttempts <= 0 {
		c.Referral.MaxAttempts = 5
	}

	// Invitations
	if c.Invitations.DefaultLimit <= 0 {
		c.Invitations.DefaultLimit = 10
	}
	if c.Invitations.MaxLimit <= 0 {
		c.Invitations.MaxLimit = 500
	}
	if c.Invitations.DefaultLimit > c.Invitations.MaxLimit {
		return fmt.Errorf("invitation default limit %d exceeds max limit %d", c.Invitations.DefaultLimit, c.Invitations.MaxLimit)
	}
	if c.Invitations.DefaultWave == "" {
		c.Invitations.DefaultWave = "Wave 1"
	}
	if c.Invitations.Concurrency <= 0 {
		c.Invitations.Concurrency = 1
	}

	// Releases
	if c.Releases.ManifestURL == "" {
		c.Releases.ManifestURL = "https://pub-f5abfd388a694b88b657a52e2e95b451.r2.dev/launcher/releases/latest.json"
	}
	if c.Releases.TimeoutSeconds <= 0 {
		c.Releases.TimeoutSeconds = 10
	}

	// HTTP
	if c.HTTP.RateLimitPerMinute <= 0 {
		c.HTTP.RateLimitPerMinute = 10
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 5
	}
	if _, err := ParseTrustedProxies(c.HTTP.TrustedProxies); err != nil {
		return err
	}

	// JWT
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AdminTokenExpiryMinutes <= 0 {
		c.JWT.AdminTokenExpiryMinutes = 60
	}

	return nil
}

// ParseTrustedProxies turns IP and CIDR entries into prefixes. A bare IP is a
// single-address prefix.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health listen address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

func (c *Config) CaptchaTimeout() time.Duration {
	return time.Duration(c.Captcha.TimeoutSeconds) * time.Second
}

func (c *Config) EmailTimeout() time.Duration {
	return time.Duration(c.Email.TimeoutSeconds) * time.Second
}

func (c *Config) ReleasesTimeout() time.Duration {
	return time.Duration(c.Releases.TimeoutSeconds) * time.Second
}

func (c *Config) AdminTokenExpiry() time.Duration {
	return time.Duration(c.JWT.AdminTokenExpiryMinutes) * time.Minute
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port" default:"5000"`
		ReadTimeout    time.Duration `yaml:"readTimeout" default:"60s"`
		WriteTimeout   time.Duration `yaml:"writeTimeout" default:"60s"`
		IdleTimeout    time.Duration `yaml:"idleTimeout" default:"60s"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port" default:"3306"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Upload struct {
		MaxBytes int64 `yaml:"maxBytes" default:"104857600"`
	} `yaml:"upload"`

	Analyzer struct {
		Delay time.Duration `yaml:"delay" default:"2s"`
	} `yaml:"analyzer"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName" default:"pcap-captures"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Auth struct {
		APIKeys []string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity        int `yaml:"capacity" default:"10"`
		RefillPerSecond int `yaml:"refillPerSecond" default:"1"`
	} `yaml:"rateLimit"`

	Log struct {
		Debug      bool   `yaml:"debug"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMB" default:"10"`
		MaxBackups int    `yaml:"maxBackups" default:"3"`
		MaxAgeDays int    `yaml:"maxAgeDays" default:"28"`
		Compress   bool   `yaml:"compress" default:"true"`
	} `yaml:"log"`
}

// Load baca file config.yaml. A missing file means "all defaults";
// environment overrides are applied last.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("LOG_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEBUG %q: %w", v, err)
		}
		c.Log.Debug = b
	}
	return nil
}

// StoreDriver picks the record store: explicit driver, else the
// DATABASE_URL scheme, else MySQL when a host is configured, else memory.
func (c *Config) StoreDriver() (string, error) {
	d := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if d == "" {
		d = driverFromURL(c.Database.URL)
	}
	if d == "" && c.Database.Host != "" {
		d = DriverMySQL
	}
	if d == "" {
		d = DriverMemory
	}
	switch d {
	case DriverMemory, DriverPostgres, DriverMySQL, DriverSQLite:
		return d, nil
	case "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unknown database driver %q", d)
}

func driverFromURL(raw string) string {
	if strings.HasPrefix(raw, "file:") {
		return DriverSQLite
	}
	// plain go-sql-driver DSNs (user:pass@tcp(host)/db) are not URLs
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		if strings.Contains(raw, "@tcp(") || strings.Contains(raw, "@unix(") {
			return DriverMySQL
		}
		return ""
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return DriverPostgres
	case "mysql":
		return DriverMySQL
	case "sqlite", "sqlite3":
		return DriverSQLite
	}
	return ""
}

// DSN returns the connection string for driver.
func (c *Config) DSN(driver string) string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	switch driver {
	case DriverMySQL:
		return c.MySQLDSN()
	case DriverPostgres:
		return c.PostgresDSN()
	case DriverSQLite:
		if c.Database.Name != "" {
			return c.Database.Name
		}
		return "pcap-insight.db"
	}
	return ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// MinioEnabled reports whether captures should be archived.
func (c *Config) MinioEnabled() bool { return c.Minio.Endpoint != "" }

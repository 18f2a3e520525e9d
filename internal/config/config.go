package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the server.
type Config struct {
	// HTTP Server
	Port string

	// Database
	DBPath string

	// Web assets
	TemplateDir string
	StaticDir   string

	// Cookies
	SecureCookie bool

	// Optional first user, created at startup when the users table is empty
	BootstrapUser     string
	BootstrapEmail    string
	BootstrapPassword string
}

// Load reads configuration from the environment, loading a .env file first
// when one exists next to the binary.
func Load() *Config {
	// Missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "finance.db"),

		TemplateDir: getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:   getEnv("STATIC_DIR", "web/static"),

		SecureCookie: getEnvBool("SECURE_COOKIE", false),

		BootstrapUser:     getEnv("BOOTSTRAP_USER", ""),
		BootstrapEmail:    getEnv("BOOTSTRAP_EMAIL", ""),
		BootstrapPassword: getEnv("BOOTSTRAP_PASSWORD", ""),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.TemplateDir == "" {
		errs = append(errs, "template directory cannot be empty")
	}

	// A bootstrap user needs all three fields
	hasAny := c.BootstrapUser != "" || c.BootstrapEmail != "" || c.BootstrapPassword != ""
	hasAll := c.BootstrapUser != "" && c.BootstrapEmail != "" && c.BootstrapPassword != ""
	if hasAny && !hasAll {
		errs = append(errs, "BOOTSTRAP_USER, BOOTSTRAP_EMAIL and BOOTSTRAP_PASSWORD must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

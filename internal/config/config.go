package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "muster.yml"

// Environment variables that override values from the file.
const (
	EnvRedisURL = "MUSTER_REDIS_URL"
	EnvInstance = "MUSTER_INSTANCE"
)

// Defaults applied by Validate.
const (
	DefaultInstance          = "default"
	DefaultRedisURL          = "redis://localhost:6379"
	DefaultRole              = "Author"
	DefaultFallbackTimeoutMs = 4000
	DefaultExpiryHours       = 168
)

// DefaultRoles is the catalogue seeded when the config lists none.
var DefaultRoles = []string{"Administrator", "Editor", "Author", "Contributor"}

// MusterConfig represents the top-level muster.yml configuration
type MusterConfig struct {
	Version    string        `yaml:"version"`
	Instance   string        `yaml:"instance,omitempty"`  // Redis namespace, default "default"
	OwnerEmail string        `yaml:"owner_email"`         // Sender address, never invited
	RedisURL   string        `yaml:"redis_url,omitempty"` // Default redis://localhost:6379
	Invite     *InviteConfig `yaml:"invite,omitempty"`
	Roles      []string      `yaml:"roles,omitempty"` // Seeded by `muster roles seed`
}

// InviteConfig controls how invitations are submitted
type InviteConfig struct {
	Role              string `yaml:"role,omitempty"`                // Role granted to invitees, default "Author"
	FallbackTimeoutMs *int   `yaml:"fallback_timeout_ms,omitempty"` // Max wait before moving on, default 4000
	ExpiryHours       *int   `yaml:"expiry_hours,omitempty"`        // Invite lifetime, default 168
}

// FallbackTimeout returns the configured fallback deadline.
func (c *MusterConfig) FallbackTimeout() time.Duration {
	return time.Duration(*c.Invite.FallbackTimeoutMs) * time.Millisecond
}

// InviteTTL returns how long an invite stays valid.
func (c *MusterConfig) InviteTTL() time.Duration {
	return time.Duration(*c.Invite.ExpiryHours) * time.Hour
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted optional fields.
func (c *MusterConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: owner email
	if strings.TrimSpace(c.OwnerEmail) == "" {
		return fmt.Errorf("owner_email is required")
	}
	c.OwnerEmail = strings.TrimSpace(c.OwnerEmail)

	if c.Instance == "" {
		c.Instance = DefaultInstance
	}
	if strings.ContainsAny(c.Instance, ": ") {
		return fmt.Errorf("invalid instance name '%s': must not contain ':' or spaces", c.Instance)
	}

	if c.RedisURL == "" {
		c.RedisURL = DefaultRedisURL
	}
	if !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("invalid redis_url '%s': must start with redis:// or rediss://", c.RedisURL)
	}

	if c.Invite == nil {
		c.Invite = &InviteConfig{}
	}
	if err := c.Invite.Validate(); err != nil {
		return err
	}

	if len(c.Roles) == 0 {
		c.Roles = append([]string(nil), DefaultRoles...)
	}
	seen := make(map[string]bool, len(c.Roles))
	for _, role := range c.Roles {
		if strings.TrimSpace(role) == "" {
			return fmt.Errorf("roles must not contain empty names")
		}
		if seen[role] {
			return fmt.Errorf("duplicate role '%s'", role)
		}
		seen[role] = true
	}

	return nil
}

// Validate applies defaults and checks invite settings
func (i *InviteConfig) Validate() error {
	if i.Role == "" {
		i.Role = DefaultRole
	}

	if i.FallbackTimeoutMs == nil {
		timeout := DefaultFallbackTimeoutMs
		i.FallbackTimeoutMs = &timeout
	}
	if *i.FallbackTimeoutMs <= 0 {
		return fmt.Errorf("invite.fallback_timeout_ms must be > 0, got %d", *i.FallbackTimeoutMs)
	}

	if i.ExpiryHours == nil {
		hours := DefaultExpiryHours
		i.ExpiryHours = &hours
	}
	if *i.ExpiryHours <= 0 {
		return fmt.Errorf("invite.expiry_hours must be > 0, got %d", *i.ExpiryHours)
	}

	return nil
}

// applyEnv overrides file values with environment variables
func (c *MusterConfig) applyEnv() {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv(EnvInstance); v != "" {
		c.Instance = v
	}
}

// Load reads muster.yml from the specified path, applies environment
// overrides and validates the result
func Load(path string) (*MusterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config MusterConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Marshal renders the configuration as YAML
func (c *MusterConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

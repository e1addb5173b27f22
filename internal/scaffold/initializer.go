// Package scaffold creates a starter muster.yml.
package scaffold

import (
	"fmt"
	"os"

	"github.com/dyluth/muster/internal/config"
)

const header = `# Muster configuration.
# Environment overrides: ` + config.EnvRedisURL + `, ` + config.EnvInstance + `
`

// Options describes the file to generate. Empty fields take config defaults.
type Options struct {
	Path       string
	OwnerEmail string
	Instance   string
	RedisURL   string
	Role       string
}

// Initialize writes a config file built from opts. An existing file is only
// replaced when force is set. The written file is loaded back to check it.
func Initialize(opts Options, force bool) (*config.MusterConfig, error) {
	if opts.Path == "" {
		opts.Path = config.DefaultFileName
	}

	if !force {
		if err := CheckExisting(opts.Path); err != nil {
			return nil, err
		}
	}

	cfg := &config.MusterConfig{
		Version:    "1.0",
		Instance:   opts.Instance,
		OwnerEmail: opts.OwnerEmail,
		RedisURL:   opts.RedisURL,
		Invite:     &config.InviteConfig{Role: opts.Role},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(opts.Path, append([]byte(header), data...), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", opts.Path, err)
	}

	if _, err := config.Load(opts.Path); err != nil {
		return nil, fmt.Errorf("created %s is invalid: %w", opts.Path, err)
	}

	return cfg, nil
}

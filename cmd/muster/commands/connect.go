package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/muster/internal/config"
	"github.com/dyluth/muster/internal/printer"
	"github.com/dyluth/muster/pkg/blackboard"
)

// loadConfig reads the config file named by --config.
func loadConfig() (*config.MusterConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, printer.Error(
				"muster.yml not found",
				fmt.Sprintf("No configuration file at %s.", configPath),
				[]string{
					"Create muster.yml with at least:\n  version: \"1.0\"\n  owner_email: you@example.com",
					"Point at another file:\n  muster --config path/to/muster.yml <command>",
				},
			)
		}
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s and try again.", configPath)},
		)
	}
	return cfg, nil
}

// connect opens and pings the blackboard described by cfg.
func connect(ctx context.Context, cfg *config.MusterConfig) (*blackboard.Client, error) {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client, err := blackboard.NewClient(redisOpts, cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create blackboard client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.RedisURL),
			map[string]string{"Instance": cfg.Instance},
			[]string{
				"Check that Redis is running and reachable.",
				fmt.Sprintf("Override the address:\n  %s=redis://host:6379 muster <command>", config.EnvRedisURL),
			},
		)
	}

	return client, nil
}

// setup loads config and connects in one step.
func setup(ctx context.Context) (*config.MusterConfig, *blackboard.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

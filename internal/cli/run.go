package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/lineup/internal/config"
	"github.com/aretw0/lineup/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
)

// Override changes one configuration value, usually from a command-line flag.
type Override func(*config.Config)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	LogJSON    bool
	Overrides  []Override

	// In and Out default to the standard streams.
	In  *os.File
	Out *os.File
}

func (o RunOptions) streams() (*os.File, *os.File) {
	in, out := o.In, o.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return in, out
}

// LoadConfig reads the config file and applies overrides on top of it.
func LoadConfig(path string, overrides ...Override) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Execute handles the run command logic.
func Execute(opts RunOptions) error {
	cfg, err := LoadConfig(opts.ConfigPath, opts.Overrides...)
	if err != nil {
		return err
	}
	return RunSession(cfg, opts)
}

// Push appends lines to the Redis list a remote session reads from.
func Push(ctx context.Context, cfg config.Config, lines []string) error {
	if !cfg.Redis.Enabled() {
		return errors.New("push needs a redis url (--redis-url or redis.url)")
	}
	o, err := backend.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	client := backend.NewClient(o)
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return redis.Push(ctx, client, cfg.Redis.Key, lines...)
}

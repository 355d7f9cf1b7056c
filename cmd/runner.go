package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/repositories"
	"github.com/desertthunder/songs/internal/shared"
	"github.com/urfave/cli/v3"
)

// RepositoryOpener connects to the configured storage backend.
type RepositoryOpener func(ctx context.Context, conf *shared.Config) (models.SongRepository, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	output    io.Writer
	open      RepositoryOpener
	lookupEnv func(string) (string, bool)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Logger    *log.Logger
	Output    io.Writer
	Open      RepositoryOpener
	LookupEnv func(string) (string, bool)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Open == nil {
		opts.Open = repositories.Open
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	return &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		output:    opts.Output,
		open:      opts.Open,
		lookupEnv: opts.LookupEnv,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, seedCommand, exportCommand, setupCommand, migrateCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig builds the effective configuration for a command: the file named by --config (or the runner's base
// config when the file does not exist), then environment overrides, then --seed/--addr flags.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	configPath := cmd.String("config")

	config := *r.config
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = *loaded
		r.logger.Debug("loaded config", "path", configPath)
	}

	config.ApplyEnv(r.lookupEnv)

	if seed := cmd.String("seed"); seed != "" {
		config.Seed.Path = seed
	}

	if addr := cmd.String("addr"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: --addr %q: %v", shared.ErrInvalidArgument, addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("%w: --addr port %q", shared.ErrInvalidArgument, port)
		}
		config.Server.Host, config.Server.Port = host, p
	}

	if err := shared.ConfigureLogger(r.logger, config.Log); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

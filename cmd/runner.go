package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytq/internal/cache"
	"github.com/desertthunder/ytq/internal/queue"
	"github.com/desertthunder/ytq/internal/repositories"
	"github.com/desertthunder/ytq/internal/services"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/desertthunder/ytq/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     services.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     services.Client // defaults to yt-dlp built from Config
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, probeCommand, getCommand, cacheCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	shared.SetLogLevel(l, shared.ParseLogLevel(r.config.Log.Level))
	r.logger = l
}

// loadConfig reads the file named by --config when it exists. A missing file keeps the defaults.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	return nil
}

func (r *Runner) services() services.Client {
	if r.client == nil {
		r.client = services.NewYTDLP(services.YTDLPOpts{
			Binary:    r.config.Probe.Binary,
			ExtraArgs: r.config.Probe.ExtraArgs,
			Logger:    r.logger,
		})
	}
	return r.client
}

// openDatabase opens the migrated cache database.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.ResolveCachePath()
	db, err := shared.OpenMigrated(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCache, path, err)
	}
	return db, nil
}

// session is the set of components one queue run needs.
type session struct {
	orch    *queue.Orchestrator
	cache   *cache.Cache
	db      *sql.DB
	history *repositories.HistoryRepository
	logger  *log.Logger
}

func (s *session) Close() {
	if s.orch.Pending() {
		s.logger.Info("cancelling running tasks")
	}
	s.orch.Shutdown()
	s.cache.Close()
	if s.db != nil {
		s.db.Close()
	}
}

// newSession wires the cache, limiter, registry, bus and client into an orchestrator.
//
// A database that cannot be opened degrades to a memory-only cache without history.
func (r *Runner) newSession(ctx context.Context) *session {
	s := &session{logger: r.logger}

	var store cache.Store
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("cache unavailable, continuing without persistence", "error", err)
	} else {
		s.db = db
		store = repositories.NewProbeCacheRepository(db)
		s.history = repositories.NewHistoryRepository(db)
	}

	s.cache = cache.New(store, cache.Options{TTL: r.config.CacheTTL(), Logger: r.logger})

	opts := queue.Options{
		Client:        r.services(),
		Cache:         s.cache,
		Limiter:       tasks.NewLimiter(r.config.Downloads.MaxConcurrent),
		Registry:      tasks.NewRegistry(),
		Bus:           tasks.NewBus(),
		Logger:        r.logger,
		OutputDir:     r.config.ResolveOutputDir(),
		DetectTimeout: r.config.DetectTimeout(),
		ProgressRate:  r.config.UI.ProgressRate,
	}
	if s.history != nil {
		opts.History = s.history
	}
	s.orch = queue.New(ctx, opts)
	return s
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// urlArg returns the first positional argument.
func urlArg(cmd *cli.Command) (string, error) {
	url := cmd.StringArg("url")
	if url == "" {
		url = cmd.Args().First()
	}
	if url == "" {
		return "", fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if err := services.ValidateURL(url); err != nil {
		return "", err
	}
	return url, nil
}

func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled)
}

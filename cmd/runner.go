package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tagx/internal/enrich"
	"github.com/desertthunder/tagx/internal/genres"
	"github.com/desertthunder/tagx/internal/metrics"
	"github.com/desertthunder/tagx/internal/pipeline"
	"github.com/desertthunder/tagx/internal/services"
	"github.com/desertthunder/tagx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	sources    []services.MusicAPI
	limiter    *pipeline.RateLimiter
	breaker    *pipeline.CircuitBreaker
	queue      *pipeline.TaskQueue
	tracker    *metrics.Tracker
	aggregator *genres.Aggregator
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Sources    []services.MusicAPI
	HTTPClient *http.Client
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	cfg := opts.Config
	limiter := pipeline.NewRateLimiter()
	limiter.CreateLimit("spotify", cfg.Sources.Spotify.RateCapacity, cfg.Sources.Spotify.RateFill)
	limiter.CreateLimit("lastfm", cfg.Sources.LastFM.RateCapacity, cfg.Sources.LastFM.RateFill)
	limiter.CreateLimit("deezer", cfg.Sources.Deezer.RateCapacity, cfg.Sources.Deezer.RateFill)

	breaker := pipeline.NewCircuitBreaker(
		cfg.Pipeline.FailureThreshold,
		time.Duration(cfg.Pipeline.ResetTimeout*float64(time.Second)),
	)

	aggregator := genres.NewAggregator(genres.Options{
		MaxTags:       cfg.Aggregator.MaxTags,
		MaxGenres:     cfg.Aggregator.MaxGenres,
		Confidence:    cfg.Aggregator.Confidence,
		MinConfidence: cfg.Aggregator.MinConfidence,
	}, opts.Logger)

	return &Runner{
		config:     cfg,
		sources:    opts.Sources,
		limiter:    limiter,
		breaker:    breaker,
		queue:      pipeline.NewTaskQueue(breaker),
		tracker:    metrics.NewTracker(cfg.Metrics.Path, opts.Logger),
		aggregator: aggregator,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when redirecting logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// applyRunOverrides folds per-invocation flag values into the runner's
// pipeline and aggregator settings so they take precedence over config.toml.
func (r *Runner) applyRunOverrides(cmd *cli.Command) {
	if cmd.IsSet("workers") {
		r.config.Pipeline.Workers = cmd.Int("workers")
	}

	opts := genres.Options{
		MaxTags:       r.config.Aggregator.MaxTags,
		MaxGenres:     r.config.Aggregator.MaxGenres,
		Confidence:    r.config.Aggregator.Confidence,
		MinConfidence: r.config.Aggregator.MinConfidence,
	}
	rebuild := false
	if cmd.IsSet("confidence") {
		opts.Confidence = cmd.Float("confidence")
		rebuild = true
	}
	if cmd.IsSet("max-genres") {
		opts.MaxGenres = cmd.Int("max-genres")
		rebuild = true
	}
	if rebuild {
		r.aggregator = genres.NewAggregator(opts, r.logger)
	}
}

// newEngine assembles the enrichment engine from the runner's collaborators.
// The cache is optional; commands that want cached lookups pass a LookupCache.
func (r *Runner) newEngine(cache services.Cache, writer enrich.TagWriter) *enrich.Engine {
	return enrich.NewEngine(enrich.EngineOpts{
		Sources:    r.sources,
		Limiter:    r.limiter,
		Queue:      r.queue,
		Tracker:    r.tracker,
		Aggregator: r.aggregator,
		Cache:      cache,
		Writer:     writer,
		Logger:     r.logger,
		Workers:    r.config.Pipeline.Workers,
		SubmitRPS:  r.config.Pipeline.SubmitRPS,
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, enrichCommand, sourcesCommand, metricsCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tagx/internal/genres"
	"github.com/desertthunder/tagx/internal/metrics"
	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/pipeline"
	"github.com/desertthunder/tagx/internal/services"
	"github.com/desertthunder/tagx/internal/shared"
	"golang.org/x/time/rate"
)

// TrackResult is the outcome of enriching one track.
type TrackResult struct {
	Track        models.Track
	Genres       []string // Final genres, ordered by descending confidence
	FloorUsed    float64  // Confidence floor that produced the selection
	Relaxed      bool     // Whether the configured threshold was relaxed
	Year         string
	Album        string
	CacheHits    int   // Sources answered from the lookup cache
	SourceErrors int   // Sources that failed (partial failures are tolerated)
	WriteErr     error // Tag-writer failure, reported but not fatal
	Err          error // Task-level failure (all sources failed or cancelled)
}

// RunResult aggregates a full enrichment run. A run never aborts wholesale on
// individual failures: FailedCount plus the per-track errors describe the
// partial outcome.
type RunResult struct {
	Results        []TrackResult
	TotalTracks    int
	SuccessCount   int
	FailedCount    int
	CancelledCount int
	CacheHits      int
	RelaxedCount   int
}

// EngineOpts contains the collaborators and tuning knobs for an Engine.
type EngineOpts struct {
	Sources    []services.MusicAPI
	Limiter    *pipeline.RateLimiter
	Queue      *pipeline.TaskQueue
	Tracker    *metrics.Tracker
	Aggregator *genres.Aggregator
	Cache      services.Cache // optional
	Writer     TagWriter      // optional
	Logger     *log.Logger
	Workers    int     // concurrent task workers (default 4, capped at 16)
	SubmitRPS  float64 // task submission pacing (default 5/s)
}

// Engine runs enrichment tasks through the pipeline. One Engine owns one
// breaker+queue pair (an isolation domain); construct one Engine per source
// when per-source breaker isolation is needed.
type Engine struct {
	sources    []services.MusicAPI
	limiter    *pipeline.RateLimiter
	queue      *pipeline.TaskQueue
	tracker    *metrics.Tracker
	aggregator *genres.Aggregator
	cache      services.Cache
	writer     TagWriter
	logger     *log.Logger
	workers    int
	submitRPS  float64

	// poll is the idle worker/monitor tick; shortened in tests.
	poll time.Duration
}

// NewEngine creates an Engine with the provided collaborators.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 16 {
		opts.Workers = 16
	}
	if opts.SubmitRPS <= 0 {
		opts.SubmitRPS = 5.0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Aggregator == nil {
		opts.Aggregator = genres.NewAggregator(genres.Options{}, opts.Logger)
	}

	return &Engine{
		sources:    opts.Sources,
		limiter:    opts.Limiter,
		queue:      opts.Queue,
		tracker:    opts.Tracker,
		aggregator: opts.Aggregator,
		cache:      opts.Cache,
		writer:     opts.Writer,
		logger:     opts.Logger,
		workers:    opts.Workers,
		submitRPS:  opts.SubmitRPS,
		poll:       100 * time.Millisecond,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run enriches tracks through the pipeline and returns the partial-tolerant
// result. The error return covers configuration problems only; per-track
// failures land in the result.
func (e *Engine) Run(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) (*RunResult, error) {
	if len(e.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", shared.ErrSourceUnavailable)
	}
	if e.limiter == nil || e.queue == nil || e.tracker == nil {
		return nil, fmt.Errorf("%w: engine missing pipeline collaborators", shared.ErrInvalidConfig)
	}

	result := &RunResult{TotalTracks: len(tracks)}
	if len(tracks) == 0 {
		return result, nil
	}

	total := len(tracks)
	var mu sync.Mutex // guards result and taskIDs
	var taskIDs []string
	var tasksWG sync.WaitGroup
	var cancelled int64
	submitDone := &atomic.Bool{}

	drained := make(chan struct{})
	monitorStop := make(chan struct{})

	// Hold the waiter open until submission finishes, so an early completion
	// cannot close drained while tasks are still being added.
	tasksWG.Add(1)
	go func() {
		tasksWG.Wait()
		close(drained)
	}()

	record := func(res *TrackResult) {
		mu.Lock()
		defer mu.Unlock()
		result.Results = append(result.Results, *res)
		if res.Err != nil {
			result.FailedCount++
		} else {
			result.SuccessCount++
		}
		result.CacheHits += res.CacheHits
		if res.Relaxed {
			result.RelaxedCount++
		}
	}

	// cancelPending transitions every still-PENDING task to CANCELLED and
	// releases its waitgroup slot.
	cancelPending := func() {
		mu.Lock()
		ids := make([]string, len(taskIDs))
		copy(ids, taskIDs)
		mu.Unlock()

		for _, id := range ids {
			if e.queue.Cancel(id) {
				atomic.AddInt64(&cancelled, 1)
				tasksWG.Done()
			}
		}
	}

	var workersWG sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			e.workLoop(ctx, progress, drained, record, &tasksWG)
		}()
	}

	// Monitor: cancels pending work when the context dies, and breaks the
	// stall where the breaker is open with nothing running and therefore no
	// success left that could ever close it.
	go func() {
		ticker := time.NewTicker(e.poll)
		defer ticker.Stop()
		for {
			select {
			case <-monitorStop:
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					cancelPending()
					continue
				}
				if !submitDone.Load() || e.queue.Breaker().Allow() {
					continue
				}
				counts := e.queue.Counts()
				if counts[pipeline.TaskRunning] == 0 && e.queue.Pending() > 0 {
					e.logger.Warnf("circuit breaker open with no in-flight work; cancelling %d pending tasks", e.queue.Pending())
					e.sendProgress(progress, breakerPauseUpdate(e.queue.Pending()))
					cancelPending()
				}
			}
		}
	}()

	// Paced submission (the breaker may pause dispatch, but submission keeps
	// its own gentle rhythm so a recovering source is not flooded).
	sub := rate.NewLimiter(rate.Limit(e.submitRPS), 1)
	for i, track := range tracks {
		if ctx.Err() != nil {
			break
		}
		if err := sub.Wait(ctx); err != nil {
			break
		}

		tasksWG.Add(1)
		task := e.queue.Add("", e.enrichWork(track, i+1, total, progress))
		mu.Lock()
		taskIDs = append(taskIDs, task.ID)
		mu.Unlock()
		e.sendProgress(progress, submitUpdate(i+1, total, track))
	}
	submitDone.Store(true)
	tasksWG.Done() // release the submission hold

	<-drained
	close(monitorStop)
	workersWG.Wait()

	mu.Lock()
	result.CancelledCount = int(atomic.LoadInt64(&cancelled))
	submitted := len(taskIDs)
	mu.Unlock()

	// Tracks never submitted because the context died count as cancelled too.
	result.CancelledCount += total - submitted

	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

// workLoop pulls tasks until the queue is drained. A nil dispatch means
// either an empty FIFO or an open breaker; both are waited out with a poll
// tick rather than a busy spin.
func (e *Engine) workLoop(ctx context.Context, progress chan<- ProgressUpdate, drained <-chan struct{}, record func(*TrackResult), tasksWG *sync.WaitGroup) {
	for {
		select {
		case <-drained:
			return
		default:
		}

		task := e.queue.Next()
		if task == nil {
			if !e.queue.Breaker().Allow() && e.queue.Pending() > 0 {
				e.sendProgress(progress, breakerPauseUpdate(e.queue.Pending()))
			}
			select {
			case <-drained:
				return
			case <-time.After(e.poll):
			}
			continue
		}

		res, err := task.Work(ctx)
		e.queue.Complete(task, res, err)

		if tr, ok := res.(*TrackResult); ok {
			tr.Err = err
			record(tr)
		}
		tasksWG.Done()
	}
}

// enrichWork builds the task body for one track: per-source rate-limited
// lookups, metrics and breaker reporting, aggregation, tag writing. The body
// catches all source errors itself; it returns a non-nil error only when the
// whole track failed (every source errored or the run was cancelled).
func (e *Engine) enrichWork(track models.Track, step, total int, progress chan<- ProgressUpdate) pipeline.WorkFunc {
	return func(ctx context.Context) (any, error) {
		res := &TrackResult{Track: track}
		raw := make(map[string]float64)
		var sourceErrs []error

		for _, src := range e.sources {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			e.sendProgress(progress, lookupUpdate(step, total, track, src.Name()))

			info, fromCache, err := e.lookupOne(ctx, src, track)
			if err != nil {
				sourceErrs = append(sourceErrs, err)
				e.logger.Debugf("lookup failed for %s - %s: %v", track.Artist, track.Title, err)
				continue
			}
			if fromCache {
				res.CacheHits++
			}

			for _, g := range info.Genres {
				if g.Confidence > raw[g.Name] {
					raw[g.Name] = g.Confidence
				}
			}
			if res.Year == "" {
				res.Year = info.Year
			}
			if res.Album == "" {
				res.Album = info.Album
			}
		}
		res.SourceErrors = len(sourceErrs)

		if len(sourceErrs) == len(e.sources) {
			err := fmt.Errorf("%w: all %d sources failed: %v", shared.ErrSourceUnavailable, len(e.sources), errors.Join(sourceErrs...))
			e.sendProgress(progress, failedUpdate(step, total, track, err))
			return res, err
		}

		agg := e.aggregator.Reduce(raw)
		res.Genres = agg.Genres
		res.FloorUsed = agg.FloorUsed
		res.Relaxed = agg.Relaxed

		if e.writer != nil && len(res.Genres) > 0 && track.Path != "" {
			e.sendProgress(progress, writeTagsUpdate(step, total, track.Path))
			info := &models.TrackInfo{Artist: track.Artist, Title: track.Title, Album: res.Album, Year: res.Year}
			if err := e.writer.WriteTags(track.Path, res.Genres, info); err != nil {
				res.WriteErr = err
				e.logger.Warnf("tag write failed for %s: %v", track.Path, err)
			}
		}

		e.sendProgress(progress, aggregateUpdate(step, total, track, res))
		return res, nil
	}
}

// lookupOne resolves one (source, track) pair: cache first (skipping the rate
// limiter entirely on a hit), then a rate-limited live call with its outcome
// recorded in the metrics tracker.
func (e *Engine) lookupOne(ctx context.Context, src services.MusicAPI, track models.Track) (*models.TrackInfo, bool, error) {
	key := services.CacheKey(src.Name(), track.Artist, track.Title)
	if e.cache != nil {
		if info, ok := e.cache.Get(key); ok {
			return info, true, nil
		}
	}

	// Probe without blocking first so rate-limit pressure is visible in the
	// metrics even though the call ultimately waits its turn.
	rateLimited := false
	if !e.limiter.Acquire(ctx, src.Name(), 1, false) {
		rateLimited = true
		if !e.limiter.Acquire(ctx, src.Name(), 1, true) {
			return nil, false, fmt.Errorf("%w: %s", shared.ErrRateLimited, src.Name())
		}
	}

	start := time.Now()
	info, err := src.Lookup(ctx, track.Artist, track.Title)
	e.tracker.RecordCall(src.Name(), err == nil, time.Since(start), rateLimited)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", src.Name(), err)
	}

	if e.cache != nil {
		if err := e.cache.Set(key, info); err != nil {
			e.logger.Warnf("failed to cache lookup for %s: %v", key, err)
		}
	}
	return info, false, nil
}

// Lookup enriches a single artist/title pair synchronously, outside the task
// queue. Used by the one-shot CLI command.
func (e *Engine) Lookup(ctx context.Context, artist, title string) (*TrackResult, error) {
	if len(e.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", shared.ErrSourceUnavailable)
	}

	track := models.Track{Artist: artist, Title: title}
	work := e.enrichWork(track, 1, 1, nil)

	res, err := work(ctx)
	tr, _ := res.(*TrackResult)
	if tr != nil {
		tr.Err = err
	}
	if err != nil {
		return tr, err
	}
	return tr, nil
}

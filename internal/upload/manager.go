package upload

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/design-review/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when work is submitted to a closed tracker.
	ErrClosed = errors.New("upload tracker closed")
	// ErrNotFound is returned for files the tracker does not know.
	ErrNotFound = errors.New("tracked file not found")
)

// errRemoved stops a run whose file was removed by the user.
var errRemoved = errors.New("file removed")

// Event carries a snapshot of a file after a state change.
type Event struct {
	File models.TrackedFile `json:"file"`
}

// Tracker drives tracked files through uploading, processing and completed.
// Each file runs in its own goroutine bound to the context passed to Start.
type Tracker struct {
	files  map[string]*job
	subs   map[*Subscription]struct{}
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup

	rngMu  sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

type job struct {
	file   models.TrackedFile
	cancel context.CancelFunc
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRand makes progress steps deterministic.
func WithRand(r *rand.Rand) Option {
	return func(t *Tracker) { t.rng = r }
}

// WithLogger sets the tracker logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a new upload tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		files:  make(map[string]*job),
		subs:   make(map[*Subscription]struct{}),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start registers files and begins advancing them with the given preset.
// Files without an ID get one. The returned slice holds the initial state.
func (t *Tracker) Start(ctx context.Context, p Preset, files ...models.TrackedFile) ([]models.TrackedFile, error) {
	p = p.normalize()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}

	started := make([]models.TrackedFile, 0, len(files))
	for _, f := range files {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = time.Now()
		}
		f.Status = models.FileStatusUploading
		f.Progress = 0
		f.CompletedAt = nil
		f.Error = ""

		runCtx, cancel := context.WithCancel(ctx)
		t.files[f.ID] = &job{file: f, cancel: cancel}
		started = append(started, f)

		t.wg.Add(1)
		go t.run(runCtx, f.ID, p)
	}
	t.mu.Unlock()

	return started, nil
}

// Get retrieves a tracked file by ID.
func (t *Tracker) Get(id string) (models.TrackedFile, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.files[id]
	if !ok {
		return models.TrackedFile{}, false
	}
	return j.file, true
}

// Lookup returns the current state of the given files in the given order,
// skipping IDs that are no longer tracked.
func (t *Tracker) Lookup(ids []string) []models.TrackedFile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.TrackedFile, 0, len(ids))
	for _, id := range ids {
		if j, ok := t.files[id]; ok {
			out = append(out, j.file)
		}
	}
	return out
}

// Remove cancels a file's run and forgets it.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	j, ok := t.files[id]
	if ok {
		delete(t.files, id)
	}
	t.mu.Unlock()

	if ok {
		j.cancel()
		t.logger.Debug("tracked file removed", zap.String("file", shortID(id)))
	}
	return ok
}

// Wait blocks until the file reaches a terminal status or ctx is done.
func (t *Tracker) Wait(ctx context.Context, id string) (models.TrackedFile, error) {
	sub := t.Subscribe(16)
	defer sub.Close()

	f, ok := t.Get(id)
	if !ok {
		return models.TrackedFile{}, ErrNotFound
	}
	if f.Status.Terminal() {
		return f, nil
	}

	for {
		select {
		case <-ctx.Done():
			return models.TrackedFile{}, ctx.Err()
		case <-t.done:
			return models.TrackedFile{}, ErrClosed
		case ev := <-sub.C:
			if ev.File.ID == id && ev.File.Status.Terminal() {
				return ev.File, nil
			}
		}
	}
}

// CleanupOld removes finished files that completed before now-maxAge.
func (t *Tracker) CleanupOld(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, j := range t.files {
		if j.file.Status.Terminal() && j.file.CompletedAt != nil && j.file.CompletedAt.Before(cutoff) {
			delete(t.files, id)
			removed++
		}
	}
	return removed
}

// Close cancels all runs and waits for their goroutines to exit.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.done)
	for _, j := range t.files {
		j.cancel()
	}
	t.mu.Unlock()

	t.wg.Wait()
}

// run advances one file through both phases.
func (t *Tracker) run(ctx context.Context, id string, p Preset) {
	defer t.wg.Done()

	t.mu.RLock()
	j, ok := t.files[id]
	t.mu.RUnlock()
	if !ok {
		return
	}
	defer j.cancel()

	t.logger.Info("upload started", zap.String("file", shortID(id)), zap.String("preset", p.Name))
	t.notify(id)

	uploadStep := func() float64 {
		if p.FixedStep > 0 {
			return p.FixedStep
		}
		return t.randomStep(p.MaxStep)
	}
	if err := t.advance(ctx, id, 0, p.Tick, uploadStep); err != nil {
		t.fail(id, err)
		return
	}

	switch p.Processing {
	case ProcessingRamp:
		if !t.update(id, models.FileStatusProcessing, 0) {
			return
		}
		rampStep := func() float64 { return p.ProcessingStep }
		if err := t.advance(ctx, id, 0, p.ProcessingTick, rampStep); err != nil {
			t.fail(id, err)
			return
		}
	default:
		if !t.update(id, models.FileStatusProcessing, 100) {
			return
		}
		if p.ProcessingDelay > 0 {
			timer := time.NewTimer(p.ProcessingDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				t.fail(id, ctx.Err())
				return
			case <-timer.C:
			}
		}
	}

	t.complete(id, p.Finish)
}

// advance adds step() to progress on every tick until it reaches 100.
func (t *Tracker) advance(ctx context.Context, id string, progress float64, tick time.Duration, step func() float64) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			progress += step()
			if progress > 100 {
				progress = 100
			}
			if !t.update(id, "", progress) {
				return errRemoved
			}
			if progress >= 100 {
				return nil
			}
		}
	}
}

// update sets progress, and status when non-empty (thread-safe). It reports
// false once the file is no longer tracked.
func (t *Tracker) update(id string, status models.FileStatus, progress float64) bool {
	t.mu.Lock()
	j, ok := t.files[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	if status != "" {
		j.file.Status = status
	}
	j.file.Progress = progress
	t.mu.Unlock()

	t.notify(id)
	return true
}

// complete marks the file completed (thread-safe).
func (t *Tracker) complete(id string, finish func(*models.TrackedFile)) {
	t.mu.Lock()
	j, ok := t.files[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	j.file.Status = models.FileStatusCompleted
	j.file.Progress = 100
	now := time.Now()
	j.file.CompletedAt = &now
	if finish != nil {
		finish(&j.file)
	}
	t.mu.Unlock()

	t.logger.Info("upload complete", zap.String("file", shortID(id)))
	t.notify(id)
}

// fail marks the file as failed (thread-safe). Removed files stay removed.
func (t *Tracker) fail(id string, err error) {
	if errors.Is(err, errRemoved) {
		return
	}

	t.mu.Lock()
	j, ok := t.files[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	j.file.Status = models.FileStatusError
	j.file.Error = err.Error()
	now := time.Now()
	j.file.CompletedAt = &now
	t.mu.Unlock()

	t.logger.Warn("upload failed", zap.String("file", shortID(id)), zap.Error(err))
	t.notify(id)
}

func (t *Tracker) notify(id string) {
	f, ok := t.Get(id)
	if !ok {
		return
	}
	t.publish(Event{File: f})
}

func (t *Tracker) randomStep(max float64) float64 {
	if t.rng == nil {
		return rand.Float64() * max
	}
	t.rngMu.Lock()
	defer t.rngMu.Unlock()
	return t.rng.Float64() * max
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

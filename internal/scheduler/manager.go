package scheduler

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"rapidphoto/internal/config"
	"rapidphoto/internal/logging"
	"rapidphoto/internal/notifications"
	"rapidphoto/internal/photocache"
	"rapidphoto/internal/queue"
	"rapidphoto/internal/transfer"
)

const (
	// dispatchPollInterval bounds the wait when all transfer slots are busy.
	dispatchPollInterval = 100 * time.Millisecond
	// errorRetryInterval bounds the wait after a queue scan error.
	errorRetryInterval = time.Second
	// backoffJitterMax is added to retry backoff so simultaneously failing
	// items do not resynchronize their attempts.
	backoffJitterMax = 250 * time.Millisecond
	// requeueWriteAttempts bounds retries of the requeue write before the
	// item is marked failed instead of left stranded in uploading.
	requeueWriteAttempts = 3
)

// Manager coordinates queue processing: it owns the dispatch loop, the
// in-flight tracking set, and the pause flag.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	client   transfer.Client
	cache    *photocache.Cache
	notifier notifications.Service
	logger   *slog.Logger

	maxConcurrent int
	maxRetries    int
	retryDelay    time.Duration

	// wake is buffered with capacity one: signaling an already-signaled
	// scheduler coalesces into a single loop pass.
	wake chan struct{}

	mu       sync.Mutex
	running  bool
	paused   bool
	cancel   func()
	active   int
	inFlight map[string]struct{}

	batchMu     sync.Mutex
	batchActive bool
	batchStart  time.Time

	loopWG     sync.WaitGroup
	transferWG sync.WaitGroup
}

// New constructs a scheduler manager.
func New(cfg *config.Config, store *queue.Store, client transfer.Client, cache *photocache.Cache, notifier notifications.Service, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		client:        client,
		cache:         cache,
		notifier:      notifier,
		logger:        logging.NewComponentLogger(logger, "scheduler"),
		maxConcurrent: cfg.Uploads.MaxConcurrent,
		maxRetries:    cfg.Uploads.MaxRetries,
		retryDelay:    time.Duration(cfg.Uploads.RetryDelayMS) * time.Millisecond,
		wake:          make(chan struct{}, 1),
		inFlight:      make(map[string]struct{}),
	}
}

// Wake nudges the dispatch loop without blocking. A signal sent while one
// is already pending is dropped; the loop drains the queue on every pass.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Paused reports whether new dispatch is currently gated.
func (m *Manager) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// ActiveTransfers returns the number of transfers currently in flight.
func (m *Manager) ActiveTransfers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) claim(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[id]; busy {
		return false
	}
	m.inFlight[id] = struct{}{}
	return true
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.inFlight, id)
	m.mu.Unlock()
}

func (m *Manager) startTransfer(id string) {
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
}

func (m *Manager) finishTransfer(id string) {
	m.mu.Lock()
	m.active--
	delete(m.inFlight, id)
	m.mu.Unlock()
	m.Wake()
}

func (m *Manager) inFlightSnapshot() map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[string]struct{}, len(m.inFlight))
	for id := range m.inFlight {
		snapshot[id] = struct{}{}
	}
	return snapshot
}

func (m *Manager) backoffDelay(retryCount int) time.Duration {
	delay := m.retryDelay * time.Duration(retryCount+1)
	if backoffJitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(backoffJitterMax)))
	}
	return delay
}

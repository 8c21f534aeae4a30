package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"rapidphoto/internal/config"
	"rapidphoto/internal/logging"
	"rapidphoto/internal/notifications"
	"rapidphoto/internal/queue"
	"rapidphoto/internal/scheduler"
)

// Daemon owns the background upload scheduler and enforces single-instance
// execution with a file lock.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *queue.Store
	scheduler *scheduler.Manager
	notifier  notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	Paused          bool
	ActiveTransfers int
	Queue           queue.Stats
	QueueDBPath     string
	LockFilePath    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, sched *scheduler.Manager, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || sched == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, scheduler, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		scheduler: sched,
		notifier:  notifier,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the scheduler. Interrupted
// items dropped when the store was opened are reported here, once.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rapidphoto daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.scheduler.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start scheduler: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)

	if discarded := d.store.DiscardedOnOpen(); discarded > 0 {
		d.logger.Warn("interrupted uploads discarded on startup",
			logging.Int64("count", discarded),
			logging.String(logging.FieldEventType, "interrupted_discarded"),
			logging.String(logging.FieldErrorHint, "re-add the files to upload them"))
		if err := d.notifier.NotifyInterruptedDiscarded(ctx, discarded); err != nil {
			d.logger.Debug("interrupted-discard notification failed", logging.Error(err))
		}
	}

	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Scheduler exposes the queue control surface.
func (d *Daemon) Scheduler() *scheduler.Manager {
	return d.scheduler
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Running:         d.running.Load(),
		Paused:          d.scheduler.Paused(),
		ActiveTransfers: d.scheduler.ActiveTransfers(),
		Queue:           stats,
		QueueDBPath:     d.cfg.QueueDBPath(),
		LockFilePath:    d.lockPath,
	}, nil
}

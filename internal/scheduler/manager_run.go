package scheduler

import (
	"context"
	"errors"
	"time"

	"rapidphoto/internal/logging"
)

// Start launches the dispatch loop. It returns an error when the scheduler
// is already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.loopWG.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	m.Wake()
	return nil
}

// Stop terminates the dispatch loop and waits for in-flight transfers to
// finish their current attempt.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.loopWG.Wait()
	m.transferWG.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.loopWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.wake:
		}
		m.dispatch(ctx)
	}
}

// dispatch launches transfers until the queue has no eligible item, the
// scheduler is paused, or the context ends. It only blocks on the bounded
// saturation poll, never on I/O.
func (m *Manager) dispatch(ctx context.Context) {
	for {
		if ctx.Err() != nil || m.Paused() {
			return
		}

		if m.ActiveTransfers() >= m.maxConcurrent {
			select {
			case <-ctx.Done():
				return
			case <-time.After(dispatchPollInterval):
			}
			continue
		}

		item, err := m.store.NextQueued(ctx, m.inFlightSnapshot())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("failed to fetch next queue item",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorRetryInterval):
			}
			continue
		}
		if item == nil {
			// Idle until a state change signals the wake channel.
			return
		}

		// Claim before the status write so a second scan between the
		// write and its visibility cannot pick the same item.
		if !m.claim(item.ID) {
			continue
		}
		started, err := m.store.MarkUploading(ctx, item.ID)
		if err != nil || !started {
			// Item was removed, paused, or already picked up; drop the claim.
			m.release(item.ID)
			if err != nil && ctx.Err() == nil {
				m.logger.Error("failed to transition item to uploading",
					logging.String(logging.FieldItemID, item.ID),
					logging.Error(err))
			}
			continue
		}

		m.startTransfer(item.ID)
		m.transferWG.Add(1)
		go func() {
			defer m.transferWG.Done()
			defer m.finishTransfer(item.ID)
			m.runTransfer(ctx, item)
		}()
	}
}

// checkBatchCompletion notifies once when no items remain queued or in flight.
func (m *Manager) checkBatchCompletion(ctx context.Context) {
	m.batchMu.Lock()
	active := m.batchActive
	start := m.batchStart
	m.batchMu.Unlock()
	if !active {
		return
	}

	stats, err := m.store.Stats(ctx)
	if err != nil {
		return
	}
	if stats.Queued+stats.Uploading+stats.Confirming+stats.Paused > 0 {
		return
	}

	m.batchMu.Lock()
	if !m.batchActive {
		m.batchMu.Unlock()
		return
	}
	m.batchActive = false
	m.batchMu.Unlock()

	if err := m.notifier.NotifyBatchCompleted(ctx, stats.Complete, stats.Failed, time.Since(start)); err != nil {
		m.logger.Debug("batch completion notification failed", logging.Error(err))
	}
	m.logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("complete", stats.Complete),
		logging.Int("failed", stats.Failed),
		logging.Duration("batch_duration", time.Since(start)))
}

func (m *Manager) markBatchActive() {
	m.batchMu.Lock()
	if !m.batchActive {
		m.batchActive = true
		m.batchStart = time.Now()
	}
	m.batchMu.Unlock()
}

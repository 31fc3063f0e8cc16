package sched

import (
	"context"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskwatch/internal/notify"
	"github.com/nhle/taskwatch/internal/store"
)

// ReminderScanner periodically fires the unsent reminders of live
// tasks. Unlike the date-check scan, de-duplication is per reminder
// instance: a reminder marked sent is terminal and never fires again.
type ReminderScanner struct {
	store    store.Store
	ledger   *notify.Ledger
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu       gosync.Mutex
	running  bool
	inFlight bool
	stopCh   chan struct{}
}

// NewReminderScanner creates a reminder scanner.
func NewReminderScanner(
	s store.Store,
	ledger *notify.Ledger,
	interval time.Duration,
	log zerolog.Logger,
) *ReminderScanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &ReminderScanner{
		store:    s,
		ledger:   ledger,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Start launches the reminder loop: one immediate pass, then one per
// interval. Calling Start on a running scanner is a no-op.
func (s *ReminderScanner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go s.loop(stopCh)
}

// Stop halts the reminder loop; any in-flight pass finishes naturally.
// Stop is idempotent.
func (s *ReminderScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// loop runs passes until stopCh closes.
func (s *ReminderScanner) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runScan()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.runScan()
		}
	}
}

// runScan executes one pass and logs its outcome.
func (s *ReminderScanner) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	fired, err := s.ScanOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reminder scan failed")
		return
	}
	if fired > 0 {
		s.log.Info().Int("reminders", fired).Msg("reminder scan complete")
	}
}

// ScanOnce runs a single reminder pass and returns how many reminders
// fired. Each due reminder notifies the task's assignee (falling back
// to the creator) and is then marked sent. A reminder whose
// notification could not be written stays unsent and retries on the
// next pass; a malformed reminder is logged and skipped.
func (s *ReminderScanner) ScanOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.log.Debug().Msg("reminder scan already in flight, skipping")
		return 0, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	now := s.now()
	fired := 0

	tasks, err := s.store.ListTasksWithUnsentReminders(ctx)
	if err != nil {
		return 0, err
	}

	for _, task := range tasks {
		for _, reminder := range task.Reminders {
			if reminder.Sent {
				continue
			}

			trigger, ok := reminder.TriggerAt(task.StartDate, task.EndDate)
			if !ok {
				s.log.Warn().Str("reminder_id", reminder.ID).Str("task_id", task.ID).
					Msg("reminder has no usable trigger, skipping")
				continue
			}
			if now.Before(trigger) {
				continue
			}

			if _, err := s.ledger.NotifyReminder(ctx, task, reminder, now); err != nil {
				s.log.Error().Err(err).Str("reminder_id", reminder.ID).
					Str("task_id", task.ID).Msg("sending reminder")
				continue
			}

			// Sent is terminal even when the notification was
			// preference-filtered: the reminder's moment has passed.
			if err := s.store.MarkReminderSent(ctx, reminder.ID, now); err != nil {
				s.log.Error().Err(err).Str("reminder_id", reminder.ID).
					Msg("marking reminder sent")
				continue
			}
			fired++
		}
	}

	return fired, nil
}

// Package sched contains the periodic engines that drive date-condition
// and reminder scans. Both follow the same shape: an immediate first
// pass, a fixed-cadence ticker, a single-flight guard so scans never
// overlap, and per-entity error isolation so one bad record never halts
// the rest of a pass.
package sched

import (
	"context"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskwatch/internal/check"
	"github.com/nhle/taskwatch/internal/notify"
	"github.com/nhle/taskwatch/internal/store"
)

// DefaultInterval is the scan cadence used when none is configured.
const DefaultInterval = 60 * time.Second

// ConfirmationGate reports whether a confirmation is currently open.
// Scans skip their pass entirely while one is.
type ConfirmationGate interface {
	Active() bool
}

// Scanner periodically evaluates the acting user's candidate tasks and
// projects for date conditions and records notifications for them.
type Scanner struct {
	store    store.Store
	ledger   *notify.Ledger
	gate     ConfirmationGate
	userID   string
	teamIDs  []string
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu        gosync.Mutex
	running   bool
	inFlight  bool
	stopCh    chan struct{}
	triggerCh chan struct{}
}

// NewScanner creates a date-check scanner for the acting user. gate may
// be nil when no confirmation workflow is attached.
func NewScanner(
	s store.Store,
	ledger *notify.Ledger,
	gate ConfirmationGate,
	userID string,
	teamIDs []string,
	interval time.Duration,
	log zerolog.Logger,
) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{
		store:     s,
		ledger:    ledger,
		gate:      gate,
		userID:    userID,
		teamIDs:   teamIDs,
		interval:  interval,
		log:       log,
		now:       time.Now,
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the scan loop: one immediate pass, then one per
// interval. Calling Start on a running scanner is a no-op.
func (s *Scanner) Start() {
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

// Stop halts the scan loop; any in-flight pass finishes naturally.
// Stop is idempotent.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Trigger requests an immediate pass outside the regular cadence.
func (s *Scanner) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// loop runs scans until stopCh closes.
func (s *Scanner) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runScan()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.runScan()
		case <-s.triggerCh:
			s.runScan()
		}
	}
}

// runScan executes one pass and logs its outcome.
func (s *Scanner) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	created, err := s.ScanOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("date-check scan failed")
		return
	}
	if created > 0 {
		s.log.Info().Int("notifications", created).Msg("date-check scan complete")
	}
}

// ScanOnce runs a single date-check pass and returns how many
// notifications were created. The pass is skipped (returning 0) when a
// previous pass is still in flight or a confirmation is active; the
// next tick simply retries. A failure on one entity is logged and the
// pass continues with the next.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.log.Debug().Msg("scan already in flight, skipping")
		return 0, nil
	}
	if s.gate != nil && s.gate.Active() {
		s.mu.Unlock()
		s.log.Debug().Msg("confirmation active, skipping scan")
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
	created := 0

	tasks, err := s.store.ListCandidateTasks(ctx, s.userID)
	if err != nil {
		return created, err
	}
	for _, task := range tasks {
		conds := check.EvaluateTask(task, now)
		if len(conds) == 0 {
			continue
		}

		recorded := 0
		for _, cond := range conds {
			id, err := s.ledger.RecordTaskCondition(ctx, task, cond.CheckType, s.userID, now)
			if err != nil {
				s.log.Error().Err(err).Str("task_id", task.ID).
					Str("check_type", cond.CheckType).Msg("recording task condition")
				continue
			}
			if id != "" {
				recorded++
			}
		}
		if recorded > 0 {
			if err := s.ledger.AdvanceTaskWatermark(ctx, task.ID, now); err != nil {
				s.log.Error().Err(err).Str("task_id", task.ID).Msg("advancing task watermark")
			}
		}
		created += recorded
	}

	projects, err := s.store.ListProjectsForUser(ctx, s.userID, s.teamIDs)
	if err != nil {
		return created, err
	}
	for _, project := range projects {
		conds := check.EvaluateProject(project, now)
		if len(conds) == 0 {
			continue
		}

		recorded := 0
		for _, cond := range conds {
			id, err := s.ledger.RecordProjectCondition(ctx, project, cond.CheckType, s.userID, now)
			if err != nil {
				s.log.Error().Err(err).Str("project_id", project.ID).
					Str("check_type", cond.CheckType).Msg("recording project condition")
				continue
			}
			if id != "" {
				recorded++
			}
		}
		if recorded > 0 {
			if err := s.ledger.AdvanceProjectWatermark(ctx, project.ID, now); err != nil {
				s.log.Error().Err(err).Str("project_id", project.ID).Msg("advancing project watermark")
			}
		}
		created += recorded
	}

	return created, nil
}

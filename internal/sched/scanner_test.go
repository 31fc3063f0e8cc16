package sched

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskwatch/internal/model"
	"github.com/nhle/taskwatch/internal/notify"
	"github.com/nhle/taskwatch/internal/store"
	"github.com/nhle/taskwatch/tests/testutil"
)

func strptr(s string) *string { return &s }

type staticGate bool

func (g staticGate) Active() bool { return bool(g) }

func newScanner(t *testing.T, userID string, teamIDs []string, gate ConfirmationGate) (*Scanner, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	ledger := notify.NewLedger(s, notify.NewFilter(s), zerolog.Nop())
	return NewScanner(s, ledger, gate, userID, teamIDs, 0, zerolog.Nop()), s
}

func at(s *Scanner, now time.Time) *Scanner {
	s.now = func() time.Time { return now }
	return s
}

func TestScanOnce_OverdueTaskScenario(t *testing.T) {
	// A not-started task with a whole-day start of 2024-01-01: scanning on
	// 2024-01-02 creates one notification and advances the watermark;
	// the same day creates nothing more; the next day creates one again.
	scanner, s := newScanner(t, "bob", nil, nil)
	ctx := context.Background()

	task := model.Task{
		ID:         "t1",
		Title:      "write report",
		Status:     model.StatusNotStarted,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC),
		CreatorID:  "alice",
		AssigneeID: strptr("bob"),
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	created, err := at(scanner, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 notification, got %d", created)
	}

	got, err := s.GetTaskByID(ctx, "t1")
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if got.DateCheckedAt == nil || got.DateCheckedAt.Day() != 2 {
		t.Fatalf("watermark must be set to the scan day, got %v", got.DateCheckedAt)
	}

	// Repeated scans the same day create nothing.
	for _, hh := range []int{11, 15, 23} {
		created, err = at(scanner, time.Date(2024, 1, 2, hh, 0, 0, 0, time.UTC)).ScanOnce(ctx)
		if err != nil {
			t.Fatalf("rescanning: %v", err)
		}
		if created != 0 {
			t.Fatalf("same-day rescan must create nothing, got %d", created)
		}
	}

	// The user never acted: the next day surfaces it once more.
	created, err = at(scanner, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("next-day scan: %v", err)
	}
	if created != 1 {
		t.Fatalf("next-day scan must create exactly one notification, got %d", created)
	}

	unread, err := s.GetUnreadNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("getting notifications: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 notifications total, got %d", len(unread))
	}
}

func TestScanOnce_BothTaskConditionsInOnePass(t *testing.T) {
	scanner, s := newScanner(t, "bob", nil, nil)
	ctx := context.Background()

	task := model.Task{
		ID:         "t1",
		Title:      "late task",
		Status:     model.StatusNotStarted,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 1, 2, 23, 59, 59, 0, time.UTC),
		CreatorID:  "alice",
		AssigneeID: strptr("bob"),
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	created, err := at(scanner, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected start and end notifications, got %d", created)
	}

	unread, err := s.GetUnreadNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("getting notifications: %v", err)
	}
	types := map[string]bool{}
	for _, n := range unread {
		types[n.CheckType] = true
	}
	if !types[model.CheckStartDate] || !types[model.CheckEndDate] {
		t.Fatalf("expected both check types, got %v", types)
	}
}

func TestScanOnce_ProjectCompletionThenEndOverdue(t *testing.T) {
	// A project at 100% with a whole-day end of 2024-01-05: a scan on the 4th
	// surfaces the completion prompt; a scan on the 6th (user never
	// acted) surfaces only the end condition.
	scanner, s := newScanner(t, "alice", nil, nil)
	ctx := context.Background()

	project := model.Project{
		ID:        "p1",
		Name:      "release",
		Status:    model.StatusInProgress,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 5, 23, 59, 59, 0, time.UTC),
		OwnerID:   "alice",
	}
	if err := s.CreateProject(ctx, project); err != nil {
		t.Fatalf("creating project: %v", err)
	}
	child := model.Task{
		ID:        "c1",
		Title:     "child",
		Status:    model.StatusCompleted,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 4, 23, 59, 59, 0, time.UTC),
		CreatorID: "alice",
		ProjectID: strptr("p1"),
	}
	if err := s.CreateTask(ctx, child); err != nil {
		t.Fatalf("creating child task: %v", err)
	}
	if _, err := s.RecomputeProjectCompletion(ctx, "p1"); err != nil {
		t.Fatalf("recomputing completion: %v", err)
	}

	created, err := at(scanner, time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 completion notification, got %d", created)
	}

	created, err = at(scanner, time.Date(2024, 1, 6, 0, 1, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 end-date notification, got %d", created)
	}

	unread, err := s.GetUnreadNotifications(ctx, "alice")
	if err != nil {
		t.Fatalf("getting notifications: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(unread))
	}
	// Newest first: the end-date notification, then the completion one.
	if unread[0].CheckType != model.CheckEndDate || unread[1].CheckType != model.CheckCompletion {
		t.Fatalf("unexpected check types: %s, %s", unread[0].CheckType, unread[1].CheckType)
	}
}

func TestScanOnce_SkipsWhileConfirmationActive(t *testing.T) {
	scanner, s := newScanner(t, "bob", nil, staticGate(true))
	ctx := context.Background()

	task := model.Task{
		ID:         "t1",
		Title:      "overdue",
		Status:     model.StatusNotStarted,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC),
		CreatorID:  "bob",
		AssigneeID: strptr("bob"),
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	created, err := at(scanner, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 0 {
		t.Fatalf("active confirmation must skip the scan, got %d", created)
	}

	got, err := s.GetTaskByID(ctx, "t1")
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if got.DateCheckedAt != nil {
		t.Fatalf("skipped scan must not touch the watermark")
	}
}

func TestScanOnce_SingleFlight(t *testing.T) {
	scanner, _ := newScanner(t, "bob", nil, nil)

	scanner.mu.Lock()
	scanner.inFlight = true
	scanner.mu.Unlock()

	created, err := scanner.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 0 {
		t.Fatalf("in-flight guard must skip the pass, got %d", created)
	}
}

func TestScanOnce_PreferenceSkipLeavesWatermarkUntouched(t *testing.T) {
	scanner, s := newScanner(t, "bob", nil, nil)
	ctx := context.Background()

	if err := s.SavePreferences(ctx, model.Preferences{
		UserID:     "bob",
		Categories: map[string]bool{model.CategoryDateCheck: false},
	}); err != nil {
		t.Fatalf("saving preferences: %v", err)
	}

	task := model.Task{
		ID:         "t1",
		Title:      "overdue",
		Status:     model.StatusNotStarted,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC),
		CreatorID:  "bob",
		AssigneeID: strptr("bob"),
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("creating task: %v", err)
	}

	created, err := at(scanner, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)).ScanOnce(ctx)
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if created != 0 {
		t.Fatalf("filtered scan must create nothing, got %d", created)
	}

	got, err := s.GetTaskByID(ctx, "t1")
	if err != nil {
		t.Fatalf("getting task: %v", err)
	}
	if got.DateCheckedAt != nil {
		t.Fatalf("creation is the only watermark-advancing event in a scan")
	}
}

func TestScannerStartStop_Idempotent(t *testing.T) {
	scanner, _ := newScanner(t, "bob", nil, nil)
	scanner.interval = time.Hour

	scanner.Start()
	scanner.Start()
	scanner.Stop()
	scanner.Stop()
}

package check

import (
	"testing"
	"time"

	"github.com/nhle/taskwatch/internal/model"
)

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func notStartedTask(start, end time.Time) model.Task {
	return model.Task{
		ID:        "t1",
		Title:     "task",
		Status:    model.StatusNotStarted,
		StartDate: start,
		EndDate:   end,
	}
}

func TestTaskStartOverdue_WholeDaySentinel(t *testing.T) {
	// Midnight start date marks a whole-day task: overdue from the
	// start of that calendar day, not before.
	task := notStartedTask(
		date(2024, 1, 2, 0, 0, 0),
		date(2024, 3, 1, 23, 59, 59),
	)

	if TaskHolds(task, model.CheckStartDate, date(2024, 1, 1, 23, 59, 0)) {
		t.Fatalf("whole-day start must not be overdue before its day begins")
	}
	if !TaskHolds(task, model.CheckStartDate, date(2024, 1, 2, 0, 0, 0)) {
		t.Fatalf("whole-day start must be overdue at its day's midnight")
	}
	if !TaskHolds(task, model.CheckStartDate, date(2024, 1, 2, 9, 30, 0)) {
		t.Fatalf("whole-day start must be overdue later that day")
	}
}

func TestTaskStartOverdue_TimedStart(t *testing.T) {
	task := notStartedTask(
		date(2024, 1, 2, 14, 30, 0),
		date(2024, 3, 1, 23, 59, 59),
	)

	if TaskHolds(task, model.CheckStartDate, date(2024, 1, 2, 14, 29, 59)) {
		t.Fatalf("timed start must not be overdue before its exact instant")
	}
	if !TaskHolds(task, model.CheckStartDate, date(2024, 1, 2, 14, 30, 0)) {
		t.Fatalf("timed start must be overdue at its exact instant")
	}
}

func TestTaskStartOverdue_OnlyWhenNotStarted(t *testing.T) {
	task := notStartedTask(
		date(2024, 1, 1, 0, 0, 0),
		date(2024, 3, 1, 23, 59, 59),
	)
	task.Status = model.StatusInProgress

	if TaskHolds(task, model.CheckStartDate, date(2024, 1, 5, 0, 0, 0)) {
		t.Fatalf("started task must not trigger a start condition")
	}
}

func TestTaskEndOverdue_WholeDaySentinel(t *testing.T) {
	// A 23:59:59 end date marks a whole-day deadline: overdue from the
	// next day's midnight, not before.
	task := notStartedTask(
		date(2024, 1, 1, 0, 0, 0),
		date(2024, 1, 5, 23, 59, 59),
	)
	task.Status = model.StatusInProgress

	if TaskHolds(task, model.CheckEndDate, date(2024, 1, 5, 23, 59, 59)) {
		t.Fatalf("whole-day end must not be overdue within its own day")
	}
	if !TaskHolds(task, model.CheckEndDate, date(2024, 1, 6, 0, 0, 0)) {
		t.Fatalf("whole-day end must be overdue at the next midnight")
	}
}

func TestTaskEndOverdue_TimedEnd(t *testing.T) {
	task := notStartedTask(
		date(2024, 1, 1, 0, 0, 0),
		date(2024, 1, 5, 17, 0, 0),
	)
	task.Status = model.StatusInProgress

	if TaskHolds(task, model.CheckEndDate, date(2024, 1, 5, 16, 59, 59)) {
		t.Fatalf("timed end must not be overdue before its exact instant")
	}
	if !TaskHolds(task, model.CheckEndDate, date(2024, 1, 5, 17, 0, 0)) {
		t.Fatalf("timed end must be overdue at its exact instant")
	}
}

func TestTaskEndOverdue_NotForCompletedTasks(t *testing.T) {
	task := notStartedTask(
		date(2024, 1, 1, 0, 0, 0),
		date(2024, 1, 5, 23, 59, 59),
	)
	task.Status = model.StatusCompleted

	if TaskHolds(task, model.CheckEndDate, date(2024, 2, 1, 0, 0, 0)) {
		t.Fatalf("completed task must not trigger an end condition")
	}
}

func TestEvaluateTask_BothConditionsSurfaced(t *testing.T) {
	task := notStartedTask(
		date(2024, 1, 1, 0, 0, 0),
		date(2024, 1, 2, 23, 59, 59),
	)

	conds := EvaluateTask(task, date(2024, 1, 10, 8, 0, 0))
	if len(conds) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conds))
	}
	if conds[0].CheckType != model.CheckStartDate {
		t.Fatalf("start condition must be surfaced first, got %s", conds[0].CheckType)
	}
	if conds[1].CheckType != model.CheckEndDate {
		t.Fatalf("expected end condition second, got %s", conds[1].CheckType)
	}
}

func TestEvaluateTask_DeletedTaskHasNoConditions(t *testing.T) {
	task := notStartedTask(
		date(2024, 1, 1, 0, 0, 0),
		date(2024, 1, 2, 23, 59, 59),
	)
	task.Deleted = true

	if conds := EvaluateTask(task, date(2024, 1, 10, 8, 0, 0)); len(conds) != 0 {
		t.Fatalf("deleted task must yield no conditions, got %d", len(conds))
	}
}

func TestEvaluateProject_CompletionReached(t *testing.T) {
	project := model.Project{
		ID:             "p1",
		Name:           "project",
		Status:         model.StatusInProgress,
		CompletionRate: 100,
		StartDate:      date(2024, 1, 1, 0, 0, 0),
		EndDate:        date(2024, 1, 5, 23, 59, 59),
	}

	conds := EvaluateProject(project, date(2024, 1, 4, 9, 0, 0))
	if len(conds) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(conds))
	}
	if conds[0].CheckType != model.CheckCompletion {
		t.Fatalf("expected completion condition, got %s", conds[0].CheckType)
	}
}

func TestEvaluateProject_EndOverdueDominatesCompletion(t *testing.T) {
	// A project both 100% done and past its end date surfaces only the
	// end condition, never the completion prompt.
	project := model.Project{
		ID:             "p1",
		Name:           "project",
		Status:         model.StatusInProgress,
		CompletionRate: 100,
		StartDate:      date(2024, 1, 1, 0, 0, 0),
		EndDate:        date(2024, 1, 5, 23, 59, 59),
	}

	conds := EvaluateProject(project, date(2024, 1, 6, 0, 1, 0))
	if len(conds) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(conds))
	}
	if conds[0].CheckType != model.CheckEndDate {
		t.Fatalf("end condition must dominate completion, got %s", conds[0].CheckType)
	}
}

func TestEvaluateProject_CompletedProjectIsQuiet(t *testing.T) {
	project := model.Project{
		ID:             "p1",
		Name:           "project",
		Status:         model.StatusCompleted,
		CompletionRate: 100,
		StartDate:      date(2024, 1, 1, 0, 0, 0),
		EndDate:        date(2024, 1, 5, 23, 59, 59),
	}

	if conds := EvaluateProject(project, date(2024, 2, 1, 0, 0, 0)); len(conds) != 0 {
		t.Fatalf("completed project must yield no conditions, got %d", len(conds))
	}
}

func TestEvaluateProject_PartialCompletionNotSurfaced(t *testing.T) {
	project := model.Project{
		ID:             "p1",
		Name:           "project",
		Status:         model.StatusInProgress,
		CompletionRate: 99,
		StartDate:      date(2024, 1, 1, 0, 0, 0),
		EndDate:        date(2024, 1, 5, 23, 59, 59),
	}

	if conds := EvaluateProject(project, date(2024, 1, 4, 9, 0, 0)); len(conds) != 0 {
		t.Fatalf("partially complete project must yield no conditions, got %d", len(conds))
	}
}

func TestSameDay(t *testing.T) {
	if !SameDay(date(2024, 1, 2, 0, 0, 1), date(2024, 1, 2, 23, 59, 59)) {
		t.Fatalf("instants on the same calendar day must match")
	}
	if SameDay(date(2024, 1, 2, 23, 59, 59), date(2024, 1, 3, 0, 0, 0)) {
		t.Fatalf("instants across a midnight boundary must not match")
	}
}

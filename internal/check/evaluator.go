// Package check evaluates date/status conditions on tasks and projects.
// Evaluation is pure: the same entity snapshot and instant always yield
// the same conditions. Conditions are transient; only the notifications
// they trigger are persisted.
package check

import (
	"time"

	"github.com/nhle/taskwatch/internal/model"
)

// EntityKind discriminates which entity class a condition refers to.
type EntityKind string

const (
	KindTask    EntityKind = "task"
	KindProject EntityKind = "project"
)

// Condition is a fact about an entity derived from its dates and
// status at a given instant.
type Condition struct {
	Entity    EntityKind
	EntityID  string
	CheckType string // model.Check* constant
}

// EvaluateTask returns the conditions currently holding for a task.
// A task can need both a start and an end confirmation at once; the
// start condition is listed first.
func EvaluateTask(t model.Task, now time.Time) []Condition {
	var conds []Condition
	if TaskHolds(t, model.CheckStartDate, now) {
		conds = append(conds, Condition{Entity: KindTask, EntityID: t.ID, CheckType: model.CheckStartDate})
	}
	if TaskHolds(t, model.CheckEndDate, now) {
		conds = append(conds, Condition{Entity: KindTask, EntityID: t.ID, CheckType: model.CheckEndDate})
	}
	return conds
}

// EvaluateProject returns the conditions currently holding for a
// project. An overdue end date dominates a completion prompt: a
// project that is both 100% done and past its end date surfaces only
// the end-date condition.
func EvaluateProject(p model.Project, now time.Time) []Condition {
	if ProjectHolds(p, model.CheckEndDate, now) {
		return []Condition{{Entity: KindProject, EntityID: p.ID, CheckType: model.CheckEndDate}}
	}
	if ProjectHolds(p, model.CheckCompletion, now) {
		return []Condition{{Entity: KindProject, EntityID: p.ID, CheckType: model.CheckCompletion}}
	}
	return nil
}

// TaskHolds reports whether a single check type currently holds for a
// task, independent of the date-check watermark.
func TaskHolds(t model.Task, checkType string, now time.Time) bool {
	if t.Deleted {
		return false
	}
	switch checkType {
	case model.CheckStartDate:
		return t.Status == model.StatusNotStarted && startOverdue(t.StartDate, now)
	case model.CheckEndDate:
		return (t.Status == model.StatusNotStarted || t.Status == model.StatusInProgress) &&
			endOverdue(t.EndDate, now)
	default:
		return false
	}
}

// ProjectHolds reports whether a single check type currently holds for
// a project, independent of the date-check watermark.
func ProjectHolds(p model.Project, checkType string, now time.Time) bool {
	if p.Deleted {
		return false
	}
	switch checkType {
	case model.CheckEndDate:
		return p.Status != model.StatusCompleted && endOverdue(p.EndDate, now)
	case model.CheckCompletion:
		return p.CompletionRate == 100 &&
			p.Status != model.StatusCompleted &&
			!endOverdue(p.EndDate, now)
	default:
		return false
	}
}

// startOverdue reports whether a start date lies in the past.
func startOverdue(start, now time.Time) bool {
	return !now.Before(startThreshold(start, now))
}

// endOverdue reports whether an end date lies in the past.
func endOverdue(end, now time.Time) bool {
	return !now.Before(endThreshold(end, now))
}

// startThreshold returns the instant from which a start date counts as
// overdue. A time-of-day of exactly 00:00:00 is the whole-day sentinel:
// such a start becomes overdue at the start of its calendar day rather
// than being treated as a timed deadline.
//
// The sentinel heuristic is deliberately kept behind this helper (and
// endThreshold) so a dedicated whole-day flag could replace it without
// touching callers.
func startThreshold(start, now time.Time) time.Time {
	start = start.In(now.Location())
	if h, m, sec := start.Clock(); h == 0 && m == 0 && sec == 0 {
		return startOfDay(start)
	}
	return start
}

// endThreshold returns the instant from which an end date counts as
// overdue. A time-of-day of exactly 23:59:59 is the whole-day sentinel
// for end dates: such an end becomes overdue at the start of the next
// calendar day.
func endThreshold(end, now time.Time) time.Time {
	end = end.In(now.Location())
	if h, m, sec := end.Clock(); h == 23 && m == 59 && sec == 59 {
		return startOfDay(end).AddDate(0, 0, 1)
	}
	return end
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day
// in b's location. It drives the per-day watermark comparison.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

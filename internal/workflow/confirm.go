// Package workflow drives the user-facing confirmation flow for
// surfaced date conditions. At most one confirmation is ever active:
// opening a second while one is pending is rejected, and every
// resolution path returns the machine to idle so the UI is never left
// blocked by a failed mutation.
package workflow

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskwatch/internal/check"
	"github.com/nhle/taskwatch/internal/model"
	"github.com/nhle/taskwatch/internal/notify"
	"github.com/nhle/taskwatch/internal/store"
)

// State is the confirmation machine's position.
type State int

const (
	StateIdle State = iota
	StateAwaitingUserAction
	StateResolving
)

// Resolution actions a user can take on a pending confirmation.
type Action string

const (
	// ActionStartTask moves a start-overdue task to in-progress, then
	// immediately re-checks its end date.
	ActionStartTask Action = "change_to_in_progress"

	// ActionChangeEndDate hands off to the external end-date editor.
	ActionChangeEndDate Action = "change_end_date"

	// ActionComplete marks the entity completed.
	ActionComplete Action = "complete"

	// ActionExtend hands a project off to the external end-date editor.
	ActionExtend Action = "extend"

	// ActionIgnore acknowledges the condition for today only; it will
	// surface again tomorrow.
	ActionIgnore Action = "ignore"
)

var (
	// ErrConfirmationActive is returned when a confirmation is already
	// pending and a second open is requested.
	ErrConfirmationActive = errors.New("a confirmation is already active")

	// ErrAlreadyHandled is returned when the condition no longer holds
	// by the time the confirmation is opened.
	ErrAlreadyHandled = errors.New("condition already handled")

	// ErrIncompleteTasks is returned when a project cannot be completed
	// because it still has incomplete child tasks.
	ErrIncompleteTasks = errors.New("project has incomplete tasks")

	// ErrNoActiveSession is returned when resolving with nothing open.
	ErrNoActiveSession = errors.New("no confirmation is active")

	// ErrNotificationWithoutCheck is returned when a notification that
	// carries no check type is used to open a confirmation.
	ErrNotificationWithoutCheck = errors.New("notification carries no check type")
)

// Event kinds emitted on the workflow's event channel.
type EventKind string

const (
	EventOpened   EventKind = "opened"
	EventResolved EventKind = "resolved"
	EventClosed   EventKind = "closed"
)

// Event is the workflow's UI-facing surface: one value per open,
// resolution, or dismissal.
type Event struct {
	Kind      EventKind
	Entity    check.EntityKind
	EntityID  string
	CheckType string
	Action    Action
}

// Prompt describes the single entity/condition presented to the user.
type Prompt struct {
	Entity    check.EntityKind
	CheckType string
	Task      *model.Task
	Project   *model.Project
}

// DateEditor is the external collaborator that owns interactive
// end-date editing. change_end_date and extend resolutions hand the
// entity off to it.
type DateEditor interface {
	EditTaskEndDate(ctx context.Context, t model.Task) error
	EditProjectEndDate(ctx context.Context, p model.Project) error
}

// session is the at-most-one active confirmation.
type session struct {
	entity    check.EntityKind
	checkType string
	task      *model.Task
	project   *model.Project
}

// Manager is the confirmation workflow state machine.
type Manager struct {
	store        store.Store
	ledger       *notify.Ledger
	editor       DateEditor
	actingUserID string
	log          zerolog.Logger
	now          func() time.Time

	mu      gosync.Mutex
	state   State
	session *session

	events chan Event
}

// NewManager creates a confirmation workflow for the acting user.
// editor may be nil, in which case change_end_date and extend
// resolutions acknowledge the condition without editing.
func NewManager(
	s store.Store,
	ledger *notify.Ledger,
	editor DateEditor,
	actingUserID string,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		store:        s,
		ledger:       ledger,
		editor:       editor,
		actingUserID: actingUserID,
		log:          log,
		now:          time.Now,
		events:       make(chan Event, 16),
	}
}

// Events returns the channel of workflow events consumed by the UI.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Active reports whether a confirmation is currently open or resolving.
// Scans consult this before creating new work.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != StateIdle
}

// State returns the machine's current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OpenNotification opens a confirmation from a date-check notification,
// marking it read. The notification must carry a check type.
func (m *Manager) OpenNotification(ctx context.Context, n model.Notification) (*Prompt, error) {
	if n.CheckType == "" {
		return nil, ErrNotificationWithoutCheck
	}

	if err := m.store.MarkNotificationRead(ctx, n.ID); err != nil {
		m.log.Error().Err(err).Str("notification_id", n.ID).Msg("marking notification read")
	}

	switch {
	case n.TaskID != nil:
		return m.Open(ctx, check.KindTask, *n.TaskID, n.CheckType)
	case n.ProjectID != nil:
		return m.Open(ctx, check.KindProject, *n.ProjectID, n.CheckType)
	default:
		return nil, fmt.Errorf("notification %s references no entity", n.ID)
	}
}

// Open starts a confirmation for one entity and check type. The entity
// is re-fetched and the condition re-evaluated first: if it no longer
// holds, Open reports ErrAlreadyHandled without entering
// AwaitingUserAction. A second open while one is pending is rejected
// with ErrConfirmationActive.
func (m *Manager) Open(
	ctx context.Context,
	entity check.EntityKind,
	entityID string,
	checkType string,
) (*Prompt, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil, ErrConfirmationActive
	}
	// Reserve the machine while the fresh fetch runs.
	m.state = StateResolving
	m.mu.Unlock()

	prompt, err := m.openLocked(ctx, entity, entityID, checkType)

	m.mu.Lock()
	if err != nil {
		m.state = StateIdle
		m.session = nil
		m.mu.Unlock()
		return nil, err
	}
	m.state = StateAwaitingUserAction
	m.mu.Unlock()

	m.emit(Event{Kind: EventOpened, Entity: entity, EntityID: entityID, CheckType: checkType})
	return prompt, nil
}

// openLocked re-fetches the entity, re-evaluates the condition, and
// installs the session. The machine is reserved by the caller.
func (m *Manager) openLocked(
	ctx context.Context,
	entity check.EntityKind,
	entityID string,
	checkType string,
) (*Prompt, error) {
	now := m.now()

	switch entity {
	case check.KindTask:
		task, err := m.store.GetTaskByID(ctx, entityID)
		if err != nil {
			return nil, fmt.Errorf("opening confirmation for task %s: %w", entityID, err)
		}
		// The watermark only gates notification creation, never whether
		// the condition still holds.
		if !check.TaskHolds(*task, checkType, now) {
			return nil, ErrAlreadyHandled
		}
		m.mu.Lock()
		m.session = &session{entity: entity, checkType: checkType, task: task}
		m.mu.Unlock()
		return &Prompt{Entity: entity, CheckType: checkType, Task: task}, nil

	case check.KindProject:
		project, err := m.store.GetProjectByID(ctx, entityID)
		if err != nil {
			return nil, fmt.Errorf("opening confirmation for project %s: %w", entityID, err)
		}
		if !check.ProjectHolds(*project, checkType, now) {
			return nil, ErrAlreadyHandled
		}
		m.mu.Lock()
		m.session = &session{entity: entity, checkType: checkType, project: project}
		m.mu.Unlock()
		return &Prompt{Entity: entity, CheckType: checkType, Project: project}, nil

	default:
		return nil, fmt.Errorf("unknown entity kind %q", entity)
	}
}

// Resolve applies the user's chosen action to the pending confirmation.
// When resolving a start condition uncovers a still-overdue end date,
// Resolve chains directly into a new confirmation for it and returns
// that prompt; otherwise it returns nil and the machine is idle again.
//
// ErrIncompleteTasks leaves the confirmation open so the user can pick
// another action. Any other failure is logged and the machine still
// returns to idle.
func (m *Manager) Resolve(ctx context.Context, action Action) (*Prompt, error) {
	m.mu.Lock()
	if m.state != StateAwaitingUserAction || m.session == nil {
		m.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	m.state = StateResolving
	s := m.session
	m.mu.Unlock()

	var (
		chained *Prompt
		err     error
	)
	defer func() {
		m.mu.Lock()
		switch {
		case m.session == nil:
			// A concurrent Close dismissed the confirmation while the
			// resolution ran; it owns the outcome.
			m.state = StateIdle
		case chained != nil:
			// A follow-up confirmation takes over the session.
			m.session = &session{
				entity:    chained.Entity,
				checkType: chained.CheckType,
				task:      chained.Task,
				project:   chained.Project,
			}
			m.state = StateAwaitingUserAction
		case errors.Is(err, ErrIncompleteTasks):
			// Validation failure: the user still owns the decision.
			m.state = StateAwaitingUserAction
		default:
			m.state = StateIdle
			m.session = nil
		}
		m.mu.Unlock()
	}()

	if s.entity == check.KindTask {
		chained, err = m.resolveTask(ctx, s, action)
	} else {
		err = m.resolveProject(ctx, s, action)
	}
	if err != nil {
		return nil, err
	}

	m.emit(Event{
		Kind:      EventResolved,
		Entity:    s.entity,
		EntityID:  s.entityID(),
		CheckType: s.checkType,
		Action:    action,
	})
	if chained != nil {
		m.emit(Event{
			Kind:      EventOpened,
			Entity:    chained.Entity,
			EntityID:  chained.Task.ID,
			CheckType: chained.CheckType,
		})
	}
	return chained, nil
}

// resolveTask applies a task resolution. The returned prompt is non-nil
// only when a start resolution chained into an end-date confirmation.
func (m *Manager) resolveTask(ctx context.Context, s *session, action Action) (*Prompt, error) {
	now := m.now()
	task := s.task

	switch {
	case s.checkType == model.CheckStartDate && action == ActionStartTask:
		if err := m.store.SetTaskStatus(ctx, task.ID, model.StatusInProgress); err != nil {
			m.log.Error().Err(err).Str("task_id", task.ID).Msg("starting task")
			return nil, nil
		}

		// Re-check the end date against the now-current state before
		// advancing; a still-overdue end chains into a new confirmation
		// with no intervening watermark write.
		fresh, err := m.store.GetTaskByID(ctx, task.ID)
		if err != nil {
			m.log.Error().Err(err).Str("task_id", task.ID).Msg("re-fetching task after start")
			return nil, nil
		}
		if check.TaskHolds(*fresh, model.CheckEndDate, now) {
			// The caller's deferred state update installs the session.
			return &Prompt{Entity: check.KindTask, CheckType: model.CheckEndDate, Task: fresh}, nil
		}

		m.advanceTaskWatermark(ctx, task.ID, now)
		return nil, nil

	case action == ActionChangeEndDate:
		if m.editor != nil {
			if err := m.editor.EditTaskEndDate(ctx, *task); err != nil {
				m.log.Error().Err(err).Str("task_id", task.ID).Msg("editing task end date")
			}
		}
		m.advanceTaskWatermark(ctx, task.ID, now)
		return nil, nil

	case s.checkType == model.CheckEndDate && action == ActionComplete:
		if err := m.store.SetTaskStatus(ctx, task.ID, model.StatusCompleted); err != nil {
			m.log.Error().Err(err).Str("task_id", task.ID).Msg("completing task")
			return nil, nil
		}
		if task.ProjectID != nil {
			if _, err := m.store.RecomputeProjectCompletion(ctx, *task.ProjectID); err != nil {
				m.log.Error().Err(err).Str("project_id", *task.ProjectID).
					Msg("recomputing project completion")
			}
		}
		m.advanceTaskWatermark(ctx, task.ID, now)
		return nil, nil

	default:
		// Ignore and any unrecognized action acknowledge the condition
		// for today.
		m.advanceTaskWatermark(ctx, task.ID, now)
		return nil, nil
	}
}

// resolveProject applies a project resolution.
func (m *Manager) resolveProject(ctx context.Context, s *session, action Action) error {
	now := m.now()
	project := s.project

	switch action {
	case ActionComplete:
		incomplete, err := m.store.CountIncompleteTasks(ctx, project.ID)
		if err != nil {
			m.log.Error().Err(err).Str("project_id", project.ID).Msg("counting incomplete tasks")
			return nil
		}
		if incomplete > 0 {
			return fmt.Errorf("completing project %s: %w", project.ID, ErrIncompleteTasks)
		}

		if err := m.store.SetProjectStatus(ctx, project.ID, model.StatusCompleted); err != nil {
			m.log.Error().Err(err).Str("project_id", project.ID).Msg("completing project")
			return nil
		}
		if project.TeamID != nil {
			message := fmt.Sprintf("Project %q was marked as completed.", project.Name)
			if _, err := m.ledger.NotifyTeam(ctx, *project.TeamID, m.actingUserID, &project.ID, message, now); err != nil {
				m.log.Error().Err(err).Str("project_id", project.ID).Msg("notifying team")
			}
		}
		m.advanceProjectWatermark(ctx, project.ID, now)
		return nil

	case ActionExtend, ActionChangeEndDate:
		if m.editor != nil {
			if err := m.editor.EditProjectEndDate(ctx, *project); err != nil {
				m.log.Error().Err(err).Str("project_id", project.ID).Msg("editing project end date")
			}
		}
		m.advanceProjectWatermark(ctx, project.ID, now)
		return nil

	default:
		// Ignore: acknowledge for today only; the condition surfaces
		// again tomorrow.
		m.advanceProjectWatermark(ctx, project.ID, now)
		return nil
	}
}

// Close dismisses the pending confirmation without an explicit action.
// If the entity is still in its pre-condition state the user is
// presumed to have seen and ignored it, so the watermark is advanced;
// if the state already changed through another path, nothing is
// written. The machine always returns to idle.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return nil
	}
	// Always reset the state, even with no session to dismiss: a stray
	// non-idle state must never outlive a Close.
	s := m.session
	m.state = StateIdle
	m.session = nil
	m.mu.Unlock()

	if s == nil {
		return nil
	}

	now := m.now()

	switch s.entity {
	case check.KindTask:
		fresh, err := m.store.GetTaskByID(ctx, s.task.ID)
		if err != nil {
			m.log.Error().Err(err).Str("task_id", s.task.ID).Msg("re-fetching task on dismiss")
		} else if check.TaskHolds(*fresh, s.checkType, now) {
			m.advanceTaskWatermark(ctx, fresh.ID, now)
		}
	case check.KindProject:
		fresh, err := m.store.GetProjectByID(ctx, s.project.ID)
		if err != nil {
			m.log.Error().Err(err).Str("project_id", s.project.ID).Msg("re-fetching project on dismiss")
		} else if check.ProjectHolds(*fresh, s.checkType, now) {
			m.advanceProjectWatermark(ctx, fresh.ID, now)
		}
	}

	m.emit(Event{Kind: EventClosed, Entity: s.entity, EntityID: s.entityID(), CheckType: s.checkType})
	return nil
}

// advanceTaskWatermark is a best-effort watermark write.
func (m *Manager) advanceTaskWatermark(ctx context.Context, taskID string, now time.Time) {
	if err := m.ledger.AdvanceTaskWatermark(ctx, taskID, now); err != nil {
		m.log.Error().Err(err).Str("task_id", taskID).Msg("advancing task watermark")
	}
}

// advanceProjectWatermark is a best-effort watermark write.
func (m *Manager) advanceProjectWatermark(ctx context.Context, projectID string, now time.Time) {
	if err := m.ledger.AdvanceProjectWatermark(ctx, projectID, now); err != nil {
		m.log.Error().Err(err).Str("project_id", projectID).Msg("advancing project watermark")
	}
}

// emit sends an event without blocking; a full channel drops the event
// rather than stalling the workflow.
func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

func (s *session) entityID() string {
	if s.task != nil {
		return s.task.ID
	}
	if s.project != nil {
		return s.project.ID
	}
	return ""
}

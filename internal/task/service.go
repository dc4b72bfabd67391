package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/audit"
	"github.com/frahmantamala/project-management/internal/core/events"
	"github.com/frahmantamala/project-management/internal/permission"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/frahmantamala/project-management/internal/task"

// Store is the per-task storage the engine mutates. Inside a unit of work every
// call shares one transaction.
type Store interface {
	Load(ctx context.Context, id int64) (*Task, error)
	// SaveWithLock persists lifecycle fields if the stored version still equals
	// t.Version, then bumps it. A stale version yields ErrStorageConflict.
	SaveWithLock(ctx context.Context, t *Task) error
	Create(ctx context.Context, t *Task) error
}

// AuditSink appends audit records durably.
type AuditSink interface {
	Record(ctx context.Context, rec *audit.Record) error
}

// UnitOfWork runs fn in one transaction. Returning an error from fn rolls back
// every write made through the given store and sink.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(store Store, sink AuditSink) error) error
}

// Reader serves queries outside the lifecycle transaction.
type Reader interface {
	GetByID(ctx context.Context, id int64) (*Task, error)
	ListOpenByProject(ctx context.Context, projectID int64, category Category) ([]*Task, error)
}

type ActorLoader interface {
	LoadActor(ctx context.Context, userID int64) (*permission.Actor, error)
}

// ProjectAccess gates project scoped reads and task creation.
type ProjectAccess interface {
	CheckAccess(ctx context.Context, actor *permission.Actor, projectID int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type TransitionRequest struct {
	TaskID   int64
	ActorID  int64
	Stage    string
	Category string
}

type TransitionResult struct {
	Task          *Task
	Clone         *Task
	PointsAwarded bool
	Changed       bool
	previous      previousState
}

type previousState struct {
	stage    Stage
	category Category
}

type Service struct {
	uow       UnitOfWork
	reader    Reader
	actors    ActorLoader
	projects  ProjectAccess
	publisher EventPublisher
	resolver  permission.Resolver
	cloner    *LineageCloner
	clock     Clock
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewService wires the lifecycle engine. publisher may be nil.
func NewService(uow UnitOfWork, reader Reader, actors ActorLoader, projects ProjectAccess, publisher EventPublisher, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		uow:       uow,
		reader:    reader,
		actors:    actors,
		projects:  projects,
		publisher: publisher,
		resolver:  permission.NewResolver(),
		cloner:    NewLineageCloner(clock),
		clock:     clock,
		tracer:    otel.Tracer(instrumentationName),
		logger:    logger,
	}
}

// RequestTransition moves a task to the requested stage and/or category. All
// writes (task row, audit rows, clones) commit together or not at all. A
// concurrent move of the same task makes this call fail with
// ErrStorageConflict; it is never retried here.
func (s *Service) RequestTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "task.RequestTransition", trace.WithAttributes(
		attribute.Int64("task.id", req.TaskID),
		attribute.Int64("actor.id", req.ActorID),
		attribute.String("task.requested_stage", req.Stage),
		attribute.String("task.requested_category", req.Category),
	))
	defer span.End()

	actor, err := s.actors.LoadActor(ctx, req.ActorID)
	if err != nil {
		s.logFailure("failed to load acting user", err, "user_id", req.ActorID)
		recordSpanError(span, err)
		return nil, err
	}

	var result *TransitionResult
	err = s.uow.Do(ctx, func(store Store, sink AuditSink) error {
		t, err := store.Load(ctx, req.TaskID)
		if err != nil {
			return err
		}
		result, err = s.transition(ctx, store, sink, t, actor, req)
		return err
	})
	if err != nil {
		s.logFailure("task transition failed", err,
			"task_id", req.TaskID,
			"actor_id", req.ActorID,
			"stage", req.Stage,
			"category", req.Category)
		recordSpanError(span, err)
		return nil, err
	}

	if !result.Changed {
		s.logger.Info("task transition was a no-op", "task_id", req.TaskID, "actor_id", req.ActorID)
		return result, nil
	}

	span.SetAttributes(
		attribute.String("task.stage", string(result.Task.Stage)),
		attribute.String("task.category", string(result.Task.Category)),
		attribute.Bool("task.points_awarded", result.PointsAwarded),
	)

	s.publishTransition(ctx, req.ActorID, result)

	attrs := []any{
		"task_id", result.Task.ID,
		"actor_id", req.ActorID,
		"stage", result.Task.Stage,
		"category", result.Task.Category,
		"points_awarded", result.PointsAwarded,
	}
	if result.Clone != nil {
		attrs = append(attrs, "clone_id", result.Clone.ID)
	}
	s.logger.Info("task moved successfully", attrs...)

	return result, nil
}

func (s *Service) transition(ctx context.Context, store Store, sink AuditSink, t *Task, actor *permission.Actor, req TransitionRequest) (*TransitionResult, error) {
	if err := Validate(t, req.Stage, req.Category); err != nil {
		return nil, err
	}

	prev := previousState{stage: t.Stage, category: t.Category}
	newCategory := t.Category
	if req.Category != "" {
		newCategory = Category(req.Category)
	}
	newStage := t.Stage
	if req.Stage != "" {
		newStage = Stage(req.Stage)
	}
	categoryChanged := newCategory != prev.category
	stageChanged := newStage != prev.stage

	if categoryChanged && !s.resolver.Resolve(actor, permission.MoveTaskCategories) {
		return nil, internal.ErrForbiddenCategoryMove
	}
	if stageChanged && !s.resolver.Resolve(actor, permission.MoveTaskStages) {
		return nil, internal.ErrForbiddenStageMove
	}
	if newStage == StageReject && !s.resolver.Resolve(actor, permission.RejectTesting) {
		return nil, internal.ErrForbiddenReject
	}

	result := &TransitionResult{Task: t, previous: prev}
	if !categoryChanged && !stageChanged {
		return result, nil
	}
	result.Changed = true

	now := s.clock.Now()
	t.Category = newCategory
	t.Stage = newStage
	t.applyDerivedDates(prev.stage, prev.category, now)
	t.UpdatedAt = now

	m, hasMilestone := milestone{}, false
	if stageChanged {
		m, hasMilestone = milestoneFor(t.Stage, t.Category)
	}
	if hasMilestone {
		if m.awardPoints {
			result.PointsAwarded = t.AwardPointsOnce()
		}
		if m.closeSource {
			t.IsClosed = true
		}
	}

	if err := store.SaveWithLock(ctx, t); err != nil {
		return nil, err
	}

	if err := sink.Record(ctx, s.newRecord(actor, audit.ActionStageChange, t.ID, moveDetail(t, prev), t.ProjectID, now)); err != nil {
		return nil, err
	}

	if !hasMilestone {
		return result, nil
	}

	target := t.ID
	var spec CloneSpec
	if m.successor != nil {
		spec = m.successor(t)
		clone, err := s.cloner.Clone(ctx, store, t, spec, actor.UserID)
		if err != nil {
			return nil, err
		}
		result.Clone = clone
		target = clone.ID
	}

	if err := sink.Record(ctx, s.newRecord(actor, m.action, target, m.detail(t, spec), t.ProjectID, now)); err != nil {
		return nil, err
	}

	return result, nil
}

func moveDetail(t *Task, prev previousState) string {
	var parts []string
	if t.Stage != prev.stage {
		parts = append(parts, fmt.Sprintf("Stage: %s → %s", prev.stage, t.Stage))
	}
	if t.Category != prev.category {
		parts = append(parts, fmt.Sprintf("Category: %s → %s", prev.category, t.Category))
	}
	return fmt.Sprintf("Task '%s' moved. %s", t.Title, strings.Join(parts, "; "))
}

func (s *Service) newRecord(actor *permission.Actor, action audit.Action, targetID int64, detail string, projectID *int64, now time.Time) *audit.Record {
	actorID := actor.UserID
	return &audit.Record{
		ActorID:    &actorID,
		Action:     action,
		TargetType: audit.TargetTask,
		TargetID:   targetID,
		Detail:     detail,
		ProjectID:  projectID,
		Timestamp:  now.UTC(),
	}
}

func (s *Service) publishTransition(ctx context.Context, actorID int64, result *TransitionResult) {
	if s.publisher == nil {
		return
	}

	t := result.Task
	evts := []events.Event{
		events.NewTaskTransitionedEvent(t.ID, actorID,
			string(result.previous.stage), string(t.Stage),
			string(result.previous.category), string(t.Category)),
	}
	if result.PointsAwarded {
		evts = append(evts, events.NewTaskPointsAwardedEvent(t.ID, string(t.Category), t.StoryPoints))
	}
	if result.Clone != nil {
		m, _ := milestoneFor(t.Stage, t.Category)
		evts = append(evts, events.NewTaskClonedEvent(t.ID, result.Clone.ID, string(result.Clone.Category), string(m.action)))
	}

	for _, e := range evts {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Error("failed to publish task event", "error", err, "event_type", e.EventType(), "task_id", t.ID)
		}
	}
}

// logFailure logs caller mistakes at warn and infrastructure faults at error.
func (s *Service) logFailure(msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < 500 {
		s.logger.Warn(msg, attrs...)
		return
	}
	s.logger.Error(msg, attrs...)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

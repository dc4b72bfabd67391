package telemetry

import (
	"context"

	"github.com/frahmantamala/project-management/internal/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TaskMetrics turns committed task events into counters.
type TaskMetrics struct {
	transitions metric.Int64Counter
	clones      metric.Int64Counter
	points      metric.Int64Counter
}

func NewTaskMetrics(meter metric.Meter) (*TaskMetrics, error) {
	transitions, err := meter.Int64Counter("pm.task.transitions",
		metric.WithDescription("Committed task transitions"),
	)
	if err != nil {
		return nil, err
	}
	clones, err := meter.Int64Counter("pm.task.clones",
		metric.WithDescription("Tasks created by milestone handling"),
	)
	if err != nil {
		return nil, err
	}
	points, err := meter.Int64Counter("pm.task.story_points_awarded",
		metric.WithDescription("Story points awarded on completion"),
	)
	if err != nil {
		return nil, err
	}
	return &TaskMetrics{transitions: transitions, clones: clones, points: points}, nil
}

// Register subscribes the counters to the bus.
func (m *TaskMetrics) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeTaskTransitioned, m.Handle)
	bus.Subscribe(events.EventTypeTaskCloned, m.Handle)
	bus.Subscribe(events.EventTypeTaskPointsAwarded, m.Handle)
}

func (m *TaskMetrics) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.TaskTransitionedEvent:
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("to_stage", e.ToStage),
			attribute.String("to_category", e.ToCategory),
		))
	case *events.TaskClonedEvent:
		m.clones.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", e.Category),
			attribute.String("reason", e.Reason),
		))
	case *events.TaskPointsAwardedEvent:
		m.points.Add(ctx, int64(e.StoryPoints), metric.WithAttributes(
			attribute.String("category", e.Category),
		))
	}
	return nil
}

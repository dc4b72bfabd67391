package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/project-management/internal/core/events"
	"github.com/frahmantamala/project-management/internal/telemetry"
	"github.com/frahmantamala/project-management/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Publish sample task events to check that bus subscribers run.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a sample task.transitioned event",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return publishSampleEvent(ctx, events.NewTaskTransitionedEvent(
			eventTaskID, eventActorID, eventFromStage, eventToStage, eventCategory, eventCategory,
		))
	},
}

var (
	eventTaskID    int64
	eventActorID   int64
	eventFromStage string
	eventToStage   string
	eventCategory  string
)

func publishSampleEvent(ctx context.Context, event *events.TaskTransitionedEvent) error {
	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)

	metrics, err := telemetry.NewTaskMetrics(telemetry.Meter(""))
	if err != nil {
		return err
	}
	metrics.Register(bus)

	received := 0
	bus.Subscribe(event.EventType(), func(ctx context.Context, e events.Event) error {
		received++
		lg.Info("sample handler received event",
			"event_id", e.EventID(),
			"event_type", e.EventType(),
			"payload", e.Payload())
		return nil
	})

	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	lg.Info("sample event published", "event_id", event.EventID(), "handlers_run", received)
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventTaskID, "task", 1, "task id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventActorID, "actor", 1, "actor id carried by the event")
	publishEventCmd.Flags().StringVar(&eventFromStage, "from", "IN_PROGRESS", "previous stage")
	publishEventCmd.Flags().StringVar(&eventToStage, "to", "DONE", "new stage")
	publishEventCmd.Flags().StringVar(&eventCategory, "category", "DEVELOPMENT", "task category")

	eventCmd.AddCommand(publishEventCmd)
}

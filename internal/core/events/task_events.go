package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTaskTransitioned  = "task.transitioned"
	EventTypeTaskCloned        = "task.cloned"
	EventTypeTaskPointsAwarded = "task.points_awarded"
)

// TaskTransitionedEvent is published after a move has committed.
type TaskTransitionedEvent struct {
	BaseEvent
	TaskID       int64  `json:"task_id"`
	ActorID      int64  `json:"actor_id"`
	FromStage    string `json:"from_stage"`
	ToStage      string `json:"to_stage"`
	FromCategory string `json:"from_category"`
	ToCategory   string `json:"to_category"`
}

func NewTaskTransitionedEvent(taskID, actorID int64, fromStage, toStage, fromCategory, toCategory string) *TaskTransitionedEvent {
	return &TaskTransitionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskTransitioned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"task_id":       taskID,
				"actor_id":      actorID,
				"from_stage":    fromStage,
				"to_stage":      toStage,
				"from_category": fromCategory,
				"to_category":   toCategory,
			},
		},
		TaskID:       taskID,
		ActorID:      actorID,
		FromStage:    fromStage,
		ToStage:      toStage,
		FromCategory: fromCategory,
		ToCategory:   toCategory,
	}
}

// TaskClonedEvent reports a successor created by a milestone. Reason is the
// audit action that accompanied it.
type TaskClonedEvent struct {
	BaseEvent
	SourceTaskID int64  `json:"source_task_id"`
	CloneTaskID  int64  `json:"clone_task_id"`
	Category     string `json:"category"`
	Reason       string `json:"reason"`
}

func NewTaskClonedEvent(sourceID, cloneID int64, category, reason string) *TaskClonedEvent {
	return &TaskClonedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskCloned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"source_task_id": sourceID,
				"clone_task_id":  cloneID,
				"category":       category,
				"reason":         reason,
			},
		},
		SourceTaskID: sourceID,
		CloneTaskID:  cloneID,
		Category:     category,
		Reason:       reason,
	}
}

type TaskPointsAwardedEvent struct {
	BaseEvent
	TaskID      int64  `json:"task_id"`
	Category    string `json:"category"`
	StoryPoints int    `json:"story_points"`
}

func NewTaskPointsAwardedEvent(taskID int64, category string, storyPoints int) *TaskPointsAwardedEvent {
	return &TaskPointsAwardedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskPointsAwarded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"task_id":      taskID,
				"category":     category,
				"story_points": storyPoints,
			},
		},
		TaskID:      taskID,
		Category:    category,
		StoryPoints: storyPoints,
	}
}

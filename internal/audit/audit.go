package audit

import (
	"time"

	auditDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/audit"
)

type Action string

const (
	ActionTaskCreated            Action = "TASK_CREATED"
	ActionStageChange            Action = "STAGE_CHANGE"
	ActionTaskClonedToTesting    Action = "TASK_CLONED_TO_TESTING"
	ActionTaskClonedToDeployment Action = "TASK_CLONED_TO_DEPLOYMENT"
	ActionDeploymentDone         Action = "DEPLOYMENT_DONE"
	ActionGeneralDone            Action = "GENERAL_DONE"
	ActionTestingRejected        Action = "TESTING_REJECTED"
)

// TargetTask is the target type of every record written by the task lifecycle.
const TargetTask = "TaskInstance"

// Record is an immutable audit entry. Once appended it is never edited.
type Record struct {
	ID         int64     `json:"id"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	Action     Action    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   int64     `json:"target_id"`
	Detail     string    `json:"detail"`
	ProjectID  *int64    `json:"project_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func ToDataModel(r *Record) *auditDatamodel.AuditLog {
	return &auditDatamodel.AuditLog{
		ID:         r.ID,
		ActorID:    r.ActorID,
		Action:     string(r.Action),
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		Detail:     r.Detail,
		ProjectID:  r.ProjectID,
		Timestamp:  r.Timestamp,
	}
}

func FromDataModel(m *auditDatamodel.AuditLog) *Record {
	return &Record{
		ID:         m.ID,
		ActorID:    m.ActorID,
		Action:     Action(m.Action),
		TargetType: m.TargetType,
		TargetID:   m.TargetID,
		Detail:     m.Detail,
		ProjectID:  m.ProjectID,
		Timestamp:  m.Timestamp,
	}
}

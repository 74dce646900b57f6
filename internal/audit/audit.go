package audit

import (
	"context"
	"time"

	auditDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/audit"
)

// Recorder is the append-only sink for administrative actions. Writes are
// fire-and-forget from the caller's perspective: implementations log their
// own failures and never return them into the calling operation.
type Recorder interface {
	Record(ctx context.Context, actorID int64, actorName, action, details string)
}

// Entry is the API shape of a log line.
type Entry struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func FromDataModel(e *auditDatamodel.LogEntry) Entry {
	return Entry{
		ID:        e.ID,
		ActorID:   e.ActorUserID,
		ActorName: e.ActorName,
		Action:    e.Action,
		Details:   e.Details,
		Timestamp: e.CreatedAt,
	}
}

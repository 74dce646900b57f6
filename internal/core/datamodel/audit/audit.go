package audit

import "time"

// LogEntry is an append-only record of an administrative action.
type LogEntry struct {
	ID          int64     `db:"id" gorm:"column:id;primaryKey"`
	ActorUserID int64     `db:"actor_user_id" gorm:"column:actor_user_id"`
	ActorName   string    `db:"actor_name" gorm:"column:actor_name"`
	Action      string    `db:"action" gorm:"column:action"`
	Details     string    `db:"details" gorm:"column:details"`
	CreatedAt   time.Time `db:"created_at" gorm:"column:created_at"`
}

func (LogEntry) TableName() string {
	return "audit_logs"
}

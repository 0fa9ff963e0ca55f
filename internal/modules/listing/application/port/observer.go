package port

import "time"

// Observer records list activity. Implemented by the metrics package.
type Observer interface {
	ObserveLoad(entity string, err error, elapsed time.Duration)
	ObserveMutation(entity, action string, err error)
}

// AuditEvent describes a settled mutation.
type AuditEvent struct {
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	At        time.Time `json:"at"`
}

// AuditSink receives settled mutations. Implementations must not block the caller for long.
type AuditSink interface {
	Record(event AuditEvent)
}

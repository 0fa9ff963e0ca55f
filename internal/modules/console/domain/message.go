package domain

import "time"

// Message is the envelope shared by websocket pushes and consumed kafka events.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Metadata keys used to target a message at one browser session or user.
const (
	MetaSessionID = "sessionId"
	MetaUserID    = "userId"
	MetaEntity    = "entity"
	MetaVersion   = "version"
)

// Target returns the session and user a message is addressed to. Empty means everyone.
func (m *Message) Target() (sessionID, userID string) {
	if m == nil || m.Metadata == nil {
		return "", ""
	}
	return m.Metadata[MetaSessionID], m.Metadata[MetaUserID]
}

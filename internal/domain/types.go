package domain

import "time"

// SessionID is supplied by the client and treated as an opaque, untrusted key.
type SessionID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Timestamp = time.Time

package domain

// Turn is one message unit in a conversation. Treat it as immutable.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// Session is the store's handle for one conversation. The turn sequence
// itself is owned by the SessionStore and only reachable through it.
type Session struct {
	ID        SessionID
	CreatedAt Timestamp
}

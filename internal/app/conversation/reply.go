package conversation

type ReplySource string

const (
	SourceGenerated ReplySource = "generated"
	SourceFallback  ReplySource = "fallback"
)

// Reply is what the orchestrator produced for one message. Both sources look
// the same to HTTP callers; Source and Reason exist for tests and logs.
type Reply struct {
	Text   string
	Source ReplySource
	// Reason is the upstream failure that forced a fallback. Nil when generated.
	Reason error
}

func Generated(text string) Reply {
	return Reply{Text: text, Source: SourceGenerated}
}

func Fallback(text string, reason error) Reply {
	return Reply{Text: text, Source: SourceFallback, Reason: reason}
}

func (r Reply) IsFallback() bool {
	return r.Source == SourceFallback
}

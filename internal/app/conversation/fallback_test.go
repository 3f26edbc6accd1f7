package conversation_test

import (
	"testing"

	"github.com/PabloGalante/voicebot/internal/app/conversation"
)

func TestFallbackSelect(t *testing.T) {
	table := conversation.DefaultFallbackTable()

	cases := []struct {
		text string
		want string
	}{
		{"Tell me your life story", "life story"},
		{"What's your #1 SUPERPOWER?", "superpower"},
		{"top 3 growth areas", "growth areas"},
		{"biggest misconception about you", "misconception"},
		{"how do you push your boundaries", "boundaries"},
		// first match wins: superpower comes before boundaries
		{"does your superpower have boundaries?", "superpower"},
		{"what's the weather like", "life story"},
		{"", "life story"},
	}

	for _, tc := range cases {
		got := table.Select(tc.text)
		if got.Keyword != tc.want {
			t.Errorf("Select(%q) = %q, want %q", tc.text, got.Keyword, tc.want)
		}
		if got.Reply == "" {
			t.Errorf("Select(%q) returned empty reply", tc.text)
		}
	}
}

func TestFallbackSelectIsStable(t *testing.T) {
	table := conversation.DefaultFallbackTable()
	first := table.Select("growth areas please")
	for i := 0; i < 100; i++ {
		if table.Select("growth areas please") != first {
			t.Fatal("selection changed between calls")
		}
	}
}

func TestCustomFallbackTable(t *testing.T) {
	table := conversation.FallbackTable{
		{Keyword: "hello", Reply: "hi"},
		{Keyword: "bye", Reply: "see you"},
	}
	if got := table.Select("ok BYE"); got.Reply != "see you" {
		t.Fatalf("unexpected reply %q", got.Reply)
	}
	if got := table.Select("nothing"); got.Reply != "hi" {
		t.Fatalf("expected first entry as default, got %q", got.Reply)
	}
	if got := (conversation.FallbackTable{}).Select("x"); got != (conversation.FallbackEntry{}) {
		t.Fatalf("empty table should return zero entry")
	}
}

package conversation

import "strings"

// FallbackEntry pairs a topic keyword with the canned reply it selects.
type FallbackEntry struct {
	Keyword string
	Reply   string
}

// FallbackTable is scanned in order; the first keyword contained in the
// user's text wins. Entry 0 doubles as the default, so order matters.
type FallbackTable []FallbackEntry

// DefaultFallbackTable returns the canned persona answers used whenever the
// language model cannot produce a reply.
func DefaultFallbackTable() FallbackTable {
	return FallbackTable{
		{
			Keyword: "life story",
			Reply:   "I'm someone who's always been curious about the world and passionate about learning. I grew up in a family that valued education and creativity, which shaped my love for problem-solving and helping others. Throughout my journey, I've discovered that my greatest strength lies in connecting with people and finding innovative solutions to complex challenges. I believe in continuous growth and making a positive impact wherever I can.",
		},
		{
			Keyword: "superpower",
			Reply:   "My #1 superpower is my ability to see connections where others might not. I have this knack for taking complex problems and breaking them down into manageable pieces, then finding creative solutions that work for everyone involved. It's like having a mental map that helps me navigate through chaos and bring clarity to confusing situations.",
		},
		{
			Keyword: "growth areas",
			Reply:   "The top 3 areas I'd like to grow in are: 1) Public speaking and communication - I want to become more confident and compelling when presenting ideas to larger groups. 2) Technical skills - I'm always eager to learn new technologies and stay current with the latest developments. 3) Leadership - I want to develop my ability to inspire and guide teams toward shared goals while maintaining authenticity.",
		},
		{
			Keyword: "misconception",
			Reply:   "I think the biggest misconception my coworkers have about me is that I'm always confident and have everything figured out. The truth is, I often feel uncertain and have to work through doubts just like everyone else. I've learned to project confidence because it helps others feel secure, but internally I'm constantly questioning and refining my approach.",
		},
		{
			Keyword: "boundaries",
			Reply:   "I push my boundaries by deliberately stepping outside my comfort zone. I seek out projects that scare me a little, take on roles where I'm not the expert, and actively ask for feedback that might be uncomfortable to hear. I believe growth happens at the edges of what we think we're capable of, so I try to live there as much as possible.",
		},
	}
}

// Select returns the first entry whose keyword appears in text
// (case-insensitive), or the first entry when nothing matches.
func (t FallbackTable) Select(text string) FallbackEntry {
	if len(t) == 0 {
		return FallbackEntry{}
	}
	lower := strings.ToLower(text)
	for _, e := range t {
		if strings.Contains(lower, strings.ToLower(e.Keyword)) {
			return e
		}
	}
	return t[0]
}

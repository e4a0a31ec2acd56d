package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/language.txt
	languageRaw string

	//go:embed template/mood.txt
	moodRaw string

	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/reply_context.txt
	replyContextRaw string

	//go:embed template/recommend.txt
	recommendRaw string
)

// PromptSet holds loaded prompt content. The mood, intent, reply context,
// and recommend entries are fmt format strings; callers fill the blanks.
type PromptSet struct {
	Language     string
	Mood         string
	Intent       string
	ReplyContext string
	Recommend    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Language:     strings.TrimSpace(languageRaw),
		Mood:         strings.TrimSpace(moodRaw),
		Intent:       strings.TrimSpace(intentRaw),
		ReplyContext: strings.TrimSpace(replyContextRaw),
		Recommend:    strings.TrimSpace(recommendRaw),
	}
}

package happenstance

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

var (
	//go:embed prompts/system.txt
	systemTemplate string
	//go:embed prompts/user.txt
	userTemplate string
	//go:embed prompts/structured.txt
	structuredTemplate string
)

// Prompt is the system/user pair sent to the text-generation service.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the events in input order into the analysis prompt.
// The structured variant appends the skill-tag JSON instructions.
func BuildPrompt(events []*LifeEvent, structured bool) Prompt {
	blocks := make([]string, 0, len(events))
	for i, e := range events {
		if e == nil {
			e = &LifeEvent{}
		}
		blocks = append(blocks, formatEvent(i+1, *e))
	}

	user := strings.NewReplacer(
		"{{EVENT_COUNT}}", strconv.Itoa(len(events)),
		"{{EVENTS}}", strings.Join(blocks, "\n"),
	).Replace(strings.TrimSpace(userTemplate))
	if structured {
		user += "\n\n" + strings.TrimSpace(structuredTemplate)
	}

	return Prompt{
		System: strings.TrimSpace(systemTemplate),
		User:   user,
	}
}

// Hash fingerprints the rendered prompt for log correlation without logging
// the user's events.
func (p Prompt) Hash() string {
	sum := sha256.Sum256([]byte(p.System + "\n" + p.User))
	return hex.EncodeToString(sum[:])
}

func formatEvent(index int, e LifeEvent) string {
	return fmt.Sprintf("이벤트 %d: %s (%s)\n- 우연한 사건: %s\n- 나의 행동: %s\n",
		index, e.Title, e.Period, e.Situation, e.Action)
}

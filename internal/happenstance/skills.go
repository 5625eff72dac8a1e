package happenstance

import (
	"encoding/json"
	"regexp"
	"strings"
)

// SkillName is one of the five Planned Happenstance skills.
type SkillName string

const (
	SkillCuriosity   SkillName = "Curiosity"
	SkillPersistence SkillName = "Persistence"
	SkillFlexibility SkillName = "Flexibility"
	SkillOptimism    SkillName = "Optimism"
	SkillRiskTaking  SkillName = "Risk-taking"
)

// AllSkills lists the closed skill set in framework order.
func AllSkills() []SkillName {
	return []SkillName{SkillCuriosity, SkillPersistence, SkillFlexibility, SkillOptimism, SkillRiskTaking}
}

var skillLookup = func() map[string]SkillName {
	out := make(map[string]SkillName, 5)
	for _, s := range AllSkills() {
		out[skillKey(string(s))] = s
	}
	return out
}()

func skillKey(raw string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(raw)))
}

// ParseSkillName maps loose spellings ("risk taking", "RISK_TAKING") onto the
// closed set.
func ParseSkillName(raw string) (SkillName, bool) {
	s, ok := skillLookup[skillKey(raw)]
	return s, ok
}

// SkillTags is the JSON block the structured prompt variant asks for.
type SkillTags struct {
	Events []EventSkills `json:"events"`
}

// EventSkills holds the skills tagged for one event.
type EventSkills struct {
	Skills []string `json:"skills"`
}

// SkillSummary aggregates a SkillTags block against the closed skill set.
type SkillSummary struct {
	EventCount int
	Counts     map[SkillName]int
	Unknown    []string
}

var (
	fencedJSON   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	eventsObject = regexp.MustCompile(`\{\s*"events"\s*:`)
)

// ExtractSkillTags finds the skill-tag block in free text. A fenced ```json
// block wins; otherwise the last object starting with "events" is decoded.
func ExtractSkillTags(text string) (SkillTags, error) {
	matches := fencedJSON.FindAllStringSubmatch(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if tags, ok := decodeSkillTags(matches[i][1]); ok {
			return tags, nil
		}
	}

	locs := eventsObject.FindAllStringIndex(text, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		if tags, ok := decodeSkillTags(text[locs[i][0]:]); ok {
			return tags, nil
		}
	}
	return SkillTags{}, ErrNoSkillTags
}

func decodeSkillTags(raw string) (SkillTags, bool) {
	var tags SkillTags
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&tags); err != nil {
		return SkillTags{}, false
	}
	if tags.Events == nil {
		return SkillTags{}, false
	}
	return tags, true
}

// Summarize counts known skills and collects names outside the closed set.
func (t SkillTags) Summarize() SkillSummary {
	out := SkillSummary{
		EventCount: len(t.Events),
		Counts:     make(map[SkillName]int, 5),
	}
	for _, e := range t.Events {
		for _, raw := range e.Skills {
			if s, ok := ParseSkillName(raw); ok {
				out.Counts[s]++
				continue
			}
			out.Unknown = append(out.Unknown, raw)
		}
	}
	return out
}

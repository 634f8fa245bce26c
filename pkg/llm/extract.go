package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// The helpers below are heuristics over free-form model output. A miss
// returns the zero value and is never an error.

var (
	fencedBlockRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+#.-]*[ \t]*\r?\n(.*?)```")

	// A bare number needs whitespace after its delimiter so "0.5 * 4" is
	// not read as step "0.".
	stepLineRe = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(?:\*\*)?(?:step\s*\d+\s*[:.)-]|\d+[.)](?:\*\*)?(?:\s|$))(?:\*\*)?\s*(.+?)\s*$`)

	conclusionRe = regexp.MustCompile(`(?im)\b(?:in conclusion|therefore|thus|hence|so the answer is|final answer|the answer is|conclusion)\b\s*[,:]?\s*(.+?)(?:[.!?](?:\s|$)|$)`)
)

// unwrapCode returns the body of the first fenced code block in text, or the
// trimmed text when there is none.
func unwrapCode(text string) string {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], "\r\n")
	}
	return strings.TrimSpace(text)
}

// extractSteps pulls an ordered step list out of a math answer. A JSON object
// with a "steps" array wins; otherwise lines like "Step 2:" or "3." are
// collected.
func extractSteps(text string) []string {
	if steps := jsonSteps(text); len(steps) > 0 {
		return steps
	}
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		m := stepLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if s := strings.TrimSpace(m[1]); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

func jsonSteps(text string) []string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	candidate := text[start : end+1]

	var payload struct {
		Steps []any `json:"steps"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			return nil
		}
	}

	steps := make([]string, 0, len(payload.Steps))
	for _, s := range payload.Steps {
		var line string
		switch v := s.(type) {
		case string:
			line = v
		case map[string]any:
			// {"step": 1, "description": "..."} style entries
			for _, key := range []string{"description", "explanation", "text", "content"} {
				if d, ok := v[key].(string); ok {
					line = d
					break
				}
			}
		default:
			line = fmt.Sprint(v)
		}
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

// extractConclusion returns the last sentence introduced by a concluding
// phrase such as "Therefore," or "In conclusion".
func extractConclusion(text string) string {
	matches := conclusionRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.TrimSpace(matches[len(matches)-1][1])
}

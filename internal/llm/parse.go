package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Pair is a generated question (or cloze sentence) and its answer
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var (
	fencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?```\\s*$")
	bulletPattern = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
)

// StripFences removes a Markdown code fence wrapping the whole text
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ParsePairs extracts up to maxItems pairs (all when maxItems <= 0) from a
// model response. A JSON array is tried first; otherwise "Question:" /
// "Answer:" lines are read. Elements missing either field are dropped.
func ParsePairs(text string, maxItems int) []Pair {
	body := StripFences(text)

	pairs, ok := parseJSONPairs(body)
	if !ok {
		pairs = parseLinePairs(body)
	}

	if maxItems > 0 && len(pairs) > maxItems {
		pairs = pairs[:maxItems]
	}
	return pairs
}

func parseJSONPairs(body string) ([]Pair, bool) {
	if !strings.HasPrefix(body, "[") && !strings.HasPrefix(body, "{") {
		return nil, false
	}

	var elements []map[string]any
	if err := json.Unmarshal([]byte(body), &elements); err != nil {
		// Some models wrap the array in an object
		var wrapper map[string][]map[string]any
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, false
		}
		for _, key := range []string{"items", "pairs", "questions", "cards", "cloze"} {
			if list, ok := wrapper[key]; ok {
				elements = list
				break
			}
		}
	}

	var pairs []Pair
	for _, el := range elements {
		question := stringField(el, "question", "sentence", "text")
		answer := stringField(el, "answer")
		if question == "" || answer == "" {
			continue
		}
		pairs = append(pairs, Pair{Question: question, Answer: answer})
	}
	return pairs, true
}

func stringField(el map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := el[key].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// parseLinePairs reads "Question: ..." followed by "Answer: ..." lines.
// A pair is accepted only once both fields are present.
func parseLinePairs(body string) []Pair {
	var pairs []Pair
	var question string

	for _, raw := range strings.Split(body, "\n") {
		line := bulletPattern.ReplaceAllString(strings.TrimSpace(raw), "")
		line = strings.Trim(line, "*")

		if rest, ok := cutLabel(line, "question", "sentence", "q"); ok {
			question = rest
			continue
		}
		if rest, ok := cutLabel(line, "answer", "a"); ok && question != "" && rest != "" {
			pairs = append(pairs, Pair{Question: question, Answer: rest})
			question = ""
		}
	}
	return pairs
}

// cutLabel matches "Label: value" case-insensitively
func cutLabel(line string, labels ...string) (string, bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", false
	}
	label := strings.ToLower(strings.Trim(strings.TrimSpace(line[:idx]), "*"))
	for _, l := range labels {
		if label == l {
			return strings.TrimSpace(strings.TrimLeft(line[idx+1:], "* ")), true
		}
	}
	return "", false
}

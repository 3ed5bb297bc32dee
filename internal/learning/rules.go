package learning

import (
	"regexp"
	"strings"

	"github.com/ppiankov/distill/internal/llm"
	"github.com/ppiankov/distill/internal/model"
)

const contextChars = 200

// QAFromConcepts builds up to count "What is X?" pairs. The answer is the
// first sentence mentioning the concept, or the opening of content.
func QAFromConcepts(content string, sentences []string, concepts []model.Concept, count int) []llm.Pair {
	var pairs []llm.Pair
	for _, c := range concepts {
		if len(pairs) >= count {
			break
		}

		answer := ""
		for _, s := range sentences {
			if containsFold(s, c.Text) {
				answer = s
				break
			}
		}
		if answer == "" {
			answer = opening(content)
		}
		if answer == "" {
			continue
		}

		pairs = append(pairs, llm.Pair{Question: "What is " + c.Text + "?", Answer: answer})
	}
	return pairs
}

// ClozeFromConcepts hides each concept in the first unused sentence that
// mentions it. A sentence supplies at most one cloze.
func ClozeFromConcepts(sentences []string, concepts []model.Concept, count int) []llm.Pair {
	used := make([]bool, len(sentences))

	var pairs []llm.Pair
	for _, c := range concepts {
		if len(pairs) >= count {
			break
		}
		if strings.TrimSpace(c.Text) == "" {
			continue
		}

		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(c.Text))
		for i, s := range sentences {
			if used[i] {
				continue
			}
			match := pattern.FindString(s)
			if match == "" {
				continue
			}

			used[i] = true
			pairs = append(pairs, llm.Pair{
				Question: pattern.ReplaceAllLiteralString(s, model.ClozePlaceholder),
				Answer:   match,
			})
			break
		}
	}
	return pairs
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// opening returns the first contextChars runes of content, marking truncation
func opening(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= contextChars {
		return content
	}
	return strings.TrimSpace(string(runes[:contextChars])) + "..."
}

// Package tags suggests tags for a text and ranks texts by similarity.
package tags

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"github.com/ppiankov/distill/internal/extract"
)

const (
	entityScore     = 0.8
	nounChunkScore  = 0.6
	contentWordBase = 0.3
	contentWordStep = 0.1

	minSuggestChars = 10
	minWordRunes    = 4
)

// Candidate is a scored tag suggestion
type Candidate struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Suggester proposes tags from entities, noun phrases and frequent content words
type Suggester struct {
	extractor *extract.ConceptExtractor
}

// NewSuggester creates a tag suggester
func NewSuggester(extractor *extract.ConceptExtractor) *Suggester {
	return &Suggester{extractor: extractor}
}

// Suggest returns the texts of the top k candidates
func (s *Suggester) Suggest(text string, k int) []string {
	scored := s.Scored(text, k)
	if scored == nil {
		return nil
	}
	out := make([]string, len(scored))
	for i, c := range scored {
		out[i] = c.Text
	}
	return out
}

// Scored returns the top k candidates, highest score first. Texts shorter
// than ten characters yield nothing.
func (s *Suggester) Scored(text string, k int) []Candidate {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minSuggestChars || k <= 0 {
		return nil
	}

	ann := s.extractor.Analyze(text)
	pool := newCandidatePool()

	for _, ent := range ann.Entities {
		pool.add(ent.Text, entityScore)
	}
	for _, np := range ann.NounPhrases {
		pool.add(np.Text, nounChunkScore)
	}
	for _, w := range contentWords(ann.Tokens) {
		pool.add(w.Text, w.Score)
	}

	return pool.top(k)
}

// contentWords groups nouns, verbs, adjectives and adverbs by stem and scores
// each group by its share of all content words
func contentWords(tokens []extract.Token) []Candidate {
	type group struct {
		forms map[string]int
		order []string
		count int
	}

	groups := make(map[string]*group)
	var stems []string
	total := 0

	for _, tok := range tokens {
		if !isContentTag(tok.Tag) {
			continue
		}
		word := strings.ToLower(tok.Text)
		if utf8.RuneCountInString(word) < minWordRunes || extract.IsStopWord(word) || !isAlpha(word) {
			continue
		}

		stem, err := snowball.Stem(word, "english", true)
		if err != nil || stem == "" {
			stem = word
		}

		g, ok := groups[stem]
		if !ok {
			g = &group{forms: make(map[string]int)}
			groups[stem] = g
			stems = append(stems, stem)
		}
		if g.forms[word] == 0 {
			g.order = append(g.order, word)
		}
		g.forms[word]++
		g.count++
		total++
	}

	out := make([]Candidate, 0, len(stems))
	for _, stem := range stems {
		g := groups[stem]
		best := g.order[0]
		for _, form := range g.order[1:] {
			if g.forms[form] > g.forms[best] {
				best = form
			}
		}
		out = append(out, Candidate{
			Text:  best,
			Score: contentWordBase + contentWordStep*float64(g.count)/float64(total),
		})
	}
	return out
}

func isContentTag(tag string) bool {
	for _, prefix := range []string{"NN", "VB", "JJ", "RB"} {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}

func isAlpha(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) && r != '-' {
			return false
		}
	}
	return true
}

// candidatePool keeps the best score per case-insensitive text
type candidatePool struct {
	index map[string]int
	items []Candidate
}

func newCandidatePool() *candidatePool {
	return &candidatePool{index: make(map[string]int)}
}

func (p *candidatePool) add(text string, score float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	key := strings.ToLower(text)
	if i, ok := p.index[key]; ok {
		p.items[i].Score = max(p.items[i].Score, score)
		return
	}
	p.index[key] = len(p.items)
	p.items = append(p.items, Candidate{Text: text, Score: score})
}

func (p *candidatePool) top(k int) []Candidate {
	out := append([]Candidate(nil), p.items...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

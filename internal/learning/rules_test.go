package learning

import (
	"strings"
	"testing"

	"github.com/ppiankov/distill/internal/model"
)

func concepts(texts ...string) []model.Concept {
	out := make([]model.Concept, len(texts))
	for i, t := range texts {
		out[i] = model.Concept{Text: t, Kind: model.ConceptTerm, Importance: 0.5}
	}
	return out
}

func TestClozeFromConcepts_Mitochondria(t *testing.T) {
	sentences := []string{"The mitochondria is the powerhouse of the cell."}

	pairs := ClozeFromConcepts(sentences, concepts("mitochondria"), 5)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 cloze, got %d", len(pairs))
	}
	if pairs[0].Question != "The [...] is the powerhouse of the cell." || pairs[0].Answer != "mitochondria" {
		t.Errorf("unexpected cloze: %+v", pairs[0])
	}
}

func TestClozeFromConcepts_NoSentenceReuse(t *testing.T) {
	sentences := []string{
		"The nucleus stores DNA.",
		"Ribosomes build proteins.",
	}

	pairs := ClozeFromConcepts(sentences, concepts("nucleus", "DNA", "ribosomes"), 5)

	if len(pairs) != 2 {
		t.Fatalf("expected 2 clozes, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].Answer != "nucleus" {
		t.Errorf("expected nucleus first, got %q", pairs[0].Answer)
	}
	if pairs[1].Question != "[...] build proteins." || pairs[1].Answer != "Ribosomes" {
		t.Errorf("expected matched text as answer, got %+v", pairs[1])
	}
}

func TestClozeFromConcepts_RespectsCount(t *testing.T) {
	sentences := []string{"Alpha is first.", "Beta is second.", "Gamma is third."}

	pairs := ClozeFromConcepts(sentences, concepts("alpha", "beta", "gamma"), 2)

	if len(pairs) != 2 {
		t.Errorf("expected 2 clozes, got %d", len(pairs))
	}
}

func TestClozeFromConcepts_SpecialCharacters(t *testing.T) {
	pairs := ClozeFromConcepts([]string{"Vitamin C (ascorbic acid) prevents scurvy."}, concepts("C (ascorbic acid)"), 1)

	if len(pairs) != 1 || pairs[0].Question != "Vitamin [...] prevents scurvy." {
		t.Errorf("unexpected clozes: %+v", pairs)
	}
}

func TestQAFromConcepts(t *testing.T) {
	content := "Cells are the basic unit of life. The nucleus holds genetic material."
	sentences := []string{"Cells are the basic unit of life.", "The nucleus holds genetic material."}

	pairs := QAFromConcepts(content, sentences, concepts("nucleus", "osmosis", "cells"), 3)

	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	if pairs[0].Question != "What is nucleus?" || pairs[0].Answer != sentences[1] {
		t.Errorf("unexpected first pair: %+v", pairs[0])
	}
	if pairs[1].Answer != content {
		t.Errorf("expected content as fallback context, got %q", pairs[1].Answer)
	}
	if pairs[2].Answer != sentences[0] {
		t.Errorf("expected case-insensitive match, got %q", pairs[2].Answer)
	}
}

func TestQAFromConcepts_LongContextTruncated(t *testing.T) {
	content := strings.Repeat("x", 500)

	pairs := QAFromConcepts(content, nil, concepts("term"), 1)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Answer != strings.Repeat("x", 200)+"..." {
		t.Errorf("unexpected context length %d", len(pairs[0].Answer))
	}
}

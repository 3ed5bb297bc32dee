package chunk

import (
	"strings"
	"testing"

	"github.com/ppiankov/distill/internal/model"
)

func TestSplit_SingleChunkUnderBudget(t *testing.T) {
	content := "Intro paragraph.\n\nDetails paragraph with more than enough words to be kept twice over for testing purposes and filler."

	chunks := Split(content, model.LevelDetailed)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != content {
		t.Errorf("Expected chunk to equal content, got %q", chunks[0].Text)
	}
}

func TestSplitSize_Reconstructs(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 30),
		strings.Repeat("c", 50),
		strings.Repeat("d", 10),
		strings.Repeat("e", 25),
	}
	content := strings.Join(paragraphs, "\n\n")

	for _, size := range []int{10, 45, 80, 100, 1000} {
		chunks := SplitSize(content, size)

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
			if content[c.Start:c.End] != c.Text {
				t.Errorf("size %d: chunk %d is not a contiguous slice of content", size, i)
			}
			if i > 0 && c.Start < chunks[i-1].End {
				t.Errorf("size %d: chunk %d overlaps previous", size, i)
			}
		}

		if got := strings.Join(texts, "\n\n"); got != content {
			t.Errorf("size %d: joined chunks do not reconstruct content", size)
		}

		// Every paragraph lives wholly inside one chunk
		for _, p := range paragraphs {
			inside := 0
			for _, text := range texts {
				if strings.Contains(text, p) {
					inside++
				}
			}
			if inside != 1 {
				t.Errorf("size %d: paragraph %q found in %d chunks", size, p[:1], inside)
			}
		}
	}
}

func TestSplitSize_GreedyPacking(t *testing.T) {
	content := "aaaa\n\nbbbb\n\ncccc"

	chunks := SplitSize(content, 10)
	// "aaaa\n\nbbbb" is 10 characters; adding "cccc" would exceed the budget
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "aaaa\n\nbbbb" || chunks[1].Text != "cccc" {
		t.Errorf("Unexpected chunks: %q, %q", chunks[0].Text, chunks[1].Text)
	}
}

func TestSplitSize_OversizedParagraph(t *testing.T) {
	big := strings.Repeat("x", 50)
	content := "small\n\n" + big + "\n\ntail"

	chunks := SplitSize(content, 20)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Text != big {
		t.Errorf("Expected oversized paragraph as its own chunk, got %q", chunks[1].Text)
	}
}

func TestSplit_Blank(t *testing.T) {
	if got := Split("\n\n  \n", model.LevelBrief); len(got) != 0 {
		t.Errorf("Expected no chunks for blank content, got %d", len(got))
	}
}

func TestMaxSize(t *testing.T) {
	if MaxSize(model.LevelBrief) != 10000 || MaxSize(model.LevelMedium) != 5000 || MaxSize(model.LevelDetailed) != 3000 {
		t.Error("Unexpected chunk budgets")
	}
}

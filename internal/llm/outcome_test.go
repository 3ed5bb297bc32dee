package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFailure_ErrorsIs(t *testing.T) {
	cause := context.DeadlineExceeded
	f := NewFailure(KindTimeout, Ollama, "no response").WithCause(cause).WithHint("retry")

	if !errors.Is(f, ErrTimeout) {
		t.Error("Expected failure to match ErrTimeout")
	}
	if errors.Is(f, ErrNetwork) {
		t.Error("Did not expect failure to match ErrNetwork")
	}
	if !errors.Is(f, context.DeadlineExceeded) {
		t.Error("Expected failure to unwrap to its cause")
	}
	if got := f.Error(); got != "ollama: no response (retry)" {
		t.Errorf("Unexpected error string: %q", got)
	}
}

func TestFailureKind_Category(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want Category
	}{
		{KindNoCredential, CategoryConfiguration},
		{KindTimeout, CategoryTransport},
		{KindConnectionRefused, CategoryTransport},
		{KindModelNotFound, CategoryRemote},
		{KindRemoteStatus, CategoryRemote},
		{KindInvalidResponse, CategoryParse},
		{KindEmptyContent, CategoryContent},
		{KindStorage, CategoryStorage},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Category(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOutcome_Result(t *testing.T) {
	v, err := Success("done").Result()
	if err != nil || v != "done" {
		t.Errorf("Expected (done, nil), got (%q, %v)", v, err)
	}

	_, err = Fail[string](NewFailure(KindModelNotFound, Ollama, `model "x" not found`)).Result()
	if err == nil {
		t.Fatal("Expected error")
	}
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindModelNotFound {
		t.Errorf("Expected *Failure with ModelNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Unexpected error string: %q", err.Error())
	}
}

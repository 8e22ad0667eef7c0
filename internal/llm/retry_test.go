package llm

import (
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("Rate Limit exceeded"), true},
		{"quota", errors.New("quota exceeded for project"), true},
		{"http 429", errors.New("got status 429"), true},
		{"http 503", errors.New("503 service unavailable"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"timeout", errors.New("context deadline: timeout"), true},
		{"bad request", errors.New("400 invalid argument"), false},
		{"auth", errors.New("401 unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{}
	if err := base.validate(); err == nil {
		t.Error("validate() on zero config should fail")
	}
}

func TestCopyMessages(t *testing.T) {
	orig := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello")),
		ai.NewModelMessage(ai.NewTextPart("hi")),
	}

	cp := copyMessages(orig)
	if len(cp) != len(orig) {
		t.Fatalf("len = %d, want %d", len(cp), len(orig))
	}
	for i := range cp {
		if cp[i] == orig[i] {
			t.Errorf("message %d not copied", i)
		}
		if &cp[i].Content[0] == &orig[i].Content[0] {
			t.Errorf("message %d content slice shared", i)
		}
		if cp[i].Content[0] != orig[i].Content[0] {
			t.Errorf("message %d part pointer should be shared", i)
		}
	}

	// Appending to a copy must not grow the original's backing array.
	cp[0].Content = append(cp[0].Content, ai.NewTextPart("extra"))
	if len(orig[0].Content) != 1 {
		t.Errorf("original content length = %d, want 1", len(orig[0].Content))
	}
}

package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cleanse/internal/core"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("no deadline set")
	}
	return f.reply, f.err
}

func record(name, email, country string) core.Record {
	rs := core.NewRecordSet(core.RequiredColumns, [][]string{{name, email, country, "30"}})
	return rs.Rows[0]
}

func TestParseEmail(t *testing.T) {
	tests := []struct {
		reply  string
		want   string
		wantOK bool
	}{
		{"jane.doe@example.com", "jane.doe@example.com", true},
		{"  \"Jane.Doe@Example.com\"\n", "jane.doe@example.com", true},
		{"Sure! The address is <jane@corp.io>.", "jane@corp.io", true},
		{"`mailto:jd@corp.io`", "jd@corp.io", true},
		{"I cannot help with that", "", false},
		{"", "", false},
		{"jane@localhost", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, ok := ParseEmail(tt.reply)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseEmail(%q) = (%q, %v), want (%q, %v)", tt.reply, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSuggester_SuggestEmail(t *testing.T) {
	fc := &fakeCompleter{reply: "Jane.Doe@corp.io"}
	s := NewSuggester(fc, "corp.io", time.Second)

	got, ok := s.SuggestEmail(context.Background(), record("Jane Doe", "bad", "France"))
	if !ok || got != "jane.doe@corp.io" {
		t.Fatalf("SuggestEmail() = (%q, %v)", got, ok)
	}
	for _, want := range []string{"Jane Doe", "France", "bad", "corp.io"} {
		if !strings.Contains(fc.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, fc.prompt)
		}
	}
}

func TestSuggester_Failures(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeCompleter
		rec  core.Record
		call bool
	}{
		{"request error", &fakeCompleter{err: ErrNoCompletion}, record("Jane Doe", "bad", "France"), true},
		{"unusable reply", &fakeCompleter{reply: "no idea"}, record("Jane Doe", "bad", "France"), true},
		{"absent name", &fakeCompleter{reply: "x@corp.io"}, record("", "bad", "France"), false},
		{"placeholder name", &fakeCompleter{reply: "x@corp.io"}, record("UNKNOWN_NAME", "bad", "France"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSuggester(tt.fc, "", 0)
			if got, ok := s.SuggestEmail(context.Background(), tt.rec); ok {
				t.Errorf("SuggestEmail() = %q, want no suggestion", got)
			}
			if called := tt.fc.calls > 0; called != tt.call {
				t.Errorf("completer called = %v, want %v", called, tt.call)
			}
		})
	}
}

func TestSuggester_FallbackThroughEnricher(t *testing.T) {
	rs := core.NewRecordSet(
		[]string{core.ColName, core.ColEmail, core.ColCountry, core.ColAge, core.ColEmailStatus},
		[][]string{{"Jane Doe", "bad", "France", "40", "invalid"}},
	)
	s := NewSuggester(&fakeCompleter{err: errors.New("service unavailable")}, "example.com", time.Second)

	out, err := core.NewEnricher("example.com", s, nil).Enrich(context.Background(), rs)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if got := out.Rows[0].String(core.ColEmail); got != "jane.doe@example.com" {
		t.Errorf("email = %q, want local fallback", got)
	}
}

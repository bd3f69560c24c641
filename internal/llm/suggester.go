package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/cleanse/internal/core"
)

// DefaultTimeout bounds one suggestion request.
const DefaultTimeout = 10 * time.Second

const promptTemplate = `Suggest a plausible business email address for the customer below.
Answer with the address only, no other text. Use the domain %s.

Name: %s
Country: %s
Current email: %s`

// Suggester implements core.EmailSuggester on top of a Completer.
type Suggester struct {
	completer Completer
	domain    string
	timeout   time.Duration
}

// NewSuggester returns a Suggester proposing addresses at domain.
// A non-positive timeout selects DefaultTimeout.
func NewSuggester(c Completer, domain string, timeout time.Duration) *Suggester {
	if domain == "" {
		domain = core.DefaultEmailDomain
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Suggester{completer: c, domain: domain, timeout: timeout}
}

// SuggestEmail implements core.EmailSuggester. Rows without a usable name
// are skipped, and any request failure is logged and reported as no
// suggestion so the caller falls back to local synthesis.
func (s *Suggester) SuggestEmail(ctx context.Context, rec core.Record) (string, bool) {
	name, ok := rec.Get(core.ColName)
	if !ok || name == core.Placeholder(core.ColName) {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(ctx, s.prompt(rec))
	if err != nil {
		slog.Warn("email suggestion failed", "row", rec.Index, "error", err)
		return "", false
	}

	addr, ok := ParseEmail(reply)
	if !ok {
		slog.Debug("email suggestion unusable", "row", rec.Index, "reply", reply)
	}
	return addr, ok
}

func (s *Suggester) prompt(rec core.Record) string {
	return fmt.Sprintf(promptTemplate,
		s.domain,
		rec.String(core.ColName),
		rec.String(core.ColCountry),
		rec.String(core.ColEmail),
	)
}

// ParseEmail extracts the first valid address from a model reply. Models
// tend to wrap answers in quotes, backticks, angle brackets or a sentence.
func ParseEmail(reply string) (string, bool) {
	for _, field := range strings.Fields(reply) {
		candidate := strings.Trim(field, "\"'`<>()[]{},;:.")
		candidate = strings.TrimPrefix(candidate, "mailto:")
		if core.ValidateEmail(candidate) {
			return strings.ToLower(candidate), true
		}
	}
	return "", false
}

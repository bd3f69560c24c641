package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/logging"
	"github.com/jackc/pgx/v5/pgtype"
)

// EmailSuggester proposes an address for a row whose email is unusable.
// Returning false means no suggestion.
type EmailSuggester interface {
	SuggestEmail(ctx context.Context, rec Record) (string, bool)
}

// LocalSuggester derives an address from the row's name.
type LocalSuggester struct {
	Domain string
}

// SuggestEmail implements EmailSuggester.
func (s LocalSuggester) SuggestEmail(_ context.Context, rec Record) (string, bool) {
	name, ok := rec.Get(ColName)
	if !ok || name == Placeholder(ColName) {
		return "", false
	}
	domain := s.Domain
	if domain == "" {
		domain = DefaultEmailDomain
	}
	return SynthesizeEmail(name, domain)
}

// SynthesizeEmail builds first.rest@domain from a lower-cased name.
// "Jane Doe" gives jane.doe@domain, "Mary Ann Lee" gives mary.annlee@domain
// and a single word is used alone.
func SynthesizeEmail(name, domain string) (string, bool) {
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) == 0 {
		return "", false
	}
	local := parts[0]
	if len(parts) > 1 {
		local += "." + strings.Join(parts[1:], "")
	}
	return local + "@" + domain, true
}

// Enricher adds synthesized emails and age segments to corrected rows.
type Enricher struct {
	suggester EmailSuggester
	fallback  LocalSuggester
	log       logging.Logger
}

// NewEnricher returns an Enricher generating addresses at domain. When
// suggester is non-nil it is asked first; its answer is used only if it is a
// valid email, otherwise local synthesis applies.
func NewEnricher(domain string, suggester EmailSuggester, log logging.Logger) *Enricher {
	if log == nil {
		log = discardLog{}
	}
	return &Enricher{
		suggester: suggester,
		fallback:  LocalSuggester{Domain: domain},
		log:       log,
	}
}

// Enrich returns an enriched copy of rs. The row count never changes.
func (e *Enricher) Enrich(ctx context.Context, rs *RecordSet) (*RecordSet, error) {
	if err := rs.CheckRequired(); err != nil {
		return nil, err
	}

	out := rs.Clone()
	out.ensureColumn(ColEmailStatus)
	out.ensureColumn(ColSegment)

	generated := e.generateEmails(ctx, out)
	e.segment(out)
	e.log.Log("Data enrichment completed")

	slog.Debug("enrichment completed", "rows", out.Len(), "emails_generated", generated)
	return out, nil
}

func (e *Enricher) generateEmails(ctx context.Context, rs *RecordSet) int {
	placeholder := Placeholder(ColEmail)
	generated := 0
	for _, r := range rs.Rows {
		status := EmailStatus(r.String(ColEmailStatus))
		email, _ := r.Get(ColEmail)
		if status != EmailStatusInvalid && email != placeholder {
			continue
		}

		addr, ok := e.suggest(ctx, r)
		if !ok {
			continue
		}
		r.Set(ColEmail, addr)
		r.Set(ColEmailStatus, string(EmailStatusGenerated))
		generated++
		e.log.Log(fmt.Sprintf("Generated email for row %d: %s", r.Index, addr))
	}
	return generated
}

func (e *Enricher) suggest(ctx context.Context, r Record) (string, bool) {
	if e.suggester != nil {
		if addr, ok := e.suggester.SuggestEmail(ctx, r); ok && ValidateEmail(addr) {
			return addr, true
		}
	}
	return e.fallback.SuggestEmail(ctx, r)
}

func (e *Enricher) segment(rs *RecordSet) {
	for _, r := range rs.Rows {
		r.Set(ColSegment, string(SegmentFor(r.Value(ColAge))))
	}
	e.log.Log("Added customer segmentation")
}

// SegmentFor buckets an age cell. The age is truncated before comparison.
func SegmentFor(age pgtype.Text) Segment {
	f, ok := NumericValue(age)
	if !ok {
		return SegmentUnknown
	}
	switch a := math.Trunc(f); {
	case a < 18:
		return SegmentTeen
	case a < 30:
		return SegmentYoungAdult
	case a < 50:
		return SegmentAdult
	default:
		return SegmentSenior
	}
}

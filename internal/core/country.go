package core

// country.go implements the canonical country reference and fuzzy matching.
//
// Matching uses a token-set ratio: both strings are folded to lowercase,
// stripped of accents and punctuation, split into a set of words, and the
// shared and distinct words are compared pairwise with an insert/delete
// similarity, 2*LCS/(len(a)+len(b)). A transposed letter pair costs one
// common character, not two substitutions. Word order and repetition do not
// affect the score.

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// CountryReference is an immutable, ordered list of canonical country names.
type CountryReference struct {
	names     []string
	canonical map[string]bool
}

// NewCountryReference builds a reference from names, skipping blanks and
// repeated entries while keeping first-seen order.
func NewCountryReference(names []string) *CountryReference {
	ref := &CountryReference{canonical: make(map[string]bool, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || ref.canonical[n] {
			continue
		}
		ref.canonical[n] = true
		ref.names = append(ref.names, n)
	}
	return ref
}

// LoadCountryReference reads one canonical name per line from path.
func LoadCountryReference(path string) (*CountryReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceFile, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(NewBOMSkippingReader(f))
	for scanner.Scan() {
		names = append(names, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrReferenceFile, path, err)
	}

	ref := NewCountryReference(names)
	if ref.Len() == 0 {
		return nil, fmt.Errorf("%w: %s lists no countries", ErrReferenceFile, path)
	}
	return ref, nil
}

// Names returns a copy of the canonical names in reference order.
func (r *CountryReference) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of canonical names.
func (r *CountryReference) Len() int {
	return len(r.names)
}

// Contains reports whether name is exactly a canonical entry.
func (r *CountryReference) Contains(name string) bool {
	return r.canonical[name]
}

// Match returns the best canonical name for input scoring at least threshold.
func (r *CountryReference) Match(input string, threshold int) (string, bool) {
	return FuzzyMatchCountry(input, r.names, threshold)
}

// CountryAliases maps folded alias spellings to canonical names.
type CountryAliases map[string]string

// LoadCountryAliases reads a YAML mapping of alias to canonical name.
// A missing file yields an empty alias set. Every target must be canonical in ref.
func LoadCountryAliases(path string, ref *CountryReference) (CountryAliases, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CountryAliases{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read aliases %s: %w", path, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", path, err)
	}

	return NewCountryAliases(raw, ref)
}

// NewCountryAliases validates raw against ref and folds its keys.
func NewCountryAliases(raw map[string]string, ref *CountryReference) (CountryAliases, error) {
	aliases := make(CountryAliases, len(raw))
	var bad []string
	for alias, target := range raw {
		if ref != nil && !ref.Contains(target) {
			entry := fmt.Sprintf("%s -> %s", alias, target)
			if hint := ref.Closest(target); hint != "" {
				entry += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			bad = append(bad, entry)
			continue
		}
		key := strings.Join(matchTokens(alias), " ")
		if key == "" {
			continue
		}
		aliases[key] = target
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, fmt.Errorf("%w: alias targets not in reference: %s", ErrReferenceFile, strings.Join(bad, ", "))
	}
	return aliases, nil
}

// Lookup returns the canonical name for an alias spelling of input.
func (a CountryAliases) Lookup(input string) (string, bool) {
	if len(a) == 0 {
		return "", false
	}
	target, ok := a[strings.Join(matchTokens(input), " ")]
	return target, ok
}

// FuzzyMatchCountry returns the reference entry with the highest TokenSetRatio
// against input, provided it reaches threshold. An empty input never matches.
// Among equal top scores the earliest entry wins.
func FuzzyMatchCountry(input string, reference []string, threshold int) (string, bool) {
	if strings.TrimSpace(input) == "" {
		return "", false
	}

	best, bestScore := "", -1
	for _, candidate := range reference {
		if score := TokenSetRatio(input, candidate); score > bestScore {
			best, bestScore = candidate, score
		}
	}

	if bestScore < threshold || best == "" {
		return "", false
	}
	return best, true
}

// TokenSetRatio scores the similarity of a and b from 0 to 100, ignoring
// case, accents, punctuation, word order and repeated words.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for _, t := range ta {
		if slices.Contains(tb, t) {
			shared = append(shared, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if !slices.Contains(ta, t) {
			onlyB = append(onlyB, t)
		}
	}

	sect := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(
		similarity(sect, combinedA),
		similarity(sect, combinedB),
		similarity(combinedA, combinedB),
	)
}

// similarity scores a and b from 0 to 100 by the characters they share in
// order: 100 * 2*LCS / (len(a)+len(b)).
func similarity(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	total := float64(len(ra) + len(rb))
	return int(math.Round(100 * float64(2*commonSubsequence(ra, rb)) / total))
}

// commonSubsequence is the length of the longest common subsequence of a
// and b, computed with two rolling rows.
func commonSubsequence(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Closest returns the reference name with the smallest edit distance to
// name after folding. It is used to hint at typos in configuration.
func (r *CountryReference) Closest(name string) string {
	folded := strings.Join(matchTokens(name), " ")
	best, bestDist := "", -1
	for _, n := range r.names {
		d := levenshtein.ComputeDistance(folded, strings.Join(matchTokens(n), " "))
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// tokenSet returns the sorted, de-duplicated match tokens of s.
func tokenSet(s string) []string {
	tokens := matchTokens(s)
	sort.Strings(tokens)
	return slices.Compact(tokens)
}

// matchTokens folds s and splits it on anything that is not a letter or digit.
func matchTokens(s string) []string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripAccents, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

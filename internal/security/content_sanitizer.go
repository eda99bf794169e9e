// Package security cleans user-supplied thread text before it is stored.
//
// Bodies keep a user-generated-content subset of HTML; titles keep no markup at
// all. Both strip the configured blocked terms.
package security

import (
	"fmt"
	"html"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

// ContentSanitizer returns a cleaned copy of text. Implementations are pure:
// the same input always yields the same output and cleaning twice is a no-op.
type ContentSanitizer interface {
	Sanitize(text string) string
}

// Sanitizer applies a bluemonday policy followed by blocked-term removal.
type Sanitizer struct {
	policy  *bluemonday.Policy
	blocked *termMatcher
	plain   bool
}

// NewContentSanitizer builds the sanitizer for thread bodies.
func NewContentSanitizer(blocked []string) *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		policy:  p,
		blocked: compileBlocked(blocked),
	}
}

// NewTitleSanitizer builds the sanitizer for titles. All markup is dropped and
// entities are decoded so "Tom & Jerry" is stored as typed.
func NewTitleSanitizer(blocked []string) *Sanitizer {
	return &Sanitizer{
		policy:  bluemonday.StrictPolicy(),
		blocked: compileBlocked(blocked),
		plain:   true,
	}
}

// Sanitize implements ContentSanitizer. Titles are re-cleaned until stable:
// each unescape can expose markup encoded one layer deeper. A pass that
// changes a title always shortens it, so the loop ends.
func (s *Sanitizer) Sanitize(text string) string {
	out := s.clean(text)
	if !s.plain {
		return out
	}
	for {
		next := s.clean(out)
		if next == out {
			return out
		}
		out = next
	}
}

func (s *Sanitizer) clean(text string) string {
	out := s.policy.Sanitize(text)
	if s.plain {
		out = html.UnescapeString(out)
	}
	out = s.blocked.strip(out)
	if s.plain {
		out = strings.TrimSpace(out)
	}
	return out
}

// termMatcher removes blocked terms that stand as whole words. Word
// boundaries are Unicode-aware; terms written in scripts without spaces
// between words (Han, kana, Thai) match anywhere.
type termMatcher struct {
	re *regexp.Regexp
}

// compileBlocked returns a case-insensitive matcher for terms, or nil when
// there is nothing to block.
func compileBlocked(terms []string) *termMatcher {
	terms = normalizeTerms(terms)
	if len(terms) == 0 {
		return nil
	}
	// Longest first so overlapping terms remove the longer phrase.
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return &termMatcher{re: regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)}
}

func (m *termMatcher) strip(text string) string {
	if m == nil {
		return text
	}
	var b strings.Builder
	kept, from := 0, 0
	for from < len(text) {
		loc := m.re.FindStringIndex(text[from:])
		if loc == nil {
			break
		}
		start, end := from+loc[0], from+loc[1]
		if !standsAlone(text, start, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			from = start + size
			continue
		}
		b.WriteString(text[kept:start])
		kept, from = end, end
	}
	if kept == 0 {
		return text
	}
	b.WriteString(text[kept:])
	return b.String()
}

// standsAlone reports whether text[start:end] is not part of a longer word.
func standsAlone(text string, start, end int) bool {
	if unsegmented(text[start:end]) {
		return true
	}
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func unsegmented(term string) bool {
	for _, r := range term {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Thai) {
			return true
		}
	}
	return false
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

type blockedTermsFile struct {
	BlockedTerms []string `yaml:"blocked_terms"`
}

// LoadBlockedTerms reads the blocked-term list from a YAML file of the form
//
//	blocked_terms:
//	  - spam
//	  - casino
//
// An empty path yields no terms.
func LoadBlockedTerms(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blocked terms: %w", err)
	}
	var f blockedTermsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse blocked terms %s: %w", path, err)
	}
	return normalizeTerms(f.BlockedTerms), nil
}

var excerptPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Excerpt returns the first n runes of the text content of body, with
// whitespace collapsed.
func Excerpt(body string, n int) string {
	if n <= 0 {
		return ""
	}
	text := html.UnescapeString(excerptPolicy.Sanitize(body))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

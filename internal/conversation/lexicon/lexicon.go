// Package lexicon holds the keyword tables that drive intent classification and
// field extraction, and the matcher that applies them to user text.
package lexicon

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MatchMode selects how a term is looked up in an utterance.
type MatchMode string

const (
	// MatchSubstring is raw containment on the lowercased utterance.
	MatchSubstring MatchMode = "substring"
	// MatchWholeWord matches terms on token boundaries. Terms marked as idioms
	// still match by containment on the normalized text.
	MatchWholeWord MatchMode = "whole_word"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case MatchSubstring:
		return MatchSubstring, nil
	case MatchWholeWord, "":
		return MatchWholeWord, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// Normalize lowercases s, composes combining accents and collapses whitespace.
// Accents are kept: "qué" and "que" are different words.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(strings.ToLower(s))), " ")
}

// Tokenize splits normalized text on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Text is an utterance prepared once for repeated lookups.
type Text struct {
	Raw        string
	lower      string
	normalized string
	tokens     []string
}

func Prepare(raw string) Text {
	return Text{
		Raw:        raw,
		lower:      strings.ToLower(strings.TrimSpace(raw)),
		normalized: Normalize(raw),
		tokens:     Tokenize(raw),
	}
}

func (t Text) HasDigit() bool {
	return strings.IndexFunc(t.Raw, unicode.IsDigit) >= 0
}

func (t Text) Tokens() []string {
	return append([]string(nil), t.tokens...)
}

type term struct {
	text       string
	lower      string
	normalized string
	tokens     []string
	idiom      bool
}

func newTerm(s string, idiom bool) term {
	return term{
		text:       s,
		lower:      strings.ToLower(strings.TrimSpace(s)),
		normalized: Normalize(s),
		tokens:     Tokenize(s),
		idiom:      idiom,
	}
}

// List is an immutable ordered set of terms.
type List struct {
	terms []term
}

// NewList builds a list of plain terms followed by idioms.
func NewList(words []string, idioms ...string) List {
	l := List{terms: make([]term, 0, len(words)+len(idioms))}
	for _, w := range words {
		l.terms = append(l.terms, newTerm(w, false))
	}
	for _, w := range idioms {
		l.terms = append(l.terms, newTerm(w, true))
	}
	return l
}

func (l List) Len() int { return len(l.terms) }

// Terms returns the original spelling of every term.
func (l List) Terms() []string {
	out := make([]string, len(l.terms))
	for i, t := range l.terms {
		out[i] = t.text
	}
	return out
}

// Idioms returns the terms matched by containment in whole-word mode.
func (l List) Idioms() []string {
	var out []string
	for _, t := range l.terms {
		if t.idiom {
			out = append(out, t.text)
		}
	}
	return out
}

func (l List) hasToken(tok string) bool {
	for _, t := range l.terms {
		if len(t.tokens) == 1 && t.tokens[0] == tok {
			return true
		}
	}
	return false
}

// Matcher applies lists to prepared text.
type Matcher struct {
	Mode MatchMode
	// Negators suppress a whole-word match of a term that directly follows them,
	// so "no me interesa" does not count as "me interesa".
	Negators List
}

func NewMatcher(mode MatchMode, negators List) Matcher {
	return Matcher{Mode: mode, Negators: negators}
}

// Contains reports whether any term of l occurs in t.
func (m Matcher) Contains(t Text, l List) bool {
	_, ok := m.First(t, l)
	return ok
}

// First returns the first term of l, in list order, that occurs in t.
func (m Matcher) First(t Text, l List) (string, bool) {
	return m.FirstUnless(t, l, List{})
}

// ContainsUnless is Contains with extra tokens that, in whole-word mode, cancel a
// term when they directly precede it.
func (m Matcher) ContainsUnless(t Text, l List, suppressors List) bool {
	_, ok := m.FirstUnless(t, l, suppressors)
	return ok
}

func (m Matcher) FirstUnless(t Text, l List, suppressors List) (string, bool) {
	for _, tm := range l.terms {
		if m.matches(t, tm, suppressors) {
			return tm.text, true
		}
	}
	return "", false
}

func (m Matcher) matches(t Text, tm term, suppressors List) bool {
	if m.Mode == MatchSubstring {
		return tm.lower != "" && strings.Contains(t.lower, tm.lower)
	}
	if tm.idiom {
		return tm.normalized != "" && strings.Contains(t.normalized, tm.normalized)
	}
	n := len(tm.tokens)
	if n == 0 {
		return false
	}
	for i := 0; i+n <= len(t.tokens); i++ {
		if !equalTokens(t.tokens[i:i+n], tm.tokens) {
			continue
		}
		if i > 0 && (m.Negators.hasToken(t.tokens[i-1]) || suppressors.hasToken(t.tokens[i-1])) {
			continue
		}
		return true
	}
	return false
}

func equalTokens(a, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

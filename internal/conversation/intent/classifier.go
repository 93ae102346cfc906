// Package intent classifies a single user utterance into one of the fixed intents.
package intent

import (
	"github.com/josephinoo/agent-bg/internal/conversation/lexicon"
	"github.com/josephinoo/agent-bg/internal/models"
)

// Classifier is safe for concurrent use; it holds only immutable tables.
type Classifier struct {
	lex     *lexicon.Set
	matcher lexicon.Matcher
}

func NewClassifier(lex *lexicon.Set, mode lexicon.MatchMode) *Classifier {
	if lex == nil {
		lex = lexicon.Spanish()
	}
	return &Classifier{
		lex:     lex,
		matcher: lexicon.NewMatcher(mode, lex.Negators),
	}
}

func (c *Classifier) Mode() lexicon.MatchMode {
	return c.matcher.Mode
}

// Classify evaluates the lexicons in strict priority order; the first hit wins.
func (c *Classifier) Classify(text string, step models.Step) models.Intent {
	t := lexicon.Prepare(text)

	switch {
	case c.matcher.Contains(t, c.lex.Positive):
		return models.IntentPositive
	case c.matcher.Contains(t, c.lex.Negative):
		return models.IntentNegative
	case c.matcher.Contains(t, c.lex.InfoRequest):
		return models.IntentRequestInfo
	case c.matcher.Contains(t, c.lex.Objection):
		return models.IntentObjection
	case step.IsNumericCollection() && t.HasDigit():
		// numbers at a collection step carry data, not a signal
		return models.IntentNeutral
	case c.lex.EmploymentAny(c.matcher, t):
		return models.IntentNeutral
	}
	return models.IntentUnclear
}

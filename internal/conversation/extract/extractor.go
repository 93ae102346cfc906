// Package extract pulls qualification fields out of free text.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/josephinoo/agent-bg/internal/conversation/lexicon"
	"github.com/josephinoo/agent-bg/internal/models"
)

// numberPattern runs after comma grouping has been removed, so "2,500.50" reads as 2500.50.
var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Numbers returns every number in text in order of appearance.
func Numbers(text string) []float64 {
	matches := numberPattern.FindAllString(strings.ReplaceAll(text, ",", ""), -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FirstNumber is the plain regex fallback used when a typed extraction finds nothing.
func FirstNumber(text string) (float64, bool) {
	nums := Numbers(text)
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

type Extractor struct {
	lex     *lexicon.Set
	matcher lexicon.Matcher
}

func NewExtractor(lex *lexicon.Set, mode lexicon.MatchMode) *Extractor {
	if lex == nil {
		lex = lexicon.Spanish()
	}
	return &Extractor{
		lex:     lex,
		matcher: lexicon.NewMatcher(mode, lex.Negators),
	}
}

// Income uses the average of a stated range, otherwise the first number.
func (e *Extractor) Income(text string) (float64, bool) {
	nums := Numbers(text)
	if len(nums) == 0 {
		return 0, false
	}
	if len(nums) >= 2 && e.isRange(text) {
		return (nums[0] + nums[1]) / 2, true
	}
	return nums[0], true
}

// Amount uses the upper bound of a stated range, otherwise the first number.
func (e *Extractor) Amount(text string) (float64, bool) {
	nums := Numbers(text)
	if len(nums) == 0 {
		return 0, false
	}
	if len(nums) >= 2 && e.isRange(text) {
		if nums[1] > nums[0] {
			return nums[1], true
		}
		return nums[0], true
	}
	return nums[0], true
}

// Employment returns the first category, in priority order, whose terms appear in text.
func (e *Extractor) Employment(text string) (string, bool) {
	t := lexicon.Prepare(text)
	for _, c := range e.lex.Employment {
		if c.Matches(e.matcher, t) {
			return c.Name, true
		}
	}
	return "", false
}

// ForStep applies the extractor that belongs to step and records the value in data.
// It returns the names of the fields it wrote.
func (e *Extractor) ForStep(step models.Step, text string, data *models.CollectedData) []string {
	switch step {
	case models.StepCollectIncome:
		if v, ok := e.Income(text); ok {
			data.SetMonthlyIncome(v)
			return []string{models.FieldMonthlyIncome}
		}
	case models.StepCollectEmployment:
		if v, ok := e.Employment(text); ok {
			data.EmploymentType = v
			return []string{models.FieldEmploymentType}
		}
	case models.StepCollectAmount:
		if v, ok := e.Amount(text); ok {
			data.SetRequestedAmount(v)
			return []string{models.FieldRequestedAmount}
		}
	}
	return nil
}

func (e *Extractor) isRange(text string) bool {
	return e.matcher.Contains(lexicon.Prepare(text), e.lex.RangeMarkers)
}

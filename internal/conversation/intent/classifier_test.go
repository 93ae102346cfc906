package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephinoo/agent-bg/internal/conversation/lexicon"
	"github.com/josephinoo/agent-bg/internal/models"
)

func TestClassify_Priority(t *testing.T) {
	c := NewClassifier(lexicon.Spanish(), lexicon.MatchWholeWord)

	tests := []struct {
		name string
		text string
		step models.Step
		want models.Intent
	}{
		{name: "positive", text: "Sí, me interesa", step: models.StepGreeting, want: models.IntentPositive},
		{name: "negative", text: "no gracias", step: models.StepGreeting, want: models.IntentNegative},
		{name: "info request", text: "¿Qué beneficios tiene?", step: models.StepPresentOffer, want: models.IntentRequestInfo},
		{name: "objection", text: "me parece muy caro", step: models.StepPresentOffer, want: models.IntentObjection},
		{name: "positive beats objection", text: "perfecto, aunque tengo dudas", step: models.StepPresentOffer, want: models.IntentPositive},
		{name: "digits at income step", text: "gano 2500 al mes", step: models.StepCollectIncome, want: models.IntentNeutral},
		{name: "digits at amount step", text: "unos 5000", step: models.StepCollectAmount, want: models.IntentNeutral},
		{name: "digits elsewhere", text: "2500", step: models.StepPresentOffer, want: models.IntentUnclear},
		{name: "employment mention", text: "soy empleado en una oficina", step: models.StepCollectEmployment, want: models.IntentNeutral},
		{name: "nothing recognised", text: "hola", step: models.StepGreeting, want: models.IntentUnclear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text, tt.step))
		})
	}
}

// The two match modes disagree on these utterances; substring mode keeps the
// legacy containment behaviour.
func TestClassify_MatchModeDivergence(t *testing.T) {
	substring := NewClassifier(lexicon.Spanish(), lexicon.MatchSubstring)
	wholeWord := NewClassifier(lexicon.Spanish(), lexicon.MatchWholeWord)

	tests := []struct {
		name          string
		text          string
		step          models.Step
		wantSubstring models.Intent
		wantWholeWord models.Intent
	}{
		{
			name:          "no inside bueno",
			text:          "bueno",
			step:          models.StepGreeting,
			wantSubstring: models.IntentNegative,
			wantWholeWord: models.IntentUnclear,
		},
		{
			name:          "negated interest",
			text:          "no me interesa",
			step:          models.StepGreeting,
			wantSubstring: models.IntentPositive,
			wantWholeWord: models.IntentNegative,
		},
		{
			name:          "si inside casi",
			text:          "casi nunca",
			step:          models.StepGreeting,
			wantSubstring: models.IntentPositive,
			wantWholeWord: models.IntentUnclear,
		},
		{
			name:          "ok inside token",
			text:          "tokens",
			step:          models.StepPresentOffer,
			wantSubstring: models.IntentPositive,
			wantWholeWord: models.IntentUnclear,
		},
		{
			name:          "unemployed contains employed",
			text:          "desempleado",
			step:          models.StepCollectEmployment,
			wantSubstring: models.IntentNeutral,
			wantWholeWord: models.IntentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSubstring, substring.Classify(tt.text, tt.step), "substring")
			assert.Equal(t, tt.wantWholeWord, wholeWord.Classify(tt.text, tt.step), "whole word")
		})
	}
}

func TestClassify_IdiomMatchesByContainment(t *testing.T) {
	c := NewClassifier(lexicon.Spanish(), lexicon.MatchWholeWord)

	assert.Equal(t, models.IntentNegative, c.Classify("déjame pensarlo bien", models.StepAwaitingDecision))
	assert.Equal(t, models.IntentRequestInfo, c.Classify("dame más infos", models.StepPresentOffer))
}

func TestClassify_InjectedLexicon(t *testing.T) {
	english := &lexicon.Set{
		Positive: lexicon.NewList([]string{"yes"}),
		Negative: lexicon.NewList([]string{"no"}),
	}
	c := NewClassifier(english, lexicon.MatchWholeWord)

	assert.Equal(t, models.IntentPositive, c.Classify("yes please", models.StepGreeting))
	assert.Equal(t, models.IntentUnclear, c.Classify("sí", models.StepGreeting))
	assert.Equal(t, lexicon.MatchWholeWord, c.Mode())
}

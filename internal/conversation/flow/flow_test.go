package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephinoo/agent-bg/internal/models"
)

func data(income *float64, employment string, amount *float64) models.CollectedData {
	return models.CollectedData{MonthlyIncome: income, EmploymentType: employment, RequestedAmount: amount}
}

func num(v float64) *float64 { return &v }

func fullData() models.CollectedData {
	return data(num(2500), models.EmploymentEmployee, num(10000))
}

func TestNext_NegativeOverridesEveryStep(t *testing.T) {
	for _, step := range models.AllSteps() {
		t.Run(string(step), func(t *testing.T) {
			assert.Equal(t, models.StepCloseNegative, Next(step, models.IntentNegative, fullData()))
		})
	}
}

func TestNext_Table(t *testing.T) {
	empty := models.CollectedData{}

	tests := []struct {
		name   string
		step   models.Step
		intent models.Intent
		data   models.CollectedData
		want   models.Step
	}{
		{"greeting accepted", models.StepGreeting, models.IntentPositive, empty, models.StepCollectIncome},
		{"greeting unclear", models.StepGreeting, models.IntentUnclear, empty, models.StepRequestClarification},
		{"greeting info", models.StepGreeting, models.IntentRequestInfo, empty, models.StepRequestClarification},

		{"income missing", models.StepCollectIncome, models.IntentNeutral, empty, models.StepCollectIncome},
		{"income too low", models.StepCollectIncome, models.IntentNeutral, data(num(300), "", nil), models.StepCollectIncome},
		{"income too high", models.StepCollectIncome, models.IntentNeutral, data(num(60000), "", nil), models.StepCollectIncome},
		{"income lower bound", models.StepCollectIncome, models.IntentNeutral, data(num(500), "", nil), models.StepCollectEmployment},
		{"income upper bound", models.StepCollectIncome, models.IntentNeutral, data(num(50000), "", nil), models.StepCollectEmployment},

		{"employment missing", models.StepCollectEmployment, models.IntentUnclear, data(num(2500), "", nil), models.StepCollectEmployment},
		{"employment unknown", models.StepCollectEmployment, models.IntentNeutral, data(num(2500), "astronaut", nil), models.StepCollectEmployment},
		{"employment valid", models.StepCollectEmployment, models.IntentNeutral, data(num(2500), models.EmploymentRetired, nil), models.StepCollectAmount},

		{"amount zero", models.StepCollectAmount, models.IntentNeutral, data(num(2500), models.EmploymentEmployee, num(0)), models.StepCollectAmount},
		{"amount too high", models.StepCollectAmount, models.IntentNeutral, data(num(2500), models.EmploymentEmployee, num(100001)), models.StepCollectAmount},
		{"amount valid", models.StepCollectAmount, models.IntentNeutral, fullData(), models.StepPresentOffer},

		{"offer accepted", models.StepPresentOffer, models.IntentPositive, fullData(), models.StepAwaitingDecision},
		{"offer details", models.StepPresentOffer, models.IntentRequestInfo, fullData(), models.StepPresentOffer},
		{"offer objection", models.StepPresentOffer, models.IntentObjection, fullData(), models.StepHandleObjection},
		{"offer unclear", models.StepPresentOffer, models.IntentUnclear, fullData(), models.StepRequestClarification},

		{"decision yes", models.StepAwaitingDecision, models.IntentPositive, fullData(), models.StepClosePositive},
		{"decision pending", models.StepAwaitingDecision, models.IntentUnclear, fullData(), models.StepAwaitingDecision},

		{"objection resolved", models.StepHandleObjection, models.IntentPositive, fullData(), models.StepAwaitingDecision},
		{"objection wants details", models.StepHandleObjection, models.IntentRequestInfo, fullData(), models.StepPresentOffer},
		{"objection persists", models.StepHandleObjection, models.IntentObjection, fullData(), models.StepCloseNegative},

		{"clarify income", models.StepRequestClarification, models.IntentUnclear, empty, models.StepCollectIncome},
		{"clarify employment", models.StepRequestClarification, models.IntentPositive, data(num(2500), "", nil), models.StepCollectEmployment},
		{"clarify amount", models.StepRequestClarification, models.IntentPositive, data(num(2500), models.EmploymentStudent, nil), models.StepCollectAmount},
		{"clarify complete", models.StepRequestClarification, models.IntentPositive, fullData(), models.StepPresentOffer},

		{"after close", models.StepClosePositive, models.IntentPositive, fullData(), models.StepError},
		{"after completed", models.StepCompleted, models.IntentUnclear, fullData(), models.StepError},
		{"unknown step", models.Step("collect_budget"), models.IntentPositive, fullData(), models.StepError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.step, tt.intent, tt.data))
		})
	}
}

// Every step must resolve to a known step for every intent.
func TestNext_Exhaustive(t *testing.T) {
	for _, step := range models.AllSteps() {
		for _, in := range models.AllIntents() {
			next := Next(step, in, fullData())
			_, ok := models.ParseStep(string(next))
			assert.True(t, ok, "%s/%s -> %q", step, in, next)
			if !step.IsTerminal() && in != models.IntentNegative {
				assert.NotEqual(t, models.StepError, next, "%s/%s fell through", step, in)
			}
		}
	}
}

func TestValidateStep(t *testing.T) {
	r := ValidateStep(models.StepCollectIncome, models.CollectedData{})
	assert.False(t, r.Valid)
	assert.Equal(t, []string{models.FieldMonthlyIncome}, r.Fields)
	assert.Contains(t, r.Reason, models.FieldMonthlyIncome)

	r = ValidateStep(models.StepCollectIncome, data(num(100), "", nil))
	assert.False(t, r.Valid)
	assert.Contains(t, r.Reason, "$500")

	r = ValidateStep(models.StepCollectEmployment, data(nil, "pilot", nil))
	assert.False(t, r.Valid)
	assert.Equal(t, []string{models.FieldEmploymentType}, r.Fields)

	r = ValidateStep(models.StepCollectAmount, data(nil, "", num(-5)))
	assert.False(t, r.Valid)

	assert.True(t, ValidateStep(models.StepCollectAmount, data(nil, "", num(100000))).Valid)
	assert.True(t, ValidateStep(models.StepGreeting, models.CollectedData{}).Valid)
}

func TestValidateAll(t *testing.T) {
	r := ValidateAll(data(num(2500), "", num(200000)))
	assert.False(t, r.Valid)
	assert.Equal(t, []string{models.FieldEmploymentType, models.FieldRequestedAmount}, r.Fields)

	assert.True(t, ValidateAll(fullData()).Valid)
}

func TestDataCompleteness(t *testing.T) {
	tests := []struct {
		name string
		data models.CollectedData
		want int
	}{
		{"none", models.CollectedData{}, 0},
		{"one", data(num(2500), "", nil), 33},
		{"two", data(num(2500), models.EmploymentEmployee, nil), 67},
		{"three", fullData(), 100},
		{"invalid values do not count", data(num(100), "pilot", num(5000)), 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DataCompleteness(tt.data))
		})
	}
}

func TestComputeProgress(t *testing.T) {
	p := ComputeProgress(models.StepCollectEmployment, data(num(2500), "", nil))
	assert.Equal(t, 28, p.ProgressPercentage)
	assert.Equal(t, 33, p.DataCompleteness)
	assert.Equal(t, 1, p.CollectedFields)
	assert.Equal(t, 3, p.TotalFields)
	assert.False(t, p.IsComplete)

	assert.Equal(t, 0, ProgressPercentage(models.StepGreeting))
	assert.Equal(t, 85, ProgressPercentage(models.StepClosePositive))
	assert.Equal(t, 50, ProgressPercentage(models.StepHandleObjection))

	assert.True(t, ComputeProgress(models.StepClosePositive, fullData()).IsComplete)
}

func TestComputeProgress_CompleteMeansTerminalStep(t *testing.T) {
	tests := []struct {
		step     models.Step
		data     models.CollectedData
		complete bool
	}{
		{step: models.StepPresentOffer, data: fullData(), complete: false},
		{step: models.StepAwaitingDecision, data: fullData(), complete: false},
		{step: models.StepCloseNegative, data: data(nil, "", nil), complete: true},
		{step: models.StepError, data: data(num(2500), "", nil), complete: true},
		{step: models.StepCompleted, data: fullData(), complete: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			assert.Equal(t, tt.complete, ComputeProgress(tt.step, tt.data).IsComplete)
		})
	}
}

package flow

import (
	"math"

	"github.com/josephinoo/agent-bg/internal/models"
)

// offPathProgress is reported for steps outside the canonical order.
const offPathProgress = 50

// CanonicalOrder is the happy path used to report progress.
func CanonicalOrder() []models.Step {
	return []models.Step{
		models.StepGreeting,
		models.StepCollectIncome,
		models.StepCollectEmployment,
		models.StepCollectAmount,
		models.StepPresentOffer,
		models.StepAwaitingDecision,
		models.StepClosePositive,
	}
}

// ValidFieldCount counts the required fields that are present and pass validation.
func ValidFieldCount(d models.CollectedData) int {
	n := 0
	for _, ok := range []bool{IncomeValid(d), EmploymentValid(d), AmountValid(d)} {
		if ok {
			n++
		}
	}
	return n
}

// DataCompleteness is the rounded percentage of valid required fields.
func DataCompleteness(d models.CollectedData) int {
	total := len(models.RequiredFields())
	return int(math.Round(float64(ValidFieldCount(d)) * 100 / float64(total)))
}

func ProgressPercentage(step models.Step) int {
	order := CanonicalOrder()
	for i, s := range order {
		if s == step {
			return i * 100 / len(order)
		}
	}
	return offPathProgress
}

func ComputeProgress(step models.Step, d models.CollectedData) models.Progress {
	completeness := DataCompleteness(d)
	return models.Progress{
		CurrentStep:        step,
		ProgressPercentage: ProgressPercentage(step),
		DataCompleteness:   completeness,
		IsComplete:         step.IsTerminal(),
		CollectedFields:    ValidFieldCount(d),
		TotalFields:        len(models.RequiredFields()),
	}
}

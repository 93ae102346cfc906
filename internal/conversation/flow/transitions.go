// Package flow holds the conversation state machine: step contracts, the
// transition function and progress metrics.
package flow

import "github.com/josephinoo/agent-bg/internal/models"

// Next computes the step that follows current given the classified intent and the
// data collected so far. A negative intent closes the conversation from any step.
func Next(current models.Step, intent models.Intent, data models.CollectedData) models.Step {
	if intent == models.IntentNegative {
		return models.StepCloseNegative
	}

	switch current {
	case models.StepGreeting:
		if intent == models.IntentPositive {
			return models.StepCollectIncome
		}
		return models.StepRequestClarification

	case models.StepCollectIncome:
		if IncomeValid(data) {
			return models.StepCollectEmployment
		}
		return models.StepCollectIncome

	case models.StepCollectEmployment:
		if EmploymentValid(data) {
			return models.StepCollectAmount
		}
		return models.StepCollectEmployment

	case models.StepCollectAmount:
		if AmountValid(data) {
			return models.StepPresentOffer
		}
		return models.StepCollectAmount

	case models.StepPresentOffer:
		switch intent {
		case models.IntentPositive:
			return models.StepAwaitingDecision
		case models.IntentRequestInfo:
			return models.StepPresentOffer
		case models.IntentObjection:
			return models.StepHandleObjection
		}
		return models.StepRequestClarification

	case models.StepAwaitingDecision:
		if intent == models.IntentPositive {
			return models.StepClosePositive
		}
		return models.StepAwaitingDecision

	case models.StepHandleObjection:
		switch intent {
		case models.IntentPositive:
			return models.StepAwaitingDecision
		case models.IntentRequestInfo:
			return models.StepPresentOffer
		}
		return models.StepCloseNegative

	case models.StepRequestClarification:
		return firstIncompleteStep(data)

	case models.StepClosePositive, models.StepCloseNegative, models.StepCompleted, models.StepError:
		return models.StepError
	}
	return models.StepError
}

func firstIncompleteStep(data models.CollectedData) models.Step {
	switch {
	case !IncomeValid(data):
		return models.StepCollectIncome
	case !EmploymentValid(data):
		return models.StepCollectEmployment
	case !AmountValid(data):
		return models.StepCollectAmount
	}
	return models.StepPresentOffer
}

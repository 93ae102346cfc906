// internal/models/step.go
package models

// Step is a named state of the conversation state machine.
type Step string

const (
	StepGreeting             Step = "greeting"
	StepCollectIncome        Step = "collect_income"
	StepCollectEmployment    Step = "collect_employment"
	StepCollectAmount        Step = "collect_amount"
	StepPresentOffer         Step = "present_offer"
	StepAwaitingDecision     Step = "awaiting_decision"
	StepHandleObjection      Step = "handle_objection"
	StepRequestClarification Step = "request_clarification"
	StepClosePositive        Step = "close_positive"
	StepCloseNegative        Step = "close_negative"
	StepCompleted            Step = "completed"
	StepError                Step = "error"
)

// AllSteps returns every step in declaration order.
func AllSteps() []Step {
	return []Step{
		StepGreeting,
		StepCollectIncome,
		StepCollectEmployment,
		StepCollectAmount,
		StepPresentOffer,
		StepAwaitingDecision,
		StepHandleObjection,
		StepRequestClarification,
		StepClosePositive,
		StepCloseNegative,
		StepCompleted,
		StepError,
	}
}

// ParseStep maps a persisted step name back to a Step.
func ParseStep(s string) (Step, bool) {
	for _, step := range AllSteps() {
		if string(step) == s {
			return step, true
		}
	}
	return "", false
}

// IsTerminal reports whether the conversation has logically ended at this step.
func (s Step) IsTerminal() bool {
	switch s {
	case StepClosePositive, StepCloseNegative, StepCompleted, StepError:
		return true
	}
	return false
}

// IsNumericCollection reports whether the step expects a number from the contact.
func (s Step) IsNumericCollection() bool {
	return s == StepCollectIncome || s == StepCollectAmount
}

func (s Step) Display() string {
	switch s {
	case StepGreeting:
		return "Saludo inicial"
	case StepCollectIncome:
		return "Recolección de ingresos"
	case StepCollectEmployment:
		return "Información laboral"
	case StepCollectAmount:
		return "Monto solicitado"
	case StepPresentOffer:
		return "Presentación de oferta"
	case StepAwaitingDecision:
		return "Esperando decisión"
	case StepHandleObjection:
		return "Manejo de objeciones"
	case StepRequestClarification:
		return "Solicitud de aclaración"
	case StepClosePositive:
		return "Cierre positivo"
	case StepCloseNegative:
		return "Cierre negativo"
	case StepCompleted:
		return "Completado"
	case StepError:
		return "Error"
	}
	return string(s)
}

// Intent is the classified communicative purpose of one utterance.
type Intent string

const (
	IntentPositive    Intent = "positive"
	IntentNegative    Intent = "negative"
	IntentNeutral     Intent = "neutral"
	IntentRequestInfo Intent = "request_info"
	IntentObjection   Intent = "objection"
	IntentUnclear     Intent = "unclear"
)

func AllIntents() []Intent {
	return []Intent{IntentPositive, IntentNegative, IntentNeutral, IntentRequestInfo, IntentObjection, IntentUnclear}
}

func ParseIntent(s string) (Intent, bool) {
	for _, in := range AllIntents() {
		if string(in) == s {
			return in, true
		}
	}
	return "", false
}

// Confirmation maps an intent onto the tri-state intent_confirmed flag.
func (i Intent) Confirmation() *bool {
	switch i {
	case IntentPositive:
		v := true
		return &v
	case IntentNegative:
		v := false
		return &v
	}
	return nil
}

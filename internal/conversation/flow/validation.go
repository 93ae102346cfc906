package flow

import (
	"fmt"

	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	MinMonthlyIncome   = 500.0
	MaxMonthlyIncome   = 50000.0
	MaxRequestedAmount = 100000.0
)

// ValidationResult never carries an error: a failed check feeds the step's self-loop.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Reason string   `json:"reason,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func IncomeValid(d models.CollectedData) bool {
	return d.MonthlyIncome != nil && *d.MonthlyIncome >= MinMonthlyIncome && *d.MonthlyIncome <= MaxMonthlyIncome
}

func EmploymentValid(d models.CollectedData) bool {
	return models.IsEmploymentType(d.EmploymentType)
}

func AmountValid(d models.CollectedData) bool {
	return d.RequestedAmount != nil && *d.RequestedAmount > 0 && *d.RequestedAmount <= MaxRequestedAmount
}

// ValidateStep checks the data contract of step. Steps without a contract always pass.
func ValidateStep(step models.Step, d models.CollectedData) ValidationResult {
	switch step {
	case models.StepCollectIncome:
		return validateIncome(d)
	case models.StepCollectEmployment:
		return validateEmployment(d)
	case models.StepCollectAmount:
		return validateAmount(d)
	}
	return ValidationResult{Valid: true}
}

// ValidateAll checks the three qualification fields together.
func ValidateAll(d models.CollectedData) ValidationResult {
	out := ValidationResult{Valid: true}
	for _, r := range []ValidationResult{validateIncome(d), validateEmployment(d), validateAmount(d)} {
		if r.Valid {
			continue
		}
		if out.Valid {
			out.Reason = r.Reason
		}
		out.Valid = false
		out.Fields = append(out.Fields, r.Fields...)
	}
	return out
}

func validateIncome(d models.CollectedData) ValidationResult {
	if d.MonthlyIncome == nil {
		return missing(models.FieldMonthlyIncome)
	}
	if !IncomeValid(d) {
		return ValidationResult{
			Reason: fmt.Sprintf("El ingreso mensual debe estar entre $%.0f y $%.0f", MinMonthlyIncome, MaxMonthlyIncome),
			Fields: []string{models.FieldMonthlyIncome},
		}
	}
	return ValidationResult{Valid: true}
}

func validateEmployment(d models.CollectedData) ValidationResult {
	if d.EmploymentType == "" {
		return missing(models.FieldEmploymentType)
	}
	if !EmploymentValid(d) {
		return ValidationResult{
			Reason: fmt.Sprintf("Tipo de empleo no reconocido: %s", d.EmploymentType),
			Fields: []string{models.FieldEmploymentType},
		}
	}
	return ValidationResult{Valid: true}
}

func validateAmount(d models.CollectedData) ValidationResult {
	if d.RequestedAmount == nil {
		return missing(models.FieldRequestedAmount)
	}
	if !AmountValid(d) {
		return ValidationResult{
			Reason: fmt.Sprintf("El monto solicitado debe ser mayor a $0 y hasta $%.0f", MaxRequestedAmount),
			Fields: []string{models.FieldRequestedAmount},
		}
	}
	return ValidationResult{Valid: true}
}

func missing(field string) ValidationResult {
	return ValidationResult{
		Reason: fmt.Sprintf("Campo requerido faltante: %s", field),
		Fields: []string{field},
	}
}

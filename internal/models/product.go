// internal/models/product.go
package models

// ProductType identifies the financial product a campaign sells.
type ProductType string

const (
	ProductCreditCard     ProductType = "credit_card"
	ProductPersonalCredit ProductType = "credit"
	ProductInsurance      ProductType = "insurance"
	ProductSavings        ProductType = "savings"
)

func AllProducts() []ProductType {
	return []ProductType{ProductCreditCard, ProductPersonalCredit, ProductInsurance, ProductSavings}
}

// ParseProduct accepts the campaign product names, including the aliases used by
// older campaigns ("personal_credit", "personal_loan").
func ParseProduct(s string) (ProductType, bool) {
	switch s {
	case "credit_card":
		return ProductCreditCard, true
	case "credit", "personal_credit", "personal_loan":
		return ProductPersonalCredit, true
	case "insurance":
		return ProductInsurance, true
	case "savings":
		return ProductSavings, true
	}
	return "", false
}

func (p ProductType) Display() string {
	switch p {
	case ProductCreditCard:
		return "Tarjetas de Crédito"
	case ProductPersonalCredit:
		return "Créditos Personales"
	case ProductInsurance:
		return "Seguros"
	case ProductSavings:
		return "Cuentas de Ahorro"
	}
	return string(p)
}

// Segment is the customer segment used to adapt tone and scoring.
type Segment string

const (
	SegmentPremium  Segment = "premium"
	SegmentStandard Segment = "standard"
	SegmentBasic    Segment = "basic"
	SegmentYouth    Segment = "youth"
	SegmentSenior   Segment = "senior"
)

func AllSegments() []Segment {
	return []Segment{SegmentPremium, SegmentStandard, SegmentBasic, SegmentYouth, SegmentSenior}
}

// ParseSegment falls back to SegmentStandard for unknown values.
func ParseSegment(s string) Segment {
	for _, seg := range AllSegments() {
		if string(seg) == s {
			return seg
		}
	}
	return SegmentStandard
}

func (s Segment) Display() string {
	switch s {
	case SegmentPremium:
		return "Premium"
	case SegmentStandard:
		return "Estándar"
	case SegmentBasic:
		return "Básico"
	case SegmentYouth:
		return "Joven"
	case SegmentSenior:
		return "Senior"
	}
	return string(s)
}

// Employment categories accepted by the employment step.
const (
	EmploymentEmployee      = "employee"
	EmploymentBusinessOwner = "business_owner"
	EmploymentFreelancer    = "freelancer"
	EmploymentRetired       = "retired"
	EmploymentStudent       = "student"
	EmploymentUnemployed    = "unemployed"
)

// EmploymentTypes returns the categories in extraction priority order.
func EmploymentTypes() []string {
	return []string{
		EmploymentEmployee,
		EmploymentBusinessOwner,
		EmploymentFreelancer,
		EmploymentRetired,
		EmploymentStudent,
		EmploymentUnemployed,
	}
}

func IsEmploymentType(s string) bool {
	for _, e := range EmploymentTypes() {
		if e == s {
			return true
		}
	}
	return false
}

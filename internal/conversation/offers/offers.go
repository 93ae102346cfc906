package offers

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	benefitsShown = 3

	cardIncomeMultiplier = 5.0
	cardMaxLimit         = 15000.0
	cardPlatinumIncome   = 5000.0
	cardGoldIncome       = 2500.0

	creditIncomeMultiplier = 12.0
	creditMaxAmount        = 100000.0
	creditReferenceMonths  = 36.0

	insurancePremiumRate = 0.05

	savingsDepositRate = 0.15
	savingsAnnualRate  = 0.065
)

// Offer is the sized proposal for one product.
type Offer struct {
	Product        models.ProductType `json:"product_type"`
	Name           string             `json:"name"`
	MonthlyIncome  float64            `json:"monthly_income"`
	Recommended    float64            `json:"recommended_value"`
	MonthlyPayment float64            `json:"monthly_payment,omitempty"`
	AnnualYield    float64            `json:"annual_yield,omitempty"`
	Benefits       []string           `json:"benefits"`
}

// CardTier names the card that fits a monthly income.
func CardTier(income float64) string {
	switch {
	case income >= cardPlatinumIncome:
		return "Tarjeta Platinum"
	case income >= cardGoldIncome:
		return "Tarjeta Gold"
	}
	return "Tarjeta Classic"
}

// Calculate sizes the offer for product given the monthly income.
func (c *Catalog) Calculate(product models.ProductType, income float64) (Offer, error) {
	cfg, err := c.Config(product)
	if err != nil {
		return Offer{}, err
	}
	o := Offer{
		Product:       product,
		MonthlyIncome: income,
		Benefits:      cfg.TopBenefits(benefitsShown),
	}

	switch product {
	case models.ProductCreditCard:
		o.Name = CardTier(income)
		o.Recommended = math.Min(income*cardIncomeMultiplier, cardMaxLimit)
	case models.ProductPersonalCredit:
		o.Name = "Crédito Personal"
		o.Recommended = math.Min(income*creditIncomeMultiplier, creditMaxAmount)
		o.MonthlyPayment = o.Recommended / creditReferenceMonths
	case models.ProductInsurance:
		o.Name = "Seguro Integral"
		o.Recommended = income * insurancePremiumRate
	case models.ProductSavings:
		o.Name = "Cuenta de Ahorros"
		o.Recommended = income * savingsDepositRate
		o.AnnualYield = o.Recommended * 12 * savingsAnnualRate
	}
	return o, nil
}

// Describe renders the offer the way it is shown to the contact.
func Describe(o Offer) string {
	if o.MonthlyIncome <= 0 {
		return "Necesito conocer tus ingresos para darte la mejor recomendación."
	}
	benefits := JoinBenefits(o.Benefits)

	switch o.Product {
	case models.ProductCreditCard:
		return fmt.Sprintf("Con tus ingresos de $%s, te recomiendo nuestra %s con límite de hasta $%s, que incluye %s.",
			FormatMoney(o.MonthlyIncome), o.Name, FormatWhole(o.Recommended), benefits)
	case models.ProductPersonalCredit:
		return fmt.Sprintf("Puedo ofrecerte un crédito de hasta $%s con cuotas desde $%s mensuales, que incluye %s.",
			FormatWhole(o.Recommended), FormatWhole(o.MonthlyPayment), benefits)
	case models.ProductInsurance:
		return fmt.Sprintf("Te recomiendo nuestro seguro integral con prima mensual desde $%s, que incluye %s.",
			FormatWhole(o.Recommended), benefits)
	case models.ProductSavings:
		return fmt.Sprintf("Tu cuenta de ahorros con $%s mensuales generaría aproximadamente $%s al año, e incluye %s.",
			FormatWhole(o.Recommended), FormatWhole(o.AnnualYield), benefits)
	}
	return fmt.Sprintf("Te tengo una excelente opción con %s.", benefits)
}

// Headline is the one-line reminder used while the contact decides.
func Headline(o Offer) string {
	if o.MonthlyIncome <= 0 {
		return ""
	}
	switch o.Product {
	case models.ProductCreditCard:
		return fmt.Sprintf("%s con límite de hasta $%s", o.Name, FormatWhole(o.Recommended))
	case models.ProductPersonalCredit:
		return fmt.Sprintf("crédito de hasta $%s con cuotas desde $%s", FormatWhole(o.Recommended), FormatWhole(o.MonthlyPayment))
	case models.ProductInsurance:
		return fmt.Sprintf("seguro integral desde $%s al mes", FormatWhole(o.Recommended))
	case models.ProductSavings:
		return fmt.Sprintf("ahorro de $%s al mes con rendimiento aproximado de $%s al año", FormatWhole(o.Recommended), FormatWhole(o.AnnualYield))
	}
	return o.Name
}

// JoinBenefits joins items as "a, b y c".
func JoinBenefits(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " y " + items[len(items)-1]
}

// FormatWhole drops the fractional part and groups thousands: 15000.9 -> "15,000".
func FormatWhole(v float64) string {
	return humanize.Comma(int64(v))
}

// FormatMoney groups thousands and keeps two decimals only when the value has cents.
func FormatMoney(v float64) string {
	if v == math.Trunc(v) {
		return FormatWhole(v)
	}
	return humanize.FormatFloat("#,###.##", v)
}

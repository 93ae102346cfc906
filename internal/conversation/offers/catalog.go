// Package offers sizes a product offer from the contact's income and renders it as text.
package offers

import (
	"errors"
	"fmt"

	"github.com/josephinoo/agent-bg/internal/models"
)

var ErrUnknownProduct = errors.New("UNKNOWN_PRODUCT")

// ProductConfig is the fixed copy attached to one product. Benefits are ordered by relevance.
type ProductConfig struct {
	Benefits          []string
	AmountQuestion    string
	IncomeContext     string
	ObjectionTopic    string
	ObjectionResponse string
}

// TopBenefits returns at most n benefits in their configured order.
func (p ProductConfig) TopBenefits(n int) []string {
	if n > len(p.Benefits) {
		n = len(p.Benefits)
	}
	return append([]string(nil), p.Benefits[:n]...)
}

// Catalog holds one config per product. Treat it as read-only once built.
type Catalog struct {
	CreditCard     ProductConfig
	PersonalCredit ProductConfig
	Insurance      ProductConfig
	Savings        ProductConfig
}

func (c *Catalog) Config(p models.ProductType) (ProductConfig, error) {
	switch p {
	case models.ProductCreditCard:
		return c.CreditCard, nil
	case models.ProductPersonalCredit:
		return c.PersonalCredit, nil
	case models.ProductInsurance:
		return c.Insurance, nil
	case models.ProductSavings:
		return c.Savings, nil
	}
	return ProductConfig{}, fmt.Errorf("%w: %q", ErrUnknownProduct, p)
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		CreditCard: ProductConfig{
			Benefits: []string{
				"Sin anualidad el primer año",
				"Cashback en compras diarias",
				"Meses sin intereses en tiendas afiliadas",
				"Programa de puntos canjeables",
				"Seguro de compras incluido",
				"App móvil avanzada",
			},
			AmountQuestion:    "¿Qué límite de crédito te gustaría tener en tu tarjeta?",
			IncomeContext:     "Esto me ayuda a calcular el límite ideal para ti.",
			ObjectionTopic:    "los costos de la tarjeta",
			ObjectionResponse: "El primer año no pagas anualidad y solo usas el crédito cuando tú lo decides.",
		},
		PersonalCredit: ProductConfig{
			Benefits: []string{
				"Tasas preferenciales desde 8.9%",
				"Plazos flexibles hasta 60 meses",
				"Aprobación en 24 horas",
				"Sin comisiones por apertura",
				"Pagos fijos mensuales",
				"Opción de prepago sin penalización",
			},
			AmountQuestion:    "¿Qué monto de crédito necesitas aproximadamente?",
			IncomeContext:     "Con esta info puedo mostrarte los montos disponibles.",
			ObjectionTopic:    "las cuotas del crédito",
			ObjectionResponse: "Puedes elegir el plazo que mejor se ajuste a tu presupuesto y prepagar sin penalización.",
		},
		Insurance: ProductConfig{
			Benefits: []string{
				"Cobertura integral",
				"Primas competitivas",
				"Atención 24/7 en emergencias",
				"Red de proveedores nacional",
				"Deducibles preferenciales",
				"App para reportar siniestros",
			},
			AmountQuestion:    "¿Qué tipo de cobertura buscas: vida, hogar, auto o familiar?",
			IncomeContext:     "Así puedo sugerirte coberturas acordes a tu perfil.",
			ObjectionTopic:    "el costo del seguro",
			ObjectionResponse: "La prima se ajusta a tu ingreso y tienes atención 24/7 cuando la necesites.",
		},
		Savings: ProductConfig{
			Benefits: []string{
				"Rendimientos hasta 6.5% anual",
				"Sin monto mínimo de apertura",
				"Retiros ilimitados",
				"Banca digital completa",
				"Transferencias gratuitas",
				"Estado de cuenta digital",
			},
			AmountQuestion:    "¿Qué monto te gustaría ahorrar mensualmente?",
			IncomeContext:     "Para recomendarte el mejor plan de ahorro.",
			ObjectionTopic:    "la disponibilidad de tu dinero",
			ObjectionResponse: "Puedes retirar cuando quieras, sin monto mínimo ni comisiones.",
		},
	}
}

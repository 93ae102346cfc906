package lexicon

import "github.com/josephinoo/agent-bg/internal/models"

// Category is one employment bucket and the terms that identify it.
// Suppressors are words that, right before a term, mean the term does not
// describe this category ("buscando trabajo" is not a job).
type Category struct {
	Name        string
	Terms       List
	Suppressors List
}

// Matches reports whether t mentions the category.
func (c Category) Matches(m Matcher, t Text) bool {
	return m.ContainsUnless(t, c.Terms, c.Suppressors)
}

// Set bundles every table the classifier and extractor need.
// A Set is never mutated after construction; build a new one to swap locales.
type Set struct {
	Positive     List
	Negative     List
	InfoRequest  List
	Objection    List
	Employment   []Category
	RangeMarkers List
	Negators     List
}

// EmploymentAny reports whether t mentions any employment category.
func (s *Set) EmploymentAny(m Matcher, t Text) bool {
	for _, c := range s.Employment {
		if c.Matches(m, t) {
			return true
		}
	}
	return false
}

// Spanish returns the default lexicon for Spanish-speaking contacts.
func Spanish() *Set {
	return &Set{
		Positive: NewList([]string{
			"sí", "si", "ok", "acepto", "me interesa", "perfecto", "excelente",
			"genial", "claro", "por supuesto", "dale", "vamos", "quiero",
		}),
		Negative: NewList([]string{
			"no", "nah", "no gracias", "no me interesa", "paso", "mejor no",
			"ahora no", "no estoy seguro",
		}, "tal vez después", "déjame pensarlo"),
		InfoRequest: NewList([]string{
			"información", "detalles", "explica", "cómo", "qué", "cuál",
			"cuánto", "cuándo", "dónde", "por qué", "dime más",
		}, "más info"),
		Objection: NewList([]string{
			"pero", "sin embargo", "aunque", "me preocupa", "no estoy convencido",
			"dudas", "riesgo", "caro", "costoso",
		}, "el problema es"),
		Employment: []Category{
			{Name: models.EmploymentEmployee, Terms: NewList([]string{
				"empleado", "trabajo", "empresa", "empleada", "oficina", "sueldo",
			}), Suppressors: NewList([]string{"buscando", "busco", "buscar"})},
			{Name: models.EmploymentBusinessOwner, Terms: NewList([]string{
				"negocio", "propio", "empresario", "comercio", "dueño", "independiente",
			})},
			{Name: models.EmploymentFreelancer, Terms: NewList([]string{
				"freelance", "independiente", "proyectos",
			}, "por mi cuenta")},
			{Name: models.EmploymentRetired, Terms: NewList([]string{
				"jubilado", "pensionado", "retirado", "tercera edad",
			})},
			{Name: models.EmploymentStudent, Terms: NewList([]string{
				"estudiante", "estudio", "universidad", "carrera",
			})},
			{Name: models.EmploymentUnemployed, Terms: NewList([]string{
				"desempleado", "sin trabajo", "buscando trabajo", "busco trabajo", "cesante",
			})},
		},
		RangeMarkers: NewList([]string{"entre"}),
		Negators:     NewList([]string{"no", "sin", "nunca", "ni"}),
	}
}

package prompts

import "github.com/josephinoo/agent-bg/internal/models"

// SegmentProfile is the tone adaptation and fixed phrases for one customer segment.
type SegmentProfile struct {
	Tone         string
	Language     string
	Focus        string
	Greeting     string
	Confirmation string
}

// Clarification holds example answers, one per missing field.
type Clarification struct {
	Income     string
	Employment string
	Amount     string
	Decision   string
}

// Catalog is the full set of copy used to build prompts. Build one with
// SpanishCatalog or by hand for another locale; never mutate a shared Catalog.
type Catalog struct {
	Persona string

	Premium  SegmentProfile
	Standard SegmentProfile
	Basic    SegmentProfile
	Youth    SegmentProfile
	Senior   SegmentProfile

	Greeting             Template
	CollectIncome        Template
	CollectEmployment    Template
	CollectAmount        Template
	PresentOffer         Template
	AwaitingDecision     Template
	HandleObjection      Template
	RequestClarification Template
	ClosePositive        Template
	CloseNegative        Template
	Completed            Template
	Error                Template

	// NegativeClosing is sent without the generator when the contact declines.
	NegativeClosing Template
	// GenerationRequest wraps the step prompt as the user turn for the generator.
	GenerationRequest Template

	EmploymentAcknowledgments map[string]string
	EmploymentLabels          map[string]string
	Clarifications            Clarification
	NoDataSummary             string
}

// Template returns the template for step. Every step has one.
func (c *Catalog) Template(step models.Step) (Template, bool) {
	switch step {
	case models.StepGreeting:
		return c.Greeting, true
	case models.StepCollectIncome:
		return c.CollectIncome, true
	case models.StepCollectEmployment:
		return c.CollectEmployment, true
	case models.StepCollectAmount:
		return c.CollectAmount, true
	case models.StepPresentOffer:
		return c.PresentOffer, true
	case models.StepAwaitingDecision:
		return c.AwaitingDecision, true
	case models.StepHandleObjection:
		return c.HandleObjection, true
	case models.StepRequestClarification:
		return c.RequestClarification, true
	case models.StepClosePositive:
		return c.ClosePositive, true
	case models.StepCloseNegative:
		return c.CloseNegative, true
	case models.StepCompleted:
		return c.Completed, true
	case models.StepError:
		return c.Error, true
	}
	return Template{}, false
}

// Segment returns the profile for s, falling back to Standard.
func (c *Catalog) Segment(s models.Segment) SegmentProfile {
	switch s {
	case models.SegmentPremium:
		return c.Premium
	case models.SegmentBasic:
		return c.Basic
	case models.SegmentYouth:
		return c.Youth
	case models.SegmentSenior:
		return c.Senior
	}
	return c.Standard
}

const spanishPersona = `Eres un asistente bancario profesional especializado en {product_type_display}.

🎯 CONTEXTO: Detectamos que {user_name} mostró interés en nuestros productos basado en su comportamiento digital.

📋 TU OBJETIVO:
1. Confirmar su interés de manera natural y empática
2. Recolectar información necesaria (UNA pregunta a la vez)
3. Presentar la mejor opción personalizada
4. Guiar hacia la conversión con confianza

✅ REGLAS DE COMPORTAMIENTO:
• Usa emojis estratégicamente (máximo 2 por mensaje)
• Haz UNA pregunta específica por vez
• Mantén respuestas de 2-3 líneas máximo
• Adapta el lenguaje al segmento {customer_segment_display}
• Sé empático, profesional pero conversacional
• Usa el nombre del cliente cuando sea natural

🗣️ ESTILO PARA ESTE SEGMENTO:
- Tono: {tone}
- Lenguaje: {language}
- Enfoque: {focus}

❌ RESTRICCIONES:
• NUNCA solicites datos sensibles (cuentas, contraseñas, PIN)
• Si dice "no" claramente, despídete sin insistir
• No hagas preguntas múltiples consecutivas
• Evita jerga técnica excesiva

👤 PERFIL DEL CLIENTE:
- Nombre: {user_name}
- Segmento: {customer_segment_display}
- Producto objetivo: {product_type_display}
- Propensión estimada: {propensity_score}%

📊 ESTADO ACTUAL:
- Paso: {current_step_display}
- Datos recolectados: {collected_data_summary}`

// SpanishCatalog returns the default copy. Each call builds a fresh value.
func SpanishCatalog() *Catalog {
	return &Catalog{
		Persona: spanishPersona,

		Premium: SegmentProfile{
			Tone:         "más formal y sofisticado",
			Language:     "técnico preciso",
			Focus:        "beneficios exclusivos y personalizados",
			Greeting:     "Como cliente preferencial, quiero asegurarme de ofrecerte las mejores condiciones.",
			Confirmation: "Perfecto.",
		},
		Standard: SegmentProfile{
			Tone:         "profesional pero amigable",
			Language:     "claro y directo",
			Focus:        "valor y beneficios prácticos",
			Greeting:     "Me encantaría ayudarte a encontrar algo que se ajuste perfectamente a tus necesidades.",
			Confirmation: "Excelente.",
		},
		Basic: SegmentProfile{
			Tone:         "muy amigable y simple",
			Language:     "sencillo y accesible",
			Focus:        "simplicidad y apoyo",
			Greeting:     "Estoy aquí para ayudarte de manera sencilla y sin complicaciones.",
			Confirmation: "¡Muy bien!",
		},
		Youth: SegmentProfile{
			Tone:         "casual y dinámico",
			Language:     "moderno y digital",
			Focus:        "innovación y facilidad de uso",
			Greeting:     "¡Perfecto timing! Tenemos opciones geniales para personas como tú.",
			Confirmation: "¡Genial!",
		},
		Senior: SegmentProfile{
			Tone:         "respetuoso y paciente",
			Language:     "claro y sin prisa",
			Focus:        "seguridad y acompañamiento",
			Greeting:     "Será un placer ayudarte con toda la información que necesites.",
			Confirmation: "Muy bien.",
		},

		Greeting: Template{
			Text: "¡Hola {user_name}! 👋\n\nVi que estuviste consultando opciones de {product_type_display}. {segment_greeting}\n\n" +
				"¿Te gustaría que te ayude a encontrar la mejor opción para tu perfil?",
			Required: []string{"user_name", "product_type_display"},
		},
		CollectIncome: Template{
			Text: "{confirmation_phrase} {income_context}\n\n" +
				"Para recomendarte las mejores opciones disponibles, ¿podrías contarme cuáles son tus ingresos mensuales aproximados?",
			Required: []string{"confirmation_phrase"},
		},
		CollectEmployment: Template{
			Text: "Perfecto, con ${monthly_income} mensuales tienes buenas opciones. 💪\n\n" +
				"¿Trabajas como empleado en una empresa o tienes tu propio negocio?",
			Required: []string{"monthly_income"},
		},
		CollectAmount: Template{
			Text:     "Excelente información. {employment_acknowledgment}\n\n{amount_question}",
			Required: []string{"amount_question"},
		},
		PresentOffer: Template{
			Text: "¡Tengo la opción perfecta para ti! 🎯\n\n{offer_details}\n\n" +
				"¿Te gustaría que te envíe más información detallada o tienes alguna pregunta específica?",
			Required: []string{"offer_details"},
		},
		AwaitingDecision: Template{
			Text:     "{decision_prompt}\n\n¿Te interesa proceder con esta opción?",
			Required: []string{"decision_prompt"},
		},
		HandleObjection: Template{
			Text:     "Entiendo tu preocupación sobre {objection_topic}. {objection_response}\n\n¿Hay algo más específico que te gustaría saber?",
			Required: []string{"objection_topic", "objection_response"},
		},
		RequestClarification: Template{
			Text:     "No entendí bien tu mensaje, ¿podrías darme más detalles?\n\n{clarification_examples}\n\n¡Gracias por tu paciencia!",
			Required: []string{"clarification_examples"},
		},
		ClosePositive: Template{
			Text: "¡Excelente decisión, {user_name}! 🙌\n\n" +
				"Un asesor especializado se contactará contigo en las próximas 24-48 horas para finalizar tu solicitud de {product_type_display}.\n\n" +
				"¡Gracias por confiar en nosotros!",
			Required: []string{"user_name", "product_type_display"},
		},
		CloseNegative: Template{
			Text: "Entiendo perfectamente, {user_name}.\n\n" +
				"Gracias por tu tiempo. Si en el futuro cambias de opinión, estaré aquí para ayudarte.\n\n¡Que tengas un excelente día!",
			Required: []string{"user_name"},
		},
		Completed: Template{
			Text:     "Tu solicitud ya quedó registrada, {user_name}. Un asesor te contactará pronto con los siguientes pasos.",
			Required: []string{"user_name"},
		},
		Error: Template{
			Text: "Disculpa, tengo un problema técnico momentáneo. ¿Podrías repetir tu mensaje?",
		},

		NegativeClosing: Template{
			Text:     "Entiendo perfectamente, {user_name}. Gracias por tu tiempo.",
			Required: []string{"user_name"},
		},
		GenerationRequest: Template{
			Text:     "Genera la respuesta apropiada para: {step_prompt}",
			Required: []string{"step_prompt"},
		},

		EmploymentAcknowledgments: map[string]string{
			models.EmploymentEmployee:      "Es genial que tengas un empleo estable.",
			models.EmploymentBusinessOwner: "¡Excelente que tengas tu propio negocio!",
			models.EmploymentFreelancer:    "Trabajar por tu cuenta también abre buenas opciones.",
			models.EmploymentRetired:       "Tenemos alternativas pensadas para tu etapa.",
			models.EmploymentStudent:       "Es un gran momento para empezar a construir tu historial.",
			models.EmploymentUnemployed:    "Gracias por contarme tu situación.",
		},
		EmploymentLabels: map[string]string{
			models.EmploymentEmployee:      "Empleado",
			models.EmploymentBusinessOwner: "Negocio propio",
			models.EmploymentFreelancer:    "Independiente",
			models.EmploymentRetired:       "Jubilado",
			models.EmploymentStudent:       "Estudiante",
			models.EmploymentUnemployed:    "Desempleado",
		},
		Clarifications: Clarification{
			Income:     `Por ejemplo: "Gano alrededor de $1,500 al mes".`,
			Employment: `Por ejemplo: "Soy empleado" o "Tengo mi propio negocio".`,
			Amount:     `Por ejemplo: "Necesito unos $5,000".`,
			Decision:   `Puedes responder "sí" si te interesa o contarme qué dudas tienes.`,
		},
		NoDataSummary: "Ninguno aún",
	}
}

package models

const (
	// ContextSeparator joins retrieved passages into the prompt context block.
	ContextSeparator = "\n---\n"

	// FallbackDisclaimer is the fixed sentence the template instructs the model
	// to lead with when the answer cannot be grounded in the retrieved context.
	FallbackDisclaimer = "No aparece explícitamente en los documentos proporcionados; a partir de la experiencia y buenas prácticas, se puede razonar lo siguiente:"

	// Labels used when rendering conversation history into the enriched query.
	UserLabel      = "Usuario"
	AssistantLabel = "Asistente"
)

// AnswerPromptTemplate is the fixed instruction template for answer synthesis.
// Placeholders: context block, question.
var AnswerPromptTemplate = `Actúa como un consultor experto en evaluación del impacto social, siguiendo las metodologías de la EVPA (European Venture Philanthropy Association), la guía AEF 2015 y el enfoque de la Cátedra de Impacto Social "Medir para Decidir".

Responde SIEMPRE en español. Usa el siguiente contexto como fuente principal de información, citándolo explícitamente cuando sea relevante. Si la respuesta no aparece en el contexto, puedes complementar con tus conocimientos generales, pero deja claro cuándo estás razonando más allá de los documentos.

Si una pregunta requiere un dato muy específico que NO se pueda deducir del contexto ni de conocimiento general razonable, responde:
"` + FallbackDisclaimer + ` …"

Contexto:
%s

Pregunta: %s

Respuesta:`

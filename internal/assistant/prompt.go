package assistant

// systemInstructions anchors every conversation. Rendered context sections
// are appended after it by BuildSystemContent.
const systemInstructions = `Eres el asistente virtual de Cuido, una plataforma de acompañamiento para cuidadores de personas mayores y pacientes crónicos.

Tu rol es ayudar al cuidador respondiendo preguntas sobre el paciente a su cargo usando ÚNICAMENTE la información provista a continuación.

Reglas:
- Responde siempre en español, de forma clara, breve y empática.
- Usa solo los datos de las secciones de contexto. Si la información no está disponible, dilo explícitamente y sugiere consultar al médico tratante.
- Nunca inventes dosis, horarios, fechas ni resultados de estudios.
- No des diagnósticos ni indiques cambios de medicación; ante síntomas graves recomienda contactar al médico o a emergencias.`

// BuildPrompt assembles the ordered message list for one inference call:
// the system message first, then prior turns oldest to newest, then the
// caregiver's current message.
func BuildPrompt(systemContent string, history []ChatMessage, userMessage string) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{Role: ChatRoleSystem, Content: systemContent})
	msgs = append(msgs, history...)
	msgs = append(msgs, ChatMessage{Role: ChatRoleUser, Content: userMessage})
	return msgs
}

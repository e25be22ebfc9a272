package assistant

import (
	"regexp"
	"strings"
)

// Canned answers for the handful of intents that never need the model.
type intent struct {
	re    *regexp.Regexp
	reply string
}

var quickIntents = []intent{
	{
		re:    regexp.MustCompile(`^menu$|opções|opcoes`),
		reply: "📋 Opções:\n1️⃣ Agendar consulta\n2️⃣ Planos e valores\n3️⃣ Orientações de dieta\n4️⃣ Falar com atendente",
	},
	{
		re:    regexp.MustCompile(`agendar|agenda|marcar`),
		reply: "🕐 Para agendar, envie: *nome completo + melhor horário*.",
	},
	{
		re:    regexp.MustCompile(`preço|preco|valor|custos|planos`),
		reply: "💰 Trabalho com planos mensais e trimestrais. Me conte seu objetivo que te indico o ideal.",
	},
	{
		re:    regexp.MustCompile(`dieta|card[aá]pio|aliment(a|e)ção|alimentacao`),
		reply: "🥦 Posso te ajudar! Me diga sua rotina (horários) e objetivo (peso, % de gordura).",
	},
}

// QuickIntent returns the canned reply for recognized shortcut phrases.
func QuickIntent(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	for _, in := range quickIntents {
		if in.re.MatchString(t) {
			return in.reply, true
		}
	}
	return "", false
}

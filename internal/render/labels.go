package render

import "github.com/xaenox/tonebuddy/internal/models"

// Label is the human face of an enumerated value
type Label struct {
	Value string
	Icon  string
	Text  string
}

const unknownIcon = "❔"

var toneLabels = map[models.Tone]Label{
	models.ToneFriendly:          {Icon: "🙂", Text: "Дружелюбный"},
	models.ToneNeutral:           {Icon: "😐", Text: "Нейтральный"},
	models.ToneCold:              {Icon: "🧊", Text: "Холодный"},
	models.TonePassiveAggressive: {Icon: "🙃", Text: "Пассивно-агрессивный"},
	models.ToneAggressive:        {Icon: "😠", Text: "Агрессивный"},
}

var formalityLabels = map[models.Formality]Label{
	models.FormalityInformal: {Icon: "👕", Text: "Неформальный"},
	models.FormalityNeutral:  {Icon: "👔", Text: "Нейтральный"},
	models.FormalityFormal:   {Icon: "🎩", Text: "Формальный"},
}

var clarityLabels = map[models.Clarity]Label{
	models.ClarityClear:      {Icon: "✅", Text: "Чёткий"},
	models.ClarityOverloaded: {Icon: "🧱", Text: "Перегружен"},
	models.ClarityAmbiguous:  {Icon: "🌫", Text: "Двусмысленный"},
}

var issueLabels = map[models.IssueTag]Label{
	models.IssueCaps:             {Icon: "🔠", Text: "КАПС"},
	models.IssueUltimatum:        {Icon: "⛔", Text: "Ультиматум"},
	models.IssueBlame:            {Icon: "👉", Text: "Обвинение"},
	models.IssueSarcasm:          {Icon: "🙄", Text: "Сарказм"},
	models.IssueExcessiveJargon:  {Icon: "🤓", Text: "Много жаргона"},
	models.IssueNegativeJudgment: {Icon: "👎", Text: "Негативная оценка"},
	models.IssueTooDirect:        {Icon: "🎯", Text: "Слишком прямо"},
	models.IssueVagueDeadline:    {Icon: "⏳", Text: "Размытый срок"},
}

func lookup[K ~string](labels map[K]Label, value K) Label {
	label, ok := labels[value]
	if !ok {
		return Label{Value: string(value), Icon: unknownIcon, Text: string(value)}
	}
	label.Value = string(value)
	return label
}

func ToneLabel(t models.Tone) Label           { return lookup(toneLabels, t) }
func FormalityLabel(f models.Formality) Label { return lookup(formalityLabels, f) }
func ClarityLabel(c models.Clarity) Label     { return lookup(clarityLabels, c) }

// IssueLabel maps a tag to its label; tags outside the vocabulary keep
// their raw text.
func IssueLabel(tag string) Label {
	return lookup(issueLabels, models.IssueTag(tag))
}

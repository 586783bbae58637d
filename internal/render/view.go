// Package render turns an analysis result into something a person reads:
// an HTML page, a Telegram message or terminal output.
package render

import "github.com/xaenox/tonebuddy/internal/models"

const (
	TitleResult       = "Результат"
	TitleIssues       = "Проблемы"
	TitleExplanations = "Почему так"
	TitleSuggestions  = "Что улучшить"
	TitleRewrites     = "Варианты перефраза"

	PrefixTone      = "Тон"
	PrefixFormality = "Формальность"
	PrefixClarity   = "Чёткость"
)

// RewriteCard is one rephrasing with its heading
type RewriteCard struct {
	Key   string
	Title string
	Text  string
}

// View is the display model shared by every output format
type View struct {
	Tone         Label
	Formality    Label
	Clarity      Label
	Issues       []Label
	Explanations []string
	Suggestions  []string
	Rewrites     []RewriteCard
}

func NewView(r *models.AnalysisResult) *View {
	v := &View{
		Tone:         ToneLabel(r.Tone),
		Formality:    FormalityLabel(r.Formality),
		Clarity:      ClarityLabel(r.Clarity),
		Explanations: r.Explanations,
		Suggestions:  r.Suggestions,
		Rewrites: []RewriteCard{
			{Key: "softer", Title: "Мягче", Text: r.Rewrites.Softer},
			{Key: "shorter", Title: "Короче", Text: r.Rewrites.Shorter},
			{Key: "friendlier", Title: "Дружелюбнее", Text: r.Rewrites.Friendlier},
			{Key: "more_formal", Title: "Формальнее", Text: r.Rewrites.MoreFormal},
		},
	}
	for _, issue := range r.Issues {
		v.Issues = append(v.Issues, IssueLabel(issue))
	}
	return v
}

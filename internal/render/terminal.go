package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")

	toneColors = map[string]lipgloss.Color{
		"friendly":           lipgloss.Color("#10B981"),
		"neutral":            lipgloss.Color("#6B7280"),
		"cold":               lipgloss.Color("#06B6D4"),
		"passive_aggressive": lipgloss.Color("#F59E0B"),
		"aggressive":         lipgloss.Color("#EF4444"),
	}

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleBadge = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	styleHeading = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	styleRewrite = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(72)
)

// Terminal renders v for a terminal
func Terminal(v *View) string {
	var sections []string

	sections = append(sections, styleTitle.Render(TitleResult))

	toneStyle := styleBadge
	if color, ok := toneColors[v.Tone.Value]; ok {
		toneStyle = toneStyle.BorderForeground(color)
	}
	badges := lipgloss.JoinHorizontal(lipgloss.Top,
		toneStyle.Render(v.Tone.Icon+" "+PrefixTone+": "+v.Tone.Text),
		styleBadge.Render(v.Formality.Icon+" "+PrefixFormality+": "+v.Formality.Text),
		styleBadge.Render(v.Clarity.Icon+" "+PrefixClarity+": "+v.Clarity.Text),
	)
	sections = append(sections, badges)

	if len(v.Issues) > 0 {
		issues := make([]string, len(v.Issues))
		for i, issue := range v.Issues {
			issues[i] = issue.Icon + " " + issue.Text
		}
		sections = append(sections, styleHeading.Render(TitleIssues+":")+" "+strings.Join(issues, ", "))
	}

	sections = append(sections, bulletSection(TitleExplanations, v.Explanations)...)
	sections = append(sections, bulletSection(TitleSuggestions, v.Suggestions)...)

	sections = append(sections, styleHeading.Render(TitleRewrites))
	for _, card := range v.Rewrites {
		sections = append(sections, styleRewrite.Render(lipgloss.NewStyle().Bold(true).Render(card.Title)+"\n"+card.Text))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func bulletSection(title string, items []string) []string {
	if len(items) == 0 {
		return nil
	}
	lines := []string{styleHeading.Render(title)}
	for _, item := range items {
		lines = append(lines, "  • "+item)
	}
	return lines
}

package render

import (
	"fmt"
	"strings"
)

var markdownSpecialChars = []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}

// EscapeMarkdown escapes text for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	escaped := text
	for _, char := range markdownSpecialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func escapeCode(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	return strings.ReplaceAll(text, "`", "\\`")
}

// TelegramMarkdown renders v as a MarkdownV2 message. Rewrites go into
// pre blocks so they can be copied with a tap.
func TelegramMarkdown(v *View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", EscapeMarkdown(TitleResult))
	fmt.Fprintf(&b, "%s %s: %s\n", v.Tone.Icon, PrefixTone, EscapeMarkdown(v.Tone.Text))
	fmt.Fprintf(&b, "%s %s: %s\n", v.Formality.Icon, PrefixFormality, EscapeMarkdown(v.Formality.Text))
	fmt.Fprintf(&b, "%s %s: %s\n", v.Clarity.Icon, PrefixClarity, EscapeMarkdown(v.Clarity.Text))

	if len(v.Issues) > 0 {
		issues := make([]string, len(v.Issues))
		for i, issue := range v.Issues {
			issues[i] = EscapeMarkdown(issue.Icon + " " + issue.Text)
		}
		fmt.Fprintf(&b, "\n*%s:* %s\n", TitleIssues, strings.Join(issues, ", "))
	}

	writeList(&b, TitleExplanations, v.Explanations)
	writeList(&b, TitleSuggestions, v.Suggestions)

	fmt.Fprintf(&b, "\n*%s*\n", EscapeMarkdown(TitleRewrites))
	for _, card := range v.Rewrites {
		fmt.Fprintf(&b, "\n_%s_\n```\n%s\n```\n", EscapeMarkdown(card.Title), escapeCode(card.Text))
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n*%s*\n", EscapeMarkdown(title))
	for _, item := range items {
		fmt.Fprintf(b, "• %s\n", EscapeMarkdown(item))
	}
}

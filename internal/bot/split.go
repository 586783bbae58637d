package bot

import (
	"strings"
	"unicode/utf8"
)

// maxMessageRunes is Telegram's limit on the text of one message
const maxMessageRunes = 4096

const codeFence = "```"

// splitMessage cuts a MarkdownV2 text into chunks of at most limit runes.
// Cuts fall between lines where possible. A code block too long for one
// chunk is closed and reopened at the cut so every chunk parses on its own.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		size   int
	)
	for _, seg := range segments(text) {
		for _, piece := range fit(seg, limit) {
			n := utf8.RuneCountInString(piece)
			if size > 0 && size+n > limit {
				chunks = append(chunks, cur.String())
				cur.Reset()
				size = 0
			}
			cur.WriteString(piece)
			size += n
		}
	}
	if size > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// segments returns the lines of text with every code block kept whole
func segments(text string) []string {
	var (
		out   []string
		block strings.Builder
		open  bool
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		isFence := strings.HasPrefix(line, codeFence)
		switch {
		case open:
			block.WriteString(line)
			if isFence {
				out = append(out, block.String())
				block.Reset()
				open = false
			}
		case isFence:
			block.WriteString(line)
			open = true
		default:
			out = append(out, line)
		}
	}
	if open {
		out = append(out, block.String())
	}
	return out
}

// fit breaks one segment into pieces of at most limit runes
func fit(seg string, limit int) []string {
	if utf8.RuneCountInString(seg) <= limit {
		return []string{seg}
	}
	if !strings.HasPrefix(seg, codeFence) {
		return hardCut(seg, limit)
	}

	lines := strings.SplitAfter(seg, "\n")
	opener := lines[0]
	closer := codeFence + "\n"
	body := lines[1:]
	if len(body) > 0 && strings.HasPrefix(body[len(body)-1], codeFence) {
		body = body[:len(body)-1]
	}
	if !strings.HasSuffix(opener, "\n") || utf8.RuneCountInString(opener) > limit/2 {
		return hardCut(seg, limit)
	}
	budget := limit - utf8.RuneCountInString(opener) - utf8.RuneCountInString(closer) - 1

	var (
		out   []string
		group strings.Builder
		size  int
	)
	emit := func() {
		if size == 0 {
			return
		}
		inner := group.String()
		if !strings.HasSuffix(inner, "\n") {
			inner += "\n"
		}
		out = append(out, opener+inner+closer)
		group.Reset()
		size = 0
	}
	for _, line := range body {
		if line == "" {
			continue
		}
		for _, part := range hardCut(line, budget) {
			n := utf8.RuneCountInString(part)
			if size > 0 && size+n > budget {
				emit()
			}
			group.WriteString(part)
			size += n
		}
	}
	emit()
	return out
}

// hardCut splits s by runes and never leaves an escape backslash dangling
// at the end of a piece.
func hardCut(s string, limit int) []string {
	if limit < 2 {
		limit = 2
	}
	runes := []rune(s)
	var out []string
	for len(runes) > limit {
		cut := limit
		if trailingBackslashes(runes[:cut])%2 == 1 {
			cut--
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func trailingBackslashes(runes []rune) int {
	n := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		n++
	}
	return n
}

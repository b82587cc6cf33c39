package javadoc

import (
	"slices"
	"strings"
)

// Merge adds text to the doc comment existing and returns the new comment.
//
// With an empty tag the text is appended to the main description, ahead of
// any block tags. Otherwise it becomes a new block tag line (tag is prefixed
// unless text already starts with it) after the existing block tags. A blank
// existing comment produces a fresh comment.
func Merge(existing, text, tag string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return existing
	}

	if tag != "" && !strings.HasPrefix(text, tag) {
		text = tag + " " + text
	}

	if strings.TrimSpace(existing) == "" {
		return Comment(text, Options{})
	}

	desc, tags := splitSections(CommentLines(existing))
	added := splitLines(text)

	if tag == "" {
		if len(desc) > 0 {
			desc = append(desc, "")
		}

		desc = append(desc, added...)
	} else {
		tags = append(tags, added...)
	}

	lines := desc
	if len(tags) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}

		lines = append(lines, tags...)
	}

	return Comment(strings.Join(lines, "\n"), Options{})
}

// CommentLines strips the comment delimiters and the leading "*" decoration
// from a doc comment and returns its content lines without leading or
// trailing blank lines.
func CommentLines(comment string) []string {
	body := strings.TrimSpace(comment)
	body = strings.TrimPrefix(body, commentOpen)
	body = strings.TrimSuffix(body, commentClose)

	raw := splitLines(body)
	lines := make([]string, 0, len(raw))

	for _, line := range raw {
		line = strings.TrimLeft(line, " \t")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")
		lines = append(lines, strings.TrimRight(line, " \t"))
	}

	return trimBlank(lines)
}

// splitSections splits comment lines at the first block tag. The returned
// slices do not share storage.
func splitSections(lines []string) (desc, tags []string) {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "@") {
			return slices.Clone(trimBlank(lines[:i])), slices.Clone(lines[i:])
		}
	}

	return slices.Clone(lines), nil
}

func trimBlank(lines []string) []string {
	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}

	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}

	return lines[start:end]
}

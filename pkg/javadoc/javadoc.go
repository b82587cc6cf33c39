// Package javadoc builds and edits Javadoc comments: it turns package.html
// documents into doc comments, merges text into existing comments and rewrites
// class references to fully-qualified names.
package javadoc

import (
	"strings"

	"github.com/Sumatoshi-tech/docfang/pkg/htmlbody"
)

const (
	commentOpen   = "/**"
	commentClose  = "*/"
	linePrefix    = " * "
	blankLine     = " *"
	closingLine   = " */"
	escapedCloser = "&#42;/"
)

// Options controls how comment text is laid out.
type Options struct {
	// WrapWidth word-wraps lines longer than this many bytes. Zero disables wrapping.
	// Lines inside <pre> blocks are never wrapped.
	WrapWidth int
}

// PackageHTMLToJavadoc converts the contents of a package.html file into a
// doc comment. It returns "" when the document has no usable content.
func PackageHTMLToJavadoc(html string, opts Options) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	body := strings.TrimSpace(htmlbody.Extract(html))
	if body == "" {
		return ""
	}

	return Comment(body, opts)
}

// Comment renders text as a /** ... */ block, one " * " prefixed line per
// input line. The result ends with a newline.
func Comment(text string, opts Options) string {
	lines := splitLines(text)
	if opts.WrapWidth > 0 {
		lines = wrapLines(lines, opts.WrapWidth)
	}

	var sb strings.Builder

	sb.Grow(len(text) + len(lines)*len(linePrefix) + len(commentOpen) + len(closingLine) + 2)
	sb.WriteString(commentOpen)
	sb.WriteByte('\n')

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			sb.WriteString(blankLine)
			sb.WriteByte('\n')

			continue
		}

		sb.WriteString(linePrefix)
		sb.WriteString(EscapeCommentEnd(line))
		sb.WriteByte('\n')
	}

	sb.WriteString(closingLine)
	sb.WriteByte('\n')

	return sb.String()
}

// EscapeCommentEnd replaces "*/" so the text cannot terminate a block comment.
func EscapeCommentEnd(s string) string {
	return strings.ReplaceAll(s, commentClose, escapedCloser)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return strings.Split(text, "\n")
}

func wrapLines(lines []string, width int) []string {
	out := make([]string, 0, len(lines))
	inPre := false

	for _, line := range lines {
		lower := strings.ToLower(line)
		openIdx := strings.LastIndex(lower, "<pre")
		closeIdx := strings.LastIndex(lower, "</pre>")

		if inPre || openIdx >= 0 {
			out = append(out, line)
		} else {
			out = append(out, wrapLine(line, width)...)
		}

		switch {
		case closeIdx >= 0 && closeIdx > openIdx:
			inPre = false
		case openIdx >= 0:
			inPre = true
		}
	}

	return out
}

// wrapLine greedily packs words into lines of at most width bytes, keeping the
// original indentation. Words longer than width get a line of their own.
func wrapLine(line string, width int) []string {
	if len(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	words := strings.Fields(line)

	var (
		out []string
		cur strings.Builder
	)

	for _, word := range words {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			out = append(out, cur.String())
			cur.Reset()
		}

		if cur.Len() == 0 {
			cur.WriteString(indent)
			cur.WriteString(word)

			continue
		}

		cur.WriteByte(' ')
		cur.WriteString(word)
	}

	if cur.Len() > 0 {
		out = append(out, cur.String())
	}

	return out
}

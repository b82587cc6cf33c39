// Package htmlbody extracts the content of the <body> (or <html>) element from
// HTML documents such as legacy package.html files.
//
// The extractor is a single-pass tokenizer state machine. It is deliberately
// lenient: malformed markup never produces an error, it only makes the scan
// fall back to a wider span.
package htmlbody

import (
	"strings"
	"unicode/utf8"
)

// Kind identifies which rule produced a Span.
type Kind uint8

const (
	// KindNone means neither a body nor an html span was found; the span covers the whole input.
	KindNone Kind = iota
	// KindBody means the span is the content of a <body> element.
	KindBody
	// KindHTML means the span is the content of an <html> element.
	KindHTML
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindHTML:
		return "html"
	case KindNone:
		return "none"
	}

	return "unknown"
}

// Span is a byte range of the scanned input.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Markers recognized after '<'. Case-sensitive.
const (
	markerComment    = "!--"
	markerCommentEnd = "-->"
	markerCDATA      = "![CDATA["
	markerCDATAEnd   = "]]>"
)

const (
	tagBody = "body"
	tagHTML = "html"
)

// asciiSpace is HTML whitespace. NBSP and other Unicode spaces are tag-name
// characters.
const asciiSpace = " \t\n\r\f"

func isSpace(r rune) bool {
	return r < utf8.RuneSelf && strings.IndexByte(asciiSpace, byte(r)) >= 0
}

type state uint8

const (
	stateText state = iota
	stateSlash
	stateInTag
	stateBeforeAttribute
	stateAttributeName
	stateAttributeBeforeEquals
	stateAttributeAfterEquals
	stateAttributeValueNone
	stateAttributeValueSingle
	stateAttributeValueDouble
	stateCloseTag
	stateEndingTag
)

// Extract returns the content between <body> and </body>, falling back to the
// content between <html> and </html>, and finally to html itself.
func Extract(html string) string {
	span := Find(html)

	return html[span.Start:span.End]
}

// Find locates the span Extract would return.
func Find(html string) Span {
	sc := scanner{
		src:       html,
		state:     stateText,
		bodyStart: -1,
		htmlStart: -1,
		tagStart:  -1,
		closeAt:   -1,
		prev:      -1,
	}

	return sc.run()
}

// scanner holds the transient state of one Find call.
type scanner struct {
	src   string
	state state

	offset int
	prev   int

	// Offsets just past the '>' of the last <body ...> and <html ...> tags, or -1.
	bodyStart int
	htmlStart int

	// Offset of the first tag-name byte of the opening tag being scanned.
	tagStart int
	// Name of the opening tag being scanned once its name has ended.
	pending string
	// Set when a '/' was seen right before the closing '>' of an opening tag.
	selfClosing bool

	// Offset of the '<' that started the closing tag being scanned.
	closeAt int
}

func (sc *scanner) run() Span {
	length := len(sc.src)

	for sc.offset < length {
		if sc.offset == sc.prev {
			// Runaway guard: every iteration must consume input.
			sc.offset++
			if sc.offset >= length {
				break
			}
		}

		sc.prev = sc.offset

		r, size := utf8.DecodeRuneInString(sc.src[sc.offset:])

		span, done := sc.step(r, size)
		if done {
			return span
		}
	}

	return Span{Start: 0, End: length, Kind: KindNone}
}

// step applies the transition for the rune at the current offset. It returns
// done when a body or html span has been closed.
func (sc *scanner) step(r rune, size int) (Span, bool) {
	switch sc.state {
	case stateText:
		if r == '<' {
			sc.state = stateSlash
		}
	case stateSlash:
		if sc.skipMarkup(r) {
			return Span{}, false
		}
	case stateInTag:
		sc.stepInTag(r)
	case stateBeforeAttribute:
		switch {
		case r == '>':
			sc.openTag()
		case r == '/':
			sc.selfClosing = true
		case !isSpace(r):
			sc.selfClosing = false
			sc.state = stateAttributeName
		}
	case stateAttributeName:
		switch {
		case r == '>':
			sc.openTag()
		case r == '=':
			sc.state = stateAttributeAfterEquals
		case isSpace(r):
			sc.state = stateAttributeBeforeEquals
		}
	case stateAttributeBeforeEquals:
		switch {
		case r == '=':
			sc.state = stateAttributeAfterEquals
		case r == '>':
			sc.openTag()
		case r == '/':
			sc.selfClosing = true
			sc.state = stateBeforeAttribute
		case !isSpace(r):
			// Valueless attribute such as <option selected>.
			sc.state = stateAttributeName
		}
	case stateAttributeAfterEquals:
		switch {
		case r == '\'':
			sc.state = stateAttributeValueSingle
		case r == '"':
			sc.state = stateAttributeValueDouble
		case r == '>':
			sc.openTag()
		case !isSpace(r):
			sc.state = stateAttributeValueNone
		}
	case stateAttributeValueSingle:
		if r == '\'' {
			sc.state = stateBeforeAttribute
		}
	case stateAttributeValueDouble:
		if r == '"' {
			sc.state = stateBeforeAttribute
		}
	case stateAttributeValueNone:
		switch {
		case r == '>':
			sc.openTag()
		case isSpace(r):
			sc.state = stateBeforeAttribute
		}
	case stateCloseTag:
		if r == '>' {
			sc.state = stateText

			if span, ok := sc.closeTag(); ok {
				return span, true
			}
		}
	case stateEndingTag:
		switch {
		case r == '>':
			// A self-closed element has no content and never opens or closes a span.
			sc.pending = ""
			sc.state = stateText
		case !isSpace(r):
			// Not a self-closing tag after all, e.g. <a href=x/y>.
			sc.state = stateBeforeAttribute
		}
	}

	sc.offset += size

	return Span{}, false
}

// skipMarkup handles the rune after '<'. It returns true when it moved the
// cursor itself (comments, CDATA sections, declarations and prologues).
func (sc *scanner) skipMarkup(r rune) bool {
	switch {
	case r == '!':
		switch {
		case strings.HasPrefix(sc.src[sc.offset:], markerComment):
			sc.skipPast(sc.offset+len(markerComment), markerCommentEnd)
		case strings.HasPrefix(sc.src[sc.offset:], markerCDATA):
			sc.skipPast(sc.offset+len(markerCDATA), markerCDATAEnd)
		default:
			// <!DOCTYPE ...> and other declarations.
			sc.skipPast(sc.offset+1, ">")
		}

		return true
	case r == '?':
		sc.skipPast(sc.offset+1, ">")

		return true
	case r == '/':
		sc.state = stateCloseTag
		sc.closeAt = sc.offset - 1
	case r == '<':
		// "<<tag>": the second '<' starts over.
	case r == '>' || isSpace(r):
		sc.state = stateText
	default:
		sc.state = stateInTag
		sc.tagStart = sc.offset
		sc.pending = ""
		sc.selfClosing = false
	}

	return false
}

// skipPast moves the cursor just beyond the next terminator at or after from,
// or to the end of input when there is none, and resumes in TEXT.
func (sc *scanner) skipPast(from int, terminator string) {
	sc.state = stateText

	if from > len(sc.src) {
		sc.offset = len(sc.src)

		return
	}

	idx := strings.Index(sc.src[from:], terminator)
	if idx < 0 {
		sc.offset = len(sc.src)

		return
	}

	sc.offset = from + idx + len(terminator)
}

func (sc *scanner) stepInTag(r rune) {
	switch {
	case r == '>':
		sc.pending = sc.src[sc.tagStart:sc.offset]
		sc.openTag()
	case r == '/':
		sc.pending = sc.src[sc.tagStart:sc.offset]
		sc.state = stateEndingTag
	case isSpace(r):
		sc.pending = sc.src[sc.tagStart:sc.offset]
		sc.state = stateBeforeAttribute
	}
}

// openTag is called on the '>' that ends an opening tag.
func (sc *scanner) openTag() {
	if !sc.selfClosing {
		start := sc.offset + 1

		switch {
		case strings.EqualFold(sc.pending, tagBody):
			sc.bodyStart = start
		case strings.EqualFold(sc.pending, tagHTML):
			sc.htmlStart = start
		}
	}

	sc.pending = ""
	sc.selfClosing = false
	sc.state = stateText
}

// closeTag is called on the '>' of a closing tag.
func (sc *scanner) closeTag() (Span, bool) {
	name := strings.Trim(sc.src[sc.closeAt+2:sc.offset], asciiSpace)

	switch {
	case strings.EqualFold(name, tagBody) && sc.bodyStart >= 0:
		return Span{Start: sc.bodyStart, End: sc.closeAt, Kind: KindBody}, true
	case strings.EqualFold(name, tagHTML) && sc.htmlStart >= 0:
		return Span{Start: sc.htmlStart, End: sc.closeAt, Kind: KindHTML}, true
	}

	return Span{}, false
}

package htmlbody

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// fragments are glued together to build markup-heavy random inputs.
var fragments = []string{
	"<", ">", "/", "</", "<!", "<?", "!--", "-->", "<![CDATA[", "]]>",
	"body", "BODY", "html", "p", "br", " ", "\n", "=", "\"", "'", "x", "é", "\x00",
}

func TestProperty_SpanIsWithinInput(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("Find returns a valid sub-range for any markup soup", prop.ForAll(
		func(idx []int) bool {
			var sb strings.Builder
			for _, i := range idx {
				sb.WriteString(fragments[i])
			}

			in := sb.String()
			span := Find(in)

			if span.Start < 0 || span.Start > span.End || span.End > len(in) {
				return false
			}

			if span.Kind == KindNone && (span.Start != 0 || span.End != len(in)) {
				return false
			}

			return Extract(in) == in[span.Start:span.End]
		},
		gen.SliceOf(gen.IntRange(0, len(fragments)-1)),
	))

	properties.TestingRun(t)
}

// neutralFragments build markup that can never spell body or html: no
// fragment contains 'o', 'y', 'h' or 'm' in either case.
var neutralFragments = []string{
	"<", ">", "/", "</", "<!", "<?", "!--", "-->", "<![CDATA[", "]]>",
	"<!-- c -->", "<![CDATA[ x ]]>", "<?x a='1'?>", "<!ATTLIST x>",
	"</x>", "<p a=\"b\">", "<br/>", "<div class='c'>", "</div>", "<a\nid=x>",
	"p", "br", "div", "x", " ", "\n", "\t", "=", "\"", "'", "é", "\x00",
}

func TestProperty_MarkupWithoutBodyOrHTMLIsIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("markup without body or html tags is returned unchanged", prop.ForAll(
		func(idx []int) bool {
			var sb strings.Builder
			for _, i := range idx {
				sb.WriteString(neutralFragments[i])
			}

			in := sb.String()
			span := Find(in)

			return span.Kind == KindNone && Extract(in) == in
		},
		gen.SliceOf(gen.IntRange(0, len(neutralFragments)-1)),
	))

	properties.Property("plain text without '<' is returned unchanged", prop.ForAll(
		func(s string) bool {
			s = strings.ReplaceAll(s, "<", "")

			return Extract(s) == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestProperty_BodyContentRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("text wrapped in html and body is extracted exactly", prop.ForAll(
		func(s string) bool {
			return Extract("<html><body>"+s+"</body></html>") == s
		},
		gen.AlphaString(),
	))

	properties.Property("text wrapped in html only is extracted exactly", prop.ForAll(
		func(s string) bool {
			return Extract("<HTML lang='en'>"+s+"</HTML>") == s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

package javadoc

import (
	"regexp"
	"strings"
)

// Resolver maps a simple type name to its fully-qualified name.
type Resolver interface {
	Resolve(name string) (string, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (string, bool)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (string, bool) {
	return f(name)
}

// Reference patterns. The last submatch is the type name; member references
// (#method) and labels that follow it are left alone.
var (
	inlineRefPattern = regexp.MustCompile(`\{@(?:link|linkplain|value)\s+([A-Za-z_$][\w$.]*)`)
	blockRefPattern  = regexp.MustCompile(`(?m)(?:^|[\s*])@(?:see|throws|exception)\s+([A-Za-z_$][\w$.]*)`)
)

// QualifyReferences rewrites type references in doc to fully-qualified names
// using r. It returns the rewritten text and the number of rewrites.
//
// Only the leading simple name of a reference is resolved, so Map.Entry
// becomes java.util.Map.Entry when Map resolves. References that are already
// qualified or cannot be resolved are kept as written.
func QualifyReferences(doc string, r Resolver) (string, int) {
	if r == nil || !strings.Contains(doc, "@") {
		return doc, 0
	}

	doc, inline := rewriteRefs(doc, inlineRefPattern, r)
	doc, block := rewriteRefs(doc, blockRefPattern, r)

	return doc, inline + block
}

func rewriteRefs(doc string, pattern *regexp.Regexp, r Resolver) (string, int) {
	matches := pattern.FindAllStringSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return doc, 0
	}

	var sb strings.Builder

	sb.Grow(len(doc))

	count := 0
	last := 0

	for _, m := range matches {
		nameStart, nameEnd := m[2], m[3]
		name := doc[nameStart:nameEnd]

		qualified, ok := qualify(name, r)
		if !ok {
			continue
		}

		sb.WriteString(doc[last:nameStart])
		sb.WriteString(qualified)

		last = nameEnd
		count++
	}

	if count == 0 {
		return doc, 0
	}

	sb.WriteString(doc[last:])

	return sb.String(), count
}

func qualify(name string, r Resolver) (string, bool) {
	head, rest, nested := strings.Cut(name, ".")

	fqn, ok := r.Resolve(head)
	if !ok || fqn == head {
		return "", false
	}

	if nested {
		fqn += "." + rest
	}

	if fqn == name {
		return "", false
	}

	return fqn, true
}

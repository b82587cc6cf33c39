package convert

import (
	"strings"

	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/javasrc"
)

// MergeInto folds comment into the package doc comment of an existing
// package-info.java. It reports false when the existing file already carries
// the text.
func MergeInto(existing, comment string) (string, bool) {
	added := javadoc.CommentLines(comment)
	if len(added) == 0 {
		return existing, false
	}

	file, err := javasrc.ParseJava([]byte(existing))
	if err != nil || len(file.DocComments) == 0 {
		return insertComment(existing, comment), true
	}

	doc := file.DocComments[0]
	if containsLines(javadoc.CommentLines(doc.Text), added) {
		return existing, false
	}

	merged := strings.TrimSuffix(javadoc.Merge(doc.Text, strings.Join(added, "\n"), ""), "\n")

	return existing[:doc.Start] + merged + existing[doc.End:], true
}

// insertComment places comment above the first annotation or package line,
// or at the end when neither exists.
func insertComment(existing, comment string) string {
	if !strings.HasSuffix(comment, "\n") {
		comment += "\n"
	}

	offset := 0

	for line := range strings.SplitAfterSeq(existing, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") || strings.HasPrefix(trimmed, "package ") {
			return existing[:offset] + comment + existing[offset:]
		}

		offset += len(line)
	}

	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}

	return existing + comment
}

func containsLines(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}

	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true

		for j, line := range needle {
			if haystack[i+j] != line {
				match = false

				break
			}
		}

		if match {
			return true
		}
	}

	return false
}

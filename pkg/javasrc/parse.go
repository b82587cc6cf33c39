// Package javasrc reads the declaration-level structure of Java and Kotlin
// sources with tree-sitter: package names, imports, top-level types and the
// byte ranges of doc comments.
package javasrc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/docfang/pkg/safeconv"
)

// Sentinel errors for source parsing.
var (
	// ErrParse indicates tree-sitter could not produce a syntax tree.
	ErrParse = errors.New("parse failed")
)

// Import is a single import declaration.
type Import struct {
	Path     string
	Static   bool
	Wildcard bool
}

// Comment is a doc comment and its byte range in the source.
type Comment struct {
	Start int
	End   int
	Text  string
}

// File is the declaration-level view of a Java compilation unit.
type File struct {
	Package     string
	Imports     []Import
	Types       []string
	DocComments []Comment
}

// typeDeclarations are the node kinds that introduce a named type.
var typeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// ParseJava parses a Java compilation unit.
func ParseJava(content []byte) (*File, error) {
	tree, err := parse(LangJava, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	file := &File{}

	for idx := range root.NamedChildCount() {
		child := root.NamedChild(idx)

		switch kind := child.Type(); {
		case kind == "package_declaration":
			file.Package = qualifiedName(child, content)
		case kind == "import_declaration":
			file.Imports = append(file.Imports, importOf(child, content))
		case typeDeclarations[kind]:
			if name := child.ChildByFieldName("name"); !name.IsNull() {
				file.Types = append(file.Types, text(name, content))
			}
		}
	}

	collectDocComments(root, content, &file.DocComments)

	return file, nil
}

// KotlinPackage returns the package named by a Kotlin file's header, or ""
// for the default package.
func KotlinPackage(content []byte) (string, error) {
	tree, err := parse(LangKotlin, content)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	root := tree.RootNode()

	for idx := range root.NamedChildCount() {
		child := root.NamedChild(idx)
		if child.Type() != "package_header" {
			continue
		}

		header := strings.TrimSpace(text(child, content))
		header = strings.TrimPrefix(header, "package")

		return strings.TrimSuffix(strings.TrimSpace(header), ";"), nil
	}

	// Grammars that fold the header into another node still leave it on
	// its own line.
	return packageLine(content), nil
}

func parse(lang string, content []byte) (*sitter.Tree, error) {
	pool, err := parserPool(lang)
	if err != nil {
		return nil, err
	}

	tsParser := pool.Get().(*sitter.Parser) //nolint:forcetypeassert,errcheck // pool only holds parsers
	defer pool.Put(tsParser)

	tree, parseErr := tsParser.ParseString(context.Background(), nil, content)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, lang, parseErr)
	}

	if tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, lang)
	}

	return tree, nil
}

func qualifiedName(node sitter.Node, content []byte) string {
	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)

		switch child.Type() {
		case "scoped_identifier", "identifier":
			return text(child, content)
		}
	}

	return ""
}

func importOf(node sitter.Node, content []byte) Import {
	var imp Import

	for idx := range node.ChildCount() {
		child := node.Child(idx)

		switch child.Type() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		case "scoped_identifier", "identifier":
			imp.Path = text(child, content)
		}
	}

	return imp
}

func collectDocComments(node sitter.Node, content []byte, out *[]Comment) {
	switch node.Type() {
	case "block_comment", "comment":
		body := text(node, content)
		if strings.HasPrefix(body, "/**") && body != "/**/" {
			*out = append(*out, Comment{
				Start: safeconv.MustUintToInt(node.StartByte()),
				End:   safeconv.MustUintToInt(node.EndByte()),
				Text:  body,
			})
		}

		return
	}

	for idx := range node.ChildCount() {
		collectDocComments(node.Child(idx), content, out)
	}
}

func text(node sitter.Node, content []byte) string {
	start, end := safeconv.MustUintToInt(node.StartByte()), safeconv.MustUintToInt(node.EndByte())
	if end > len(content) || start > end {
		return ""
	}

	return string(content[start:end])
}

func packageLine(content []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(content))

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		name, ok := strings.CutPrefix(line, "package ")
		if ok {
			return strings.TrimSuffix(strings.TrimSpace(name), ";")
		}
	}

	return ""
}

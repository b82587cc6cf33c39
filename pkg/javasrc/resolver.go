package javasrc

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
)

// javaLang lists the java.lang types that are visible without an import.
var javaLang = []string{
	"AutoCloseable", "Boolean", "Byte", "Character", "CharSequence", "Class",
	"ClassCastException", "Cloneable", "Comparable", "Deprecated", "Double",
	"Enum", "Error", "Exception", "Float", "FunctionalInterface",
	"IllegalArgumentException", "IllegalStateException",
	"IndexOutOfBoundsException", "Integer", "Iterable", "Long", "Math",
	"NullPointerException", "Number", "Object", "Override", "Record",
	"Runnable", "RuntimeException", "SafeVarargs", "Short", "String",
	"StringBuilder", "SuppressWarnings", "System", "Thread", "Throwable",
	"UnsupportedOperationException", "Void",
}

// Resolver resolves simple type names the way the Java compiler would for
// one compilation unit: declared types first, then single-type imports, then
// types in the same package, then java.lang.
type Resolver struct {
	names map[string]string
}

var _ javadoc.Resolver = (*Resolver)(nil)

// NewResolver builds a Resolver for file. siblings are the simple names of
// the other top-level types in the same package.
func NewResolver(file *File, siblings []string) *Resolver {
	res := &Resolver{names: make(map[string]string)}

	for _, name := range javaLang {
		res.names[name] = "java.lang." + name
	}

	if file == nil {
		return res
	}

	for _, name := range siblings {
		res.names[name] = inPackage(file.Package, name)
	}

	for _, imp := range file.Imports {
		if imp.Static || imp.Wildcard || imp.Path == "" {
			continue
		}

		simple := imp.Path[strings.LastIndexByte(imp.Path, '.')+1:]
		res.names[simple] = imp.Path
	}

	for _, name := range file.Types {
		res.names[name] = inPackage(file.Package, name)
	}

	return res
}

// Resolve returns the fully-qualified name for a simple type name.
func (r *Resolver) Resolve(name string) (string, bool) {
	fqn, ok := r.names[name]

	return fqn, ok
}

func inPackage(pkg, name string) string {
	if pkg == "" {
		return name
	}

	return pkg + "." + name
}

// QualifyJava rewrites type references in every doc comment of a Java
// source to fully-qualified names. It returns the new source and the number
// of references rewritten.
func QualifyJava(content []byte, siblings []string) ([]byte, int, error) {
	file, err := ParseJava(content)
	if err != nil {
		return nil, 0, err
	}

	resolver := NewResolver(file, siblings)
	out := content
	total := 0

	// Splice from the end so earlier offsets stay valid.
	for i := len(file.DocComments) - 1; i >= 0; i-- {
		comment := file.DocComments[i]

		rewritten, count := javadoc.QualifyReferences(comment.Text, resolver)
		if count == 0 {
			continue
		}

		out = slices.Concat(out[:comment.Start], []byte(rewritten), out[comment.End:])
		total += count
	}

	return out, total, nil
}

// Package stubs renders and writes package-info.java files.
package stubs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	fileName = "package-info.java"
)

// PackageInfo renders a package-info.java compilation unit. header is an
// optional license block placed verbatim above the comment; comment is a
// complete doc comment or empty.
func PackageInfo(pkg, comment, header string) string {
	var sb strings.Builder

	if header = strings.TrimSpace(header); header != "" {
		sb.WriteString(header)
		sb.WriteString("\n\n")
	}

	if comment != "" {
		sb.WriteString(comment)

		if !strings.HasSuffix(comment, "\n") {
			sb.WriteByte('\n')
		}
	}

	if pkg != "" {
		sb.WriteString("package ")
		sb.WriteString(pkg)
		sb.WriteString(";\n")
	}

	return sb.String()
}

// Path returns where the package-info.java of pkg lives under outDir.
func Path(outDir, pkg string) string {
	parts := append([]string{outDir}, strings.Split(pkg, ".")...)

	return filepath.Join(append(parts, fileName)...)
}

// Write stores content at path atomically, creating parent directories as
// needed. Concurrent writers of one path never share a temporary file.
func Write(path, content string) error {
	mkErr := os.MkdirAll(filepath.Dir(path), dirPerm)
	if mkErr != nil {
		return fmt.Errorf("stub mkdir: %w", mkErr)
	}

	writeErr := renameio.WriteFile(path, []byte(content), filePerm)
	if writeErr != nil {
		return fmt.Errorf("stub write: %w", writeErr)
	}

	return nil
}

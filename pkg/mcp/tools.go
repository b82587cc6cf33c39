package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/docfang/pkg/convert"
	"github.com/Sumatoshi-tech/docfang/pkg/htmlbody"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/javasrc"
	"github.com/Sumatoshi-tech/docfang/pkg/scan"
	"github.com/Sumatoshi-tech/docfang/pkg/stubs"
)

// Tool name constants.
const (
	ToolNameHTMLBody       = "html_body"
	ToolNamePackageJavadoc = "package_javadoc"
	ToolNameQualifyJavadoc = "qualify_javadoc"
	ToolNameConvertTree    = "convert_tree"
)

// Input size limits.
const (
	// MaxInputBytes is the maximum allowed size for inline document input (1 MB).
	MaxInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyInput indicates the document parameter is empty.
	ErrEmptyInput = errors.New("input parameter is required and must not be empty")
	// ErrInputTooLarge indicates the input exceeds the size limit.
	ErrInputTooLarge = errors.New("input exceeds maximum size")
	// ErrEmptyRoot indicates the root parameter is empty.
	ErrEmptyRoot = errors.New("root parameter is required and must not be empty")
	// ErrRootNotAbsolute indicates the root is not an absolute path.
	ErrRootNotAbsolute = errors.New("root must be an absolute path")
	// ErrRootNotFound indicates the root path does not exist.
	ErrRootNotFound = errors.New("root path does not exist")
)

// Input types (auto-generate JSON schemas via struct tags).

// HTMLBodyInput is the input schema for the html_body tool.
type HTMLBodyInput struct {
	HTML string `json:"html" jsonschema:"HTML document to extract the body from"`
}

// PackageJavadocInput is the input schema for the package_javadoc tool.
type PackageJavadocInput struct {
	HTML      string `json:"html"                 jsonschema:"contents of a package.html file"`
	Header    string `json:"header,omitempty"     jsonschema:"optional license header placed above the comment"`
	Package   string `json:"package,omitempty"    jsonschema:"optional package name; when set a package-info.java unit is rendered"`
	WrapWidth int    `json:"wrap_width,omitempty" jsonschema:"optional column at which comment lines are wrapped (0 disables)"`
}

// QualifyJavadocInput is the input schema for the qualify_javadoc tool.
type QualifyJavadocInput struct {
	Siblings []string `json:"siblings,omitempty" jsonschema:"simple names of other types in the same package"`
	Source   string   `json:"source"             jsonschema:"Java compilation unit"`
}

// ConvertTreeInput is the input schema for the convert_tree tool.
type ConvertTreeInput struct {
	Apply     bool   `json:"apply,omitempty"      jsonschema:"write files instead of reporting a dry run"`
	Policy    string `json:"policy,omitempty"     jsonschema:"conflict policy: error merge or overwrite (default: error)"`
	Root      string `json:"root"                 jsonschema:"absolute path to a Java source tree"`
	WrapWidth int    `json:"wrap_width,omitempty" jsonschema:"optional column at which comment lines are wrapped (0 disables)"`
}

// Output types.

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// HTMLBodyResult is the payload of the html_body tool.
type HTMLBodyResult struct {
	Body  string `json:"body"`
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// PackageJavadocResult is the payload of the package_javadoc tool.
type PackageJavadocResult struct {
	Comment     string `json:"comment"`
	PackageInfo string `json:"package_info,omitempty"`
}

// QualifyJavadocResult is the payload of the qualify_javadoc tool.
type QualifyJavadocResult struct {
	Source    string `json:"source"`
	Rewritten int    `json:"rewritten"`
}

// handleHTMLBody accepts an empty document; its body is empty too.
func handleHTMLBody(_ context.Context, _ *mcpsdk.CallToolRequest, input HTMLBodyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateSize(input.HTML)
	if err != nil {
		return errorResult(err)
	}

	span := htmlbody.Find(input.HTML)

	return jsonResult(HTMLBodyResult{
		Body:  input.HTML[span.Start:span.End],
		Kind:  span.Kind.String(),
		Start: span.Start,
		End:   span.End,
	})
}

func handlePackageJavadoc(
	_ context.Context, _ *mcpsdk.CallToolRequest, input PackageJavadocInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateInput(input.HTML)
	if err != nil {
		return errorResult(err)
	}

	comment := javadoc.PackageHTMLToJavadoc(input.HTML, javadoc.Options{WrapWidth: input.WrapWidth})

	res := PackageJavadocResult{Comment: comment}
	if input.Package != "" {
		res.PackageInfo = stubs.PackageInfo(input.Package, comment, input.Header)
	}

	return jsonResult(res)
}

func handleQualifyJavadoc(
	_ context.Context, _ *mcpsdk.CallToolRequest, input QualifyJavadocInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateInput(input.Source)
	if err != nil {
		return errorResult(err)
	}

	out, count, err := javasrc.QualifyJava([]byte(input.Source), input.Siblings)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(QualifyJavadocResult{Source: string(out), Rewritten: count})
}

func (s *Server) handleConvertTree(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ConvertTreeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRoot(input.Root)
	if err != nil {
		return errorResult(err)
	}

	policy, err := convert.ParseConflictPolicy(input.Policy)
	if err != nil {
		return errorResult(err)
	}

	dirs, err := scan.Walk(ctx, input.Root, scan.Options{})
	if err != nil {
		return errorResult(err)
	}

	conv := convert.New(convert.Options{
		Root:    input.Root,
		Javadoc: javadoc.Options{WrapWidth: input.WrapWidth},
		Policy:  policy,
		DryRun:  !input.Apply,
	}, convert.Deps{Logger: s.logger, Tracer: s.tracer})

	rep, err := conv.Run(ctx, dirs)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(rep)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateInput(doc string) error {
	if doc == "" {
		return ErrEmptyInput
	}

	return validateSize(doc)
}

func validateSize(doc string) error {
	if len(doc) > MaxInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(doc), MaxInputBytes)
	}

	return nil
}

func validateRoot(root string) error {
	if root == "" {
		return ErrEmptyRoot
	}

	if !filepath.IsAbs(root) {
		return fmt.Errorf("%w: %s", ErrRootNotAbsolute, root)
	}

	_, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	return nil
}

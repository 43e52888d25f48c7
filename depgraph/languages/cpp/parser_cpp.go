package cpp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/modgen/vcs"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// IncludeKind distinguishes between system and local includes.
type IncludeKind int

const (
	IncludeLocal IncludeKind = iota
	IncludeSystem
)

// Include represents a C++ include directive.
type Include struct {
	Path string
	Kind IncludeKind
}

// ParseCppIncludes parses C++ source code and extracts includes.
func ParseCppIncludes(sourceCode []byte) ([]Include, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse C++ code: %w", err)
	}
	defer tree.Close()

	return extractIncludes(tree.RootNode(), sourceCode), nil
}

func extractIncludes(rootNode *sitter.Node, sourceCode []byte) []Include {
	var includes []Include

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}

		if n.Type() == "preproc_include" {
			if inc := extractIncludeFromNode(n, sourceCode); inc.Path != "" {
				includes = append(includes, inc)
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}

	walk(rootNode)
	return includes
}

func extractIncludeFromNode(node *sitter.Node, sourceCode []byte) Include {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "string_literal":
			return Include{Path: cleanStringLiteral(child.Content(sourceCode)), Kind: IncludeLocal}
		case "system_lib_string":
			return Include{Path: cleanSystemInclude(child.Content(sourceCode)), Kind: IncludeSystem}
		}
	}

	return Include{}
}

func cleanStringLiteral(raw string) string {
	return strings.Trim(raw, "\"' ")
}

func cleanSystemInclude(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "<")
	trimmed = strings.TrimSuffix(trimmed, ">")
	return strings.TrimSpace(trimmed)
}

// ResolveCppIncludePath resolves a local include of sourceFile to the project headers that exist.
// Candidates are the source directory, each ancestor directory, and an include/ directory under each.
func ResolveCppIncludePath(sourceFile, includePath string, exists vcs.FileChecker) []string {
	if exists == nil {
		return nil
	}

	var resolvedPaths []string
	for _, candidate := range includeBasePathCandidates(filepath.Dir(sourceFile), includePath) {
		if exists(candidate) {
			resolvedPaths = append(resolvedPaths, candidate)
		}
	}

	// The closest match wins, like the preprocessor's quote search.
	if len(resolvedPaths) > 1 {
		resolvedPaths = resolvedPaths[:1]
	}
	return resolvedPaths
}

func includeBasePathCandidates(sourceDir, includePath string) []string {
	seen := make(map[string]bool)
	var candidates []string
	add := func(p string) {
		p = filepath.ToSlash(filepath.Clean(p))
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	for dir := sourceDir; ; dir = filepath.Dir(dir) {
		add(filepath.Join(dir, includePath))
		add(filepath.Join(dir, "include", includePath))

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
	}

	return candidates
}

// projectIncludes returns the project headers included by content, sorted and deduplicated.
func projectIncludes(sourceFile string, content []byte, exists vcs.FileChecker) ([]string, error) {
	if exists == nil {
		return nil, nil
	}

	includes, err := ParseCppIncludes(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse includes in %s: %w", sourceFile, err)
	}

	seen := make(map[string]bool)
	var headers []string
	for _, inc := range includes {
		if inc.Kind != IncludeLocal {
			continue
		}
		for _, resolved := range ResolveCppIncludePath(sourceFile, inc.Path, exists) {
			if !seen[resolved] {
				seen[resolved] = true
				headers = append(headers, resolved)
			}
		}
	}

	sort.Strings(headers)
	return headers, nil
}

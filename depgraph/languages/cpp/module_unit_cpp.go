package cpp

import (
	"regexp"
	"strings"
)

const (
	identifierPattern = `[A-Za-z_][A-Za-z0-9_]*`
	moduleNamePattern = identifierPattern + `(?:\.` + identifierPattern + `)*`
)

var (
	moduleDeclarationRegex = regexp.MustCompile(
		`(?m)^[ \t]*(export\s+)?module\s+(` + moduleNamePattern + `)(?:\s*:\s*(` + moduleNamePattern + `))?\s*;`)
	importRegex = regexp.MustCompile(
		`\bimport\s+(` + moduleNamePattern + `|:\s*` + moduleNamePattern + `)\s*;`)
)

// ModuleDeclaration is the `[export] module name[:partition];` line of a module unit.
type ModuleDeclaration struct {
	Name      string
	Partition string
	Exported  bool
}

// FullName returns the module name including its partition, e.g. "app.core:detail".
func (d ModuleDeclaration) FullName() string {
	if d.Partition == "" {
		return d.Name
	}
	return d.Name + ":" + d.Partition
}

// ModuleUnit is what text-level scanning learns about one source file.
type ModuleUnit struct {
	// Declaration is nil for ordinary (non-module) sources.
	Declaration *ModuleDeclaration
	// Imports lists imported module names in first-seen order, without duplicates.
	// Partition imports are qualified with the declaring module's name.
	Imports []string
}

// ParseModuleUnit extracts the module declaration and module imports from comment-free source.
// Header-unit imports (import <vector>; import "x.h";) are not module imports and are skipped.
func ParseModuleUnit(clean []byte) ModuleUnit {
	var unit ModuleUnit

	if m := moduleDeclarationRegex.FindSubmatch(clean); m != nil {
		unit.Declaration = &ModuleDeclaration{
			Exported:  len(m[1]) > 0,
			Name:      string(m[2]),
			Partition: string(m[3]),
		}
	}

	seen := make(map[string]bool)
	for _, m := range importRegex.FindAllSubmatch(clean, -1) {
		name := string(m[1])
		if strings.HasPrefix(name, ":") {
			partition := strings.TrimSpace(strings.TrimPrefix(name, ":"))
			if unit.Declaration == nil {
				name = ":" + partition
			} else {
				name = unit.Declaration.Name + ":" + partition
			}
		}
		if unit.Declaration != nil && name == unit.Declaration.FullName() {
			continue
		}
		if !seen[name] {
			seen[name] = true
			unit.Imports = append(unit.Imports, name)
		}
	}

	return unit
}

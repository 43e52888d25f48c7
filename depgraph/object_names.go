package depgraph

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"
	"github.com/cespare/xxhash/v2"
)

// ObjectBaseName derives the build-artifact stem of a unit.
//
// Interface units use their module name so the compiler finds their BMI by name in
// the build directory; a partition's ':' becomes '-' as in clang's BMI naming. Every
// other source uses its path without extension, with a leading "./" removed and
// directory separators flattened to '_'. A lone non-exported unit promoted to own
// its module counts as an interface unit here (see indexModules for the limitation).
func ObjectBaseName(unit cpp.SourceUnit) string {
	if unit.Kind == cpp.UnitInterface {
		return strings.ReplaceAll(unit.ModuleName, ":", "-")
	}
	return flattenPath(unit.Path)
}

func flattenPath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimLeft(p, "/")
	return strings.ReplaceAll(p, "/", "_")
}

// assignObjectBaseNames sets ObjectBaseName on every unit. A non-interface stem shared
// with any other unit gets a suffix derived from its path, so distinct sources never
// share an object and the mapping is the same on every run.
func assignObjectBaseNames(units []cpp.SourceUnit) {
	counts := make(map[string]int, len(units))
	for i := range units {
		units[i].ObjectBaseName = ObjectBaseName(units[i])
		counts[units[i].ObjectBaseName]++
	}

	for i := range units {
		u := &units[i]
		if u.Kind != cpp.UnitInterface && counts[u.ObjectBaseName] > 1 {
			u.ObjectBaseName += "-" + pathDigest(u.Path)
		}
	}
}

func pathDigest(p string) string {
	return fmt.Sprintf("%08x", uint32(xxhash.Sum64String(filepath.ToSlash(p))))
}

package cpp

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/LegacyCodeHQ/modgen/internal/failure"
	"github.com/LegacyCodeHQ/modgen/vcs"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// UnitKind classifies a source file by its module declaration.
type UnitKind int

const (
	UnitOrdinary UnitKind = iota
	UnitInterface
	UnitImplementation
)

func (k UnitKind) String() string {
	switch k {
	case UnitOrdinary:
		return "ordinary"
	case UnitInterface:
		return "module-interface"
	case UnitImplementation:
		return "module-implementation"
	default:
		return "unknown"
	}
}

// SourceUnit is the scan result for one project source file.
type SourceUnit struct {
	Path string
	Kind UnitKind
	// ModuleName is the declared module (with partition), empty for ordinary sources.
	ModuleName string
	// Imports are the module names the file imports, in first-seen order.
	Imports []string
	// Includes are project headers pulled in with #include "...".
	Includes []string
	// ObjectBaseName is the build-artifact stem. The scanner leaves it empty; the
	// project-wide mapper fills it in once every unit is known.
	ObjectBaseName string
}

// IsModule reports whether the unit declares a module.
func (u SourceUnit) IsModule() bool {
	return u.Kind != UnitOrdinary
}

// Cache memoizes scan results per path for one run. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, SourceUnit]

	mu   sync.Mutex
	size int
}

// NewCache returns a cache sized for at least size files.
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		size = 1
	}
	entries, err := lru.New[string, SourceUnit](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan cache: %w", err)
	}
	return &Cache{entries: entries, size: size}, nil
}

// Len returns the number of cached units.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) get(path string) (SourceUnit, bool) {
	return c.entries.Get(path)
}

func (c *Cache) add(unit SourceUnit) {
	c.entries.Add(unit.Path, unit)
}

// reserve grows the cache so that n more files fit without evicting anything.
// A scanned file must never be scanned again within a run.
func (c *Cache) reserve(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if want := c.entries.Len() + n; want > c.size {
		c.entries.Resize(want)
		c.size = want
	}
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of files ScanAll reads concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithHeaderLookup enables #include resolution against project headers that exists reports.
func WithHeaderLookup(exists vcs.FileChecker) Option {
	return func(s *Scanner) {
		s.headerExists = exists
	}
}

// Scanner reads project sources and extracts their module declaration, imports and includes.
type Scanner struct {
	reader       vcs.ContentReader
	cache        *Cache
	headerExists vcs.FileChecker
	workers      int
}

// NewScanner returns a scanner reading through reader and memoizing into cache.
func NewScanner(reader vcs.ContentReader, cache *Cache, opts ...Option) *Scanner {
	s := &Scanner{
		reader:  reader,
		cache:   cache,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the SourceUnit for path, reading the file only the first time it is asked for.
// An unreadable file fails with an IOError naming the path.
func (s *Scanner) Scan(path string) (SourceUnit, error) {
	if unit, ok := s.cache.get(path); ok {
		return unit, nil
	}

	content, err := s.reader(path)
	if err != nil {
		return SourceUnit{}, failure.IO(path, err)
	}

	parsed := ParseModuleUnit(StripComments(content))
	unit := SourceUnit{
		Path:    path,
		Kind:    UnitOrdinary,
		Imports: parsed.Imports,
	}
	if decl := parsed.Declaration; decl != nil {
		unit.ModuleName = decl.FullName()
		unit.Kind = UnitImplementation
		if decl.Exported {
			unit.Kind = UnitInterface
		}
	}

	unit.Includes, err = projectIncludes(path, content, s.headerExists)
	if err != nil {
		return SourceUnit{}, err
	}

	s.cache.add(unit)
	return unit, nil
}

// ScanAll scans paths on a bounded worker pool and returns the units in input order,
// without duplicates. It returns only after every scan has finished.
func (s *Scanner) ScanAll(ctx context.Context, paths []string) ([]SourceUnit, error) {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	s.cache.reserve(len(unique))

	units := make([]SourceUnit, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, err := s.Scan(p)
			if err != nil {
				return err
			}
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return units, nil
}

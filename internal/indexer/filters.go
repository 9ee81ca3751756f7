package indexer

import (
	"strings"

	"javachain/internal/config"
)

// Filters decides which packages, classes and methods stay out of the
// index. A name is excluded when its lowercased form contains any keyword.
// Filters is immutable once built.
type Filters struct {
	packages []string
	classes  []string
	methods  []string
}

// NewFilters builds a filter set. Keywords are lowercased and blank ones
// dropped.
func NewFilters(packages, classes, methods []string) Filters {
	return Filters{
		packages: lowerAll(packages),
		classes:  lowerAll(classes),
		methods:  lowerAll(methods),
	}
}

// FiltersFromConfig builds the filter set from loaded configuration.
func FiltersFromConfig(cfg config.FiltersConfig) Filters {
	return NewFilters(cfg.PackageKeywords, cfg.ClassKeywords, cfg.MethodKeywords)
}

// DefaultFilters returns the filters of the default configuration.
func DefaultFilters() Filters {
	return FiltersFromConfig(config.DefaultConfig().Filters)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SkipPackage reports whether every class in pkg is excluded. The default
// package is never skipped.
func (f Filters) SkipPackage(pkg string) bool {
	return pkg != "" && containsAny(pkg, f.packages)
}

// SkipClass reports whether the fully qualified class name is excluded.
func (f Filters) SkipClass(className string) bool {
	return containsAny(className, f.classes)
}

// SkipMethod reports whether the full method signature is excluded.
func (f Filters) SkipMethod(methodSig string) bool {
	return containsAny(methodSig, f.methods)
}

// Keywords returns copies of the three keyword lists.
func (f Filters) Keywords() (packages, classes, methods []string) {
	return append([]string(nil), f.packages...),
		append([]string(nil), f.classes...),
		append([]string(nil), f.methods...)
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

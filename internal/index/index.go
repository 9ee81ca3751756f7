// Package index holds the immutable lookup structures derived from one
// analysis snapshot, plus snapshot metadata and the per-project run lock.
package index

import (
	"path"
	"sort"
	"strings"

	"javachain/internal/signature"
)

// Index answers lookups over a snapshot. It is built once and never
// mutated, so concurrent readers are safe.
type Index struct {
	snap *signature.Snapshot

	// methodNameIndex maps a class to its method signatures.
	methodNameIndex map[string][]string
	// methodNameLookup maps a bare method name to every signature with it.
	methodNameLookup map[string][]string
	// erasure maps "pkg.Class.method" to the overloads sharing it.
	erasure map[string][]string
	// callers is the CallerMapping: callee -> callers, in sorted caller order.
	callers map[string][]string

	// byPath maps a normalized file path to the classes declared in it.
	byPath map[string][]string
	// byBase maps a bare file name to its paths, sorted.
	byBase map[string][]string
}

// New builds an index over snap. The snapshot must not be modified
// afterwards.
func New(snap *signature.Snapshot) *Index {
	ix := &Index{
		snap:             snap,
		methodNameIndex:  make(map[string][]string),
		methodNameLookup: make(map[string][]string),
		erasure:          make(map[string][]string),
		callers:          make(map[string][]string),
		byPath:           make(map[string][]string),
		byBase:           make(map[string][]string),
	}

	for _, name := range snap.ClassKeys() {
		cs := snap.Classes[name]
		ix.methodNameIndex[name] = append([]string(nil), cs.Methods...)
		if cs.Kind != signature.Direct {
			continue
		}
		p := NormalizePath(cs.Path)
		if _, seen := ix.byPath[p]; !seen {
			base := path.Base(p)
			ix.byBase[base] = append(ix.byBase[base], p)
		}
		ix.byPath[p] = append(ix.byPath[p], name)
	}
	for _, paths := range ix.byBase {
		sort.Strings(paths)
	}

	for _, sig := range snap.MethodKeys() {
		simple := signature.SimpleMethodName(sig)
		ix.methodNameLookup[simple] = append(ix.methodNameLookup[simple], sig)
		e := signature.Erasure(sig)
		ix.erasure[e] = append(ix.erasure[e], sig)

		for _, callee := range snap.Methods[sig].Calls {
			ix.callers[callee] = append(ix.callers[callee], sig)
		}
	}
	return ix
}

// Snapshot returns the underlying snapshot.
func (ix *Index) Snapshot() *signature.Snapshot {
	return ix.snap
}

// HasMethod reports whether sig is a known method signature.
func (ix *Index) HasMethod(sig string) bool {
	_, ok := ix.snap.Methods[sig]
	return ok
}

// Method returns the method signature entry for sig.
func (ix *Index) Method(sig string) (*signature.MethodSignature, bool) {
	m, ok := ix.snap.Methods[sig]
	return m, ok
}

// Class returns the class signature entry for name.
func (ix *Index) Class(name string) (*signature.ClassSignature, bool) {
	c, ok := ix.snap.Classes[name]
	return c, ok
}

// Field returns the field signature entry for sig.
func (ix *Index) Field(sig string) (*signature.FieldSignature, bool) {
	f, ok := ix.snap.Fields[sig]
	return f, ok
}

// Direct maps an alias method signature to its direct twin. Direct and
// unknown signatures are returned unchanged.
func (ix *Index) Direct(sig string) string {
	m, ok := ix.snap.Methods[sig]
	if !ok || m.Kind != signature.ImplAlias {
		return sig
	}
	cs, ok := ix.snap.Classes[m.Class]
	if !ok || cs.AliasOf == "" {
		return sig
	}
	return cs.AliasOf + sig[len(m.Class):]
}

// Callees returns the methods sig calls. Aliases answer for their twin.
func (ix *Index) Callees(sig string) []string {
	m, ok := ix.snap.Methods[ix.Direct(sig)]
	if !ok {
		return nil
	}
	return m.Calls
}

// Callers returns the methods calling sig. Aliases answer for their twin.
func (ix *Index) Callers(sig string) []string {
	return ix.callers[ix.Direct(sig)]
}

// MethodsOf returns the method signatures declared by class.
func (ix *Index) MethodsOf(class string) []string {
	return ix.methodNameIndex[class]
}

// MethodsNamed returns every method signature with the bare name.
func (ix *Index) MethodsNamed(name string) []string {
	return ix.methodNameLookup[name]
}

// ByErasure returns the overloads whose signature erases to e.
func (ix *Index) ByErasure(e string) []string {
	return ix.erasure[e]
}

// ClassesForPath returns the direct classes declared in the file at p. The
// normalized path is tried first, then a suffix match in either direction
// (the diff may be rooted above or below the project), then the bare file
// name. Only one file ever answers: the longest suffix match wins, and ties
// and file-name matches go to the first path in sorted order.
func (ix *Index) ClassesForPath(p string) []string {
	p = NormalizePath(p)
	if names, ok := ix.byPath[p]; ok {
		return names
	}

	best, bestLen := "", 0
	for _, indexed := range sortedPaths(ix.byPath) {
		if !strings.HasSuffix(p, "/"+indexed) && !strings.HasSuffix(indexed, "/"+p) {
			continue
		}
		if n := min(len(p), len(indexed)); n > bestLen {
			best, bestLen = indexed, n
		}
	}
	if best != "" {
		return ix.byPath[best]
	}
	if paths := ix.byBase[path.Base(p)]; len(paths) > 0 {
		return ix.byPath[paths[0]]
	}
	return nil
}

// NormalizePath makes a file path comparable: forward slashes, cleaned,
// without a leading "./" or "/".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

func sortedPaths(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package violations

import (
	"javachain/internal/changes"
	"javachain/internal/signature"
)

// Lookup is the part of the project index used to map report lines to
// methods.
type Lookup interface {
	ClassesForPath(path string) []string
	MethodsOf(class string) []string
	Method(sig string) (*signature.MethodSignature, bool)
}

// Flagged is a set of method signatures with at least one violation.
type Flagged map[string]bool

// Annotate maps every violation to the methods of its file whose line range
// overlaps [beginline, endline], records them on the file and returns them
// all. Violations without a line range are ignored.
func Annotate(r *Report, lookup Lookup, root string) Flagged {
	flagged := Flagged{}
	for i := range r.Files {
		f := &r.Files[i]
		f.Signatures = nil
		classes := lookup.ClassesForPath(relativeTo(root, f.Filename))
		seen := map[string]bool{}
		for _, v := range f.Violations {
			if v.BeginLine <= 0 || v.EndLine <= 0 {
				continue
			}
			for _, class := range classes {
				for _, sig := range lookup.MethodsOf(class) {
					m, ok := lookup.Method(sig)
					if !ok || seen[sig] || !overlaps(m.StartLine, m.EndLine, v.BeginLine, v.EndLine) {
						continue
					}
					seen[sig] = true
					f.Signatures = append(f.Signatures, sig)
					flagged[sig] = true
				}
			}
		}
	}
	return flagged
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// FilterChanges returns a copy of set without flagged signatures. A change
// left with no signature is dropped. Applying it twice gives the same
// result as applying it once.
func FilterChanges(set changes.Set, flagged Flagged) changes.Set {
	out := make(changes.Set, len(set))
	for i, c := range set {
		var keep []string
		for _, sig := range c.Signatures {
			if !flagged[sig] {
				keep = append(keep, sig)
			}
		}
		if len(keep) == 0 {
			continue
		}
		cp := *c
		cp.Signatures = keep
		out[i] = &cp
	}
	return out
}

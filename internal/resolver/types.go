package resolver

import "strings"

// basicTypes resolve to the declaring class itself: they carry no project
// methods worth linking to.
var basicTypes = map[string]bool{
	"String": true, "Integer": true, "Long": true, "Double": true,
	"Float": true, "Boolean": true, "Date": true, "List": true, "Map": true,
	"Set": true, "ArrayList": true, "HashMap": true, "HashSet": true,
	"Object": true, "Short": true, "Byte": true, "Character": true,
	"BigDecimal": true, "BigInteger": true,
	"int": true, "long": true, "double": true, "float": true, "boolean": true,
	"char": true, "byte": true, "short": true,
}

// FieldTypeClass resolves a declared field type to the class whose methods
// the field can call. Generic types resolve through their first type
// argument; arrays and varargs are stripped. Basic and primitive types map
// to the declaring class; otherwise the import table is consulted and the
// declaring package is assumed.
func FieldTypeClass(declType, declaringClass, pkg string, imports map[string]string) string {
	t := baseType(declType)
	switch {
	case t == "":
		return declaringClass
	case basicTypes[t]:
		return declaringClass
	case strings.Contains(t, "."):
		return t
	}
	if fqcn, ok := imports[t]; ok {
		return fqcn
	}
	if pkg == "" {
		return t
	}
	return pkg + "." + t
}

func baseType(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = firstTypeArg(t[i+1:])
	}
	t = strings.TrimSuffix(t, "...")
	for strings.HasSuffix(t, "[]") {
		t = strings.TrimSuffix(t, "[]")
	}
	t = strings.TrimSpace(t)
	if strings.HasPrefix(t, "?") {
		// wildcard bound: "? extends Order" -> "Order"
		fields := strings.Fields(t)
		t = fields[len(fields)-1]
	}
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// firstTypeArg returns the first top-level argument of "A, B<C>>".
func firstTypeArg(s string) string {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth == 0 {
				return s[:i]
			}
			depth--
		case ',':
			if depth == 0 {
				return s[:i]
			}
		}
	}
	return s
}

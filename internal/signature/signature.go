// Package signature defines the analysis snapshot: class, method and field
// signatures keyed by their textual signature strings.
//
// Key formats:
//
//	class  package.ClassName
//	method package.ClassName.method(ParamType, ParamType)
//	field  package.FieldTypeClass.fieldName
//
// Method keys carry parameter types only, in declaration order. Two
// overloads whose parameter lists erase to the same text collide; the later
// one replaces the earlier one in the snapshot.
package signature

import (
	"sort"
	"strings"
)

// Kind tags how a class or method entry came into the snapshot.
type Kind string

const (
	// Direct entries were declared in a source file.
	Direct Kind = "direct"
	// ImplAlias entries are synthetic ClassNameImpl copies bridging an
	// interface-typed field to its conventional implementation.
	ImplAlias Kind = "impl_alias"
)

// ImplSuffix is the naming convention used to generate alias entries.
const ImplSuffix = "Impl"

// ClassSignature describes one class or interface.
type ClassSignature struct {
	Name string `json:"class_signature_name"`
	// Source is the class skeleton: leading comments and annotations, the
	// declaration line and an empty body.
	Source     string            `json:"class_source_code"`
	Fields     []string          `json:"field_signature_name"`
	Methods    []string          `json:"method_signature_name"`
	SimpleName map[string]string `json:"simple_method_signature_name_map"`
	Path       string            `json:"class_path"`
	Kind       Kind              `json:"kind"`
	AliasOf    string            `json:"alias_of,omitempty"`
}

// MethodSignature describes one method body.
type MethodSignature struct {
	Class      string   `json:"class_signature_name"`
	Source     string   `json:"method_source_code"`
	UsedFields []string `json:"usaged_fields"`
	Calls      []string `json:"usage_method_signature_name"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Kind       Kind     `json:"kind"`
}

// FieldSignature describes one class-level field.
type FieldSignature struct {
	// TypeClass is the class the field's declared type resolves to.
	TypeClass string `json:"field_class_signature_name"`
	Name      string `json:"field_name"`
	Signature string `json:"field_signature_name"`
	Source    string `json:"field_source_code"`
	Kind      Kind   `json:"kind"`
}

// Snapshot is the serialisable result of one analysis run.
type Snapshot struct {
	Classes map[string]*ClassSignature  `json:"class_signatures"`
	Methods map[string]*MethodSignature `json:"method_signatures"`
	Fields  map[string]*FieldSignature  `json:"field_signatures"`
}

// NewSnapshot returns an empty snapshot with allocated maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Classes: make(map[string]*ClassSignature),
		Methods: make(map[string]*MethodSignature),
		Fields:  make(map[string]*FieldSignature),
	}
}

// MethodKeys returns all method signatures in sorted order.
func (s *Snapshot) MethodKeys() []string {
	return sortedKeys(s.Methods)
}

// ClassKeys returns all class signatures in sorted order.
func (s *Snapshot) ClassKeys() []string {
	return sortedKeys(s.Classes)
}

// FieldKeys returns all field signatures in sorted order.
func (s *Snapshot) FieldKeys() []string {
	return sortedKeys(s.Fields)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Erasure strips the parameter list: "a.B.run(String, int)" -> "a.B.run".
func Erasure(methodSig string) string {
	if i := strings.IndexByte(methodSig, '('); i >= 0 {
		return methodSig[:i]
	}
	return methodSig
}

// SimpleMethodName returns the bare method name of a method signature.
func SimpleMethodName(methodSig string) string {
	e := Erasure(methodSig)
	if i := strings.LastIndexByte(e, '.'); i >= 0 {
		return e[i+1:]
	}
	return e
}

// ClassOf returns the class part of a method signature. Dots inside the
// parameter list are ignored.
func ClassOf(methodSig string) string {
	e := Erasure(methodSig)
	if i := strings.LastIndexByte(e, '.'); i >= 0 {
		return e[:i]
	}
	return ""
}

// ImplAliasName returns the alias class name for name and whether one applies.
// Names already ending in Impl get no alias.
func ImplAliasName(name string) (string, bool) {
	if strings.HasSuffix(name, ImplSuffix) {
		return "", false
	}
	return name + ImplSuffix, true
}

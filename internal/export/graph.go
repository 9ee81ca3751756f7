// Package export loads a resolved snapshot into Neo4j so reviewers can
// browse the call graph outside the bot.
package export

import (
	"strings"

	"javachain/internal/signature"
)

// Graph is a snapshot flattened into node and relationship rows.
type Graph struct {
	Project   string
	Classes   []ClassNode
	Methods   []MethodNode
	Fields    []FieldNode
	HasMethod []Edge
	Calls     []Edge
	UsesField []Edge
}

// ClassNode is a JavaClass node.
type ClassNode struct {
	Name    string
	Package string
	Path    string
	Kind    string
	AliasOf string
}

// MethodNode is a JavaMethod node.
type MethodNode struct {
	Signature string
	Class     string
	Name      string
	StartLine int
	EndLine   int
	Kind      string
}

// FieldNode is a JavaField node.
type FieldNode struct {
	Signature string
	TypeClass string
	Name      string
}

// Edge links two nodes by key.
type Edge struct {
	From string
	To   string
}

// Options controls what BuildGraph includes.
type Options struct {
	// IncludeAliases adds ClassNameImpl alias classes and methods. They
	// carry no call edges of their own.
	IncludeAliases bool
	// IncludeFields adds JavaField nodes and USES_FIELD relationships.
	IncludeFields bool
}

// BuildGraph flattens snap. Rows come out in signature order. Edges whose
// endpoints are not exported are dropped.
func BuildGraph(project string, snap *signature.Snapshot, opts Options) *Graph {
	g := &Graph{Project: project}
	classes := make(map[string]bool)
	methods := make(map[string]bool)

	for _, name := range snap.ClassKeys() {
		c := snap.Classes[name]
		if c.Kind == signature.ImplAlias && !opts.IncludeAliases {
			continue
		}
		classes[name] = true
		g.Classes = append(g.Classes, ClassNode{
			Name:    name,
			Package: packageOf(name),
			Path:    c.Path,
			Kind:    string(c.Kind),
			AliasOf: c.AliasOf,
		})
	}

	for _, sig := range snap.MethodKeys() {
		m := snap.Methods[sig]
		if !classes[m.Class] {
			continue
		}
		methods[sig] = true
		name := signature.SimpleMethodName(sig)
		if c, ok := snap.Classes[m.Class]; ok && c.SimpleName[sig] != "" {
			name = c.SimpleName[sig]
		}
		g.Methods = append(g.Methods, MethodNode{
			Signature: sig,
			Class:     m.Class,
			Name:      name,
			StartLine: m.StartLine,
			EndLine:   m.EndLine,
			Kind:      string(m.Kind),
		})
		g.HasMethod = append(g.HasMethod, Edge{From: m.Class, To: sig})
	}

	fields := make(map[string]bool)
	if opts.IncludeFields {
		for _, sig := range snap.FieldKeys() {
			f := snap.Fields[sig]
			if f.Kind == signature.ImplAlias && !opts.IncludeAliases {
				continue
			}
			fields[sig] = true
			g.Fields = append(g.Fields, FieldNode{Signature: sig, TypeClass: f.TypeClass, Name: f.Name})
		}
	}

	for _, m := range g.Methods {
		ms := snap.Methods[m.Signature]
		for _, callee := range ms.Calls {
			if methods[callee] {
				g.Calls = append(g.Calls, Edge{From: m.Signature, To: callee})
			}
		}
		for _, field := range ms.UsedFields {
			if fields[field] {
				g.UsesField = append(g.UsesField, Edge{From: m.Signature, To: field})
			}
		}
	}
	return g
}

func packageOf(class string) string {
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[:i]
	}
	return ""
}

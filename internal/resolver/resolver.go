// Package resolver turns raw indexed classes into a signature snapshot.
//
// Construction is two-phase. The structure pass registers every class,
// field and method. The edge pass then resolves field usage and call edges
// against the complete tables. Finally ClassNameImpl aliases are copied
// from the finished direct entries.
package resolver

import (
	"log/slog"
	"regexp"
	"time"

	"javachain/internal/indexer"
	"javachain/internal/signature"
	"javachain/internal/slogutil"
)

// Resolver builds snapshots. It holds no state between calls.
type Resolver struct {
	logger *slog.Logger
}

// New creates a resolver. A nil logger discards output.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Resolver{logger: logger}
}

// methodBody keeps what the edge pass needs about a direct method.
type methodBody struct {
	sig    string
	source string
}

// classFields keeps the resolved fields of one direct class.
type classFields struct {
	fields []resolvedField
}

type resolvedField struct {
	name      string
	typeClass string
	sigs      []string // direct signature first, then the alias if any
}

// Resolve builds the snapshot for classes, which must be in indexing order.
// When two files declare the same class name the later one wins.
func (r *Resolver) Resolve(classes []indexer.RawClass) *signature.Snapshot {
	start := time.Now()
	snap := signature.NewSnapshot()

	bodies := make(map[string][]methodBody)
	fieldsByClass := make(map[string]*classFields)
	var order []string

	for _, rc := range classes {
		if _, dup := snap.Classes[rc.Name]; dup {
			r.logger.Debug("duplicate class name, replacing", "class", rc.Name, "path", rc.Path)
			r.dropClass(snap, rc.Name)
		} else {
			order = append(order, rc.Name)
		}

		cs := &signature.ClassSignature{
			Name:       rc.Name,
			Source:     rc.Skeleton,
			Fields:     []string{},
			Methods:    []string{},
			SimpleName: make(map[string]string),
			Path:       rc.Path,
			Kind:       signature.Direct,
		}
		cf := &classFields{}
		for _, f := range rc.Fields {
			typeClass := FieldTypeClass(f.Type, rc.Name, rc.Package, rc.Imports)
			rf := resolvedField{name: f.Name, typeClass: typeClass}

			sig := typeClass + "." + f.Name
			snap.Fields[sig] = &signature.FieldSignature{
				TypeClass: typeClass,
				Name:      f.Name,
				Signature: sig,
				Source:    f.Source,
				Kind:      signature.Direct,
			}
			rf.sigs = append(rf.sigs, sig)

			if alias, ok := signature.ImplAliasName(typeClass); ok {
				aliasSig := alias + "." + f.Name
				if _, exists := snap.Fields[aliasSig]; !exists {
					snap.Fields[aliasSig] = &signature.FieldSignature{
						TypeClass: alias,
						Name:      f.Name,
						Signature: aliasSig,
						Source:    f.Source,
						Kind:      signature.ImplAlias,
					}
				}
				rf.sigs = append(rf.sigs, aliasSig)
			}
			cs.Fields = append(cs.Fields, rf.sigs...)
			cf.fields = append(cf.fields, rf)
		}

		var mb []methodBody
		pos := make(map[string]int)
		for _, m := range rc.Methods {
			sig := rc.Name + "." + m.Signature
			body := methodBody{sig: sig, source: m.Source}
			if i, collide := pos[sig]; collide {
				r.logger.Debug("overload collision, later declaration wins", "signature", sig)
				mb[i] = body
			} else {
				pos[sig] = len(mb)
				mb = append(mb, body)
				cs.Methods = append(cs.Methods, sig)
			}
			cs.SimpleName[sig] = m.Name
			snap.Methods[sig] = &signature.MethodSignature{
				Class:      rc.Name,
				Source:     indexer.FormatJavaCode(m.Source),
				UsedFields: []string{},
				Calls:      []string{},
				StartLine:  m.StartLine,
				EndLine:    m.EndLine,
				Kind:       signature.Direct,
			}
		}

		snap.Classes[rc.Name] = cs
		bodies[rc.Name] = mb
		fieldsByClass[rc.Name] = cf
	}

	erasure := erasureMap(snap, order)
	for _, name := range order {
		r.resolveEdges(snap, erasure, bodies[name], fieldsByClass[name])
	}
	aliases := r.registerAliases(snap, order)

	r.logger.Info("Resolved signatures",
		"classes", len(snap.Classes),
		"methods", len(snap.Methods),
		"fields", len(snap.Fields),
		"aliases", aliases,
		"duration", time.Since(start).Milliseconds(),
	)
	return snap
}

func (r *Resolver) dropClass(snap *signature.Snapshot, name string) {
	for _, sig := range snap.Classes[name].Methods {
		delete(snap.Methods, sig)
	}
	delete(snap.Classes, name)
}

// erasureMap indexes direct methods by erasure, in declaration order.
func erasureMap(snap *signature.Snapshot, order []string) map[string][]string {
	out := make(map[string][]string)
	for _, name := range order {
		for _, sig := range snap.Classes[name].Methods {
			e := signature.Erasure(sig)
			out[e] = append(out[e], sig)
		}
	}
	return out
}

var callSitePattern = regexp.MustCompile(`\b(\w+)\s*\.\s*(\w+)\s*\(`)

type callSite struct {
	receiver, method string
}

// resolveEdges fills UsedFields and Calls for the methods of one class. A
// field is used when its name occurs as a whole identifier outside
// comments and literals. A call edge exists for every "field.method("
// site whose method name belongs to a direct class the field resolves to;
// all overloads sharing that erasure are linked.
func (r *Resolver) resolveEdges(snap *signature.Snapshot, erasure map[string][]string, bodies []methodBody, cf *classFields) {
	for _, mb := range bodies {
		ms := snap.Methods[mb.sig]
		if ms == nil || ms.Kind != signature.Direct {
			continue
		}
		src := indexer.NewSource(mb.source)
		idents := identifiers(src)
		sites := callSites(src)

		seen := make(map[string]bool)
		for _, f := range cf.fields {
			if !idents[f.name] {
				continue
			}
			ms.UsedFields = appendUnique(ms.UsedFields, f.sigs...)

			targets := []string{f.typeClass}
			if alias, ok := signature.ImplAliasName(f.typeClass); ok {
				targets = append(targets, alias)
			}
			for _, target := range targets {
				cs, ok := snap.Classes[target]
				if !ok || cs.Kind != signature.Direct {
					continue
				}
				for _, site := range sites {
					if site.receiver != f.name {
						continue
					}
					for _, callee := range erasure[target+"."+site.method] {
						if !seen[callee] {
							seen[callee] = true
							ms.Calls = append(ms.Calls, callee)
						}
					}
				}
			}
		}
	}
}

func identifiers(src *indexer.Source) map[string]bool {
	out := make(map[string]bool)
	for _, loc := range identifierPattern.FindAllStringIndex(src.Text, -1) {
		if !src.InLiteral(loc[0]) {
			out[src.Text[loc[0]:loc[1]]] = true
		}
	}
	return out
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

func callSites(src *indexer.Source) []callSite {
	var out []callSite
	for _, m := range callSitePattern.FindAllStringSubmatchIndex(src.Text, -1) {
		if src.InLiteral(m[0]) {
			continue
		}
		out = append(out, callSite{
			receiver: src.Text[m[2]:m[3]],
			method:   src.Text[m[4]:m[5]],
		})
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, existing := range list {
			if existing == it {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, it)
		}
	}
	return list
}

// registerAliases adds a ClassNameImpl copy of every direct class, and of
// its methods, unless that name is already taken. Direct entries always
// win. Alias methods carry no call edges of their own; graph queries on
// them go through the direct twin named by AliasOf. Returns the number of
// alias classes added.
func (r *Resolver) registerAliases(snap *signature.Snapshot, order []string) int {
	added := 0
	for _, name := range order {
		cs := snap.Classes[name]
		aliasName, ok := signature.ImplAliasName(name)
		if !ok {
			continue
		}
		if _, taken := snap.Classes[aliasName]; taken {
			continue
		}

		alias := &signature.ClassSignature{
			Name:       aliasName,
			Source:     cs.Source,
			Fields:     append([]string{}, cs.Fields...),
			Methods:    []string{},
			SimpleName: make(map[string]string),
			Path:       cs.Path,
			Kind:       signature.ImplAlias,
			AliasOf:    name,
		}
		for _, sig := range cs.Methods {
			aliasSig := aliasName + sig[len(name):]
			alias.Methods = append(alias.Methods, aliasSig)
			alias.SimpleName[aliasSig] = cs.SimpleName[sig]
			if _, taken := snap.Methods[aliasSig]; taken {
				continue
			}
			m := snap.Methods[sig]
			snap.Methods[aliasSig] = &signature.MethodSignature{
				Class:      aliasName,
				Source:     m.Source,
				UsedFields: append([]string{}, m.UsedFields...),
				Calls:      []string{},
				StartLine:  m.StartLine,
				EndLine:    m.EndLine,
				Kind:       signature.ImplAlias,
			}
		}
		snap.Classes[aliasName] = alias
		added++
	}
	return added
}

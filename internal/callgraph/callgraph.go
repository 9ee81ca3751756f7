// Package callgraph answers bounded forward and backward traversal queries
// over the resolved usage edges of a snapshot.
//
// The flat queries are breadth-first with one visited set per call: every
// method is reported once, at the depth where it was first reached, so
// recursive and mutually recursive methods terminate. The nested query
// copies the visited set per branch instead, so one method can appear on
// several paths.
package callgraph

import (
	"sort"

	"javachain/internal/errors"
)

// Graph is the edge source for traversals. *index.Index implements it.
type Graph interface {
	HasMethod(sig string) bool
	Callees(sig string) []string
	Callers(sig string) []string
}

// Layers maps a distance from the origin to the methods first reached at
// that distance. Distance 0 holds the origin itself.
type Layers map[int][]string

// Distances returns the populated distances in ascending order.
func (l Layers) Distances() []int {
	out := make([]int, 0, len(l))
	for d := range l {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Relationship is the flat two-way view around one method.
type Relationship struct {
	CallsOut Layers `json:"calls_out"`
	CallsIn  Layers `json:"calls_in"`
}

// Signatures returns every method in the relationship once: the callee
// layers first, then the caller layers, each by ascending distance.
func (r *Relationship) Signatures() []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range []Layers{r.CallsOut, r.CallsIn} {
		for _, d := range l.Distances() {
			for _, sig := range l[d] {
				if !seen[sig] {
					seen[sig] = true
					out = append(out, sig)
				}
			}
		}
	}
	return out
}

// Node is one method in a nested relationship. A method reached through
// calls_out only has its own callees filled in, and one reached through
// calls_in only its callers.
type Node struct {
	CallsOut NestedGraph `json:"calls_out"`
	CallsIn  NestedGraph `json:"calls_in"`
}

// NestedGraph maps a method signature to its subtree.
type NestedGraph map[string]*Node

// Analyzer runs traversals over a Graph. It never mutates the graph, so
// one analyzer may serve concurrent queries over an immutable index.
type Analyzer struct {
	g Graph
}

// New creates an analyzer over g.
func New(g Graph) *Analyzer {
	return &Analyzer{g: g}
}

// CallChainByDepth returns the methods reachable from sig through usage
// edges, layered by call depth up to maxDepth. Negative bounds are treated
// as zero.
func (a *Analyzer) CallChainByDepth(sig string, maxDepth int) (Layers, error) {
	if !a.g.HasMethod(sig) {
		return nil, errors.NewSignatureNotFound(sig)
	}
	return bfs(sig, maxDepth, a.g.Callees), nil
}

// CallersByHeight returns the methods that reach sig, layered by height up
// to maxHeight.
func (a *Analyzer) CallersByHeight(sig string, maxHeight int) (Layers, error) {
	if !a.g.HasMethod(sig) {
		return nil, errors.NewSignatureNotFound(sig)
	}
	return bfs(sig, maxHeight, a.g.Callers), nil
}

// Relationship combines CallChainByDepth and CallersByHeight.
func (a *Analyzer) Relationship(sig string, maxOut, maxIn int) (*Relationship, error) {
	out, err := a.CallChainByDepth(sig, maxOut)
	if err != nil {
		return nil, err
	}
	in, err := a.CallersByHeight(sig, maxIn)
	if err != nil {
		return nil, err
	}
	return &Relationship{CallsOut: out, CallsIn: in}, nil
}

// NestedRelationship returns the call tree below sig (maxOut levels of
// callees) and above it (maxIn levels of callers).
func (a *Analyzer) NestedRelationship(sig string, maxOut, maxIn int) (*Node, error) {
	if !a.g.HasMethod(sig) {
		return nil, errors.NewSignatureNotFound(sig)
	}
	return &Node{
		CallsOut: a.nestedOut(sig, maxOut, map[string]bool{}),
		CallsIn:  a.nestedIn(sig, maxIn, map[string]bool{}),
	}, nil
}

func (a *Analyzer) nestedOut(sig string, depth int, visited map[string]bool) NestedGraph {
	out := NestedGraph{}
	if depth <= 0 || visited[sig] || !a.g.HasMethod(sig) {
		return out
	}
	visited[sig] = true
	for _, callee := range a.g.Callees(sig) {
		out[callee] = &Node{
			CallsOut: a.nestedOut(callee, depth-1, copyVisited(visited)),
			CallsIn:  NestedGraph{},
		}
	}
	return out
}

func (a *Analyzer) nestedIn(sig string, height int, visited map[string]bool) NestedGraph {
	in := NestedGraph{}
	if height <= 0 || visited[sig] {
		return in
	}
	visited[sig] = true
	for _, caller := range a.g.Callers(sig) {
		in[caller] = &Node{
			CallsOut: NestedGraph{},
			CallsIn:  a.nestedIn(caller, height-1, copyVisited(visited)),
		}
	}
	return in
}

func copyVisited(v map[string]bool) map[string]bool {
	c := make(map[string]bool, len(v))
	for k := range v {
		c[k] = true
	}
	return c
}

type queued struct {
	sig  string
	dist int
}

func bfs(start string, limit int, next func(string) []string) Layers {
	if limit < 0 {
		limit = 0
	}
	layers := Layers{}
	visited := make(map[string]bool)
	queue := []queued{{start, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.sig] {
			continue
		}
		visited[cur.sig] = true
		layers[cur.dist] = append(layers[cur.dist], cur.sig)

		if cur.dist == limit {
			continue
		}
		for _, n := range next(cur.sig) {
			if !visited[n] {
				queue = append(queue, queued{n, cur.dist + 1})
			}
		}
	}
	return layers
}

package main

import (
	"time"

	"github.com/spf13/cobra"

	"javachain/internal/callgraph"
)

var (
	callgraphRoot    string
	callgraphProject string
	callgraphDepth   int
	callgraphHeight  int
	callgraphNested  bool
	callgraphFormat  string
)

var callgraphCmd = &cobra.Command{
	Use:   "callgraph <method-signature>",
	Short: "Show callees and callers of a method",
	Long: `Expand the call graph around one method of the stored snapshot.

The flat view lists callees by call depth and callers by call height; each
method appears at the distance it is first reached. --nested prints the
tree form written to 3_method_calls.json instead.

Signatures use the indexed form: package.Class.method(ParamType, ...).

Examples:
  javachain callgraph 'com.shop.order.service.OrderServiceImpl.create(String, int)'
  javachain callgraph --depth 2 --height 1 --format human 'com.shop.Foo.bar()'
  javachain callgraph --nested --root ./order-service 'com.shop.Foo.bar()'`,
	Args: cobra.ExactArgs(1),
	Run:  runCallgraph,
}

func init() {
	callgraphCmd.Flags().StringVar(&callgraphRoot, "root", "", "Project root (default: current directory)")
	callgraphCmd.Flags().StringVar(&callgraphProject, "project", "", "Project name (default: base name of root)")
	callgraphCmd.Flags().IntVar(&callgraphDepth, "depth", -1, "Maximum call depth (default: traversal.maxCallsOut)")
	callgraphCmd.Flags().IntVar(&callgraphHeight, "height", -1, "Maximum caller height (default: traversal.maxCallsIn)")
	callgraphCmd.Flags().BoolVar(&callgraphNested, "nested", false, "Print the nested relationship tree")
	callgraphCmd.Flags().StringVar(&callgraphFormat, "format", "json", "Output format (json, human, yaml)")
	rootCmd.AddCommand(callgraphCmd)
}

func runCallgraph(cmd *cobra.Command, args []string) {
	start := time.Now()
	sig := args[0]
	s := newSession(callgraphRoot, callgraphProject)
	defer s.close()
	ctx, cancel := newContext()
	defer cancel()

	depth, height := traversalBounds(s, callgraphDepth, callgraphHeight)
	ix := s.loadIndex(ctx)
	analyzer := callgraph.New(ix)

	resp := &CallgraphResponseCLI{Signature: sig, MaxCallsOut: depth, MaxCallsIn: height}
	if callgraphNested {
		node, err := analyzer.NestedRelationship(sig, depth, height)
		if err != nil {
			exitWithError("building call graph", err)
		}
		resp.Nested = node
	} else {
		rel, err := analyzer.Relationship(sig, depth, height)
		if err != nil {
			exitWithError("building call graph", err)
		}
		resp.CallsOut = rel.CallsOut
		resp.CallsIn = rel.CallsIn
	}

	printResponse(resp, callgraphFormat)

	s.logger.Debug("Callgraph query completed",
		"signature", sig,
		"nested", callgraphNested,
		"duration", time.Since(start).Milliseconds(),
	)
}

// traversalBounds applies the configured bounds to flags left at -1.
func traversalBounds(s *session, depth, height int) (int, int) {
	if depth < 0 {
		depth = s.cfg.Traversal.MaxCallsOut
	}
	if height < 0 {
		height = s.cfg.Traversal.MaxCallsIn
	}
	return depth, height
}

// CallgraphResponseCLI contains call graph results for CLI output
type CallgraphResponseCLI struct {
	Signature   string           `json:"signature"`
	MaxCallsOut int              `json:"maxCallsOut"`
	MaxCallsIn  int              `json:"maxCallsIn"`
	CallsOut    callgraph.Layers `json:"calls_out,omitempty"`
	CallsIn     callgraph.Layers `json:"calls_in,omitempty"`
	Nested      *callgraph.Node  `json:"nested,omitempty"`
}

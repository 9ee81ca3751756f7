package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/callgraph"
	"javachain/internal/codecontext"
)

var (
	contextRoot    string
	contextProject string
	contextDepth   int
	contextHeight  int
	contextFormat  string
)

var contextCmd = &cobra.Command{
	Use:   "context <method-signature>",
	Short: "Assemble the code context of a method",
	Long: `Rebuild, per class, the source of a method and of every method within its
call graph bounds. Each fragment holds the class header, the fields the
selected methods use and the methods themselves. The entry "self" holds
the class of the method with its same-class callees.

Examples:
  javachain context 'com.shop.order.service.OrderServiceImpl.create(String, int)'
  javachain context --depth 1 --height 0 --format human 'com.shop.Foo.bar()'`,
	Args: cobra.ExactArgs(1),
	Run:  runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextRoot, "root", "", "Project root (default: current directory)")
	contextCmd.Flags().StringVar(&contextProject, "project", "", "Project name (default: base name of root)")
	contextCmd.Flags().IntVar(&contextDepth, "depth", -1, "Maximum call depth (default: traversal.maxCallsOut)")
	contextCmd.Flags().IntVar(&contextHeight, "height", -1, "Maximum caller height (default: traversal.maxCallsIn)")
	contextCmd.Flags().StringVar(&contextFormat, "format", "json", "Output format (json, human, yaml)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) {
	sig := args[0]
	s := newSession(contextRoot, contextProject)
	defer s.close()
	ctx, cancel := newContext()
	defer cancel()

	depth, height := traversalBounds(s, contextDepth, contextHeight)
	ix := s.loadIndex(ctx)

	rel, err := callgraph.New(ix).Relationship(sig, depth, height)
	if err != nil {
		exitWithError("building call graph", err)
	}
	related := rel.Signatures()
	bundle, err := codecontext.New(ix, s.loggers.Logger("codecontext")).Assemble(sig, related)
	if err != nil {
		exitWithError("assembling context", err)
	}

	printResponse(&ContextResponseCLI{
		Signature: sig,
		Related:   nonNil(related),
		Bundle:    bundle,
	}, contextFormat)
}

// ContextResponseCLI holds the code context of one method
type ContextResponseCLI struct {
	Signature string             `json:"signature"`
	Related   []string           `json:"related"`
	Bundle    codecontext.Bundle `json:"context"`
}

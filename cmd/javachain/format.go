package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"javachain/internal/callgraph"
	"javachain/internal/codecontext"
	"javachain/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML goes through JSON first so the YAML keys match the JSON tags.
func formatYAML(resp interface{}) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("failed to decode JSON: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *IndexResponseCLI:
		return formatIndexHuman(v), nil
	case *ChangesResponseCLI:
		return formatChangesHuman(v), nil
	case *CallgraphResponseCLI:
		return formatCallgraphHuman(v), nil
	case *ContextResponseCLI:
		return formatContextHuman(v), nil
	case *ReviewResponseCLI:
		return formatReviewHuman(v), nil
	case *ViolationsResponseCLI:
		return v.Markdown, nil
	case *RunsResponseCLI:
		return formatRunsHuman(v), nil
	case *ExportResponseCLI:
		return formatExportHuman(v), nil
	case *version.Build:
		return version.Full(), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatIndexHuman(r *IndexResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %s\n", r.Project)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "  Run:       %s\n", r.RunID)
	fmt.Fprintf(&b, "  Files:     %d\n", r.Files)
	fmt.Fprintf(&b, "  Classes:   %d\n", r.Classes)
	fmt.Fprintf(&b, "  Methods:   %d\n", r.Methods)
	fmt.Fprintf(&b, "  Fields:    %d\n", r.Fields)
	if r.Fingerprint != "" {
		fmt.Fprintf(&b, "  Tree:      %s\n", shortHash(r.Fingerprint))
	}
	fmt.Fprintf(&b, "  Duration:  %s\n", r.Duration)
	fmt.Fprintf(&b, "  Artifacts: %s\n", r.ArtifactDir)
	return b.String()
}

func formatChangesHuman(r *ChangesResponseCLI) string {
	var b strings.Builder
	if len(r.Changes) == 0 {
		return "No indexed method is touched by the diffs.\n"
	}
	for _, i := range r.Changes.Indices() {
		c := r.Changes[i]
		fmt.Fprintf(&b, "[%d] %s\n", i, c.FilePath)
		for _, sig := range c.Signatures {
			fmt.Fprintf(&b, "    %s\n", sig)
		}
	}
	fmt.Fprintf(&b, "\n%d changed methods in %d files\n", len(r.Signatures), len(r.Changes))
	return b.String()
}

func formatCallgraphHuman(r *CallgraphResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Signature)
	if r.Nested != nil {
		b.WriteString("\nCalls out:\n")
		writeNested(&b, r.Nested.CallsOut, true, 1)
		b.WriteString("\nCalled by:\n")
		writeNested(&b, r.Nested.CallsIn, false, 1)
		return b.String()
	}
	fmt.Fprintf(&b, "\nCalls out (depth %d):\n", r.MaxCallsOut)
	writeLayers(&b, r.CallsOut)
	fmt.Fprintf(&b, "\nCalled by (height %d):\n", r.MaxCallsIn)
	writeLayers(&b, r.CallsIn)
	return b.String()
}

func writeLayers(b *strings.Builder, l callgraph.Layers) {
	if len(l) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, d := range l.Distances() {
		for _, sig := range l[d] {
			fmt.Fprintf(b, "  %d  %s\n", d, sig)
		}
	}
}

func writeNested(b *strings.Builder, g callgraph.NestedGraph, out bool, depth int) {
	if depth == 1 && len(g) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, sig := range keys {
		fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth), sig)
		child := g[sig].CallsIn
		if out {
			child = g[sig].CallsOut
		}
		writeNested(b, child, out, depth+1)
	}
}

func formatContextHuman(r *ContextResponseCLI) string {
	var b strings.Builder
	keys := make([]string, 0, len(r.Bundle))
	for k := range r.Bundle {
		if k != codecontext.SelfKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if self, ok := r.Bundle[codecontext.SelfKey]; ok {
		fmt.Fprintf(&b, "// %s\n%s\n\n", r.Signature, self)
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "// %s\n%s\n\n", k, r.Bundle[k])
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func formatReviewHuman(r *ReviewResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review run %s (%s)\n", r.RunID, r.Project)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "  Changed files:     %d\n", r.ChangedFiles)
	fmt.Fprintf(&b, "  Reviewed files:    %d\n", r.ReviewedFiles)
	fmt.Fprintf(&b, "  Flagged methods:   %d\n", r.Flagged)
	fmt.Fprintf(&b, "  Duration:          %s\n", r.Duration)
	if len(r.Signatures) > 0 {
		b.WriteString("\nMethods sent to review:\n")
		for _, sig := range r.Signatures {
			fmt.Fprintf(&b, "  - %s\n", sig)
		}
	}
	if len(r.Skipped) > 0 {
		b.WriteString("\nSkipped:\n")
		for _, sig := range r.Skipped {
			fmt.Fprintf(&b, "  ! %s\n", sig)
		}
	}
	b.WriteString("\nArtifacts:\n")
	for _, p := range r.Artifacts {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	return b.String()
}

func formatRunsHuman(r *RunsResponseCLI) string {
	if len(r.Runs) == 0 {
		return fmt.Sprintf("No stored runs for %s\n", r.Project)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-20s  %7s  %7s  %7s\n", "RUN", "CREATED", "CLASSES", "METHODS", "FIELDS")
	for _, run := range r.Runs {
		fmt.Fprintf(&b, "%-36s  %-20s  %7d  %7d  %7d\n",
			run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.ClassCount, run.MethodCount, run.FieldCount)
	}
	return b.String()
}

func formatExportHuman(r *ExportResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exported %s to %s\n", r.Project, r.URI)
	if r.Cleaned {
		b.WriteString("  (previous graph removed)\n")
	}
	fmt.Fprintf(&b, "  Classes:    %d\n", r.Classes)
	fmt.Fprintf(&b, "  Methods:    %d\n", r.Methods)
	fmt.Fprintf(&b, "  Fields:     %d\n", r.Fields)
	fmt.Fprintf(&b, "  CALLS:      %d\n", r.Calls)
	fmt.Fprintf(&b, "  USES_FIELD: %d\n", r.UsesField)
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

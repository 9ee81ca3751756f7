package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/export"
)

var (
	exportProject  string
	exportURI      string
	exportUser     string
	exportPassword string
	exportAliases  bool
	exportFields   bool
	exportClean    bool
	exportFormat   string
)

var exportCmd = &cobra.Command{
	Use:   "export [root]",
	Short: "Load the snapshot graph into Neo4j",
	Long: `Export the classes, methods and call edges of the stored snapshot to Neo4j.
Nodes carry the project name, so several projects can share one database.

Connection settings default to export.neo4jUri, export.neo4jUser and
export.neo4jPassword from the config (JAVACHAIN_EXPORT_NEO4JPASSWORD in the
environment).

Examples:
  javachain export --clean
  javachain export ./order-service --neo4j-uri bolt://graph:7687 --fields`,
	Args: cobra.MaximumNArgs(1),
	Run:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportProject, "project", "", "Project name (default: base name of root)")
	exportCmd.Flags().StringVar(&exportURI, "neo4j-uri", "", "Neo4j URI (default: export.neo4jUri)")
	exportCmd.Flags().StringVar(&exportUser, "neo4j-user", "", "Neo4j user (default: export.neo4jUser)")
	exportCmd.Flags().StringVar(&exportPassword, "neo4j-password", "", "Neo4j password (default: export.neo4jPassword)")
	exportCmd.Flags().BoolVar(&exportAliases, "aliases", false, "Include Impl alias classes and methods")
	exportCmd.Flags().BoolVar(&exportFields, "fields", false, "Include field nodes and USES_FIELD edges")
	exportCmd.Flags().BoolVar(&exportClean, "clean", false, "Remove the project's previous graph first")
	exportCmd.Flags().StringVar(&exportFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s := newSession(argOrEmpty(args), exportProject)
	defer s.close()
	ctx, cancel := newContext()
	defer cancel()

	uri := firstNonEmpty(exportURI, s.cfg.Export.Neo4jURI)
	user := firstNonEmpty(exportUser, s.cfg.Export.Neo4jUser)
	password := firstNonEmpty(exportPassword, s.cfg.Export.Neo4jPassword)

	ix := s.loadIndex(ctx)
	g := export.BuildGraph(s.project, ix.Snapshot(), export.Options{
		IncludeAliases: exportAliases,
		IncludeFields:  exportFields,
	})

	loader, err := export.NewNeo4jLoader(ctx, uri, user, password, s.loggers.Logger("export"))
	if err != nil {
		exitWithError("connecting to Neo4j", err)
	}
	defer loader.Close(ctx)

	if err := loader.CreateIndexes(ctx); err != nil {
		exitWithError("creating indexes", err)
	}
	if exportClean {
		if err := loader.CleanProject(ctx, s.project); err != nil {
			exitWithError("removing previous graph", err)
		}
	}
	if err := loader.Load(ctx, g); err != nil {
		exitWithError("exporting graph", err)
	}

	printResponse(&ExportResponseCLI{
		Project:   s.project,
		URI:       uri,
		Cleaned:   exportClean,
		Classes:   len(g.Classes),
		Methods:   len(g.Methods),
		Fields:    len(g.Fields),
		Calls:     len(g.Calls),
		UsesField: len(g.UsesField),
	}, exportFormat)
}

// ExportResponseCLI summarises a Neo4j export
type ExportResponseCLI struct {
	Project   string `json:"project"`
	URI       string `json:"uri"`
	Cleaned   bool   `json:"cleaned"`
	Classes   int    `json:"classes"`
	Methods   int    `json:"methods"`
	Fields    int    `json:"fields"`
	Calls     int    `json:"calls"`
	UsesField int    `json:"usesField"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

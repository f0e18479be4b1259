package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/apimapper/internal/capture"
	"github.com/PentesterFlow/apimapper/internal/export"
	"github.com/PentesterFlow/apimapper/internal/store"
	"github.com/PentesterFlow/apimapper/pkg/mapper"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool
	storePath  string

	// Analyze flags
	blueprintName string
	projectID     string
	outputFile    string
	mergeRun      bool
	actionWindow  int
	sessionGap    int

	// Graph flags
	noEnrich bool

	// Hubs flags
	hubThreshold float64
	hubLimit     int

	// Export flags
	exportFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apimapper",
		Short: "APIMapper - API Surface Reconstruction",
		Long: `APIMapper - Reconstruct a web application's API surface from captured traffic.

Reads capture batches (native JSON or HAR 1.2) of HTTP exchanges, user actions,
and navigations, and produces an endpoint catalog with inferred path templates,
detected authentication patterns, mined interaction flows, site graphs with hub
scoring, and structural diffs between capture runs.`,
		Version: version,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [capture-file]",
		Short: "Analyze a capture batch",
		Long:  "Analyze a capture batch and produce an API blueprint.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	graphCmd := &cobra.Command{
		Use:   "graph [capture-file]",
		Short: "Build a site graph",
		Long:  "Build the structural graph of the captured site.",
		Args:  cobra.ExactArgs(1),
		RunE:  runGraph,
	}

	hubsCmd := &cobra.Command{
		Use:   "hubs [capture-file]",
		Short: "Score and tag hub pages",
		Long:  "Build the site graph and report its structurally important nodes.",
		Args:  cobra.ExactArgs(1),
		RunE:  runHubs,
	}

	diffCmd := &cobra.Command{
		Use:   "diff [before-capture] [after-capture]",
		Short: "Diff two capture runs",
		Long:  "Compare the site graphs of two capture runs and report structural changes.",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}

	exportCmd := &cobra.Command{
		Use:   "export [capture-file]",
		Short: "Export a blueprint",
		Long:  "Analyze a capture batch and export the blueprint in an interchange format.",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List stored projects",
		Long:  "List the projects persisted in the local store.",
		RunE:  runProjects,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Project store path (bolt database)")

	// Analyze flags
	analyzeCmd.Flags().StringVarP(&blueprintName, "name", "n", "", "Blueprint name")
	analyzeCmd.Flags().StringVarP(&projectID, "project", "p", "", "Project to store the blueprint under")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	analyzeCmd.Flags().BoolVar(&mergeRun, "merge", false, "Merge into the stored blueprint instead of replacing it")
	analyzeCmd.Flags().IntVar(&actionWindow, "action-window", 10, "Action correlation window in seconds")
	analyzeCmd.Flags().IntVar(&sessionGap, "session-gap", 60, "Session gap for flow mining in seconds")

	// Graph flags
	graphCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	graphCmd.Flags().StringVarP(&projectID, "project", "p", "", "Project to store the graph under")
	graphCmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Skip HTML body enrichment")

	// Hubs flags
	hubsCmd.Flags().Float64Var(&hubThreshold, "threshold", 0, "Hub score threshold (0 = default)")
	hubsCmd.Flags().IntVar(&hubLimit, "limit", 10, "Number of top nodes to print")

	// Export flags
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "openapi", "Export format (openapi, openapi-yaml, postman, curl, markdown)")
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(hubsCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(projectsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildMapper(cmd *cobra.Command) (*mapper.Mapper, error) {
	config := mapper.DefaultConfig()

	if configFile != "" {
		fileConfig, err := mapper.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	// Override with command-line flags if provided
	if blueprintName != "" {
		config.Name = blueprintName
	}
	if projectID != "" {
		config.ProjectID = projectID
	}
	if cmd.Flags().Changed("action-window") {
		config.Correlation.ActionWindow = time.Duration(actionWindow) * time.Second
	}
	if cmd.Flags().Changed("session-gap") {
		config.Flows.SessionGap = time.Duration(sessionGap) * time.Second
	}
	if cmd.Flags().Changed("threshold") {
		config.Hubs.Threshold = hubThreshold
	}
	if noEnrich {
		config.HTMLEnrichment = false
	}
	config.Verbose = verbose
	config.Debug = debug

	return mapper.New(mapper.WithConfig(config))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	c, err := capture.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	m, err := buildMapper(cmd)
	if err != nil {
		return err
	}

	var bp *model.Blueprint
	if mergeRun && storePath != "" && projectID != "" {
		bp, err = mergeIntoStored(m, c)
	} else {
		bp, err = m.Analyze(c.Exchanges, c.Actions, c.Navigations)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if storePath != "" && projectID != "" {
		if err := persistBlueprint(bp); err != nil {
			return err
		}
	}

	printBlueprintSummary(bp)
	return writeJSON(outputFile, bp)
}

func mergeIntoStored(m *mapper.Mapper, c *capture.Capture) (*model.Blueprint, error) {
	s, err := store.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	existing, err := s.LoadBlueprint(projectID)
	if err != nil {
		if err == store.ErrNotFound {
			return m.Analyze(c.Exchanges, c.Actions, c.Navigations)
		}
		return nil, fmt.Errorf("failed to load stored blueprint: %w", err)
	}
	return m.Merge(existing, c.Exchanges)
}

func persistBlueprint(bp *model.Blueprint) error {
	s, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	if err := s.SaveBlueprint(projectID, bp); err != nil {
		return fmt.Errorf("failed to store blueprint: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Blueprint stored under project %q\n", projectID)
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	c, err := capture.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	m, err := buildMapper(cmd)
	if err != nil {
		return err
	}

	g := m.BuildGraph(c.Exchanges, c.Navigations)

	if storePath != "" && projectID != "" {
		s, err := store.Open(storePath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()
		if err := s.SaveGraph(projectID, g); err != nil {
			return fmt.Errorf("failed to store graph: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Graph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	return writeJSON(outputFile, g)
}

func runHubs(cmd *cobra.Command, args []string) error {
	c, err := capture.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	m, err := buildMapper(cmd)
	if err != nil {
		return err
	}

	g := m.BuildGraph(c.Exchanges, c.Navigations)
	scores := m.Hubs(g)

	fmt.Printf("Top nodes by hub score (%d total):\n", len(scores))
	limit := hubLimit
	if len(scores) < limit {
		limit = len(scores)
	}
	for i := 0; i < limit; i++ {
		s := scores[i]
		node := g.NodeByID(s.NodeID)
		tags := ""
		if node != nil && len(node.Tags) > 0 {
			tags = fmt.Sprintf("  [%v]", node.Tags)
		}
		fmt.Printf("  %6.2f  in=%-4d out=%-4d %s%s\n", s.Score, s.InDegree, s.OutDegree, s.NodeID, tags)
	}
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := capture.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}
	after, err := capture.LoadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	m, err := buildMapper(cmd)
	if err != nil {
		return err
	}

	result := m.Diff(
		m.BuildGraph(before.Exchanges, before.Navigations),
		m.BuildGraph(after.Exchanges, after.Navigations),
	)

	if !result.HasChanges() {
		fmt.Println("No structural changes.")
		return nil
	}

	fmt.Printf("Nodes: %d added, %d removed, %d modified\n",
		len(result.AddedNodes), len(result.RemovedNodes), len(result.ModifiedNodes))
	fmt.Printf("Edges: %d added, %d removed, %d modified\n",
		len(result.AddedEdges), len(result.RemovedEdges), len(result.ModifiedEdges))
	return writeJSON(outputFile, result)
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := capture.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	m, err := buildMapper(cmd)
	if err != nil {
		return err
	}

	bp, err := m.Analyze(c.Exchanges, c.Actions, c.Navigations)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	w, closeFn, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	return export.WriteBlueprint(w, export.Format(exportFormat), bp)
}

func runProjects(cmd *cobra.Command, args []string) error {
	if storePath == "" {
		return fmt.Errorf("--store is required")
	}

	s, err := store.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	projects, err := s.ListProjects()
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects stored.")
		return nil
	}
	for _, p := range projects {
		fmt.Println(p)
	}
	return nil
}

func printBlueprintSummary(bp *model.Blueprint) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Blueprint: %s\n", bp.Name)
	if bp.BaseURL != "" {
		fmt.Fprintf(os.Stderr, "Base URL:        %s\n", bp.BaseURL)
	}
	fmt.Fprintf(os.Stderr, "Exchanges:       %d (%d excluded)\n", bp.Metadata.ExchangeCount, bp.Metadata.ExcludedCount)
	fmt.Fprintf(os.Stderr, "Endpoints:       %d\n", len(bp.Endpoints))
	fmt.Fprintf(os.Stderr, "Auth patterns:   %d\n", len(bp.AuthPatterns))
	fmt.Fprintf(os.Stderr, "Flows:           %d\n", len(bp.Flows))
	fmt.Fprintf(os.Stderr, "Duration:        %v\n", bp.Metadata.AnalysisDuration.Round(time.Millisecond))
	fmt.Fprintln(os.Stderr)

	count := 10
	if len(bp.Endpoints) < count {
		count = len(bp.Endpoints)
	}
	if count > 0 {
		fmt.Fprintln(os.Stderr, "Top Endpoints:")
		for i := 0; i < count; i++ {
			ep := bp.Endpoints[i]
			fmt.Fprintf(os.Stderr, "  [%s] %s%s (%d hits)\n", ep.Method, ep.Host, ep.PathTemplate, ep.Metadata.HitCount)
		}
		if len(bp.Endpoints) > 10 {
			fmt.Fprintf(os.Stderr, "  ... and %d more\n", len(bp.Endpoints)-10)
		}
		fmt.Fprintln(os.Stderr)
	}
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSON(path string, v interface{}) error {
	w, closeFn, err := openOutput(path)
	if err != nil {
		return err
	}
	defer closeFn()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

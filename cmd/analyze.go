package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// analyzeFlags holds the flag values for the analyze subcommand.
type analyzeFlags struct {
	input          string
	output         string
	metrics        bool
	classification bool
	sections       bool
	all            bool
	verbose        bool
}

// newAnalyzeCmd creates and configures the 'analyze' subcommand. It
// reads markdown files from an input directory, runs them through the
// analysis pipeline, and writes one JSON report per page plus an
// aggregate summary.
func newAnalyzeCmd() *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyzes a directory of markdown pages",
		Long: `Reads every .md file from the input directory, analyzes each page
for content metrics, page type, and sections, and writes a
<name>_analysis.json report per page plus a summary.json for the batch.

By default all analyzer outputs are included. Pass --metrics,
--classification, or --sections to restrict reports to a subset.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyzeCommand(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.input, "input", "", "directory of markdown files to analyze (required)")
	cmd.Flags().StringVar(&flags.output, "output", "", "directory for JSON reports (required)")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "include content metrics in reports")
	cmd.Flags().BoolVar(&flags.classification, "classification", false, "include page type classification in reports")
	cmd.Flags().BoolVar(&flags.sections, "sections", false, "include detected sections in reports")
	cmd.Flags().BoolVar(&flags.all, "all", false, "include every analyzer output (default when no subset flag is given)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print a per-page summary table")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runAnalyzeCommand(cmd *cobra.Command, flags *analyzeFlags) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger().Named("cli")

	pages, err := loadPages(flags.input)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no markdown files found in %s", flags.input)
	}
	if err := os.MkdirAll(flags.output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	logger.Info("analysis starting",
		zap.Int("pages", len(pages)),
		zap.String("input", flags.input),
		zap.String("output", flags.output),
	)

	started := time.Now()
	results, err := appInstance.Orchestrator().Analyze(cmd.Context(), pages, func(p analysis.Progress) {
		logger.Info("analysis progress", zap.Int("completed", p.Completed), zap.Int("total", p.Total))
	})
	if err != nil {
		return fmt.Errorf("analyze pages: %w", err)
	}

	include := reportFields(flags)
	for _, result := range results {
		name := reportFileName(result.URL)
		if err := writeReport(filepath.Join(flags.output, name), result, include); err != nil {
			return err
		}
	}
	if err := writeSummary(flags.output, pages, results, time.Since(started)); err != nil {
		return err
	}

	if flags.verbose {
		printResultsTable(cmd.OutOrStdout(), results)
	}

	failed := len(pages) - len(results)
	logger.Info("analysis finished",
		zap.Int("analyzed", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(started)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d of %d pages, reports in %s\n", len(results), len(pages), flags.output)
	return nil
}

// loadPages reads every .md file directly under dir into a Page. The
// page URL is the file name so reports stay traceable to their input.
func loadPages(dir string) ([]analysis.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var pages []analysis.Page
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", entry.Name(), err)
		}
		markdown, frontmatter := splitFrontmatter(string(raw))
		pages = append(pages, analysis.Page{
			URL:         entry.Name(),
			Title:       pageTitle(entry.Name(), markdown, frontmatter),
			Markdown:    markdown,
			Frontmatter: frontmatter,
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].URL < pages[j].URL })
	return pages, nil
}

// splitFrontmatter peels a leading "---" delimited block of key: value
// lines off the document. Anything that does not look like simple
// frontmatter is left in the markdown body untouched.
func splitFrontmatter(doc string) (string, map[string]any) {
	const marker = "---"
	trimmed := strings.TrimLeft(doc, "\n")
	if !strings.HasPrefix(trimmed, marker+"\n") {
		return doc, nil
	}
	rest := trimmed[len(marker)+1:]
	end := strings.Index(rest, "\n"+marker)
	if end < 0 {
		return doc, nil
	}

	meta := map[string]any{}
	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	body := rest[end+len(marker)+1:]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	}
	return body, meta
}

// pageTitle prefers frontmatter, then the first H1, then the file name.
func pageTitle(fileName, markdown string, frontmatter map[string]any) string {
	if title, ok := frontmatter["title"].(string); ok && title != "" {
		return title
	}
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return strings.TrimSuffix(fileName, ".md")
}

// reportFields maps the subset flags onto the report blocks to keep.
// No subset flag (or --all) means everything.
func reportFields(flags *analyzeFlags) map[string]bool {
	if flags.all || (!flags.metrics && !flags.classification && !flags.sections) {
		return map[string]bool{"metrics": true, "classification": true, "sections": true}
	}
	return map[string]bool{
		"metrics":        flags.metrics,
		"classification": flags.classification,
		"sections":       flags.sections,
	}
}

func reportFileName(url string) string {
	base := strings.TrimSuffix(filepath.Base(url), ".md")
	return base + "_analysis.json"
}

func writeReport(path string, result *analysis.Result, include map[string]bool) error {
	report := map[string]any{
		"url":          result.URL,
		"analysisTime": result.AnalysisTime.String(),
	}
	if include["classification"] {
		report["pageType"] = result.PageType
		report["confidence"] = result.Confidence
	}
	if include["metrics"] {
		report["contentMetrics"] = result.ContentMetrics
	}
	if include["sections"] {
		report["sections"] = result.Sections
	}
	if len(result.CrossReferences) > 0 {
		report["crossReferences"] = result.CrossReferences
		report["relatedPages"] = result.RelatedPages
	}
	if len(result.Metadata) > 0 {
		report["metadata"] = result.Metadata
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// batchSummary is the shape of summary.json.
type batchSummary struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Submitted   int            `json:"submitted"`
	Analyzed    int            `json:"analyzed"`
	Failed      int            `json:"failed"`
	Elapsed     string         `json:"elapsed"`
	PageTypes   map[string]int `json:"pageTypes"`
	AvgQuality  float64        `json:"avgQuality"`
}

func writeSummary(dir string, pages []analysis.Page, results []*analysis.Result, elapsed time.Duration) error {
	summary := batchSummary{
		GeneratedAt: time.Now().UTC(),
		Submitted:   len(pages),
		Analyzed:    len(results),
		Failed:      len(pages) - len(results),
		Elapsed:     elapsed.String(),
		PageTypes:   map[string]int{},
	}
	for _, result := range results {
		summary.PageTypes[string(result.PageType)]++
		summary.AvgQuality += result.ContentMetrics.Quality
	}
	if len(results) > 0 {
		summary.AvgQuality /= float64(len(results))
	}

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.json"), payload, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func printResultsTable(out io.Writer, results []*analysis.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Page", "Type", "Confidence", "Words", "Sections", "Quality", "Time"})
	for _, result := range results {
		t.AppendRow(table.Row{
			result.URL,
			result.PageType,
			fmt.Sprintf("%.2f", result.Confidence),
			result.ContentMetrics.Density.Words,
			len(result.Sections),
			fmt.Sprintf("%.2f", result.ContentMetrics.Quality),
			result.AnalysisTime.Round(time.Millisecond),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

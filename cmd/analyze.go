package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-optimizer/pkg/analyzer"
	"github.com/nsxbet/sql-optimizer/pkg/complexity"
	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/rules"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [sql-file]",
	Short: "Analyze a SQL query and suggest optimizations",
	Long: `Analyze one SQL statement and report optimization suggestions, a
complexity score and execution-plan tips.

The statement is read from the file argument, from --query, or from stdin
when neither is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags for analyze command
	analyzeCmd.Flags().StringP("query", "q", "", "SQL statement to analyze")
	analyzeCmd.Flags().StringP("dialect", "d", "", "SQL dialect (mysql, postgres, oracle, mssql, sqlite, generic)")
	analyzeCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	analyzeCmd.Flags().StringP("rules", "r", "", "path to rules configuration file")
	analyzeCmd.Flags().Bool("strict", false, "also validate MySQL and PostgreSQL statements against the full grammar")
	analyzeCmd.Flags().Bool("explain-score", false, "show how the complexity score was computed")
	analyzeCmd.Flags().Bool("fail-on-high", false, "exit with non-zero code on a syntax error or a high severity suggestion")

	// Bind flags to viper
	_ = viper.BindPFlag("dialect", analyzeCmd.Flags().Lookup("dialect"))
	_ = viper.BindPFlag("output", analyzeCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("rules-file", analyzeCmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("strict", analyzeCmd.Flags().Lookup("strict"))
	_ = viper.BindPFlag("fail-on-high", analyzeCmd.Flags().Lookup("fail-on-high"))
}

// analysisReport is what json and yaml output encode.
type analysisReport struct {
	types.AnalysisResult `yaml:",inline"`
	ComplexityLevel      string              `json:"complexity_level"          yaml:"complexity_level"`
	ScoreBreakdown       *complexity.Factors `json:"score_breakdown,omitempty" yaml:"score_breakdown,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Close()

	slog.Debug("Starting analyze command", "args", args)

	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetString("rules-file"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}
	if err := cfg.Validate(typeNames()); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	opts := []analyzer.Option{
		analyzer.WithConfigObject(cfg),
		analyzer.WithLogger(log.GetSlogLogger()),
	}
	if viper.GetBool("strict") {
		opts = append(opts, analyzer.WithStrictGrammar(true))
	}
	a := analyzer.New(opts...)

	result, err := a.Analyze(commandContext(cmd), query, viper.GetString("dialect"))
	if err != nil {
		return errors.Wrap(err, "analysis aborted")
	}

	report := analysisReport{
		AnalysisResult:  *result,
		ComplexityLevel: types.ComplexityLevel(result.ComplexityScore),
	}
	if explain, _ := cmd.Flags().GetBool("explain-score"); explain && len(result.SyntaxErrors) == 0 {
		if f, errs := fragments.Build(result.Query, result.Dialect); len(errs) == 0 {
			factors := complexity.Breakdown(f)
			report.ScoreBreakdown = &factors
		}
	}

	if err := outputResult(cmd.OutOrStdout(), report, viper.GetString("output")); err != nil {
		return err
	}

	if viper.GetBool("fail-on-high") && analyzer.HasHighSeverity(result) {
		os.Exit(1)
	}
	return nil
}

func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if q, _ := cmd.Flags().GetString("query"); q != "" {
		if len(args) > 0 {
			return "", errors.New("use either a file argument or --query, not both")
		}
		return q, nil
	}

	if len(args) == 1 {
		slog.Debug("Reading SQL file", "file", args[0])
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", errors.Wrapf(err, "failed to read SQL file: %s", args[0])
		}
		return string(data), nil
	}

	slog.Debug("Reading SQL from stdin")
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "failed to read SQL from stdin")
	}
	return string(data), nil
}

func outputResult(w io.Writer, report analysisReport, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(report)
	case "text":
		outputText(w, report)
		return nil
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func outputText(w io.Writer, report analysisReport) {
	result := &report.AnalysisResult

	if len(result.SyntaxErrors) > 0 {
		for _, e := range result.SyntaxErrors {
			fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("[SYNTAX ERROR]"), e.Error())
		}
		fmt.Fprintf(w, "\n%s\n", analyzer.Summarize(result))
		return
	}

	if len(result.Suggestions) == 0 {
		fmt.Fprintln(w, color.GreenString("No optimization issues found."))
	}
	for _, s := range result.Suggestions {
		fmt.Fprintf(w, "%s %s (%s)\n", severityColor(s.Severity).Sprintf("[%s]", strings.ToUpper(s.Severity.String())), s.Title, s.Type)
		fmt.Fprintf(w, "  %s\n", s.Description)
		fmt.Fprintf(w, "  Suggestion: %s\n", s.Recommendation)
		if s.Example != "" {
			fmt.Fprintf(w, "  Example: %s\n", color.CyanString(s.Example))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Complexity: %d (%s)\n", result.ComplexityScore, report.ComplexityLevel)
	if f := report.ScoreBreakdown; f != nil {
		fmt.Fprintf(w, "  joins=%d implicit_joins=%d subqueries=%d set_operators=%d case=%d group_by=%d order_by=%d having=%d functions=%d\n",
			f.Joins, f.ImplicitJoins, f.Subqueries, f.SetOperators, f.CaseBranches, f.GroupBy, f.OrderBy, f.Having, f.Functions)
	}

	if len(result.ExecutionPlanTips) > 0 {
		fmt.Fprintln(w, "\nExecution plan tips:")
		for _, tip := range result.ExecutionPlanTips {
			fmt.Fprintf(w, "  - %s\n", tip)
		}
	}
	fmt.Fprintf(w, "\n%s\n", analyzer.Summarize(result))
}

func severityColor(s types.Severity) *color.Color {
	switch s {
	case types.Severity_HIGH:
		return color.New(color.FgRed, color.Bold)
	case types.Severity_MEDIUM:
		return color.New(color.FgYellow, color.Bold)
	case types.Severity_LOW:
		return color.New(color.FgBlue, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func typeNames() []string {
	var out []string
	for _, t := range rules.Types() {
		out = append(out, string(t))
	}
	return out
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

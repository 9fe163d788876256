package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/rules"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the optimization rules",
	Long: `List every optimization rule with its category and severity, in the
order suggestions are reported.

With --init-config, write a configuration file that enables every rule
instead; switch rules off by setting their level to DISABLED.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	// not bound to viper: "output" belongs to the analyze command
	rulesCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	rulesCmd.Flags().String("init-config", "", "write a configuration template to this file")
	rulesCmd.Flags().StringP("dialect", "d", "", "dialect recorded in the configuration template")
}

func runRules(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer log.Close()

	if path, _ := cmd.Flags().GetString("init-config"); path != "" {
		dialect, _ := cmd.Flags().GetString("dialect")
		cfg := config.Template(typeNames(), types.ParseDialect(dialect))
		if err := config.WriteFile(cfg, path); err != nil {
			return err
		}
		slog.Info("Wrote configuration template", "file", path, "rules", len(cfg.Rules))
		return nil
	}

	format, _ := cmd.Flags().GetString("output")
	return outputRules(cmd.OutOrStdout(), rules.Default().Rules(), format)
}

func outputRules(w io.Writer, list []advisor.Rule, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"rules": list})
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(map[string]any{"rules": list})
	case "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tCODE\tCATEGORY\tSEVERITY\tTITLE")
		for _, r := range list {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
				r.Type, r.Code, r.Category, severityColor(r.Severity).Sprint(r.Severity), r.Title)
		}
		if err := tw.Flush(); err != nil {
			return errors.Wrap(err, "failed to write rules")
		}
		fmt.Fprintf(w, "\n%s\n", color.New(color.Faint).Sprintf("%d rules", len(list)))
		return nil
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

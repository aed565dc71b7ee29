// Package cli implements valuectl, the offline companion of the dashboard.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mauv0809/valuedash/internal/config"
	"github.com/mauv0809/valuedash/internal/db"
	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "valuectl",
		Short: "valuectl - statement reconciliation and valuation from the command line",
		Long: `valuectl runs the dashboard's reconciler and valuation engine on local files
and manages the dashboard database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newMigrateCmd())

	rootCmd.PersistentFlags().Bool("legacy", false, "Read statement files in the legacy document layout")

	return rootCmd
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Value a statement history",
		Long: `Value a statement history read from a JSON file, most recent period first.
Example: valuectl analyze --history acme.json --assumptions acme.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			historyPath, _ := cmd.Flags().GetString("history")
			assumptionsPath, _ := cmd.Flags().GetString("assumptions")
			asJSON, _ := cmd.Flags().GetBool("json")
			legacy, _ := cmd.Flags().GetBool("legacy")

			history, err := readStatements(historyPath, legacy)
			if err != nil {
				return err
			}

			assumptions := cfg.DefaultAssumptions
			if assumptionsPath != "" {
				if assumptions, err = readAssumptions(assumptionsPath); err != nil {
					return err
				}
			}

			// Files are not guaranteed to be in order.
			history = statement.Reconcile(nil, history)

			engine := valuation.NewEngine(cfg.EngineOptions()...)
			a, err := engine.Analyze(history, assumptions)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, a)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderAnalysis(filepath.Base(historyPath), a, assumptions))
			return err
		},
	}

	cmd.Flags().String("history", "", "JSON file with the statement history")
	cmd.Flags().String("assumptions", "", "YAML file with growth_rate, years and safety_margin (defaults from the environment)")
	cmd.Flags().Bool("json", false, "Print the analysis as JSON")
	cmd.MarkFlagRequired("history")

	return cmd
}

// newReconcileCmd creates the reconcile command
func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile EXISTING INCOMING",
		Short: "Merge a statement batch into a stored series",
		Long: `Merge the statements of INCOMING into EXISTING and print the resulting series
as JSON. An empty EXISTING may be given as "-".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			legacy, _ := cmd.Flags().GetBool("legacy")

			var existing []statement.Statement
			if args[0] != "-" {
				var err error
				if existing, err = readStatements(args[0], legacy); err != nil {
					return err
				}
			}
			incoming, err := readStatements(args[1], legacy)
			if err != nil {
				return err
			}

			return writeJSON(cmd, statement.Reconcile(existing, incoming))
		},
	}
	return cmd
}

// newMigrateCmd creates the migrate command
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}
			if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
			return nil
		},
	}
}

func readStatements(path string, legacy bool) ([]statement.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statements: %w", err)
	}

	if legacy {
		var docs []statement.LegacyFinancial
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return statement.FromLegacy(docs), nil
	}

	var out []statement.Statement
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

func readAssumptions(path string) (valuation.Assumptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return valuation.Assumptions{}, fmt.Errorf("reading assumptions: %w", err)
	}

	var a valuation.Assumptions
	if err := yaml.UnmarshalStrict(data, &a); err != nil {
		return valuation.Assumptions{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return valuation.Assumptions{}, err
	}
	return a, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/deduplication"
	"github.com/steveyegge/triage/internal/processor"
	"github.com/steveyegge/triage/internal/storage/textfile"
)

var (
	configPath  string
	dataDirFlag string

	// cfg is loaded before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Route internal tickets to departments and merge duplicates",
	Long: `triage classifies employee tickets into soporte tecnico, recursos humanos
or operaciones with a language model, then stores them in one text file per
department. A ticket similar enough to a stored one adds the requester to
the stored ticket instead of creating a new one.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDirFlag != "" {
			loaded.DataDir = dataDirFlag
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Department file directory (overrides config)")
}

// newProcessor wires the configured classifier, embedder and store
func newProcessor() (*processor.Processor, error) {
	table, err := cfg.DepartmentTable()
	if err != nil {
		return nil, err
	}

	classifier, err := ai.New(cfg.ClassifierSettings())
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	embedder, err := cfg.NewEmbedder()
	if err != nil {
		return nil, err
	}

	dedup, err := deduplication.NewEmbeddingDeduplicator(embedder, cfg.Dedup)
	if err != nil {
		return nil, fmt.Errorf("creating deduplicator: %w", err)
	}

	return processor.New(&processor.Config{
		Departments:  table,
		Store:        textfile.New(cfg.DataDir),
		Classifier:   classifier,
		Deduplicator: dedup,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

// printHeader prints a bold cyan section title
func printHeader(cmd *cobra.Command, title string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", cyan(title))
}

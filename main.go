// litpipe coordinates the three stages of the literature review pipeline:
// extract (PDFs -> review JSON via a hosted model), load (review JSON ->
// DuckDB + Parquet snapshot), and query (natural language -> SQL).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scorchlab/litpipe/internal/config"
	"github.com/scorchlab/litpipe/pkg/analyst"
	"github.com/scorchlab/litpipe/pkg/extract"
	"github.com/scorchlab/litpipe/pkg/loader"
	"github.com/scorchlab/litpipe/pkg/store"
)

var baseDir string

var rootCmd = &cobra.Command{
	Use:   "litpipe",
	Short: "Climate-health literature review pipeline",
	Long: `litpipe coordinates three file-system-coupled stages:

  extract   ask a hosted model to fill the extraction schema for each new PDF
  load      insert new review JSON files into the DuckDB store, re-export Parquet
  query     translate a question into SQL and run it against the store

Stages share no process state; each run works off the pdfs/, reviews/ and
duckdb/ folders under the base directory.`,
	SilenceUsage: true,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Process unprocessed PDFs into review JSON files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(baseDir)
		if err != nil {
			return err
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}

		ctx := context.Background()
		client, err := extract.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return err
		}
		defer client.Close()

		ex, err := extract.New(client, cfg.PDFDir, cfg.ReviewDir)
		if err != nil {
			return err
		}

		summary, err := ex.Run(ctx)
		if err != nil {
			return err
		}
		if summary.Processed > 0 {
			summary.Print()
		}
		if summary.Succeeded > 0 {
			fmt.Printf("\n✓ Created %d new review file(s)\n", summary.Succeeded)
			fmt.Println("\nNext step: run 'litpipe load' to update the database")
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d document(s) failed", summary.Failed)
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load new review files into DuckDB and re-export the Parquet snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(baseDir)
		if err != nil {
			return err
		}

		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("DuckDB Converter")
		fmt.Println(strings.Repeat("=", 60))

		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		fmt.Printf("✓ Connected to: %s\n", cfg.DBPath)

		summary, err := loader.New(s, cfg.ReviewDir, cfg.ParquetPath).Run()
		if err != nil {
			return err
		}
		summary.Print()
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a natural-language question against the review database",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(baseDir)
		if err != nil {
			return err
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}

		s, err := store.OpenReadOnly(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		a, err := analyst.New(ctx, s, cfg.APIKey, cfg.Model)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) > 0 {
			return a.RunOnce(ctx, strings.Join(args, " "))
		}
		return a.RunInteractive(ctx)
	},
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "base directory (default: LITPIPE_BASE_DIR or .)")
	rootCmd.AddCommand(extractCmd, loadCmd, queryCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-collator/internal/client"
	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/flatten"
	"github.com/joseph-ayodele/invoice-collator/internal/workflow"
)

var (
	envFile string
	cfg     *common.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Upload PDF invoices for extraction and collate the results into a spreadsheet",
	Long: `invoicectl sends a batch of PDF invoices to the extraction service,
fetches the processed results and flattens every extracted entity into one
CSV or XLSX file. Run "serve" for the browser UI or "process" for a one-shot batch.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
}

func initConfig() {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		printError("Warning: could not load %s: %v\n", envFile, err)
	}
	cfg = common.LoadConfig()
	logger = cfg.Log.NewLogger()
	slog.SetDefault(logger)
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func newPipeline() *workflow.Pipeline {
	svc := client.NewClient(client.Config{
		BaseURL: cfg.Extraction.ServerURL,
		APIKey:  cfg.Extraction.APIKey,
		Timeout: cfg.Extraction.Timeout,
	}, logger)
	return workflow.NewPipeline(logger, svc, flatten.New(logger))
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"recibi/internal/config"
	"recibi/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	dataPath   string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "recibi",
	Short: "recibi - aid receipt generator",
	Long: `recibi fills the receipt template for an aid payment to a beneficiary.

Beneficiaries are read from the regional spreadsheet; the aid code, amount,
professional and payment method are chosen in a form. Minors are issued the
receipt through their holder, and co-payment aids are reduced by the
beneficiary's share.

Run without arguments to open the interactive form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive form owns the terminal
		if cmd.CalledAs() == "recibi" {
			logger = zap.NewNop()
			return nil
		}

		zc := zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a receipt without the form",
	Long: `Validates the given values, resolves the holder of a minor and writes
the receipt document.

For a minor, --yes accepts the holder found in the spreadsheet and --holder
supplies it explicitly.

Example:
  recibi generate --data beneficiarios.xlsx --id 00123 --code ATSANGA --amount 50`,
	RunE: runGenerate,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the receipt fields without writing a document",
	RunE:  runPreview,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List aid codes with their predefined and maximum amounts",
	RunE:  runCatalog,
}

var historyCmd = &cobra.Command{
	Use:   "history [beneficiary-id]",
	Short: "List receipts issued from this workstation",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

// Receipt flags shared by generate and preview
var (
	flagID           string
	flagCode         string
	flagAmount       string
	flagProfessional string
	flagPayment      string
	flagHolder       string
	flagYes          bool
	flagOpen         bool
	flagLimit        int
)

func addReceiptFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagID, "id", "", "Beneficiary SIRIA number (required)")
	cmd.Flags().StringVar(&flagCode, "code", "", "Aid code (required)")
	cmd.Flags().StringVar(&flagAmount, "amount", "", "Amount in euros (default: the aid's predefined amount)")
	cmd.Flags().StringVar(&flagProfessional, "professional", "", "Professional name (default: first in the spreadsheet)")
	cmd.Flags().StringVar(&flagPayment, "payment", "Efectivo", "Payment method: "+strings.Join(config.ValidPaymentMethods, " or "))
	cmd.Flags().StringVar(&flagHolder, "holder", "", "Holder SIRIA number for a minor")
	cmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Accept the holder found in the spreadsheet")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("code")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.recibi/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "Beneficiary spreadsheet (.xlsx)")

	addReceiptFlags(generateCmd)
	generateCmd.Flags().BoolVar(&flagOpen, "open", false, "Open the document after writing it")
	addReceiptFlags(previewCmd)
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Maximum entries to show (0 = all)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

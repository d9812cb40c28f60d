package cmd

import (
	"fmt"
	"os"
	"time"

	"terminal-log-reconciler/internal/validator"
	"terminal-log-reconciler/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Flags for the validate command
var (
	claimAmount        string
	claimCollectAmount string
	claimDate          string
	claimFolio         string
)

const claimDateLayout = "2006-01-02"

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a cash discrepancy claim against the ingested logs",
	Long: `Validate ingests a directory of terminal log files and checks whether
a claimed cash discrepancy is justified by the log evidence: an
unverified deposit matching the claimed amount, a technical error
near the claimed date, or deposit activity around it.

Examples:
  # Validate a claimed amount
  loganalyzer validate --logs-dir ./logs --matrix matrix.csv --amount 150.00

  # Validate amount and date together, with the collected amount
  loganalyzer validate --logs-dir ./logs --matrix matrix.csv \
    --amount 150.00 --collect-amount 1200.00 --date 2024-03-15 --folio 48213`,

	PreRunE: validateValidateFlags,
	RunE:    runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&logsDir, "logs-dir", "d", "", "directory of terminal log files (required)")
	validateCmd.Flags().StringVarP(&matrixFile, "matrix", "m", "", "path to the reference error matrix CSV")
	validateCmd.Flags().BoolVar(&allowMissingMatrix, "allow-missing-matrix", false, "classify cash files without a loaded matrix")
	validateCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "files processed per chunk (default 64)")
	validateCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress percentages")

	validateCmd.Flags().StringVarP(&claimAmount, "amount", "a", "", "claimed discrepancy amount")
	validateCmd.Flags().StringVar(&claimCollectAmount, "collect-amount", "", "total amount the claimant says was collected")
	validateCmd.Flags().StringVar(&claimDate, "date", "", "claimed incident date (YYYY-MM-DD)")
	validateCmd.Flags().StringVar(&claimFolio, "folio", "", "claim folio number")
}

func validateValidateFlags(cmd *cobra.Command, args []string) error {
	if logsDir == "" {
		return errors.ValidationError(errors.CodeMissingField, "logs-dir", nil, nil)
	}

	if matrixFile == "" && !allowMissingMatrix {
		return errors.ConfigurationError(errors.CodeMatrixNotLoaded, "matrix", nil, nil)
	}

	if claimAmount == "" && claimDate == "" {
		return errors.ValidationError(errors.CodeMissingField, "amount or date", nil, nil)
	}

	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	claim, err := buildClaimInput()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	session, result, err := runBatch(cmd.Context())
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	validation, err := session.ValidateClaim(claim)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	fmt.Printf("Folio:      %s\n", claim.Folio)
	if claim.HasAmount() {
		fmt.Printf("Claimed:    $%s\n", claim.ClaimedAmount.StringFixed(2))
	}
	if claim.HasDate() {
		fmt.Printf("Date:       %s\n", claim.ClaimedDate.Format(claimDateLayout))
	}
	fmt.Printf("Files:      %d analyzed, %d skipped\n\n", result.Stats.TotalFiles, result.Stats.SkippedFiles)
	fmt.Println(validation.VerdictText())

	if !validation.IsJustified {
		os.Exit(1)
	}

	return nil
}

// buildClaimInput converts the claim flags into a validator input
func buildClaimInput() (validator.ClaimInput, error) {
	claim := validator.ClaimInput{Folio: claimFolio}

	if claimAmount != "" {
		amount, err := decimal.NewFromString(claimAmount)
		if err != nil {
			return claim, errors.ValidationError(errors.CodeInvalidAmount, "amount", claimAmount, err)
		}
		claim.ClaimedAmount = amount
	}

	if claimCollectAmount != "" {
		amount, err := decimal.NewFromString(claimCollectAmount)
		if err != nil {
			return claim, errors.ValidationError(errors.CodeInvalidAmount, "collect-amount", claimCollectAmount, err)
		}
		claim.CollectAmount = amount
	}

	if claimDate != "" {
		date, err := time.Parse(claimDateLayout, claimDate)
		if err != nil {
			return claim, errors.ValidationError(errors.CodeInvalidDate, "date", claimDate, err)
		}
		claim.ClaimedDate = &date
	}

	return claim, nil
}

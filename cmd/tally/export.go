package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/export"
	"github.com/tallyhq/tally/internal/service"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV or Google Sheets",
		Long: `Export a user's transactions. By default the output is a CSV file;
with --sheets the data is written to a Google Sheets spreadsheet configured
through the sheets.* settings or GOOGLE_SHEETS_* environment variables.`,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("user", "u", "", "email of the user to export")
	cmd.Flags().StringP("output", "o", "", "output file (default: transactions_<timestamp>.csv)")
	cmd.Flags().String("start", "", "start date (2006-01-02)")
	cmd.Flags().String("end", "", "end date (2006-01-02)")
	cmd.Flags().Bool("sheets", false, "export to Google Sheets instead of CSV")

	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("user")
	output, _ := cmd.Flags().GetString("output")
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	toSheets, _ := cmd.Flags().GetBool("sheets")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := lookupUser(ctx, store, email)
	if err != nil {
		return err
	}

	filter := service.TransactionFilter{}
	if startFlag != "" {
		start, parseErr := time.Parse("2006-01-02", startFlag)
		if parseErr != nil {
			return fmt.Errorf("invalid --start: %w", parseErr)
		}
		filter.StartDate = &start
	}
	if endFlag != "" {
		end, parseErr := time.Parse("2006-01-02", endFlag)
		if parseErr != nil {
			return fmt.Errorf("invalid --end: %w", parseErr)
		}
		filter.EndDate = &end
	}

	transactions, err := store.GetTransactions(ctx, user.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		fmt.Println(cli.WarningStyle.Render("No matching transactions"))
		return nil
	}

	if toSheets {
		sheetsConfig, configErr := config.LoadSheetsConfig()
		if configErr != nil {
			return configErr
		}

		exporter, exporterErr := export.NewSheetsExporter(ctx, *sheetsConfig, slog.Default())
		if exporterErr != nil {
			return exporterErr
		}
		if exportErr := exporter.Export(ctx, transactions); exportErr != nil {
			return exportErr
		}
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Exported %d transactions to Google Sheets", len(transactions))))
		return nil
	}

	if output == "" {
		output = export.Filename(time.Now())
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer func() { _ = file.Close() }()

	if err := export.NewCSVExporter().Export(file, transactions); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Exported %d transactions to %s", len(transactions), output)))
	return nil
}

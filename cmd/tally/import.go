package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/classify"
	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/importer"
	"github.com/tallyhq/tally/internal/service"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from a bill file",
		Long: `Import transactions from a WeChat Pay bill export, an application CSV
export, or an OFX/QFX bank statement. The format is detected from the file
content unless --format is given. Imported transactions are categorized
automatically afterwards.`,
		RunE: runImportCmd,
	}

	cmd.Flags().StringP("user", "u", "", "email of the user to import for")
	cmd.Flags().StringP("file", "f", "", "bill file to import")
	cmd.Flags().String("format", "auto", "bill format (auto, wechat, app-csv, ofx)")
	cmd.Flags().Bool("no-classify", false, "skip automatic categorization after import")

	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("user")
	path, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")
	noClassify, _ := cmd.Flags().GetBool("no-classify")

	if path == "" {
		return fmt.Errorf("--file is required")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := lookupUser(ctx, store, email)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var billImporter service.BillImporter
	reader := io.Reader(file)
	if format == "" || format == "auto" {
		detected, detectedFormat, replay, detectErr := importer.Detect(file)
		if detectErr != nil {
			return detectErr
		}
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Detected format: %s", detectedFormat)))
		billImporter, reader = detected, replay
	} else {
		billImporter, err = importer.ForFormat(importer.Format(format))
		if err != nil {
			return err
		}
	}

	transactions, err := billImporter.Parse(ctx, reader)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Importing %d transactions", len(transactions))))

	bar := progressbar.NewOptions(len(transactions),
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing..."),
	)

	imported, failed := 0, 0
	for i := range transactions {
		txn := transactions[i]
		txn.UserID = user.ID

		if createErr := store.CreateTransaction(ctx, &txn); createErr != nil {
			failed++
		} else {
			imported++
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	if failed > 0 {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("Imported %d transactions, %d failed", imported, failed)))
	} else {
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Imported %d transactions", imported)))
	}

	if imported > 0 && !noClassify {
		updated, classifyErr := classify.New(store).ClassifyAll(ctx, user.ID)
		if classifyErr != nil {
			return fmt.Errorf("post-import classification failed: %w", classifyErr)
		}
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Categorized %d transactions", updated)))
	}
	return nil
}

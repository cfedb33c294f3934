package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/classify"
	"github.com/tallyhq/tally/internal/cli"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Automatically categorize a user's transactions",
		Long: `Match every transaction description against the keyword lexicon and
assign categories, creating them as needed. Transactions with no keyword
match fall back to the catch-all category for their type.`,
		RunE: runClassify,
	}

	cmd.Flags().StringP("user", "u", "", "email of the user whose transactions to classify")
	cmd.Flags().Int("concurrency", 0, "number of transactions to classify in parallel")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("user")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := lookupUser(ctx, store, email)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("Classifying transactions"))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("User: %s", user.Email)))

	classifier := classify.NewWithConfig(store, classify.Config{Concurrency: concurrency})
	updated, err := classifier.ClassifyAll(ctx, user.ID)
	if err != nil {
		fmt.Println(cli.ErrorStyle.Render(fmt.Sprintf("Classification failed: %v", err)))
		return err
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Updated %d transactions", updated)))
	return nil
}

package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// Classifier assigns categories to a user's transactions by matching their
// descriptions against the keyword lexicon.
type Classifier struct {
	store       service.Storage
	concurrency int
}

// Config holds configuration options for the classifier.
type Config struct {
	Concurrency int
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{Concurrency: 8}
}

// New creates a classifier with the default configuration.
func New(store service.Storage) *Classifier {
	return NewWithConfig(store, DefaultConfig())
}

// NewWithConfig creates a classifier with custom configuration.
func NewWithConfig(store service.Storage, config Config) *Classifier {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	return &Classifier{
		store:       store,
		concurrency: config.Concurrency,
	}
}

// ClassifyAll categorizes all of a user's income and expense transactions and
// returns the number of transactions updated. Transactions are processed
// concurrently; category creation is serialized per category key by the
// resolver. A failure on one transaction is logged and skipped, it does not
// abort the batch.
func (c *Classifier) ClassifyAll(ctx context.Context, userID string) (int, error) {
	categories, err := c.store.GetCategories(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load categories: %w", err)
	}

	transactions, err := c.store.GetTransactions(ctx, userID, service.TransactionFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		slog.Info("no transactions to classify", "user_id", userID)
		return 0, nil
	}

	resolver := NewResolver(c.store, categories)

	byType := make(map[model.CategoryType][]model.Category)
	for _, cat := range categories {
		byType[cat.Type] = append(byType[cat.Type], cat)
	}

	// Bill imports guarantee the common expense categories exist; keep the
	// classifier consistent with that whenever it has descriptions to match.
	hasDescriptions := false
	for i := range transactions {
		if transactions[i].Description != "" {
			hasDescriptions = true
			break
		}
	}
	if hasDescriptions {
		for _, name := range commonCategories {
			if _, resolveErr := resolver.Resolve(ctx, userID, name, model.CategoryTypeExpense); resolveErr != nil {
				slog.Warn("failed to ensure common category", "name", name, "error", resolveErr)
			}
		}
	}

	var updated atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range transactions {
		txn := transactions[i]

		// Neutral transactions carry no category type to resolve against.
		if txn.Type == model.TransactionTypeNeutral {
			continue
		}

		g.Go(func() error {
			category, resolveErr := c.resolveForTransaction(gctx, resolver, userID, &txn, byType)
			if resolveErr != nil {
				slog.Warn("failed to resolve category for transaction",
					"transaction_id", txn.ID,
					"error", resolveErr)
				return nil
			}

			if updateErr := c.store.UpdateTransactionCategory(gctx, txn.ID, category.ID); updateErr != nil {
				slog.Warn("failed to assign category",
					"transaction_id", txn.ID,
					"category_id", category.ID,
					"error", updateErr)
				return nil
			}

			updated.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(updated.Load()), err
	}

	slog.Info("classification complete",
		"user_id", userID,
		"transactions", len(transactions),
		"updated", updated.Load())

	return int(updated.Load()), nil
}

// resolveForTransaction picks the category for one transaction: the best
// keyword match first, then the type's designated fallback category.
func (c *Classifier) resolveForTransaction(ctx context.Context, resolver *Resolver, userID string, txn *model.Transaction, byType map[model.CategoryType][]model.Category) (*model.Category, error) {
	if txn.Description != "" {
		matches := matchKeywords(txn.Description)
		if len(matches) > 0 {
			// Keyword-derived categories are always expense-typed.
			return resolver.Resolve(ctx, userID, matches[0].Category, model.CategoryTypeExpense)
		}
	}

	categoryType := model.CategoryTypeExpense
	fallbackName := OtherExpenseName
	if txn.Type == model.TransactionTypeIncome {
		categoryType = model.CategoryTypeIncome
		fallbackName = OtherIncomeName
	}

	// Prefer the designated fallback among the user's existing categories,
	// then the first existing category of the type, before creating one.
	existing := byType[categoryType]
	for i := range existing {
		if existing[i].Name == fallbackName {
			return &existing[i], nil
		}
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	return resolver.Resolve(ctx, userID, fallbackName, categoryType)
}

package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

// Column headers in CSV files previously exported by this application.
const (
	appColDate        = "日期"
	appColType        = "类型"
	appColAmount      = "金额"
	appColDescription = "描述"
)

// AppCSVImporter parses CSV files produced by this application's exporter,
// so exported data can be re-imported on another instance. The exported
// category name is ignored; the classifier reassigns categories after import.
type AppCSVImporter struct{}

// NewAppCSVImporter creates an importer for application CSV exports.
func NewAppCSVImporter() *AppCSVImporter {
	return &AppCSVImporter{}
}

// Parse reads an application export CSV and returns its transactions. Rows
// with an unknown type, bad date, or bad amount are logged and skipped.
func (p *AppCSVImporter) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{appColDate, appColType, appColAmount} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: export is missing column %q", common.ErrInvalidInput, required)
		}
	}

	var transactions []model.Transaction
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export row: %w", err)
		}
		line++

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		var txnType model.TransactionType
		switch field(appColType) {
		case "收入":
			txnType = model.TransactionTypeIncome
		case "支出":
			txnType = model.TransactionTypeExpense
		case "中性", "不计收支":
			txnType = model.TransactionTypeNeutral
		default:
			slog.Warn("skipping export row with unknown type", "line", line, "type", field(appColType))
			continue
		}

		date, err := parseDate(field(appColDate))
		if err != nil {
			slog.Warn("skipping export row with bad date", "line", line, "error", err)
			continue
		}

		amount, err := parseAmount(field(appColAmount))
		if err != nil || amount == 0 {
			slog.Warn("skipping export row with bad amount", "line", line, "error", err)
			continue
		}

		transactions = append(transactions, model.Transaction{
			Type:        txnType,
			Amount:      amount,
			Date:        date,
			Description: field(appColDescription),
		})
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("%w: no valid transactions in export", common.ErrInvalidInput)
	}

	slog.Info("parsed application export", "transactions", len(transactions))
	return transactions, nil
}

// Package export renders transactions to CSV files and Google Sheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tallyhq/tally/internal/model"
)

// uncategorizedName renders in place of a category for unclassified rows.
const uncategorizedName = "未分类"

// csvHeader is the column layout of exported CSV files. The importer for
// application exports reads this same layout back.
var csvHeader = []string{"ID", "日期", "类型", "金额", "分类", "描述", "创建时间"}

// CSVExporter writes transactions as UTF-8 CSV with a BOM so spreadsheet
// applications decode the Chinese headers correctly.
type CSVExporter struct{}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the transactions to w in CSV form.
func (e *CSVExporter) Export(w io.Writer, transactions []model.Transaction) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range transactions {
		txn := &transactions[i]

		categoryName := uncategorizedName
		if txn.Category != nil {
			categoryName = txn.Category.Name
		}

		record := []string{
			txn.ID,
			txn.Date.Format("2006-01-02"),
			typeLabel(txn.Type),
			strconv.FormatFloat(txn.Amount, 'f', -1, 64),
			categoryName,
			txn.Description,
			txn.CreatedAt.Format("2006-01-02"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", txn.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func typeLabel(txnType model.TransactionType) string {
	switch txnType {
	case model.TransactionTypeIncome:
		return "收入"
	case model.TransactionTypeExpense:
		return "支出"
	default:
		return "不计收支"
	}
}

// Filename returns the download filename for an export generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", t.Format("20060102_150405"))
}

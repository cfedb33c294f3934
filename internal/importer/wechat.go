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

// Column headers in WeChat Pay bill exports.
const (
	wechatColTime      = "交易时间"
	wechatColType      = "交易类型"
	wechatColAmount    = "交易金额"
	wechatColMerchant  = "交易对方"
	wechatColGoods     = "商品"
	wechatColDirection = "收/支"
	wechatColStatus    = "交易状态"
	wechatColAltStatus = "当前状态"
	wechatColRemark    = "备注"
)

const wechatStatusSuccess = "成功"

// WeChatImporter parses bills exported from WeChat Pay. Exports carry a
// preamble of account metadata before the header row, which the importer
// skips.
type WeChatImporter struct{}

// NewWeChatImporter creates a WeChat bill importer.
func NewWeChatImporter() *WeChatImporter {
	return &WeChatImporter{}
}

// Parse reads a WeChat bill CSV and returns its successful transactions.
// Rows with an unparseable date or amount are logged and skipped; rows whose
// status is not 成功 are skipped silently.
func (p *WeChatImporter) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := p.findHeader(reader)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{wechatColTime, wechatColType, wechatColAmount, wechatColMerchant} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: bill is missing column %q", common.ErrInvalidInput, required)
		}
	}

	var transactions []model.Transaction
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read bill row: %w", err)
		}
		line++

		txn, ok := p.parseRow(record, columns, line)
		if ok {
			transactions = append(transactions, txn)
		}
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("%w: no valid transactions in bill", common.ErrInvalidInput)
	}

	slog.Info("parsed wechat bill", "transactions", len(transactions))
	return transactions, nil
}

// findHeader skips the export preamble up to and including the header row.
func (p *WeChatImporter) findHeader(reader *csv.Reader) ([]string, error) {
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: bill header not found", common.ErrInvalidInput)
		}
		if err != nil {
			// Preamble lines are free-form text; tolerate malformed ones.
			continue
		}
		for _, field := range record {
			if strings.TrimSpace(field) == wechatColTime {
				return record, nil
			}
		}
	}
}

func (p *WeChatImporter) parseRow(record []string, columns map[string]int, line int) (model.Transaction, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	status := field(wechatColStatus)
	if status == "" {
		status = field(wechatColAltStatus)
	}
	if status != "" && !strings.Contains(status, wechatStatusSuccess) {
		return model.Transaction{}, false
	}

	date, err := parseDate(field(wechatColTime))
	if err != nil {
		slog.Warn("skipping bill row with bad date", "line", line, "error", err)
		return model.Transaction{}, false
	}

	amount, err := parseAmount(field(wechatColAmount))
	if err != nil || amount == 0 {
		slog.Warn("skipping bill row with bad amount", "line", line, "error", err)
		return model.Transaction{}, false
	}

	var txnType model.TransactionType
	switch field(wechatColDirection) {
	case "收入":
		txnType = model.TransactionTypeIncome
	case "支出":
		txnType = model.TransactionTypeExpense
	default:
		// Transfers and refunds export with direction "/".
		txnType = model.TransactionTypeNeutral
	}

	description := field(wechatColMerchant)
	if description == "/" {
		description = ""
	}
	if goods := field(wechatColGoods); goods != "" && goods != "/" {
		description = strings.TrimSpace(description + " " + goods)
	}
	if description == "" {
		if remark := field(wechatColRemark); remark != "/" {
			description = remark
		}
	}

	return model.Transaction{
		Type:        txnType,
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(description),
	}, true
}

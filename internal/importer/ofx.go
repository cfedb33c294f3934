package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

// OFXImporter parses OFX/QFX bank and credit card statements.
type OFXImporter struct{}

// NewOFXImporter creates an OFX statement importer.
func NewOFXImporter() *OFXImporter {
	return &OFXImporter{}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in OFX files: leading
// whitespace, mixed-case SEVERITY values, and SGML tags missing their closing
// bracket.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	content = tagFixRegex.ReplaceAllString(content, "$1>")
	return content
}

// Parse reads an OFX/QFX file and returns its transactions. The amount sign
// decides the type: credits become income, debits become expense.
func (p *OFXImporter) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				transactions = append(transactions, convertOFXTransaction(ofxTxn))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				transactions = append(transactions, convertOFXTransaction(ofxTxn))
			}
		}
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("%w: no transactions in OFX file", common.ErrInvalidInput)
	}

	slog.Info("parsed OFX file",
		"transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func convertOFXTransaction(ofxTxn ofxgo.Transaction) model.Transaction {
	amount, _ := ofxTxn.TrnAmt.Float64()

	txnType := model.TransactionTypeIncome
	if amount < 0 {
		txnType = model.TransactionTypeExpense
		amount = -amount
	}

	return model.Transaction{
		Type:        txnType,
		Amount:      amount,
		Date:        ofxTxn.DtPosted.Time,
		Description: extractOFXDescription(ofxTxn),
	}
}

// extractOFXDescription picks the cleanest description available: the payee
// name first, then the NAME field, then the MEMO when NAME is generic.
func extractOFXDescription(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return string(txn.Payee.Name)
	}

	name := strings.TrimSpace(string(txn.Name))
	if txn.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(txn.Memo))
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

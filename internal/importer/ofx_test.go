package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/model"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>COFFEE SHOP #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024012001
<NAME>PAYROLL DEPOSIT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestOFXImporterParse(t *testing.T) {
	importer := NewOFXImporter()
	transactions, err := importer.Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	debit := transactions[0]
	assert.Equal(t, model.TransactionTypeExpense, debit.Type)
	assert.Equal(t, 25.50, debit.Amount)
	assert.Equal(t, "COFFEE SHOP #1234", debit.Description)
	assert.Equal(t, 2024, debit.Date.Year())

	credit := transactions[1]
	assert.Equal(t, model.TransactionTypeIncome, credit.Type)
	assert.Equal(t, 1500.0, credit.Amount)
	assert.Equal(t, "PAYROLL DEPOSIT", credit.Description)
}

func TestOFXImporterInvalidFile(t *testing.T) {
	importer := NewOFXImporter()
	_, err := importer.Parse(context.Background(), strings.NewReader("not an ofx file"))
	assert.Error(t, err)
}

func TestPreprocessOFX(t *testing.T) {
	input := "  \n<OFX>\n<SEVERITY>Info</SEVERITY>\n<CODE\n</OFX>"
	output := preprocessOFX(input)

	assert.True(t, strings.HasPrefix(output, "<OFX>"))
	assert.Contains(t, output, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, output, "<CODE>")
}

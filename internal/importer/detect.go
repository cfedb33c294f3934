package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/service"
)

// detectPrefixSize is how much of the file Detect inspects.
const detectPrefixSize = 4096

// Detect sniffs the format of a bill file from its leading bytes and returns
// the matching importer together with a reader that replays the full content.
func Detect(r io.Reader) (service.BillImporter, Format, io.Reader, error) {
	buffered := bufio.NewReaderSize(r, detectPrefixSize)
	prefix, err := buffered.Peek(detectPrefixSize)
	if err != nil && err != io.EOF {
		return nil, "", nil, fmt.Errorf("failed to read bill file: %w", err)
	}

	format, err := detectFormat(string(prefix))
	if err != nil {
		return nil, "", nil, err
	}

	importer, err := ForFormat(format)
	if err != nil {
		return nil, "", nil, err
	}
	return importer, format, buffered, nil
}

// ForFormat returns the importer for an explicitly requested format.
func ForFormat(format Format) (service.BillImporter, error) {
	switch format {
	case FormatWeChat:
		return NewWeChatImporter(), nil
	case FormatAppCSV:
		return NewAppCSVImporter(), nil
	case FormatOFX:
		return NewOFXImporter(), nil
	default:
		return nil, fmt.Errorf("%w: unknown bill format %q", common.ErrInvalidInput, format)
	}
}

func detectFormat(prefix string) (Format, error) {
	upper := strings.ToUpper(prefix)
	if strings.Contains(upper, "OFXHEADER") || strings.Contains(upper, "<OFX>") {
		return FormatOFX, nil
	}
	if strings.Contains(prefix, appColDate) &&
		strings.Contains(prefix, appColType) &&
		strings.Contains(prefix, appColAmount) &&
		!strings.Contains(prefix, wechatColTime) {
		return FormatAppCSV, nil
	}
	if strings.Contains(prefix, wechatColTime) && strings.Contains(prefix, wechatColMerchant) {
		return FormatWeChat, nil
	}
	return "", fmt.Errorf("%w: unrecognized bill format", common.ErrInvalidInput)
}

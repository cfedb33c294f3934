// Package importer parses uploaded bill files into transactions.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/common"
)

// Format identifies a supported bill file format.
type Format string

const (
	FormatWeChat Format = "wechat"
	FormatAppCSV Format = "app-csv"
	FormatOFX    Format = "ofx"
)

// dateLayouts are tried in order when parsing bill dates.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", common.ErrInvalidInput, value)
}

func parseAmount(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimPrefix(cleaned, "¥")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unrecognized amount %q", common.ErrInvalidInput, value)
	}
	if amount < 0 {
		amount = -amount
	}
	return amount, nil
}

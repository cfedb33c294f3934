package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// SheetsConfig holds the configuration for the Google Sheets exporter.
type SheetsConfig struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
}

// DefaultSheetsConfig returns a SheetsConfig with sensible defaults.
func DefaultSheetsConfig() SheetsConfig {
	return SheetsConfig{
		TimeZone:      "Asia/Shanghai",
		BatchSize:     1000,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// LoadFromEnv loads authentication and spreadsheet settings from environment
// variables.
func (c *SheetsConfig) LoadFromEnv() error {
	c.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	c.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	c.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	c.ServiceAccountPath = os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	c.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	c.SpreadsheetName = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME")

	if c.ServiceAccountPath == "" && (c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "") {
		return fmt.Errorf("%w: provide either a service account path or OAuth2 credentials", common.ErrMissingConfig)
	}
	if c.SpreadsheetName == "" {
		c.SpreadsheetName = "Transactions"
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *SheetsConfig) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("%w: use either OAuth2 or a service account, not both", common.ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry settings cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// SheetsExporter writes transactions to a Google Sheets spreadsheet.
type SheetsExporter struct {
	service *sheets.Service
	logger  *slog.Logger
	config  SheetsConfig
}

// NewSheetsExporter creates a Google Sheets exporter.
func NewSheetsExporter(ctx context.Context, config SheetsConfig, logger *slog.Logger) (*SheetsExporter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsExporter{
		config:  config,
		service: svc,
		logger:  logger,
	}, nil
}

// Export writes the transactions to the configured spreadsheet, replacing any
// existing content.
func (e *SheetsExporter) Export(ctx context.Context, transactions []model.Transaction) error {
	e.logger.Info("starting sheets export", "transactions", len(transactions))

	spreadsheetID, err := e.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := e.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := prepareSheetData(transactions)

	retryOpts := service.RetryOptions{
		MaxAttempts:  e.config.RetryAttempts,
		InitialDelay: e.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return e.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	e.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

func createSheetsService(ctx context.Context, config SheetsConfig) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

func (e *SheetsExporter) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if e.config.SpreadsheetID != "" {
		_, err := e.service.Spreadsheets.Get(e.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", e.config.SpreadsheetID, err)
		}
		return e.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    e.config.SpreadsheetName,
			TimeZone: e.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Transactions",
				},
			},
		},
	}

	created, err := e.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	e.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

func (e *SheetsExporter) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := e.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareSheetData renders transactions in the same column layout as the CSV
// exporter.
func prepareSheetData(transactions []model.Transaction) [][]any {
	values := make([][]any, 0, len(transactions)+1)

	header := make([]any, len(csvHeader))
	for i, name := range csvHeader {
		header[i] = name
	}
	values = append(values, header)

	for i := range transactions {
		txn := &transactions[i]

		categoryName := uncategorizedName
		if txn.Category != nil {
			categoryName = txn.Category.Name
		}

		values = append(values, []any{
			txn.ID,
			txn.Date.Format("2006-01-02"),
			typeLabel(txn.Type),
			txn.Amount,
			categoryName,
			txn.Description,
			txn.CreatedAt.Format("2006-01-02"),
		})
	}
	return values
}

func (e *SheetsExporter) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += e.config.BatchSize {
		end := i + e.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		valueRange := &sheets.ValueRange{Values: values[i:end]}
		_, err := e.service.Spreadsheets.Values.Update(spreadsheetID, fmt.Sprintf("A%d", i+1), valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		e.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}
	return nil
}

package config

import (
	"github.com/spf13/viper"

	"github.com/tallyhq/tally/internal/export"
)

// LoadSheetsConfig loads Google Sheets settings with this precedence:
// viper configuration (config file or TALLY_ env vars), then the
// GOOGLE_SHEETS_* environment variables, then defaults.
func LoadSheetsConfig() (*export.SheetsConfig, error) {
	config := export.DefaultSheetsConfig()

	if v := viper.GetString("sheets.service_account_path"); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("sheets.client_id"); v != "" {
		config.ClientID = v
	}
	if v := viper.GetString("sheets.client_secret"); v != "" {
		config.ClientSecret = v
	}
	if v := viper.GetString("sheets.refresh_token"); v != "" {
		config.RefreshToken = v
	}
	if v := viper.GetString("sheets.spreadsheet_id"); v != "" {
		config.SpreadsheetID = v
	}
	if v := viper.GetString("sheets.spreadsheet_name"); v != "" {
		config.SpreadsheetName = v
	}

	// Fall back to the GOOGLE_SHEETS_* environment for anything unset.
	if config.ServiceAccountPath == "" && config.ClientID == "" {
		if err := config.LoadFromEnv(); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

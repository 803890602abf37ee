// Package sheets exports the weekly money report to a Google spreadsheet so
// the operator can share it without touching the API.
package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/herdsense/internal/config"
	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	ExportMoneyReport(ctx context.Context, reportDate time.Time, report models.MoneyReport, plan models.InventoryPlan) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRows appends the provided rows to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// ExportMoneyReport appends the week's leak cards and sale forecasts to the
// report tabs.
func (r *GoogleSheetRepository) ExportMoneyReport(ctx context.Context, reportDate time.Time, report models.MoneyReport, plan models.InventoryPlan) error {
	if err := r.WriteRows(ctx, "MoneyLeaks!A:G", MoneyLeakRows(reportDate, report)); err != nil {
		return err
	}
	if err := r.WriteRows(ctx, "Forecasts!A:H", ForecastRows(reportDate, plan)); err != nil {
		return err
	}

	r.logger.Info("weekly money report exported",
		zap.String("week", reportDate.Format("2006-01-02")),
		zap.Int("leak_cards", len(report.Leaks)),
		zap.Int("forecasts", len(plan.Forecasts)))
	return nil
}

// MoneyLeakRows flattens a money report into spreadsheet rows, one per card.
func MoneyLeakRows(reportDate time.Time, report models.MoneyReport) [][]interface{} {
	week := reportDate.Format("2006-01-02")
	rows := make([][]interface{}, 0, len(report.Leaks))
	for _, card := range report.Leaks {
		rows = append(rows, []interface{}{
			week,
			card.ID,
			card.Title,
			card.Severity,
			card.ImpactLow,
			card.ImpactHigh,
			card.ImpactRange,
		})
	}
	return rows
}

// ForecastRows flattens the sale forecasts into spreadsheet rows.
func ForecastRows(reportDate time.Time, plan models.InventoryPlan) [][]interface{} {
	week := reportDate.Format("2006-01-02")
	rows := make([][]interface{}, 0, len(plan.Forecasts))
	for _, forecast := range plan.Forecasts {
		rows = append(rows, []interface{}{
			week,
			forecast.Tag,
			string(forecast.StrategyMode),
			forecast.PlanLabel,
			forecast.SuggestedChangePct,
			forecast.SuggestedFeedKgDay,
			forecast.DaysToSale,
			forecast.MonthlyImpactRange,
		})
	}
	return rows
}

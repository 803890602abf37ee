package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/herdsense/internal/domain/models"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Webhook   WebhookConfig
	Scheduler SchedulerConfig
	Farm      models.Settings
	Development bool
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Export is optional: an empty spreadsheet ID disables it.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// WebhookConfig holds the alert notification endpoint. An empty URL disables
// outbound notifications.
type WebhookConfig struct {
	URL       string
	AuthToken string
}

// SchedulerConfig holds cron expressions for the recurring jobs.
type SchedulerConfig struct {
	EvaluationCron   string
	WeeklyExportCron string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "herdsense"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
		},
		Webhook: WebhookConfig{
			URL:       os.Getenv("ALERT_WEBHOOK_URL"),
			AuthToken: os.Getenv("ALERT_WEBHOOK_TOKEN"),
		},
		Scheduler: SchedulerConfig{
			EvaluationCron:   getenvWithDefault("EVALUATION_CRON_SCHEDULE", "30 5 * * *"),
			WeeklyExportCron: getenvWithDefault("WEEKLY_EXPORT_CRON_SCHEDULE", "0 20 * * 5"),
		},
		Farm:        loadFarmSettings(),
		Development: getenvBool("APP_DEVELOPMENT", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFarmSettings() models.Settings {
	return models.Settings{
		FeedCostPerKg:         getenvFloat("FEED_COST_PER_KG", 0.32),
		MilkPricePerLiter:     getenvFloatPtr("MILK_PRICE_PER_LITER"),
		KgPerTroughMinute:     getenvFloatPtr("KG_PER_TROUGH_MINUTE"),
		KgPerMealOffset:       getenvFloatPtr("KG_PER_MEAL_OFFSET"),
		AvailableFeedKg:       getenvFloatPtr("AVAILABLE_FEED_KG_CURRENT"),
		DailyFeedBudgetCap:    getenvFloatPtr("DAILY_FEED_BUDGET_CAP"),
		DefaultFeedIntakeMode: models.FeedIntakeMode(getenvWithDefault("DEFAULT_FEED_INTAKE_MODE", "hybrid")),

		VetVisitCostEstimate:    getenvFloatPtr("VET_VISIT_COST_ESTIMATE"),
		MilkLossCostPerDayDairy: getenvFloatPtr("MILK_LOSS_COST_PER_DAY_ESTIMATE_DAIRY"),
		MilkLossCostPerDayBeef:  getenvFloatPtr("MILK_LOSS_COST_PER_DAY_ESTIMATE_BEEF"),
		DaysOfImpactIfEscalates: getenvFloatPtr("DAYS_OF_IMPACT_IF_ESCALATES"),

		MilkingFrequency:    getenvWithDefault("MILKING_FREQUENCY", "2x/day"),
		MilkingScheduleMode: getenvWithDefault("MILKING_SCHEDULE_MODE", "same_for_all"),
		MorningWindowStart:  getenvWithDefault("MORNING_WINDOW_START", "05:30"),
		MorningWindowEnd:    getenvWithDefault("MORNING_WINDOW_END", "08:00"),
		MiddayWindowStart:   getenvWithDefault("MIDDAY_WINDOW_START", "11:30"),
		MiddayWindowEnd:     getenvWithDefault("MIDDAY_WINDOW_END", "13:30"),
		EveningWindowStart:  getenvWithDefault("EVENING_WINDOW_START", "16:30"),
		EveningWindowEnd:    getenvWithDefault("EVENING_WINDOW_END", "19:00"),

		HoofTrimIntervalWeeks:  getenvIntPtr("HOOF_TRIM_INTERVAL_WEEKS"),
		WaterCleanIntervalDays: getenvIntPtr("WATER_CLEAN_INTERVAL_DAYS"),

		Timezone:                    getenvWithDefault("TIMEZONE", "UTC"),
		DemoMode:                    getenvBool("DEMO_MODE", false),
		BaselineRecalibrationActive: getenvBool("BASELINE_RECALIBRATION_ACTIVE", false),
	}
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when sheet export is enabled")
	}

	if c.Scheduler.EvaluationCron == "" {
		return errors.New("EVALUATION_CRON_SCHEDULE must be provided")
	}
	if c.Scheduler.WeeklyExportCron == "" {
		return errors.New("WEEKLY_EXPORT_CRON_SCHEDULE must be provided")
	}

	if c.Farm.FeedCostPerKg < 0 {
		return errors.New("FEED_COST_PER_KG must not be negative")
	}
	if c.Farm.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloatPtr(key string) *float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func getenvIntPtr(key string) *int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return &parsed
		}
	}
	return nil
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

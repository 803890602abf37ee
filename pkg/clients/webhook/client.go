// Package webhook delivers risk alerts and weekly report digests to an
// operator-configured HTTP endpoint.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/herdsense/internal/config"
)

// Client exposes the outbound notification operations used by the
// application.
type Client interface {
	SendAlert(ctx context.Context, alert Alert) error
	SendMoneyReport(ctx context.Context, digest MoneyDigest) error
}

// Alert is the payload posted for one evaluation's elevated animals.
type Alert struct {
	Date    string       `json:"date"`
	Farm    string       `json:"farm,omitempty"`
	Animals []AlertEntry `json:"animals"`
}

// AlertEntry is one elevated animal inside an alert.
type AlertEntry struct {
	Tag       string  `json:"tag"`
	Name      string  `json:"name,omitempty"`
	RiskPct   float64 `json:"risk_pct"`
	RiskBand  string  `json:"risk_band"`
	TopFactor string  `json:"top_factor"`
	Note      string  `json:"note,omitempty"`
}

// MoneyDigest is the weekly money-report summary posted alongside the
// spreadsheet export.
type MoneyDigest struct {
	Date            string      `json:"date"`
	TotalImpactLow  float64     `json:"total_impact_low"`
	TotalImpactHigh float64     `json:"total_impact_high"`
	Leaks           []LeakEntry `json:"leaks"`
}

// LeakEntry is one money leak inside a digest.
type LeakEntry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Severity    float64 `json:"severity"`
	ImpactRange string  `json:"impact_range"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client from configuration. The endpoint URL is
// used as-is; the token, when set, is sent as a bearer credential.
func NewClient(cfg config.WebhookConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.AuthToken != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AuthToken))
	}

	return &APIClient{
		httpClient: restyClient,
		url:        cfg.URL,
	}
}

// apiError covers the common {"error": "..."} shape alert receivers return.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SendAlert posts the alert payload to the configured endpoint.
func (c *APIClient) SendAlert(ctx context.Context, alert Alert) error {
	return c.post(ctx, "alert", alert)
}

// SendMoneyReport posts the weekly money digest to the configured endpoint.
func (c *APIClient) SendMoneyReport(ctx context.Context, digest MoneyDigest) error {
	return c.post(ctx, "money report", digest)
}

func (c *APIClient) post(ctx context.Context, kind string, body interface{}) error {
	if c.url == "" {
		return fmt.Errorf("webhook url is not configured")
	}

	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send %s webhook: %w", kind, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error
		if message == "" {
			message = apiErr.Message
		}
		return fmt.Errorf("%s webhook error: status=%d, message=%s", kind, resp.StatusCode(), message)
	}

	return nil
}

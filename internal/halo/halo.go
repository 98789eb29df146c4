// Package halo pulls rate and template data from a HaloPSA instance into
// the local tables the pricing engine reads its configuration from.
package halo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/brightline-it/mspquote/internal/pricing"
)

// LaborRate is the PSA representation of one skill-level rate row.
type LaborRate struct {
	SkillLevel         int     `json:"skillLevel"`
	Cost               float64 `json:"cost"`
	PriceBusinessHours float64 `json:"priceBusinessHours"`
	PriceAfterHours    float64 `json:"priceAfterHours"`
}

// DeviceTemplate is the PSA representation of per-device monthly hour
// estimates.
type DeviceTemplate struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	SkillLevel int                 `json:"skillLevel"`
	Hours      pricing.DeviceHours `json:"hours"`
}

// Client is a read-only HaloPSA API client.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient returns a client for the given HaloPSA instance.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", "read:ratecard read:templates")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("request token: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", retry.RetryableError(fmt.Errorf("token endpoint returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	return token.AccessToken, nil
}

func (c *Client) getJSON(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("request %s: %w", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return retry.RetryableError(fmt.Errorf("%s returned %d", path, resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// FetchLaborRates downloads the skill-level rate card.
func (c *Client) FetchLaborRates(ctx context.Context, token string) ([]LaborRate, error) {
	var rates []LaborRate
	if err := c.getJSON(ctx, token, "/api/ratecard", &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// FetchDeviceTemplates downloads the per-device hour templates.
func (c *Client) FetchDeviceTemplates(ctx context.Context, token string) ([]DeviceTemplate, error) {
	var templates []DeviceTemplate
	if err := c.getJSON(ctx, token, "/api/devicetemplates", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// SyncStats counts the rows written by one sync run.
type SyncStats struct {
	LaborRates      int
	DeviceTemplates int
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(500 * time.Millisecond)
	return retry.WithMaxRetries(3, b)
}

// Sync refreshes labor_rates and device_templates from the PSA inside one
// transaction. Transient failures are retried with exponential backoff; a
// failed sync leaves the existing rows untouched.
func (c *Client) Sync(ctx context.Context, db *sql.DB) (SyncStats, error) {
	var rates []LaborRate
	var templates []DeviceTemplate

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		token, err := c.authenticate(ctx)
		if err != nil {
			return err
		}
		if rates, err = c.FetchLaborRates(ctx, token); err != nil {
			return err
		}
		if templates, err = c.FetchDeviceTemplates(ctx, token); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return SyncStats{}, fmt.Errorf("fetch from halo: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return SyncStats{}, fmt.Errorf("begin sync transaction: %w", err)
	}

	stats := SyncStats{}

	for _, rate := range rates {
		if rate.SkillLevel < 1 || rate.SkillLevel > 3 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO labor_rates (skill_level, cost, price_business, price_after_hours)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(skill_level) DO UPDATE SET
				cost = excluded.cost,
				price_business = excluded.price_business,
				price_after_hours = excluded.price_after_hours,
				updated_at = CURRENT_TIMESTAMP
		`, rate.SkillLevel, rate.Cost, rate.PriceBusinessHours, rate.PriceAfterHours); err != nil {
			_ = tx.Rollback()
			return SyncStats{}, fmt.Errorf("upsert labor rate level %d: %w", rate.SkillLevel, err)
		}
		stats.LaborRates++
	}

	for _, tmpl := range templates {
		if tmpl.ID == "" {
			continue
		}
		h := tmpl.Hours
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO device_templates (
				id, name, skill_level,
				predictable_onsite_business, predictable_remote_business, predictable_onsite_after_hours, predictable_remote_after_hours,
				reactive_onsite_business, reactive_remote_business, reactive_onsite_after_hours, reactive_remote_after_hours,
				emergency_onsite_business, emergency_remote_business, emergency_onsite_after_hours, emergency_remote_after_hours
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				skill_level = excluded.skill_level,
				predictable_onsite_business = excluded.predictable_onsite_business,
				predictable_remote_business = excluded.predictable_remote_business,
				predictable_onsite_after_hours = excluded.predictable_onsite_after_hours,
				predictable_remote_after_hours = excluded.predictable_remote_after_hours,
				reactive_onsite_business = excluded.reactive_onsite_business,
				reactive_remote_business = excluded.reactive_remote_business,
				reactive_onsite_after_hours = excluded.reactive_onsite_after_hours,
				reactive_remote_after_hours = excluded.reactive_remote_after_hours,
				emergency_onsite_business = excluded.emergency_onsite_business,
				emergency_remote_business = excluded.emergency_remote_business,
				emergency_onsite_after_hours = excluded.emergency_onsite_after_hours,
				emergency_remote_after_hours = excluded.emergency_remote_after_hours,
				updated_at = CURRENT_TIMESTAMP
		`,
			tmpl.ID, tmpl.Name, tmpl.SkillLevel,
			h.Predictable.OnsiteBusiness, h.Predictable.RemoteBusiness, h.Predictable.OnsiteAfterHours, h.Predictable.RemoteAfterHours,
			h.Reactive.OnsiteBusiness, h.Reactive.RemoteBusiness, h.Reactive.OnsiteAfterHours, h.Reactive.RemoteAfterHours,
			h.Emergency.OnsiteBusiness, h.Emergency.RemoteBusiness, h.Emergency.OnsiteAfterHours, h.Emergency.RemoteAfterHours,
		); err != nil {
			_ = tx.Rollback()
			return SyncStats{}, fmt.Errorf("upsert device template %s: %w", tmpl.ID, err)
		}
		stats.DeviceTemplates++
	}

	if err := tx.Commit(); err != nil {
		return SyncStats{}, fmt.Errorf("commit sync transaction: %w", err)
	}

	return stats, nil
}

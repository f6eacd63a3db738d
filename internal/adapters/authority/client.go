// Package authority implements the HTTP client for the remote authority
// that owns account records and proxies provider APIs.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sakenfor/pixsim7-sub009/internal/domain"
	"github.com/Sakenfor/pixsim7-sub009/internal/ports"
)

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.AuthorityClient = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type accountPayload struct {
	AccountID    string             `json:"account_id"`
	ProviderID   string             `json:"provider_id"`
	Email        string             `json:"email"`
	Nickname     string             `json:"nickname"`
	Status       string             `json:"status"`
	Credits      map[string]float64 `json:"credits"`
	HasCookies   bool               `json:"has_cookies"`
	HasToken     bool               `json:"has_token"`
	TokenExpired bool               `json:"token_expired"`
	LastUsed     int64              `json:"last_used"`
}

type accountListPayload struct {
	Accounts []accountPayload `json:"accounts"`
}

type batchRefreshPayload struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

type sessionExportPayload struct {
	Domain  string            `json:"domain"`
	Cookies map[string]string `json:"cookies"`
}

func (c *Client) ListAccounts(ctx context.Context, provider domain.ProviderID) ([]domain.ProviderAccount, error) {
	endpoint := c.baseURL + "/api/accounts"
	if provider != "" {
		endpoint += "?provider=" + url.QueryEscape(string(provider))
	}

	var payload accountListPayload
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]domain.ProviderAccount, 0, len(payload.Accounts))
	for _, entry := range payload.Accounts {
		accounts = append(accounts, fromAccountPayload(entry))
	}

	return accounts, nil
}

func (c *Client) RefreshAllCredits(ctx context.Context) (ports.BatchSyncResult, error) {
	var payload batchRefreshPayload
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/credits/refresh", nil, &payload); err != nil {
		return ports.BatchSyncResult{}, fmt.Errorf("refresh all credits: %w", err)
	}

	return ports.BatchSyncResult{
		Synced: payload.Synced,
		Failed: payload.Failed,
		Total:  payload.Total,
	}, nil
}

func (c *Client) RefreshAccountCredits(ctx context.Context, id domain.AccountID) error {
	endpoint := fmt.Sprintf("%s/api/accounts/%s/credits/refresh", c.baseURL, url.PathEscape(string(id)))
	if err := c.do(ctx, http.MethodPost, endpoint, nil, nil); err != nil {
		return fmt.Errorf("refresh account credits: %w", err)
	}

	return nil
}

func (c *Client) ReauthAccount(ctx context.Context, id domain.AccountID) error {
	endpoint := fmt.Sprintf("%s/api/accounts/%s/reauth", c.baseURL, url.PathEscape(string(id)))
	if err := c.do(ctx, http.MethodPost, endpoint, nil, nil); err != nil {
		return fmt.Errorf("reauth account: %w", err)
	}

	return nil
}

func (c *Client) ExportSession(ctx context.Context, id domain.AccountID) (domain.CookieSet, error) {
	endpoint := fmt.Sprintf("%s/api/accounts/%s/session", c.baseURL, url.PathEscape(string(id)))

	var payload sessionExportPayload
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return domain.CookieSet{}, fmt.Errorf("export session: %w", err)
	}

	set := domain.NewCookieSet(payload.Domain)
	for name, value := range payload.Cookies {
		set.Values[name] = value
	}

	return set, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "psync/authority")
	if reader != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return statusError(response.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return nil
}

func statusError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrSessionExpired, status, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAccountNotFound, status, detail)
	default:
		return fmt.Errorf("status %d: %s", status, detail)
	}
}

func fromAccountPayload(entry accountPayload) domain.ProviderAccount {
	var lastUsed time.Time
	if entry.LastUsed > 0 {
		lastUsed = time.Unix(entry.LastUsed, 0).UTC()
	}

	return domain.ProviderAccount{
		ID:           domain.AccountID(entry.AccountID),
		Provider:     domain.ProviderID(entry.ProviderID),
		Email:        entry.Email,
		Nickname:     entry.Nickname,
		Status:       domain.AccountStatus(entry.Status),
		Credits:      entry.Credits,
		HasCookies:   entry.HasCookies,
		HasToken:     entry.HasToken,
		TokenExpired: entry.TokenExpired,
		LastUsed:     lastUsed,
	}
}

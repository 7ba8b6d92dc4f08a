package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the roster rejects the operator credentials.
var ErrUnauthorized = errors.New("roster rejected credentials")

// API is the roster surface a sync pass depends on.
type API interface {
	Authenticate(ctx context.Context) (string, error)
	ListFlights(ctx context.Context, token string, from, to time.Time) ([]Flight, error)
	FlightCrew(ctx context.Context, token string, id ID) ([]CrewEntry, error)
	Employee(ctx context.Context, token string, id int64) (Employee, error)
	Positions(ctx context.Context, token string) ([]Position, error)
}

// Client talks to the roster REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a roster client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) base() string {
	return strings.TrimRight(strings.TrimSpace(c.cfg.BaseURL), "/")
}

// authURL tolerates a base URL configured with or without the /v1 suffix.
func (c *Client) authURL() string {
	base := c.base()
	if strings.HasSuffix(base, "/v1") {
		return base + "/Authenticate"
	}
	return base + "/v1/Authenticate"
}

// Authenticate exchanges the operator credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": strings.TrimSpace(c.cfg.Username),
		"password": strings.TrimSpace(c.cfg.Password),
	})
	if err != nil {
		return "", err
	}

	authURL := c.authURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Tenant != "" {
		req.Header.Set("X-Tenant-Id", c.cfg.Tenant)
	}

	c.logger.Info("Authenticating to roster", zap.String("url", authURL), zap.Bool("tenant", c.cfg.Tenant != ""))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("roster auth request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, preview(raw))
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("roster auth failed: status %d: %s", resp.StatusCode, preview(raw))
	}

	var out struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("roster auth response missing token")
	}
	return out.Token, nil
}

// ListFlights pages through /Flights until a short page is returned.
func (c *Client) ListFlights(ctx context.Context, token string, from, to time.Time) ([]Flight, error) {
	var results []Flight
	offset := 0
	for {
		params := url.Values{}
		params.Set("dateFrom", from.UTC().Format(time.RFC3339))
		params.Set("dateTo", to.UTC().Format(time.RFC3339))
		params.Set("offset", fmt.Sprint(offset))
		params.Set("limit", fmt.Sprint(c.cfg.PageLimit))

		var page []Flight
		if err := c.get(ctx, token, "/Flights?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("list flights at offset %d: %w", offset, err)
		}
		results = append(results, page...)

		c.logger.Debug("Fetched flight page",
			zap.Int("count", len(page)),
			zap.Int("offset", offset),
			zap.Int("total", len(results)))

		if len(page) < c.cfg.PageLimit {
			break
		}
		offset += c.cfg.PageLimit
	}
	return results, nil
}

// FlightCrew returns the crew roster of one flight.
func (c *Client) FlightCrew(ctx context.Context, token string, id ID) ([]CrewEntry, error) {
	var crew []CrewEntry
	if err := c.get(ctx, token, "/Flights/"+url.PathEscape(id.String())+"/Crew", &crew); err != nil {
		return nil, fmt.Errorf("flight %s crew: %w", id, err)
	}
	return crew, nil
}

// Employee fetches one employee record.
func (c *Client) Employee(ctx context.Context, token string, id int64) (Employee, error) {
	var emp Employee
	if err := c.get(ctx, token, fmt.Sprintf("/Employees/%d", id), &emp); err != nil {
		return Employee{}, fmt.Errorf("employee %d: %w", id, err)
	}
	return emp, nil
}

// Positions lists the crew positions and their role flags.
func (c *Client) Positions(ctx context.Context, token string) ([]Position, error) {
	var positions []Position
	if err := c.get(ctx, token, "/Crews/Positions", &positions); err != nil {
		return nil, fmt.Errorf("crew positions: %w", err)
	}
	return positions, nil
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upstream error: status %d: %s", resp.StatusCode, preview(raw))
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func preview(raw []byte) string {
	const limit = 300
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

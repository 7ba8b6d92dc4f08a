package planning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// API is the planning surface a sync pass depends on.
type API interface {
	Login(ctx context.Context) (Auth, error)
	Refresh(ctx context.Context, auth Auth) (Auth, error)
	ListPlans(ctx context.Context, auth Auth, status string) ([]PlanRow, error)
	GetPlan(ctx context.Context, auth Auth, id int64) (PlanRow, error)
	EditPlan(ctx context.Context, auth Auth, plan Plan) (EditResult, error)
	DeletePlan(ctx context.Context, auth Auth, id int64) error
	ListAircraft(ctx context.Context, auth Auth) ([]Aircraft, error)
	ListCrew(ctx context.Context, auth Auth) ([]CrewMember, error)
}

// Client talks to the planning REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a planning client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type candidate struct {
	base    string
	version string
}

// loginCandidates returns the (host, version) matrix in the order it is tried.
func (c *Client) loginCandidates() []candidate {
	bases := []string{trimBase(c.cfg.BaseURL)}
	if alt := trimBase(c.cfg.AlternateBaseURL); alt != "" && alt != bases[0] {
		bases = append(bases, alt)
	}
	versions := []string{strings.TrimSpace(c.cfg.APIVersion)}
	if fb := strings.TrimSpace(c.cfg.FallbackAPIVersion); fb != "" && fb != versions[0] {
		versions = append(versions, fb)
	}

	var out []candidate
	for _, b := range bases {
		for _, v := range versions {
			out = append(out, candidate{base: b, version: v})
		}
	}
	return out
}

// Login authenticates with the application key and operator credentials,
// trying every host/version candidate before giving up.
func (c *Client) Login(ctx context.Context) (Auth, error) {
	payload := map[string]string{
		"email":    strings.TrimSpace(c.cfg.Email),
		"password": strings.TrimSpace(c.cfg.Password),
	}

	var lastErr error
	for _, cand := range c.loginCandidates() {
		c.logger.Info("Trying planning login",
			zap.String("host", cand.base),
			zap.String("version", cand.version))

		auth, err := c.login(ctx, cand, payload)
		if err != nil {
			c.logger.Warn("Planning login failed",
				zap.String("host", cand.base),
				zap.String("version", cand.version),
				zap.Error(err))
			lastErr = err
			continue
		}
		c.logger.Info("Planning login OK", zap.String("host", cand.base), zap.String("version", cand.version))
		return auth, nil
	}
	return Auth{}, fmt.Errorf("%w across all hosts and versions: %w", ErrLogin, lastErr)
}

// Refresh exchanges the refresh token for a new bearer on the same host.
func (c *Client) Refresh(ctx context.Context, auth Auth) (Auth, error) {
	if auth.RefreshToken == "" {
		return Auth{}, &Error{Op: "refresh", Kind: KindUnauthorized, Message: "no refresh token"}
	}
	next, err := c.login(ctx, candidate{base: auth.BaseURL, version: auth.Version},
		map[string]string{"refresh_token": auth.RefreshToken})
	if err != nil {
		return Auth{}, err
	}
	if next.RefreshToken == "" {
		next.RefreshToken = auth.RefreshToken
	}
	return next, nil
}

func (c *Client) login(ctx context.Context, cand candidate, payload any) (Auth, error) {
	headers := http.Header{}
	headers.Set("Authorization", "AppKey "+strings.TrimSpace(c.cfg.AppKey))
	headers.Set("X-API-Version", cand.version)

	status, respHeaders, body, err := c.do(ctx, http.MethodPost, cand.base+"/login", headers, payload)
	if err != nil {
		return Auth{}, &Error{Op: "login", Kind: KindTransient, Message: err.Error(), Err: err}
	}
	if err := classify("login", status, body); err != nil {
		return Auth{}, err
	}

	bearer := respHeaders.Get("Authorization")
	if !strings.HasPrefix(bearer, "Bearer ") {
		token := gjson.GetBytes(body, "data.access_token").String()
		if token == "" {
			return Auth{}, &Error{Op: "login", Status: status, Kind: KindDecode, Message: "success without token"}
		}
		bearer = "Bearer " + token
	}
	return Auth{
		BaseURL:      cand.base,
		Version:      cand.version,
		Bearer:       bearer,
		RefreshToken: gjson.GetBytes(body, "data.refresh_token").String(),
	}, nil
}

// ListPlans pages through /plan/list until a short page is returned. An empty
// status lists every status.
func (c *Client) ListPlans(ctx context.Context, auth Auth, status string) ([]PlanRow, error) {
	req := map[string]any{
		"page":        1,
		"page_size":   c.cfg.PageSize,
		"is_template": 0,
	}
	if status != "" {
		req["status"] = status
	}

	var out []PlanRow
	for page := 1; ; page++ {
		req["page"] = page
		body, err := c.call(ctx, auth, "plan/list", http.MethodPost, "/plan/list", req)
		if err != nil {
			return nil, err
		}
		rows := envelopeRows(body)
		for _, r := range rows {
			out = append(out, PlanRow{raw: r})
		}
		if len(rows) < c.cfg.PageSize {
			break
		}
	}
	return out, nil
}

// GetPlan fetches one plan by id.
func (c *Client) GetPlan(ctx context.Context, auth Auth, id int64) (PlanRow, error) {
	body, err := c.call(ctx, auth, "plan/get", http.MethodPost, "/plan/get", map[string]int64{"id": id})
	if err != nil {
		return PlanRow{}, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return PlanRow{}, &Error{Op: "plan/get", Kind: KindDecode, Message: "response has no plan object"}
	}
	return PlanRow{raw: data}, nil
}

// EditPlan creates (no id) or updates (id set) a plan.
func (c *Client) EditPlan(ctx context.Context, auth Auth, plan Plan) (EditResult, error) {
	if c.cfg.DebugPayload {
		if raw, err := json.MarshalIndent(plan, "", "  "); err == nil {
			c.logger.Info("plan/edit payload", zap.String("payload", string(raw)))
		}
	}

	body, err := c.call(ctx, auth, "plan/edit", http.MethodPost, "/plan/edit", plan)
	if err != nil {
		return EditResult{}, err
	}

	res := EditResult{Success: true}
	gjson.GetBytes(body, "status.warnings").ForEach(func(_, w gjson.Result) bool {
		if w.Type == gjson.String {
			res.Warnings = append(res.Warnings, w.Str)
		} else {
			res.Warnings = append(res.Warnings, w.Raw)
		}
		return true
	})
	if id, ok := intField(gjson.GetBytes(body, "data"), "id", "plan_id", "planId"); ok {
		res.ID = id
	}
	return res, nil
}

// DeletePlan removes a plan.
func (c *Client) DeletePlan(ctx context.Context, auth Auth, id int64) error {
	_, err := c.call(ctx, auth, "plan/delete", http.MethodPost, "/plan/delete", map[string]int64{"id": id})
	return err
}

// ListAircraft returns the aircraft registry. Some tenants expose it under
// /data/aircraft/list instead of /aircraft/list.
func (c *Client) ListAircraft(ctx context.Context, auth Auth) ([]Aircraft, error) {
	var lastErr error
	for _, path := range []string{"/aircraft/list", "/data/aircraft/list"} {
		body, err := c.call(ctx, auth, "aircraft/list", http.MethodGet, path, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if !isListEnvelope(body) {
			lastErr = &Error{Op: "aircraft/list", Kind: KindDecode, Message: "unexpected response: " + preview(body)}
			continue
		}
		var out []Aircraft
		for _, row := range envelopeRows(body) {
			if a, ok := parseAircraft(row); ok {
				out = append(out, a)
			}
		}
		return out, nil
	}
	return nil, lastErr
}

// ListCrew returns the crew registry. POST is tried first, GET when the
// tenant refuses it.
func (c *Client) ListCrew(ctx context.Context, auth Auth) ([]CrewMember, error) {
	body, err := c.call(ctx, auth, "crew/list", http.MethodPost, "/crew/list", map[string]any{})
	if err != nil {
		if IsKind(err, KindUnauthorized) {
			return nil, err
		}
		body, err = c.call(ctx, auth, "crew/list", http.MethodGet, "/crew/list", nil)
		if err != nil {
			return nil, err
		}
	}
	if !isListEnvelope(body) {
		return nil, &Error{Op: "crew/list", Kind: KindDecode, Message: "unexpected response: " + preview(body)}
	}

	var out []CrewMember
	for _, row := range envelopeRows(body) {
		if m, ok := parseCrewMember(row); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// call performs an authenticated request and classifies the outcome.
func (c *Client) call(ctx context.Context, auth Auth, op, method, path string, payload any) ([]byte, error) {
	headers := http.Header{}
	headers.Set("Authorization", auth.Bearer)
	headers.Set("X-API-Version", auth.Version)

	base := auth.BaseURL
	if base == "" {
		base = trimBase(c.cfg.BaseURL)
	}

	status, _, body, err := c.do(ctx, method, base+path, headers, payload)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransient, Message: err.Error(), Err: err}
	}
	if err := classify(op, status, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, url string, headers http.Header, payload any) (int, http.Header, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("encode payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// envelopeRows extracts the object rows of a listing. Accepted shapes are a
// bare array, {"data": [...]} and {"data": {"<any>": [...]}}.
func envelopeRows(body []byte) []gjson.Result {
	root := gjson.ParseBytes(body)
	list := root
	if !root.IsArray() {
		data := root.Get("data")
		switch {
		case data.IsArray():
			list = data
		case data.IsObject():
			list = gjson.Result{}
			data.ForEach(func(_, v gjson.Result) bool {
				if v.IsArray() {
					list = v
					return false
				}
				return true
			})
		default:
			return nil
		}
	}

	var rows []gjson.Result
	for _, r := range list.Array() {
		if r.IsObject() {
			rows = append(rows, r)
		}
	}
	return rows
}

func isListEnvelope(body []byte) bool {
	root := gjson.ParseBytes(body)
	return root.IsArray() || root.Get("data").Exists()
}

func trimBase(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

var _ API = (*Client)(nil)

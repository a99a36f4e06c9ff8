package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrew/crewsync/internal/model"
	"github.com/fieldcrew/crewsync/internal/observability/logger"
)

// HTTPClient habla el contrato JSON del backend. Cada request lleva el
// token del tenant que se pasó explícitamente; el cliente no guarda tokens.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient crea un cliente con timeout razonable para redes móviles.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// timeouts, DNS, conexión rechazada: todo es "no hay red" para el caller
		return &APIError{Kind: ErrNetworkUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return classify(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.From(ctx).Warn("respuesta no parseable", logger.Path(path), logger.Err(err))
		return &APIError{Kind: ErrServerError, Status: resp.StatusCode, Detail: "malformed response body"}
	}
	return nil
}

// classify mapea status HTTP a la taxonomía del motor.
func classify(status int, raw []byte) error {
	var er errorResponse
	_ = json.Unmarshal(raw, &er)
	detail := er.Message
	if detail == "" {
		detail = strings.TrimSpace(string(raw))
		if len(detail) > 200 {
			detail = detail[:200]
		}
	}

	kind := ErrServerError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrUnauthorized
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = ErrValidationFailed
	case status >= 500:
		kind = ErrServerError
	}
	return &APIError{Kind: kind, Status: status, Detail: detail}
}

func (c *HTTPClient) FetchShiftList(ctx context.Context, tok TenantToken, win FetchWindow) ([]model.ShiftRecord, error) {
	q := url.Values{}
	q.Set("past_days", strconv.Itoa(win.PastDays))
	q.Set("future_days", strconv.Itoa(win.FutureDays))
	path := "/v1/tenants/" + url.PathEscape(tok.TenantID) + "/shifts?" + q.Encode()

	var out shiftListResponse
	if err := c.do(ctx, http.MethodGet, path, tok.Value, nil, &out); err != nil {
		return nil, err
	}
	return out.Shifts, nil
}

func (c *HTTPClient) AddVolunteer(ctx context.Context, tok TenantToken, recordID, name string) (*model.ShiftRecord, error) {
	path := "/v1/tenants/" + url.PathEscape(tok.TenantID) + "/shifts/" + url.PathEscape(recordID) + "/volunteers"
	var out model.ShiftRecord
	if err := c.do(ctx, http.MethodPost, path, tok.Value, volunteerRequest{RecordID: recordID, Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RemoveVolunteer(ctx context.Context, tok TenantToken, recordID, name string) (*model.ShiftRecord, error) {
	path := "/v1/tenants/" + url.PathEscape(tok.TenantID) + "/shifts/" + url.PathEscape(recordID) + "/volunteers/" + url.PathEscape(name)
	var out model.ShiftRecord
	if err := c.do(ctx, http.MethodDelete, path, tok.Value, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchLeaderboard(ctx context.Context, tok TenantToken, period model.Period, teamID string) (*model.LeaderboardPayload, error) {
	q := url.Values{}
	q.Set("period", string(period))
	if teamID != "" {
		q.Set("team_id", teamID)
	}
	path := "/v1/tenants/" + url.PathEscape(tok.TenantID) + "/leaderboard?" + q.Encode()

	var out model.LeaderboardPayload
	if err := c.do(ctx, http.MethodGet, path, tok.Value, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchGlobalLeaderboard(ctx context.Context, tok TenantToken, period model.Period, teamID string) (*model.GlobalLeaderboardPayload, error) {
	q := url.Values{}
	q.Set("period", string(period))
	if teamID != "" {
		q.Set("team_id", teamID)
	}
	var out model.GlobalLeaderboardPayload
	if err := c.do(ctx, http.MethodGet, "/v1/leaderboard/global?"+q.Encode(), tok.Value, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchTeamMeta(ctx context.Context, tok TenantToken, teamCode string) (*model.TeamMeta, error) {
	path := "/v1/tenants/" + url.PathEscape(tok.TenantID) + "/teams/" + url.PathEscape(teamCode)
	var out model.TeamMeta
	if err := c.do(ctx, http.MethodGet, path, tok.Value, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SubmitEnrollmentSync(ctx context.Context, hardwareID string, snapshots []model.EnrollmentSnapshot) (*model.ReconciliationResult, error) {
	var out syncResponse
	if err := c.do(ctx, http.MethodPost, "/v1/devices/"+url.PathEscape(hardwareID)+"/sync", "", buildSyncRequest(snapshots), &out); err != nil {
		return nil, err
	}
	return &model.ReconciliationResult{
		Synced:            out.Synced,
		RevokedCount:      out.CleanupSummary.EnrollmentsRevoked,
		TeamsRemovedCount: out.CleanupSummary.TeamsRemoved,
		LastSyncAt:        time.Now().UTC(),
	}, nil
}

var _ Client = (*HTTPClient)(nil)

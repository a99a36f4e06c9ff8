package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/crewsync/internal/model"
)

func TestHTTPClient_FetchShiftList(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"shifts": []map[string]any{
				{"id": "1", "tenant_id": "demo", "start_time": "2026-06-05T18:00:00Z", "end_time": "2026-06-05T20:00:00Z", "status": "open", "location": "cantina"},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	recs, err := c.FetchShiftList(context.Background(), TenantToken{TenantID: "demo", Value: "tok"}, DefaultWindow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "1", recs[0].ID)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, "/v1/tenants/demo/shifts", gotPath)
	require.Contains(t, gotQuery, "past_days=365")
	require.Contains(t, gotQuery, "future_days=60")
}

func TestHTTPClient_StatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidationFailed},
		{http.StatusUnprocessableEntity, ErrValidationFailed},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusBadGateway, ErrServerError},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "x", "message": "detalle"})
		}))

		c := NewHTTPClient(srv.URL, time.Second)
		_, err := c.FetchShiftList(context.Background(), TenantToken{TenantID: "demo", Value: "tok"}, DefaultWindow)
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, tc.status, apiErr.Status)
		require.Equal(t, "detalle", apiErr.Detail)
		srv.Close()
	}
}

func TestHTTPClient_NetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // conexión rechazada

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.FetchShiftList(context.Background(), TenantToken{TenantID: "demo", Value: "tok"}, DefaultWindow)
	require.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestHTTPClient_SubmitEnrollmentSync_WireContract(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/devices/hw-abc/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"synced": true,
			"cleanup_summary": map[string]int{
				"enrollments_revoked": 2,
				"teams_removed":       1,
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	res, err := c.SubmitEnrollmentSync(context.Background(), "hw-abc", []model.EnrollmentSnapshot{
		{TenantID: "demo", Role: model.RoleManager, TeamCodes: []string{"F1", "F2"}, HardwareID: "hw-abc"},
	})
	require.NoError(t, err)
	require.True(t, res.Synced)
	require.Equal(t, 2, res.RevokedCount)
	require.Equal(t, 1, res.TeamsRemovedCount)
	require.False(t, res.LastSyncAt.IsZero())

	enrollments, ok := body["enrollments"].([]any)
	require.True(t, ok, "request body: %v", body)
	require.Len(t, enrollments, 1)
	first := enrollments[0].(map[string]any)
	require.Equal(t, "demo", first["tenant_slug"])
	require.Equal(t, "manager", first["role"])
	require.Equal(t, "hw-abc", first["hardware_identifier"])
	require.Equal(t, []any{"F1", "F2"}, first["team_codes"])
}

func TestHTTPClient_AddVolunteer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/tenants/demo/shifts/42/volunteers", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Caro", req["name"])
		_ = json.NewEncoder(w).Encode(model.ShiftRecord{ID: "42", TenantID: "demo", Volunteers: []string{"Caro"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	rec, err := c.AddVolunteer(context.Background(), TenantToken{TenantID: "demo", Value: "tok"}, "42", "Caro")
	require.NoError(t, err)
	require.True(t, rec.HasVolunteer("Caro"))
}

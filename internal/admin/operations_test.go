package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrej220/siteops/internal/admin"
	"github.com/andrej220/siteops/internal/batch"
	"github.com/andrej220/siteops/pkg/lg"
)

const testSecret = "batch-runner-secret"

var testCreds = admin.Credentials{ClientID: "siteops-tests", ClientSecret: testSecret}

// fakeSite is a minimal admin API endpoint that authenticates the client
// assertion and serves the five operation routes.
func fakeSite(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := admin.VerifyToken([]byte(testSecret), token); err != nil {
			http.Error(w, "bad assertion", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if handler != nil {
		mux.HandleFunc("/api/v1/", handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func connect(t *testing.T, url string) *admin.Session {
	t.Helper()
	sess, err := admin.NewConnector(testCreds, lg.Discard).Connect(context.Background(), url)
	require.NoError(t, err)
	return sess
}

func TestConnectRejectsBadCredentials(t *testing.T) {
	srv := fakeSite(t, nil)

	_, err := admin.NewConnector(admin.Credentials{ClientID: "x", ClientSecret: "wrong"}, lg.Discard).
		Connect(context.Background(), srv.URL)

	require.Error(t, err)
	var apiErr *admin.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestConnectUnreachableEndpoint(t *testing.T) {
	srv := fakeSite(t, nil)
	srv.Close()

	_, err := admin.NewConnector(testCreds, lg.Discard).Connect(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestConnectRequiresCredentials(t *testing.T) {
	_, err := admin.NewConnector(admin.Credentials{}, lg.Discard).Connect(context.Background(), "http://unused")
	assert.ErrorContains(t, err, "issue token")
}

func TestGetPolicy(t *testing.T) {
	srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/policy", r.URL.Path)
		json.NewEncoder(w).Encode(admin.SitePolicy{
			SharingCapability:        "ExternalUserSharingOnly",
			DenyAddAndCustomizePages: true,
			StorageQuotaMB:           2048,
		})
	})
	sess := connect(t, srv.URL)

	payload, err := admin.GetPolicy{}.Invoke(context.Background(), sess)

	require.NoError(t, err)
	policy, ok := payload.(admin.SitePolicy)
	require.True(t, ok)
	assert.Equal(t, "ExternalUserSharingOnly", policy.SharingCapability)
	assert.True(t, policy.DenyAddAndCustomizePages)
}

func TestSetPolicyRoundTrip(t *testing.T) {
	want := admin.SitePolicy{SharingCapability: "Disabled", StorageQuotaMB: 512}
	srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/v1/policy", r.URL.Path)
		var got admin.SitePolicy
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, want, got)
		json.NewEncoder(w).Encode(got)
	})
	sess := connect(t, srv.URL)

	payload, err := admin.SetPolicy{Policy: want}.Invoke(context.Background(), sess)

	require.NoError(t, err)
	assert.Equal(t, want, payload)
}

func TestGetPolicyStatus(t *testing.T) {
	applied := time.Date(2026, time.August, 1, 9, 30, 0, 0, time.UTC)
	srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/policy/status", r.URL.Path)
		json.NewEncoder(w).Encode(admin.PolicyStatus{
			State:       "applied",
			LastApplied: applied,
			Drifted:     true,
		})
	})
	sess := connect(t, srv.URL)

	payload, err := admin.GetPolicyStatus{}.Invoke(context.Background(), sess)

	require.NoError(t, err)
	status, ok := payload.(admin.PolicyStatus)
	require.True(t, ok)
	assert.Equal(t, "applied", status.State)
	assert.True(t, applied.Equal(status.LastApplied))
	assert.True(t, status.Drifted)
}

func TestCreateCleanupJobKeepsRequestID(t *testing.T) {
	op := admin.NewCreateCleanupJob()
	var seen []string
	srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			RequestID string `json:"requestId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen = append(seen, body.RequestID)
		json.NewEncoder(w).Encode(admin.CleanupJob{ID: "job-1", State: "queued"})
	})
	sess := connect(t, srv.URL)

	_, err := op.Invoke(context.Background(), sess)
	require.NoError(t, err)
	_, err = op.Invoke(context.Background(), sess)
	require.NoError(t, err)

	// retried submissions carry the same request id so the service can
	// deduplicate instead of queueing a second job
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, op.RequestID.String(), seen[0])
}

func TestGetCleanupJobStatus(t *testing.T) {
	srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/jobs/cleanup/latest", r.URL.Path)
		json.NewEncoder(w).Encode(admin.CleanupJobStatus{JobID: "job-1", State: "running", ItemsRemoved: 12})
	})
	sess := connect(t, srv.URL)

	payload, err := admin.GetCleanupJobStatus{}.Invoke(context.Background(), sess)

	require.NoError(t, err)
	status, ok := payload.(admin.CleanupJobStatus)
	require.True(t, ok)
	assert.Equal(t, "running", status.State)
	assert.Equal(t, 12, status.ItemsRemoved)
}

func TestThrottleResponsesMapToThrottleError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		want       time.Duration
	}{
		{name: "429 with header", status: http.StatusTooManyRequests, retryAfter: "60", want: time.Minute},
		{name: "429 without header", status: http.StatusTooManyRequests, want: 0},
		{name: "503 with header", status: http.StatusServiceUnavailable, retryAfter: "15", want: 15 * time.Second},
		{name: "503 without header", status: http.StatusServiceUnavailable, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
			})
			sess := connect(t, srv.URL)

			_, err := admin.GetPolicy{}.Invoke(context.Background(), sess)

			var te *batch.ThrottleError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.want, te.RetryAfter)
		})
	}
}

func TestNonThrottleFailureIsFatal(t *testing.T) {
	srv := fakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	})
	sess := connect(t, srv.URL)

	_, err := admin.GetPolicy{}.Invoke(context.Background(), sess)

	var apiErr *admin.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "access denied")
	assert.False(t, batch.IsThrottle(err))
}

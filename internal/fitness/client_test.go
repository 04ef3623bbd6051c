package fitness

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth"
	oauthentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
)

type fakeFit struct {
	srv    *httptest.Server
	calls  atomic.Int32
	status int
	body   string
	last   atomic.Pointer[aggregateRequest]
	auth   atomic.Value
}

func newFakeFit(t *testing.T, status int, body string) *fakeFit {
	t.Helper()
	f := &fakeFit{status: status, body: body}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/users/me/dataset:aggregate" {
			http.NotFound(w, r)
			return
		}
		f.auth.Store(r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		var req aggregateRequest
		if err := json.Unmarshal(raw, &req); err == nil {
			f.last.Store(&req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeFit) client() *Client {
	return NewClient(Config{BaseURL: f.srv.URL, Timeout: 5 * time.Second})
}

func liveCredential() *oauthentity.Credential {
	return &oauthentity.Credential{AccessToken: "at-1", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

func TestDefaultWindow(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	w := DefaultWindow(now)
	assert.Equal(t, now, w.End)
	assert.Equal(t, 14*24*time.Hour, w.End.Sub(w.Start))
	assert.NoError(t, w.Validate())

	assert.ErrorIs(t, Window{Start: now, End: now}.Validate(), ErrInvalidWindow)
}

func TestMetricTypesAreFixed(t *testing.T) {
	require.Len(t, MetricTypes, 9)
	seen := map[MetricType]bool{}
	for _, m := range MetricTypes {
		assert.False(t, seen[m], "duplicate %s", m)
		seen[m] = true
	}
	assert.True(t, seen["com.google.step_count.delta"])
	assert.True(t, seen["com.google.menstruation"])
}

func TestFetchAggregateSendsQuery(t *testing.T) {
	f := newFakeFit(t, http.StatusOK, `{"bucket":[{"startTimeMillis":"1760572800000","endTimeMillis":"1760659200000","dataset":[]}]}`)
	w := DefaultWindow(time.Now())

	resp, err := f.client().FetchAggregate(context.Background(), liveCredential(), w, MetricTypes)
	require.NoError(t, err)
	require.Len(t, resp.Bucket, 1)

	assert.Equal(t, "Bearer at-1", f.auth.Load())
	req := f.last.Load()
	require.NotNil(t, req)
	assert.Equal(t, int64(86400000), req.BucketByTime.DurationMillis)
	assert.Equal(t, w.Start.UnixMilli(), req.StartTimeMillis)
	assert.Equal(t, w.End.UnixMilli(), req.EndTimeMillis)
	require.Len(t, req.AggregateBy, len(MetricTypes))
	for i, m := range MetricTypes {
		assert.Equal(t, m, req.AggregateBy[i].DataTypeName)
	}
}

func TestFetchAggregateToleratesMalformedBucket(t *testing.T) {
	f := newFakeFit(t, http.StatusOK, `{"bucket":[
		{"startTimeMillis":"not-a-number","dataset":[]},
		{"startTimeMillis":"1760572800000","dataset":[]}
	]}`)

	resp, err := f.client().FetchAggregate(context.Background(), liveCredential(), DefaultWindow(time.Now()), nil)
	require.NoError(t, err)
	require.Len(t, resp.Bucket, 2)
	assert.Zero(t, resp.Bucket[0].StartTimeMillis)
	assert.Equal(t, int64(1760572800000), int64(resp.Bucket[1].StartTimeMillis))
}

func TestFetchAggregateExpiredCredentialMakesNoCall(t *testing.T) {
	f := newFakeFit(t, http.StatusOK, `{}`)
	cred := liveCredential()
	cred.Expiry = time.Now().Add(-time.Minute)

	_, err := f.client().FetchAggregate(context.Background(), cred, DefaultWindow(time.Now()), nil)
	assert.ErrorIs(t, err, oauth.ErrTokenExpired)
	assert.Zero(t, f.calls.Load())
}

func TestFetchAggregateUnauthorized(t *testing.T) {
	f := newFakeFit(t, http.StatusUnauthorized, `{"error":{"code":401}}`)

	_, err := f.client().FetchAggregate(context.Background(), liveCredential(), DefaultWindow(time.Now()), nil)
	assert.ErrorIs(t, err, oauth.ErrTokenExpired)
}

func TestFetchAggregateUpstreamFailure(t *testing.T) {
	f := newFakeFit(t, http.StatusForbidden, `{"error":{"code":403}}`)

	_, err := f.client().FetchAggregate(context.Background(), liveCredential(), DefaultWindow(time.Now()), nil)
	assert.ErrorIs(t, err, ErrUpstreamAggregate)
	assert.False(t, errors.Is(err, oauth.ErrTokenExpired))
}

func TestFetchAggregateInvalidWindow(t *testing.T) {
	f := newFakeFit(t, http.StatusOK, `{}`)
	now := time.Now()

	_, err := f.client().FetchAggregate(context.Background(), liveCredential(), Window{Start: now, End: now.Add(-time.Hour)}, nil)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Zero(t, f.calls.Load())
}

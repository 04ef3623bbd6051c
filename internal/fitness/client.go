package fitness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/fitness/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth"
	oauthentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/utilities"
)

// BucketDuration is the aggregation granularity: one day.
const BucketDuration = 24 * time.Hour

// WindowLength is how far back a fetch reaches.
const WindowLength = 14 * 24 * time.Hour

// MetricType is a Google Fit data type name.
type MetricType string

const (
	MetricSteps         MetricType = "com.google.step_count.delta"
	MetricGlucose       MetricType = "com.google.blood_glucose"
	MetricBloodPressure MetricType = "com.google.blood_pressure"
	MetricHeartRate     MetricType = "com.google.heart_rate.bpm"
	MetricWeight        MetricType = "com.google.weight"
	MetricHeight        MetricType = "com.google.height"
	MetricSleep         MetricType = "com.google.sleep.segment"
	MetricBodyFat       MetricType = "com.google.body.fat.percentage"
	MetricMenstruation  MetricType = "com.google.menstruation"
)

// MetricTypes is the fixed set requested on every fetch.
var MetricTypes = []MetricType{
	MetricSteps,
	MetricGlucose,
	MetricBloodPressure,
	MetricHeartRate,
	MetricWeight,
	MetricHeight,
	MetricSleep,
	MetricBodyFat,
	MetricMenstruation,
}

var (
	ErrUpstreamAggregate = errors.New("aggregate query failed")
	ErrInvalidWindow     = errors.New("window start must be before end")
)

// Window is a half-open query range.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow is the last WindowLength up to now.
func DefaultWindow(now time.Time) Window {
	return Window{Start: now.Add(-WindowLength), End: now}
}

func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

type aggregateBy struct {
	DataTypeName MetricType `json:"dataTypeName"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    bucketByTime  `json:"bucketByTime"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Persist turns on background writes to the document store.
	Persist bool
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: utilities.EnvString("GOOGLE_FITNESS_URL", "https://www.googleapis.com/fitness/v1"),
		Timeout: utilities.EnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		Persist: utilities.EnvBool("PERSIST_ENABLED"),
	}
}

// Client issues aggregate queries against the Fitness API.
type Client struct {
	http *resty.Client
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c, now: time.Now}
}

// FetchAggregate asks for daily buckets of metricTypes over w. A stale
// credential is rejected before any call is made; callers refresh and retry.
func (c *Client) FetchAggregate(ctx context.Context, cred *oauthentity.Credential, w Window, metricTypes []MetricType) (*entity.AggregateResponse, error) {
	if cred.Expired(c.now()) {
		return nil, oauth.ErrTokenExpired
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(metricTypes) == 0 {
		metricTypes = MetricTypes
	}
	body := aggregateRequest{
		BucketByTime:    bucketByTime{DurationMillis: BucketDuration.Milliseconds()},
		StartTimeMillis: w.Start.UnixMilli(),
		EndTimeMillis:   w.End.UnixMilli(),
	}
	for _, m := range metricTypes {
		body.AggregateBy = append(body.AggregateBy, aggregateBy{DataTypeName: m})
	}

	var out entity.AggregateResponse
	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken).
		SetBody(body).
		SetResult(&out).
		Post("/users/me/dataset:aggregate")
	if err == nil && resp.IsError() {
		err = fmt.Errorf("status %d", resp.StatusCode())
	}
	observability.ObserveUpstream("dataset_aggregate", started, err)
	if err != nil {
		if resp != nil && resp.StatusCode() == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: provider rejected the access token", oauth.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamAggregate, err)
	}
	return &out, nil
}

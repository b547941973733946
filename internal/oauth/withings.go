package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Withings measurement types returned by the measure endpoint.
const (
	WithingsTypeWeight    = 1
	WithingsTypeDiastolic = 9
	WithingsTypeSystolic  = 10
	WithingsTypePulse     = 11
)

// WithingsMeasure is one measurement inside a group. The real value is
// Value scaled by 10^Unit.
type WithingsMeasure struct {
	Value int64 `json:"value"`
	Type  int   `json:"type"`
	Unit  int   `json:"unit"`
}

// Float returns the decoded measurement value.
func (m WithingsMeasure) Float() float64 {
	return float64(m.Value) * math.Pow(10, float64(m.Unit))
}

// WithingsMeasureGroup is a set of measurements taken together.
type WithingsMeasureGroup struct {
	Date     int64             `json:"date"`
	Measures []WithingsMeasure `json:"measures"`
}

// Time returns the group timestamp.
func (g WithingsMeasureGroup) Time() time.Time {
	return time.Unix(g.Date, 0).UTC()
}

// Measure returns the decoded value for a measurement type and whether the
// group contains it.
func (g WithingsMeasureGroup) Measure(typ int) (float64, bool) {
	for _, m := range g.Measures {
		if m.Type == typ {
			return m.Float(), true
		}
	}
	return 0, false
}

// WithingsSleepSummary is one night from the sleep summary endpoint.
// Durations are in seconds.
type WithingsSleepSummary struct {
	Startdate          int64 `json:"startdate"`
	Enddate            int64 `json:"enddate"`
	LightSleepDuration int64 `json:"lightsleepduration"`
	DeepSleepDuration  int64 `json:"deepsleepduration"`
	RemSleepDuration   int64 `json:"remsleepduration"`
	WakeupDuration     int64 `json:"wakeupduration"`
	SleepScore         *int  `json:"sleep_score"`
	HRAverage          *int  `json:"hr_average"`
	HRMin              *int  `json:"hr_min"`
}

// WithingsClient calls the Withings data API with an access token obtained
// from WithingsProvider. BaseURL is overridable for tests.
type WithingsClient struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
}

// NewWithingsClient creates a client against the production API.
func NewWithingsClient(accessToken string) *WithingsClient {
	return &WithingsClient{
		BaseURL:     "https://wbsapi.withings.net",
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Measurements fetches measurement groups (weight, blood pressure, pulse)
// in the given window.
func (c *WithingsClient) Measurements(ctx context.Context, start, end time.Time) ([]WithingsMeasureGroup, error) {
	form := url.Values{
		"action":    {"getmeas"},
		"startdate": {strconv.FormatInt(start.Unix(), 10)},
		"enddate":   {strconv.FormatInt(end.Unix(), 10)},
		"meastypes": {fmt.Sprintf("%d,%d,%d,%d", WithingsTypeWeight, WithingsTypeDiastolic, WithingsTypeSystolic, WithingsTypePulse)},
	}

	var body struct {
		MeasureGroups []WithingsMeasureGroup `json:"measuregrps"`
	}
	if err := c.call(ctx, "/measure", form, &body); err != nil {
		return nil, err
	}
	return body.MeasureGroups, nil
}

// SleepSummaries fetches nightly sleep summaries in the given window.
func (c *WithingsClient) SleepSummaries(ctx context.Context, start, end time.Time) ([]WithingsSleepSummary, error) {
	form := url.Values{
		"action":       {"getsummary"},
		"startdateymd": {start.UTC().Format("2006-01-02")},
		"enddateymd":   {end.UTC().Format("2006-01-02")},
		"data_fields":  {"deepsleepduration,lightsleepduration,remsleepduration,wakeupduration,sleep_score,hr_average,hr_min"},
	}

	var body struct {
		Series []WithingsSleepSummary `json:"series"`
	}
	if err := c.call(ctx, "/v2/sleep", form, &body); err != nil {
		return nil, err
	}
	return body.Series, nil
}

// call posts a form to the API and unwraps the status/body envelope.
func (c *WithingsClient) call(ctx context.Context, endpoint string, form url.Values, out any) error {
	form.Set("access_token", c.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("withings %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("withings %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var envelope struct {
		Status int             `json:"status"`
		Body   json.RawMessage `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("withings %s: %w", endpoint, err)
	}
	if envelope.Status != 0 {
		return fmt.Errorf("withings %s: api status %d", endpoint, envelope.Status)
	}
	return json.Unmarshal(envelope.Body, out)
}

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// whoopScoredState marks records whose score has been computed.
const whoopScoredState = "SCORED"

// WhoopSleep is one sleep activity from the WHOOP API.
type WhoopSleep struct {
	ID         string    `json:"id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ScoreState string    `json:"score_state"`
	Score      struct {
		StageSummary struct {
			TotalInBedMilli    int64 `json:"total_in_bed_time_milli"`
			TotalAwakeMilli    int64 `json:"total_awake_time_milli"`
			TotalLightMilli    int64 `json:"total_light_sleep_time_milli"`
			TotalSlowWaveMilli int64 `json:"total_slow_wave_sleep_time_milli"`
			TotalREMMilli      int64 `json:"total_rem_sleep_time_milli"`
		} `json:"stage_summary"`
		SleepEfficiencyPercentage  *float64 `json:"sleep_efficiency_percentage"`
		SleepPerformancePercentage *float64 `json:"sleep_performance_percentage"`
		RespiratoryRate            *float64 `json:"respiratory_rate"`
	} `json:"score"`
}

// Scored reports whether the record carries a computed score.
func (s WhoopSleep) Scored() bool { return s.ScoreState == whoopScoredState }

// WhoopRecovery is one recovery record (HRV and resting heart rate).
type WhoopRecovery struct {
	CycleID    int64     `json:"cycle_id"`
	SleepID    string    `json:"sleep_id"`
	CreatedAt  time.Time `json:"created_at"`
	ScoreState string    `json:"score_state"`
	Score      struct {
		RecoveryScore    *float64 `json:"recovery_score"`
		RestingHeartRate *float64 `json:"resting_heart_rate"`
		HRVRmssdMilli    *float64 `json:"hrv_rmssd_milli"`
	} `json:"score"`
}

// Scored reports whether the record carries a computed score.
func (r WhoopRecovery) Scored() bool { return r.ScoreState == whoopScoredState }

// WhoopClient calls the WHOOP developer API with a bearer token. BaseURL is
// overridable for tests.
type WhoopClient struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
}

// NewWhoopClient creates a client against the production API.
func NewWhoopClient(accessToken string) *WhoopClient {
	return &WhoopClient{
		BaseURL:     "https://api.prod.whoop.com/developer",
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Sleeps fetches up to limit sleep records in the window, following
// pagination tokens as needed.
func (c *WhoopClient) Sleeps(ctx context.Context, start, end time.Time, limit int) ([]WhoopSleep, error) {
	var out []WhoopSleep
	err := c.collect(ctx, "/v2/activity/sleep", start, end, limit, func(records json.RawMessage) (int, error) {
		var page []WhoopSleep
		if err := json.Unmarshal(records, &page); err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recoveries fetches up to limit recovery records in the window.
func (c *WhoopClient) Recoveries(ctx context.Context, start, end time.Time, limit int) ([]WhoopRecovery, error) {
	var out []WhoopRecovery
	err := c.collect(ctx, "/v2/recovery", start, end, limit, func(records json.RawMessage) (int, error) {
		var page []WhoopRecovery
		if err := json.Unmarshal(records, &page); err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collect pages through a collection endpoint. The API caps page size at 25
// records.
func (c *WhoopClient) collect(ctx context.Context, endpoint string, start, end time.Time, limit int, accept func(json.RawMessage) (int, error)) error {
	pageSize := limit
	if pageSize > 25 {
		pageSize = 25
	}

	total := 0
	nextToken := ""
	for {
		q := url.Values{"limit": {strconv.Itoa(pageSize)}}
		if !start.IsZero() {
			q.Set("start", start.UTC().Format(time.RFC3339))
		}
		if !end.IsZero() {
			q.Set("end", end.UTC().Format(time.RFC3339))
		}
		if nextToken != "" {
			q.Set("nextToken", nextToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("whoop %s: %w", endpoint, err)
		}

		var page struct {
			Records   json.RawMessage `json:"records"`
			NextToken string          `json:"next_token"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("whoop %s: unexpected status %d", endpoint, resp.StatusCode)
		}
		if decodeErr != nil {
			return fmt.Errorf("whoop %s: %w", endpoint, decodeErr)
		}

		if len(page.Records) > 0 {
			n, err := accept(page.Records)
			if err != nil {
				return fmt.Errorf("whoop %s: %w", endpoint, err)
			}
			total += n
		}

		nextToken = page.NextToken
		if nextToken == "" || total >= limit {
			return nil
		}
	}
}

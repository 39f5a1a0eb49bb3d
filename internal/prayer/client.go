// Package prayer fetches daily prayer times and the Hijri date from the
// Aladhan API, with a per-day cache.
package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Timings maps Aladhan prayer keys ("Fajr", "Dhuhr", ...) to clock times
// in "HH:MM" form.
type Timings map[string]string

// HijriMonth is the month part of a Hijri date.
type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar"`
}

// HijriDate is the Hijri calendar date reported alongside the timings.
type HijriDate struct {
	Day   string     `json:"day"`
	Month HijriMonth `json:"month"`
	Year  string     `json:"year"`
}

// DayNumber returns the numeric day of the month, or 0 when unparsable.
func (h HijriDate) DayNumber() int {
	n, _ := strconv.Atoi(h.Day)
	return n
}

// Client is an Aladhan API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an Aladhan client. An empty baseURL uses the public
// API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings Timings `json:"timings"`
		Date    struct {
			Hijri *HijriDate `json:"hijri"`
		} `json:"date"`
	} `json:"data"`
}

// Timings fetches prayer times and the Hijri date for a calendar day at
// the given coordinates.
func (c *Client) Timings(ctx context.Context, day time.Time, lat, lng float64, method int) (Timings, *HijriDate, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("method", strconv.Itoa(method))

	reqURL := fmt.Sprintf("%s/timings/%s?%s",
		c.baseURL, day.Format("02-01-2006"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Code != http.StatusOK || body.Data.Timings == nil {
		return nil, nil, fmt.Errorf("api returned code %d", body.Code)
	}

	return body.Data.Timings, body.Data.Date.Hijri, nil
}

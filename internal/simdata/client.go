package simdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidewater-labs/floodrisk/internal/curve"
)

// EventOutput is one simulated event's completed output: its annual
// occurrence frequency and the damage value per spatial/asset unit.
type EventOutput struct {
	EventID   string             `json:"event_id"`
	Frequency float64            `json:"frequency"`
	Units     map[string]float64 `json:"units"`
}

// Client queries the external simulation service for completed outputs.
type Client interface {
	// EventSetOutputs returns the per-event damages of a scenario's
	// probabilistic event set, grouped per unit and ready for curve building.
	EventSetOutputs(ctx context.Context, scenarioName string) (map[string][]curve.EventRecord, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("simdata %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) EventSetOutputs(ctx context.Context, scenarioName string) (map[string][]curve.EventRecord, error) {
	data, err := c.doReq(ctx, "GET", "/api/v1/scenarios/"+url.PathEscape(scenarioName)+"/outputs")
	if err != nil {
		return nil, err
	}
	var outputs []EventOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, err
	}
	return GroupByUnit(outputs), nil
}

// GroupByUnit pivots per-event outputs into per-unit event records.
func GroupByUnit(outputs []EventOutput) map[string][]curve.EventRecord {
	byUnit := make(map[string][]curve.EventRecord)
	for _, out := range outputs {
		for unit, value := range out.Units {
			byUnit[unit] = append(byUnit[unit], curve.EventRecord{
				EventID:   out.EventID,
				Frequency: out.Frequency,
				Value:     value,
			})
		}
	}
	return byUnit
}

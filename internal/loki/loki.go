package loki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ServiceName is the service_name label the catalog logs are shipped under.
const ServiceName = "mediacatalog"

// Loki retrieves request counts from the shipped service logs.
type Loki interface {
	// GetViews24 retrieves the number of view requests served in the last 24 hours.
	GetViews24(ctx context.Context) (int, error)
	// GetPlays24 retrieves the number of play requests served in the last 24 hours.
	GetPlays24(ctx context.Context) (int, error)
}

type catalogLoki struct {
	httpClient *http.Client
	lokiHost   string
}

// NewLoki creates a Loki client for the instance at lokiHost.
func NewLoki(lokiHost string, httpClient *http.Client) Loki {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &catalogLoki{
		httpClient: httpClient,
		lokiHost:   lokiHost,
	}
}

func (s *catalogLoki) GetViews24(ctx context.Context) (int, error) {
	return s.countLokiLogs(ctx, "ViewHandler")
}

func (s *catalogLoki) GetPlays24(ctx context.Context) (int, error) {
	return s.countLokiLogs(ctx, "PlayHandler")
}

func (s *catalogLoki) countLokiLogs(ctx context.Context, search string) (int, error) {
	query := fmt.Sprintf("sum(count_over_time({service_name=%q} |= `%s` [24h]))", ServiceName, search)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.lokiHost+"/loki/api/v1/query", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to http.NewRequest: %w", err)
	}

	q := req.URL.Query()
	q.Add("query", query)
	req.URL.RawQuery = q.Encode()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to http.Client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("loki response status code: %d", resp.StatusCode)
	}

	var lokiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&lokiResp); err != nil {
		return 0, fmt.Errorf("failed to json.Decoder.Decode: %w", err)
	}

	if lokiResp.Status != "success" {
		return 0, fmt.Errorf("loki response status: %s", lokiResp.Status)
	}

	if lokiResp.Data.ResultType != "vector" {
		return 0, fmt.Errorf("loki response data result type: %s", lokiResp.Data.ResultType)
	}

	// An empty vector means no matching lines in the window.
	if len(lokiResp.Data.Result) == 0 {
		return 0, nil
	}

	if len(lokiResp.Data.Result) != 1 {
		return 0, fmt.Errorf("loki response data result length: %d", len(lokiResp.Data.Result))
	}

	if len(lokiResp.Data.Result[0].Value) != 2 {
		return 0, fmt.Errorf("loki response data result value length: %d", len(lokiResp.Data.Result[0].Value))
	}

	value, ok := (lokiResp.Data.Result[0].Value[1]).(string)
	if !ok {
		return 0, fmt.Errorf("failed to assert value to string: %v", lokiResp.Data.Result[0].Value[1])
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to strconv.Atoi: %w", err)
	}

	return i, nil
}

// Response is the instant query response body.
type Response struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric map[string]string `json:"metric"`
			Value  []any             `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

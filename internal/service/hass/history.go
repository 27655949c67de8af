package hass

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"HeatCycle/internal/domain/models"
	xhttp "HeatCycle/pkg/http"
)

// HistoryClient reads past states from the Home Assistant REST API. The live
// stream never replays events, so after downtime this is the only way to
// close the gap before the next analysis run.
type HistoryClient struct {
	http    *xhttp.Client
	baseURL string
	token   string
}

func NewHistoryClient(baseURL, accessToken string, timeout time.Duration) *HistoryClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HistoryClient{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   accessToken,
	}
}

// FetchRange returns the state history of the given entities between start
// and end, ordered by timestamp. The API groups states per entity; the
// result is flattened and re-sorted so it can feed the batch ingest path
// directly.
func (h *HistoryClient) FetchRange(ctx context.Context, entities []string, start, end time.Time) ([]*models.Sample, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	url := fmt.Sprintf("%s/api/history/period/%s", h.baseURL, start.UTC().Format(time.RFC3339))
	var series [][]haState
	err := h.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		Headers: map[string]string{
			"Authorization": "Bearer " + h.token,
		},
		QueryParams: map[string][]string{
			"filter_entity_id":         {strings.Join(entities, ",")},
			"end_time":                 {end.UTC().Format(time.RFC3339)},
			"significant_changes_only": {"false"},
		},
	}, &series)
	if err != nil {
		return nil, fmt.Errorf("hass history: %w", err)
	}

	var out []*models.Sample
	for _, states := range series {
		for i := range states {
			if s := restSample(&states[i]); s != nil {
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func restSample(st *haState) *models.Sample {
	if st == nil || st.EntityID == "" {
		return nil
	}
	ts := time.Time{}
	if st.LastUpdated != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, st.LastUpdated); err == nil {
			ts = parsed.UTC()
		}
	}
	if ts.IsZero() {
		return nil
	}
	return &models.Sample{
		EntityID:   st.EntityID,
		Timestamp:  ts,
		State:      st.State,
		TargetTemp: st.Attributes.Temperature,
		HVACAction: st.Attributes.HVACAction,
	}
}

// RESTBaseFromWebSocket derives the REST base URL from a WebSocket endpoint,
// e.g. ws://host:8123/api/websocket -> http://host:8123.
func RESTBaseFromWebSocket(wsURL string) string {
	base := strings.TrimSuffix(wsURL, "/api/websocket")
	switch {
	case strings.HasPrefix(base, "wss://"):
		return "https://" + strings.TrimPrefix(base, "wss://")
	case strings.HasPrefix(base, "ws://"):
		return "http://" + strings.TrimPrefix(base, "ws://")
	}
	return base
}

package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRESTBaseFromWebSocket(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ws://hass.local:8123/api/websocket", "http://hass.local:8123"},
		{"wss://hass.example.org/api/websocket", "https://hass.example.org"},
		{"http://hass.local:8123", "http://hass.local:8123"},
	}
	for _, c := range cases {
		if got := RESTBaseFromWebSocket(c.in); got != c.want {
			t.Errorf("RESTBaseFromWebSocket(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRestSample(t *testing.T) {
	temp := 16.0
	st := &haState{
		EntityID:    "climate.living_room",
		State:       "heat",
		LastUpdated: "2026-01-15T21:00:00.123456+00:00",
	}
	st.Attributes.Temperature = &temp
	st.Attributes.HVACAction = "heating"

	s := restSample(st)
	if s == nil {
		t.Fatal("restSample returned nil for a valid state")
	}
	if s.EntityID != "climate.living_room" || s.HVACAction != "heating" {
		t.Errorf("unexpected sample %+v", s)
	}
	if s.TargetTemp == nil || *s.TargetTemp != temp {
		t.Errorf("target temp = %v, want %v", s.TargetTemp, temp)
	}
	want := time.Date(2026, 1, 15, 21, 0, 0, 123456000, time.UTC)
	if !s.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", s.Timestamp, want)
	}

	if restSample(nil) != nil {
		t.Error("nil state should yield nil")
	}
	if restSample(&haState{State: "heat", LastUpdated: "2026-01-15T21:00:00+00:00"}) != nil {
		t.Error("missing entity_id should yield nil")
	}
	if restSample(&haState{EntityID: "climate.x", LastUpdated: "not-a-time"}) != nil {
		t.Error("bad timestamp should yield nil")
	}
}

func TestFetchRangeFlattensAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("filter_entity_id"); got != "climate.a,sensor.b" {
			t.Errorf("filter_entity_id = %q", got)
		}
		series := [][]map[string]any{
			{
				{"entity_id": "climate.a", "state": "heat", "last_updated": "2026-01-15T22:00:00+00:00"},
				{"entity_id": "climate.a", "state": "heat", "last_updated": "2026-01-15T23:00:00+00:00"},
			},
			{
				{"entity_id": "sensor.b", "state": "123.4", "last_updated": "2026-01-15T21:30:00+00:00"},
			},
		}
		json.NewEncoder(w).Encode(series)
	}))
	defer srv.Close()

	h := NewHistoryClient(srv.URL, "tok", time.Second)
	start := time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC)
	samples, err := h.FetchRange(context.Background(), []string{"climate.a", "sensor.b"}, start, start.Add(12*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			t.Fatalf("samples not sorted: %v after %v", samples[i].Timestamp, samples[i-1].Timestamp)
		}
	}
	if samples[0].EntityID != "sensor.b" {
		t.Errorf("first sample = %s, want sensor.b", samples[0].EntityID)
	}
}

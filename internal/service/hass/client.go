package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"HeatCycle/internal/domain/models"
	drepo "HeatCycle/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a StateStream backed by the Home Assistant WebSocket
// API: authenticate with a long-lived access token, subscribe to
// state_changed events, and translate the ones for watched entities into
// samples.
type Client struct {
	websocketURL   string
	accessToken    string
	entities       map[string]struct{}
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
	msgID     atomic.Int64
}

// New creates a new Home Assistant StateStream. Only state changes of the
// listed entities are emitted.
func New(websocketURL, accessToken string, entities []string, reconnectDelay, pingInterval time.Duration) drepo.StateStream {
	watched := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		watched[e] = struct{}{}
	}
	return &Client{
		websocketURL:   websocketURL,
		accessToken:    accessToken,
		entities:       watched,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect dials the WebSocket endpoint and completes the auth handshake.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("hass connect: %w", err)
	}
	if err := c.authenticate(conn); err != nil {
		_ = conn.Close()
		return err
	}
	c.conn = conn
	c.connected = true
	log.Printf("hass: connected")
	return nil
}

// authenticate performs the auth_required/auth/auth_ok exchange.
func (c *Client) authenticate(conn *websocket.Conn) error {
	var hello struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("hass auth hello: %w", err)
	}
	if hello.Type != "auth_required" {
		return fmt.Errorf("hass unexpected hello: %s", hello.Type)
	}
	if err := conn.WriteJSON(map[string]string{
		"type":         "auth",
		"access_token": c.accessToken,
	}); err != nil {
		return fmt.Errorf("hass auth send: %w", err)
	}
	var result struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := conn.ReadJSON(&result); err != nil {
		return fmt.Errorf("hass auth result: %w", err)
	}
	if result.Type != "auth_ok" {
		return fmt.Errorf("hass auth failed: %s", result.Message)
	}
	return nil
}

// Subscribe requests state_changed events.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("hass not connected")
	}
	msg := map[string]interface{}{
		"id":         c.msgID.Add(1),
		"type":       "subscribe_events",
		"event_type": "state_changed",
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("hass subscribe: %w", err)
	}
	log.Printf("hass: subscribed state_changed")
	return nil
}

type haState struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastUpdated string `json:"last_updated"`
	Attributes  struct {
		Temperature *float64 `json:"temperature"`
		HVACAction  string   `json:"hvac_action"`
	} `json:"attributes"`
}

type haFrame struct {
	Type  string `json:"type"`
	Event struct {
		EventType string `json:"event_type"`
		Data      struct {
			EntityID string   `json:"entity_id"`
			NewState *haState `json:"new_state"`
		} `json:"data"`
	} `json:"event"`
}

// Read streams Sample events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	samples := make(chan *models.Sample, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(samples)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("hass conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("hass read: %w", err)
					return
				}
				var f haFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore malformed frames
					continue
				}
				if f.Type != "event" || f.Event.EventType != "state_changed" {
					continue
				}
				s := c.toSample(f.Event.Data.EntityID, f.Event.Data.NewState)
				if s == nil {
					continue
				}
				select {
				case samples <- s:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return samples, errs
}

// toSample converts a watched entity's new state into a Sample, or nil for
// entities outside the watch list and removed states.
func (c *Client) toSample(entityID string, st *haState) *models.Sample {
	if st == nil {
		return nil
	}
	if _, ok := c.entities[entityID]; !ok {
		return nil
	}
	ts := time.Now().UTC()
	if st.LastUpdated != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, st.LastUpdated); err == nil {
			ts = parsed.UTC()
		}
	}
	return &models.Sample{
		EntityID:   entityID,
		Timestamp:  ts,
		State:      st.State,
		TargetTemp: st.Attributes.Temperature,
		HVACAction: st.Attributes.HVACAction,
	}
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

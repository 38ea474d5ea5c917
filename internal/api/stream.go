package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cafesched/internal/model"
)

var heartbeatInterval = 15 * time.Second

// ScheduleStreamHandler handles GET /v1/schedule/stream (SSE).
// The first event is the current schedule; each later change follows.
func (s *Server) ScheduleStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	style, err := s.requestStyle(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid serve style", err.Error(), r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	p := s.getPrincipal(r)
	// subscribe before the snapshot so no change falls between them
	ch := s.Broker.Subscribe(p.Tenant)
	defer s.Broker.Unsubscribe(p.Tenant, ch)

	view, err := s.buildSchedule(r.Context(), p.Tenant, style)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Build schedule failed", err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	writeSSE(w, model.EventScheduleUpdated, scheduleSummary(view))
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data := evt.Data
			if evt.Type == model.EventScheduleUpdated && style != s.style {
				// the published summary uses the configured style
				if v, err := s.buildSchedule(r.Context(), p.Tenant, style); err == nil {
					data = scheduleSummary(v)
				}
			}
			writeSSE(w, evt.Type, data)
			flusher.Flush()
		case <-heartbeat.C:
			writeSSE(w, "heartbeat", map[string]any{"tenantId": p.Tenant, "ts": time.Now().UTC().Format(time.RFC3339)})
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	b, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", b)
}

// WebSocket feed using the graphql-transport-ws message envelope:
// connection_init/connection_ack, subscribe/next/complete, ping/pong.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// ScheduleWSHandler handles /v1/schedule/ws
func (s *Server) ScheduleWSHandler(w http.ResponseWriter, r *http.Request) {
	style, err := s.requestStyle(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid serve style", err.Error(), r.URL.Path)
		return
	}
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	conn := &wsConn{conn: raw}
	defer func() { _ = raw.Close() }()
	p := s.getPrincipal(r)
	log := s.Log.With().Str("tenant", p.Tenant).Str("remote", r.RemoteAddr).Logger()

	// id -> broker channel
	subs := map[string]chan SSEEvent{}
	done := make(chan struct{})
	defer func() {
		close(done)
		for id, ch := range subs {
			s.Broker.Unsubscribe(p.Tenant, ch)
			delete(subs, id)
		}
	}()

	raw.SetReadLimit(1 << 20)
	_ = raw.SetReadDeadline(time.Now().Add(60 * time.Second))
	raw.SetPongHandler(func(string) error { _ = raw.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	next := func(id string, view model.ScheduleView) error {
		payload, _ := json.Marshal(map[string]any{"data": map[string]any{"scheduleUpdated": scheduleSummary(view)}})
		return conn.write(wsMessage{Type: "next", ID: id, Payload: payload})
	}

	for {
		var msg wsMessage
		if err := raw.ReadJSON(&msg); err != nil {
			log.Debug().Err(err).Msg("websocket closed")
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "connection_init":
			_ = conn.write(wsMessage{Type: "connection_ack"})
			go func() {
				ticker := time.NewTicker(20 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						if err := conn.write(wsMessage{Type: "ping"}); err != nil {
							return
						}
					}
				}
			}()
		case "ping":
			_ = conn.write(wsMessage{Type: "pong"})
		case "subscribe":
			if msg.ID == "" {
				_ = conn.write(wsMessage{Type: "error", Payload: []byte(`{"message":"id required"}`)})
				continue
			}
			if _, dup := subs[msg.ID]; dup {
				_ = conn.write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"subscription id already in use"}`)})
				continue
			}
			ch := s.Broker.Subscribe(p.Tenant)
			subs[msg.ID] = ch
			view, err := s.buildSchedule(r.Context(), p.Tenant, style)
			if err != nil {
				log.Error().Err(err).Msg("build schedule for websocket")
				s.Broker.Unsubscribe(p.Tenant, ch)
				delete(subs, msg.ID)
				_ = conn.write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"schedule unavailable"}`)})
				continue
			}
			_ = next(msg.ID, view)
			go func(id string, c chan SSEEvent) {
				for evt := range c {
					if evt.Type != model.EventScheduleUpdated {
						continue
					}
					v, err := s.buildSchedule(r.Context(), p.Tenant, style)
					if err != nil {
						continue
					}
					if err := next(id, v); err != nil {
						return
					}
				}
				_ = conn.write(wsMessage{Type: "complete", ID: id})
			}(msg.ID, ch)
		case "complete":
			if ch, ok := subs[msg.ID]; ok {
				s.Broker.Unsubscribe(p.Tenant, ch)
				delete(subs, msg.ID)
			}
		default:
			// ignore
		}
	}
}

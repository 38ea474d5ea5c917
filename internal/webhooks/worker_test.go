package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cafesched/internal/logx"
	"cafesched/internal/model"
	"cafesched/internal/store"
)

type recordStore struct {
	*store.Memory
	mu    sync.Mutex
	marks []MarkRec
	fails []FailRec
}
type MarkRec struct {
	ID            string
	Success       bool
	Code, Latency int
	LastErr       string
}
type FailRec struct {
	ID            string
	Code, Latency int
	LastErr       string
}

func (r *recordStore) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	r.mu.Lock()
	r.marks = append(r.marks, MarkRec{ID: id, Success: success, Code: responseCode, Latency: latencyMs, LastErr: lastError})
	r.mu.Unlock()
	return r.Memory.MarkWebhookDelivery(ctx, id, success, nextAttemptAt, lastError, responseCode, latencyMs)
}
func (r *recordStore) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	r.mu.Lock()
	r.fails = append(r.fails, FailRec{ID: id, Code: responseCode, Latency: latencyMs, LastErr: lastError})
	r.mu.Unlock()
	return r.Memory.FailWebhookDelivery(ctx, id, lastError, responseCode, latencyMs)
}

func newTestWorker(rs *recordStore, client *http.Client, max int) *Worker {
	w := NewWorker(rs, max, logx.Nop())
	w.HTTP = client
	return w
}

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	rs := &recordStore{Memory: store.NewMemory()}
	w := newTestWorker(rs, srv.Client(), 3)
	id, err := rs.Memory.EnqueueWebhook(context.Background(), "t1", "", model.EventOrderAdded, srv.URL, "secret", []byte(`{"id":"evt1"}`))
	if err != nil || id == "" {
		t.Fatalf("enqueue failed: %v", err)
	}

	if n := w.processOnce(context.Background()); n != 1 {
		t.Fatalf("processed %d deliveries, want 1", n)
	}

	if gotType != model.EventOrderAdded || !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("bad signature/type headers: sig=%q type=%q", gotSig, gotType)
	}
	if len(rs.marks) != 1 || !rs.marks[0].Success || rs.marks[0].Code != 200 {
		t.Fatalf("expected mark success, got: %+v", rs.marks)
	}
	if n := w.processOnce(context.Background()); n != 0 {
		t.Fatalf("delivered item picked up again")
	}
}

func TestWorkerProcessOnce_RetryThenFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }))
	defer srv.Close()
	rs := &recordStore{Memory: store.NewMemory()}
	w := newTestWorker(rs, srv.Client(), 2)
	id, _ := rs.Memory.EnqueueWebhook(context.Background(), "t1", "", model.EventScheduleUpdated, srv.URL, "", []byte(`{}`))

	w.processOnce(context.Background())
	if len(rs.marks) != 1 || rs.marks[0].Success || rs.marks[0].LastErr != "http 500" {
		t.Fatalf("first attempt should be marked for retry: %+v", rs.marks)
	}
	// make it due again
	if err := rs.RetryWebhookDelivery(context.Background(), "t1", id); err != nil {
		t.Fatal(err)
	}
	w.processOnce(context.Background())
	if len(rs.fails) != 1 || rs.fails[0].ID != id || rs.fails[0].Code != 500 {
		t.Fatalf("expected fail recorded: %+v", rs.fails)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	rs := &recordStore{Memory: store.NewMemory()}
	w := newTestWorker(rs, http.DefaultClient, 1)
	w.Interval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNextBackoff(t *testing.T) {
	cases := map[int]time.Duration{-1: time.Second, 0: time.Second, 3: 8 * time.Second, 12: time.Hour, 40: time.Hour}
	for in, want := range cases {
		if got := nextBackoff(in); got != want {
			t.Errorf("nextBackoff(%d) = %v, want %v", in, got, want)
		}
	}
}

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://a", Events: []string{model.EventOrderAdded}, Secret: "s"})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://b", Events: []string{model.EventScheduleUpdated}})
	p := NewPublisher(m, logx.Nop())

	if n := p.Emit(ctx, "t1", model.EventOrderAdded, map[string]any{"orderId": 34}); n != 1 {
		t.Fatalf("enqueued %d, want 1", n)
	}
	if n := p.Emit(ctx, "t2", model.EventOrderAdded, nil); n != 0 {
		t.Fatalf("other tenant has no subscribers, got %d", n)
	}
	due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].URL != "http://a" || due[0].Secret != "s" {
		t.Fatalf("unexpected deliveries: %+v", due)
	}
	var body struct {
		ID       string         `json:"id"`
		Type     string         `json:"type"`
		TenantID string         `json:"tenantId"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(due[0].Payload, &body); err != nil {
		t.Fatal(err)
	}
	if body.Type != model.EventOrderAdded || body.TenantID != "t1" || body.Data["orderId"] != float64(34) || len(body.ID) < 5 {
		t.Fatalf("bad payload: %+v", body)
	}
}

func TestVerifyHMAC(t *testing.T) {
	sig := SignHMAC("k", []byte("body"))
	if !VerifyHMAC("k", []byte("body"), sig) {
		t.Fatal("signature should verify")
	}
	if VerifyHMAC("other", []byte("body"), sig) || VerifyHMAC("k", []byte("body"), "zz") {
		t.Fatal("bad signature accepted")
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/avedra/fraudguard/internal/fraud"
)

func notifierRecord(level fraud.RiskLevel) *fraud.Record {
	return &fraud.Record{
		ID:            "fr-notify-1",
		TransactionID: "tx-notify-1",
		UserID:        "user-notify",
		UserIP:        "10.0.0.9",
		RiskLevel:     level,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func collectEvents(t *testing.T, client *Client, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case msg := <-client.send:
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for event %d of %d", i+1, n)
		}
	}
	return events
}

func TestNotifier_RecordCreated_LowRisk(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{hub: h, send: make(chan []byte, 256), sub: Subscription{AllEvents: true}}
	h.register <- client
	time.Sleep(50 * time.Millisecond)

	NewNotifier(h).RecordCreated(notifierRecord(fraud.RiskLow))

	events := collectEvents(t, client, 1)
	if events[0].Type != EventRecordCreated {
		t.Errorf("expected %s, got %s", EventRecordCreated, events[0].Type)
	}

	// Low risk must not trigger the high-risk alert.
	select {
	case msg := <-client.send:
		t.Errorf("unexpected extra event: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifier_RecordCreated_HighRiskAlerts(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{hub: h, send: make(chan []byte, 256), sub: Subscription{AllEvents: true}}
	h.register <- client
	time.Sleep(50 * time.Millisecond)

	NewNotifier(h).RecordCreated(notifierRecord(fraud.RiskCritical))

	events := collectEvents(t, client, 2)
	types := map[EventType]bool{events[0].Type: true, events[1].Type: true}
	if !types[EventRecordCreated] || !types[EventHighRisk] {
		t.Errorf("expected record_created and high_risk, got %v", types)
	}
}

func TestNotifier_RecordBlocked(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{hub: h, send: make(chan []byte, 256), sub: Subscription{AllEvents: true}}
	h.register <- client
	time.Sleep(50 * time.Millisecond)

	rec := notifierRecord(fraud.RiskHigh)
	rec.IsBlocked = true
	rec.BlockReason = "velocity threshold exceeded"
	NewNotifier(h).RecordBlocked(rec)

	events := collectEvents(t, client, 1)
	if events[0].Type != EventTransactionBlocked {
		t.Errorf("expected %s, got %s", EventTransactionBlocked, events[0].Type)
	}
	data, ok := events[0].Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map payload, got %T", events[0].Data)
	}
	if data["blockReason"] != "velocity threshold exceeded" {
		t.Errorf("blockReason missing from payload: %v", data)
	}
}

func TestRecordPayload_FlatFilterableShape(t *testing.T) {
	rec := notifierRecord(fraud.RiskMedium)
	p := recordPayload(rec)

	if p["userId"] != "user-notify" {
		t.Errorf("userId = %v", p["userId"])
	}
	if p["riskLevel"] != "medium" {
		t.Errorf("riskLevel = %v", p["riskLevel"])
	}
	if _, present := p["blockReason"]; present {
		t.Error("blockReason should be omitted when empty")
	}
}

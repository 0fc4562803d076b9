package realtime

import (
	"github.com/avedra/fraudguard/internal/fraud"
)

// Notifier bridges fraud lifecycle events onto the hub.
type Notifier struct {
	hub *Hub
}

// NewNotifier wraps hub so the fraud service can publish events.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

var _ fraud.Notifier = (*Notifier)(nil)

// RecordCreated broadcasts a new fraud record to subscribers.
func (n *Notifier) RecordCreated(rec *fraud.Record) {
	n.hub.BroadcastRecordCreated(recordPayload(rec))
	if rec.RiskLevel == fraud.RiskHigh || rec.RiskLevel == fraud.RiskCritical {
		n.hub.Broadcast(&Event{
			Type:      EventHighRisk,
			Timestamp: rec.CreatedAt,
			Data:      recordPayload(rec),
		})
	}
}

// RecordBlocked broadcasts a block decision to subscribers.
func (n *Notifier) RecordBlocked(rec *fraud.Record) {
	n.hub.BroadcastTransactionBlocked(recordPayload(rec))
}

// recordPayload keeps the wire shape flat so subscription filters can
// match on userId and riskLevel without unmarshalling nested structs.
func recordPayload(rec *fraud.Record) map[string]interface{} {
	p := map[string]interface{}{
		"id":            rec.ID,
		"transactionId": rec.TransactionID,
		"userId":        rec.UserID,
		"riskLevel":     string(rec.RiskLevel),
		"isBlocked":     rec.IsBlocked,
	}
	if rec.BlockReason != "" {
		p["blockReason"] = rec.BlockReason
	}
	return p
}

package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/avedra/fraudguard/internal/idgen"
	"github.com/avedra/fraudguard/internal/metrics"
	"github.com/avedra/fraudguard/internal/traces"
)

// Notifier receives record lifecycle events (realtime feed, etc).
// All methods are best-effort and must not block.
type Notifier interface {
	RecordCreated(rec *Record)
	RecordBlocked(rec *Record)
}

// Service is the single place enforcing record invariants. It composes the
// risk engine with the store; a thin transport layer calls its operations.
//
// The service is stateless. It does no locking: concurrent Update/Block
// calls against the same id race at the store and the last writer wins.
type Service struct {
	store    Store
	engine   *Engine
	notifier Notifier
}

// NewService creates a fraud service on top of the given store and engine.
func NewService(store Store, engine *Engine) *Service {
	return &Service{store: store, engine: engine}
}

// WithNotifier attaches a lifecycle event sink.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// Create records a transaction check. When no risk level is supplied the
// engine assesses one from the user's history before the record is
// persisted. A partially initialised record is never written.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Record, error) {
	ctx, span := traces.StartSpan(ctx, "fraud.Create",
		traces.TransactionID(in.TransactionID))
	defer span.End()

	if err := validateCreate(in); err != nil {
		return nil, err
	}

	level := in.RiskLevel
	if level == "" {
		assessed, err := s.AssessRisk(ctx, &Candidate{
			TransactionID: in.TransactionID,
			UserIP:        in.UserIP,
			DeviceID:      in.DeviceID,
			UserID:        in.UserID,
		})
		if err != nil {
			return nil, err
		}
		level = assessed
	}

	now := time.Now()
	rec := &Record{
		ID:             idgen.New(),
		TransactionID:  in.TransactionID,
		UserIP:         in.UserIP,
		DeviceID:       in.DeviceID,
		UserID:         in.UserID,
		RiskLevel:      level,
		AdditionalData: in.AdditionalData,
		IsBlocked:      false,
		AttemptCount:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	metrics.RecordsCreatedTotal.Inc()
	if s.notifier != nil {
		s.notifier.RecordCreated(rec)
	}
	return rec, nil
}

// Get returns the record or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// GetByTransaction returns the latest-created record for a transaction id,
// or ErrNotFound. Creation time is the deterministic tie-break when retries
// produced several records for the same transaction.
func (s *Service) GetByTransaction(ctx context.Context, transactionID string) (*Record, error) {
	return s.store.GetByTransaction(ctx, transactionID)
}

// ListByUser returns all records for a user ordered by creation time
// descending. An empty slice is a normal outcome, not an error.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Record, error) {
	return s.store.ListByUser(ctx, userID)
}

// List returns one page of records ordered by creation time descending,
// plus the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]*Record, int, error) {
	return s.store.List(ctx, offset, limit)
}

// Update merges the patch onto the existing record and persists the result.
// Set patch fields overwrite, nil fields are untouched; a patch that would
// violate the block invariant is rejected before anything is written.
func (s *Service) Update(ctx context.Context, id string, patch *Patch) (*Record, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := patch.merge(existing)
	if err != nil {
		return nil, err
	}
	merged.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, merged); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return merged, nil
}

// Delete removes the record and reports whether one existed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// Block marks the transaction blocked with an audit reason. An empty reason
// is a caller error, checked before the lookup so it never masquerades as
// ErrNotFound. Blocking an already-blocked record overwrites the reason.
func (s *Service) Block(ctx context.Context, id, reason string) (*Record, error) {
	ctx, span := traces.StartSpan(ctx, "fraud.Block",
		traces.RecordID(id))
	defer span.End()

	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "must not be empty"}
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	blocked := *rec
	blocked.IsBlocked = true
	blocked.BlockReason = reason
	blocked.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, &blocked); err != nil {
		return nil, fmt.Errorf("block record: %w", err)
	}

	metrics.BlockedTransactionsTotal.Inc()
	if s.notifier != nil {
		s.notifier.RecordBlocked(&blocked)
	}
	return &blocked, nil
}

// AssessRisk classifies a candidate transaction without persisting
// anything. Safe to call repeatedly.
func (s *Service) AssessRisk(ctx context.Context, c *Candidate) (RiskLevel, error) {
	if c.UserID == "" {
		return "", &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if c.UserIP == "" {
		return "", &ValidationError{Field: "userIp", Message: "must not be empty"}
	}

	level, err := s.engine.AssessRisk(ctx, c)
	if err != nil {
		return "", err
	}

	metrics.FraudChecksTotal.WithLabelValues(string(level)).Inc()
	return level, nil
}

func validateCreate(in *CreateInput) error {
	if in.TransactionID == "" {
		return &ValidationError{Field: "transactionId", Message: "must not be empty"}
	}
	if in.UserIP == "" {
		return &ValidationError{Field: "userIp", Message: "must not be empty"}
	}
	if in.UserID == "" {
		return &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if in.RiskLevel != "" && !in.RiskLevel.Valid() {
		return &ValidationError{Field: "riskLevel", Message: "must be one of low, medium, high, critical"}
	}
	return nil
}

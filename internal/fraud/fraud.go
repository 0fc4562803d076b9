// Package fraud implements transaction fraud tracking for Fraudguard.
//
// Every checked transaction is persisted as a Record carrying a risk
// classification computed from the caller's recent behaviour. Operators can
// block a suspicious transaction with an audit reason; a block is permanent
// from this package's perspective, there is no unblock operation.
package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no record matches the requested id,
// transaction id, or user. Absence is a normal outcome callers branch on,
// not a failure.
var ErrNotFound = errors.New("fraud: record not found")

// ValidationError reports caller input that violates a precondition.
// It is surfaced to the caller and never retried.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fraud: invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RiskLevel classifies how suspicious a transaction looks.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Valid reports whether l is one of the four enumerated levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Severity returns the ordinal position of the level, low = 0.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Record is the persisted fraud state of one transaction.
//
// Invariants: IsBlocked implies a non-empty BlockReason; RiskLevel is always
// one of the four enumerated values; ID and CreatedAt never change after
// creation; AttemptCount never decreases through this package's mutation
// paths (it is caller-managed; nothing here increments it automatically).
type Record struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transactionId"`
	UserIP         string          `json:"userIp"`
	DeviceID       string          `json:"deviceId,omitempty"`
	UserID         string          `json:"userId"`
	RiskLevel      RiskLevel       `json:"riskLevel"`
	AdditionalData json.RawMessage `json:"additionalData,omitempty"`
	IsBlocked      bool            `json:"isBlocked"`
	BlockReason    string          `json:"blockReason,omitempty"`
	AttemptCount   int             `json:"attemptCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreateInput is the request body for recording a transaction check.
// RiskLevel is optional; when absent the engine assesses it at creation.
type CreateInput struct {
	TransactionID  string          `json:"transactionId" binding:"required"`
	UserIP         string          `json:"userIp" binding:"required"`
	DeviceID       string          `json:"deviceId"`
	UserID         string          `json:"userId" binding:"required"`
	RiskLevel      RiskLevel       `json:"riskLevel"`
	AdditionalData json.RawMessage `json:"additionalData"`
}

// Candidate describes a transaction to assess without persisting anything.
type Candidate struct {
	TransactionID string `json:"transactionId"`
	UserIP        string `json:"userIp" binding:"required"`
	DeviceID      string `json:"deviceId"`
	UserID        string `json:"userId" binding:"required"`
}

// Patch carries a partial update. Nil fields leave the existing value
// untouched; set fields overwrite it.
type Patch struct {
	TransactionID  *string         `json:"transactionId"`
	UserIP         *string         `json:"userIp"`
	DeviceID       *string         `json:"deviceId"`
	UserID         *string         `json:"userId"`
	RiskLevel      *RiskLevel      `json:"riskLevel"`
	AdditionalData json.RawMessage `json:"additionalData"`
	IsBlocked      *bool           `json:"isBlocked"`
	BlockReason    *string         `json:"blockReason"`
	AttemptCount   *int            `json:"attemptCount"`
}

// merge applies p onto a copy of rec and validates the result, so invariant
// checks live in one place. The input record is never mutated.
func (p *Patch) merge(rec *Record) (*Record, error) {
	out := *rec

	if p.TransactionID != nil {
		out.TransactionID = *p.TransactionID
	}
	if p.UserIP != nil {
		out.UserIP = *p.UserIP
	}
	if p.DeviceID != nil {
		out.DeviceID = *p.DeviceID
	}
	if p.UserID != nil {
		out.UserID = *p.UserID
	}
	if p.RiskLevel != nil {
		out.RiskLevel = *p.RiskLevel
	}
	if p.AdditionalData != nil {
		out.AdditionalData = p.AdditionalData
	}
	if p.IsBlocked != nil {
		out.IsBlocked = *p.IsBlocked
	}
	if p.BlockReason != nil {
		out.BlockReason = *p.BlockReason
	}
	if p.AttemptCount != nil {
		out.AttemptCount = *p.AttemptCount
	}

	if out.TransactionID == "" {
		return nil, &ValidationError{Field: "transactionId", Message: "must not be empty"}
	}
	if out.UserIP == "" {
		return nil, &ValidationError{Field: "userIp", Message: "must not be empty"}
	}
	if out.UserID == "" {
		return nil, &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if !out.RiskLevel.Valid() {
		return nil, &ValidationError{Field: "riskLevel", Message: "must be one of low, medium, high, critical"}
	}
	if out.IsBlocked && out.BlockReason == "" {
		return nil, &ValidationError{Field: "blockReason", Message: "required when isBlocked is true"}
	}
	if out.AttemptCount < rec.AttemptCount {
		return nil, &ValidationError{Field: "attemptCount", Message: "must not decrease"}
	}

	return &out, nil
}

// Store is the durable storage the fraud service reads and writes through.
// Implementations must be safe for concurrent use by multiple in-flight
// service calls. Concurrent updates of the same record are not serialised
// here; last writer wins.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// GetByTransaction returns the latest-created record for the transaction
	// id. Retries may create several records per transaction.
	GetByTransaction(ctx context.Context, transactionID string) (*Record, error)
	ListByUser(ctx context.Context, userID string) ([]*Record, error)
	// List returns a page of records ordered by creation time descending,
	// plus the total record count.
	List(ctx context.Context, offset, limit int) ([]*Record, int, error)
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) (bool, error)

	// CountByUserSince counts records for the user created at or after the
	// cutoff (velocity signal).
	CountByUserSince(ctx context.Context, userID string, cutoff time.Time) (int, error)
	// CountByUserIP counts records sharing both ip and user (fan-out signal).
	CountByUserIP(ctx context.Context, userIP, userID string) (int, error)
}

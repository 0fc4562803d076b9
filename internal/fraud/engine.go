package fraud

import (
	"context"
	"fmt"
	"time"
)

// Scoring thresholds. Evaluated highest to lowest.
const (
	scoreCritical = 50
	scoreHigh     = 30
	scoreMedium   = 15
)

// Signal contributions.
const (
	velocityWindow      = 24 * time.Hour
	velocityHighCount   = 10 // > 10 prior records in the window
	velocityMediumCount = 5  // > 5 prior records in the window
	velocityHighScore   = 30
	velocityMediumScore = 15

	fanoutCount = 3 // > 3 records sharing (ip, user)
	fanoutScore = 25
)

// Signal is one independent, additive contributor to the risk score.
// Signals only read from the store; adding one never changes the others.
type Signal func(ctx context.Context, store Store, c *Candidate, now time.Time) (int, error)

// Engine computes a risk classification for a candidate transaction from
// the user's recent history. It is read-only against the store and has no
// side effects, so repeated assessment of the same candidate against a
// stable history yields the same level.
type Engine struct {
	store   Store
	signals []Signal
}

// NewEngine creates a risk engine with the default velocity and ip-fanout
// signals.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:   store,
		signals: []Signal{velocitySignal, ipFanoutSignal},
	}
}

// WithSignal appends an extra signal. Contributions are summed, so new
// signals extend the engine without touching existing ones.
func (e *Engine) WithSignal(s Signal) *Engine {
	e.signals = append(e.signals, s)
	return e
}

// AssessRisk scores the candidate and maps the score to a level. The only
// failure mode is a store read error, which propagates unchanged.
func (e *Engine) AssessRisk(ctx context.Context, c *Candidate) (RiskLevel, error) {
	now := time.Now()

	score := 0
	for _, signal := range e.signals {
		n, err := signal(ctx, e.store, c, now)
		if err != nil {
			return "", fmt.Errorf("assess risk: %w", err)
		}
		score += n
	}

	return classify(score), nil
}

// classify maps an accumulated score to a risk level, highest bound first.
func classify(score int) RiskLevel {
	switch {
	case score >= scoreCritical:
		return RiskCritical
	case score >= scoreHigh:
		return RiskHigh
	case score >= scoreMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// velocitySignal scores how many records the user accumulated in the
// trailing 24 hours. The window is a createdAt >= cutoff range, relative to
// evaluation time.
func velocitySignal(ctx context.Context, store Store, c *Candidate, now time.Time) (int, error) {
	count, err := store.CountByUserSince(ctx, c.UserID, now.Add(-velocityWindow))
	if err != nil {
		return 0, err
	}
	switch {
	case count > velocityHighCount:
		return velocityHighScore, nil
	case count > velocityMediumCount:
		return velocityMediumScore, nil
	default:
		return 0, nil
	}
}

// ipFanoutSignal scores repeated activity from the same (ip, user) pair.
func ipFanoutSignal(ctx context.Context, store Store, c *Candidate, _ time.Time) (int, error) {
	count, err := store.CountByUserIP(ctx, c.UserIP, c.UserID)
	if err != nil {
		return 0, err
	}
	if count > fanoutCount {
		return fanoutScore, nil
	}
	return 0, nil
}

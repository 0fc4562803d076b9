package fraud

import (
	"testing"
	"time"
)

func TestRiskLevelValid(t *testing.T) {
	valid := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for _, l := range valid {
		if !l.Valid() {
			t.Errorf("%s should be valid", l)
		}
	}
	for _, l := range []RiskLevel{"", "LOW", "extreme", "med"} {
		if l.Valid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestRiskLevelSeverityOrder(t *testing.T) {
	ordered := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Severity() <= ordered[i-1].Severity() {
			t.Errorf("severity of %s must exceed %s", ordered[i], ordered[i-1])
		}
	}
}

func baseRecord() *Record {
	now := time.Now()
	return &Record{
		ID:            "rec-1",
		TransactionID: "tx-1",
		UserIP:        "203.0.113.1",
		UserID:        "user-1",
		RiskLevel:     RiskLow,
		AttemptCount:  1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPatchMerge_EmptyPatchKeepsRecord(t *testing.T) {
	rec := baseRecord()
	out, err := (&Patch{}).merge(rec)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.TransactionID != rec.TransactionID || out.UserIP != rec.UserIP ||
		out.UserID != rec.UserID || out.RiskLevel != rec.RiskLevel ||
		out.IsBlocked != rec.IsBlocked || out.AttemptCount != rec.AttemptCount {
		t.Errorf("empty patch changed the record: %+v", out)
	}
}

func TestPatchMerge_DoesNotMutateInput(t *testing.T) {
	rec := baseRecord()
	level := RiskCritical
	if _, err := (&Patch{RiskLevel: &level}).merge(rec); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if rec.RiskLevel != RiskLow {
		t.Error("merge mutated its input record")
	}
}

func TestPatchMerge_Rejections(t *testing.T) {
	empty := ""
	bad := RiskLevel("extreme")
	blocked := true
	zero := 0

	tests := []struct {
		name  string
		patch Patch
	}{
		{"empty transactionId", Patch{TransactionID: &empty}},
		{"empty userIp", Patch{UserIP: &empty}},
		{"empty userId", Patch{UserID: &empty}},
		{"invalid riskLevel", Patch{RiskLevel: &bad}},
		{"blocked without reason", Patch{IsBlocked: &blocked}},
		{"attemptCount decrease", Patch{AttemptCount: &zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.patch.merge(baseRecord())
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPatchMerge_BlockWithReason(t *testing.T) {
	blocked := true
	reason := "manual review"
	out, err := (&Patch{IsBlocked: &blocked, BlockReason: &reason}).merge(baseRecord())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !out.IsBlocked || out.BlockReason != "manual review" {
		t.Errorf("block patch not applied: %+v", out)
	}
}

package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// ---------------------------------------------------------------------------
// Test router setup
// ---------------------------------------------------------------------------

func setupHandlerTestRouter() (*gin.Engine, *Service) {
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	svc := NewService(store, NewEngine(store))
	handler := NewHandler(svc)

	r := gin.New()
	v1 := r.Group("/v1")
	handler.RegisterRoutes(v1)

	admin := v1.Group("/admin")
	handler.RegisterAdminRoutes(admin)

	return r, svc
}

func createTestRecord(t *testing.T, svc *Service) *Record {
	t.Helper()
	rec, err := svc.Create(context.Background(), &CreateInput{
		TransactionID: "tx-1",
		UserIP:        "203.0.113.1",
		UserID:        "user-1",
	})
	if err != nil {
		t.Fatalf("create test record: %v", err)
	}
	return rec
}

// ---------------------------------------------------------------------------
// POST /v1/fraud-records
// ---------------------------------------------------------------------------

func TestHandler_CreateRecord_201(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	body := `{"transactionId":"tx-1","userIp":"203.0.113.1","userId":"user-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/fraud-records", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Record struct {
			ID        string `json:"id"`
			RiskLevel string `json:"riskLevel"`
			IsBlocked bool   `json:"isBlocked"`
		} `json:"record"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Record.ID == "" {
		t.Error("Expected generated id")
	}
	if resp.Record.RiskLevel != "low" {
		t.Errorf("Expected riskLevel low, got %s", resp.Record.RiskLevel)
	}
	if resp.Record.IsBlocked {
		t.Error("New record must not be blocked")
	}
}

func TestHandler_CreateRecord_MissingFields_400(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	body := `{"transactionId":"tx-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/fraud-records", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestHandler_CreateRecord_BadIP_400(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	body := `{"transactionId":"tx-1","userIp":"not-an-ip","userId":"user-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/fraud-records", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid ip, got %d: %s", w.Code, w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// GET /v1/fraud-records/:id
// ---------------------------------------------------------------------------

func TestHandler_GetRecord_200(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	rec := createTestRecord(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/fraud-records/"+rec.ID, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandler_GetRecord_404(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/fraud-records/missing", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "not_found" {
		t.Errorf("Expected error code not_found, got %v", resp["error"])
	}
}

// ---------------------------------------------------------------------------
// GET /v1/fraud-records (pagination envelope)
// ---------------------------------------------------------------------------

func TestHandler_ListRecords_Envelope(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	for i := 0; i < 15; i++ {
		_, err := svc.Create(context.Background(), &CreateInput{
			TransactionID: "tx-list",
			UserIP:        "203.0.113.1",
			UserID:        "user-list",
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/fraud-records?page=2&limit=10", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data  []json.RawMessage `json:"data"`
		Total int               `json:"total"`
		Page  int               `json:"page"`
		Pages int               `json:"pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Total != 15 {
		t.Errorf("Expected total 15, got %d", resp.Total)
	}
	if resp.Page != 2 {
		t.Errorf("Expected page 2, got %d", resp.Page)
	}
	if resp.Pages != 2 {
		t.Errorf("Expected 2 pages, got %d", resp.Pages)
	}
	if len(resp.Data) != 5 {
		t.Errorf("Expected 5 records on page 2, got %d", len(resp.Data))
	}
}

// ---------------------------------------------------------------------------
// GET /v1/fraud-records/transaction/:transactionId
// ---------------------------------------------------------------------------

func TestHandler_GetByTransaction(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	createTestRecord(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/fraud-records/transaction/tx-1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/fraud-records/transaction/unknown", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown transaction, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /v1/fraud-records/user/:userId
// ---------------------------------------------------------------------------

func TestHandler_ListByUser(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	createTestRecord(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/fraud-records/user/user-1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Records []json.RawMessage `json:"records"`
		Count   int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 1 || len(resp.Records) != 1 {
		t.Errorf("Expected one record, got count=%d len=%d", resp.Count, len(resp.Records))
	}

	// Unknown user is an empty list, not a 404.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/fraud-records/user/nobody", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unknown user, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// PUT /v1/fraud-records/:id
// ---------------------------------------------------------------------------

func TestHandler_UpdateRecord(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	rec := createTestRecord(t, svc)

	body := `{"riskLevel":"high","attemptCount":2}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/v1/fraud-records/"+rec.ID, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Record struct {
			RiskLevel    string `json:"riskLevel"`
			AttemptCount int    `json:"attemptCount"`
		} `json:"record"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Record.RiskLevel != "high" || resp.Record.AttemptCount != 2 {
		t.Errorf("Patch not applied: %+v", resp.Record)
	}
}

func TestHandler_UpdateRecord_InvalidPatch_400(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	rec := createTestRecord(t, svc)

	// isBlocked without a reason violates the block invariant.
	body := `{"isBlocked":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/v1/fraud-records/"+rec.ID, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// POST /v1/fraud-records/:id/block
// ---------------------------------------------------------------------------

func TestHandler_BlockTransaction(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	rec := createTestRecord(t, svc)

	body := `{"reason":"chargeback fraud"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/fraud-records/"+rec.ID+"/block", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Record struct {
			IsBlocked   bool   `json:"isBlocked"`
			BlockReason string `json:"blockReason"`
		} `json:"record"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Record.IsBlocked || resp.Record.BlockReason != "chargeback fraud" {
		t.Errorf("Block not applied: %+v", resp.Record)
	}
}

func TestHandler_BlockTransaction_EmptyReason_400(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	rec := createTestRecord(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/fraud-records/"+rec.ID+"/block", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandler_BlockTransaction_404(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	body := `{"reason":"some reason"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/fraud-records/missing/block", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// DELETE /v1/admin/fraud-records/:id
// ---------------------------------------------------------------------------

func TestHandler_DeleteRecord(t *testing.T) {
	router, svc := setupHandlerTestRouter()
	rec := createTestRecord(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/v1/admin/fraud-records/"+rec.ID, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/v1/admin/fraud-records/"+rec.ID, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 on second delete, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /v1/risk/assess
// ---------------------------------------------------------------------------

func TestHandler_AssessRisk(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	body := `{"userIp":"203.0.113.1","userId":"user-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/risk/assess", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["riskLevel"] != "low" {
		t.Errorf("Expected riskLevel low, got %q", resp["riskLevel"])
	}
}

func TestHandler_AssessRisk_MissingFields_400(t *testing.T) {
	router, _ := setupHandlerTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/risk/assess", bytes.NewBufferString(`{"userId":"user-1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

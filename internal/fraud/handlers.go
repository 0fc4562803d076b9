package fraud

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avedra/fraudguard/internal/pagination"
	"github.com/avedra/fraudguard/internal/validation"
)

// Handler provides HTTP endpoints for fraud record operations. It only maps
// service outcomes to status codes: not found → 404, validation → 400,
// persistence failure → 500.
type Handler struct {
	service *Service
}

// NewHandler creates a new fraud handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the fraud record routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/fraud-records", h.ListRecords)
	r.POST("/fraud-records", h.CreateRecord)
	r.GET("/fraud-records/:id", h.GetRecord)
	r.PUT("/fraud-records/:id", h.UpdateRecord)
	r.GET("/fraud-records/transaction/:transactionId", h.GetByTransaction)
	r.GET("/fraud-records/user/:userId", h.ListByUser)
	r.POST("/fraud-records/:id/block", h.BlockTransaction)
	r.POST("/risk/assess", h.AssessRisk)
}

// RegisterAdminRoutes sets up admin-only routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.DELETE("/fraud-records/:id", h.DeleteRecord)
}

// ListRecords handles GET /v1/fraud-records
func (h *Handler) ListRecords(c *gin.Context) {
	page, limit := pagination.Params(c.Query("page"), c.Query("limit"))

	recs, total, err := h.service.List(c.Request.Context(), pagination.Offset(page, limit), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewPage(recs, total, page, limit))
}

// CreateRecord handles POST /v1/fraud-records
func (h *Handler) CreateRecord(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "transactionId, userIp and userId are required",
		})
		return
	}

	if !validation.IsValidIP(in.UserIP) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "userIp must be a valid IPv4 or IPv6 address",
		})
		return
	}
	in.UserID = validation.SanitizeString(in.UserID, validation.MaxStringLength)
	in.TransactionID = validation.SanitizeString(in.TransactionID, validation.MaxStringLength)

	rec, err := h.service.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": rec})
}

// GetRecord handles GET /v1/fraud-records/:id
func (h *Handler) GetRecord(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// GetByTransaction handles GET /v1/fraud-records/transaction/:transactionId
func (h *Handler) GetByTransaction(c *gin.Context) {
	rec, err := h.service.GetByTransaction(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// ListByUser handles GET /v1/fraud-records/user/:userId
func (h *Handler) ListByUser(c *gin.Context) {
	recs, err := h.service.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": recs,
		"count":   len(recs),
	})
}

// UpdateRecord handles PUT /v1/fraud-records/:id
func (h *Handler) UpdateRecord(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "malformed patch body",
		})
		return
	}

	rec, err := h.service.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// DeleteRecord handles DELETE /v1/fraud-records/:id
func (h *Handler) DeleteRecord(c *gin.Context) {
	existed, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No fraud record with that id",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// BlockTransaction handles POST /v1/fraud-records/:id/block
func (h *Handler) BlockTransaction(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	rec, err := h.service.Block(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// AssessRisk handles POST /v1/risk/assess
func (h *Handler) AssessRisk(c *gin.Context) {
	var cand Candidate
	if err := c.ShouldBindJSON(&cand); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "userIp and userId are required",
		})
		return
	}

	level, err := h.service.AssessRisk(c.Request.Context(), &cand)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"riskLevel": level})
}

// respondError maps the service's three-way outcome split onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No fraud record matched the request",
		})
	case IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}

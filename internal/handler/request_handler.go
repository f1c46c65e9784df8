package handler

import (
	"io"
	"net/http"

	"procureflow/internal/middleware"
	"procureflow/internal/model"
	"procureflow/internal/service"
	"procureflow/internal/storage"
	"procureflow/pkg/pagination"
	"procureflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	workflow service.WorkflowService
	receipts service.ReceiptService
	audits   service.AuditService
	store    storage.FileStore
}

func NewRequestHandler(workflow service.WorkflowService, receipts service.ReceiptService, audits service.AuditService, store storage.FileStore) *RequestHandler {
	return &RequestHandler{workflow: workflow, receipts: receipts, audits: audits, store: store}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	requests.Use(middleware.RequireAuth())
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PATCH("/:id", h.UpdateRequest)
		requests.PATCH("/:id/approve", middleware.RequireRole(model.RoleApproverL1, model.RoleApproverL2), h.Approve)
		requests.PATCH("/:id/reject", middleware.RequireRole(model.RoleApproverL1, model.RoleApproverL2), h.Reject)
		requests.POST("/:id/receipt", h.SubmitReceipt)
		requests.GET("/:id/purchase-order", h.GetPurchaseOrder)
		requests.GET("/:id/audit", h.GetAuditTrail)
	}
}

// actorID extracts the authenticated user's id set by the auth middleware.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	raw, _ := c.Get("userID")
	s, _ := raw.(string)
	id, err := uuid.Parse(s)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return uuid.Nil, false
	}
	return id, true
}

func requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Unknown request id"))
		return uuid.Nil, false
	}
	return id, true
}

// CreateRequest submits a new purchase request
// @Summary      Create purchase request
// @Description  Creates a pending purchase request owned by the authenticated staff user. Documents may be uploaded as multipart files or passed as stored references.
// @Tags         requests
// @Security     BearerAuth
// @Accept       mpfd
// @Produce      json
// @Success      201  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var dto service.CreateRequestDTO
	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		if !h.bindMultipartCreate(c, &dto) {
			return
		}
	} else if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.CreateRequest(c.Request.Context(), actor, dto)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// bindMultipartCreate reads form fields and stores any uploaded documents,
// replacing them with file store references before the service sees them.
func (h *RequestHandler) bindMultipartCreate(c *gin.Context, dto *service.CreateRequestDTO) bool {
	dto.Title = c.PostForm("title")
	dto.Description = c.PostForm("description")
	dto.Amount = c.PostForm("amount")
	dto.Urgency = c.PostForm("urgency")
	dto.VendorName = c.PostForm("vendor_name")
	dto.VendorContact = c.PostForm("vendor_contact")
	dto.VendorAddress = c.PostForm("vendor_address")
	dto.RequestedDeliveryDate = c.PostForm("requested_delivery_date")
	dto.CostCenter = c.PostForm("cost_center")
	dto.GLAccount = c.PostForm("gl_account")
	dto.BudgetCode = c.PostForm("budget_code")
	dto.ProjectCode = c.PostForm("project_code")
	dto.BusinessJustification = c.PostForm("business_justification")

	uploads := map[string]*string{
		"proforma":             &dto.Proforma,
		"quotation_comparison": &dto.QuotationComparison,
		"specification_sheet":  &dto.SpecificationSheet,
	}
	for field, target := range uploads {
		ref, ok := h.saveUpload(c, field)
		if !ok {
			return false
		}
		*target = ref
	}
	return true
}

// saveUpload stores one optional multipart file and returns its reference.
func (h *RequestHandler) saveUpload(c *gin.Context, field string) (string, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", true // field absent
	}
	if err := storage.ValidateUpload(file.Filename, file.Size); err != nil {
		c.JSON(response.FromError(err))
		return "", false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
		return "", false
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
		return "", false
	}

	ref, err := h.store.Save(field+"s", file.Filename, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to store document"))
		return "", false
	}
	return ref, true
}

// ListRequests returns requests visible to the acting user
// @Summary      List purchase requests
// @Description  Role-scoped listing: staff see their own, approvers see all, finance sees approved and paid requests.
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status   query  string  false  "Filter by status"
// @Param        urgency  query  string  false  "Filter by urgency"
// @Param        page     query  int     false  "Page number (default 1)"
// @Param        limit    query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	filter := service.ListRequestsFilter{
		Status:  c.Query("status"),
		Urgency: c.Query("urgency"),
		Page:    params.Page,
		Limit:   params.Limit,
	}

	requests, total, err := h.workflow.ListRequests(c.Request.Context(), actor, filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"meta":     params.Meta(total),
	}))
}

// GetRequest returns a single request read model
// @Summary      Get purchase request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	result, err := h.workflow.GetRequest(c.Request.Context(), id, actor)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateRequest applies a partial patch to a pending request
// @Summary      Update purchase request
// @Description  Creator-only partial update while the request is pending. Empty fields are left untouched.
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Request ID"
// @Param        payload  body  service.UpdateRequestDTO   true  "Partial patch"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id} [patch]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var patch service.UpdateRequestDTO
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.UpdateRequest(c.Request.Context(), id, actor, patch)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

type decisionDTO struct {
	Comments string `json:"comments"`
}

// Approve records an approval decision
// @Summary      Approve purchase request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true   "Request ID"
// @Param        payload  body  decisionDTO  false  "Optional comments"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/approve [patch]
func (h *RequestHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

// Reject records a rejection decision, comments required
// @Summary      Reject purchase request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true  "Request ID"
// @Param        payload  body  decisionDTO  true  "Rejection comments"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/reject [patch]
func (h *RequestHandler) Reject(c *gin.Context) {
	h.decide(c, false)
}

func (h *RequestHandler) decide(c *gin.Context, approve bool) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var dto decisionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		// empty body is allowed, comments are optional on approval
		dto.Comments = ""
	}

	var result *service.RequestResponse
	var err error
	if approve {
		result, err = h.workflow.Approve(c.Request.Context(), id, actor, dto.Comments)
	} else {
		result, err = h.workflow.Reject(c.Request.Context(), id, actor, dto.Comments)
	}
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// SubmitReceipt uploads and reconciles a receipt for an approved request
// @Summary      Submit receipt
// @Description  Creator-only, once per request. The receipt is reconciled against the purchase order; the discrepancy report is returned alongside the updated request.
// @Tags         requests
// @Security     BearerAuth
// @Accept       mpfd
// @Produce      json
// @Param        id       path      string  true  "Request ID"
// @Param        receipt  formData  file    true  "Receipt document"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/receipt [post]
func (h *RequestHandler) SubmitReceipt(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Receipt file is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
		return
	}

	result, report, err := h.receipts.SubmitReceipt(c.Request.Context(), id, actor, file.Filename, content)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"request":    result,
		"validation": report,
	}))
}

// GetPurchaseOrder returns the generated PO for an approved request
// @Summary      Get purchase order
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/purchase-order [get]
func (h *RequestHandler) GetPurchaseOrder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	result, err := h.workflow.GetPurchaseOrder(c.Request.Context(), id, actor)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetAuditTrail returns the audit history of one request
// @Summary      Get request audit trail
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Router       /api/requests/{id}/audit [get]
func (h *RequestHandler) GetAuditTrail(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	// visibility follows the request itself
	if _, err := h.workflow.GetRequest(c.Request.Context(), id, actor); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	trail, err := h.audits.GetTrail(c.Request.Context(), id.String())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, trail))
}

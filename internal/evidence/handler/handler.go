// Package handler exposes the evidence receipt endpoints. Photos are
// uploaded with a presign/confirm flow: the client asks for a presigned
// PUT URL, uploads directly to object storage, then confirms the upload
// so a receipt row is recorded. The receipt ID is the opaque token a
// transition request presents as photo evidence.
package handler

import (
	"context"
	"net/http"

	"repairdesk_backend/internal/adapters/storage"
	"repairdesk_backend/internal/evidence/repository"
	"repairdesk_backend/internal/evidence/transport"
	"repairdesk_backend/platform/httpkit"
	"repairdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Store is the receipt persistence surface the handler needs.
type Store interface {
	OrderExists(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreateReceipt(ctx context.Context, p repository.CreateReceiptParams) (repository.Receipt, error)
	GetByID(ctx context.Context, id, orderID uuid.UUID) (repository.Receipt, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]repository.Receipt, error)
	Delete(ctx context.Context, id, orderID uuid.UUID) error
}

// Handler handles HTTP requests for evidence receipts
type Handler struct {
	repo    Store
	storage storage.ObjectStore
	bucket  string
	val     *validator.Validator
}

// New creates a new evidence handler
func New(repo Store, objectStore storage.ObjectStore, bucket string, val *validator.Validator) *Handler {
	return &Handler{repo: repo, storage: objectStore, bucket: bucket, val: val}
}

// RegisterRoutes registers the evidence routes under /orders/:id/evidence
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/presign", h.PresignUpload)
	rg.POST("", h.ConfirmReceipt)
	rg.GET("", h.ListReceipts)
	rg.GET("/:receiptId/download", h.DownloadURL)
	rg.DELETE("/:receiptId", h.DeleteReceipt)
}

// PresignUpload handles POST /api/v1/orders/:id/evidence/presign
func (h *Handler) PresignUpload(c *gin.Context) {
	orderID, ok := h.parseOrder(c)
	if !ok {
		return
	}

	var req transport.PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.storage.ValidateContentType(req.ContentType); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file type not allowed", nil)
		return
	}
	if err := h.storage.ValidateFileSize(req.SizeBytes); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	presigned, err := h.storage.GenerateUploadURL(c.Request.Context(), h.bucket, orderID.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate upload URL", nil)
		return
	}

	httpkit.OK(c, transport.PresignedUploadResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt.Unix(),
	})
}

// ConfirmReceipt handles POST /api/v1/orders/:id/evidence
func (h *Handler) ConfirmReceipt(c *gin.Context) {
	orderID, ok := h.parseOrder(c)
	if !ok {
		return
	}

	var req transport.ConfirmReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	receipt, err := h.repo.CreateReceipt(c.Request.Context(), repository.CreateReceiptParams{
		OrderID:     orderID,
		FileKey:     req.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  req.UploadedBy,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toReceiptResponse(receipt))
}

// ListReceipts handles GET /api/v1/orders/:id/evidence
func (h *Handler) ListReceipts(c *gin.Context) {
	orderID, ok := h.parseOrder(c)
	if !ok {
		return
	}

	receipts, err := h.repo.ListByOrder(c.Request.Context(), orderID)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ReceiptResponse, len(receipts))
	for i, receipt := range receipts {
		items[i] = toReceiptResponse(receipt)
	}

	httpkit.OK(c, transport.ReceiptListResponse{Items: items})
}

// DownloadURL handles GET /api/v1/orders/:id/evidence/:receiptId/download
func (h *Handler) DownloadURL(c *gin.Context) {
	orderID, ok := h.parseOrder(c)
	if !ok {
		return
	}
	receiptID, err := uuid.Parse(c.Param("receiptId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	receipt, err := h.repo.GetByID(c.Request.Context(), receiptID, orderID)
	if httpkit.HandleError(c, err) {
		return
	}

	presigned, err := h.storage.GenerateDownloadURL(c.Request.Context(), h.bucket, receipt.FileKey)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate download URL", nil)
		return
	}

	httpkit.OK(c, transport.PresignedDownloadResponse{
		DownloadURL: presigned.URL,
		ExpiresAt:   presigned.ExpiresAt.Unix(),
	})
}

// DeleteReceipt handles DELETE /api/v1/orders/:id/evidence/:receiptId
func (h *Handler) DeleteReceipt(c *gin.Context) {
	orderID, ok := h.parseOrder(c)
	if !ok {
		return
	}
	receiptID, err := uuid.Parse(c.Param("receiptId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	receipt, err := h.repo.GetByID(c.Request.Context(), receiptID, orderID)
	if httpkit.HandleError(c, err) {
		return
	}

	if err := h.storage.DeleteObject(c.Request.Context(), h.bucket, receipt.FileKey); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to delete file from storage", nil)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), receiptID, orderID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}

// parseOrder extracts the order ID from the path and verifies the order
// exists before any storage work happens.
func (h *Handler) parseOrder(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}

	exists, err := h.repo.OrderExists(c.Request.Context(), orderID)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to look up order", nil)
		return uuid.UUID{}, false
	}
	if !exists {
		httpkit.Error(c, http.StatusNotFound, "order not found", nil)
		return uuid.UUID{}, false
	}
	return orderID, true
}

func toReceiptResponse(r repository.Receipt) transport.ReceiptResponse {
	return transport.ReceiptResponse{
		ID:          r.ID,
		OrderID:     r.OrderID,
		FileKey:     r.FileKey,
		FileName:    r.FileName,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
		UploadedBy:  r.UploadedBy,
		CreatedAt:   r.CreatedAt,
	}
}

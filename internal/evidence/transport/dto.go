package transport

import (
	"time"

	"github.com/google/uuid"
)

// PresignedUploadRequest asks for a presigned PUT URL for one photo.
type PresignedUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// PresignedUploadResponse carries the upload URL and the key the client
// must echo back when confirming the receipt.
type PresignedUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ConfirmReceiptRequest records a receipt after the client finished the
// presigned upload.
type ConfirmReceiptRequest struct {
	FileKey     string     `json:"fileKey" validate:"required"`
	FileName    string     `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string     `json:"contentType" validate:"required"`
	SizeBytes   int64      `json:"sizeBytes" validate:"required,gt=0"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
}

// ReceiptResponse is one stored evidence receipt. The ID is the opaque
// token referenced by transition requests.
type ReceiptResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"orderId"`
	FileKey     string     `json:"fileKey"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ReceiptListResponse wraps the receipts of one order.
type ReceiptListResponse struct {
	Items []ReceiptResponse `json:"items"`
}

// PresignedDownloadResponse carries a short-lived download URL.
type PresignedDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresAt   int64  `json:"expiresAt"`
}

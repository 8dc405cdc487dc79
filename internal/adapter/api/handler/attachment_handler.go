package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tailorchat/internal/infrastructure/storage"
	"tailorchat/internal/usecase"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/logger"
	"tailorchat/pkg/response"
)

type AttachmentHandler struct {
	attachmentUseCase *usecase.AttachmentUseCase
}

func NewAttachmentHandler(attachmentUseCase *usecase.AttachmentUseCase) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentUseCase: attachmentUseCase,
	}
}

type batchItemResponse struct {
	FileName   string                   `json:"file_name"`
	Attachment *usecase.AttachmentResult `json:"result,omitempty"`
	Error      *response.ErrorInfo      `json:"error,omitempty"`
}

// UploadAttachments accepts multipart field "files". Files beyond the batch limit
// are reported as dropped; each accepted file succeeds or fails on its own.
func (h *AttachmentHandler) UploadAttachments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		logger.Error("Error reading multipart form: %v", err)
		return response.Error(c, errors.BadRequest("Missing or invalid multipart form", err))
	}
	defer form.RemoveAll()

	headers := form.File["files"]
	if len(headers) == 0 {
		return response.Error(c, errors.BadRequest("At least one file is required", nil))
	}

	files := make([]usecase.UploadFile, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return response.Error(c, errors.Internal("Unable to read file", err))
		}
		defer src.Close()
		files = append(files, usecase.UploadFile{Filename: fh.Filename, Size: fh.Size, Content: src})
	}
	logger.Debug("Received %d file(s) for conversation %s", len(files), c.Param("id"))

	result, err := h.attachmentUseCase.UploadBatch(c.Request().Context(), currentUserID(c), c.Param("id"), files)
	if err != nil {
		return response.Error(c, err)
	}

	items := make([]batchItemResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = batchItemResponse{FileName: item.FileName, Attachment: item.Result}
		if item.Err != nil {
			items[i].Error = errorInfo(item.Err)
		}
	}

	return response.Created(c, map[string]interface{}{
		"items":   items,
		"dropped": result.Dropped,
	})
}

func (h *AttachmentHandler) ListAttachments(c echo.Context) error {
	files, err := h.attachmentUseCase.ListAttachments(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, files)
}

func errorInfo(err error) *response.ErrorInfo {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return &response.ErrorInfo{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}
	return &response.ErrorInfo{Code: errors.CodeInternal, Message: "An unexpected error occurred"}
}

// MemoryFileHandler serves objects of the in-process store under /files/*. It is
// only routed when no bucket is configured.
type MemoryFileHandler struct {
	store *storage.MemoryStore
}

func NewMemoryFileHandler(store *storage.MemoryStore) *MemoryFileHandler {
	return &MemoryFileHandler{store: store}
}

func (h *MemoryFileHandler) ServeFile(c echo.Context) error {
	data, contentType, ok := h.store.Get(c.Param("*"))
	if !ok {
		return response.Error(c, errors.NotFound("File", nil))
	}
	return c.Blob(http.StatusOK, contentType, data)
}

package usecase

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/internal/domain/service"
	"tailorchat/internal/infrastructure/ratelimit"
	"tailorchat/pkg/errors"
)

const (
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultMaxFiles       = 5

	sniffLen        = 3072
	uploadWorkers   = 3
	cleanupDeadline = 10 * time.Second
)

// allowedTypes maps each accepted extension to the content types its bytes may sniff as.
var allowedTypes = map[string][]string{
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".gif":  {"image/gif"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".txt":  {"text/plain"},
}

// UploadFile is one file offered for upload.
type UploadFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// AttachmentResult is a stored attachment and the message that carries it.
type AttachmentResult struct {
	Attachment *entity.FileMetadata `json:"attachment"`
	Message    *entity.Message      `json:"message"`
}

// BatchItem is the outcome of one file of a batch upload.
type BatchItem struct {
	FileName string            `json:"file_name"`
	Result   *AttachmentResult `json:"result,omitempty"`
	Err      error             `json:"-"`
}

type BatchResult struct {
	Items   []BatchItem `json:"items"`
	Dropped []string    `json:"dropped"`
}

type AttachmentUseCase struct {
	storage     service.FileUploadService
	fileRepo    repository.FileMetadataRepository
	convRepo    repository.ConversationRepository
	messages    *MessageUseCase
	rateLimiter *ratelimit.RateLimiter
	maxBytes    int64
	maxFiles    int
}

func NewAttachmentUseCase(
	storage service.FileUploadService,
	fileRepo repository.FileMetadataRepository,
	convRepo repository.ConversationRepository,
	messages *MessageUseCase,
	rateLimiter *ratelimit.RateLimiter,
	maxBytes int64,
	maxFiles int,
) *AttachmentUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &AttachmentUseCase{
		storage:     storage,
		fileRepo:    fileRepo,
		convRepo:    convRepo,
		messages:    messages,
		rateLimiter: rateLimiter,
		maxBytes:    maxBytes,
		maxFiles:    maxFiles,
	}
}

// Validate checks the declared size and the file extension.
func (uc *AttachmentUseCase) Validate(file UploadFile) error {
	if file.Size <= 0 {
		return errors.UploadRejected(errors.ReasonEmpty)
	}
	if file.Size > uc.maxBytes {
		return errors.UploadRejected(errors.ReasonTooLarge)
	}
	if _, ok := allowedTypes[strings.ToLower(filepath.Ext(file.Filename))]; !ok {
		return errors.UploadRejected(errors.ReasonTypeNotAllowed)
	}
	return nil
}

// SelectBatch keeps the first maxFiles files. The rest are dropped, not queued.
func (uc *AttachmentUseCase) SelectBatch(files []UploadFile) ([]UploadFile, []UploadFile) {
	if len(files) <= uc.maxFiles {
		return files, nil
	}
	return files[:uc.maxFiles], files[uc.maxFiles:]
}

// sniff validates the file and returns its content type together with a reader
// that replays the sniffed bytes.
func (uc *AttachmentUseCase) sniff(file UploadFile) (string, io.Reader, error) {
	if err := uc.Validate(file); err != nil {
		return "", nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, errors.UploadFailed(err)
	}
	head = head[:n]
	if n == 0 {
		return "", nil, errors.UploadRejected(errors.ReasonEmpty)
	}

	detected := mimetype.Detect(head)
	if !matchesExtension(detected, strings.ToLower(filepath.Ext(file.Filename))) {
		log.Printf("UploadAttachment Rejected: %s sniffed as %s", file.Filename, detected.String())
		return "", nil, errors.UploadRejected(errors.ReasonTypeNotAllowed)
	}

	contentType := detected.String()
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return contentType, io.MultiReader(bytes.NewReader(head), file.Content), nil
}

func matchesExtension(detected *mimetype.MIME, ext string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range allowedTypes[ext] {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

// Upload stores one file and appends the message that references it. A failure at
// any step after the object was stored removes it again.
func (uc *AttachmentUseCase) Upload(ctx context.Context, actorID, conversationID string, file UploadFile) (*AttachmentResult, error) {
	if err := uc.authorize(ctx, actorID, conversationID); err != nil {
		return nil, err
	}

	meta, err := uc.store(ctx, actorID, conversationID, file)
	if err != nil {
		return nil, err
	}
	return uc.publish(ctx, actorID, meta)
}

// UploadBatch uploads up to maxFiles files in parallel and appends their messages in
// input order.
func (uc *AttachmentUseCase) UploadBatch(ctx context.Context, actorID, conversationID string, files []UploadFile) (*BatchResult, error) {
	if err := uc.authorize(ctx, actorID, conversationID); err != nil {
		return nil, err
	}

	accepted, dropped := uc.SelectBatch(files)
	result := &BatchResult{
		Items:   make([]BatchItem, len(accepted)),
		Dropped: make([]string, 0, len(dropped)),
	}
	for _, f := range dropped {
		result.Dropped = append(result.Dropped, f.Filename)
	}

	stored := make([]*entity.FileMetadata, len(accepted))
	var g errgroup.Group
	g.SetLimit(uploadWorkers)
	for i, file := range accepted {
		i, file := i, file
		result.Items[i].FileName = file.Filename
		g.Go(func() error {
			meta, err := uc.store(ctx, actorID, conversationID, file)
			stored[i], result.Items[i].Err = meta, err
			return nil
		})
	}
	g.Wait()

	for i, meta := range stored {
		if meta == nil {
			continue
		}
		res, err := uc.publish(ctx, actorID, meta)
		result.Items[i].Result, result.Items[i].Err = res, err
	}
	return result, nil
}

func (uc *AttachmentUseCase) authorize(ctx context.Context, actorID, conversationID string) error {
	if uc.rateLimiter != nil {
		if allowed, _ := uc.rateLimiter.Allow(actorID, ratelimit.ActionUpload); !allowed {
			return errors.TooManyRequests("You are uploading files too quickly")
		}
	}

	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(actorID) {
		return errors.UnauthorizedSender(actorID, conversationID)
	}
	return nil
}

// store validates and uploads the object and records its metadata.
func (uc *AttachmentUseCase) store(ctx context.Context, actorID, conversationID string, file UploadFile) (*entity.FileMetadata, error) {
	contentType, content, err := uc.sniff(file)
	if err != nil {
		return nil, err
	}

	uploaded, err := uc.storage.UploadFile(ctx, content, contentType, file.Filename, conversationID)
	if err != nil {
		log.Printf("UploadAttachment Error: %s to %s: %v", file.Filename, conversationID, err)
		return nil, errors.UploadFailed(err)
	}
	if err := ctx.Err(); err != nil {
		uc.discard(ctx, uploaded.ObjectName, nil)
		return nil, errors.UploadFailed(err)
	}
	if uploaded.Size > uc.maxBytes {
		uc.discard(ctx, uploaded.ObjectName, nil)
		return nil, errors.UploadRejected(errors.ReasonTooLarge)
	}

	kind := entity.MessageTypeFile
	if strings.HasPrefix(contentType, "image/") {
		kind = entity.MessageTypeImage
	}

	meta := &entity.FileMetadata{
		URL:            uploaded.URL,
		ObjectName:     uploaded.ObjectName,
		ConversationID: conversationID,
		UploadedBy:     actorID,
		Filename:       filepath.Base(file.Filename),
		FileType:       contentType,
		FileSize:       uploaded.Size,
		Kind:           kind,
	}
	if err := uc.fileRepo.Create(ctx, meta); err != nil {
		uc.discard(ctx, uploaded.ObjectName, nil)
		return nil, errors.UploadFailed(err)
	}
	return meta, nil
}

// publish appends the attachment message. On failure the object and its metadata
// are removed.
func (uc *AttachmentUseCase) publish(ctx context.Context, actorID string, meta *entity.FileMetadata) (*AttachmentResult, error) {
	if err := ctx.Err(); err != nil {
		uc.discard(ctx, meta.ObjectName, meta)
		return nil, errors.UploadFailed(err)
	}

	msg, err := uc.messages.append(ctx, AppendInput{
		ConversationID: meta.ConversationID,
		SenderID:       actorID,
		Type:           meta.Kind,
		Attachment: &entity.AttachmentRef{
			URL:         meta.URL,
			FileName:    meta.Filename,
			FileSize:    meta.FileSize,
			ContentType: meta.FileType,
		},
	})
	if err != nil {
		uc.discard(ctx, meta.ObjectName, meta)
		return nil, err
	}

	meta.MessageID = msg.ID
	logFollowUp(meta.ConversationID, "link_attachment", uc.fileRepo.LinkMessage(ctx, meta.ConversationID, meta.ID, msg.ID))

	return &AttachmentResult{Attachment: meta, Message: msg}, nil
}

// discard removes a stored object and its metadata. It runs even when ctx is
// already cancelled.
func (uc *AttachmentUseCase) discard(ctx context.Context, objectName string, meta *entity.FileMetadata) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupDeadline)
	defer cancel()

	if err := uc.storage.DeleteFile(cleanupCtx, objectName); err != nil {
		log.Printf("UploadAttachment Cleanup Error: object %s: %v", objectName, err)
	}
	if meta != nil {
		if err := uc.fileRepo.Delete(cleanupCtx, meta.ConversationID, meta.ID); err != nil {
			log.Printf("UploadAttachment Cleanup Error: metadata %s: %v", meta.ID, err)
		}
	}
}

// ListAttachments returns the attachments of a conversation in upload order.
func (uc *AttachmentUseCase) ListAttachments(ctx context.Context, actorID, conversationID string) ([]*entity.FileMetadata, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actorID) {
		return nil, errors.Forbidden("You are not a participant of this conversation", nil)
	}

	files, err := uc.fileRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	linked := make([]*entity.FileMetadata, 0, len(files))
	for _, f := range files {
		if f.MessageID != "" {
			linked = append(linked, f)
		}
	}
	return linked, nil
}

package entity

import (
	"time"
)

// FileMetadata records an uploaded attachment object.
type FileMetadata struct {
	ID             string      `json:"id" firestore:"id"`
	URL            string      `json:"url" firestore:"url"`
	ObjectName     string      `json:"object_name" firestore:"objectName"`
	ConversationID string      `json:"conversation_id" firestore:"conversationId"`
	MessageID      string      `json:"message_id,omitempty" firestore:"messageId,omitempty"`
	UploadedBy     string      `json:"uploaded_by" firestore:"uploadedBy"`
	Filename       string      `json:"filename" firestore:"filename"`
	FileType       string      `json:"file_type" firestore:"fileType"`
	FileSize       int64       `json:"file_size" firestore:"fileSize"`
	Kind           MessageType `json:"kind" firestore:"kind"`
	CreatedAt      time.Time   `json:"created_at" firestore:"createdAt"`
}

package entity

import (
	"fmt"
	"strings"
	"time"
)

type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeImage       MessageType = "image"
	MessageTypeFile        MessageType = "file"
	MessageTypeMeasurement MessageType = "measurement"
	MessageTypeSystem      MessageType = "system"
)

// SystemSenderID is the reserved sender of system messages.
const SystemSenderID = "system"

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeMeasurement, MessageTypeSystem:
		return true
	}
	return false
}

// AttachmentRef is the payload of image and file messages.
type AttachmentRef struct {
	URL         string `json:"url" firestore:"url"`
	FileName    string `json:"file_name" firestore:"fileName"`
	FileSize    int64  `json:"file_size" firestore:"fileSize"`
	ContentType string `json:"content_type" firestore:"contentType"`
}

// Measurement is the payload of measurement messages.
type Measurement struct {
	Unit   string             `json:"unit" firestore:"unit"`
	Values map[string]float64 `json:"values" firestore:"values"`
	Note   string             `json:"note,omitempty" firestore:"note,omitempty"`
}

// SystemEvent is the payload of system messages.
type SystemEvent struct {
	Event string            `json:"event" firestore:"event"`
	Data  map[string]string `json:"data,omitempty" firestore:"data,omitempty"`
}

// Message is a tagged union: exactly one of Attachment, Measurement, System is set,
// according to Type (none for text).
type Message struct {
	ID             string      `json:"id" firestore:"id"`
	ConversationID string      `json:"conversation_id" firestore:"conversationId"`
	Seq            int64       `json:"seq" firestore:"seq"`
	SenderID       string      `json:"sender_id" firestore:"senderId"`
	SenderName     string      `json:"sender_name" firestore:"senderName"`
	SenderAvatar   string      `json:"sender_avatar,omitempty" firestore:"senderAvatar,omitempty"`
	RecipientID    string      `json:"recipient_id" firestore:"recipientId"`
	Content        string      `json:"content" firestore:"content"`
	Type           MessageType `json:"type" firestore:"type"`
	Timestamp      time.Time   `json:"timestamp" firestore:"timestamp"`
	IsRead         bool        `json:"is_read" firestore:"-"`

	Attachment  *AttachmentRef `json:"attachment,omitempty" firestore:"attachment,omitempty"`
	Measurement *Measurement   `json:"measurement,omitempty" firestore:"measurement,omitempty"`
	System      *SystemEvent   `json:"system,omitempty" firestore:"system,omitempty"`
}

// Validate checks that the payload matches the type tag.
func (m *Message) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	hasAttachment := m.Attachment != nil
	hasMeasurement := m.Measurement != nil
	hasSystem := m.System != nil

	switch m.Type {
	case MessageTypeText:
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("text message content is empty")
		}
		if hasAttachment || hasMeasurement || hasSystem {
			return fmt.Errorf("text message must not carry a payload")
		}
	case MessageTypeImage, MessageTypeFile:
		if !hasAttachment || hasMeasurement || hasSystem {
			return fmt.Errorf("%s message requires exactly an attachment payload", m.Type)
		}
		if m.Attachment.URL == "" {
			return fmt.Errorf("%s message attachment has no url", m.Type)
		}
	case MessageTypeMeasurement:
		if !hasMeasurement || hasAttachment || hasSystem {
			return fmt.Errorf("measurement message requires exactly a measurement payload")
		}
		if len(m.Measurement.Values) == 0 {
			return fmt.Errorf("measurement message has no values")
		}
	case MessageTypeSystem:
		if !hasSystem || hasAttachment || hasMeasurement {
			return fmt.Errorf("system message requires exactly a system payload")
		}
	}
	return nil
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Attachment != nil {
		a := *m.Attachment
		cp.Attachment = &a
	}
	if m.Measurement != nil {
		ms := *m.Measurement
		ms.Values = make(map[string]float64, len(m.Measurement.Values))
		for k, v := range m.Measurement.Values {
			ms.Values[k] = v
		}
		cp.Measurement = &ms
	}
	if m.System != nil {
		s := *m.System
		if m.System.Data != nil {
			s.Data = make(map[string]string, len(m.System.Data))
			for k, v := range m.System.Data {
				s.Data[k] = v
			}
		}
		cp.System = &s
	}
	return &cp
}

// Preview is the short text shown in conversation lists.
func (m *Message) Preview() string {
	switch m.Type {
	case MessageTypeImage:
		return "📷 Image"
	case MessageTypeFile:
		if m.Attachment != nil {
			return "📎 " + m.Attachment.FileName
		}
		return "📎 File"
	case MessageTypeMeasurement:
		return "📏 Measurements"
	}
	return m.Content
}

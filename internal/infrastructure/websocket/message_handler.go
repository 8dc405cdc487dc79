package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tailorchat/pkg/errors"
)

// Client → server commands.
const (
	MessageTypePing        = "ping"
	MessageTypeSendMessage = "send_message"
	MessageTypeTypingStart = "typing_start"
	MessageTypeTypingStop  = "typing_stop"
	MessageTypeJoinRoom    = "join_room"
	MessageTypeLeaveRoom   = "leave_room"
	MessageTypeMarkRead    = "mark_read"
)

// Server → client events.
const (
	EventPong                = "pong"
	EventError               = "error"
	EventMessageCreated      = "message.created"
	EventMessageFailed       = "message.failed"
	EventMessageRead         = "message.read"
	EventTypingChanged       = "typing.changed"
	EventPresenceChanged     = "presence.changed"
	EventNotificationCreated = "notification.created"
	EventConversationUpdated = "conversation.updated"
	EventRoomJoined          = "room.joined"
)

const commandTimeout = 10 * time.Second

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type incomingMessage struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Data           json.RawMessage `json:"data"`
}

type SendMessageData struct {
	TempID  string `json:"temp_id"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type MarkReadData struct {
	MessageID string `json:"message_id"`
}

type MessageFailedData struct {
	TempID  string `json:"temp_id,omitempty"`
	Draft   string `json:"draft"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Commands executes client commands on behalf of the connected user. Implementations
// enforce authorization and publish resulting events themselves.
type Commands interface {
	SendMessage(ctx context.Context, userID, conversationID string, data SendMessageData) error
	StartTyping(ctx context.Context, userID, conversationID string) error
	StopTyping(ctx context.Context, userID, conversationID string) error
	AuthorizeRoom(ctx context.Context, userID, conversationID string) error
	MarkRead(ctx context.Context, userID, conversationID, messageID string) error
}

// HandleClientMessage decodes one frame from client and dispatches it.
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var msg incomingMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		m.sendErrorToClient(client, errors.CodeBadRequest, "Invalid message format")
		return
	}

	if msg.Type == MessageTypePing {
		m.sendToClient(client, WSMessage{
			Type:      EventPong,
			Data:      map[string]string{"status": "alive"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	if m.commands == nil {
		m.sendErrorToClient(client, errors.CodeInternal, "Commands are not available")
		return
	}
	if msg.ConversationID == "" {
		m.sendErrorToClient(client, errors.CodeBadRequest, "Missing conversation_id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch msg.Type {
	case MessageTypeSendMessage:
		m.handleSendMessage(ctx, client, msg)

	case MessageTypeTypingStart:
		if err := m.commands.StartTyping(ctx, client.UserID, msg.ConversationID); err != nil {
			m.sendAppError(client, err)
		}

	case MessageTypeTypingStop:
		if err := m.commands.StopTyping(ctx, client.UserID, msg.ConversationID); err != nil {
			m.sendAppError(client, err)
		}

	case MessageTypeJoinRoom:
		if err := m.commands.AuthorizeRoom(ctx, client.UserID, msg.ConversationID); err != nil {
			m.sendAppError(client, err)
			return
		}
		m.JoinRoom(client, msg.ConversationID)
		m.sendToClient(client, WSMessage{
			Type:           EventRoomJoined,
			ConversationID: msg.ConversationID,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		})

	case MessageTypeLeaveRoom:
		m.LeaveRoom(client, msg.ConversationID)

	case MessageTypeMarkRead:
		var data MarkReadData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				m.sendErrorToClient(client, errors.CodeBadRequest, "Invalid mark_read format")
				return
			}
		}
		if err := m.commands.MarkRead(ctx, client.UserID, msg.ConversationID, data.MessageID); err != nil {
			m.sendAppError(client, err)
		}

	default:
		log.Printf("WebSocket: Unknown message type '%s' from client %s", msg.Type, client.UserID)
		m.sendErrorToClient(client, errors.CodeBadRequest, "Unknown message type")
	}
}

func (m *Manager) handleSendMessage(ctx context.Context, client *Client, msg incomingMessage) {
	var data SendMessageData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		m.sendErrorToClient(client, errors.CodeBadRequest, "Invalid send message format")
		return
	}

	err := m.commands.SendMessage(ctx, client.UserID, msg.ConversationID, data)
	if err == nil {
		return
	}

	failed := MessageFailedData{
		TempID:  data.TempID,
		Draft:   data.Content,
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		failed.Message = appErr.Message
	}
	if failed.Code == "" {
		failed.Code = errors.CodeSendFailed
	}

	m.sendToClient(client, WSMessage{
		Type:           EventMessageFailed,
		ConversationID: msg.ConversationID,
		Data:           failed,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (m *Manager) sendAppError(client *Client, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		m.sendErrorToClient(client, appErr.Code, appErr.Message)
		return
	}
	log.Printf("WebSocket: command from %s failed: %v", client.UserID, err)
	m.sendErrorToClient(client, errors.CodeInternal, "Command failed")
}

func (m *Manager) sendErrorToClient(client *Client, code, message string) {
	m.sendToClient(client, WSMessage{
		Type:      EventError,
		Data:      ErrorData{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

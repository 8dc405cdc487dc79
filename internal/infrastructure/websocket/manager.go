package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// PresenceListener is told when a user's first connection opens and when the last
// one closes.
type PresenceListener interface {
	Connected(ctx context.Context, userID string)
	Disconnected(ctx context.Context, userID string)
}

type presenceChange struct {
	userID string
	online bool
}

// Manager tracks live connections per user and room membership per conversation.
// A user may hold several connections (tabs, devices).
type Manager struct {
	clients map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	mutex   sync.RWMutex

	Register   chan *Client
	Unregister chan *Client

	commands Commands
	presence PresenceListener
	changes  chan presenceChange
	done     chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		changes:    make(chan presenceChange, 256),
		done:       make(chan struct{}),
	}
}

// SetCommands wires the handler of client commands. Must be called before Start.
func (m *Manager) SetCommands(commands Commands) {
	m.commands = commands
}

// SetPresenceListener must be called before Start.
func (m *Manager) SetPresenceListener(listener PresenceListener) {
	m.presence = listener
}

// Start runs the registration loop and the presence notifier until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go m.notifyPresence(ctx)

	go func() {
		for {
			select {
			case client := <-m.Register:
				m.add(client)

			case client := <-m.Unregister:
				m.remove(client)

			case <-ctx.Done():
				close(m.done)
				m.closeAll()
				return
			}
		}
	}()
}

// Connect registers client. It returns false once the manager has stopped.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) disconnect(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) add(client *Client) {
	m.mutex.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}
	first := len(conns) == 1
	m.mutex.Unlock()

	log.Printf("WebSocket: client registered: %s", client.UserID)
	if first {
		m.queuePresence(client.UserID, true)
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		m.mutex.Unlock()
		return
	}
	if _, ok := conns[client]; !ok {
		m.mutex.Unlock()
		return
	}
	delete(conns, client)
	for conversationID := range client.rooms {
		m.leaveLocked(client, conversationID)
	}
	close(client.Send)
	last := len(conns) == 0
	if last {
		delete(m.clients, client.UserID)
	}
	m.mutex.Unlock()

	log.Printf("WebSocket: client unregistered: %s", client.UserID)
	if last {
		m.queuePresence(client.UserID, false)
	}
}

func (m *Manager) closeAll() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, conns := range m.clients {
		for client := range conns {
			client.Conn.Close()
		}
	}
}

func (m *Manager) queuePresence(userID string, online bool) {
	if m.presence == nil {
		return
	}
	select {
	case m.changes <- presenceChange{userID: userID, online: online}:
	default:
		log.Printf("WebSocket: presence queue full, dropping change for %s", userID)
	}
}

// notifyPresence delivers presence edges one at a time so connect and disconnect of
// the same user are observed in order.
func (m *Manager) notifyPresence(ctx context.Context) {
	for {
		select {
		case change := <-m.changes:
			callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if change.online {
				m.presence.Connected(callCtx, change.userID)
			} else {
				m.presence.Disconnected(callCtx, change.userID)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// JoinRoom subscribes client to events of conversationID.
func (m *Manager) JoinRoom(client *Client, conversationID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, ok := m.rooms[conversationID]
	if !ok {
		room = make(map[*Client]struct{})
		m.rooms[conversationID] = room
	}
	room[client] = struct{}{}
	client.rooms[conversationID] = struct{}{}
}

func (m *Manager) LeaveRoom(client *Client, conversationID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leaveLocked(client, conversationID)
}

func (m *Manager) leaveLocked(client *Client, conversationID string) {
	delete(client.rooms, conversationID)
	if room, ok := m.rooms[conversationID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, conversationID)
		}
	}
}

// Stats is a point-in-time count of live connections.
type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

func (m *Manager) Stats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := Stats{Users: len(m.clients), Rooms: len(m.rooms)}
	for _, conns := range m.clients {
		stats.Connections += len(conns)
	}
	return stats
}

// IsOnline reports whether userID has at least one live connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// IsViewing reports whether any of userID's connections has conversationID open.
func (m *Manager) IsViewing(userID, conversationID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.rooms[conversationID] {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// PublishToUser pushes an event to every connection of userID.
func (m *Manager) PublishToUser(userID, eventType string, data interface{}) {
	payload, ok := encode(eventType, "", data)
	if !ok {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.clients[userID] {
		m.deliver(client, payload)
	}
}

// PublishToConversation pushes an event to every connection in the conversation's
// room, skipping excludeUserID when set.
func (m *Manager) PublishToConversation(conversationID, eventType string, data interface{}, excludeUserID string) {
	payload, ok := encode(eventType, conversationID, data)
	if !ok {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.rooms[conversationID] {
		if excludeUserID != "" && client.UserID == excludeUserID {
			continue
		}
		m.deliver(client, payload)
	}
}

func (m *Manager) sendToClient(client *Client, message WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("WebSocket: Failed to marshal message for client %s: %v", client.UserID, err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if _, ok := m.clients[client.UserID][client]; ok {
		m.deliver(client, payload)
	}
}

// deliver must be called with the read lock held so Send is not closed concurrently.
// A client whose buffer is full is disconnected; its read pump then unregisters it.
func (m *Manager) deliver(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		log.Printf("WebSocket: client %s send buffer full, closing connection", client.UserID)
		client.Conn.Close()
	}
}

func encode(eventType, conversationID string, data interface{}) ([]byte, bool) {
	payload, err := json.Marshal(WSMessage{
		Type:           eventType,
		ConversationID: conversationID,
		Data:           data,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Printf("WebSocket: Failed to marshal %s event: %v", eventType, err)
		return nil, false
	}
	return payload, true
}

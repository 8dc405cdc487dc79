package entity

import (
	"sort"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleTailor   = "tailor"
	RoleAdmin    = "admin"
)

// Participant is display metadata about one side of a conversation.
type Participant struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"name" firestore:"name"`
	AvatarURL string    `json:"avatar_url,omitempty" firestore:"avatarUrl,omitempty"`
	Role      string    `json:"role" firestore:"role"`
	IsOnline  bool      `json:"is_online" firestore:"isOnline"`
	LastSeen  time.Time `json:"last_seen" firestore:"lastSeen"`
}

type Conversation struct {
	ID             string                 `json:"id" firestore:"id"`
	ParticipantIDs []string               `json:"participant_ids" firestore:"participantIds"`
	Participants   map[string]Participant `json:"participants" firestore:"participants"`
	LastMessage    *Message               `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastSeq        int64                  `json:"last_seq" firestore:"lastSeq"`
	UnreadCount    map[string]int         `json:"unread_count" firestore:"unreadCount"`
	OrderID        string                 `json:"order_id,omitempty" firestore:"orderId,omitempty"`
	PairKey        string                 `json:"-" firestore:"pairKey"`
	IsActive       bool                   `json:"is_active" firestore:"isActive"`
	CreatedAt      time.Time              `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time              `json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant's id, or "" if userID is not a participant.
func (c *Conversation) Counterpart(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}

// Clone returns a deep copy so callers never share maps with a store.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	cp.Participants = make(map[string]Participant, len(c.Participants))
	for k, v := range c.Participants {
		cp.Participants[k] = v
	}
	cp.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		cp.UnreadCount[k] = v
	}
	if c.LastMessage != nil {
		cp.LastMessage = c.LastMessage.Clone()
	}
	return &cp
}

// PairKey identifies a conversation by its sorted participants and optional order.
func PairKey(participantA, participantB, orderID string) string {
	ids := []string{participantA, participantB}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1] + "|" + orderID
}

// SortedPair returns the two ids in ascending order.
func SortedPair(participantA, participantB string) []string {
	ids := []string{participantA, participantB}
	sort.Strings(ids)
	return ids
}

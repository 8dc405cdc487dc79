package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/pkg/errors"
)

const conversationsCollection = "conversations"

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(conversationsCollection).Doc(id)
}

func (r *firestoreConversationRepository) CreateIfAbsent(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	var (
		stored  *entity.Conversation
		created bool
	)

	// The deterministic document id makes concurrent creations for the same pair
	// contend on one document; the transaction retries and the loser reads the winner.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		id := conv.ID
		if id == "" {
			id = ConversationID(conv.PairKey)
		}
		ref := r.doc(id)

		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing entity.Conversation
			if err := snap.DataTo(&existing); err != nil {
				return errors.Internal("Failed to parse conversation data", err)
			}
			if existing.IsActive {
				stored, created = &existing, false
				return nil
			}
			ref = r.doc(uuid.New().String())
		case status.Code(err) != codes.NotFound:
			return err
		}

		newConv := conv.Clone()
		newConv.ID = ref.ID
		now := time.Now()
		newConv.CreatedAt = now
		newConv.UpdatedAt = now
		newConv.IsActive = true
		if newConv.UnreadCount == nil {
			newConv.UnreadCount = make(map[string]int)
		}
		if err := tx.Create(ref, newConv); err != nil {
			return err
		}
		stored, created = newConv, true
		return nil
	})
	if err != nil {
		if errors.CodeOf(err) != "" {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to create conversation", err)
	}

	return stored, created, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.UnknownConversation(id)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conv.ID = doc.Ref.ID

	return &conv, nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).
		Where("participantIds", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	return r.collect(ctx, query.Documents(ctx), "participant "+userID)
}

func (r *firestoreConversationRepository) ListByOrderID(ctx context.Context, orderID string) ([]*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).
		Where("orderId", "==", orderID).
		OrderBy("updatedAt", firestore.Desc)

	return r.collect(ctx, query.Documents(ctx), "order "+orderID)
}

func (r *firestoreConversationRepository) collect(ctx context.Context, iter *firestore.DocumentIterator, scope string) ([]*entity.Conversation, error) {
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while listing conversations for %s: %v", scope, err)
			return nil, errors.Internal("Failed to list conversations", err)
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			log.Printf("Error parsing conversation %s for %s: %v", doc.Ref.ID, scope, err)
			continue
		}
		conv.ID = doc.Ref.ID
		conversations = append(conversations, &conv)
	}

	return conversations, nil
}

// mutate runs fn on the stored conversation inside a transaction and writes it back.
func (r *firestoreConversationRepository) mutate(ctx context.Context, id string, fn func(conv *entity.Conversation)) (*entity.Conversation, error) {
	var result *entity.Conversation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.UnknownConversation(id)
			}
			return err
		}

		var conv entity.Conversation
		if err := snap.DataTo(&conv); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}
		conv.ID = ref.ID

		fn(&conv)
		result = &conv
		return tx.Set(ref, &conv)
	})
	if err != nil {
		if errors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, errors.Internal("Failed to update conversation", err)
	}

	return result, nil
}

func (r *firestoreConversationRepository) ApplyMessage(ctx context.Context, msg *entity.Message, incrementUnreadFor string) (*entity.Conversation, error) {
	return r.mutate(ctx, msg.ConversationID, func(conv *entity.Conversation) {
		applyMessage(conv, msg, incrementUnreadFor, time.Now())
	})
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	return r.mutate(ctx, conversationID, func(conv *entity.Conversation) {
		if conv.UnreadCount == nil {
			conv.UnreadCount = make(map[string]int)
		}
		conv.UnreadCount[userID] = 0
		conv.UpdatedAt = time.Now()
	})
}

func (r *firestoreConversationRepository) UpdateParticipantPresence(ctx context.Context, userID string, online bool, at time.Time) ([]*entity.Conversation, error) {
	conversations, err := r.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var updated []*entity.Conversation
	for _, conv := range conversations {
		result, err := r.mutate(ctx, conv.ID, func(c *entity.Conversation) {
			applyPresence(c, userID, online, at)
		})
		if err != nil {
			log.Printf("UpdateParticipantPresence: conversation %s for user %s: %v", conv.ID, userID, err)
			continue
		}
		updated = append(updated, result)
	}

	return updated, nil
}

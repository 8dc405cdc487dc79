package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/repository"
	"tailorchat/pkg/errors"
)

// sequenceDoc is the per-conversation counter guarded by Firestore transactions.
type sequenceDoc struct {
	LastSeq       int64     `firestore:"lastSeq"`
	LastTimestamp time.Time `firestore:"lastTimestamp"`
}

type readCursorDoc struct {
	Seq       int64     `firestore:"seq"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) conversation(id string) *firestore.DocumentRef {
	return r.client.Collection(conversationsCollection).Doc(id)
}

func (r *firestoreMessageRepository) sequenceRef(conversationID string) *firestore.DocumentRef {
	return r.conversation(conversationID).Collection("meta").Doc("sequence")
}

func (r *firestoreMessageRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.conversation(conversationID).Collection("messages")
}

func (r *firestoreMessageRepository) cursorRef(conversationID, readerID string) *firestore.DocumentRef {
	return r.conversation(conversationID).Collection("readCursors").Doc(readerID)
}

func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	var stored *entity.Message

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(r.conversation(message.ConversationID)); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.UnknownConversation(message.ConversationID)
			}
			return err
		}

		var seq sequenceDoc
		snap, err := tx.Get(r.sequenceRef(message.ConversationID))
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			if err := snap.DataTo(&seq); err != nil {
				return err
			}
		}

		msg := message.Clone()
		if msg.ID == "" {
			msg.ID = newMessageID()
		}
		msg.Seq = seq.LastSeq + 1
		msg.Timestamp = time.Now()
		if msg.Timestamp.Before(seq.LastTimestamp) {
			msg.Timestamp = seq.LastTimestamp
		}
		msg.IsRead = false

		if err := tx.Create(r.messages(msg.ConversationID).Doc(msg.ID), msg); err != nil {
			return err
		}
		if err := tx.Set(r.sequenceRef(msg.ConversationID), sequenceDoc{LastSeq: msg.Seq, LastTimestamp: msg.Timestamp}); err != nil {
			return err
		}
		stored = msg
		return nil
	})
	if err != nil {
		if errors.CodeOf(err) != "" {
			return nil, err
		}
		log.Printf("Firestore error while appending message to conversation %s: %v", message.ConversationID, err)
		return nil, errors.Internal("Failed to append message", err)
	}

	return stored, nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreMessageRepository) List(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]*entity.Message, error) {
	query := r.messages(conversationID).Where("seq", ">", afterSeq).OrderBy("seq", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	messages := []*entity.Message{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	sortBySeq(messages)
	return messages, nil
}

func (r *firestoreMessageRepository) LatestSeq(ctx context.Context, conversationID string) (int64, error) {
	snap, err := r.sequenceRef(conversationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, errors.Internal("Failed to read sequence", err)
	}

	var seq sequenceDoc
	if err := snap.DataTo(&seq); err != nil {
		return 0, errors.Internal("Failed to parse sequence", err)
	}
	return seq.LastSeq, nil
}

func (r *firestoreMessageRepository) AdvanceReadCursor(ctx context.Context, conversationID, readerID string, seq int64) (int64, error) {
	var result int64

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var latest sequenceDoc
		if snap, err := tx.Get(r.sequenceRef(conversationID)); err == nil {
			if err := snap.DataTo(&latest); err != nil {
				return err
			}
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		var cursor readCursorDoc
		ref := r.cursorRef(conversationID, readerID)
		if snap, err := tx.Get(ref); err == nil {
			if err := snap.DataTo(&cursor); err != nil {
				return err
			}
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if seq > latest.LastSeq {
			seq = latest.LastSeq
		}
		result = cursor.Seq
		if seq <= cursor.Seq {
			return nil
		}
		result = seq
		return tx.Set(ref, readCursorDoc{Seq: seq, UpdatedAt: time.Now()})
	})
	if err != nil {
		return 0, errors.Internal("Failed to update read cursor", err)
	}

	return result, nil
}

func (r *firestoreMessageRepository) ReadCursor(ctx context.Context, conversationID, readerID string) (int64, error) {
	snap, err := r.cursorRef(conversationID, readerID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, errors.Internal("Failed to read cursor", err)
	}

	var cursor readCursorDoc
	if err := snap.DataTo(&cursor); err != nil {
		return 0, errors.Internal("Failed to parse read cursor", err)
	}
	return cursor.Seq, nil
}

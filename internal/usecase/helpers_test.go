package usecase

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"tailorchat/internal/adapter/repository"
	"tailorchat/internal/domain/entity"
	domainrepo "tailorchat/internal/domain/repository"
	"tailorchat/internal/domain/service"
	"tailorchat/internal/infrastructure/devauth"
	"tailorchat/internal/infrastructure/storage"
)

type publishedEvent struct {
	UserID         string
	ConversationID string
	Type           string
	Data           interface{}
	Exclude        string
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []publishedEvent
	online  map[string]bool
	viewing map[string]string // user -> conversation

	// latency, when set, delays lookups and room pushes by up to this long, like a
	// busy hub would.
	latency time.Duration
}

func (p *recordingPublisher) pause() {
	if p.latency > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(p.latency))))
	}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		online:  make(map[string]bool),
		viewing: make(map[string]string),
	}
}

func (p *recordingPublisher) PublishToUser(userID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Data: data})
}

func (p *recordingPublisher) PublishToConversation(conversationID, eventType string, data interface{}, exclude string) {
	p.pause()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{ConversationID: conversationID, Type: eventType, Data: data, Exclude: exclude})
}

func (p *recordingPublisher) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *recordingPublisher) IsViewing(userID, conversationID string) bool {
	p.pause()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewing[userID] == conversationID
}

func (p *recordingPublisher) setOnline(userID string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = online
}

func (p *recordingPublisher) setViewing(userID, conversationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewing[userID] = conversationID
}

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	publisher     *recordingPublisher
	convRepo      domainrepo.ConversationRepository
	messageRepo   domainrepo.MessageRepository
	fileRepo      domainrepo.FileMetadataRepository
	store         *storage.MemoryStore
	directory     *devauth.Directory
	conversations *ConversationUseCase
	notifications *NotificationUseCase
	typing        *TypingUseCase
	messages      *MessageUseCase
	attachments   *AttachmentUseCase
	presence      *PresenceUseCase
	orders        *OrderUseCase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		publisher:   newRecordingPublisher(),
		convRepo:    repository.NewMemoryConversationRepository(),
		messageRepo: repository.NewMemoryMessageRepository(),
		fileRepo:    repository.NewMemoryFileMetadataRepository(),
		store:       storage.NewMemoryStore("http://files.test"),
		directory:   devauth.NewDirectory(),
	}
	env.directory.Register(entity.Participant{ID: "customer_1", Name: "Rina", Role: entity.RoleCustomer})
	env.directory.Register(entity.Participant{ID: "tailor_1", Name: "Ayu", Role: entity.RoleTailor})

	env.conversations = NewConversationUseCase(env.convRepo, env.directory, env.publisher, nil)
	env.notifications = NewNotificationUseCase(env.publisher, 10, time.Minute)
	env.typing = NewTypingUseCase(env.convRepo, env.notifications, env.publisher, time.Minute)
	env.messages = NewMessageUseCase(env.messageRepo, env.convRepo, env.conversations, env.notifications, env.typing, env.publisher, nil, 50)
	env.attachments = NewAttachmentUseCase(env.store, env.fileRepo, env.convRepo, env.messages, nil, 1024, 5)
	env.presence = NewPresenceUseCase(env.conversations, env.typing, env.notifications, env.publisher)
	env.orders = NewOrderUseCase(env.conversations, env.messages, env.notifications)
	return env
}

func (env *testEnv) close() {
	env.typing.Close()
	env.notifications.Close()
}

func (env *testEnv) conversation(orderID string) *entity.Conversation {
	conv, _, err := env.conversations.CreateConversation(context.Background(), "customer_1", CreateConversationInput{
		RecipientID: "tailor_1",
		OrderID:     orderID,
	})
	if err != nil {
		panic(err)
	}
	return conv
}

// failingMessageRepo fails every append.
type failingMessageRepo struct {
	domainrepo.MessageRepository
	err error
}

func (r *failingMessageRepo) Append(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	return nil, r.err
}

// blockingStore blocks uploads until ctx is cancelled, then reports the object as stored.
type blockingStore struct {
	*storage.MemoryStore
	started chan struct{}
}

func (s *blockingStore) UploadFile(ctx context.Context, file io.Reader, fileType, filename, folder string) (*service.UploadResult, error) {
	res, err := s.MemoryStore.UploadFile(context.Background(), file, fileType, filename, folder)
	if err != nil {
		return nil, err
	}
	close(s.started)
	<-ctx.Done()
	return res, nil
}

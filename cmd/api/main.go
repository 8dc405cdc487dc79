package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"tailorchat/internal/adapter/api"
	"tailorchat/internal/adapter/api/handler"
	apimiddleware "tailorchat/internal/adapter/api/middleware"
	"tailorchat/internal/adapter/api/router"
	"tailorchat/internal/adapter/repository"
	domainrepo "tailorchat/internal/domain/repository"
	"tailorchat/internal/domain/service"
	"tailorchat/internal/infrastructure/devauth"
	"tailorchat/internal/infrastructure/firebase"
	"tailorchat/internal/infrastructure/ratelimit"
	"tailorchat/internal/infrastructure/storage"
	"tailorchat/internal/infrastructure/websocket"
	"tailorchat/internal/usecase"
	"tailorchat/pkg/config"
	"tailorchat/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var credentials option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		credentials = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		credentials = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	// Identity: Firebase when credentials are configured, dev tokens in development.
	var (
		verifiers    []service.TokenVerifier
		directory    service.ParticipantDirectory
		devIssuer    *devauth.Issuer
		devDirectory *devauth.Directory
	)
	if cfg.UsesFirebase() {
		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, credentials)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		verifiers = append(verifiers, firebase.NewFirebaseAuthClient(authClient))
		directory = firebase.NewDirectory(authClient)
	}
	if cfg.IsDevelopment() {
		devIssuer = devauth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		verifiers = append(verifiers, devIssuer)
		if directory == nil {
			devDirectory = devauth.NewDirectory()
			directory = devDirectory
		}
	}
	if len(verifiers) == 0 {
		log.Fatalf("No token verifier configured: set Firebase credentials or ENVIRONMENT=development")
	}

	var (
		convRepo    domainrepo.ConversationRepository
		messageRepo domainrepo.MessageRepository
		fileRepo    domainrepo.FileMetadataRepository
	)
	switch cfg.StoreBackend {
	case config.StoreBackendFirestore:
		if credentials == nil {
			log.Fatalf("STORE_BACKEND=firestore requires Firebase credentials")
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, credentials)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		convRepo = repository.NewFirestoreConversationRepository(firestoreClient)
		messageRepo = repository.NewFirestoreMessageRepository(firestoreClient)
		fileRepo = repository.NewFirestoreFileMetadataRepository(firestoreClient)
	default:
		logger.Warn("Using in-memory store; data is lost on restart")
		convRepo = repository.NewMemoryConversationRepository()
		messageRepo = repository.NewMemoryMessageRepository()
		fileRepo = repository.NewMemoryFileMetadataRepository()
	}

	var (
		fileStore   service.FileUploadService
		memoryStore *storage.MemoryStore
	)
	if cfg.StorageBucket != "" {
		var opts []option.ClientOption
		if credentials != nil {
			opts = append(opts, credentials)
		}
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		fileStore = storageClient
	} else {
		memoryStore = storage.NewMemoryStore(cfg.PublicBaseURL + "/files")
		fileStore = memoryStore
	}

	limiter := ratelimit.NewRateLimiter(nil)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	limiter.StartCleanupRoutine(10*time.Minute, stopCleanup)

	wsManager := websocket.NewManager()

	conversationUseCase := usecase.NewConversationUseCase(convRepo, directory, wsManager, limiter)
	notificationUseCase := usecase.NewNotificationUseCase(wsManager, cfg.NotificationCap, cfg.NotificationTTL)
	defer notificationUseCase.Close()
	typingUseCase := usecase.NewTypingUseCase(convRepo, notificationUseCase, wsManager, cfg.TypingTTL)
	defer typingUseCase.Close()
	messageUseCase := usecase.NewMessageUseCase(messageRepo, convRepo, conversationUseCase, notificationUseCase, typingUseCase, wsManager, limiter, cfg.MessagePageLimit)
	attachmentUseCase := usecase.NewAttachmentUseCase(fileStore, fileRepo, convRepo, messageUseCase, limiter, cfg.MaxUploadBytes, cfg.MaxFilesPerBatch)
	presenceUseCase := usecase.NewPresenceUseCase(conversationUseCase, typingUseCase, notificationUseCase, wsManager)
	orderUseCase := usecase.NewOrderUseCase(conversationUseCase, messageUseCase, notificationUseCase)

	wsManager.SetCommands(handler.NewWSCommands(conversationUseCase, messageUseCase, typingUseCase, limiter))
	wsManager.SetPresenceListener(presenceUseCase)
	wsManager.Start(ctx)

	authMiddleware := apimiddleware.NewAuthMiddleware(verifiers...)

	handlers := handler.Setup(handler.UseCases{
		Conversations: conversationUseCase,
		Messages:      messageUseCase,
		Attachments:   attachmentUseCase,
		Typing:        typingUseCase,
		Notifications: notificationUseCase,
		Orders:        orderUseCase,
	})
	handlers.WebSocket = handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.AllowedOrigins)
	handlers.Health = handler.NewHealthHandler(wsManager)
	if devIssuer != nil {
		handlers.DevToken = handler.NewDevTokenHandler(devIssuer, devDirectory)
	}
	if memoryStore != nil {
		handlers.Files = handler.NewMemoryFileHandler(memoryStore)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(middleware.BodyLimit(bodyLimit(cfg)))

	e.Validator = api.NewValidator()

	router.Setup(e, handlers, authMiddleware, limiter, cfg.Environment)

	go func() {
		logger.Info("Starting tailorchat (%s) on port %s", cfg.Environment, cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// bodyLimit leaves room for a full attachment batch plus multipart overhead.
func bodyLimit(cfg *config.Config) string {
	const mb = 1 << 20
	limit := cfg.MaxUploadBytes*int64(cfg.MaxFilesPerBatch) + mb
	return strconv.FormatInt((limit+mb-1)/mb, 10) + "M"
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendMemory    = "memory"
	StoreBackendFirestore = "firestore"
)

type Config struct {
	ServerPort         string
	Environment        string
	FirebaseProject    string
	ServiceAccountPath string
	ServiceAccountJSON string
	StorageBucket      string
	StoreBackend       string
	JWTSecret          string
	JWTExpiry          int64
	PublicBaseURL      string
	AllowedOrigins     []string

	MaxUploadBytes   int64
	MaxFilesPerBatch int
	MessagePageLimit int
	TypingTTL        time.Duration
	NotificationTTL  time.Duration
	NotificationCap  int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		StoreBackend:       getEnv("STORE_BACKEND", StoreBackendMemory),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:          getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS"),

		MaxUploadBytes:   getEnvAsInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		MaxFilesPerBatch: int(getEnvAsInt64("MAX_FILES_PER_BATCH", 5)),
		MessagePageLimit: int(getEnvAsInt64("MESSAGE_PAGE_LIMIT", 50)),
		TypingTTL:        getEnvAsDuration("TYPING_TTL", 2*time.Second),
		NotificationTTL:  getEnvAsDuration("NOTIFICATION_TTL", 5*time.Second),
		NotificationCap:  int(getEnvAsInt64("NOTIFICATION_CAP", 10)),
	}

	config.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+config.ServerPort)

	return config, nil
}

// IsDevelopment reports whether dev-only routes and HS256 dev tokens are enabled.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UsesFirebase reports whether Firebase credentials were supplied.
func (c *Config) UsesFirebase() bool {
	return c.FirebaseProject != "" && (c.ServiceAccountJSON != "" || c.ServiceAccountPath != "")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

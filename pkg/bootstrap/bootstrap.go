package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"

	shared "github.com/fitsync/exporter/pkg"
	"github.com/fitsync/exporter/pkg/backoff"
	"github.com/fitsync/exporter/pkg/infrastructure/database"
	"github.com/fitsync/exporter/pkg/infrastructure/notifications"
	infrapubsub "github.com/fitsync/exporter/pkg/infrastructure/pubsub"
	sentryutil "github.com/fitsync/exporter/pkg/infrastructure/sentry"
	infrastorage "github.com/fitsync/exporter/pkg/infrastructure/storage"
	"github.com/fitsync/exporter/pkg/progress"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID         string
	EnablePublish     bool
	EnableNotify      bool
	GCSArtifactBucket string
	PollInitialWait   time.Duration
	PollGrowthFactor  float64
	PollMaxAttempts   int
	SentryDSN         string
	SentryEnvironment string
}

// Service holds initialized dependencies. Progress lives here rather than
// per invocation so its counts span all exports the instance handles.
type Service struct {
	DB       shared.Database
	Store    shared.BlobStore
	Pub      shared.Publisher
	Notify   shared.NotificationService
	Records  uploadrecord.Store
	Progress *progress.Tracker
	Config   *Config
}

// Backoff returns the polling schedule described by the config.
func (c *Config) Backoff() backoff.Schedule {
	s := backoff.Default()
	if c.PollInitialWait > 0 {
		s.Initial = c.PollInitialWait
	}
	if c.PollGrowthFactor > 1 {
		s.Factor = c.PollGrowthFactor
	}
	if c.PollMaxAttempts > 0 {
		s.MaxAttempts = c.PollMaxAttempts
	}
	return s
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	return &Config{
		ProjectID:         projectID,
		EnablePublish:     os.Getenv("ENABLE_PUBLISH") == "true",
		EnableNotify:      os.Getenv("ENABLE_NOTIFY") == "true",
		GCSArtifactBucket: os.Getenv("GCS_ARTIFACT_BUCKET"),
		PollInitialWait:   envDuration("POLL_INITIAL_WAIT"),
		PollGrowthFactor:  envFloat("POLL_GROWTH_FACTOR"),
		PollMaxAttempts:   envInt("POLL_MAX_ATTEMPTS"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: os.Getenv("SENTRY_ENVIRONMENT"),
	}
}

func envDuration(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}

func envFloat(key string) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return f
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false // stop
		}
		return true
	})

	if comp != "" {
		newMsg := fmt.Sprintf("[%s] %s", comp, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)

		// The component attr stays in the structured payload; only the
		// message line gets the prefix.
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger() {
	opts := GetSlogHandlerOptions(slog.LevelInfo)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(&ComponentHandler{Handler: handler})
	slog.SetDefault(logger)
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	logLevelStr := os.Getenv("LOG_LEVEL")
	var level slog.Level
	switch strings.ToLower(logLevelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := GetSlogHandlerOptions(level)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	InitLogger()
	cfg := LoadConfig()

	slog.Info("Initializing service", "project_id", cfg.ProjectID)

	if err := sentryutil.Init(sentryutil.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
	}, slog.Default()); err != nil {
		// Error tracking is best-effort; the pipeline runs without it.
		slog.Warn("Sentry init failed", "error", err)
	}

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		slog.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		slog.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Push notifications
	var notify shared.NotificationService
	if cfg.EnableNotify {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
		if err != nil {
			slog.Error("Firebase init failed", "error", err)
			return nil, fmt.Errorf("firebase init: %w", err)
		}
		notify, err = notifications.NewFCMAdapter(ctx, app, fsClient)
		if err != nil {
			slog.Error("FCM init failed", "error", err)
			return nil, fmt.Errorf("fcm init: %w", err)
		}
		slog.Info("Notifications: REAL (ENABLE_NOTIFY=true)")
	} else {
		notify = &notifications.LogNotifier{}
		slog.Info("Notifications: MOCK (LogNotifier)")
	}

	// Storage
	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		slog.Error("Storage init failed", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}

	db := database.NewFirestoreAdapter(fsClient)

	return &Service{
		DB:       db,
		Pub:      pubAdapter,
		Notify:   notify,
		Records:  uploadrecord.NewFirestoreStore(fsClient),
		Progress: progress.NewTracker(db, notify, slog.Default()),
		Store:    &infrastorage.StorageAdapter{Client: gcsClient},
		Config:   cfg,
	}, nil
}

package di

import (
	"ai-companion-chat/backend/internal/service"
	"ai-companion-chat/backend/internal/storage"
	"ai-companion-chat/backend/internal/ws"
	"ai-companion-chat/backend/pkg/cache"
	"ai-companion-chat/backend/pkg/config"
	"ai-companion-chat/backend/pkg/logger"
	"ai-companion-chat/backend/pkg/scheduler"
	"ai-companion-chat/backend/pkg/secrets"
	sharedredis "ai-companion-chat/backend/shared/redis"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *logger.Logger
	Store  storage.Store
	Hub    *ws.Hub

	SettingsService  *service.SettingsService
	CharacterService *service.CharacterService
	ChatService      *service.ChatService
	ProactiveService *service.ProactiveService
	MomentService    *service.MomentService
}

// New wires the application graph. The redis client is optional; pass nil
// when REDIS_URL is unset and the settings cache falls back to Postgres
// on every read.
func New(db *gorm.DB, log *logger.Logger) (*Container, error) {
	rdb := sharedredis.NewClient()
	if rdb != nil {
		if err := sharedredis.Ping(rdb); err != nil {
			log.Warn("redis unreachable, settings cache disabled", "error", err.Error())
			rdb = nil
		}
	}

	store := storage.New(db, rdb)
	if err := store.Migrate(); err != nil {
		return nil, err
	}

	// Secrets are optional. Without a reachable Vault the settings service
	// simply never falls back past the database values.
	var secretsManager secrets.Manager
	if err := secrets.Init(log); err != nil {
		log.Warn("secrets manager unavailable, using database-stored keys only", "error", err.Error())
	} else {
		secretsManager = secrets.Default()
	}

	hub := ws.NewHub(log)
	go hub.Run()

	tasks := scheduler.New(log)

	var snapshotCache *cache.Cache
	if config.Get().Cache.Enabled {
		snapshotCache = cache.NewCache()
	}
	settingsService := service.NewSettingsService(store, secretsManager, snapshotCache)
	characterService := service.NewCharacterService(store)
	chatService := service.NewChatService(store, settingsService, hub, log)
	proactiveService := service.NewProactiveService(store, settingsService, hub, log)
	momentService := service.NewMomentService(store, settingsService, tasks, log)

	return &Container{
		DB:               db,
		Redis:            rdb,
		Logger:           log,
		Store:            store,
		Hub:              hub,
		SettingsService:  settingsService,
		CharacterService: characterService,
		ChatService:      chatService,
		ProactiveService: proactiveService,
		MomentService:    momentService,
	}, nil
}

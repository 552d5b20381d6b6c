package storage

import (
	"context"
	"time"

	"ai-companion-chat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Store is the persistence surface the services consume. The gorm-backed
// Service implements it; tests substitute a testify mock.
type Store interface {
	CreateCharacter(ch *models.Character) error
	GetCharacter(id string) (*models.Character, error)
	ListCharacters() ([]models.Character, error)
	UpdateCharacter(ch *models.Character) error
	DeleteCharacter(id string) error
	GroupMembers(groupID string) ([]models.Character, error)
	ReplaceGroupMembers(groupID string, memberIDs []string) error

	SaveMessage(msg *models.Message) error
	RecentMessages(chatID string, limit int) ([]models.Message, error)
	LastMessage(chatID string) (*models.Message, error)
	MarkMessagesRead(chatID string) error
	UnreadCount(chatID string) (int64, error)
	DeleteMessages(chatID string) error

	RelationshipsFor(characterID string) ([]models.Relationship, error)
	UpsertRelationship(rel *models.Relationship) error

	StickersFor(ownerID string) ([]models.Sticker, error)
	CreateSticker(st *models.Sticker) error
	DeleteSticker(id string) error

	CreateMoment(m *models.Moment) error
	GetMoment(id string) (*models.Moment, error)
	ListMoments() ([]models.Moment, error)
	DeleteMoment(id string) error
	LikeMoment(id string) error
	CreateComment(c *models.MomentComment) error
	CommentsFor(momentID string) ([]models.MomentComment, error)

	AllSettings() (map[string]string, error)
	PutSettings(values map[string]string) error
}

const (
	settingsCacheKey = "settings:all"
	unreadTTL        = 10 * time.Second
)

func unreadCacheKey(chatID string) string {
	return "unread:" + chatID
}

// Service is the gorm-backed Store. When a Redis client is provided the
// settings blob is cached under a short TTL since it is re-read on every
// chat turn; everything else goes straight to Postgres.
type Service struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Ctx         context.Context
	SettingsTTL time.Duration
}

// New creates a Service. rdb may be nil, which disables the settings cache.
func New(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:          db,
		Redis:       rdb,
		Ctx:         context.Background(),
		SettingsTTL: 30 * time.Second,
	}
}

// Migrate creates or updates the schema for every entity.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Character{},
		&models.GroupMember{},
		&models.Message{},
		&models.Relationship{},
		&models.Sticker{},
		&models.Moment{},
		&models.MomentComment{},
		&models.Setting{},
	)
}

package service

import (
	"context"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/storage"
	"ai-companion-chat/backend/pkg/cache"
	"ai-companion-chat/backend/pkg/secrets"
)

const settingsSnapshotKey = "settings_snapshot"

// Settings is the typed view over the flat settings blob, resolved once per
// request and passed explicitly into the composer and provider adapters.
type Settings struct {
	Chat        ai.ProviderConfig
	Vision      ai.ProviderConfig
	Image       ai.ProviderConfig
	UserName    string
	UserPersona string
}

// SettingsService reads and writes the settings blob. Provider API keys
// left empty in the blob fall back to the secrets manager, so deployments
// can keep keys in Vault (or env) instead of the database.
type SettingsService struct {
	store   storage.Store
	secrets secrets.Manager
	cache   *cache.Cache
}

func NewSettingsService(store storage.Store, secretsManager secrets.Manager, c *cache.Cache) *SettingsService {
	return &SettingsService{store: store, secrets: secretsManager, cache: c}
}

// All returns the raw key/value rows.
func (s *SettingsService) All() (map[string]string, error) {
	return s.store.AllSettings()
}

// Put upserts the given keys and invalidates the local snapshot.
func (s *SettingsService) Put(values map[string]string) error {
	if err := s.store.PutSettings(values); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Delete(settingsSnapshotKey)
	}
	return nil
}

// Snapshot resolves the typed settings view for one request.
func (s *SettingsService) Snapshot(ctx context.Context) (*Settings, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(settingsSnapshotKey); ok {
			if snapshot, ok := cached.(*Settings); ok {
				return snapshot, nil
			}
		}
	}

	values, err := s.store.AllSettings()
	if err != nil {
		return nil, err
	}

	snapshot := &Settings{
		Chat: ai.ProviderConfig{
			BaseURL: values[models.SettingChatAPIURL],
			APIKey:  s.resolveKey(ctx, values[models.SettingChatAPIKey], "chat_api_key"),
			Model:   values[models.SettingChatModel],
		},
		Vision: ai.ProviderConfig{
			BaseURL: values[models.SettingVisionAPIURL],
			APIKey:  s.resolveKey(ctx, values[models.SettingVisionAPIKey], "vision_api_key"),
			Model:   values[models.SettingVisionModel],
		},
		Image: ai.ProviderConfig{
			BaseURL: values[models.SettingImageAPIURL],
			APIKey:  s.resolveKey(ctx, values[models.SettingImageAPIKey], "image_api_key"),
			Model:   values[models.SettingImageModel],
		},
		UserName:    values[models.SettingUserName],
		UserPersona: values[models.SettingUserPersona],
	}

	if s.cache != nil {
		s.cache.Set(settingsSnapshotKey, snapshot)
	}
	return snapshot, nil
}

// resolveKey prefers the stored value, then the secrets manager.
func (s *SettingsService) resolveKey(ctx context.Context, stored, secretKey string) string {
	if stored != "" {
		return stored
	}
	if s.secrets == nil {
		return ""
	}
	return s.secrets.GetSecretWithDefault(ctx, secretKey, "")
}

package service

import (
	"context"
	"testing"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSecrets struct {
	values map[string]string
}

func (s *stubSecrets) GetSecret(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *stubSecrets) GetSecretWithDefault(_ context.Context, key, defaultValue string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	return defaultValue
}

func TestSnapshotResolvesTypedView(t *testing.T) {
	store := &mockStore{}
	store.On("AllSettings").Return(map[string]string{
		models.SettingChatAPIURL:  "https://llm.example.com/v1",
		models.SettingChatAPIKey:  "db-key",
		models.SettingChatModel:   "chat-model",
		models.SettingImageModel:  "image-model",
		models.SettingUserName:    "阿杰",
		models.SettingUserPersona: "程序员",
	}, nil)

	svc := NewSettingsService(store, nil, nil)
	snapshot, err := svc.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://llm.example.com/v1", snapshot.Chat.BaseURL)
	assert.Equal(t, "db-key", snapshot.Chat.APIKey)
	assert.True(t, snapshot.Chat.Configured())
	// Image has a model but no key from anywhere: unusable.
	assert.False(t, snapshot.Image.Configured())
	assert.Equal(t, "阿杰", snapshot.UserName)
	assert.Equal(t, "程序员", snapshot.UserPersona)
}

func TestSnapshotFallsBackToSecrets(t *testing.T) {
	store := &mockStore{}
	store.On("AllSettings").Return(map[string]string{
		models.SettingChatModel: "chat-model",
	}, nil)

	secretsManager := &stubSecrets{values: map[string]string{"chat_api_key": "vault-key"}}
	svc := NewSettingsService(store, secretsManager, nil)

	snapshot, err := svc.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "vault-key", snapshot.Chat.APIKey)
	assert.True(t, snapshot.Chat.Configured())
}

func TestSnapshotStoredKeyWinsOverSecrets(t *testing.T) {
	store := &mockStore{}
	store.On("AllSettings").Return(map[string]string{
		models.SettingChatAPIKey: "db-key",
		models.SettingChatModel:  "chat-model",
	}, nil)

	secretsManager := &stubSecrets{values: map[string]string{"chat_api_key": "vault-key"}}
	svc := NewSettingsService(store, secretsManager, nil)

	snapshot, err := svc.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "db-key", snapshot.Chat.APIKey)
}

func TestPutInvalidatesCachedSnapshot(t *testing.T) {
	store := &mockStore{}
	store.On("AllSettings").Return(map[string]string{
		models.SettingChatAPIKey: "first",
		models.SettingChatModel:  "m",
	}, nil).Once()
	store.On("PutSettings", mock.Anything).Return(nil)
	store.On("AllSettings").Return(map[string]string{
		models.SettingChatAPIKey: "second",
		models.SettingChatModel:  "m",
	}, nil).Once()

	svc := NewSettingsService(store, nil, cache.NewCache())

	before, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", before.Chat.APIKey)

	// Cached: the store is not consulted again.
	again, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", again.Chat.APIKey)

	require.NoError(t, svc.Put(map[string]string{models.SettingChatAPIKey: "second"}))

	after, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", after.Chat.APIKey)
}

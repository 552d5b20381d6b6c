package service

import (
	"ai-companion-chat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// mockStore is a testify mock over storage.Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateCharacter(ch *models.Character) error {
	return m.Called(ch).Error(0)
}

func (m *mockStore) GetCharacter(id string) (*models.Character, error) {
	args := m.Called(id)
	if ch := args.Get(0); ch != nil {
		return ch.(*models.Character), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListCharacters() ([]models.Character, error) {
	args := m.Called()
	if chs := args.Get(0); chs != nil {
		return chs.([]models.Character), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpdateCharacter(ch *models.Character) error {
	return m.Called(ch).Error(0)
}

func (m *mockStore) DeleteCharacter(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockStore) GroupMembers(groupID string) ([]models.Character, error) {
	args := m.Called(groupID)
	if chs := args.Get(0); chs != nil {
		return chs.([]models.Character), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ReplaceGroupMembers(groupID string, memberIDs []string) error {
	return m.Called(groupID, memberIDs).Error(0)
}

func (m *mockStore) SaveMessage(msg *models.Message) error {
	return m.Called(msg).Error(0)
}

func (m *mockStore) RecentMessages(chatID string, limit int) ([]models.Message, error) {
	args := m.Called(chatID, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) LastMessage(chatID string) (*models.Message, error) {
	args := m.Called(chatID)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) MarkMessagesRead(chatID string) error {
	return m.Called(chatID).Error(0)
}

func (m *mockStore) UnreadCount(chatID string) (int64, error) {
	args := m.Called(chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DeleteMessages(chatID string) error {
	return m.Called(chatID).Error(0)
}

func (m *mockStore) RelationshipsFor(characterID string) ([]models.Relationship, error) {
	args := m.Called(characterID)
	if rels := args.Get(0); rels != nil {
		return rels.([]models.Relationship), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpsertRelationship(rel *models.Relationship) error {
	return m.Called(rel).Error(0)
}

func (m *mockStore) StickersFor(ownerID string) ([]models.Sticker, error) {
	args := m.Called(ownerID)
	if stickers := args.Get(0); stickers != nil {
		return stickers.([]models.Sticker), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CreateSticker(st *models.Sticker) error {
	return m.Called(st).Error(0)
}

func (m *mockStore) DeleteSticker(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockStore) CreateMoment(moment *models.Moment) error {
	return m.Called(moment).Error(0)
}

func (m *mockStore) GetMoment(id string) (*models.Moment, error) {
	args := m.Called(id)
	if moment := args.Get(0); moment != nil {
		return moment.(*models.Moment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListMoments() ([]models.Moment, error) {
	args := m.Called()
	if moments := args.Get(0); moments != nil {
		return moments.([]models.Moment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) DeleteMoment(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockStore) LikeMoment(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockStore) CreateComment(comment *models.MomentComment) error {
	return m.Called(comment).Error(0)
}

func (m *mockStore) CommentsFor(momentID string) ([]models.MomentComment, error) {
	args := m.Called(momentID)
	if comments := args.Get(0); comments != nil {
		return comments.([]models.MomentComment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) AllSettings() (map[string]string, error) {
	args := m.Called()
	if values := args.Get(0); values != nil {
		return values.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) PutSettings(values map[string]string) error {
	return m.Called(values).Error(0)
}

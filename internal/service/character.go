package service

import (
	"errors"
	"time"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/storage"

	"github.com/google/uuid"
)

type CharacterService struct {
	store storage.Store
}

func NewCharacterService(store storage.Store) *CharacterService {
	return &CharacterService{store: store}
}

func (s *CharacterService) CreateCharacter(req *models.CreateCharacterRequest) (*models.Character, error) {
	if req.Name == "" {
		return nil, errors.New("character name is required")
	}
	if req.IsGroup && len(req.MemberIDs) == 0 {
		return nil, errors.New("a group needs at least one member")
	}

	character := &models.Character{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Avatar:         req.Avatar,
		Bio:            req.Bio,
		Personality:    req.Personality,
		Gender:         req.Gender,
		OtherInfo:      req.OtherInfo,
		Background:     req.Background,
		RelationToUser: req.RelationToUser,
		IsGroup:        req.IsGroup,
		GroupReplyMode: defaultString(req.GroupReplyMode, models.ReplyModeNatural),
		ReplyStrategy:  defaultString(req.ReplyStrategy, models.StrategyNormal),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.store.CreateCharacter(character); err != nil {
		return nil, err
	}
	if character.IsGroup {
		if err := s.store.ReplaceGroupMembers(character.ID, req.MemberIDs); err != nil {
			return nil, err
		}
	}
	return character, nil
}

func (s *CharacterService) GetCharacter(id string) (*models.Character, error) {
	return s.store.GetCharacter(id)
}

func (s *CharacterService) ListCharacters() ([]models.Character, error) {
	return s.store.ListCharacters()
}

func (s *CharacterService) GroupMembers(groupID string) ([]models.Character, error) {
	return s.store.GroupMembers(groupID)
}

// UpdateCharacter mutates the character's profile. IsGroup never changes;
// a group's membership is rewritten wholesale when MemberIDs is present.
func (s *CharacterService) UpdateCharacter(id string, req *models.UpdateCharacterRequest) (*models.Character, error) {
	character, err := s.store.GetCharacter(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		character.Name = req.Name
	}
	character.Avatar = req.Avatar
	character.Bio = req.Bio
	character.Personality = req.Personality
	character.Gender = req.Gender
	character.OtherInfo = req.OtherInfo
	character.Background = req.Background
	character.RelationToUser = req.RelationToUser
	if req.GroupReplyMode != "" {
		character.GroupReplyMode = req.GroupReplyMode
	}
	if req.ReplyStrategy != "" {
		character.ReplyStrategy = req.ReplyStrategy
	}
	character.UpdatedAt = time.Now()

	if err := s.store.UpdateCharacter(character); err != nil {
		return nil, err
	}
	if character.IsGroup && req.MemberIDs != nil {
		if err := s.store.ReplaceGroupMembers(character.ID, *req.MemberIDs); err != nil {
			return nil, err
		}
	}
	return character, nil
}

// DeleteCharacter cascades to messages, stickers, relationships and group
// membership rows.
func (s *CharacterService) DeleteCharacter(id string) error {
	return s.store.DeleteCharacter(id)
}

func (s *CharacterService) RelationshipsFor(characterID string) ([]models.Relationship, error) {
	return s.store.RelationshipsFor(characterID)
}

func (s *CharacterService) UpsertRelationship(characterID string, req *models.UpsertRelationshipRequest) (*models.Relationship, error) {
	rel := &models.Relationship{
		CharacterID: characterID,
		TargetID:    req.TargetID,
		Label:       req.Label,
		Description: req.Description,
	}
	if err := s.store.UpsertRelationship(rel); err != nil {
		return nil, err
	}
	return rel, nil
}

func (s *CharacterService) StickersFor(ownerID string) ([]models.Sticker, error) {
	return s.store.StickersFor(ownerID)
}

func (s *CharacterService) CreateSticker(req *models.CreateStickerRequest) (*models.Sticker, error) {
	sticker := &models.Sticker{
		ID:          uuid.New().String(),
		OwnerID:     req.OwnerID,
		URL:         req.URL,
		Description: req.Description,
	}
	if err := s.store.CreateSticker(sticker); err != nil {
		return nil, err
	}
	return sticker, nil
}

func (s *CharacterService) DeleteSticker(id string) error {
	return s.store.DeleteSticker(id)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

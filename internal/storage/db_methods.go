package storage

import (
	"encoding/json"
	"errors"

	"ai-companion-chat/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Service) CreateCharacter(ch *models.Character) error {
	return s.DB.Create(ch).Error
}

func (s *Service) GetCharacter(id string) (*models.Character, error) {
	var ch models.Character
	if err := s.DB.First(&ch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *Service) ListCharacters() ([]models.Character, error) {
	var chars []models.Character
	if err := s.DB.Order("created_at").Find(&chars).Error; err != nil {
		return nil, err
	}
	return chars, nil
}

func (s *Service) UpdateCharacter(ch *models.Character) error {
	return s.DB.Save(ch).Error
}

// DeleteCharacter removes a character and everything hanging off it.
// Each delete is its own statement; a partial failure leaves earlier
// deletes in place, matching the per-write atomicity of the rest of the
// system.
func (s *Service) DeleteCharacter(id string) error {
	if err := s.DB.Where("chat_id = ? OR sender_id = ?", id, id).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	if err := s.DB.Where("owner_id = ?", id).Delete(&models.Sticker{}).Error; err != nil {
		return err
	}
	if err := s.DB.Where("character_id = ? OR target_id = ?", id, id).Delete(&models.Relationship{}).Error; err != nil {
		return err
	}
	if err := s.DB.Where("group_id = ? OR member_id = ?", id, id).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	var momentIDs []string
	if err := s.DB.Model(&models.Moment{}).Where("author_id = ?", id).Pluck("id", &momentIDs).Error; err != nil {
		return err
	}
	if len(momentIDs) > 0 {
		if err := s.DB.Where("moment_id IN ?", momentIDs).Delete(&models.MomentComment{}).Error; err != nil {
			return err
		}
	}
	if err := s.DB.Where("author_id = ?", id).Delete(&models.Moment{}).Error; err != nil {
		return err
	}
	if err := s.DB.Where("author_id = ?", id).Delete(&models.MomentComment{}).Error; err != nil {
		return err
	}
	return s.DB.Delete(&models.Character{}, "id = ?", id).Error
}

func (s *Service) GroupMembers(groupID string) ([]models.Character, error) {
	var rows []models.GroupMember
	if err := s.DB.Where("group_id = ?", groupID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	members := make([]models.Character, 0, len(rows))
	for _, row := range rows {
		var ch models.Character
		if err := s.DB.First(&ch, "id = ?", row.MemberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		members = append(members, ch)
	}
	return members, nil
}

func (s *Service) ReplaceGroupMembers(groupID string, memberIDs []string) error {
	if err := s.DB.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	for _, memberID := range memberIDs {
		if err := s.DB.Create(&models.GroupMember{GroupID: groupID, MemberID: memberID}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SaveMessage(msg *models.Message) error {
	err := s.DB.Create(msg).Error
	if err == nil && s.Redis != nil && msg.SenderID != models.SenderUser {
		s.Redis.Del(s.Ctx, unreadCacheKey(msg.ChatID))
	}
	return err
}

// RecentMessages returns up to limit messages for a chat, most recent
// first. Callers reverse the slice when they need chronological order.
func (s *Service) RecentMessages(chatID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.DB.Where("chat_id = ?", chatID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Service) LastMessage(chatID string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Where("chat_id = ?", chatID).Order("timestamp DESC").First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) MarkMessagesRead(chatID string) error {
	err := s.DB.Model(&models.Message{}).
		Where("chat_id = ? AND status = ?", chatID, models.StatusSent).
		Update("status", models.StatusRead).Error
	if err == nil && s.Redis != nil {
		s.Redis.Del(s.Ctx, unreadCacheKey(chatID))
	}
	return err
}

// UnreadCount counts unread character messages in a chat, cached briefly in
// Redis so chat-list polling does not hammer Postgres.
func (s *Service) UnreadCount(chatID string) (int64, error) {
	key := unreadCacheKey(chatID)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(s.Ctx, key).Int64(); err == nil {
			return cached, nil
		}
	}

	var count int64
	err := s.DB.Model(&models.Message{}).
		Where("chat_id = ? AND status = ? AND sender_id <> ?", chatID, models.StatusSent, models.SenderUser).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if s.Redis != nil {
		s.Redis.Set(s.Ctx, key, count, unreadTTL)
	}
	return count, nil
}

func (s *Service) DeleteMessages(chatID string) error {
	return s.DB.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error
}

func (s *Service) RelationshipsFor(characterID string) ([]models.Relationship, error) {
	var rels []models.Relationship
	if err := s.DB.Where("character_id = ?", characterID).Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// UpsertRelationship replaces the whole row on (character_id, target_id)
// conflict.
func (s *Service) UpsertRelationship(rel *models.Relationship) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "character_id"}, {Name: "target_id"}},
		UpdateAll: true,
	}).Create(rel).Error
}

func (s *Service) StickersFor(ownerID string) ([]models.Sticker, error) {
	var stickers []models.Sticker
	if err := s.DB.Where("owner_id = ?", ownerID).Find(&stickers).Error; err != nil {
		return nil, err
	}
	return stickers, nil
}

func (s *Service) CreateSticker(st *models.Sticker) error {
	return s.DB.Create(st).Error
}

func (s *Service) DeleteSticker(id string) error {
	return s.DB.Delete(&models.Sticker{}, "id = ?", id).Error
}

func (s *Service) CreateMoment(m *models.Moment) error {
	return s.DB.Create(m).Error
}

func (s *Service) GetMoment(id string) (*models.Moment, error) {
	var m models.Moment
	if err := s.DB.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) ListMoments() ([]models.Moment, error) {
	var moments []models.Moment
	if err := s.DB.Order("timestamp DESC").Find(&moments).Error; err != nil {
		return nil, err
	}
	return moments, nil
}

func (s *Service) DeleteMoment(id string) error {
	if err := s.DB.Where("moment_id = ?", id).Delete(&models.MomentComment{}).Error; err != nil {
		return err
	}
	return s.DB.Delete(&models.Moment{}, "id = ?", id).Error
}

// LikeMoment increments the like counter in place. The counter only ever
// goes up.
func (s *Service) LikeMoment(id string) error {
	return s.DB.Model(&models.Moment{}).
		Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error
}

func (s *Service) CreateComment(c *models.MomentComment) error {
	return s.DB.Create(c).Error
}

func (s *Service) CommentsFor(momentID string) ([]models.MomentComment, error) {
	var comments []models.MomentComment
	if err := s.DB.Where("moment_id = ?", momentID).Order("timestamp").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// AllSettings reads the full settings blob, via the Redis cache when one is
// configured. Cache misses and cache errors both fall through to Postgres.
func (s *Service) AllSettings() (map[string]string, error) {
	if s.Redis != nil {
		// A cache miss, an unreachable Redis and a corrupt entry all fall
		// through to Postgres.
		if cached, err := s.Redis.Get(s.Ctx, settingsCacheKey).Result(); err == nil {
			var values map[string]string
			if jsonErr := json.Unmarshal([]byte(cached), &values); jsonErr == nil {
				return values, nil
			}
		}
	}

	var rows []models.Setting
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}

	if s.Redis != nil {
		if encoded, err := json.Marshal(values); err == nil {
			s.Redis.Set(s.Ctx, settingsCacheKey, encoded, s.SettingsTTL)
		}
	}
	return values, nil
}

func (s *Service) PutSettings(values map[string]string) error {
	for key, value := range values {
		row := models.Setting{Key: key, Value: value}
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).Create(&row).Error; err != nil {
			return err
		}
	}
	if s.Redis != nil {
		s.Redis.Del(s.Ctx, settingsCacheKey)
	}
	return nil
}

package models

import (
	"time"
)

// Relationship describes how a character relates to another character or to
// the user sentinel. Edits replace the whole row.
type Relationship struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CharacterID string `json:"character_id" gorm:"index:idx_rel_pair,unique;type:uuid"`
	TargetID    string `json:"target_id" gorm:"index:idx_rel_pair,unique"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Sticker is an image a character (or the user) can send in chat. Model
// output references stickers by id via the [sticker:<id>] directive.
type Sticker struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID     string `json:"owner_id" gorm:"index"`
	URL         string `json:"url" gorm:"not null"`
	Description string `json:"description"`
}

// Moment is a social-feed post with a monotonically increasing like counter.
type Moment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	AuthorID  string    `json:"author_id" gorm:"index"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int       `json:"likes" gorm:"default:0"`
}

// MomentComment is one comment under a moment, ordered by timestamp.
type MomentComment struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	MomentID   string    `json:"moment_id" gorm:"index"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Setting is one row of the flat key/value configuration blob holding
// provider endpoints, keys, models and the user persona.
type Setting struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value"`
}

// Known settings keys.
const (
	SettingChatAPIURL   = "chat_api_url"
	SettingChatAPIKey   = "chat_api_key"
	SettingChatModel    = "chat_model"
	SettingVisionAPIURL = "vision_api_url"
	SettingVisionAPIKey = "vision_api_key"
	SettingVisionModel  = "vision_model"
	SettingImageAPIURL  = "image_api_url"
	SettingImageAPIKey  = "image_api_key"
	SettingImageModel   = "image_model"
	SettingUserName     = "user_name"
	SettingUserPersona  = "user_persona"
)

type UpsertRelationshipRequest struct {
	TargetID    string `json:"target_id" binding:"required"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type CreateStickerRequest struct {
	OwnerID     string `json:"owner_id" binding:"required"`
	URL         string `json:"url" binding:"required"`
	Description string `json:"description"`
}

type CreateMomentRequest struct {
	AuthorID string `json:"author_id" binding:"required"`
	Content  string `json:"content"`
	Image    string `json:"image"`
}

type CreateCommentRequest struct {
	AuthorID string `json:"author_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

package models

import (
	"time"
)

// Message types
const (
	MessageText      = "text"
	MessageImage     = "image"
	MessageSticker   = "sticker"
	MessageNarration = "narration"
)

// Message statuses
const (
	StatusSent = "sent"
	StatusRead = "read"
)

// Message is one displayed unit of a chat thread. Within a chat id the
// Timestamp column defines total display order; AI replies that fan out
// into several fragments are stamped with small increasing offsets so the
// intended order survives near-simultaneous inserts.
type Message struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	ChatID       string    `json:"chat_id" gorm:"index:idx_chat_ts;type:uuid"`
	SenderID     string    `json:"sender_id" gorm:"index"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	Content      string    `json:"content"`
	Type         string    `json:"type" gorm:"default:text"`
	Timestamp    time.Time `json:"timestamp" gorm:"index:idx_chat_ts"`
	Status       string    `json:"status" gorm:"default:sent"`
}

// Chat modes accepted by the send endpoint.
const (
	ModeChat     = "chat"
	ModeScenario = "scenario"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
	Mode    string `json:"mode"`
	Scene   string `json:"scene"`
}

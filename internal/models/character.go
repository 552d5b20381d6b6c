package models

import (
	"time"
)

// SenderUser is the sentinel id used wherever the human user appears as a
// message sender, sticker owner, moment author or relationship target.
const SenderUser = "user"

// Group reply modes
const (
	ReplyModeNatural   = "natural"
	ReplyModeAll       = "all"
	ReplyModeMentioned = "mentioned"
)

// Reply strategies (proactive cadence policy per character)
const (
	StrategyActive  = "active"
	StrategyNormal  = "normal"
	StrategyPassive = "passive"
	StrategyManual  = "manual"
)

// Character is a persona the user can chat with, or a group of personas
// when IsGroup is set. IsGroup is immutable after creation.
type Character struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name           string    `json:"name" gorm:"not null"`
	Avatar         string    `json:"avatar"`
	Bio            string    `json:"bio"`
	Personality    string    `json:"personality"`
	Gender         string    `json:"gender"`
	OtherInfo      string    `json:"other_info"`
	Background     string    `json:"background"`
	RelationToUser string    `json:"relation_to_user"`
	IsGroup        bool      `json:"is_group" gorm:"default:false"`
	GroupReplyMode string    `json:"group_reply_mode" gorm:"default:natural"`
	ReplyStrategy  string    `json:"reply_strategy" gorm:"default:normal"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GroupMember links a group character to one of its member characters.
// Rows are rewritten wholesale when the group is updated and removed when
// the group is deleted.
type GroupMember struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	GroupID  string `json:"group_id" gorm:"index:idx_group_member,unique;type:uuid"`
	MemberID string `json:"member_id" gorm:"index:idx_group_member,unique;type:uuid"`
}

type CreateCharacterRequest struct {
	Name           string   `json:"name" binding:"required"`
	Avatar         string   `json:"avatar"`
	Bio            string   `json:"bio"`
	Personality    string   `json:"personality"`
	Gender         string   `json:"gender"`
	OtherInfo      string   `json:"other_info"`
	Background     string   `json:"background"`
	RelationToUser string   `json:"relation_to_user"`
	IsGroup        bool     `json:"is_group"`
	GroupReplyMode string   `json:"group_reply_mode"`
	ReplyStrategy  string   `json:"reply_strategy"`
	MemberIDs      []string `json:"member_ids"`
}

// UpdateCharacterRequest carries the mutable character fields. MemberIDs is
// a pointer so an absent field leaves the membership untouched while an
// empty list clears it.
type UpdateCharacterRequest struct {
	Name           string    `json:"name"`
	Avatar         string    `json:"avatar"`
	Bio            string    `json:"bio"`
	Personality    string    `json:"personality"`
	Gender         string    `json:"gender"`
	OtherInfo      string    `json:"other_info"`
	Background     string    `json:"background"`
	RelationToUser string    `json:"relation_to_user"`
	GroupReplyMode string    `json:"group_reply_mode"`
	ReplyStrategy  string    `json:"reply_strategy"`
	MemberIDs      *[]string `json:"member_ids"`
}

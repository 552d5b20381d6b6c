package chat

import (
	"testing"
	"time"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptResponder() *models.Character {
	return &models.Character{
		ID:          "c1",
		Name:        "小雨",
		Personality: "温柔",
	}
}

func TestComposeSystemPromptIdentityAndRules(t *testing.T) {
	prompt := ComposeSystemPrompt(PromptInput{Responder: promptResponder()})

	assert.Contains(t, prompt, "你是小雨")
	assert.Contains(t, prompt, "[NEXT]")
	assert.Contains(t, prompt, "始终使用中文")
	assert.Contains(t, prompt, "No specific relationships defined.")
	// No image provider configured: the directive must not be advertised.
	assert.NotContains(t, prompt, "[生图")
}

func TestComposeSystemPromptRelationships(t *testing.T) {
	in := PromptInput{
		Responder: promptResponder(),
		UserName:  "阿杰",
		Relationships: []models.Relationship{
			{CharacterID: "c1", TargetID: models.SenderUser, Label: "恋人", Description: "认识三年"},
			{CharacterID: "c1", TargetID: "c2", Label: "同事"},
			{CharacterID: "c1", TargetID: "ghost", Label: "朋友"},
		},
		KnownNames: map[string]string{"c2": "老王"},
	}

	prompt := ComposeSystemPrompt(in)

	assert.Contains(t, prompt, "relationship with 阿杰: 恋人. Context: 认识三年")
	assert.Contains(t, prompt, "relationship with 老王: 同事.")
	// Unknown target falls back to its raw id.
	assert.Contains(t, prompt, "relationship with ghost: 朋友.")
}

func TestComposeSystemPromptStickerInventory(t *testing.T) {
	in := PromptInput{
		Responder: promptResponder(),
		Stickers: []models.Sticker{
			{ID: "st-1", Description: "开心"},
			{ID: "st-2"},
		},
		ImageEnabled: true,
	}

	prompt := ComposeSystemPrompt(in)

	assert.Contains(t, prompt, "ID st-1：开心")
	assert.Contains(t, prompt, "ID st-2：（无描述）")
	assert.Contains(t, prompt, "[生图:")
}

func TestComposeMessagesRolesAndAttribution(t *testing.T) {
	now := time.Now()
	in := PromptInput{
		Responder: promptResponder(),
		History: []models.Message{
			{SenderID: models.SenderUser, Content: "你们好", Type: models.MessageText, Timestamp: now},
			{SenderID: "c2", SenderName: "老王", Content: "来了", Type: models.MessageText, Timestamp: now},
			{SenderID: "c1", SenderName: "小雨", Content: "我也在", Type: models.MessageText, Timestamp: now},
		},
	}

	messages := ComposeMessages(in, true)

	require.Len(t, messages, 4)
	assert.Equal(t, ai.RoleSystem, messages[0].Role)
	assert.Equal(t, ai.RoleUser, messages[1].Role)
	assert.Equal(t, "你们好", messages[1].Content)
	// Other characters become attributed user turns.
	assert.Equal(t, ai.RoleUser, messages[2].Role)
	assert.Equal(t, "老王: 来了", messages[2].Content)
	// The responder's own lines are assistant turns.
	assert.Equal(t, ai.RoleAssistant, messages[3].Role)
	assert.Equal(t, "我也在", messages[3].Content)
}

func TestComposeMessagesScenarioScenePrefix(t *testing.T) {
	in := PromptInput{
		Responder: promptResponder(),
		Mode:      models.ModeScenario,
		Scene:     "深夜的图书馆",
		History: []models.Message{
			{SenderID: models.SenderUser, Content: "早上好", Type: models.MessageText},
			{SenderID: "c1", Content: "早", Type: models.MessageText},
			{SenderID: models.SenderUser, Content: "我来了", Type: models.MessageText},
		},
	}

	messages := ComposeMessages(in, true)

	require.Len(t, messages, 4)
	// Scene attaches to the LAST user entry only.
	assert.Equal(t, "早上好", messages[1].Content)
	assert.Equal(t, "（场景：深夜的图书馆）我来了", messages[3].Content)
}

func TestComposeMessagesVisionNotePlacement(t *testing.T) {
	in := PromptInput{
		Responder:  promptResponder(),
		VisionNote: "一只猫趴在键盘上",
		History: []models.Message{
			{SenderID: models.SenderUser, Content: "data:image/png;base64,xx", Type: models.MessageImage},
		},
	}

	native := ComposeMessages(in, true)
	require.Len(t, native, 3)
	assert.Equal(t, ai.RoleSystem, native[2].Role)
	assert.Contains(t, native[2].Content, "一只猫趴在键盘上")

	openai := ComposeMessages(in, false)
	require.Len(t, openai, 3)
	assert.Equal(t, ai.RoleUser, openai[2].Role)
}

func TestComposeMessagesPlaceholdersForMedia(t *testing.T) {
	in := PromptInput{
		Responder: promptResponder(),
		History: []models.Message{
			{SenderID: models.SenderUser, Content: "data:image/png;base64,xx", Type: models.MessageImage},
			{SenderID: "c1", Content: "https://cdn/st.png", Type: models.MessageSticker},
		},
	}

	messages := ComposeMessages(in, true)

	require.Len(t, messages, 3)
	assert.Equal(t, "（发送了一张图片）", messages[1].Content)
	assert.Equal(t, "（发送了一个表情包）", messages[2].Content)
}

func TestComposeProactivePrompt(t *testing.T) {
	responder := promptResponder()
	responder.RelationToUser = "恋人"

	prompt := ComposeProactivePrompt(responder, "阿杰")

	assert.Contains(t, prompt, "你是小雨")
	assert.Contains(t, prompt, "阿杰")
	assert.Contains(t, prompt, "主动")
}

func TestComposeMomentPrompt(t *testing.T) {
	prompt := ComposeMomentPrompt(promptResponder(), "阿杰", "今天加班到十点")

	assert.Contains(t, prompt, "阿杰发了一条动态")
	assert.Contains(t, prompt, "今天加班到十点")
	assert.Contains(t, prompt, "评论")
}

package chat

import (
	"fmt"
	"strings"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/models"
)

// History window sizes. Ordinary turns see the last 20 messages; proactive
// triggers and moment prompts work from a smaller slice.
const (
	HistoryWindowChat      = 20
	HistoryWindowProactive = 10
	HistoryWindowMoment    = 5
)

// PromptInput bundles everything the composer needs for one responder.
type PromptInput struct {
	Responder     *models.Character
	History       []models.Message // chronological order
	UserName      string
	UserPersona   string
	Relationships []models.Relationship
	KnownNames    map[string]string // id -> display name for relationship targets
	Stickers      []models.Sticker
	GroupName     string
	MemberNames   []string
	Mode          string
	Scene         string
	ImageEnabled  bool
	VisionNote    string // description of an incoming image, empty if none
}

// ComposeSystemPrompt renders the instruction block binding the model to
// the responder's identity, persona, relationships and formatting contract.
func ComposeSystemPrompt(in PromptInput) string {
	var b strings.Builder
	responder := in.Responder

	fmt.Fprintf(&b, "你是%s。从现在开始完全以这个身份行动和说话。\n", responder.Name)
	if responder.Gender != "" {
		fmt.Fprintf(&b, "性别：%s\n", responder.Gender)
	}
	if responder.Bio != "" {
		fmt.Fprintf(&b, "简介：%s\n", responder.Bio)
	}
	if responder.Personality != "" {
		fmt.Fprintf(&b, "性格：%s\n", responder.Personality)
	}
	if responder.RelationToUser != "" {
		fmt.Fprintf(&b, "你与%s的关系：%s\n", userDisplayName(in.UserName), responder.RelationToUser)
	}
	if responder.OtherInfo != "" {
		fmt.Fprintf(&b, "其他信息：%s\n", responder.OtherInfo)
	}
	if responder.Background != "" {
		fmt.Fprintf(&b, "背景设定：%s\n", responder.Background)
	}

	b.WriteString("\n")
	if len(in.Relationships) == 0 {
		b.WriteString("No specific relationships defined.\n")
	} else {
		for _, rel := range in.Relationships {
			b.WriteString(renderRelationship(rel, in.UserName, in.KnownNames))
		}
	}

	if in.GroupName != "" {
		fmt.Fprintf(&b, "\n你正处于群聊「%s」中，群成员有：%s。群里其他人的发言会以「名字: 内容」的形式出现。\n",
			in.GroupName, strings.Join(in.MemberNames, "、"))
	}

	if in.UserPersona != "" {
		fmt.Fprintf(&b, "\n用户（%s）的人设：%s\n", userDisplayName(in.UserName), in.UserPersona)
	}

	if in.Mode == models.ModeScenario {
		b.WriteString("\n当前处于剧情模式。先输出一段第三人称旁白描写，再输出你的对话内容，两者之间必须用 ||| 分隔。旁白不要带引号。\n")
	}

	b.WriteString("\n对话规则：\n")
	fmt.Fprintf(&b, "1. 你只能以%s的身份说话，绝不能替其他人（包括用户）说话或行动。\n", responder.Name)
	b.WriteString("2. 你可以把回复拆成多条消息，消息之间用 [NEXT] 分隔。\n")
	if len(in.Stickers) > 0 {
		b.WriteString("3. 你有以下表情包，想发送时在回复中插入 [sticker:ID]：\n")
		for _, sticker := range in.Stickers {
			desc := sticker.Description
			if desc == "" {
				desc = "（无描述）"
			}
			fmt.Fprintf(&b, "   - ID %s：%s\n", sticker.ID, desc)
		}
	} else {
		b.WriteString("3. 你当前没有可用的表情包，不要输出 [sticker:ID]。\n")
	}
	if in.ImageEnabled {
		b.WriteString("4. 你可以生成图片发给对方：在回复中插入 [生图: 画面的英文描述]，系统会把它替换成真实图片。\n")
	}
	b.WriteString("5. 对话中出现过的图片已经由系统替换为文字描述，把这些描述当作你真实看到的画面，不要再询问图片内容。\n")
	fmt.Fprintf(&b, "6. 不要在回复开头加「%s:」或任何名字前缀。\n", responder.Name)
	b.WriteString("7. 始终使用中文回复。\n")

	return b.String()
}

// renderRelationship renders one relationship row. The target falls back to
// its raw id when the name map does not know it.
func renderRelationship(rel models.Relationship, userName string, names map[string]string) string {
	target := names[rel.TargetID]
	if rel.TargetID == models.SenderUser {
		target = userDisplayName(userName)
	}
	if target == "" {
		target = rel.TargetID
	}
	line := fmt.Sprintf("relationship with %s: %s.", target, rel.Label)
	if rel.Description != "" {
		line += " Context: " + rel.Description
	}
	return line + "\n"
}

func userDisplayName(userName string) string {
	if userName == "" {
		return "用户"
	}
	return userName
}

// ComposeMessages converts chronological history into the role-tagged
// sequence for the provider. Scenario scene text is prefixed onto the last
// user-attributed entry rather than injected as a separate turn. The vision
// note for an incoming image attaches as an extra system note on the native
// provider path and as an appended user turn on the OpenAI-compatible path.
func ComposeMessages(in PromptInput, nativeProvider bool) []ai.Message {
	messages := []ai.Message{{Role: ai.RoleSystem, Content: ComposeSystemPrompt(in)}}

	history := make([]ai.Message, 0, len(in.History))
	lastUserIdx := -1
	for _, msg := range in.History {
		entry := historyEntry(msg, in.Responder.ID)
		if entry.Role == ai.RoleUser && msg.SenderID == models.SenderUser {
			lastUserIdx = len(history)
		}
		history = append(history, entry)
	}

	if in.Mode == models.ModeScenario && in.Scene != "" && lastUserIdx >= 0 {
		history[lastUserIdx].Content = fmt.Sprintf("（场景：%s）%s", in.Scene, history[lastUserIdx].Content)
	}

	messages = append(messages, history...)

	if in.VisionNote != "" {
		note := "（系统注：用户刚发来一张图片，内容为：" + in.VisionNote + "）"
		if nativeProvider {
			messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: note})
		} else {
			messages = append(messages, ai.Message{Role: ai.RoleUser, Content: note})
		}
	}
	return messages
}

// historyEntry maps one stored message onto a provider role. The
// responder's own lines become assistant turns; everything else is user
// input, with non-user senders attributed by name so group members stay
// distinguishable.
func historyEntry(msg models.Message, responderID string) ai.Message {
	content := msg.Content
	switch msg.Type {
	case models.MessageSticker:
		content = "（发送了一个表情包）"
	case models.MessageImage:
		if strings.HasPrefix(content, "data:") {
			content = "（发送了一张图片）"
		}
	}

	if msg.SenderID == responderID {
		return ai.Message{Role: ai.RoleAssistant, Content: content}
	}
	if msg.SenderID != models.SenderUser && msg.SenderName != "" {
		content = msg.SenderName + ": " + content
	}
	return ai.Message{Role: ai.RoleUser, Content: content}
}

// ComposeProactivePrompt builds the cadence-oriented prompt used when a
// character initiates contact on its own. The reply is treated as plain
// text, so none of the directive rules apply here.
func ComposeProactivePrompt(responder *models.Character, userName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "你是%s。", responder.Name)
	if responder.Personality != "" {
		fmt.Fprintf(&b, "性格：%s。", responder.Personality)
	}
	if responder.RelationToUser != "" {
		fmt.Fprintf(&b, "你与%s的关系：%s。", userDisplayName(userName), responder.RelationToUser)
	}
	b.WriteString("你们已经有一段时间没说话了。主动给对方发一条自然的消息，可以是关心、分享日常或接续之前的话题。")
	b.WriteString("只输出一条简短的消息内容，不要任何前缀、旁白或特殊标记。始终使用中文。")
	return b.String()
}

// ComposeMomentPrompt builds the prompt for a character commenting on a
// moments post.
func ComposeMomentPrompt(responder *models.Character, authorName, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "你是%s。", responder.Name)
	if responder.Personality != "" {
		fmt.Fprintf(&b, "性格：%s。", responder.Personality)
	}
	fmt.Fprintf(&b, "%s发了一条动态：「%s」。", authorName, content)
	b.WriteString("以你的身份写一条简短自然的评论，只输出评论内容本身，始终使用中文。")
	return b.String()
}

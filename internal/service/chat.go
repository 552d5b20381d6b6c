package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/chat"
	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/storage"
	"ai-companion-chat/backend/pkg/config"
	"ai-companion-chat/backend/pkg/errors"
	"ai-companion-chat/backend/pkg/logger"
	"ai-companion-chat/backend/shared/observability"

	"github.com/google/uuid"
)

// Broadcaster pushes newly persisted messages to connected clients. The
// websocket hub implements it; a nil broadcaster disables push.
type Broadcaster interface {
	BroadcastMessage(msg models.Message)
}

// ClientFactory builds a provider client for a config triple. Tests swap it
// for a stub.
type ClientFactory func(cfg ai.ProviderConfig) (ai.Client, error)

// ChatService orchestrates one inbound turn: resolve responders, compose
// prompts, call the provider, parse fragments and persist them.
type ChatService struct {
	store       storage.Store
	settings    *SettingsService
	hub         Broadcaster
	newClient   ClientFactory
	rng         *syncRand
	now         func() time.Time
	temperature float64
	log         *logger.Logger
}

func NewChatService(store storage.Store, settings *SettingsService, hub Broadcaster, log *logger.Logger) *ChatService {
	return &ChatService{
		store:       store,
		settings:    settings,
		hub:         hub,
		newClient:   ai.NewClient,
		rng:         newSyncRand(),
		now:         time.Now,
		temperature: config.Get().Chat.Temperature,
		log:         log,
	}
}

// WithRand replaces the random source (tests). The source is wrapped so it
// stays safe to share with concurrent requests.
func (s *ChatService) WithRand(rng *rand.Rand) *ChatService {
	s.rng = &syncRand{rng: rng}
	return s
}

// WithClientFactory replaces the provider factory (tests).
func (s *ChatService) WithClientFactory(factory ClientFactory) *ChatService {
	s.newClient = factory
	return s
}

// WithClock replaces the time source (tests).
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

// SendMessage handles an inbound user turn and returns the AI fragments
// produced for it. Responders run sequentially and each refetches history,
// so later responders in a group turn see the fragments persisted by
// earlier ones. A single responder failing is logged and skipped; the turn
// still returns the fragments of everyone who succeeded.
func (s *ChatService) SendMessage(ctx context.Context, chatID string, req *models.SendMessageRequest) ([]models.Message, error) {
	character, err := s.store.GetCharacter(chatID)
	if err != nil {
		return nil, errors.NewNotFoundError("CHAT_NOT_FOUND", "no character or group with this id")
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Chat.Configured() {
		return nil, errors.NewBadRequestError("CHAT_PROVIDER_UNCONFIGURED", "configure a chat model in settings first")
	}

	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	userMsg := models.Message{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		SenderID:   models.SenderUser,
		SenderName: settings.UserName,
		Content:    req.Content,
		Type:       msgType,
		Timestamp:  s.now(),
		Status:     models.StatusSent,
	}
	if err := s.store.SaveMessage(&userMsg); err != nil {
		return nil, err
	}
	s.broadcast(userMsg)

	visionNote := s.describeIncomingImage(ctx, settings, req.Content, msgType)

	var members []models.Character
	if character.IsGroup {
		if members, err = s.store.GroupMembers(chatID); err != nil {
			return nil, err
		}
	}

	responders := chat.ResolveResponders(character, members, req.Content, s.rng)
	if len(responders) == 0 {
		return []models.Message{}, nil
	}

	names, err := s.characterNames()
	if err != nil {
		return nil, err
	}

	var replies []models.Message
	for i := range responders {
		fragments := s.generateFor(ctx, &responders[i], character, members, settings, names, req, visionNote)
		replies = append(replies, fragments...)
	}
	return replies, nil
}

// generateFor runs one responder through compose → provider → parse →
// persist. Failures are logged and yield no fragments.
func (s *ChatService) generateFor(
	ctx context.Context,
	responder *models.Character,
	character *models.Character,
	members []models.Character,
	settings *Settings,
	names map[string]string,
	req *models.SendMessageRequest,
	visionNote string,
) []models.Message {
	log := s.log.WithChatID(character.ID).WithResponder(responder.ID)

	history, err := s.store.RecentMessages(character.ID, chat.HistoryWindowChat)
	if err != nil {
		log.LogError(err, "failed to load history")
		return nil
	}
	reverse(history)

	relationships, err := s.store.RelationshipsFor(responder.ID)
	if err != nil {
		log.LogError(err, "failed to load relationships")
		return nil
	}
	stickers, err := s.store.StickersFor(responder.ID)
	if err != nil {
		log.LogError(err, "failed to load stickers")
		return nil
	}

	input := chat.PromptInput{
		Responder:     responder,
		History:       history,
		UserName:      settings.UserName,
		UserPersona:   settings.UserPersona,
		Relationships: relationships,
		KnownNames:    names,
		Stickers:      stickers,
		Mode:          req.Mode,
		Scene:         req.Scene,
		ImageEnabled:  settings.Image.Configured(),
		VisionNote:    visionNote,
	}
	if character.IsGroup {
		input.GroupName = character.Name
		input.MemberNames = memberNames(members)
	}

	native := settings.Chat.BaseURL == ""
	messages := chat.ComposeMessages(input, native)

	client, err := s.newClient(settings.Chat)
	if err != nil {
		log.LogError(err, "chat provider unavailable")
		return nil
	}

	raw, err := client.GenerateText(ctx, messages, s.temperature)
	observability.RecordLLMCall(ctx, providerName(settings.Chat), "chat", outcome(err))
	if err != nil {
		log.LogError(err, "generation failed", "responder", responder.Name)
		return nil
	}

	fragments := chat.ParseReply(raw, chat.ParseOptions{
		ResponderName: responder.Name,
		Mode:          req.Mode,
		Stickers:      stickers,
		GenerateImage: s.imageGenerator(ctx, settings),
		Logger:        log,
	})
	chat.StampFragments(fragments, s.now())

	var saved []models.Message
	for _, fragment := range fragments {
		msg := models.Message{
			ID:           uuid.New().String(),
			ChatID:       character.ID,
			SenderID:     responder.ID,
			SenderName:   responder.Name,
			SenderAvatar: responder.Avatar,
			Content:      fragment.Content,
			Type:         fragment.Type,
			Timestamp:    fragment.Timestamp,
			Status:       models.StatusSent,
		}
		if err := s.store.SaveMessage(&msg); err != nil {
			log.LogError(err, "failed to persist fragment", "type", fragment.Type)
			continue
		}
		observability.RecordFragment(ctx, fragment.Type)
		s.broadcast(msg)
		saved = append(saved, msg)
	}
	return saved
}

// imageGenerator returns the directive resolver for [生图] tokens, or nil
// when no image provider is configured.
func (s *ChatService) imageGenerator(ctx context.Context, settings *Settings) chat.ImageGenerator {
	if !settings.Image.Configured() {
		return nil
	}
	return func(prompt string) (string, error) {
		client, err := s.newClient(settings.Image)
		if err != nil {
			return "", err
		}
		url, err := client.GenerateImage(ctx, prompt)
		observability.RecordLLMCall(ctx, providerName(settings.Image), "image", outcome(err))
		return url, err
	}
}

// describeIncomingImage resolves an inbound image turn into a textual
// grounding note. Vision failures degrade to no note.
func (s *ChatService) describeIncomingImage(ctx context.Context, settings *Settings, content, msgType string) string {
	if msgType != models.MessageImage || !settings.Vision.Configured() {
		return ""
	}
	data, mime, err := decodeDataURI(content)
	if err != nil {
		s.log.Warn("incoming image is not a data URI, skipping description")
		return ""
	}
	client, err := s.newClient(settings.Vision)
	if err != nil {
		s.log.LogError(err, "vision provider unavailable")
		return ""
	}
	description, err := client.GenerateVision(ctx, "", data, mime)
	observability.RecordLLMCall(ctx, providerName(settings.Vision), "vision", outcome(err))
	if err != nil {
		s.log.LogError(err, "vision description failed")
		return ""
	}
	return description
}

// Messages returns a chat's messages in chronological order.
func (s *ChatService) Messages(chatID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	msgs, err := s.store.RecentMessages(chatID, limit)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// MarkRead flips every sent message of the thread to read.
func (s *ChatService) MarkRead(chatID string) error {
	return s.store.MarkMessagesRead(chatID)
}

// UnreadCount reports how many character messages the user has not read yet.
func (s *ChatService) UnreadCount(chatID string) (int64, error) {
	return s.store.UnreadCount(chatID)
}

func (s *ChatService) ClearHistory(chatID string) error {
	return s.store.DeleteMessages(chatID)
}

// TestConnection makes a one-shot call against the configured provider for
// a capability so the UI can validate settings.
func (s *ChatService) TestConnection(ctx context.Context, capability string) (string, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	var cfg ai.ProviderConfig
	switch capability {
	case "vision":
		cfg = settings.Vision
	case "image":
		cfg = settings.Image
	default:
		cfg = settings.Chat
	}
	if !cfg.Configured() {
		return "", errors.NewBadRequestError("PROVIDER_UNCONFIGURED", fmt.Sprintf("no %s provider configured", capability))
	}

	client, err := s.newClient(cfg)
	if err != nil {
		return "", err
	}
	switch capability {
	case "image":
		return client.GenerateImage(ctx, "a small red circle on a white background")
	default:
		return client.GenerateText(ctx, []ai.Message{{Role: ai.RoleUser, Content: "ping"}}, 0)
	}
}

func (s *ChatService) broadcast(msg models.Message) {
	if s.hub != nil {
		s.hub.BroadcastMessage(msg)
	}
}

func (s *ChatService) characterNames() (map[string]string, error) {
	characters, err := s.store.ListCharacters()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(characters))
	for _, ch := range characters {
		names[ch.ID] = ch.Name
	}
	return names, nil
}

func memberNames(members []models.Character) []string {
	names := make([]string, 0, len(members))
	for _, member := range members {
		names = append(names, member.Name)
	}
	return names
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

func providerName(cfg ai.ProviderConfig) string {
	if cfg.BaseURL == "" {
		return "gemini"
	}
	return "openai-compatible"
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// decodeDataURI splits "data:<mime>;base64,<payload>" into bytes and mime.
func decodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("not a data URI")
	}
	rest := strings.TrimPrefix(uri, "data:")
	semi := strings.Index(rest, ";base64,")
	if semi < 0 {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	mime := rest[:semi]
	payload := rest[semi+len(";base64,"):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("error decoding data URI: %w", err)
	}
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}

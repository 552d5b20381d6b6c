package service

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/chat"
	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/storage"
	"ai-companion-chat/backend/pkg/config"
	"ai-companion-chat/backend/pkg/logger"
	"ai-companion-chat/backend/shared/observability"

	"github.com/google/uuid"
)

// Quiet intervals and trigger probabilities per reply strategy.
const (
	quietActive  = 10 * time.Second
	quietPassive = 600 * time.Second
	quietClose   = 30 * time.Second
	quietDistant = 300 * time.Second
	quietDefault = 60 * time.Second
)

var affectionateLabels = []string{"lover", "partner", "wife", "husband"}

// ProactiveService decides, once per tick, whether a character initiates a
// message on its own. An external cron drives the ticks.
type ProactiveService struct {
	store     storage.Store
	settings  *SettingsService
	hub         Broadcaster
	newClient   ClientFactory
	rng         *syncRand
	now         func() time.Time
	temperature float64
	log         *logger.Logger
}

func NewProactiveService(store storage.Store, settings *SettingsService, hub Broadcaster, log *logger.Logger) *ProactiveService {
	return &ProactiveService{
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

func (s *ProactiveService) WithRand(rng *rand.Rand) *ProactiveService {
	s.rng = &syncRand{rng: rng}
	return s
}

func (s *ProactiveService) WithClock(now func() time.Time) *ProactiveService {
	s.now = now
	return s
}

func (s *ProactiveService) WithClientFactory(factory ClientFactory) *ProactiveService {
	s.newClient = factory
	return s
}

// Tick picks at most one character to reach out and generates its message.
// A nil message with a nil error means nobody was eligible this tick.
func (s *ProactiveService) Tick(ctx context.Context) (*models.Message, error) {
	characters, err := s.store.ListCharacters()
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Character, 0, len(characters))
	for _, ch := range characters {
		if !ch.IsGroup && ch.ReplyStrategy != models.StrategyManual {
			candidates = append(candidates, ch)
		}
	}
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for i := range candidates {
		selected, err := s.consider(&candidates[i])
		if err != nil {
			return nil, err
		}
		if selected {
			return s.reachOut(ctx, &candidates[i])
		}
	}
	return nil, nil
}

// consider applies the cadence policy to one candidate: characters that
// have never spoken are picked immediately; otherwise the quiet interval
// must have elapsed and a strategy-weighted coin must land.
func (s *ProactiveService) consider(ch *models.Character) (bool, error) {
	last, err := s.store.LastMessage(ch.ID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	if s.now().Sub(last.Timestamp) <= QuietInterval(ch.ReplyStrategy, ch.RelationToUser) {
		return false, nil
	}
	return s.rng.Float64() < TriggerProbability(ch.ReplyStrategy), nil
}

// QuietInterval is the silence a character tolerates before it may speak
// up. The normal strategy shortens it for affectionate relationships and
// stretches it for strangers.
func QuietInterval(strategy, relationLabel string) time.Duration {
	switch strategy {
	case models.StrategyActive:
		return quietActive
	case models.StrategyPassive:
		return quietPassive
	}
	label := strings.ToLower(relationLabel)
	for _, keyword := range affectionateLabels {
		if strings.Contains(label, keyword) {
			return quietClose
		}
	}
	if strings.Contains(label, "stranger") {
		return quietDistant
	}
	return quietDefault
}

// TriggerProbability weights the coin flipped once the quiet interval has
// elapsed.
func TriggerProbability(strategy string) float64 {
	switch strategy {
	case models.StrategyActive:
		return 0.8
	case models.StrategyPassive:
		return 0.2
	default:
		return 0.5
	}
}

// reachOut generates and persists one plain-text proactive message. No
// directive parsing applies here.
func (s *ProactiveService) reachOut(ctx context.Context, ch *models.Character) (*models.Message, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Chat.Configured() {
		return nil, ai.ErrNotConfigured
	}

	history, err := s.store.RecentMessages(ch.ID, chat.HistoryWindowProactive)
	if err != nil {
		return nil, err
	}
	reverse(history)

	messages := []ai.Message{{Role: ai.RoleSystem, Content: chat.ComposeProactivePrompt(ch, settings.UserName)}}
	for _, msg := range history {
		role := ai.RoleUser
		if msg.SenderID == ch.ID {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: msg.Content})
	}

	client, err := s.newClient(settings.Chat)
	if err != nil {
		return nil, err
	}
	raw, err := client.GenerateText(ctx, messages, s.temperature)
	observability.RecordLLMCall(ctx, providerName(settings.Chat), "proactive", outcome(err))
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:           uuid.New().String(),
		ChatID:       ch.ID,
		SenderID:     ch.ID,
		SenderName:   ch.Name,
		SenderAvatar: ch.Avatar,
		Content:      strings.TrimSpace(raw),
		Type:         models.MessageText,
		Timestamp:    s.now(),
		Status:       models.StatusSent,
	}
	if err := s.store.SaveMessage(&msg); err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastMessage(msg)
	}
	s.log.Info("proactive message sent", "character", ch.Name, "strategy", ch.ReplyStrategy)
	return &msg, nil
}

package service

import (
	"context"
	"math/rand"
	"time"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/chat"
	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/storage"
	"ai-companion-chat/backend/pkg/config"
	"ai-companion-chat/backend/pkg/logger"
	"ai-companion-chat/backend/pkg/scheduler"
	"ai-companion-chat/backend/shared/observability"

	"github.com/google/uuid"
)

// Reaction weights. Posts by the user draw slightly more attention than
// posts by characters.
const (
	likeProbUserPost       = 0.7
	commentProbUserPost    = 0.5
	likeProbCharacterPost  = 0.5
	commentProbCharacter   = 0.3
	authorReplyProb        = 0.9
	bystanderCommentProb   = 0.3
)

// Delayer runs a task after a delay. The scheduler implements it; tests
// substitute a synchronous fake.
type Delayer interface {
	After(delay time.Duration, task func())
}

// MomentService manages the social feed and the simulated reactions of
// characters to posts and comments. All reactions are fire-and-forget
// delayed tasks; they never block or fail the request that triggered them.
type MomentService struct {
	store       storage.Store
	settings    *SettingsService
	tasks       Delayer
	newClient   ClientFactory
	rng         *syncRand
	now         func() time.Time
	temperature float64
	log         *logger.Logger
}

func NewMomentService(store storage.Store, settings *SettingsService, tasks *scheduler.Scheduler, log *logger.Logger) *MomentService {
	return &MomentService{
		store:       store,
		settings:    settings,
		tasks:       tasks,
		newClient:   ai.NewClient,
		rng:         newSyncRand(),
		now:         time.Now,
		temperature: config.Get().Chat.Temperature,
		log:         log,
	}
}

// WithRand replaces the random source (tests). Rolls happen on both the
// request goroutine and scheduled-task goroutines, so the source is wrapped.
func (s *MomentService) WithRand(rng *rand.Rand) *MomentService {
	s.rng = &syncRand{rng: rng}
	return s
}

func (s *MomentService) WithClientFactory(factory ClientFactory) *MomentService {
	s.newClient = factory
	return s
}

func (s *MomentService) WithDelayer(d Delayer) *MomentService {
	s.tasks = d
	return s
}

func (s *MomentService) WithClock(now func() time.Time) *MomentService {
	s.now = now
	return s
}

func (s *MomentService) ListMoments() ([]models.Moment, error) {
	return s.store.ListMoments()
}

// CreateMoment persists a post and schedules reactions from other
// characters.
func (s *MomentService) CreateMoment(req *models.CreateMomentRequest) (*models.Moment, error) {
	moment := &models.Moment{
		ID:        uuid.New().String(),
		AuthorID:  req.AuthorID,
		Content:   req.Content,
		Image:     req.Image,
		Timestamp: s.now(),
	}
	if err := s.store.CreateMoment(moment); err != nil {
		return nil, err
	}
	s.scheduleReactions(*moment)
	return moment, nil
}

func (s *MomentService) DeleteMoment(id string) error {
	return s.store.DeleteMoment(id)
}

// Like bumps the counter. Liking twice counts twice; the counter never
// goes down.
func (s *MomentService) Like(id string) (*models.Moment, error) {
	if err := s.store.LikeMoment(id); err != nil {
		return nil, err
	}
	return s.store.GetMoment(id)
}

func (s *MomentService) Comments(momentID string) ([]models.MomentComment, error) {
	return s.store.CommentsFor(momentID)
}

// CreateComment persists a comment. A comment by the user usually pulls
// the moment's author back in and occasionally draws in a bystander.
func (s *MomentService) CreateComment(momentID string, req *models.CreateCommentRequest) (*models.MomentComment, error) {
	moment, err := s.store.GetMoment(momentID)
	if err != nil {
		return nil, err
	}

	authorName := req.AuthorID
	if req.AuthorID == models.SenderUser {
		if settings, err := s.settings.Snapshot(context.Background()); err == nil && settings.UserName != "" {
			authorName = settings.UserName
		}
	} else if ch, err := s.store.GetCharacter(req.AuthorID); err == nil {
		authorName = ch.Name
	}

	comment := &models.MomentComment{
		ID:         uuid.New().String(),
		MomentID:   momentID,
		AuthorID:   req.AuthorID,
		AuthorName: authorName,
		Content:    req.Content,
		Timestamp:  s.now(),
	}
	if err := s.store.CreateComment(comment); err != nil {
		return nil, err
	}

	if req.AuthorID == models.SenderUser {
		if s.rng.Float64() < authorReplyProb && moment.AuthorID != models.SenderUser {
			delay := s.randomDelay(2, 5)
			momentCopy := *moment
			commentText := req.Content
			s.tasks.After(delay, func() {
				s.postCharacterComment(momentCopy, momentCopy.AuthorID, commentText)
			})
		}
		if s.rng.Float64() < bystanderCommentProb {
			delay := s.randomDelay(5, 10)
			momentCopy := *moment
			s.tasks.After(delay, func() {
				if bystander := s.pickBystander(momentCopy.AuthorID); bystander != nil {
					s.postCharacterComment(momentCopy, bystander.ID, "")
				}
			})
		}
	}
	return comment, nil
}

// scheduleReactions selects one to three other characters and rolls an
// independent like and comment for each, staggered over a few seconds.
func (s *MomentService) scheduleReactions(moment models.Moment) {
	characters, err := s.store.ListCharacters()
	if err != nil {
		s.log.LogError(err, "failed to list characters for reactions")
		return
	}
	candidates := make([]models.Character, 0, len(characters))
	for _, ch := range characters {
		if !ch.IsGroup && ch.ID != moment.AuthorID {
			candidates = append(candidates, ch)
		}
	}
	if len(candidates) == 0 {
		return
	}
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	count := 1 + s.rng.Intn(3)
	if count > len(candidates) {
		count = len(candidates)
	}

	likeProb, commentProb := likeProbCharacterPost, commentProbCharacter
	if moment.AuthorID == models.SenderUser {
		likeProb, commentProb = likeProbUserPost, commentProbUserPost
	}

	for i := 0; i < count; i++ {
		candidate := candidates[i]
		stagger := time.Duration(i) * 2 * time.Second
		if s.rng.Float64() < likeProb {
			s.tasks.After(s.randomDelay(2, 6)+stagger, func() {
				if err := s.store.LikeMoment(moment.ID); err != nil {
					s.log.LogError(err, "scheduled like failed", "moment", moment.ID)
				}
			})
		}
		if s.rng.Float64() < commentProb {
			s.tasks.After(s.randomDelay(4, 12)+stagger, func() {
				s.postCharacterComment(moment, candidate.ID, "")
			})
		}
	}
}

// postCharacterComment generates and stores one character comment. Runs
// inside a scheduled task; every failure is logged and dropped.
func (s *MomentService) postCharacterComment(moment models.Moment, characterID, replyTo string) {
	ctx := context.Background()

	character, err := s.store.GetCharacter(characterID)
	if err != nil {
		s.log.LogError(err, "comment author vanished", "character", characterID)
		return
	}
	settings, err := s.settings.Snapshot(ctx)
	if err != nil || !settings.Chat.Configured() {
		s.log.Warn("skipping character comment, chat provider unavailable")
		return
	}

	authorName := settings.UserName
	if moment.AuthorID != models.SenderUser {
		if author, err := s.store.GetCharacter(moment.AuthorID); err == nil {
			authorName = author.Name
		}
	}
	if authorName == "" {
		authorName = "用户"
	}

	prompt := chat.ComposeMomentPrompt(character, authorName, moment.Content)
	userTurn := "写下你的评论。"
	if replyTo != "" {
		userTurn = "对方刚刚评论道：「" + replyTo + "」。回应这条评论。"
	}

	// A short slice of the character's own conversation keeps the comment
	// in voice. Losing it is not worth dropping the comment over.
	history, err := s.store.RecentMessages(character.ID, chat.HistoryWindowMoment)
	if err != nil {
		s.log.LogError(err, "failed to load history for comment", "character", character.Name)
		history = nil
	}
	reverse(history)

	messages := []ai.Message{{Role: ai.RoleSystem, Content: prompt}}
	for _, msg := range history {
		role := ai.RoleUser
		if msg.SenderID == character.ID {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: msg.Content})
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: userTurn})

	client, err := s.newClient(settings.Chat)
	if err != nil {
		s.log.LogError(err, "comment generation unavailable")
		return
	}
	raw, err := client.GenerateText(ctx, messages, s.temperature)
	observability.RecordLLMCall(ctx, providerName(settings.Chat), "moment", outcome(err))
	if err != nil {
		s.log.LogError(err, "comment generation failed", "character", character.Name)
		return
	}

	comment := &models.MomentComment{
		ID:         uuid.New().String(),
		MomentID:   moment.ID,
		AuthorID:   character.ID,
		AuthorName: character.Name,
		Content:    raw,
		Timestamp:  s.now(),
	}
	if err := s.store.CreateComment(comment); err != nil {
		s.log.LogError(err, "failed to persist character comment")
	}
}

func (s *MomentService) pickBystander(excludeID string) *models.Character {
	characters, err := s.store.ListCharacters()
	if err != nil {
		return nil
	}
	candidates := make([]models.Character, 0, len(characters))
	for _, ch := range characters {
		if !ch.IsGroup && ch.ID != excludeID {
			candidates = append(candidates, ch)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[s.rng.Intn(len(candidates))]
}

func (s *MomentService) randomDelay(minSeconds, maxSeconds int) time.Duration {
	return time.Duration(minSeconds+s.rng.Intn(maxSeconds-minSeconds+1)) * time.Second
}

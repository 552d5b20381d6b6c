package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"ai-companion-chat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuietInterval(t *testing.T) {
	cases := []struct {
		name     string
		strategy string
		relation string
		want     time.Duration
	}{
		{"active ignores relation", models.StrategyActive, "stranger", 10 * time.Second},
		{"passive ignores relation", models.StrategyPassive, "lover", 600 * time.Second},
		{"normal lover", models.StrategyNormal, "lover", 30 * time.Second},
		{"normal wife case-insensitive", models.StrategyNormal, "My Wife", 30 * time.Second},
		{"normal partner", models.StrategyNormal, "partner", 30 * time.Second},
		{"normal stranger", models.StrategyNormal, "stranger", 300 * time.Second},
		{"normal default", models.StrategyNormal, "同事", 60 * time.Second},
		{"normal empty relation", models.StrategyNormal, "", 60 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QuietInterval(tc.strategy, tc.relation))
		})
	}
}

func TestTriggerProbability(t *testing.T) {
	assert.InDelta(t, 0.8, TriggerProbability(models.StrategyActive), 1e-9)
	assert.InDelta(t, 0.2, TriggerProbability(models.StrategyPassive), 1e-9)
	assert.InDelta(t, 0.5, TriggerProbability(models.StrategyNormal), 1e-9)
	assert.InDelta(t, 0.5, TriggerProbability(""), 1e-9)
}

func newProactiveFixture(store *mockStore, client *stubClient) (*ProactiveService, *recordingHub) {
	hub := &recordingHub{}
	settings := NewSettingsService(store, nil, nil)
	svc := NewProactiveService(store, settings, hub, testLogger()).
		WithClientFactory(stubFactory(client)).
		WithRand(rand.New(rand.NewSource(1))).
		WithClock(fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	return svc, hub
}

func TestTickSkipsRecentConversation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	character := models.Character{ID: "c1", Name: "小雨", ReplyStrategy: models.StrategyNormal}

	store := &mockStore{}
	store.On("ListCharacters").Return([]models.Character{character}, nil)
	store.On("LastMessage", "c1").Return(&models.Message{Timestamp: now.Add(-5 * time.Second)}, nil)

	svc, hub := newProactiveFixture(store, &stubClient{})
	msg, err := svc.Tick(context.Background())

	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, hub.messages)
}

func TestTickColdStartReachesOutImmediately(t *testing.T) {
	character := models.Character{ID: "c1", Name: "小雨", ReplyStrategy: models.StrategyNormal}

	store := &mockStore{}
	store.On("ListCharacters").Return([]models.Character{character}, nil)
	store.On("LastMessage", "c1").Return(nil, nil)
	store.On("AllSettings").Return(configuredSettings(), nil)
	store.On("RecentMessages", "c1", 10).Return([]models.Message{}, nil)
	store.On("SaveMessage", mock.Anything).Return(nil)

	client := &stubClient{reply: "在忙吗？好久没聊了"}
	svc, hub := newProactiveFixture(store, client)

	msg, err := svc.Tick(context.Background())

	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "c1", msg.SenderID)
	assert.Equal(t, "c1", msg.ChatID)
	assert.Equal(t, "在忙吗？好久没聊了", msg.Content)
	assert.Equal(t, models.MessageText, msg.Type)
	require.Len(t, hub.messages, 1)
}

func TestTickIgnoresGroupsAndManual(t *testing.T) {
	store := &mockStore{}
	store.On("ListCharacters").Return([]models.Character{
		{ID: "g1", IsGroup: true},
		{ID: "c1", ReplyStrategy: models.StrategyManual},
	}, nil)

	svc, _ := newProactiveFixture(store, &stubClient{})
	msg, err := svc.Tick(context.Background())

	require.NoError(t, err)
	assert.Nil(t, msg)
	store.AssertNotCalled(t, "LastMessage", mock.Anything)
}

func TestTickQuietElapsedUsesCoin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	character := models.Character{ID: "c1", Name: "小雨", ReplyStrategy: models.StrategyActive}

	store := &mockStore{}
	store.On("ListCharacters").Return([]models.Character{character}, nil)
	store.On("LastMessage", "c1").Return(&models.Message{Timestamp: now.Add(-time.Hour)}, nil)
	store.On("AllSettings").Return(configuredSettings(), nil)
	store.On("RecentMessages", "c1", 10).Return([]models.Message{
		{SenderID: models.SenderUser, Content: "晚安"},
	}, nil)
	store.On("SaveMessage", mock.Anything).Return(nil)

	client := &stubClient{reply: "早安！"}
	svc, _ := newProactiveFixture(store, client)

	// With probability 0.8, some seed in a small range must fire.
	var sent *models.Message
	for seed := int64(0); seed < 10 && sent == nil; seed++ {
		svc.WithRand(rand.New(rand.NewSource(seed)))
		msg, err := svc.Tick(context.Background())
		require.NoError(t, err)
		sent = msg
	}
	require.NotNil(t, sent)
	// The latest history rode along in the prompt.
	require.NotEmpty(t, client.requests)
	last := client.requests[len(client.requests)-1]
	assert.Equal(t, "晚安", last[len(last)-1].Content)
}

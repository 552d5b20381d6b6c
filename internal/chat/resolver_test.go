package chat

import (
	"math/rand"
	"testing"

	"ai-companion-chat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id, name string) models.Character {
	return models.Character{ID: id, Name: name}
}

func TestResolveRespondersSingleCharacter(t *testing.T) {
	ch := &models.Character{ID: "c1", Name: "小雨", ReplyStrategy: models.StrategyNormal}

	responders := ResolveResponders(ch, nil, "你好", rand.New(rand.NewSource(1)))

	require.Len(t, responders, 1)
	assert.Equal(t, "c1", responders[0].ID)
}

func TestResolveRespondersManualNeverReplies(t *testing.T) {
	ch := &models.Character{ID: "c1", ReplyStrategy: models.StrategyManual}

	responders := ResolveResponders(ch, nil, "你好", rand.New(rand.NewSource(1)))

	assert.Empty(t, responders)
}

func TestResolveRespondersGroupAll(t *testing.T) {
	group := &models.Character{ID: "g1", IsGroup: true, GroupReplyMode: models.ReplyModeAll}
	members := []models.Character{member("a", "阿明"), member("b", "小雨")}

	responders := ResolveResponders(group, members, "大家好", rand.New(rand.NewSource(1)))

	assert.Equal(t, members, responders)
}

func TestResolveRespondersGroupMentioned(t *testing.T) {
	group := &models.Character{ID: "g1", IsGroup: true, GroupReplyMode: models.ReplyModeMentioned}
	members := []models.Character{member("a", "阿明"), member("b", "小雨"), member("c", "老王")}

	responders := ResolveResponders(group, members, "@老王 @阿明 在吗", rand.New(rand.NewSource(1)))

	// Member list order, not mention order.
	require.Len(t, responders, 2)
	assert.Equal(t, "a", responders[0].ID)
	assert.Equal(t, "c", responders[1].ID)
}

func TestResolveRespondersGroupMentionedNobody(t *testing.T) {
	group := &models.Character{ID: "g1", IsGroup: true, GroupReplyMode: models.ReplyModeMentioned}
	members := []models.Character{member("a", "阿明")}

	responders := ResolveResponders(group, members, "在吗", rand.New(rand.NewSource(1)))

	assert.Empty(t, responders)
}

func TestResolveRespondersNaturalPrefersMentions(t *testing.T) {
	group := &models.Character{ID: "g1", IsGroup: true, GroupReplyMode: models.ReplyModeNatural}
	members := []models.Character{member("a", "阿明"), member("b", "小雨")}

	responders := ResolveResponders(group, members, "@小雨 看这个", rand.New(rand.NewSource(1)))

	require.Len(t, responders, 1)
	assert.Equal(t, "b", responders[0].ID)
}

func TestResolveRespondersNaturalRandomSubset(t *testing.T) {
	group := &models.Character{ID: "g1", IsGroup: true, GroupReplyMode: models.ReplyModeNatural}
	members := []models.Character{member("a", "阿明"), member("b", "小雨"), member("c", "老王")}

	seen := map[string]bool{}
	for seed := int64(0); seed < 20; seed++ {
		responders := ResolveResponders(group, members, "大家好", rand.New(rand.NewSource(seed)))
		require.NotEmpty(t, responders)
		require.LessOrEqual(t, len(responders), 2)
		for _, r := range responders {
			seen[r.ID] = true
		}
	}
	// Over many seeds the subset should not be stuck on one member.
	assert.Greater(t, len(seen), 1)
}

func TestResolveRespondersNaturalSingleMemberGroup(t *testing.T) {
	group := &models.Character{ID: "g1", IsGroup: true, GroupReplyMode: models.ReplyModeNatural}
	members := []models.Character{member("a", "阿明")}

	responders := ResolveResponders(group, members, "你好", rand.New(rand.NewSource(3)))

	require.Len(t, responders, 1)
	assert.Equal(t, "a", responders[0].ID)
}

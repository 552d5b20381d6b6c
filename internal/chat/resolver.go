package chat

import (
	"strings"

	"ai-companion-chat/backend/internal/models"
)

// Rand is the randomness the resolver draws on. *rand.Rand satisfies it;
// callers sharing one source across goroutines pass a locked wrapper.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// ResolveResponders decides which characters reply to an inbound user turn.
//
// Non-group chats: the character itself, unless its reply strategy is
// manual. Group chats follow the group's reply mode: "all" fans out to every
// member, "mentioned" to the members whose @name literally appears in the
// text, and "natural" to the mentioned members or, when nobody is
// mentioned, to a random subset of one or two members.
//
// The random source is injected so tests can pin the selection.
func ResolveResponders(character *models.Character, members []models.Character, text string, rng Rand) []models.Character {
	if !character.IsGroup {
		if character.ReplyStrategy == models.StrategyManual {
			return nil
		}
		return []models.Character{*character}
	}

	switch character.GroupReplyMode {
	case models.ReplyModeAll:
		return members
	case models.ReplyModeMentioned:
		return mentionedMembers(members, text)
	default: // natural
		mentioned := mentionedMembers(members, text)
		if len(mentioned) > 0 {
			return mentioned
		}
		return randomSubset(members, rng)
	}
}

// mentionedMembers keeps iteration order of the member list. The match is a
// plain case-sensitive substring check on "@name", no word boundaries.
func mentionedMembers(members []models.Character, text string) []models.Character {
	var mentioned []models.Character
	for _, member := range members {
		if strings.Contains(text, "@"+member.Name) {
			mentioned = append(mentioned, member)
		}
	}
	return mentioned
}

// randomSubset shuffles a copy of the members and keeps one or two of them.
func randomSubset(members []models.Character, rng Rand) []models.Character {
	if len(members) == 0 {
		return nil
	}
	shuffled := make([]models.Character, len(members))
	copy(shuffled, members)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	count := 1
	if rng.Intn(2) == 1 {
		count = 2
	}
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

package chat

import (
	"regexp"
	"strings"
	"time"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/pkg/logger"
)

// Fragment is one persistable unit of a parsed model reply.
type Fragment struct {
	Type      string
	Content   string
	Timestamp time.Time
}

// ImageGenerator produces an image (data URI or URL) for an inline
// [生图: ...] directive. A nil generator means the capability is not
// configured.
type ImageGenerator func(prompt string) (string, error)

// ParseOptions carries the responder context the parser needs to resolve
// directives.
type ParseOptions struct {
	ResponderName string
	Mode          string
	Stickers      []models.Sticker
	GenerateImage ImageGenerator
	Logger        *logger.Logger
}

var (
	imageDirectiveRe   = regexp.MustCompile(`\[生图[:：]\s*([^\]]+)\]`)
	stickerDirectiveRe = regexp.MustCompile(`\[sticker[:：]\s*([^\]]+)\]`)
	blankLineRe        = regexp.MustCompile(`\n\s*\n`)
)

// ParseReply decodes raw model output into an ordered fragment list:
// optional narration first, then for each dialogue piece its text, image
// and sticker fragments. Directive failures degrade to plain text and never
// abort the turn.
//
// When no image generator is configured the [生图] directive is always
// stripped and no image fragment is emitted; the raw token never reaches
// the user.
func ParseReply(raw string, opts ParseOptions) []Fragment {
	text := stripSelfIdentification(raw, opts.ResponderName)

	var narration string
	if opts.Mode == models.ModeScenario {
		if before, after, found := strings.Cut(text, "|||"); found {
			narration = strings.TrimSpace(before)
			text = strings.TrimSpace(after)
		}
	}

	var fragments []Fragment
	if narration != "" {
		fragments = append(fragments, Fragment{Type: models.MessageNarration, Content: narration})
	}

	for _, piece := range splitDialogue(text) {
		fragments = append(fragments, parsePiece(piece, opts)...)
	}
	return fragments
}

// parsePiece resolves the directives of one dialogue piece and emits its
// text, image and sticker fragments in that order.
func parsePiece(piece string, opts ParseOptions) []Fragment {
	var imageContent string
	if match := imageDirectiveRe.FindStringSubmatch(piece); match != nil {
		prompt := strings.TrimSpace(match[1])
		piece = strings.Replace(piece, match[0], "", 1)
		if opts.GenerateImage != nil {
			generated, err := opts.GenerateImage(prompt)
			if err != nil {
				if opts.Logger != nil {
					opts.Logger.Warn("image directive failed", "prompt", prompt, "error", err.Error())
				}
			} else {
				imageContent = generated
			}
		}
	}

	var stickerContent string
	if match := stickerDirectiveRe.FindStringSubmatch(piece); match != nil {
		id := strings.TrimSpace(match[1])
		if url, ok := lookupSticker(opts.Stickers, id); ok {
			piece = strings.Replace(piece, match[0], "", 1)
			stickerContent = url
		}
		// An unknown id stays in the text as-is.
	}

	var fragments []Fragment
	if residual := strings.TrimSpace(piece); residual != "" {
		fragments = append(fragments, Fragment{Type: models.MessageText, Content: residual})
	}
	if imageContent != "" {
		fragments = append(fragments, Fragment{Type: models.MessageImage, Content: imageContent})
	}
	if stickerContent != "" {
		fragments = append(fragments, Fragment{Type: models.MessageSticker, Content: stickerContent})
	}
	return fragments
}

// splitDialogue cuts dialogue into ordered non-empty pieces, preferring the
// explicit [NEXT] token over blank-line paragraph breaks.
func splitDialogue(text string) []string {
	var parts []string
	if strings.Contains(text, "[NEXT]") {
		parts = strings.Split(text, "[NEXT]")
	} else {
		parts = blankLineRe.Split(text, -1)
	}

	var pieces []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			pieces = append(pieces, trimmed)
		}
	}
	return pieces
}

// stripSelfIdentification removes a leading bracketed name tag and a
// leading literal echo of the responder's own name.
func stripSelfIdentification(text, name string) string {
	text = strings.TrimSpace(text)
	if name == "" {
		return text
	}
	for _, prefix := range []string{"[" + name + "]", "【" + name + "】"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	for _, prefix := range []string{name + ":", name + "："} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}

func lookupSticker(stickers []models.Sticker, id string) (string, bool) {
	for _, sticker := range stickers {
		if sticker.ID == id {
			return sticker.URL, true
		}
	}
	return "", false
}

// StampFragments assigns each fragment a timestamp with a strictly
// increasing millisecond offset from base so display order survives
// near-simultaneous persistence.
func StampFragments(fragments []Fragment, base time.Time) {
	for i := range fragments {
		fragments[i].Timestamp = base.Add(time.Duration(i) * 5 * time.Millisecond)
	}
}

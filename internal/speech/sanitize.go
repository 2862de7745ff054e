// Package speech converts between audio and text: transcription of voice
// questions and synthesis of spoken answers.
package speech

import (
	"regexp"
	"strings"
)

// shoppingIcon mirrors classifier.ShoppingIcon; speech never reads it aloud.
const shoppingIcon = "🛒"

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)
	unspoken   = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Zs}가-힣.,!?]`)
)

// Sanitize prepares an answer for speech synthesis. It drops the shopping
// icon, links and any symbol that is not a letter, digit, underscore,
// whitespace or one of . , ! ? and trims the result. The output is
// only ever fed to a synthesizer; callers keep the original answer.
func Sanitize(answer string) string {
	text := strings.ReplaceAll(answer, shoppingIcon, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = unspoken.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// emojiTable covers the pictographic blocks posts use in practice. It is a
// range scan, not a full emoji-sequence parser: ZWJ joiners, variation
// selectors and skin-tone modifiers are not counted on their own.
var emojiTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2139, Stride: 0x17},
		{Lo: 0x2194, Hi: 0x21aa, Stride: 1},
		{Lo: 0x231a, Hi: 0x23ff, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x303d, Stride: 0xd},
		{Lo: 0x3297, Hi: 0x3299, Stride: 2},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1f0ff, Stride: 1},
		{Lo: 0x1f170, Hi: 0x1f251, Stride: 1},
		{Lo: 0x1f300, Hi: 0x1f3fa, Stride: 1},
		{Lo: 0x1f400, Hi: 0x1f64f, Stride: 1},
		{Lo: 0x1f680, Hi: 0x1f6ff, Stride: 1},
		{Lo: 0x1f700, Hi: 0x1f7ff, Stride: 1},
		{Lo: 0x1f900, Hi: 0x1faff, Stride: 1},
	},
}

var (
	inlineLinkPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s]+`)
	utmPattern        = regexp.MustCompile(`(?i)[?&]utm_[a-z]+=`)
	youtubePattern    = regexp.MustCompile(`(?i)(?:youtube\.com/|youtu\.be/)`)
)

// isEmoji reports whether r falls in one of the scanned emoji ranges.
func isEmoji(r rune) bool {
	return unicode.Is(emojiTable, r)
}

// countEmoji counts emoji runes in s.
func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		if isEmoji(r) {
			n++
		}
	}
	return n
}

// hasDoubleLineBreak reports whether s contains an empty line between paragraphs.
func hasDoubleLineBreak(s string) bool {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Contains(s, "\n\n")
}

// hasEmojiBullets reports whether at least two lines start with an emoji.
func hasEmojiBullets(s string) bool {
	bullets := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		r, size := utf8.DecodeRuneInString(line)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		if isEmoji(r) {
			bullets++
			if bullets >= 2 {
				return true
			}
		}
	}
	return false
}

// textFeatures holds the message-derived features of a post.
type textFeatures struct {
	emojiCount         int
	hasDoubleLineBreak bool
	hasEmojiBullets    bool
	hasInlineLink      bool
	hasUTMParams       bool
	isYouTubeLink      bool
}

// extractTextFeatures scans the message and the attachment link.
func extractTextFeatures(message, linkURL string) textFeatures {
	combined := message
	if linkURL != "" {
		combined += " " + linkURL
	}
	return textFeatures{
		emojiCount:         countEmoji(message),
		hasDoubleLineBreak: hasDoubleLineBreak(message),
		hasEmojiBullets:    hasEmojiBullets(message),
		hasInlineLink:      inlineLinkPattern.MatchString(message),
		hasUTMParams:       utmPattern.MatchString(combined),
		isYouTubeLink:      youtubePattern.MatchString(combined),
	}
}

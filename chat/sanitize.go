package chat

import (
	"regexp"
	"strings"
)

var (
	// {:emoteName:}
	emotePattern = regexp.MustCompile(`\{:[^:]+:\}`)
	// [후원 1000치즈] plus trailing whitespace
	donationPattern = regexp.MustCompile(`\[후원 \d+치즈\]\s*`)
	// [3개월 구독] plus an optional trailing digit run
	subscriptionPattern = regexp.MustCompile(`\[\d+개월 구독\]\s*\d*`)
)

// Clean removes emote tags and donation/subscription announcements from a raw
// chat message and trims the result. The replacements run in a fixed order.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	s := emotePattern.ReplaceAllString(raw, "")
	s = donationPattern.ReplaceAllString(s, "")
	s = subscriptionPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

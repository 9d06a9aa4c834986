package core

import (
	"strings"
	"unicode"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

const (
	// MaxNameLength is the longest display name kept, in runes.
	MaxNameLength = 32
	// DefaultName replaces names that are empty after sanitizing.
	DefaultName = "guest"
)

// SanitizeName trims whitespace, drops non-printable runes and truncates to
// MaxNameLength. It never rejects: an empty result, or the reserved system
// sender name, becomes DefaultName.
func SanitizeName(raw string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(raw) {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			continue
		}
		if n == MaxNameLength {
			break
		}
		b.WriteRune(r)
		n++
	}

	name := strings.TrimSpace(b.String())
	if name == "" || name == proto.SystemSender {
		return DefaultName
	}
	return name
}

package utils

import "strings"

// SanitizeColorName normalizes a display color name into the form used in
// asset file names: lowercase, spaces collapsed to single hyphens, anything
// outside [a-z0-9-] dropped. "Navy Blue" -> "navy-blue".
func SanitizeColorName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(lower))
	lastHyphen := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

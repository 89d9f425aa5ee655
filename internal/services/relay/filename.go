package relay

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFilenameBytes = 200

// SanitizeFilename makes name safe for a Content-Disposition header and a
// local filesystem. An empty result falls back to fallback.
func SanitizeFilename(name, fallback string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == utf8.RuneError, unicode.IsControl(r):
			b.WriteRune('_')
		case strings.ContainsRune(`/\"'<>:|?*;`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	clean := strings.TrimLeft(strings.TrimSpace(b.String()), ". ")
	clean = truncateUTF8(clean, maxFilenameBytes)
	clean = strings.TrimSpace(clean)

	if clean == "" || strings.Trim(clean, "_") == "" {
		return fallback
	}
	return clean
}

// ContentDisposition builds an attachment header for filename, which must
// already be sanitized. Non-ASCII names also get an RFC 5987 filename*.
func ContentDisposition(filename string) string {
	ascii := asciiFallback(filename)
	header := `attachment; filename="` + ascii + `"`
	if ascii != filename {
		header += "; filename*=UTF-8''" + encodeExtValue(filename)
	}
	return header
}

// encodeExtValue percent-encodes every byte outside the RFC 5987 attr-char set.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

func asciiFallback(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

package views

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	sizeKB = 1024
	sizeMB = 1024 * sizeKB
	sizeGB = 1024 * sizeMB
	sizeTB = 1024 * sizeGB
)

// Locales are the languages number formatting is tuned for.
// The first one is the fallback.
var Locales = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Polish,
}

var localeMatcher = language.NewMatcher(Locales)

// Locale picks the best supported locale for an Accept-Language header.
func Locale(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Locales[0]
	}
	_, idx, _ := localeMatcher.Match(tags...)
	return Locales[idx]
}

// FormatSize renders a byte count as "1.5 MB" with the locale's decimal mark.
func FormatSize(tag language.Tag, bytes int64) string {
	p := message.NewPrinter(tag)
	switch {
	case bytes >= sizeTB:
		return p.Sprintf("%.1f TB", float64(bytes)/sizeTB)
	case bytes >= sizeGB:
		return p.Sprintf("%.1f GB", float64(bytes)/sizeGB)
	case bytes >= sizeMB:
		return p.Sprintf("%.1f MB", float64(bytes)/sizeMB)
	case bytes >= sizeKB:
		return p.Sprintf("%.1f KB", float64(bytes)/sizeKB)
	default:
		return p.Sprintf("%d B", bytes)
	}
}

// FormatBytes renders the exact byte count with locale digit grouping.
func FormatBytes(tag language.Tag, bytes int64) string {
	return message.NewPrinter(tag).Sprintf("%d bytes", bytes)
}

// FormatTime returns a compact timestamp: the year is shown only when it
// differs from the current one.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Year() == time.Now().Year() {
		return t.Format("Jan _2 15:04")
	}
	return t.Format("Jan _2 2006")
}

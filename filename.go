package pdfgen

import (
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
)

// SanitizeFilename derives a download name (without extension) from the
// first non-empty candidate. Runs of characters outside [A-Za-z0-9_-]
// collapse to a single underscore and leading or trailing underscores are
// trimmed. It falls back to DefaultFilename.
func SanitizeFilename(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		name := unsafeFilenameChars.ReplaceAllString(c, "_")
		name = repeatedUnderscores.ReplaceAllString(name, "_")
		name = strings.Trim(name, "_")
		if name != "" {
			return name
		}
	}
	return DefaultFilename
}

// DownloadName returns the sanitized attachment name, including extension.
func (o Options) DownloadName() string {
	return SanitizeFilename(o.Filename, o.Title) + ".pdf"
}

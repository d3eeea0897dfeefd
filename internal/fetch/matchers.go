package fetch

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Matchers holds the compiled patterns used to discover a filename.
type Matchers struct {
	// Disposition extracts filename="..." from a Content-Disposition header
	// that mime.ParseMediaType rejects.
	Disposition *regexp.Regexp

	// CDNZip extracts the trailing <name>.zip segment of a CDN URL,
	// ignoring an optional query string.
	CDNZip *regexp.Regexp
}

var defaultMatchers = Matchers{
	Disposition: regexp.MustCompile(`(?i)filename\s*=\s*"([^"]+)"`),
	CDNZip:      regexp.MustCompile(`/([^/?#]+\.zip)(?:\?[^#]*)?(?:#.*)?$`),
}

// DefaultMatchers returns the patterns compiled at package initialization.
func DefaultMatchers() Matchers {
	return defaultMatchers
}

// Filename derives the local filename from the probe's Content-Disposition
// header and, failing that, from the final URL. The result is a bare file
// name; it never contains a directory component.
func (m Matchers) Filename(disposition, finalURL string) (string, bool) {
	if name := m.fromDisposition(disposition); name != "" {
		return name, true
	}
	if name := m.fromURL(finalURL); name != "" {
		return name, true
	}
	return "", false
}

func (m Matchers) fromDisposition(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := cleanName(params["filename"]); name != "" {
			return name
		}
	}
	if m.Disposition == nil {
		return ""
	}
	if match := m.Disposition.FindStringSubmatch(header); match != nil {
		return cleanName(match[1])
	}
	return ""
}

func (m Matchers) fromURL(raw string) string {
	if raw == "" || m.CDNZip == nil {
		return ""
	}
	match := m.CDNZip.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	name := match[1]
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return cleanName(name)
}

// cleanName strips any directory component so a hostile header cannot
// place a file outside the target directory.
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

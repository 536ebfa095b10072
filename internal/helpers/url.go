package helpers

import (
	"net/url"
	"path"
	"strings"
)

// FullResolutionURL maps a MediaWiki thumbnail URL back to its original file:
//
//	https://upload.wikimedia.org/wikipedia/commons/thumb/d/d4/X.svg/200px-X.svg.png
//	https://upload.wikimedia.org/wikipedia/commons/d/d4/X.svg
//
// URLs that are not thumbnails are returned unchanged.
func FullResolutionURL(thumb string) string {
	if !strings.Contains(thumb, "/thumb/") {
		return thumb
	}
	full := strings.Replace(thumb, "/thumb/", "/", 1)
	if i := strings.LastIndex(full, "/"); i > 0 {
		full = full[:i]
	}
	return full
}

// FileName returns the last path segment of raw, unescaped when possible.
func FileName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(p)
	if un, err := url.PathUnescape(name); err == nil {
		name = un
	}
	return name
}

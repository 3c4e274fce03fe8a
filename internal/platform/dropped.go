package platform

import (
	"net/url"
	"path/filepath"
	"strings"
)

// SupportedVideoExtensions lists the input extensions accepted from drops
// and file dialogs
var SupportedVideoExtensions = []string{".mp4", ".mov", ".mxf", ".mkv", ".avi", ".m4v", ".mts"}

// IsSupportedVideo reports whether the path has a supported video extension
func IsSupportedVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedVideoExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// PathsFromURIs converts dropped URI strings to local paths.
// Non-file URIs are skipped.
func PathsFromURIs(uris []string) []string {
	paths := make([]string, 0, len(uris))
	for _, raw := range uris {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			paths = append(paths, raw)
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "file" {
			continue
		}
		path := u.Path
		// file:///C:/clip.mov
		if len(path) > 2 && path[0] == '/' && path[2] == ':' {
			path = path[1:]
		}
		paths = append(paths, filepath.FromSlash(path))
	}
	return paths
}

// FilterVideoFiles keeps supported videos, dropping duplicates and keeping order
func FilterVideoFiles(paths []string) (videos []string, skipped []string) {
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		if IsSupportedVideo(clean) {
			videos = append(videos, clean)
		} else {
			skipped = append(skipped, clean)
		}
	}
	return videos, skipped
}

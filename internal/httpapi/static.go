package httpapi

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

func decodeURLPath(path string) (string, error) {
	return url.PathUnescape(path)
}

// contentTypes is the small extension table §6 calls for, rather than
// relying on net/http's sniffing-based DetectContentType for static assets
// whose type is already known from the extension.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".wasm": "application/wasm",
}

func (s *server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	root, err := filepath.Abs(s.wwwRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "serverError", "internal server error")
		return
	}

	decoded := percentDecodePlus(r.URL.Path)
	// filepath.Clean collapses ".." segments before the join, and the
	// prefix check below re-verifies the result never escapes root even if
	// Clean's collapsing behavior is fooled by a crafted path.
	target := filepath.Join(root, filepath.Clean("/"+decoded))
	if !strings.HasPrefix(target, root) {
		writeError(w, http.StatusNotFound, "fileNotFound", "file not found")
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		writeError(w, http.StatusNotFound, "fileNotFound", "file not found")
		return
	}
	if info.IsDir() {
		target = filepath.Join(target, "index.html")
		if _, err := os.Stat(target); err != nil {
			writeError(w, http.StatusNotFound, "fileNotFound", "file not found")
			return
		}
	}

	data, err := os.ReadFile(target)
	if err != nil {
		writeError(w, http.StatusNotFound, "fileNotFound", "file not found")
		return
	}

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(target))]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

// percentDecodePlus decodes a URL path the way the server's reference
// treats query-style '+'-as-space, applied to path segments too.
func percentDecodePlus(path string) string {
	replaced := strings.ReplaceAll(path, "+", " ")
	decoded, err := decodeURLPath(replaced)
	if err != nil {
		return path
	}
	return decoded
}

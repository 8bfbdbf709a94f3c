package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StaticFileHandler serves the desktop shell with ETag caching.
type StaticFileHandler struct {
	dir          string
	cacheControl string
	indexFiles   []string
	useETag      bool
}

// NewStaticFileHandler creates a new static file handler.
func NewStaticFileHandler(dir string) *StaticFileHandler {
	return &StaticFileHandler{
		dir:          dir,
		cacheControl: "public, max-age=3600",
		indexFiles:   []string{"index.html", "index.htm"},
		useETag:      true,
	}
}

// SetCacheControl sets the Cache-Control header value.
func (h *StaticFileHandler) SetCacheControl(value string) {
	h.cacheControl = value
}

// EnableETag enables or disables ETag generation.
func (h *StaticFileHandler) EnableETag(enabled bool) {
	h.useETag = enabled
}

// ServeHTTP implements http.Handler interface.
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	path, err := ValidatePath(h.dir, r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}

	fi, err := os.Stat(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}

	if fi.IsDir() {
		for _, indexFile := range h.indexFiles {
			indexPath := filepath.Join(path, indexFile)
			if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
				h.serveFile(w, r, indexPath)
				return
			}
		}
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}

	h.serveFile(w, r, path)
}

// serveFile serves a single file. Conditional and range requests are
// handled by http.ServeContent.
func (h *StaticFileHandler) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	file, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	if h.cacheControl != "" {
		w.Header().Set("Cache-Control", h.cacheControl)
	}
	if h.useETag {
		if etag, err := fileHash(file); err == nil {
			w.Header().Set("ETag", `"`+etag+`"`)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			return
		}
	}

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), file)
}

// fileHash computes a short content hash for the ETag.
func fileHash(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)[:8]), nil
}

// ValidatePath checks if a path is safe and within the root directory.
func ValidatePath(root, requestedPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.New("invalid root")
	}

	absPath, err := filepath.Abs(filepath.Join(absRoot, filepath.Clean("/"+requestedPath)))
	if err != nil {
		return "", errors.New("invalid path")
	}

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", errors.New("path outside root directory")
	}

	return absPath, nil
}

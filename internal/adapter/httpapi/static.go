package httpapi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// staticHandler はUIの静的ファイルを配信する
// 存在しない非APIパスは index.html にフォールバック
type staticHandler struct {
	root     string
	basePath string
	files    http.Handler
}

func newStaticHandler(root, basePath string) *staticHandler {
	return &staticHandler{
		root:     root,
		basePath: basePath,
		files:    http.FileServer(http.Dir(root)),
	}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.basePath != "" && (r.URL.Path == h.basePath || strings.HasPrefix(r.URL.Path, h.basePath+"/")) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
		return
	}

	name := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
}

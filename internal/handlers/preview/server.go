package preview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// ErrOutsideRoot is returned for paths that escape the served directory
var ErrOutsideRoot = errors.New("path is outside the output directory")

// servable lists the file types handed to the frontend
var servable = map[string]string{
	".png":     "image/png",
	".tif":     "image/tiff",
	".geojson": "application/geo+json",
}

// Server serves exported files from the output root to the desktop frontend
type Server struct {
	mu   sync.RWMutex
	root string
	url  string
	srv  *http.Server
}

// NewServer creates a preview server for files under root
func NewServer(root string) *Server {
	return &Server{root: root}
}

// SetRoot changes the served directory
func (s *Server) SetRoot(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
}

func (s *Server) getRoot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// URL returns the base URL, empty until Start succeeds
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Wails serves the UI from wails://wails on macOS/Linux
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/files/*", s.handleFile)
	return r
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	contentType, ok := servable[strings.ToLower(filepath.Ext(rel))]
	if !ok {
		http.Error(w, "unsupported file type", http.StatusNotFound)
		return
	}

	root := s.getRoot()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := ValidatePath(root, path); err != nil {
		log.Warnf("[Preview] %v", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Start listens on a random loopback port and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start preview server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	srv := &http.Server{Handler: s.Handler()}

	s.mu.Lock()
	s.url = fmt.Sprintf("http://127.0.0.1:%d", port)
	s.srv = srv
	s.mu.Unlock()
	log.Infof("[Preview] Server started on %s", s.URL())

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[Preview] Server stopped: %v", err)
		}
	}()
	return nil
}

// Shutdown stops the server if it was started
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.srv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FileURL maps a file under the root to its preview URL
func (s *Server) FileURL(path string) (string, error) {
	root := s.getRoot()
	if err := ValidatePath(root, path); err != nil {
		return "", err
	}
	absRoot, _ := filepath.Abs(root)
	absPath, _ := filepath.Abs(path)
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.URL() + "/files/" + strings.Join(segments, "/"), nil
}

// ValidatePath ensures filePath is inside dir
func ValidatePath(dir, filePath string) error {
	if dir == "" || filePath == "" {
		return fmt.Errorf("directory or file path is empty")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for directory: %w", err)
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for file: %w", err)
	}

	rel, err := filepath.Rel(absDir, absFile)
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, filePath)
	}
	return nil
}

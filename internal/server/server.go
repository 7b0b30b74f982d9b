// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"montchatsouvenir/internal/app"
	"montchatsouvenir/internal/ratelimit"
	"montchatsouvenir/internal/util"
	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
	"montchatsouvenir/pkg/session"
)

const sessionCookie = "mts_session"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Tokens         *session.Tokens
	UploadLimiter  *ratelimit.FixedWindowLimiter
	MaxUploadBytes int64
	CORSOrigin     string
}

// Server exposes HTTP endpoints for the extract service.
type Server struct {
	app            *app.App
	tokens         *session.Tokens
	uploadLimiter  *ratelimit.FixedWindowLimiter
	mux            *http.ServeMux
	maxUploadBytes int64
	corsOrigin     string
	secureCookies  bool
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("session tokens are required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = archive.DefaultMaxFileBytes
	}
	s := &Server{
		app:            cfg.App,
		tokens:         cfg.Tokens,
		uploadLimiter:  cfg.UploadLimiter,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		corsOrigin:     strings.TrimSpace(cfg.CORSOrigin),
		secureCookies:  strings.HasPrefix(strings.TrimSpace(cfg.CORSOrigin), "https://"),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.corsOrigin, util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.Handle("POST /api/extract/uploads", s.withSession(s.handleUpload, true))
	s.mux.Handle("GET /api/extract/uploads", s.withSession(s.handleListUploads, false))
	s.mux.Handle("GET /api/extract/uploads/{id}", s.withSession(s.handleGetUpload, false))
	s.mux.Handle("GET /api/extract/messages", s.withSession(s.handleGetMessages, false))
	s.mux.Handle("DELETE /api/extract/messages", s.withSession(s.handleClearMessages, false))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionHandler func(http.ResponseWriter, *http.Request, string)

// withSession resolves the caller's session from the cookie. When issue is
// true a missing or invalid cookie mints a fresh session instead of failing,
// so the first upload needs no prior handshake.
func (s *Server) withSession(next sessionHandler, issue bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			if sessionID, err := s.tokens.Verify(cookie.Value); err == nil {
				next(w, r, sessionID)
				return
			}
		}
		if !issue {
			writeError(w, http.StatusUnauthorized, "no active session")
			return
		}
		sessionID, signed, err := s.tokens.Issue()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    signed,
			Path:     "/",
			MaxAge:   int(s.tokens.TTL().Seconds()),
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		next(w, r, sessionID)
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, sessionID string) {
	if s.uploadLimiter != nil && !s.uploadLimiter.Allow(util.ClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many uploads, try again later")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	platform, err := domain.ParsePlatform(r.FormValue("platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "platform must be whatsapp, messenger or instagram")
		return
	}

	var raw domain.RawFilterOptions
	if filters := strings.TrimSpace(r.FormValue("filters")); filters != "" {
		if err := json.Unmarshal([]byte(filters), &raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filters JSON")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := s.app.ProcessFile(r.Context(), sessionID, header.Filename, data, platform, raw)
	if err != nil {
		s.writeProcessError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, archive.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported file format for the selected platform")
	case errors.Is(err, archive.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
	case errors.Is(err, archive.ErrCorruptArchive):
		writeError(w, http.StatusBadRequest, "archive is corrupt or unreadable")
	case errors.Is(err, archive.ErrEmptyArchive):
		writeError(w, http.StatusBadRequest, "archive contains no parseable chat export")
	case errors.Is(err, app.ErrProcessingTimeout):
		writeError(w, http.StatusGatewayTimeout, "processing timed out, try a smaller export")
	case errors.Is(err, app.ErrSuperseded):
		writeError(w, http.StatusConflict, "a newer upload replaced this one")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request, sessionID string) {
	conv, ok, err := s.app.Messages(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no extracted messages for this session")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.app.ClearMessages(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request, sessionID string) {
	uploads, err := s.app.Uploads(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if uploads == nil {
		uploads = []domain.Upload{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request, sessionID string) {
	id := r.PathValue("id")
	upload, ok, err := s.app.GetUpload(sessionID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

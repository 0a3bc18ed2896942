// Package httpapi exposes the conversational engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/colloquy-ai/colloquy/docindex"
	"github.com/colloquy-ai/colloquy/orchestrator"
	"github.com/colloquy-ai/colloquy/session"
)

// maxUploadBytes bounds a single document upload.
const maxUploadBytes = 16 << 20

// Responder handles one conversational request for a session.
type Responder interface {
	Handle(ctx context.Context, sessionID, userInput string) (*orchestrator.Result, error)
}

// Ingester indexes an uploaded document for a session.
type Ingester interface {
	Ingest(ctx context.Context, sessionID, filename string, raw []byte) (*docindex.Index, error)
}

// Server is the HTTP front door: chat, upload, session listing and health.
type Server struct {
	responder Responder
	ingester  Ingester
	sessions  session.Log
	logger    *slog.Logger
	addr      string
}

// NewServer creates a Server listening on addr. A nil logger discards.
func NewServer(addr string, responder Responder, ingester Ingester, sessions session.Log, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		responder: responder,
		ingester:  ingester,
		sessions:  sessions,
		logger:    logger,
		addr:      addr,
	}
}

// Handler returns the composed HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return corsMiddleware(loggingMiddleware(s.logger, mux))
}

// Start runs the server until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // Reasoning with retries can run long.
	}

	s.logger.Info("http server starting", "addr", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Fallback  bool   `json:"fallback,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserInput == "" {
		writeError(w, http.StatusBadRequest, "user_input is required")
		return
	}
	if req.SessionID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session id generation failed")
			return
		}
		req.SessionID = id.String()
	}

	result, err := s.responder.Handle(r.Context(), req.SessionID, req.UserInput)
	if err != nil {
		s.logger.Error("chat request failed", "session_id", req.SessionID, "error", err)
		if errors.Is(err, session.ErrInvalidID) {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		writeError(w, http.StatusInternalServerError, "request could not be processed")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Response:  result.Response,
		Fallback:  result.Fallback,
	})
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Document  string `json:"document"`
	Chunks    int    `json:"chunks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	index, err := s.ingester.Ingest(r.Context(), sessionID, header.Filename, raw)
	if err != nil {
		s.logger.Error("upload failed", "session_id", sessionID, "document", header.Filename, "error", err)
		switch {
		case errors.Is(err, docindex.ErrInvalidSession),
			errors.Is(err, docindex.ErrUnsupportedFormat),
			errors.Is(err, docindex.ErrEmptyDocument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, docindex.ErrEmbedding):
			writeError(w, http.StatusBadGateway, "embedding service unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "document could not be indexed")
		}
		return
	}

	s.logger.Info("document indexed", "session_id", sessionID, "document", index.Document, "chunks", len(index.Chunks))
	writeJSON(w, http.StatusOK, uploadResponse{
		SessionID: sessionID,
		Document:  index.Document,
		Chunks:    len(index.Chunks),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("listing sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sessions could not be listed")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

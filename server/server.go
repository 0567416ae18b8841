package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/ascend-travel/assistant/agent/contract"
)

const (
	threadIDPrefix  = "session_"
	threadIDMinLen  = 5
	threadIDMaxLen  = 50
	messageMaxChars = 2000
)

// TurnHandler processes one conversation turn. Implemented by the assistant
// service.
type TurnHandler interface {
	HandleMessage(ctx context.Context, threadID string, text string) (contractx.TurnResult, error)
}

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"180s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Server is the HTTP façade over the assistant: liveness, a synchronous chat
// endpoint, and an asynchronous variant backed by the task manager.
type Server struct {
	handler TurnHandler
	tasks   *TaskManager
	httpSrv *http.Server
}

func New(cfg Config, handler TurnHandler, tasks *TaskManager) (*Server, error) {
	if handler == nil {
		return nil, errors.New("turn handler is required")
	}
	if tasks == nil {
		return nil, errors.New("task manager is required")
	}

	s := &Server{handler: handler, tasks: tasks}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleLiveness)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/async", s.handleChatAsync)
	mux.HandleFunc("GET /chat/status/{task_id}", s.handleChatStatus)

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// swallowed so a clean Shutdown reads as a nil error.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the routing mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

// validate enforces the request shape before any state is touched.
func (r chatRequest) validate() error {
	if n := len(r.ThreadID); n < threadIDMinLen || n > threadIDMaxLen {
		return fmt.Errorf("thread_id must be between %d and %d characters", threadIDMinLen, threadIDMaxLen)
	}
	if !strings.HasPrefix(r.ThreadID, threadIDPrefix) {
		return fmt.Errorf("thread_id must start with %q", threadIDPrefix)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return errors.New("message must not be empty")
	}
	if len(r.Message) > messageMaxChars {
		return fmt.Errorf("message must be at most %d characters", messageMaxChars)
	}
	return nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	result, err := s.handler.HandleMessage(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("thread_id", req.ThreadID).Msg("turn failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChatAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	taskID := s.tasks.Submit(req.ThreadID, req.Message)
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleChatStatus(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")
	task, ok := s.tasks.Get(taskID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown task id"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return chatRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return chatRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("write response body")
	}
}

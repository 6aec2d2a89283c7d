// Package status serves the on-demand query surface: a read-only HTTP
// endpoint answering "what is active right now" and "what opens next"
// without mutating any stored state.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	logx "finbeat/pkg/logx"
)

// SessionsReport is the wire shape of GET /v1/sessions.
type SessionsReport struct {
	Time   string           `json:"time"`
	Active []ActiveSession  `json:"active"`
	Next   *UpcomingSession `json:"next,omitempty"`
}

type ActiveSession struct {
	Session   string `json:"session"`
	Emoji     string `json:"emoji,omitempty"`
	Remaining string `json:"remaining"`
	ClosesAt  string `json:"closes_at"`
}

type UpcomingSession struct {
	Session string `json:"session"`
	Emoji   string `json:"emoji,omitempty"`
	Wait    string `json:"wait"`
	OpensAt string `json:"opens_at"`
}

type Config struct {
	Enabled bool
	Addr    string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Service is the status HTTP server. The report func must be safe for
// concurrent use and side-effect free.
type Service struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config

	report func() SessionsReport

	ln  net.Listener
	srv *http.Server
}

func New(cfg Config, report func() SessionsReport, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:8686"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	return &Service{log: log, cfg: cfg, report: report}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Addr returns the bound address (useful when cfg used port 0).
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Service) Start(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled || s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /v1/sessions", s.handleSessions)

	s.ln = ln
	s.srv = &http.Server{
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("status server stopped", logx.Err(err))
		}
	}()
	s.log.Info("status server listening", logx.String("addr", ln.Addr().String()))
	return nil
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	rep := s.report()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		s.log.Warn("status encode failed", logx.Err(err))
	}
}

func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

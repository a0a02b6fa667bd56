package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
	"github.com/vitos/option_ladder_bot/internal/usecase"
)

// Server exposes the strategy API over HTTP.
type Server struct {
	launcher *usecase.Launcher
	logger   *zap.Logger
	mux      *http.ServeMux
	srv      *http.Server
}

func NewServer(port int, launcher *usecase.Launcher, logger *zap.Logger) *Server {
	s := &Server{
		launcher: launcher,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.mux,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/token", s.handleSaveToken)
	s.mux.HandleFunc("POST /api/strategies", s.handleCreateStrategy)
	s.mux.HandleFunc("GET /api/strategies", s.handleListStrategies)
	s.mux.HandleFunc("POST /api/strategies/{id}/start", s.handleStartStrategy)
	s.mux.HandleFunc("POST /api/strategies/{id}/stop", s.handleStopStrategy)
	s.mux.HandleFunc("GET /api/strategies/{id}/status", s.handleStrategyStatus)
	s.mux.HandleFunc("GET /api/strategies/{id}/levels", s.handleStrategyLevels)
	s.mux.HandleFunc("GET /api/strategies/{id}/orders", s.handleStrategyOrders)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, domain.Errorf(domain.KindValidation, "web.SaveToken", "invalid JSON body"))
		return
	}
	if err := s.launcher.SaveToken(r.Context(), body.Token); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateStrategyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, domain.Errorf(domain.KindValidation, "web.CreateStrategy", "invalid JSON body"))
		return
	}
	strategy, err := s.launcher.CreateStrategy(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, strategy)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	list, err := s.launcher.ListStrategies(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleStartStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.launcher.StartStrategy(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started", "id": id})
}

func (s *Server) handleStopStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.launcher.StopStrategy(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped", "id": id})
}

func (s *Server) handleStrategyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.launcher.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStrategyLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.launcher.Levels(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, levels)
}

func (s *Server) handleStrategyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.launcher.Orders(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response failed", zap.Error(err))
	}
}

// writeError maps the error kind onto an HTTP status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			status = http.StatusBadRequest
		case domain.KindTransient:
			status = http.StatusServiceUnavailable
		case domain.KindVenueRejected:
			status = http.StatusBadGateway
		}
	}
	s.logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

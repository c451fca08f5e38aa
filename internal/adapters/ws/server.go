package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subastas-service/internal/config"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// maxImageBytes caps uploaded image size at 16 MiB
const maxImageBytes = 16 << 20

// Server exposes the WebSocket endpoint plus the small HTTP surface that
// cannot run over the socket: account endpoints (no session exists yet)
// and image uploads (multipart bodies).
type Server struct {
	handler     *WsHandler
	httpServer  *http.Server
	authService inbound.AuthService
	imageHost   outbound.ImageHost
	config      *config.Config
	logger      zerolog.Logger
}

type ServerParams struct {
	Config              *config.Config
	AuthService         inbound.AuthService
	AuctionService      inbound.AuctionService
	BidService          inbound.BidService
	RequestService      inbound.RequestService
	NotificationService inbound.NotificationService
	Broadcaster         outbound.Broadcaster
	ImageHost           outbound.ImageHost
	Logger              zerolog.Logger
}

func NewServer(params ServerParams) *Server {
	handler := NewHandler(WsHandlerParams{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  params.Config.WebSocket.ReadBufferSize,
			WriteBufferSize: params.Config.WebSocket.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		AuthService:         params.AuthService,
		AuctionService:      params.AuctionService,
		BidService:          params.BidService,
		RequestService:      params.RequestService,
		NotificationService: params.NotificationService,
		Broadcaster:         params.Broadcaster,
		Logger:              params.Logger,
	})

	server := &Server{
		handler:     handler,
		authService: params.AuthService,
		imageHost:   params.ImageHost,
		config:      params.Config,
		logger:      params.Logger.With().Str("component", "ws_server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWebSocket)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/auth/register", server.handleRegister)
	mux.HandleFunc("/auth/login", server.handleLogin)
	mux.HandleFunc("/auth/logout", server.handleLogout)
	mux.HandleFunc("/auth/profile", server.handleProfile)
	mux.HandleFunc("/images", server.handleImageUpload)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", params.Config.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Minute,
	}

	return server
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok", "service": "subastas"}`))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req inbound.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token is required")
		return
	}

	if err := s.authService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "signed_out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token is required")
		return
	}

	user, err := s.authService.Resolve(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})

	case http.MethodPut:
		var req struct {
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		updated, err := s.authService.UpdateProfile(r.Context(), user.ID, req.DisplayName)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"user": updated})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleImageUpload forwards a multipart image to the hosting provider and
// returns its public URL for use in auction requests
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token is required")
		return
	}
	if _, err := s.authService.Resolve(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	url, err := s.imageHost.Upload(r.Context(), header.Filename, data)
	if err != nil {
		s.logger.Error().Err(err).Str("filename", header.Filename).Msg("Image upload failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"url": url})
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

// writeServiceError maps domain errors onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrInvalidToken),
		errors.Is(err, shared.ErrWrongCredentials),
		errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, shared.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrInvalidEmail),
		errors.Is(err, shared.ErrWeakPassword),
		errors.Is(err, shared.ErrDisplayNameRequired):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrUploadFailed), errors.Is(err, shared.ErrRemote):
		status = http.StatusBadGateway
	}

	writeError(w, status, err.Error())
}

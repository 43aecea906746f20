package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type sessionUseCase interface {
	CreateSession(ctx context.Context) (*entity.GameView, error)
	GetSession(ctx context.Context, id string) (*entity.GameView, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.GameView, error)
	JumpTo(ctx context.Context, id string, move int) (*entity.GameView, error)
	EndSession(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, message *Message, sender *client) error

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	// session id -> connections watching it
	connections      map[string]map[*client]struct{}
	connectionsMutex sync.RWMutex
}

func New(logger *slog.Logger, sessions sessionUseCase) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers:    make(map[string]handlerFunc),
		connections: make(map[string]map[*client]struct{}),
	}

	server.handlers[actionSessionNew] = server.handleNewSession
	server.handlers[actionSessionJoin] = server.handleJoinSession
	server.handlers[actionSessionLeave] = server.handleLeaveSession
	server.handlers[actionGameMove] = server.handleGameMove
	server.handlers[actionGameJump] = server.handleGameJump

	return server
}

// Start - starts WebSocket server on /ws until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	router := mux.NewRouter()
	router.Handle("/ws", that)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeHTTP - upgrades the connection and processes its messages until it closes.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sender := &client{conn: conn}
	done := make(chan struct{})

	defer func() {
		close(done)
		that.detachAll(sender)

		if err = conn.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	// Shutdown does not close hijacked connections, so close this one when the server context ends.
	go func() {
		select {
		case <-req.Context().Done():
			if closeErr := sender.close("server shutting down"); closeErr != nil {
				log.Debug("failed to close connection on shutdown", "error", closeErr)
			}
		case <-done:
		}
	}()

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	if err = that.handleMessages(req.Context(), sender); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, sender *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, reqBody, err := sender.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			_ = that.sendError(sender, actionError, "malformed message", nil)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			_ = that.sendError(sender, message.Action, "unknown action", nil)
			continue
		}

		if err = handler(ctx, &message, sender); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) attach(sessionID string, sender *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	watchers, ok := that.connections[sessionID]
	if !ok {
		watchers = make(map[*client]struct{})
		that.connections[sessionID] = watchers
	}

	watchers[sender] = struct{}{}
}

func (that *Server) detachAll(sender *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for sessionID, watchers := range that.connections {
		delete(watchers, sender)

		if len(watchers) == 0 {
			delete(that.connections, sessionID)
		}
	}
}

// takeWatchers removes and returns every connection watching sessionID.
func (that *Server) takeWatchers(sessionID string) []*client {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	watchers := that.connections[sessionID]
	delete(that.connections, sessionID)

	clients := make([]*client, 0, len(watchers))
	for watcher := range watchers {
		clients = append(clients, watcher)
	}

	return clients
}

func (that *Server) watchers(sessionID string) []*client {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	clients := make([]*client, 0, len(that.connections[sessionID]))
	for watcher := range that.connections[sessionID] {
		clients = append(clients, watcher)
	}

	return clients
}

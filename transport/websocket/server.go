package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/web3anand/tictactoe-gameserver/internal/entity"
	"github.com/web3anand/tictactoe-gameserver/internal/matchmaker"
	"github.com/web3anand/tictactoe-gameserver/internal/room"
	"github.com/web3anand/tictactoe-gameserver/internal/service"
	"github.com/web3anand/tictactoe-gameserver/internal/session"
)

type statsStore interface {
	Snapshot(ctx context.Context, identityID string) (*entity.PlayerStats, error)
}

type handlerFunc func(ctx context.Context, client *Client, msg *Message) error

// Server is the connection gateway: it upgrades sockets, runs the
// authentication handshake, and dispatches inbound messages to the room
// manager and the matchmaker. One goroutine reads per connection; a
// second one drains its send buffer.
type Server struct {
	logger *slog.Logger

	auth        service.AuthService
	registry    *session.Registry
	rooms       *room.Manager
	matchmaking *matchmaker.Matchmaker
	stats       statsStore
	authTimeout time.Duration

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, auth service.AuthService, registry *session.Registry, rooms *room.Manager, matchmaking *matchmaker.Matchmaker, stats statsStore, authTimeout time.Duration) *Server {
	server := &Server{
		logger:      logger.With("component", "gateway"),
		auth:        auth,
		registry:    registry,
		rooms:       rooms,
		matchmaking: matchmaking,
		stats:       stats,
		authTimeout: authTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[ActionAuth] = server.handleAuth
	server.handlers[ActionCreateRoom] = server.handleCreateRoom
	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionLeaveRoom] = server.handleLeaveRoom
	server.handlers[ActionMove] = server.handleMove
	server.handlers[ActionEnqueue] = server.handleEnqueue
	server.handlers[ActionDequeue] = server.handleDequeue

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, conn)
	go client.writePump()

	// an anonymous connection must not stay open indefinitely
	authTimer := time.AfterFunc(that.authTimeout, func() {
		if client.expireAuth() {
			client.logger.Info("authentication timed out")
			client.Send(EventAuthFailed, ErrorPayload{Code: codeAuthenticationFailed, Message: "authentication timed out"})
			client.Close()
		}
	})
	client.setAuthTimer(authTimer)
	defer authTimer.Stop()

	client.logger.Info("connection established")

	that.readLoop(ctx, client)
	that.disconnect(client)
}

func (that *Server) readLoop(ctx context.Context, client *Client) {
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			client.logger.Debug("read failed", "error", err)
			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			client.Send(EventError, ErrorPayload{Code: codeBadMessage, Message: "malformed message"})
			continue
		}

		that.dispatch(ctx, client, &msg)
	}
}

// dispatch enforces the per-connection state machine: before the auth
// handshake succeeds, authenticate is the only accepted action.
func (that *Server) dispatch(ctx context.Context, client *Client, msg *Message) {
	handler, ok := that.handlers[msg.Action]
	if !ok {
		client.Send(EventError, ErrorPayload{Action: msg.Action, Code: codeBadMessage, Message: "unknown action"})
		return
	}

	if msg.Action != ActionAuth && client.Identity() == nil {
		client.Send(EventError, ErrorPayload{Action: msg.Action, Code: codeNotAuthenticated, Message: "authenticate first"})
		return
	}

	if err := handler(ctx, client, msg); err != nil {
		client.logger.Error("handler failed", "action", msg.Action, "error", err)
	}
}

// disconnect cascades a transport drop: session unregister, an
// idempotent matchmaking dequeue, and an implicit leave from any room.
func (that *Server) disconnect(client *Client) {
	client.Close()

	identity := client.Identity()
	if identity == nil {
		client.logger.Info("anonymous connection closed")
		return
	}

	// only the identity's current connection may tear down its state; a
	// socket replaced by a newer session leaves the room and the queue alone
	if !that.registry.Unregister(identity.ID, client) {
		client.logger.Info("replaced connection closed", "identity", identity.ID)
		return
	}

	that.matchmaking.Dequeue(identity.ID)
	that.rooms.DropParticipant(identity.ID)

	client.logger.Info("connection closed", "identity", identity.ID)
}

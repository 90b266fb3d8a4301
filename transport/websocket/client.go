package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/web3anand/tictactoe-gameserver/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one live connection. The read loop runs in the server; the
// write pump drains the send channel so a slow socket can never block a
// room mutation.
type Client struct {
	id     string
	logger *slog.Logger
	conn   *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once

	mu          sync.Mutex
	identity    *entity.Identity
	roomCode    string
	authTimer   *time.Timer
	authExpired bool
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *Client {
	id := uuid.NewString()

	return &Client{
		id:     id,
		logger: logger.With("connection", id),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (that *Client) ID() string {
	return that.id
}

// Send serializes the event immediately, so the payload is captured at
// call time, and queues the frame without ever blocking. A connection
// whose buffer is full is closed rather than allowed to stall senders.
func (that *Client) Send(event string, payload any) {
	body, err := json.Marshal(Response{Event: event, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal outbound event", "event", event, "error", err)
		return
	}

	select {
	case that.send <- body:
	case <-that.done:
	default:
		that.logger.Warn("send buffer full, closing connection", "event", event)
		that.Close()
	}
}

func (that *Client) Close() {
	that.once.Do(func() {
		close(that.done)
		if that.conn != nil {
			_ = that.conn.Close()
		}
	})
}

// Identity returns the authenticated identity, or nil while anonymous.
func (that *Client) Identity() *entity.Identity {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.identity
}

func (that *Client) setAuthTimer(timer *time.Timer) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.authTimer = timer
}

// completeAuth binds the identity and disarms the handshake timer in one
// critical section, so the timeout can never close a connection that
// authenticated in the same instant. It reports false when the timeout
// already claimed the connection.
func (that *Client) completeAuth(identity *entity.Identity) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.authExpired {
		return false
	}

	that.identity = identity

	if that.authTimer != nil {
		that.authTimer.Stop()
		that.authTimer = nil
	}

	return true
}

// expireAuth marks the handshake as timed out unless an identity was
// already bound. Only a true return may close the connection.
func (that *Client) expireAuth() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.identity != nil {
		return false
	}

	that.authExpired = true

	return true
}

func (that *Client) RoomCode() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roomCode
}

func (that *Client) setRoomCode(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.roomCode = code
}

// writePump owns all writes to the socket, including pings.
func (that *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.Close()
	}()

	for {
		select {
		case body := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				that.logger.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-that.done:
			return
		}
	}
}

package http

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	authhttp "timeline/internal/auth/adapter/http"
	sessionhttp "timeline/internal/session/adapter/http"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// StreamPath is the websocket endpoint pushing new entries.
const StreamPath = "/timeline/stream"

const (
	localsStreamUser    = "timeline.stream_user"
	localsStreamSession = "timeline.stream_session"
	writeWait           = 10 * time.Second
)

// StreamMessage is one frame sent to stream clients.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type streamClient struct {
	id     string
	userID string
	// sessionID follows rotations; guarded by StreamHub.mu.
	sessionID string
	send      chan []byte
	done      chan struct{}
	once      sync.Once
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.done) })
}

// StreamHub fans post.created events out to connected websocket clients.
type StreamHub struct {
	mu           sync.RWMutex
	clients      map[string]*streamClient
	stopped      bool
	unsubscribe  []func()
	pingInterval time.Duration
	sendBuffer   int
	log          logger.Logger
}

// NewStreamHub subscribes to post.created on bus, and to the session events that end a client's login.
func NewStreamHub(bus eventbus.Subscriber, pingInterval time.Duration, sendBuffer int, log logger.Logger) *StreamHub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	h := &StreamHub{
		clients:      make(map[string]*streamClient),
		pingInterval: pingInterval,
		sendBuffer:   sendBuffer,
		log:          log.WithComponent("timeline.stream"),
	}
	h.unsubscribe = []func(){
		bus.Subscribe(eventbus.EventTypePostCreated, h.onPostCreated),
		bus.Subscribe(eventbus.EventTypeSessionRotated, h.onSessionRotated),
		bus.Subscribe(eventbus.EventTypeSessionDestroyed, h.onSessionDestroyed),
	}
	return h
}

// RegisterRoutes mounts the stream endpoint. Anonymous requests get 401 before the upgrade check.
func (h *StreamHub) RegisterRoutes(router fiber.Router, auth *authhttp.AuthMiddleware) {
	router.Get(StreamPath, auth.ProtectAPI(), func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if user := authhttp.CurrentUser(c); user != nil {
			c.Locals(localsStreamUser, user.ID)
		}
		if st := sessionhttp.FromCtx(c); st != nil && st.Session != nil {
			c.Locals(localsStreamSession, st.Session.ID)
		}
		return c.Next()
	}, websocket.New(h.serve))
}

// ClientCount returns the number of connected clients.
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop unsubscribes from the bus and disconnects every client.
func (h *StreamHub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	clients := make([]*streamClient, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, unsubscribe := range h.unsubscribe {
		unsubscribe()
	}
	for _, cl := range clients {
		cl.close()
	}
	h.log.Infof("Stream hub stopped, %d clients disconnected", len(clients))
}

func (h *StreamHub) onPostCreated(ctx context.Context, event eventbus.Event) error {
	msg, err := json.Marshal(StreamMessage{Type: event.Type, Data: event.Data})
	if err != nil {
		return err
	}
	h.broadcast(msg)
	return nil
}

func (h *StreamHub) onSessionRotated(ctx context.Context, event eventbus.Event) error {
	rotated, ok := event.Data.(eventbus.SessionRotated)
	if !ok {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cl := range h.clients {
		if cl.sessionID == rotated.OldID {
			cl.sessionID = rotated.NewID
		}
	}
	return nil
}

// onSessionDestroyed disconnects every client opened with the destroyed session.
func (h *StreamHub) onSessionDestroyed(ctx context.Context, event eventbus.Event) error {
	destroyed, ok := event.Data.(eventbus.SessionDestroyed)
	if !ok || destroyed.ID == "" {
		return nil
	}
	h.mu.Lock()
	var ended []*streamClient
	for id, cl := range h.clients {
		if cl.sessionID == destroyed.ID {
			ended = append(ended, cl)
			delete(h.clients, id)
		}
	}
	h.mu.Unlock()

	for _, cl := range ended {
		h.log.WithFields(map[string]interface{}{
			"subscriber_id": cl.id,
			"user_id":       cl.userID,
		}).Info("Stream client logged out, disconnecting")
		cl.close()
	}
	return nil
}

// broadcast never blocks: a client whose buffer is full is disconnected.
func (h *StreamHub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, cl := range h.clients {
		select {
		case <-cl.done:
		case cl.send <- msg:
		default:
			h.log.Warnf("Stream client %s is too slow, disconnecting", cl.id)
			cl.close()
		}
	}
}

func (h *StreamHub) register(userID, sessionID string) (*streamClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil, false
	}
	cl := &streamClient{
		id:     uuid.NewString(),
		userID:    userID,
		sessionID: sessionID,
		send:      make(chan []byte, h.sendBuffer),
		done:      make(chan struct{}),
	}
	h.clients[cl.id] = cl
	return cl, true
}

func (h *StreamHub) unregister(cl *streamClient) {
	h.mu.Lock()
	delete(h.clients, cl.id)
	h.mu.Unlock()
	cl.close()
}

func (h *StreamHub) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(localsStreamUser).(string)
	sessionID, _ := conn.Locals(localsStreamSession).(string)
	cl, ok := h.register(userID, sessionID)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return
	}
	h.log.WithFields(map[string]interface{}{
		"subscriber_id": cl.id,
		"user_id":       userID,
	}).Info("Stream client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, cl)
	}()

	readDeadline := 2 * h.pingInterval
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warnf("Stream client %s read error: %v", cl.id, err)
			}
			break
		}
	}

	h.unregister(cl)
	<-writerDone
	h.log.WithFields(map[string]interface{}{"subscriber_id": cl.id}).Info("Stream client disconnected")
}

// writeLoop is the only writer on conn.
func (h *StreamHub) writeLoop(conn *websocket.Conn, cl *streamClient) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		case <-cl.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}
	}
}

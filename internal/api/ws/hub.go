package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Kinuseka/QuickFileManager/internal/infrastructure/monitoring"
	"github.com/Kinuseka/QuickFileManager/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Event names sent to clients
const (
	EventConnected   = "connected"
	EventFileChanged = "file_changed"
	EventClientCount = "client_count"
	EventPong        = "pong"
)

// Change actions
const (
	ActionCreated      = "created"
	ActionModified     = "modified"
	ActionDeleted      = "deleted"
	ActionRenamed      = "renamed"
	ActionMoved        = "moved"
	ActionUploaded     = "uploaded"
	ActionUnzippedInto = "unzipped_into"
)

// Item types carried by a Change
const (
	TypeFile   = "file"
	TypeFolder = "folder"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Event    string `json:"event"`
	ClientID string `json:"client_id,omitempty"`
	Count    *int   `json:"count,omitempty"`
	*Change
}

// Change describes one mutation inside the managed directory
type Change struct {
	Action       string `json:"action"`
	Path         string `json:"path"`
	Type         string `json:"type,omitempty"`
	Filename     string `json:"filename,omitempty"`
	OldPath      string `json:"old_path,omitempty"`
	NewPath      string `json:"new_path,omitempty"`
	NewName      string `json:"new_name,omitempty"`
	ParentPath   string `json:"parent_path,omitempty"`
	SourceParent string `json:"source_parent,omitempty"`
	TargetParent string `json:"target_parent,omitempty"`
}

// Hub fans change notifications out to every connected client
type Hub struct {
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[id.ClientID]*client
	closed  bool
	writers sync.WaitGroup
}

type client struct {
	id   id.ClientID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger.Named("ws"),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins, CORS is enforced on the HTTP API
			},
		},
		clients: make(map[id.ClientID]*client),
	}
}

// HandleConnection upgrades the request and serves the client until it
// disconnects or the hub is closed.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   id.NewClientID(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if !h.register(cl) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	defer h.unregister(cl)

	h.enqueue(cl, Message{Event: EventConnected, ClientID: cl.id.String()})
	h.broadcastCount()
	h.readPump(cl)
}

// Publish sends a change notification to every client.
func (h *Hub) Publish(change Change) {
	h.broadcast(Message{Event: EventFileChanged, Change: &change})
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their writers to stop.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, cl := range h.clients {
		cl.close()
	}
	h.mu.Unlock()
	h.writers.Wait()
}

func (h *Hub) register(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl.id] = cl
	h.writers.Add(1)
	go h.writePump(cl)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("client connected", zap.String("client_id", cl.id.String()))
	return true
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl.id]
	delete(h.clients, cl.id)
	h.mu.Unlock()
	cl.close()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("client disconnected", zap.String("client_id", cl.id.String()))
	h.broadcastCount()
}

func (h *Hub) broadcastCount() {
	n := h.Clients()
	h.broadcast(Message{Event: EventClientCount, Count: &n})
}

func (h *Hub) broadcast(msg Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("encode websocket message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		h.deliver(cl, data, msg.Event)
	}
}

func (h *Hub) enqueue(cl *client, msg Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("encode websocket message", zap.Error(err))
		return
	}
	h.deliver(cl, data, msg.Event)
}

// deliver queues data without blocking; a client that cannot keep up is dropped.
func (h *Hub) deliver(cl *client, data []byte, event string) {
	select {
	case <-cl.done:
		return
	default:
	}
	select {
	case cl.send <- data:
		if h.metrics != nil {
			h.metrics.RecordWSMessage("out", event)
		}
	default:
		h.logger.Warn("dropping slow websocket client", zap.String("client_id", cl.id.String()))
		cl.close()
	}
}

type inbound struct {
	Event string `json:"event"`
}

func (h *Hub) readPump(cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("client_id", cl.id.String()), zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Event)
		}
		if msg.Event == "ping" {
			h.enqueue(cl, Message{Event: EventPong})
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
		h.writers.Done()
	}()

	for {
		select {
		case data := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
